package buildinfo

import "testing"

func TestEmbeddedManifest(t *testing.T) {
	if Info.Slug != "speech-relay" {
		t.Errorf("Slug = %q, want speech-relay", Info.Slug)
	}
	if Version() == "" {
		t.Error("Version() is empty")
	}
	if Info.BinaryName != "relay" {
		t.Errorf("BinaryName = %q, want relay", Info.BinaryName)
	}
	if got, want := Generator(), "speech-relay/"+Info.Version; got != want {
		t.Errorf("Generator() = %q, want %q", got, want)
	}
}

func TestParseManifestDefaults(t *testing.T) {
	meta, err := parseManifest([]byte("metadata:\n  slug: relay-x\n  version: 1.2.3\n"))
	if err != nil {
		t.Fatalf("parseManifest: %v", err)
	}
	if meta.Name != "relay-x" || meta.Description != "relay-x" {
		t.Errorf("name/description defaults = %q/%q", meta.Name, meta.Description)
	}
	if meta.BinaryName != "relay-x" || meta.GeneratorID != "relay-x" {
		t.Errorf("binary/generator defaults = %q/%q", meta.BinaryName, meta.GeneratorID)
	}
}

func TestParseManifestErrors(t *testing.T) {
	cases := map[string]string{
		"missing version": "metadata:\n  slug: a\n",
		"missing slug":    "metadata:\n  version: 1.0.0\n",
		"bad yaml":        "metadata: [",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := parseManifest([]byte(doc)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
