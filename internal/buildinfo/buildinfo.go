package buildinfo

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed service.yaml
var manifest []byte

// Metadata captures static identifiers for the relay.
type Metadata struct {
	Name        string
	BinaryName  string
	Slug        string
	Description string
	GeneratorID string
	Version     string
}

// Info describes the current build.
var Info = mustParse(manifest)

// Version returns the relay semantic version.
func Version() string {
	return Info.Version
}

// Generator is the value sent in the X-Generator response header.
func Generator() string {
	return Info.GeneratorID + "/" + Info.Version
}

func mustParse(data []byte) Metadata {
	meta, err := parseManifest(data)
	if err != nil {
		panic(err)
	}
	return meta
}

type manifestDocument struct {
	Metadata struct {
		Name        string `yaml:"name"`
		Slug        string `yaml:"slug"`
		Description string `yaml:"description"`
		Version     string `yaml:"version"`
		Generator   string `yaml:"generator"`
	} `yaml:"metadata"`
	Spec struct {
		Entrypoint struct {
			Command string `yaml:"command"`
		} `yaml:"entrypoint"`
	} `yaml:"spec"`
}

func parseManifest(data []byte) (Metadata, error) {
	var doc manifestDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Metadata{}, fmt.Errorf("buildinfo: decode manifest: %w", err)
	}

	meta := Metadata{
		Name:        strings.TrimSpace(doc.Metadata.Name),
		Slug:        strings.TrimSpace(doc.Metadata.Slug),
		Description: strings.TrimSpace(doc.Metadata.Description),
		Version:     strings.TrimSpace(doc.Metadata.Version),
		GeneratorID: strings.TrimSpace(doc.Metadata.Generator),
	}
	if meta.Version == "" {
		return Metadata{}, fmt.Errorf("buildinfo: metadata.version missing in manifest")
	}
	if meta.Slug == "" {
		return Metadata{}, fmt.Errorf("buildinfo: metadata.slug missing in manifest")
	}
	if meta.Name == "" {
		meta.Name = meta.Slug
	}
	if meta.Description == "" {
		meta.Description = meta.Name
	}

	meta.BinaryName = strings.TrimPrefix(strings.TrimSpace(doc.Spec.Entrypoint.Command), "./")
	if meta.BinaryName == "" {
		meta.BinaryName = meta.Slug
	}
	if meta.GeneratorID == "" {
		meta.GeneratorID = meta.Slug
	}
	return meta, nil
}
