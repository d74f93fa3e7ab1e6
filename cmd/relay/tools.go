package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/verse-reader/speech-relay/internal/config"
	"github.com/verse-reader/speech-relay/internal/googletts"
	"github.com/verse-reader/speech-relay/internal/simplify"
)

var (
	sayText     string
	sayLanguage string
	sayVoice    string
	sayOut      string

	simplifyText     string
	simplifyLanguage string
	simplifyLevel    string

	voicesLanguage string
)

var sayCmd = &cobra.Command{
	Use:   "say",
	Short: "Synthesize text to an audio file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		synth, closer, err := newSynthesizer(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}

		text, err := readText(sayText, cmd.InOrStdin())
		if err != nil {
			return err
		}
		language := sayLanguage
		if language == "" {
			language = cfg.DefaultLanguage
		}
		voice := sayVoice
		if voice == "" {
			voice = cfg.VoiceName
		}

		result, err := synth.Synthesize(cmd.Context(), googletts.SynthesizeRequest{
			Text:         text,
			LanguageCode: googletts.LanguageCode(language),
			VoiceName:    voice,
			Gender:       cfg.VoiceGender,
			Encoding:     cfg.AudioEncoding,
			SpeakingRate: cfg.SpeakingRate,
		})
		if err != nil {
			return err
		}

		out := sayOut
		if out == "" {
			out = "verse_" + uuid.NewString() + googletts.FileExtension(cfg.AudioEncoding)
		}
		if err := os.WriteFile(out, result.Audio, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %d bytes to %s\n", len(result.Audio), out)
		return nil
	},
}

var simplifyCmd = &cobra.Command{
	Use:   "simplify",
	Short: "Rewrite text in simpler language with the configured provider",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		simplifier, err := newSimplifier(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		if simplifier == nil {
			return simplify.ErrNoProvider
		}

		text, err := readText(simplifyText, cmd.InOrStdin())
		if err != nil {
			return err
		}
		language := simplifyLanguage
		if language == "" {
			language = cfg.DefaultLanguage
		}
		out, err := simplifier.Simplify(cmd.Context(), simplify.Request{
			Text:     text,
			Language: language,
			Level:    simplifyLevel,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), out)
		return nil
	},
}

var voicesCmd = &cobra.Command{
	Use:   "voices",
	Short: "List the voices offered by Cloud Text-to-Speech",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		synth, closer, err := newSynthesizer(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		if closer != nil {
			defer closer.Close()
		}
		return printVoices(cmd.Context(), cmd.OutOrStdout(), synth, voicesLanguage)
	},
}

func init() {
	sayCmd.Flags().StringVarP(&sayText, "text", "t", "", "text to synthesize (\"-\" reads stdin)")
	sayCmd.Flags().StringVarP(&sayLanguage, "language", "l", "", "language code (en, nl or a BCP-47 tag)")
	sayCmd.Flags().StringVar(&sayVoice, "voice", "", "voice name, overrides the configured voice")
	sayCmd.Flags().StringVarP(&sayOut, "out", "o", "", "output file (default verse_<uuid>.mp3)")
	_ = sayCmd.MarkFlagRequired("text")

	simplifyCmd.Flags().StringVarP(&simplifyText, "text", "t", "", "text to simplify (\"-\" reads stdin)")
	simplifyCmd.Flags().StringVarP(&simplifyLanguage, "language", "l", "", "language of the text")
	simplifyCmd.Flags().StringVar(&simplifyLevel, "level", simplify.LevelEasy, "reading level: easy or child")
	_ = simplifyCmd.MarkFlagRequired("text")

	voicesCmd.Flags().StringVarP(&voicesLanguage, "language", "l", "", "only list voices for this language code")
}

// readText returns value, or stdin when value is "-".
func readText(value string, stdin io.Reader) (string, error) {
	if value == "-" {
		data, err := io.ReadAll(io.LimitReader(stdin, config.DefaultMaxTextBytes+1))
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		value = string(data)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return "", errors.New("text is empty")
	}
	if len(value) > config.DefaultMaxTextBytes {
		return "", fmt.Errorf("text exceeds the %d byte limit", config.DefaultMaxTextBytes)
	}
	return value, nil
}

func printVoices(ctx context.Context, w io.Writer, synth googletts.Synthesizer, language string) error {
	voices, err := synth.Voices(ctx, language)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tLANGUAGES\tGENDER\tSAMPLE RATE")
	for _, v := range voices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", v.Name, strings.Join(v.LanguageCodes, ","), v.Gender, v.NaturalSampleRateHertz)
	}
	return tw.Flush()
}
