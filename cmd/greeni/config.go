package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/MrWong99/greeni/internal/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration file",
	}
	validate := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate a config file, then print a summary",
		Args:  cobra.NoArgs,
		RunE:  runValidate,
	}
	validate.Flags().StringP("config", "c", defaultConfigPath, "path to the YAML configuration file")
	cmd.AddCommand(validate)
	return cmd
}

func runValidate(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("getting config flag: %w", err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s: ok\n", path)
	printSummary(out, cfg)
	return nil
}

// printSummary writes one line per configured collaborator.
func printSummary(w io.Writer, cfg *config.Config) {
	line := func(label, value string) { fmt.Fprintf(w, "  %-14s %s\n", label+":", value) }
	provider := func(e config.ProviderEntry) string {
		switch {
		case e.Name == "":
			return "(disabled)"
		case e.Model != "":
			return e.Name + " / " + e.Model
		default:
			return e.Name
		}
	}

	line("listen", cfg.Server.ListenAddr)
	line("llm", provider(cfg.Providers.LLM))
	line("judge", provider(cfg.Providers.Judge))
	line("stt", provider(cfg.Providers.STT))
	tts := provider(cfg.Providers.TTS)
	for _, fb := range cfg.Providers.TTSFallbacks {
		tts += " -> " + provider(fb)
	}
	line("tts", tts)
	if cfg.Storage.Enabled() {
		line("storage", cfg.Storage.Name+" / "+cfg.Storage.Bucket)
	} else {
		line("storage", "(disabled)")
	}
	line("turn ceiling", fmt.Sprint(cfg.Dialogue.TurnCeiling))
	line("idle ttl", cfg.Dialogue.SessionIdleTTL.String())
	line("transcode", fmt.Sprint(cfg.Speech.TranscodeEnabled()))
}
