package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/greeni/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const defaultConfigPath = "greeni.yaml"

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "greeni",
		Short: "Conversational backend for a children's AI companion",
		Long: `greeni serves role-play and picture-diary conversations, speech
transcription and synthesis, and answer grading for word games over HTTP/JSON.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(newServeCmd(), newConfigCmd(), newVersionCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the greeni version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "greeni %s\n", version)
		},
	}
}

// loadConfig reads path and turns a missing file into a hint.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("config file %q not found; copy configs/greeni.example.yaml to get started", path)
	}
	return cfg, err
}
