package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/metalagman/taskboard/internal/config"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const configHeader = "# taskboard configuration. Environment variables prefixed with TASKBOARD_ override these values.\n"

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize a taskboard project",
		Long:  "Initialize a taskboard project by creating the .taskboard directory and installing a default config.",
		RunE: func(cmd *cobra.Command, args []string) error {
			repoRoot, err := os.Getwd()
			if err != nil {
				return err
			}
			if err := initProject(repoRoot); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "taskboard initialized successfully")
			return nil
		},
	}
}

func initProject(repoRoot string) error {
	dataDir := filepath.Join(repoRoot, config.DirName)
	log.Info().Str("dir", dataDir).Msg("creating taskboard directory")
	if err := os.MkdirAll(filepath.Join(dataDir, "locks"), 0o755); err != nil {
		return fmt.Errorf("create locks dir: %w", err)
	}

	configPath := filepath.Join(repoRoot, config.DefaultPath())
	if _, err := os.Stat(configPath); err == nil {
		log.Info().Msg("config.yaml already exists, skipping")
		return nil
	}
	log.Info().Str("path", configPath).Msg("installing default config")
	data, err := defaultConfigYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("write default config: %w", err)
	}
	return nil
}

// defaultConfigYAML renders the built-in config. Durations are written in
// their string form so the file round-trips through the schema.
func defaultConfigYAML() ([]byte, error) {
	d := config.Default()
	doc := map[string]any{
		"storage": map[string]any{"path": d.Storage.Path},
		"http": map[string]any{
			"addr":          d.HTTP.Addr,
			"read_timeout":  d.HTTP.ReadTimeout.String(),
			"write_timeout": d.HTTP.WriteTimeout.String(),
		},
		"cache":     map[string]any{"redis_url": "", "ttl": d.Cache.TTL.String()},
		"hydration": map[string]any{"concurrency": d.Hydration.Concurrency},
		"board":     map[string]any{"stages": d.Board.Stages},
		"log":       map[string]any{"format": d.Log.Format},
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal default config: %w", err)
	}
	return append([]byte(configHeader), data...), nil
}
