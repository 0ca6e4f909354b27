package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/metalagman/taskboard/internal/config"
	"github.com/metalagman/taskboard/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	debug     bool
	logFormat string
	envFile   string
)

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taskboard",
		Short:         "taskboard keeps nested task checklists and a kanban board",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", config.DefaultPath(), "config file path")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format (console|json), overrides log.format")
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading config")
	_ = viper.BindPFlag("config", root.PersistentFlags().Lookup("config"))

	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(envFile); err != nil {
			return err
		}
		logging.Init(debug, logFormat)
		return nil
	}

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(taskCmd())
	root.AddCommand(tagCmd())
	root.AddCommand(boardCmd())
	root.AddCommand(uiCmd())
	return root
}

// loadEnvFile exports variables from path. A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
}
