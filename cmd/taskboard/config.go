package main

import (
	"github.com/metalagman/taskboard/internal/config"
	"github.com/metalagman/taskboard/internal/logging"
	"github.com/spf13/viper"
)

func loadConfig() (config.Config, error) {
	path := viper.GetString("config")
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(viper.New(), path)
	if err != nil {
		return config.Config{}, err
	}
	if logFormat == "" && cfg.Log.Format != "" {
		logging.Init(debug, cfg.Log.Format)
	}
	return cfg, nil
}
