package main

import (
	"errors"
	"fmt"
	"io/fs"
	"mcserve/internal"

	"github.com/Netflix/go-env"
	"github.com/joho/godotenv"
)

// loadConfig fills the configuration from the environment, after loading
// envFile. Without envFile a .env in the working directory is optional.
func loadConfig(envFile string) (internal.Config, error) {
	var config internal.Config
	switch envFile {
	case "":
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return config, fmt.Errorf("reading .env: %w", err)
		}
	default:
		if err := godotenv.Load(envFile); err != nil {
			return config, fmt.Errorf("reading %s: %w", envFile, err)
		}
	}
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return config, fmt.Errorf("config error: %w", err)
	}
	if err := config.Validate(); err != nil {
		return config, err
	}
	return config, nil
}
