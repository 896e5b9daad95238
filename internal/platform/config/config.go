package config

import (
	"fmt"
	"path/filepath"
)

type Config struct {
	HubPath    string
	DBPath     string
	PluginsDir string
}

func New(hubPath string) (Config, error) {
	if hubPath == "" {
		return Config{}, fmt.Errorf("hub path is required")
	}
	return Config{
		HubPath:    hubPath,
		DBPath:     filepath.Join(hubPath, ".exthub", "exthub.db"),
		PluginsDir: filepath.Join(hubPath, "plugins"),
	}, nil
}
