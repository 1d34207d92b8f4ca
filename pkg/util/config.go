package util

import (
	"fmt"

	"github.com/spf13/viper"
)

// ReadConfig loads config.yaml from the given directory into viper so
// callers can layer overrides on top of the built-in country defaults.
func ReadConfig(configPath string) error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configPath)

	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("reading override config from %s: %w", configPath, err)
	}
	return nil
}
