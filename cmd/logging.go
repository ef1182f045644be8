package cmd

import (
	"os"

	"luckydraw/config"

	log "github.com/sirupsen/logrus"
)

// SetupLogging configures the global logger from the configuration
func SetupLogging(cfg *config.Config) {
	log.SetOutput(os.Stdout)

	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
