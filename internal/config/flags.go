package config

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// ProcessorFlags defines the processing-API and logging flags on fs. The flag
// names map to configuration keys through BindFlags.
func ProcessorFlags(fs *pflag.FlagSet) map[string]string {
	fs.String("endpoint", "", "Base URL of the document-processing API")
	fs.String("api-key", "", "Bearer token sent to the processing API")
	fs.Duration("poll-interval", 0, "Delay between status requests (e.g. 10s)")
	fs.Int("max-attempts", 0, "Maximum number of status requests")
	fs.Int("timeout", 0, "Per-request HTTP timeout in seconds")
	fs.String("log-level", "", "Log level (debug, info, warn, error)")
	fs.String("log-format", "", "Log format (console, json)")

	return map[string]string{
		"endpoint":      "processor.endpoint",
		"api-key":       "processor.api_key",
		"poll-interval": "processor.poll_interval",
		"max-attempts":  "processor.max_attempts",
		"timeout":       "processor.timeout_secs",
		"log-level":     "log.level",
		"log-format":    "log.format",
	}
}

// BindFlags binds each flag in bindings to its configuration key so that a
// flag set on the command line overrides environment and defaults.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet, bindings map[string]string) error {
	for name, key := range bindings {
		flag := fs.Lookup(name)
		if flag == nil {
			return fmt.Errorf("config.BindFlags: unknown flag %q", name)
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("config.BindFlags: %s: %w", name, err)
		}
	}
	return nil
}
