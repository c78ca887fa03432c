package config

import (
	"github.com/rshade/carbonledger/internal/logging"
)

// ToLoggingConfig converts the file's logging section to logging.Config.
// A non-empty File selects file output; otherwise logs go to stderr.
func (lc *LoggingConfig) ToLoggingConfig() logging.Config {
	output := outputTypeStderr
	if lc.File != "" {
		output = outputTypeFile
	}

	return logging.Config{
		Level:      lc.Level,
		Format:     lc.Format,
		Output:     output,
		File:       lc.File,
		MaxSizeMB:  lc.MaxSizeMB,
		MaxBackups: lc.MaxBackups,
	}
}

// GetLoggingConfig returns a copy of the global logging section. Flag
// overrides such as --debug are applied by the caller.
func GetLoggingConfig() LoggingConfig {
	return GetGlobalConfig().Logging
}
