package main

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// flagLogLevel reads the --log-level override. ok reports whether the flag
// was set. An invalid level is an operator mistake, not a runtime failure.
func flagLogLevel(cmd *cobra.Command) (level logrus.Level, ok bool, err error) {
	levelStr, _ := cmd.Flags().GetString("log-level")
	if levelStr == "" {
		return 0, false, nil
	}
	parsed, err := logrus.ParseLevel(levelStr)
	if err != nil {
		return 0, false, usageErrorf("invalid log level %q (use debug, info, warn, or error)", levelStr)
	}
	return parsed, true, nil
}

// configureLogger creates a logger honoring the --log-level flag, falling
// back to the given level when the flag is unset.
func configureLogger(cmd *cobra.Command, fallback logrus.Level) (*logrus.Logger, error) {
	level, ok, err := flagLogLevel(cmd)
	if err != nil {
		return nil, err
	}
	if !ok {
		level = fallback
	}

	logger := logrus.New()
	logger.SetLevel(level)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger, nil
}
