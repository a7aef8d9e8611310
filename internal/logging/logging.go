// Package logging configures the process-wide logrus logger for the
// engine binaries.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Setup applies the requested level to the standard logrus logger and
// switches it to full-timestamp text output. An empty or unparseable
// level falls back to info. The returned entry carries the component
// name; everything downstream logs through children of it.
func Setup(component, level string) *logrus.Entry {
	lvl, err := logrus.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	logrus.SetLevel(lvl)
	logrus.SetOutput(os.Stderr)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logrus.WithField("component", component)
}
