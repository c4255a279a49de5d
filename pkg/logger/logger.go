// Package logger exposes the process-wide structured logger.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// global accessible logger
var (
	log *logrus.Logger
	Log *logrus.Entry
)

// This init function is only for testing cases, where the entry point is not
// main function. Unit tests would hit a nil entry without it.
func init() {
	InitLogger()
}

// InitLogger configures the process logger. JSON output in production,
// human-readable text everywhere else.
func InitLogger() {
	log = logrus.New()
	log.SetOutput(os.Stderr)
	if os.Getenv("ENV") == "production" {
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	Log = log.WithField("service", "numeneon-backend")
}
