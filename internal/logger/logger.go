// Package logger configures the shared structured logger.
package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// New builds the application logger. Production gets JSON lines for log
// shipping; everything else stays human-readable.
func New(production bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if production {
		log.SetFormatter(&logrus.JSONFormatter{})
		log.SetLevel(logrus.InfoLevel)
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		log.SetLevel(logrus.DebugLevel)
	}
	return log
}
