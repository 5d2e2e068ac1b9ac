package logging

import (
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"
)

// New builds the process logger. Production gets JSON lines, everything else
// gets human readable text with full timestamps. An unknown level falls back
// to info.
func New(appEnv, level string) *logrus.Logger {
	return NewWithOutput(appEnv, level, os.Stdout)
}

func NewWithOutput(appEnv, level string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	if appEnv == "production" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339Nano})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetOutput(out)
	return log
}

// Discard returns an entry that writes nowhere; handy for tests and for
// components constructed without a logger.
func Discard() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}
