// Package log builds the logrus loggers used across sitemapgen.
package log

import (
	"io"

	"github.com/sirupsen/logrus"
)

// TimestampFormat is used by the text formatter
const TimestampFormat = "15:04:05.000"

// New creates a logger writing to out at the given level. An unparsable
// level falls back to info and is reported through the logger itself.
func New(levelStr string, out io.Writer) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: TimestampFormat})
	log.SetLevel(logrus.InfoLevel)

	if levelStr == "" {
		return log
	}
	level, err := logrus.ParseLevel(levelStr)
	if err != nil {
		log.Warnf("Invalid log level '%s', using default 'info'. Error: %v", levelStr, err)
		return log
	}
	log.SetLevel(level)
	return log
}

// Component returns an entry tagged with a component field
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField("component", name)
}

// Discard returns an entry that drops everything; used where a logger is
// required but output is unwanted.
func Discard() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}
