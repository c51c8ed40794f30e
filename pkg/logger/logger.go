package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var base = logrus.New()

func init() {
	Configure(os.Getenv("ENVIRONMENT"), os.Getenv("LOG_LEVEL"))
}

// Configure switches formatter and level. Production logs are JSON.
func Configure(environment, level string) {
	if environment == "production" {
		base.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	} else {
		base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	lvl, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = logrus.InfoLevel
		if environment == "development" {
			lvl = logrus.DebugLevel
		}
	}
	base.SetLevel(lvl)
	base.SetOutput(os.Stdout)
}

// SetOutput redirects log output, mostly for tests.
func SetOutput(w io.Writer) {
	base.SetOutput(w)
}

func Info(format string, v ...interface{}) {
	base.Infof(format, v...)
}

func Error(format string, v ...interface{}) {
	base.Errorf(format, v...)
}

func Debug(format string, v ...interface{}) {
	base.Debugf(format, v...)
}

func Warn(format string, v ...interface{}) {
	base.Warnf(format, v...)
}

func Fatal(format string, v ...interface{}) {
	base.Fatalf(format, v...)
}

func WithFields(fields map[string]interface{}) *logrus.Entry {
	return base.WithFields(logrus.Fields(fields))
}

func WithError(err error) *logrus.Entry {
	return base.WithError(err)
}
