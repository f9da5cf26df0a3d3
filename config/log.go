package config

import (
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// InitLogger configures the standard logrus logger. When toFile is set the
// output goes to c.File so a full-screen UI is not garbled; the returned
// closer releases that file.
func InitLogger(c LogConfig, toFile bool) (io.Closer, error) {
	level, err := logrus.ParseLevel(c.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "log.level %q", c.Level)
	}
	logrus.SetLevel(level)

	if strings.EqualFold(c.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if !toFile || c.File == "" {
		logrus.SetOutput(os.Stderr)
		return nopCloser{}, nil
	}
	f, err := os.OpenFile(c.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}
	logrus.SetOutput(f)
	return f, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
