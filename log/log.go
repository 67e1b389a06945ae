// Package log routes diagnostics to a daily file through logrus.
// Every emission is discarded unless logs.write is enabled.
package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/samber/lo"
	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/vplayer/vplayer/filesystem"
	"github.com/vplayer/vplayer/key"
	"github.com/vplayer/vplayer/where"
)

var (
	enabled bool
	logger  = logrus.New()
	sink    io.Closer
)

// Fields is an alias so callers do not need to import logrus.
type Fields = logrus.Fields

// Setup opens today's log file and applies the configured format and level.
func Setup() error {
	enabled = viper.GetBool(key.LogsWrite)
	if !enabled {
		logger.SetOutput(io.Discard)
		return nil
	}

	dir := where.Logs()
	if dir == "" {
		return errors.New("log directory path is empty")
	}

	path := filepath.Join(dir, fmt.Sprintf("%s.log", time.Now().Format("2006-01-02")))

	f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	logger.SetOutput(f)
	sink = f

	if viper.GetBool(key.LogsJson) {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}

	logger.SetLevel(lo.Ternary(
		lo.IsNotEmpty(viper.GetString(key.LogsLevel)),
		parseLevel(viper.GetString(key.LogsLevel)),
		logrus.InfoLevel,
	))

	return nil
}

// Close flushes and closes the log file, if one was opened.
func Close() error {
	if sink == nil {
		return nil
	}
	err := sink.Close()
	sink = nil
	logger.SetOutput(io.Discard)
	return err
}

func parseLevel(s string) logrus.Level {
	parsed, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return parsed
}

// Entry is a logger bound to a component name and optional fields.
type Entry struct {
	e *logrus.Entry
}

// For returns an Entry tagged with the component name.
func For(component string) Entry {
	return Entry{e: logger.WithField("component", component)}
}

// With returns a copy of the entry with the additional fields.
func (l Entry) With(fields Fields) Entry {
	return Entry{e: l.e.WithFields(fields)}
}

func (l Entry) Errorf(format string, args ...any) {
	if enabled {
		l.e.Errorf(format, args...)
	}
}

func (l Entry) Warnf(format string, args ...any) {
	if enabled {
		l.e.Warnf(format, args...)
	}
}

func (l Entry) Infof(format string, args ...any) {
	if enabled {
		l.e.Infof(format, args...)
	}
}

func (l Entry) Debugf(format string, args ...any) {
	if enabled {
		l.e.Debugf(format, args...)
	}
}

func (l Entry) Tracef(format string, args ...any) {
	if enabled {
		l.e.Tracef(format, args...)
	}
}

func Error(args ...any) {
	if enabled {
		logger.Error(args...)
	}
}

func Errorf(format string, args ...any) {
	if enabled {
		logger.Errorf(format, args...)
	}
}

func Warn(args ...any) {
	if enabled {
		logger.Warn(args...)
	}
}

func Warnf(format string, args ...any) {
	if enabled {
		logger.Warnf(format, args...)
	}
}

func Info(args ...any) {
	if enabled {
		logger.Info(args...)
	}
}

func Infof(format string, args ...any) {
	if enabled {
		logger.Infof(format, args...)
	}
}

func Debugf(format string, args ...any) {
	if enabled {
		logger.Debugf(format, args...)
	}
}

func Tracef(format string, args ...any) {
	if enabled {
		logger.Tracef(format, args...)
	}
}
