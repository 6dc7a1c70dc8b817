// Package logger provides the process-wide structured loggers. Each component
// asks for a named logger once and logs through it; entries carry a
// "component" field so one stream can be filtered per subsystem.
package logger

import (
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures Init.
type Options struct {
	Level string
	// File, when set, receives a rotated copy of every entry.
	File string
}

var (
	mu      sync.Mutex
	root    = newRoot(os.Stdout, logrus.InfoLevel)
	loggers = make(map[string]*logrus.Entry)
)

func newRoot(out io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	return l
}

// Init reconfigures the root logger. An unknown level falls back to info and
// is reported through the returned error, after the logger is usable.
func Init(opts Options) error {
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}

	var out io.Writer = os.Stdout
	if opts.File != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    50, // megabytes
			MaxBackups: 5,
			MaxAge:     28, // days
			Compress:   true,
		})
	}

	mu.Lock()
	root.SetOutput(out)
	root.SetLevel(level)
	mu.Unlock()

	return err
}

// Get returns the logger for a component, creating it on first use.
func Get(component string) *logrus.Entry {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[component]; ok {
		return l
	}
	l := root.WithField("component", component)
	loggers[component] = l
	return l
}

// SetOutput redirects every logger, mainly for tests.
func SetOutput(w io.Writer) {
	mu.Lock()
	root.SetOutput(w)
	mu.Unlock()
}
