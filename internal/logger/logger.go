package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

var Log = newLogger()

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:      true,
		DisableTimestamp: true,
	})

	if os.Getenv("DEBUG") == "1" {
		log.SetLevel(logrus.DebugLevel)
	} else {
		log.SetLevel(logrus.InfoLevel)
	}

	return log
}

// ToFile redirects the logger to path while the terminal is owned by the TUI.
// The returned func restores stderr and closes the file.
func ToFile(path string) (func(), error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	Log.SetOutput(f)
	Log.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	return func() {
		Log.SetOutput(os.Stderr)
		Log.SetFormatter(&logrus.TextFormatter{ForceColors: true, DisableTimestamp: true})
		_ = f.Close()
	}, nil
}

// Discard silences the logger, used by tests that exercise noisy paths.
func Discard() {
	Log.SetOutput(io.Discard)
}
