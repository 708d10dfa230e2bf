// Package logger provides the leveled loggers shared by the api and worker processes.
package logger

import (
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

var (
	Info  = newLogger(os.Stdout, "INFO: ")
	Warn  = newLogger(os.Stdout, "WARN: ")
	Error = newLogger(os.Stderr, "ERROR: ")
	Debug = newLogger(os.Stdout, "DEBUG: ")
)

func newLogger(w io.Writer, prefix string) *log.Logger {
	return log.New(w, prefix, log.Ldate|log.Ltime|log.Lshortfile)
}

// Init points every level at w. When dir is non-empty a timestamped log file is
// created there and written alongside w. The returned closer releases the file.
func Init(w io.Writer, dir string) (io.Closer, error) {
	var closer io.Closer = nopCloser{}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, err
		}
		name := filepath.Join(dir, time.Now().Format("2006-01-02_15-04-05")+".log")
		file, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) // #nosec
		if err != nil {
			return nil, err
		}
		w = io.MultiWriter(w, file)
		closer = file
	}
	for _, l := range []*log.Logger{Info, Warn, Error, Debug} {
		l.SetOutput(w)
	}
	return closer, nil
}

// SetLevel discards debug output in production.
func SetLevel(env string) {
	if env == "production" || env == "prod" {
		Debug.SetOutput(io.Discard)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
