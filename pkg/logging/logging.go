// Package logging provides the leveled logger the daemon and its packages
// share. Printf-style output goes through a minimum-level gate; the raw
// Printf of the embedded log.Logger stays available for callers that hold
// only the protocol's Logger interface.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/mapgrid/gisbridge/pkg/config"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps a config string to a Level. An empty string means info.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return 0, fmt.Errorf("unknown log level %q", s)
}

// Logger wraps the standard log.Logger with a minimum level.
type Logger struct {
	*log.Logger
	min Level
}

// New returns a logger writing to stderr with the given prefix, filtering
// below info until Configure raises or lowers the threshold.
func New(prefix string) *Logger {
	return &Logger{
		Logger: log.New(os.Stderr, prefix+" ", log.LstdFlags|log.Lshortfile),
		min:    LevelInfo,
	}
}

// Configure applies logging settings: the minimum level and, when a file
// path is set, a rolling file mirrored alongside stderr. Call it before the
// logger is shared across goroutines.
func (l *Logger) Configure(cfg config.LoggingConfig) error {
	if l == nil || l.Logger == nil {
		return nil
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	l.min = level
	if cfg.FilePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o700); err != nil {
			return err
		}
		writer, err := newRollingFile(cfg.FilePath, cfg.FileMaxSize)
		if err != nil {
			return err
		}
		l.SetOutput(io.MultiWriter(os.Stderr, writer))
	}
	return nil
}

// Debugf logs at debug level.
func (l *Logger) Debugf(format string, v ...any) { l.emit(LevelDebug, "DEBUG", format, v...) }

// Infof logs at info level.
func (l *Logger) Infof(format string, v ...any) { l.emit(LevelInfo, "INFO", format, v...) }

// Warnf logs at warn level.
func (l *Logger) Warnf(format string, v ...any) { l.emit(LevelWarn, "WARN", format, v...) }

// Errorf logs at error level.
func (l *Logger) Errorf(format string, v ...any) { l.emit(LevelError, "ERROR", format, v...) }

func (l *Logger) emit(level Level, tag string, format string, v ...any) {
	if l == nil || l.Logger == nil || level < l.min {
		return
	}
	// Calldepth 3 attributes the line to the Debugf/Infof/... caller.
	l.Output(3, tag+" "+fmt.Sprintf(format, v...))
}

type rollingFile struct {
	path string
	max  int
	file *os.File
}

func newRollingFile(path string, maxMB int) (*rollingFile, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, err
	}
	return &rollingFile{path: path, max: maxMB, file: f}, nil
}

func (r *rollingFile) Write(p []byte) (int, error) {
	if r.max > 0 {
		if info, err := r.file.Stat(); err == nil && info.Size()+int64(len(p)) > int64(r.max)*1024*1024 {
			r.file.Close()
			os.Rename(r.path, r.path+".1")
			newFile, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
			if err != nil {
				return 0, err
			}
			r.file = newFile
		}
	}
	return r.file.Write(p)
}
