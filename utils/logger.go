package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Level orders log severities; messages below the logger's level are dropped.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" or "error" to a Level, defaulting to info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	default:
		return LevelInfo
	}
}

// Logger provides levelled, timestamped logging throughout the application.
type Logger struct {
	level atomic.Int32
	out   *log.Logger
	err   *log.Logger
}

// NewLogger creates a Logger writing info and below to stdout, errors to stderr.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout, os.Stderr, LevelInfo)
}

// NewLoggerTo creates a Logger writing to the given sinks at the given level.
func NewLoggerTo(out, errOut io.Writer, level Level) *Logger {
	l := &Logger{
		out: log.New(out, "", 0),
		err: log.New(errOut, "", 0),
	}
	l.level.Store(int32(level))
	return l
}

// Discard returns a Logger that drops everything; handy in tests.
func Discard() *Logger {
	return NewLoggerTo(io.Discard, io.Discard, LevelError+1)
}

// SetLevel changes the minimum severity that is written. It is safe to call
// while other goroutines are logging.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) write(dst *log.Logger, level Level, tag, format string, args ...any) {
	if int32(level) < l.level.Load() {
		return
	}
	dst.Printf("[%s] %s %s", l.timestamp(), tag, fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...any) {
	l.write(l.out, LevelInfo, "\033[32mINFO\033[0m ", format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.write(l.out, LevelWarn, "\033[33mWARN\033[0m ", format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.write(l.err, LevelError, "\033[31mERROR\033[0m", format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.write(l.out, LevelDebug, "\033[36mDEBUG\033[0m", format, args...)
}
