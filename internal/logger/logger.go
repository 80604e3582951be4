package logger

import (
	"log"
	"os"
)

type Logger struct {
	level  string
	prefix string
}

func New(level string) *Logger {
	return &Logger{
		level: level,
	}
}

// With returns a logger that tags every line with prefix, e.g. "[products/update]".
func (l *Logger) With(prefix string) *Logger {
	p := prefix
	if l.prefix != "" {
		p = l.prefix + " " + prefix
	}
	return &Logger{level: l.level, prefix: p}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	if l.level == "debug" || l.level == "info" {
		l.printf("[INFO] ", msg, args...)
	}
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	if l.level == "debug" {
		l.printf("[DEBUG] ", msg, args...)
	}
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	if l.level != "error" {
		l.printf("[WARN] ", msg, args...)
	}
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.printf("[ERROR] ", msg, args...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.printf("[FATAL] ", msg, args...)
	os.Exit(1)
}

func (l *Logger) printf(level, msg string, args ...interface{}) {
	if l.prefix != "" {
		level += l.prefix + " "
	}
	log.Printf(level+msg, args...)
}
