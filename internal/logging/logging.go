// Package logging builds the loggers handed to components.
//
// Components accept a *log.Logger in their Config and never construct
// their own; these helpers keep the "[name] " prefix convention and the
// file rotation policy in one place. Long-running modes (watch, serve)
// log to a size-rotated file so an unattended process cannot fill the
// disk.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation policy for file-backed logs.
const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

// New returns a stderr logger with the conventional "[name] " prefix.
func New(name string) *log.Logger {
	return log.New(os.Stderr, "["+name+"] ", log.LstdFlags)
}

// NewFile returns a logger writing to a size-rotated file at path,
// creating parent directories as needed. The returned closer releases
// the file; callers hold it for the life of the process.
func NewFile(name, path string) (*log.Logger, io.Closer) {
	rot := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	return log.New(rot, "["+name+"] ", log.LstdFlags), rot
}

// NewTee returns a logger writing to both stderr and a size-rotated
// file, for long-running modes launched from an interactive terminal.
func NewTee(name, path string) (*log.Logger, io.Closer) {
	rot := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	return log.New(io.MultiWriter(os.Stderr, rot), "["+name+"] ", log.LstdFlags), rot
}
