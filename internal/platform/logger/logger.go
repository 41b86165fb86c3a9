// Package logger provides structured logging for the simulation server.
// Every observable action the engine takes should be traceable through this.
package logger

import (
	"fmt"
	"log"
	"os"
	"strings"
)

// Logger provides leveled logging with a dedicated simulation-event channel.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a new logger instance.
func NewLogger() *Logger {
	return &Logger{
		infoLogger:  log.New(os.Stdout, "[SIM-INFO] ", log.Ldate|log.Ltime|log.Lshortfile),
		warnLogger:  log.New(os.Stdout, "[SIM-WARN] ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLogger: log.New(os.Stderr, "[SIM-ERROR] ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// Info logs informational messages.
func (l *Logger) Info(msg string, args ...interface{}) {
	l.infoLogger.Println(sprint(msg, args...))
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.warnLogger.Println(sprint(msg, args...))
}

// Error logs error messages.
func (l *Logger) Error(msg string, args ...interface{}) {
	l.errorLogger.Println(sprint(msg, args...))
}

// Event logs a specific simulation event for operator oversight.
func (l *Logger) Event(eventType string, shipName string, details string) {
	l.infoLogger.Printf("[EVENT:%s] Ship:%s | %s", eventType, shipName, details)
}

func sprint(msg string, args ...interface{}) string {
	if len(args) == 0 {
		return msg
	}
	parts := append([]interface{}{msg}, args...)
	return strings.TrimSuffix(fmt.Sprintln(parts...), "\n")
}
