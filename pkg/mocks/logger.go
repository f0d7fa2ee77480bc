package mocks

import (
	"fmt"
	"sync"

	"github.com/user/videoglow/pkg/ports"
)

// Logger is a mock implementation of ports.Logger that records every
// message for later inspection.
type Logger struct {
	mu       sync.Mutex
	Debugs   []string
	Infos    []string
	Warnings []string
	Errors   []string
}

// NewLogger creates an empty recording logger.
func NewLogger() *Logger {
	return &Logger{}
}

func (m *Logger) Debug(msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Debugs = append(m.Debugs, fmt.Sprintf(msg, args...))
}

func (m *Logger) Info(msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Infos = append(m.Infos, fmt.Sprintf(msg, args...))
}

func (m *Logger) Warn(msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Warnings = append(m.Warnings, fmt.Sprintf(msg, args...))
}

func (m *Logger) Error(msg string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors = append(m.Errors, fmt.Sprintf(msg, args...))
}

// WithComponent returns the same recorder so all components share one
// message log.
func (m *Logger) WithComponent(component string) ports.Logger {
	return m
}

// WarningCount returns the number of recorded warnings.
func (m *Logger) WarningCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Warnings)
}

var _ ports.Logger = (*Logger)(nil)
