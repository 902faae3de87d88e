// pkg/logging/logging.go - leveled key-value logging for PackForge.
//
// Two flavors live here: a package-level singleton used by the library
// packages (Init once, then Info/Warn/Error/Debug with key-value pairs),
// and a lightweight instance Logger used by the CLIs for colored
// console output.

package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of the log message.
type LogLevel int

const (
	LevelError LogLevel = iota
	LevelWarn
	LevelInfo
	LevelDebug
)

// String returns the string representation of the LogLevel.
func (ll LogLevel) String() string {
	switch ll {
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel maps a config string to a LogLevel. Unknown strings fall
// back to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return LevelError
	case "WARN", "WARNING":
		return LevelWarn
	case "DEBUG":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// Options controls the singleton logger.
type Options struct {
	Level   LogLevel
	LogFile string // optional; empty means console only
	Console bool
}

// Logger encapsulates leveled logging with an optional log file.
type Logger struct {
	mu       sync.RWMutex
	logger   *log.Logger
	logLevel LogLevel
	logFile  *os.File
}

var (
	instance *Logger
	once     sync.Once
)

// Init initializes the singleton Logger. It must be called before any
// package-level logging functions are used.
func Init(opts Options) error {
	var initErr error
	once.Do(func() {
		instance, initErr = newLogger(opts)
	})
	return initErr
}

func newLogger(opts Options) (*Logger, error) {
	l := &Logger{logLevel: opts.Level}

	var writers []io.Writer
	if opts.Console {
		writers = append(writers, os.Stdout)
	}
	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.logFile = f
		writers = append(writers, f)
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	l.logger = log.New(io.MultiWriter(writers...), "", 0)
	return l, nil
}

// CloseLogger closes the log file if one is open.
func CloseLogger() {
	if instance == nil {
		return
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()
	if instance.logFile != nil {
		instance.logFile.Close()
		instance.logFile = nil
	}
}

// SetLevel adjusts the singleton's level after Init.
func SetLevel(level LogLevel) {
	if instance == nil {
		return
	}
	instance.mu.Lock()
	defer instance.mu.Unlock()
	instance.logLevel = level
}

// logMessage writes one line in the traditional timestamped format,
// appending key-value pairs.
func (l *Logger) logMessage(level LogLevel, message string, keyValues ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.logger == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: %s %s %v\n", level.String(), message, keyValues)
		return
	}
	if level > l.logLevel {
		return
	}

	ts := time.Now().Format("2006-01-02 15:04:05")
	line := fmt.Sprintf("[%s] %-5s %s", ts, level.String(), message)
	for i := 0; i < len(keyValues); i += 2 {
		if i+1 < len(keyValues) {
			line += fmt.Sprintf(" %v=%v", keyValues[i], keyValues[i+1])
		}
	}
	l.logger.Println(line)

	if l.logFile != nil {
		l.logFile.Sync()
	}
}

// Info logs informational messages.
func Info(message string, keyValues ...interface{}) {
	if instance == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: INFO %s %v\n", message, keyValues)
		return
	}
	instance.logMessage(LevelInfo, message, keyValues...)
}

// Debug logs debug messages.
func Debug(message string, keyValues ...interface{}) {
	if instance == nil {
		return
	}
	instance.logMessage(LevelDebug, message, keyValues...)
}

// Warn logs warning messages.
func Warn(message string, keyValues ...interface{}) {
	if instance == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: WARN %s %v\n", message, keyValues)
		return
	}
	instance.logMessage(LevelWarn, message, keyValues...)
}

// Error logs error messages.
func Error(message string, keyValues ...interface{}) {
	if instance == nil {
		fmt.Printf("LOGGING NOT INITIALIZED: ERROR %s %v\n", message, keyValues)
		return
	}
	instance.logMessage(LevelError, message, keyValues...)
}

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorBlue   = "\033[34m"
	colorGreen  = "\033[32m"
)

// New creates a standalone console Logger for CLI use.
func New(verbose bool) *Logger {
	enableColors()

	level := LevelInfo
	if verbose {
		level = LevelDebug
	}
	return &Logger{
		logger:   log.New(os.Stdout, "", 0),
		logLevel: level,
	}
}

// SetOutput changes the output destination.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.logger.SetOutput(w)
}

func (l *Logger) colorPrintf(color, format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ts := time.Now().Format("2006-01-02 15:04:05")
	msg := fmt.Sprintf(format, v...)
	l.logger.Printf("%s[%s] %s%s", color, ts, msg, colorReset)
}

// Printf prints a regular timestamped message.
func (l *Logger) Printf(format string, v ...interface{}) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	ts := time.Now().Format("2006-01-02 15:04:05")
	l.logger.Printf("[%s] %s", ts, fmt.Sprintf(format, v...))
}

// Info prints an informational message.
func (l *Logger) Info(format string, v ...interface{}) {
	l.Printf(format, v...)
}

// Success prints a success message in green.
func (l *Logger) Success(format string, v ...interface{}) {
	l.colorPrintf(colorGreen, format, v...)
}

// Error prints an error message in red.
func (l *Logger) Error(format string, v ...interface{}) {
	l.colorPrintf(colorRed, format, v...)
}

// Warning prints a warning message in yellow.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.colorPrintf(colorYellow, format, v...)
}

// Debug prints a debug message in blue, honoring the level.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.mu.RLock()
	level := l.logLevel
	l.mu.RUnlock()
	if level < LevelDebug {
		return
	}
	l.colorPrintf(colorBlue, format, v...)
}

// Fatal prints an error message in red and exits.
func (l *Logger) Fatal(format string, v ...interface{}) {
	l.Error(format, v...)
	os.Exit(1)
}
