// Package logger provides a comprehensive logging system with multiple outputs.
// It supports console logging with colors, file logging, and Discord webhook logging.
package logger

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sirupsen/logrus"
)

// LogLevel represents the severity level of a log message
type LogLevel int

const (
	LevelCritical LogLevel = iota
	LevelError
	LevelWarn
	LevelSuccess
	LevelInfo
	LevelDebug
	LevelSystem
)

// String returns the string representation of the log level
func (l LogLevel) String() string {
	switch l {
	case LevelCritical:
		return "CRITICAL"
	case LevelError:
		return "ERROR"
	case LevelWarn:
		return "WARN"
	case LevelSuccess:
		return "SUCCESS"
	case LevelInfo:
		return "INFO"
	case LevelDebug:
		return "DEBUG"
	case LevelSystem:
		return "SYSTEM"
	default:
		return "UNKNOWN"
	}
}

// Color returns the ANSI color code for the log level
func (l LogLevel) Color() string {
	switch l {
	case LevelCritical:
		return "\033[1;31m" // Bold Red
	case LevelError:
		return "\033[31m"
	case LevelWarn:
		return "\033[33m"
	case LevelSuccess:
		return "\033[32m"
	case LevelInfo:
		return "\033[36m"
	case LevelDebug:
		return "\033[35m"
	case LevelSystem:
		return "\033[34m"
	default:
		return "\033[0m"
	}
}

// DiscordColor returns the Discord embed color for the log level
func (l LogLevel) DiscordColor() int {
	switch l {
	case LevelCritical, LevelError:
		return 0xFF0000
	case LevelWarn:
		return 0xFFFF00
	case LevelSuccess:
		return 0x00FF00
	case LevelInfo:
		return 0x0000FF
	case LevelDebug:
		return 0x800080
	case LevelSystem:
		return 0x808080
	default:
		return 0xFFFFFF
	}
}

// logrusLevel maps our levels onto logrus. Panic is never used: logrus panics on it.
func (l LogLevel) logrusLevel() logrus.Level {
	switch l {
	case LevelCritical:
		return logrus.FatalLevel
	case LevelError:
		return logrus.ErrorLevel
	case LevelWarn:
		return logrus.WarnLevel
	case LevelDebug:
		return logrus.DebugLevel
	default:
		return logrus.InfoLevel
	}
}

const colorReset = "\033[0m"

// Fields are structured key/values attached to a log line
type Fields = logrus.Fields

// Logger is the main logging structure
type Logger struct {
	combined        *logrus.Logger
	errors          *logrus.Logger
	console         io.Writer
	errorWebhookURL string
	logsWebhookURL  string
	logFile         *os.File
	errorFile       *os.File
	mu              sync.Mutex
}

var (
	logger *Logger
	once   sync.Once
)

// Init initializes the global logger instance
func Init(errorWebhook, logsWebhook string) *Logger {
	once.Do(func() {
		logger = NewLogger(errorWebhook, logsWebhook)
	})
	return logger
}

// Get returns the global logger instance
func Get() *Logger {
	once.Do(func() {
		logger = NewLogger("", "")
	})
	return logger
}

func newFileLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})
	l.SetLevel(logrus.TraceLevel)
	l.SetOutput(io.Discard)
	// Fatal lines must never terminate the process from inside the logger
	l.ExitFunc = func(int) {}
	return l
}

// NewLogger creates a new Logger instance writing under ./logs
func NewLogger(errorWebhook, logsWebhook string) *Logger {
	l := &Logger{
		combined:        newFileLogger(),
		errors:          newFileLogger(),
		console:         os.Stdout,
		errorWebhookURL: errorWebhook,
		logsWebhookURL:  logsWebhook,
	}

	logsDir := filepath.Join(".", "logs")
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		fmt.Printf("Error creating logs directory: %v\n", err)
	}

	var err error
	l.logFile, err = os.OpenFile(filepath.Join(logsDir, "combined.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("Error opening combined log file: %v\n", err)
	} else {
		l.combined.SetOutput(l.logFile)
	}

	l.errorFile, err = os.OpenFile(filepath.Join(logsDir, "error.log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		fmt.Printf("Error opening error log file: %v\n", err)
	} else {
		l.errors.SetOutput(l.errorFile)
	}

	return l
}

// SetConsole redirects console output (tests use io.Discard or a buffer)
func (l *Logger) SetConsole(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.console = w
}

func formatFields(fields Fields) string {
	if len(fields) == 0 {
		return ""
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, fields[k]))
	}
	return " {" + strings.Join(parts, " ") + "}"
}

func (l *Logger) log(level LogLevel, message, prefix string, fields Fields) {
	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	extra := formatFields(fields)

	fmt.Fprintf(l.console, "[%s] [%s%s%s] [%s]: %s%s\n",
		timestamp,
		level.Color(),
		level.String(),
		colorReset,
		prefix,
		message,
		extra,
	)

	entry := logrus.Fields{"kind": level.String(), "prefix": prefix}
	for k, v := range fields {
		entry[k] = v
	}

	l.combined.WithFields(entry).Log(level.logrusLevel(), message)
	if level <= LevelError {
		l.errors.WithFields(entry).Log(level.logrusLevel(), message)
	}

	go l.sendToWebhook(level, message+extra, prefix)
}

// sendToWebhook sends the log message to the appropriate Discord webhook
func (l *Logger) sendToWebhook(level LogLevel, message, prefix string) {
	var webhookURL string

	if level <= LevelError && l.errorWebhookURL != "" {
		webhookURL = l.errorWebhookURL
	} else if l.logsWebhookURL != "" && level > LevelError {
		webhookURL = l.logsWebhookURL
	}

	if webhookURL == "" {
		return
	}

	payload := map[string]interface{}{
		"embeds": []interface{}{
			map[string]interface{}{
				"title":       fmt.Sprintf("[%s] %s", level.String(), prefix),
				"description": fmt.Sprintf("```%s```", message),
				"color":       level.DiscordColor(),
				"timestamp":   time.Now().Format(time.RFC3339),
				"footer": map[string]string{
					"text": "💫 Developed by PancyStudio | PancyMod Go",
				},
			},
		},
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequest(http.MethodPost, webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return
	}
	defer resp.Body.Close()
}

// Close closes the log files
func (l *Logger) Close() {
	if l.logFile != nil {
		l.logFile.Close()
	}
	if l.errorFile != nil {
		l.errorFile.Close()
	}
}

// Critical logs a critical message
func (l *Logger) Critical(message string, prefix string) { l.log(LevelCritical, message, prefix, nil) }

// Error logs an error message
func (l *Logger) Error(message string, prefix string) { l.log(LevelError, message, prefix, nil) }

// Warn logs a warning message
func (l *Logger) Warn(message string, prefix string) { l.log(LevelWarn, message, prefix, nil) }

// Success logs a success message
func (l *Logger) Success(message string, prefix string) { l.log(LevelSuccess, message, prefix, nil) }

// Info logs an info message
func (l *Logger) Info(message string, prefix string) { l.log(LevelInfo, message, prefix, nil) }

// Debug logs a debug message
func (l *Logger) Debug(message string, prefix string) { l.log(LevelDebug, message, prefix, nil) }

// System logs a system message
func (l *Logger) System(message string, prefix string) { l.log(LevelSystem, message, prefix, nil) }

// Entry is a logger bound to a set of fields
type Entry struct {
	l      *Logger
	fields Fields
}

// With binds fields to the next log call
func (l *Logger) With(fields Fields) *Entry {
	return &Entry{l: l, fields: fields}
}

func (e *Entry) Error(message, prefix string)   { e.l.log(LevelError, message, prefix, e.fields) }
func (e *Entry) Warn(message, prefix string)    { e.l.log(LevelWarn, message, prefix, e.fields) }
func (e *Entry) Success(message, prefix string) { e.l.log(LevelSuccess, message, prefix, e.fields) }
func (e *Entry) Info(message, prefix string)    { e.l.log(LevelInfo, message, prefix, e.fields) }
func (e *Entry) Debug(message, prefix string)   { e.l.log(LevelDebug, message, prefix, e.fields) }

// Package-level functions for convenience

// Critical logs a critical message using the global logger
func Critical(message string, prefix string) {
	Get().Critical(message, prefix)
}

// Error logs an error message using the global logger
func Error(message string, prefix string) {
	Get().Error(message, prefix)
}

// Warn logs a warning message using the global logger
func Warn(message string, prefix string) {
	Get().Warn(message, prefix)
}

// Success logs a success message using the global logger
func Success(message string, prefix string) {
	Get().Success(message, prefix)
}

// Info logs an info message using the global logger
func Info(message string, prefix string) {
	Get().Info(message, prefix)
}

// Debug logs a debug message using the global logger
func Debug(message string, prefix string) {
	Get().Debug(message, prefix)
}

// System logs a system message using the global logger
func System(message string, prefix string) {
	Get().System(message, prefix)
}

// With binds fields on the global logger
func With(fields Fields) *Entry {
	return Get().With(fields)
}
