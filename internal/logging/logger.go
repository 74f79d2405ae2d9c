// Package logging provides categorized file-based logging for prodlens.
// Logs are written to <dir>/logs with one file per category per day.
// Logging is a silent no-op until Configure is called with Debug enabled.
package logging

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Category represents a log category/subsystem.
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup and wiring
	CategoryPipeline Category = "pipeline" // Stage ordering, run state transitions
	CategoryStage    Category = "stage"    // Stage executor: bindings, parsing
	CategoryGemini   Category = "gemini"   // Model invocations
	CategoryBatch    Category = "batch"    // Batch runner, per-product outcomes
	CategoryExport   Category = "export"   // JSON/CSV/report writers
	CategoryStore    Category = "store"    // SQLite result store
	CategoryWatch    Category = "watch"    // Directory watcher
)

// Options controls logging behavior. Zero value disables all output.
type Options struct {
	Debug      bool
	Level      string          // debug, info, warn, error
	Dir        string          // base directory; logs land in Dir/logs
	Categories map[string]bool // nil enables every category
}

// Log levels
const (
	levelDebug = 0
	levelInfo  = 1
	levelWarn  = 2
	levelError = 3
)

var (
	loggers   = make(map[Category]*Logger)
	loggersMu sync.RWMutex

	optsMu   sync.RWMutex
	opts     Options
	logsDir  string
	logLevel = levelInfo
)

// Logger writes to one category's log file.
type Logger struct {
	category Category
	logger   *log.Logger
	file     *os.File
}

// Configure sets the logging options. Call once at startup; calling again
// re-reads the options but already-open files stay open.
func Configure(o Options) error {
	optsMu.Lock()
	opts = o
	switch o.Level {
	case "debug":
		logLevel = levelDebug
	case "warn", "warning":
		logLevel = levelWarn
	case "error":
		logLevel = levelError
	default:
		logLevel = levelInfo
	}
	logsDir = ""
	if o.Debug && o.Dir != "" {
		logsDir = filepath.Join(o.Dir, "logs")
	}
	optsMu.Unlock()

	if logsDir == "" {
		return nil
	}
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}
	Boot("=== prodlens logging initialized ===")
	Boot("logs directory: %s level: %s", logsDir, o.Level)
	return nil
}

// IsCategoryEnabled returns whether a specific category is enabled.
func IsCategoryEnabled(category Category) bool {
	optsMu.RLock()
	defer optsMu.RUnlock()
	if !opts.Debug {
		return false
	}
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger when the category is disabled.
func Get(category Category) *Logger {
	if !IsCategoryEnabled(category) || logsDir == "" {
		return &Logger{category: category}
	}

	loggersMu.RLock()
	if l, ok := loggers[category]; ok {
		loggersMu.RUnlock()
		return l
	}
	loggersMu.RUnlock()

	loggersMu.Lock()
	defer loggersMu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	// Date prefix keeps rotation a matter of deleting old files.
	date := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logsDir, fmt.Sprintf("%s_%s.log", date, category))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[logging] could not open log file %s: %v\n", logPath, err)
		return &Logger{category: category}
	}

	l := &Logger{
		category: category,
		file:     file,
		logger:   log.New(file, "", log.Ldate|log.Ltime|log.Lmicroseconds),
	}
	loggers[category] = l
	return l
}

// Debug logs a debug message.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l.logger == nil || logLevel > levelDebug {
		return
	}
	l.logger.Printf("[DEBUG] %s", fmt.Sprintf(format, args...))
}

// Info logs an informational message.
func (l *Logger) Info(format string, args ...interface{}) {
	if l.logger == nil || logLevel > levelInfo {
		return
	}
	l.logger.Printf("[INFO] %s", fmt.Sprintf(format, args...))
}

// Warn logs a warning message.
func (l *Logger) Warn(format string, args ...interface{}) {
	if l.logger == nil || logLevel > levelWarn {
		return
	}
	l.logger.Printf("[WARN] %s", fmt.Sprintf(format, args...))
}

// Error logs an error message (always written if the file is open).
func (l *Logger) Error(format string, args ...interface{}) {
	if l.logger == nil {
		return
	}
	l.logger.Printf("[ERROR] %s", fmt.Sprintf(format, args...))
}

// CloseAll closes all open log files (call at shutdown).
func CloseAll() {
	loggersMu.Lock()
	defer loggersMu.Unlock()
	for _, l := range loggers {
		if l.file != nil {
			l.file.Close()
		}
	}
	loggers = make(map[Category]*Logger)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - quick logging without getting a logger first.
// These are no-ops if the category is disabled.
// =============================================================================

func Boot(format string, args ...interface{})          { Get(CategoryBoot).Info(format, args...) }
func BootError(format string, args ...interface{})     { Get(CategoryBoot).Error(format, args...) }
func Pipeline(format string, args ...interface{})      { Get(CategoryPipeline).Info(format, args...) }
func PipelineDebug(format string, args ...interface{}) { Get(CategoryPipeline).Debug(format, args...) }
func PipelineError(format string, args ...interface{}) { Get(CategoryPipeline).Error(format, args...) }
func Stage(format string, args ...interface{})         { Get(CategoryStage).Info(format, args...) }
func StageDebug(format string, args ...interface{})    { Get(CategoryStage).Debug(format, args...) }
func StageWarn(format string, args ...interface{})     { Get(CategoryStage).Warn(format, args...) }
func StageError(format string, args ...interface{})    { Get(CategoryStage).Error(format, args...) }
func Gemini(format string, args ...interface{})        { Get(CategoryGemini).Info(format, args...) }
func GeminiDebug(format string, args ...interface{})   { Get(CategoryGemini).Debug(format, args...) }
func GeminiError(format string, args ...interface{})   { Get(CategoryGemini).Error(format, args...) }
func Batch(format string, args ...interface{})         { Get(CategoryBatch).Info(format, args...) }
func BatchDebug(format string, args ...interface{})    { Get(CategoryBatch).Debug(format, args...) }
func BatchWarn(format string, args ...interface{})     { Get(CategoryBatch).Warn(format, args...) }
func BatchError(format string, args ...interface{})    { Get(CategoryBatch).Error(format, args...) }
func Export(format string, args ...interface{})        { Get(CategoryExport).Info(format, args...) }
func ExportError(format string, args ...interface{})   { Get(CategoryExport).Error(format, args...) }
func Store(format string, args ...interface{})         { Get(CategoryStore).Info(format, args...) }
func StoreError(format string, args ...interface{})    { Get(CategoryStore).Error(format, args...) }
func Watch(format string, args ...interface{})         { Get(CategoryWatch).Info(format, args...) }
func WatchError(format string, args ...interface{})    { Get(CategoryWatch).Error(format, args...) }

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration.
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.op, elapsed)
	return elapsed
}

// StopWithInfo ends the timer and logs at info level.
func (t *Timer) StopWithInfo() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Info("%s completed in %v", t.op, elapsed)
	return elapsed
}
