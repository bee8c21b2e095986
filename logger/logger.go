package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
	FATAL
)

var (
	levelNames = map[LogLevel]string{
		DEBUG: "DEBUG",
		INFO:  "INFO",
		WARN:  "WARN",
		ERROR: "ERROR",
		FATAL: "FATAL",
	}

	levelColors = map[LogLevel]string{
		DEBUG: "\033[36m", // Cyan
		INFO:  "\033[32m", // Green
		WARN:  "\033[33m", // Yellow
		ERROR: "\033[31m", // Red
		FATAL: "\033[35m", // Magenta
	}

	resetColor = "\033[0m"
)

// Logger writes leveled lines to stdout and, optionally, a daily log file.
type Logger struct {
	level      LogLevel
	writers    []io.Writer
	file       *os.File
	mu         sync.Mutex
	useColor   bool
	prefix     string
	showCaller bool
	stop       chan struct{}
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Config describes how the logger should be initialised.
type Config struct {
	Level      LogLevel
	LogDir     string
	MaxSize    int64 // bytes
	MaxAge     int   // days
	UseColor   bool
	ShowCaller bool
	Prefix     string
}

// ParseLevel maps a config string to a LogLevel. Unknown values map to INFO.
func ParseLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG
	case "warn", "warning":
		return WARN
	case "error":
		return ERROR
	case "fatal":
		return FATAL
	default:
		return INFO
	}
}

// String returns the upper-case level name.
func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LEVEL(%d)", int(l))
}

// Initialize boots the global logger instance if it has not been created yet.
func Initialize(config Config) error {
	var err error
	once.Do(func() {
		l := &Logger{
			level:      config.Level,
			writers:    []io.Writer{os.Stdout},
			useColor:   config.UseColor,
			prefix:     config.Prefix,
			showCaller: config.ShowCaller,
			stop:       make(chan struct{}),
		}

		if config.LogDir != "" {
			if err = os.MkdirAll(config.LogDir, 0755); err != nil {
				return
			}

			logFile, fileErr := createLogFile(config.LogDir)
			if fileErr != nil {
				err = fileErr
				return
			}

			l.file = logFile
			l.writers = append(l.writers, logFile)

			go l.rotateLogFiles(config.LogDir, config.MaxSize, config.MaxAge)
		}

		defaultLogger = l
	})

	return err
}

// Close stops the rotation worker and closes the log file.
func Close() error {
	if defaultLogger == nil {
		return nil
	}
	defaultLogger.mu.Lock()
	defer defaultLogger.mu.Unlock()

	select {
	case <-defaultLogger.stop:
	default:
		close(defaultLogger.stop)
	}
	if defaultLogger.file != nil {
		return defaultLogger.file.Close()
	}
	return nil
}

func createLogFile(logDir string) (*os.File, error) {
	timestamp := time.Now().Format("2006-01-02")
	logPath := filepath.Join(logDir, fmt.Sprintf("filevault-%s.log", timestamp))

	return os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// rotateLogFiles prunes expired logs and archives oversized ones once an hour.
func (l *Logger) rotateLogFiles(logDir string, maxSize int64, maxAge int) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
		}

		files, _ := filepath.Glob(filepath.Join(logDir, "filevault-*.log"))
		for _, file := range files {
			info, err := os.Stat(file)
			if err != nil {
				continue
			}

			if maxAge > 0 && time.Since(info.ModTime()) > time.Duration(maxAge)*24*time.Hour {
				os.Remove(file)
				continue
			}

			if maxSize > 0 && info.Size() > maxSize {
				archived := strings.Replace(file, ".log", fmt.Sprintf("-%d.log", time.Now().Unix()), 1)
				os.Rename(file, archived)
			}
		}
	}
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if level < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	timestamp := time.Now().Format("2006-01-02 15:04:05.000")
	message := fmt.Sprintf(format, args...)

	caller := ""
	if l.showCaller {
		if _, file, line, ok := runtime.Caller(2); ok {
			caller = fmt.Sprintf(" [%s:%d]", filepath.Base(file), line)
		}
	}

	for i, writer := range l.writers {
		var line string
		if i == 0 && l.useColor {
			line = fmt.Sprintf("%s%s [%s]%s %s%s%s\n",
				timestamp, caller, level, l.prefix, levelColors[level], message, resetColor)
		} else {
			line = fmt.Sprintf("%s%s [%s]%s %s\n",
				timestamp, caller, level, l.prefix, message)
		}
		writer.Write([]byte(line))
	}

	if level == FATAL {
		os.Exit(1)
	}
}

func Debug(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.log(DEBUG, format, args...)
	}
}

func Info(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.log(INFO, format, args...)
	} else {
		log.Printf("[INFO] "+format, args...)
	}
}

func Warn(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.log(WARN, format, args...)
	} else {
		log.Printf("[WARN] "+format, args...)
	}
}

func Error(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.log(ERROR, format, args...)
	} else {
		log.Printf("[ERROR] "+format, args...)
	}
}

func Fatal(format string, args ...interface{}) {
	if defaultLogger != nil {
		defaultLogger.log(FATAL, format, args...)
	} else {
		log.Fatalf("[FATAL] "+format, args...)
	}
}

// WithFields attaches structured fields to the log entry.
func WithFields(fields map[string]interface{}) *LogEntry {
	return &LogEntry{
		fields: fields,
		logger: defaultLogger,
	}
}

// LogEntry is a message builder carrying key=value fields.
type LogEntry struct {
	fields map[string]interface{}
	logger *Logger
}

func (e *LogEntry) Debug(format string, args ...interface{}) {
	e.log(DEBUG, format, args...)
}

func (e *LogEntry) Info(format string, args ...interface{}) {
	e.log(INFO, format, args...)
}

func (e *LogEntry) Warn(format string, args ...interface{}) {
	e.log(WARN, format, args...)
}

func (e *LogEntry) Error(format string, args ...interface{}) {
	e.log(ERROR, format, args...)
}

func (e *LogEntry) Fatal(format string, args ...interface{}) {
	e.log(FATAL, format, args...)
}

// Log emits the entry at an explicit level.
func (e *LogEntry) Log(level LogLevel, format string, args ...interface{}) {
	e.log(level, format, args...)
}

func (e *LogEntry) log(level LogLevel, format string, args ...interface{}) {
	message := FormatFields(fmt.Sprintf(format, args...), e.fields)

	if e.logger == nil {
		if level >= INFO {
			log.Printf("[%s] %s", level, message)
		}
		return
	}
	if level < e.logger.level {
		return
	}
	e.logger.log(level, "%s", message)
}

// FormatFields renders "message | k1=v1, k2=v2" with keys sorted.
func FormatFields(message string, fields map[string]interface{}) string {
	if len(fields) == 0 {
		return message
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
	return fmt.Sprintf("%s | %s", message, strings.Join(parts, ", "))
}

// GetLevel returns the current global logging level.
func GetLevel() LogLevel {
	if defaultLogger != nil {
		return defaultLogger.level
	}
	return INFO
}
