package internal

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

var (
	globalLogger *SecureLogger
	// logFile is the file opened by InitLogger, closed when the logger is replaced
	logFile     *os.File
	loggerMutex sync.RWMutex
)

// InitLogger replaces the global logger according to config.
// A log file opened by an earlier call is closed.
func InitLogger(config *Config) error {
	level := parseLogLevel(config.LogLevel)
	if config.EnableDebug {
		level = LogLevelDebug
	}

	var output io.Writer = os.Stderr
	var file *os.File
	if config.LogFile != "" {
		var err error
		file, err = os.OpenFile(config.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return NewValidationError("log_file", "failed to open log file").
				WithSuggestion("Check file permissions and path validity").
				WithContext("file", config.LogFile).
				WithContext("error", err.Error())
		}
		output = file
	}

	replaceLogger(NewSecureLogger(output, level, config.EnableDebug, config.QuietMode), file)
	return nil
}

// GetLogger returns the global logger, creating a stderr logger on first use
func GetLogger() *SecureLogger {
	loggerMutex.RLock()
	logger := globalLogger
	loggerMutex.RUnlock()
	if logger != nil {
		return logger
	}

	loggerMutex.Lock()
	defer loggerMutex.Unlock()
	if globalLogger == nil {
		globalLogger = NewDefaultLogger(false, false)
	}
	return globalLogger
}

// SetLogger replaces the global logger
func SetLogger(logger *SecureLogger) {
	replaceLogger(logger, nil)
}

func replaceLogger(logger *SecureLogger, file *os.File) {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if logFile != nil {
		logFile.Close()
	}
	globalLogger = logger
	logFile = file
}

func parseLogLevel(level string) LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug
	case "info":
		return LogLevelInfo
	case "warn", "warning":
		return LogLevelWarn
	case "error":
		return LogLevelError
	default:
		return LogLevelInfo
	}
}

func LogError(format string, args ...interface{}) {
	GetLogger().Error(format, args...)
}

func LogWarn(format string, args ...interface{}) {
	GetLogger().Warn(format, args...)
}

func LogInfo(format string, args ...interface{}) {
	GetLogger().Info(format, args...)
}

func LogDebug(format string, args ...interface{}) {
	GetLogger().Debug(format, args...)
}

// LogOperation logs a debug line tagged with the ID of one client operation,
// so the requests issued by a single login or resolution can be grepped together.
// An empty opID logs the message untagged.
func LogOperation(opID, format string, args ...interface{}) {
	logger := GetLogger()
	if !logger.shouldLog(LogLevelDebug) {
		return
	}

	message := fmt.Sprintf(format, args...)
	if opID == "" {
		logger.Debug("%s", message)
		return
	}
	logger.Debug("[op %s] %s", opID, message)
}

// LogWebshareError logs a WebshareError at the level matching its severity
func LogWebshareError(err *WebshareError) {
	logger := GetLogger()

	if err.IsCritical() {
		logger.Error("CRITICAL: %s", err.DetailedError())
		return
	}

	switch err.Severity {
	case SeverityWarning:
		logger.Warn("%s", err.DetailedError())
	case SeverityInfo:
		logger.Info("%s", err.DetailedError())
	default:
		logger.Error("%s", err.DetailedError())
	}
}

// LogValidationError logs a ValidationError
func LogValidationError(err *ValidationError) {
	GetLogger().Error("Validation Error: %s", err.DetailedError())
}
