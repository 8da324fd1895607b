package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/arbor/models"
)

// logFileMaxSize bounds a single log file before arbor rotates it
const logFileMaxSize = 10 * 1024 * 1024

var (
	globalLogger arbor.ILogger
	loggerMutex  sync.Mutex
)

// GetLogger returns the logger set by InitLogger, or a console logger when none was set
func GetLogger() arbor.ILogger {
	loggerMutex.Lock()
	defer loggerMutex.Unlock()

	if globalLogger == nil {
		globalLogger = arbor.NewLogger().WithConsoleWriter(consoleWriter())
	}
	return globalLogger
}

// LogFilePath is where the "file" output writes: <reports dir>/logs/imunetrack.log
func LogFilePath(config *Config) string {
	return filepath.Join(config.Reports.Dir, "logs", "imunetrack.log")
}

// LogLevel returns the effective level; DEBUG forces debug whatever logging.level says
func LogLevel(config *Config) string {
	if config.Features.Debug {
		return "debug"
	}
	if config.Logging.Level == "" {
		return "info"
	}
	return strings.ToLower(config.Logging.Level)
}

// InitLogger builds the arbor logger from logging.output ("stdout"/"console", "file")
// and stores it as the global logger
func InitLogger(config *Config) arbor.ILogger {
	var toConsole, toFile bool
	for _, output := range config.Logging.Output {
		switch strings.ToLower(strings.TrimSpace(output)) {
		case "stdout", "console":
			toConsole = true
		case "file":
			toFile = true
		}
	}

	logger := arbor.NewLogger()

	if toFile {
		path := LogFilePath(config)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: log file disabled, cannot create %s: %v\n", filepath.Dir(path), err)
			toConsole = true
		} else {
			logger = logger.WithFileWriter(fileWriter(path))
		}
	}

	// Never run silent: a config with no usable output still logs to the console
	if toConsole || !toFile {
		logger = logger.WithConsoleWriter(consoleWriter())
	}

	logger = logger.WithLevelFromString(LogLevel(config))

	loggerMutex.Lock()
	globalLogger = logger
	loggerMutex.Unlock()

	return logger
}

func consoleWriter() models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeConsole,
		TimeFormat: "15:04:05",
	}
}

func fileWriter(path string) models.WriterConfiguration {
	return models.WriterConfiguration{
		Type:       models.LogWriterTypeFile,
		FileName:   path,
		TimeFormat: "15:04:05",
		MaxSize:    logFileMaxSize,
		MaxBackups: 3,
	}
}
