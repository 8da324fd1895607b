package badger

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/common"
	"github.com/timshannon/badgerhold/v4"
)

// openStore opens badgerhold in memory, or on disk at config.Path.
// reset_on_startup wipes the directory first so every run starts from the seed.
func openStore(logger arbor.ILogger, config *common.BadgerConfig) (*badgerhold.Store, error) {
	options := badgerhold.DefaultOptions
	options.Logger = badgerLogger{logger: logger}

	switch {
	case config.InMemory:
		options.InMemory = true
		options.Dir, options.ValueDir = "", ""
	case config.Path == "":
		return nil, fmt.Errorf("badger storage needs a path when in_memory is false")
	default:
		if config.ResetOnStartup {
			if err := os.RemoveAll(config.Path); err != nil {
				return nil, fmt.Errorf("failed to wipe %s: %w", config.Path, err)
			}
		}
		if err := os.MkdirAll(config.Path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		options.Dir, options.ValueDir = config.Path, config.Path
	}

	store, err := badgerhold.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger database: %w", err)
	}
	logger.Debug().
		Bool("in_memory", config.InMemory).
		Str("path", options.Dir).
		Bool("reset_on_startup", config.ResetOnStartup).
		Msg("Badger database open")
	return store, nil
}

// badgerLogger routes Badger's own messages into arbor; its info chatter goes to debug
type badgerLogger struct {
	logger arbor.ILogger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error().Str("component", "badger").Msg(trimLine(format, args))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn().Str("component", "badger").Msg(trimLine(format, args))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug().Str("component", "badger").Msg(trimLine(format, args))
}

func (l badgerLogger) Debugf(string, ...interface{}) {}

func trimLine(format string, args []interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
