package storage

import (
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/common"
	"github.com/ternarybob/imunetrack/internal/interfaces"
	"github.com/ternarybob/imunetrack/internal/storage/badger"
	"github.com/ternarybob/imunetrack/internal/storage/memory"
)

type opener func(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error)

// backends maps storage.type to its constructor; "" is the memory default
var backends = map[string]opener{
	"":       openMemory,
	"memory": openMemory,
	"badger": func(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
		return badger.NewManager(logger, &config.Storage.Badger)
	},
}

func openMemory(logger arbor.ILogger, _ *common.Config) (interfaces.StorageManager, error) {
	return memory.NewManager(logger), nil
}

// NewStorageManager opens the backend named by storage.type. The store starts empty;
// callers load fixtures with Reset.
func NewStorageManager(logger arbor.ILogger, config *common.Config) (interfaces.StorageManager, error) {
	open, ok := backends[config.Storage.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported storage type %q (expected memory or badger)", config.Storage.Type)
	}
	return open(logger, config)
}
