package badger

import (
	"context"
	"fmt"
	"sync"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/imunetrack/internal/common"
	"github.com/ternarybob/imunetrack/internal/interfaces"
	"github.com/ternarybob/imunetrack/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	store    *badgerhold.Store
	users    *UserStorage
	vaccines *VaccineStorage
	history  *HistoryStorage
	logger   arbor.ILogger

	// writes serialises id allocation and uniqueness checks
	writes sync.Mutex
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (*Manager, error) {
	store, err := openStore(logger, config)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		store:  store,
		logger: logger,
	}
	m.users = &UserStorage{m: m}
	m.vaccines = &VaccineStorage{m: m}
	m.history = &HistoryStorage{m: m}

	logger.Info().Bool("in_memory", config.InMemory).Msg("Badger storage manager initialized")

	return m, nil
}

// UserStorage returns the user storage interface
func (m *Manager) UserStorage() interfaces.UserStorage {
	return m.users
}

// VaccineStorage returns the vaccine storage interface
func (m *Manager) VaccineStorage() interfaces.VaccineStorage {
	return m.vaccines
}

// HistoryStorage returns the history storage interface
func (m *Manager) HistoryStorage() interfaces.HistoryStorage {
	return m.history
}

// Reset drops every record and loads the seed in a single transaction
func (m *Manager) Reset(ctx context.Context, seed *interfaces.Seed) error {
	m.writes.Lock()
	defer m.writes.Unlock()

	if seed != nil {
		var err error
		if seed, err = seed.WithIDs(); err != nil {
			return err
		}
	}

	store := m.store
	err := store.Badger().Update(func(txn *badgerdb.Txn) error {
		for _, dataType := range []interface{}{&models.Usuario{}, &models.Vacina{}, &models.HistoricoVacinal{}} {
			if err := store.TxDeleteMatching(txn, dataType, nil); err != nil {
				return fmt.Errorf("failed to clear %T: %w", dataType, err)
			}
		}

		if seed == nil {
			return nil
		}

		for _, su := range seed.Usuarios {
			user, err := su.ToUsuario()
			if err != nil {
				return err
			}
			if err := store.TxUpsert(txn, user.ID, user); err != nil {
				return fmt.Errorf("failed to seed user %s: %w", user.Email, err)
			}
		}
		for i := range seed.Vacinas {
			v := &seed.Vacinas[i]
			if err := store.TxUpsert(txn, v.ID, v); err != nil {
				return fmt.Errorf("failed to seed vaccine %s: %w", v.Nome, err)
			}
		}
		for i := range seed.Historico {
			h := &seed.Historico[i]
			if err := store.TxUpsert(txn, h.ID, h); err != nil {
				return fmt.Errorf("failed to seed history record %d: %w", h.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	if seed != nil {
		m.logger.Debug().
			Int("usuarios", len(seed.Usuarios)).
			Int("vacinas", len(seed.Vacinas)).
			Int("historico", len(seed.Historico)).
			Msg("Badger storage reset")
	}
	return nil
}

// Close closes the database
func (m *Manager) Close() error {
	return m.store.Close()
}

// all returns a query selecting every record ordered by id
func all() *badgerhold.Query {
	return (&badgerhold.Query{}).SortBy("ID")
}
