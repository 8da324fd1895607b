package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/imunetrack/internal/interfaces"
	"github.com/ternarybob/imunetrack/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// HistoryStorage implements interfaces.HistoryStorage for Badger
type HistoryStorage struct {
	m *Manager
}

// ListHistory returns the user's records matching the filter, ordered by id.
// The indexed user and vaccine filters run in Badger; date and status filters run in Go.
func (s *HistoryStorage) ListHistory(ctx context.Context, usuarioID int, filter models.HistoricoFilter) ([]*models.HistoricoVacinal, error) {
	query := badgerhold.Where("UsuarioID").Eq(usuarioID).Index("UsuarioID")
	if filter.VacinaID != 0 {
		query = query.And("VacinaID").Eq(filter.VacinaID)
	}

	var records []models.HistoricoVacinal
	if err := s.m.store.Find(&records, query.SortBy("ID")); err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	result := make([]*models.HistoricoVacinal, 0, len(records))
	for i := range records {
		if filter.Matches(&records[i]) {
			result = append(result, &records[i])
		}
	}
	return result, nil
}

// GetHistory returns one of the user's records
func (s *HistoryStorage) GetHistory(ctx context.Context, usuarioID, id int) (*models.HistoricoVacinal, error) {
	var rec models.HistoricoVacinal
	err := s.m.store.Get(id, &rec)
	if err == badgerhold.ErrNotFound || (err == nil && rec.UsuarioID != usuarioID) {
		return nil, interfaces.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get history record: %w", err)
	}
	return &rec, nil
}

// CreateHistory assigns the next id and stores the record
func (s *HistoryStorage) CreateHistory(ctx context.Context, rec *models.HistoricoVacinal) error {
	s.m.writes.Lock()
	defer s.m.writes.Unlock()

	var records []models.HistoricoVacinal
	if err := s.m.store.Find(&records, all().Reverse().Limit(1)); err != nil {
		return fmt.Errorf("failed to allocate history id: %w", err)
	}
	rec.ID = 1
	if len(records) > 0 {
		rec.ID = records[0].ID + 1
	}

	if err := s.m.store.Insert(rec.ID, rec); err != nil {
		return fmt.Errorf("failed to create history record: %w", err)
	}
	return nil
}

// UpdateHistory replaces a stored record
func (s *HistoryStorage) UpdateHistory(ctx context.Context, rec *models.HistoricoVacinal) error {
	if _, err := s.GetHistory(ctx, rec.UsuarioID, rec.ID); err != nil {
		return err
	}
	if err := s.m.store.Update(rec.ID, rec); err != nil {
		return fmt.Errorf("failed to update history record: %w", err)
	}
	return nil
}

// DeleteHistory removes one of the user's records
func (s *HistoryStorage) DeleteHistory(ctx context.Context, usuarioID, id int) error {
	if _, err := s.GetHistory(ctx, usuarioID, id); err != nil {
		return err
	}
	if err := s.m.store.Delete(id, &models.HistoricoVacinal{}); err != nil {
		return fmt.Errorf("failed to delete history record: %w", err)
	}
	return nil
}

// DeleteUserHistory removes all records of a user
func (s *HistoryStorage) DeleteUserHistory(ctx context.Context, usuarioID int) error {
	if err := s.m.store.DeleteMatching(&models.HistoricoVacinal{}, badgerhold.Where("UsuarioID").Eq(usuarioID).Index("UsuarioID")); err != nil {
		return fmt.Errorf("failed to delete user history: %w", err)
	}
	return nil
}
