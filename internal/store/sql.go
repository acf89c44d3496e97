package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"edgeguard/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SQLStore persists rows through gorm. Upserts use ON CONFLICT so concurrent writers stay last-writer-wins.
type SQLStore struct {
	DB *gorm.DB
}

func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{DB: db}
}

func upsertOnUID(columns ...string) clause.OnConflict {
	return clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns(columns),
	}
}

func (s *SQLStore) IsAdmin(ctx context.Context, uid string) (bool, error) {
	var count int64
	result := s.DB.WithContext(ctx).Model(&adminRow{}).Where("uid = ?", uid).Count(&count)
	if result.Error != nil {
		return false, fmt.Errorf("admins get: %w", result.Error)
	}
	return count > 0, nil
}

func (s *SQLStore) GetPending(ctx context.Context, uid string) (*models.PendingChallenge, error) {
	var row pendingRow
	result := s.DB.WithContext(ctx).Where("uid = ?", uid).Take(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("mfa_pending get: %w", result.Error)
	}
	return row.toModel(), nil
}

func (s *SQLStore) UpsertPending(ctx context.Context, uid string, challenge models.PendingChallenge) error {
	row := newPendingRow(uid, challenge)
	result := s.DB.WithContext(ctx).
		Clauses(upsertOnUID("code_hash", "expires_at", "attempts", "last_sent")).
		Create(&row)
	if result.Error != nil {
		return fmt.Errorf("mfa_pending upsert: %w", result.Error)
	}
	return nil
}

func (s *SQLStore) DeletePending(ctx context.Context, uid string) error {
	result := s.DB.WithContext(ctx).Where("uid = ?", uid).Delete(&pendingRow{})
	if result.Error != nil {
		return fmt.Errorf("mfa_pending delete: %w", result.Error)
	}
	return nil
}

func (s *SQLStore) DeleteExpiredPending(ctx context.Context, before time.Time) (int, error) {
	result := s.DB.WithContext(ctx).Where("expires_at < ?", toMillis(before)).Delete(&pendingRow{})
	if result.Error != nil {
		return 0, fmt.Errorf("mfa_pending sweep: %w", result.Error)
	}
	return int(result.RowsAffected), nil
}

func (s *SQLStore) GetVerified(ctx context.Context, uid string) (*models.VerifiedState, error) {
	var row stateRow
	result := s.DB.WithContext(ctx).Where("uid = ?", uid).Take(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if result.Error != nil {
		return nil, fmt.Errorf("mfa_state get: %w", result.Error)
	}
	return row.toModel(), nil
}

func (s *SQLStore) UpsertVerified(ctx context.Context, uid string, state models.VerifiedState) error {
	row := newStateRow(uid, state)
	result := s.DB.WithContext(ctx).
		Clauses(upsertOnUID("state", "updated_at")).
		Create(&row)
	if result.Error != nil {
		return fmt.Errorf("mfa_state upsert: %w", result.Error)
	}
	return nil
}

func (s *SQLStore) DeleteVerified(ctx context.Context, uid string) error {
	result := s.DB.WithContext(ctx).Where("uid = ?", uid).Delete(&stateRow{})
	if result.Error != nil {
		return fmt.Errorf("mfa_state delete: %w", result.Error)
	}
	return nil
}

func (s *SQLStore) EnsureDevice(ctx context.Context, device models.Device) error {
	row := newDeviceRow(device)
	result := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return fmt.Errorf("devices insert: %w", result.Error)
	}
	return nil
}

func (s *SQLStore) UpsertDeviceStatus(ctx context.Context, status models.DeviceStatus) error {
	row := newDeviceStatusRow(status)
	result := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "device_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"last_seen", "system_armed", "led_red", "led_green", "buzzer"}),
		}).
		Create(&row)
	if result.Error != nil {
		return fmt.Errorf("device_status upsert: %w", result.Error)
	}
	return nil
}

func (s *SQLStore) InsertReading(ctx context.Context, reading models.Reading) error {
	row := newReadingRow(reading)
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("readings insert: %w", err)
	}
	return nil
}

func (s *SQLStore) InsertEvent(ctx context.Context, event models.DeviceEvent) error {
	row := newEventRow(event)
	if err := s.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("events insert: %w", err)
	}
	return nil
}

func (s *SQLStore) Close() error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
