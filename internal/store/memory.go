package store

import (
	"context"
	"sync"
	"time"

	"edgeguard/internal/models"
)

// MemoryStore keeps everything in process. Used by tests and single-node local runs.
type MemoryStore struct {
	mu       sync.RWMutex
	pending  map[string]models.PendingChallenge
	verified map[string]models.VerifiedState
	admins   map[string]struct{}

	devices  map[string]models.Device
	statuses map[string]models.DeviceStatus
	readings []models.Reading
	events   []models.DeviceEvent
}

func NewMemoryStore(admins ...string) *MemoryStore {
	s := &MemoryStore{
		pending:  make(map[string]models.PendingChallenge),
		verified: make(map[string]models.VerifiedState),
		admins:   make(map[string]struct{}),
		devices:  make(map[string]models.Device),
		statuses: make(map[string]models.DeviceStatus),
	}
	for _, uid := range admins {
		s.admins[uid] = struct{}{}
	}
	return s
}

func (s *MemoryStore) AddAdmin(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[uid] = struct{}{}
	return nil
}

func (s *MemoryStore) IsAdmin(_ context.Context, uid string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.admins[uid]
	return ok, nil
}

func (s *MemoryStore) GetPending(_ context.Context, uid string) (*models.PendingChallenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	challenge, ok := s.pending[uid]
	if !ok {
		return nil, nil
	}
	return &challenge, nil
}

func (s *MemoryStore) UpsertPending(_ context.Context, uid string, challenge models.PendingChallenge) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[uid] = challenge
	return nil
}

func (s *MemoryStore) DeletePending(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.pending, uid)
	return nil
}

func (s *MemoryStore) DeleteExpiredPending(_ context.Context, before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for uid, challenge := range s.pending {
		if challenge.ExpiresAt.Before(before) {
			delete(s.pending, uid)
			deleted++
		}
	}
	return deleted, nil
}

func (s *MemoryStore) GetVerified(_ context.Context, uid string) (*models.VerifiedState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.verified[uid]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (s *MemoryStore) UpsertVerified(_ context.Context, uid string, state models.VerifiedState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified[uid] = state
	return nil
}

func (s *MemoryStore) DeleteVerified(_ context.Context, uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.verified, uid)
	return nil
}

func (s *MemoryStore) EnsureDevice(_ context.Context, device models.Device) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.devices[device.ID]; !ok {
		if device.Label == "" {
			device.Label = deviceLabel(device.ID)
		}
		s.devices[device.ID] = device
	}
	return nil
}

func (s *MemoryStore) UpsertDeviceStatus(_ context.Context, status models.DeviceStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[status.DeviceID] = status
	return nil
}

func (s *MemoryStore) InsertReading(_ context.Context, reading models.Reading) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readings = append(s.readings, reading)
	return nil
}

func (s *MemoryStore) InsertEvent(_ context.Context, event models.DeviceEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Device returns a recorded device and its last status.
func (s *MemoryStore) Device(id string) (models.Device, models.DeviceStatus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	device, ok := s.devices[id]
	return device, s.statuses[id], ok
}

func (s *MemoryStore) Readings() []models.Reading {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Reading(nil), s.readings...)
}

func (s *MemoryStore) Events() []models.DeviceEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.DeviceEvent(nil), s.events...)
}

func (s *MemoryStore) Close() error {
	return nil
}
