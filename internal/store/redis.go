package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"edgeguard/internal/models"

	"github.com/redis/rueidis"
)

const (
	redisPendingKey      = "mfa:pending:%s"
	redisPendingIndexKey = "mfa:pending:expiry"
	redisStateKey        = "mfa:state:%s"
	redisAdminsKey       = "mfa:admins"
	redisDeviceKey       = "device:%s"
	redisDeviceStatusKey = "device:%s:status"
	redisReadingsKey     = "device:%s:readings"
	redisEventsKey       = "device:%s:events"
)

// RedisStore keeps one hash per user. A sorted set indexes pending challenges by expiry for the sweeper.
type RedisStore struct {
	client rueidis.Client
}

func NewRedisStore(client rueidis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func formatInt(v int64) string {
	return strconv.FormatInt(v, 10)
}

func firstError(results []rueidis.RedisResult) error {
	for _, result := range results {
		if err := result.Error(); err != nil {
			return err
		}
	}
	return nil
}

func (s *RedisStore) AddAdmin(ctx context.Context, uid string) error {
	return s.client.Do(ctx, s.client.B().Sadd().Key(redisAdminsKey).Member(uid).Build()).Error()
}

func (s *RedisStore) IsAdmin(ctx context.Context, uid string) (bool, error) {
	ok, err := s.client.Do(ctx, s.client.B().Sismember().Key(redisAdminsKey).Member(uid).Build()).AsBool()
	if err != nil {
		return false, fmt.Errorf("admins get: %w", err)
	}
	return ok, nil
}

func pendingHashFields(challenge models.PendingChallenge) map[string]string {
	fields := map[string]string{
		"code_hash":  challenge.CodeDigest,
		"expires_at": formatInt(toMillis(challenge.ExpiresAt)),
		"attempts":   strconv.Itoa(challenge.Attempts),
		"last_sent":  "",
	}
	if !challenge.LastSentAt.IsZero() {
		fields["last_sent"] = formatInt(toMillis(challenge.LastSentAt))
	}
	return fields
}

func pendingFromHash(fields map[string]string) (*models.PendingChallenge, error) {
	if len(fields) == 0 {
		return nil, nil
	}

	row := pendingRow{CodeHash: fields["code_hash"]}
	var err error
	if v := fields["expires_at"]; v != "" {
		if row.ExpiresAt, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("expires_at: %w", err)
		}
	}
	if v := fields["attempts"]; v != "" {
		if row.Attempts, err = strconv.Atoi(v); err != nil {
			return nil, fmt.Errorf("attempts: %w", err)
		}
	}
	if v := fields["last_sent"]; v != "" {
		lastSent, parseErr := strconv.ParseInt(v, 10, 64)
		if parseErr != nil {
			return nil, fmt.Errorf("last_sent: %w", parseErr)
		}
		row.LastSent = &lastSent
	}
	return row.toModel(), nil
}

func (s *RedisStore) GetPending(ctx context.Context, uid string) (*models.PendingChallenge, error) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(fmt.Sprintf(redisPendingKey, uid)).Build()).AsStrMap()
	if err != nil {
		return nil, fmt.Errorf("mfa_pending get: %w", err)
	}
	challenge, err := pendingFromHash(fields)
	if err != nil {
		return nil, fmt.Errorf("mfa_pending get: %w", err)
	}
	return challenge, nil
}

func (s *RedisStore) UpsertPending(ctx context.Context, uid string, challenge models.PendingChallenge) error {
	hset := s.client.B().Hset().Key(fmt.Sprintf(redisPendingKey, uid)).FieldValue()
	for field, value := range pendingHashFields(challenge) {
		hset = hset.FieldValue(field, value)
	}

	results := s.client.DoMulti(ctx,
		hset.Build(),
		s.client.B().Zadd().Key(redisPendingIndexKey).ScoreMember().
			ScoreMember(float64(toMillis(challenge.ExpiresAt)), uid).Build(),
	)
	if err := firstError(results); err != nil {
		return fmt.Errorf("mfa_pending upsert: %w", err)
	}
	return nil
}

func (s *RedisStore) DeletePending(ctx context.Context, uid string) error {
	results := s.client.DoMulti(ctx,
		s.client.B().Del().Key(fmt.Sprintf(redisPendingKey, uid)).Build(),
		s.client.B().Zrem().Key(redisPendingIndexKey).Member(uid).Build(),
	)
	if err := firstError(results); err != nil {
		return fmt.Errorf("mfa_pending delete: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteExpiredPending(ctx context.Context, before time.Time) (int, error) {
	uids, err := s.client.Do(ctx, s.client.B().Zrangebyscore().Key(redisPendingIndexKey).
		Min("-inf").Max("("+formatInt(toMillis(before))).Build()).AsStrSlice()
	if err != nil {
		return 0, fmt.Errorf("mfa_pending sweep: %w", err)
	}

	deleted := 0
	for _, uid := range uids {
		if err = s.DeletePending(ctx, uid); err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

func (s *RedisStore) GetVerified(ctx context.Context, uid string) (*models.VerifiedState, error) {
	fields, err := s.client.Do(ctx, s.client.B().Hgetall().Key(fmt.Sprintf(redisStateKey, uid)).Build()).AsStrMap()
	if err != nil {
		return nil, fmt.Errorf("mfa_state get: %w", err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	updatedAt, _ := strconv.ParseInt(fields["updated_at"], 10, 64)
	return stateRow{State: fields["state"], UpdatedAt: updatedAt}.toModel(), nil
}

func (s *RedisStore) UpsertVerified(ctx context.Context, uid string, state models.VerifiedState) error {
	cmd := s.client.B().Hset().Key(fmt.Sprintf(redisStateKey, uid)).FieldValue().
		FieldValue("state", state.State).
		FieldValue("updated_at", formatInt(toMillis(state.UpdatedAt))).
		Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("mfa_state upsert: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteVerified(ctx context.Context, uid string) error {
	if err := s.client.Do(ctx, s.client.B().Del().Key(fmt.Sprintf(redisStateKey, uid)).Build()).Error(); err != nil {
		return fmt.Errorf("mfa_state delete: %w", err)
	}
	return nil
}

func (s *RedisStore) EnsureDevice(ctx context.Context, device models.Device) error {
	row := newDeviceRow(device)
	key := fmt.Sprintf(redisDeviceKey, device.ID)
	results := s.client.DoMulti(ctx,
		s.client.B().Hsetnx().Key(key).Field("label").Value(row.Label).Build(),
		s.client.B().Hsetnx().Key(key).Field("created_at").Value(formatInt(row.CreatedAt)).Build(),
	)
	if err := firstError(results); err != nil {
		return fmt.Errorf("devices insert: %w", err)
	}
	return nil
}

func (s *RedisStore) UpsertDeviceStatus(ctx context.Context, status models.DeviceStatus) error {
	row := newDeviceStatusRow(status)
	cmd := s.client.B().Hset().Key(fmt.Sprintf(redisDeviceStatusKey, status.DeviceID)).FieldValue().
		FieldValue("last_seen", formatInt(row.LastSeen)).
		FieldValue("system_armed", strconv.FormatBool(row.SystemArmed)).
		FieldValue("led_red", strconv.FormatBool(row.LedRed)).
		FieldValue("led_green", strconv.FormatBool(row.LedGreen)).
		FieldValue("buzzer", strconv.FormatBool(row.Buzzer)).
		Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("device_status upsert: %w", err)
	}
	return nil
}

func optionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func (s *RedisStore) InsertReading(ctx context.Context, reading models.Reading) error {
	cmd := s.client.B().Xadd().Key(fmt.Sprintf(redisReadingsKey, reading.DeviceID)).Id("*").FieldValue().
		FieldValue("ts", formatInt(toMillis(reading.Timestamp))).
		FieldValue("gas_value", optionalFloat(reading.GasValue)).
		FieldValue("fire_value", optionalFloat(reading.FireValue)).
		FieldValue("humidity_value", optionalFloat(reading.HumidityValue)).
		FieldValue("keypad_status", reading.KeypadStatus).
		Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("readings insert: %w", err)
	}
	return nil
}

func (s *RedisStore) InsertEvent(ctx context.Context, event models.DeviceEvent) error {
	cmd := s.client.B().Xadd().Key(fmt.Sprintf(redisEventsKey, event.DeviceID)).Id("*").FieldValue().
		FieldValue("ts", formatInt(toMillis(event.Timestamp))).
		FieldValue("type", event.Type).
		FieldValue("value", event.Value).
		Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("events insert: %w", err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	s.client.Close()
	return nil
}
