package store

import (
	"fmt"
	"time"

	"edgeguard/internal/models"
)

// Row shapes shared by the PostgREST and SQL backends. Instants are Unix milliseconds.

type pendingRow struct {
	UID       string `json:"uid"        gorm:"column:uid;primaryKey"`
	CodeHash  string `json:"code_hash"  gorm:"column:code_hash"`
	ExpiresAt int64  `json:"expires_at" gorm:"column:expires_at"`
	Attempts  int    `json:"attempts"   gorm:"column:attempts"`
	LastSent  *int64 `json:"last_sent"  gorm:"column:last_sent"`
}

func (pendingRow) TableName() string { return "mfa_pending" }

type stateRow struct {
	UID       string `json:"uid"        gorm:"column:uid;primaryKey"`
	State     string `json:"state"      gorm:"column:state"`
	UpdatedAt int64  `json:"updated_at" gorm:"column:updated_at;autoUpdateTime:false"`
}

func (stateRow) TableName() string { return "mfa_state" }

type adminRow struct {
	UID string `json:"uid" gorm:"column:uid;primaryKey"`
}

func (adminRow) TableName() string { return "admins" }

type deviceRow struct {
	ID        string `json:"id"         gorm:"column:id;primaryKey"`
	Label     string `json:"label"      gorm:"column:label"`
	CreatedAt int64  `json:"created_at" gorm:"column:created_at;autoCreateTime:false"`
}

func (deviceRow) TableName() string { return "devices" }

type deviceStatusRow struct {
	DeviceID    string `json:"device_id"    gorm:"column:device_id;primaryKey"`
	LastSeen    int64  `json:"last_seen"    gorm:"column:last_seen"`
	SystemArmed bool   `json:"system_armed" gorm:"column:system_armed"`
	LedRed      bool   `json:"led_red"      gorm:"column:led_red"`
	LedGreen    bool   `json:"led_green"    gorm:"column:led_green"`
	Buzzer      bool   `json:"buzzer"       gorm:"column:buzzer"`
}

func (deviceStatusRow) TableName() string { return "device_status" }

type readingRow struct {
	DeviceID      string   `json:"device_id"      gorm:"column:device_id"`
	TS            int64    `json:"ts"             gorm:"column:ts"`
	GasValue      *float64 `json:"gas_value"      gorm:"column:gas_value"`
	FireValue     *float64 `json:"fire_value"     gorm:"column:fire_value"`
	HumidityValue *float64 `json:"humidity_value" gorm:"column:humidity_value"`
	KeypadStatus  *string  `json:"keypad_status"  gorm:"column:keypad_status"`
}

func (readingRow) TableName() string { return "readings" }

type eventRow struct {
	DeviceID string `json:"device_id" gorm:"column:device_id"`
	TS       int64  `json:"ts"        gorm:"column:ts"`
	Type     string `json:"type"      gorm:"column:type"`
	Value    string `json:"value"     gorm:"column:value"`
}

func (eventRow) TableName() string { return "events" }

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func newPendingRow(uid string, challenge models.PendingChallenge) pendingRow {
	row := pendingRow{
		UID:       uid,
		CodeHash:  challenge.CodeDigest,
		ExpiresAt: toMillis(challenge.ExpiresAt),
		Attempts:  challenge.Attempts,
	}
	if !challenge.LastSentAt.IsZero() {
		lastSent := toMillis(challenge.LastSentAt)
		row.LastSent = &lastSent
	}
	return row
}

func (r pendingRow) toModel() *models.PendingChallenge {
	challenge := &models.PendingChallenge{
		CodeDigest: r.CodeHash,
		ExpiresAt:  fromMillis(r.ExpiresAt),
		Attempts:   r.Attempts,
	}
	if r.LastSent != nil {
		challenge.LastSentAt = fromMillis(*r.LastSent)
	}
	return challenge
}

func newStateRow(uid string, state models.VerifiedState) stateRow {
	return stateRow{UID: uid, State: state.State, UpdatedAt: toMillis(state.UpdatedAt)}
}

func (r stateRow) toModel() *models.VerifiedState {
	return &models.VerifiedState{State: r.State, UpdatedAt: fromMillis(r.UpdatedAt)}
}

func deviceLabel(id string) string {
	return fmt.Sprintf("Device %s", id)
}

func newDeviceRow(device models.Device) deviceRow {
	label := device.Label
	if label == "" {
		label = deviceLabel(device.ID)
	}
	return deviceRow{ID: device.ID, Label: label, CreatedAt: toMillis(device.CreatedAt)}
}

func newDeviceStatusRow(status models.DeviceStatus) deviceStatusRow {
	return deviceStatusRow{
		DeviceID:    status.DeviceID,
		LastSeen:    toMillis(status.LastSeen),
		SystemArmed: status.SystemArmed,
		LedRed:      status.LedRed,
		LedGreen:    status.LedGreen,
		Buzzer:      status.Buzzer,
	}
}

func newReadingRow(reading models.Reading) readingRow {
	row := readingRow{
		DeviceID:      reading.DeviceID,
		TS:            toMillis(reading.Timestamp),
		GasValue:      reading.GasValue,
		FireValue:     reading.FireValue,
		HumidityValue: reading.HumidityValue,
	}
	if reading.KeypadStatus != "" {
		keypad := reading.KeypadStatus
		row.KeypadStatus = &keypad
	}
	return row
}

func newEventRow(event models.DeviceEvent) eventRow {
	return eventRow{
		DeviceID: event.DeviceID,
		TS:       toMillis(event.Timestamp),
		Type:     event.Type,
		Value:    event.Value,
	}
}
