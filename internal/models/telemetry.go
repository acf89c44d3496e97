package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"time"
)

// TelemetryPayload is the signed JSON document posted by a device to /ingest.
type TelemetryPayload struct {
	// Timestamp is in Unix milliseconds, integral or fractional.
	Timestamp json.Number    `json:"timestamp"`
	Data      *TelemetryData `json:"data"`
}

// At returns the device timestamp, or fallback when it is missing or not positive.
func (p TelemetryPayload) At(fallback time.Time) time.Time {
	if p.Timestamp == "" {
		return fallback
	}
	if ms, err := p.Timestamp.Int64(); err == nil {
		if ms <= 0 {
			return fallback
		}
		return time.UnixMilli(ms)
	}
	ms, err := p.Timestamp.Float64()
	if err != nil || ms <= 0 || ms >= math.MaxInt64/float64(time.Millisecond) {
		return fallback
	}
	whole, frac := math.Modf(ms)
	return time.UnixMilli(int64(whole)).Add(time.Duration(frac * float64(time.Millisecond)))
}

type TelemetryData struct {
	SystemArmed   Flag         `json:"system_armed"`
	LedRed        Flag         `json:"led_red"`
	LedGreen      Flag         `json:"led_green"`
	Buzzer        Flag         `json:"buzzer"`
	GasValue      *float64     `json:"gas_value"`
	FireValue     *float64     `json:"fire_value"`
	HumidityValue *float64     `json:"humidity_value"`
	KeypadStatus  KeypadStatus `json:"keypad_status"`
}

// Flag is a device boolean. Firmware sends true/false, 0/1 or strings; any truthy value is set.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	switch v := value.(type) {
	case nil:
		*f = false
	case bool:
		*f = Flag(v)
	case float64:
		*f = v != 0
	case string:
		*f = v != ""
	default:
		*f = true
	}
	return nil
}

// KeypadStatus holds what the keypad reported, sent as a string or a number.
// Falsy values (null, false, 0, "") decode to empty, which means nothing was entered.
type KeypadStatus string

func (k *KeypadStatus) UnmarshalJSON(data []byte) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var value any
	if err := decoder.Decode(&value); err != nil {
		return err
	}

	switch v := value.(type) {
	case nil:
		*k = ""
	case string:
		*k = KeypadStatus(v)
	case json.Number:
		if f, err := v.Float64(); err == nil && f == 0 {
			*k = ""
		} else {
			*k = KeypadStatus(v.String())
		}
	case bool:
		*k = ""
		if v {
			*k = KeypadStatus(strconv.FormatBool(v))
		}
	default:
		return errors.New("keypad_status must be a string or a number")
	}
	return nil
}

type Device struct {
	ID        string
	Label     string
	CreatedAt time.Time
}

type DeviceStatus struct {
	DeviceID    string
	LastSeen    time.Time
	SystemArmed bool
	LedRed      bool
	LedGreen    bool
	Buzzer      bool
}

type Reading struct {
	DeviceID      string
	Timestamp     time.Time
	GasValue      *float64
	FireValue     *float64
	HumidityValue *float64
	KeypadStatus  string
}

const EventTypeKeypad = "keypad"

type DeviceEvent struct {
	DeviceID  string
	Timestamp time.Time
	Type      string
	Value     string
}

type IngestResponse struct {
	OK       bool   `json:"ok"`
	Verified bool   `json:"verified"`
	DeviceID string `json:"device_id"`
}
