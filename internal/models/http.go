package models

// Error is the JSON envelope written for every rejected request.
type Error struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type LoggerKey struct{}

type BodyKey struct{}

type RawBodyKey struct{}

type DeviceIDKey struct{}
