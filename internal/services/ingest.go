package services

import (
	"context"
	"time"

	"edgeguard/internal/activity"
	apierrors "edgeguard/internal/errors"
	"edgeguard/internal/handlers"
	m "edgeguard/internal/middlewares"
	"edgeguard/internal/models"
	"edgeguard/internal/store"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type IngestService struct {
	Store          store.ITelemetryStore
	ActivityLogger activity.IActivityLogger
	DeviceSecret   string
	MaxBodyBytes   int64
	Now            func() time.Time
}

func (s IngestService) Routes() chi.Router {
	r := chi.NewRouter()

	r.With(m.DeviceSignature(s.DeviceSecret, s.MaxBodyBytes), m.Validate[models.TelemetryPayload]).
		Post("/", handlers.CreateHandler(s.Ingest))

	return r
}

func (s IngestService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Ingest records one signed telemetry document: device, current status, a reading and,
// when the keypad reported something, a keypad event.
func (s IngestService) Ingest(
	ctx context.Context,
	logger *zap.Logger,
	payload models.TelemetryPayload,
) (models.IngestResponse, error) {
	deviceID, _ := ctx.Value(models.DeviceIDKey{}).(string)
	if deviceID == "" {
		return models.IngestResponse{}, apierrors.NewValidationError(apierrors.MsgMissingHeaders)
	}

	now := s.now()
	data := models.TelemetryData{}
	if payload.Data != nil {
		data = *payload.Data
	}

	ts := payload.At(now)
	keypad := string(data.KeypadStatus)

	err := s.Store.EnsureDevice(ctx, models.Device{ID: deviceID, CreatedAt: now})
	if err != nil {
		return models.IngestResponse{}, apierrors.NewDatabaseWriteError(err)
	}

	err = s.Store.UpsertDeviceStatus(ctx, models.DeviceStatus{
		DeviceID:    deviceID,
		LastSeen:    now,
		SystemArmed: bool(data.SystemArmed),
		LedRed:      bool(data.LedRed),
		LedGreen:    bool(data.LedGreen),
		Buzzer:      bool(data.Buzzer),
	})
	if err != nil {
		return models.IngestResponse{}, apierrors.NewDatabaseWriteError(err)
	}

	err = s.Store.InsertReading(ctx, models.Reading{
		DeviceID:      deviceID,
		Timestamp:     ts,
		GasValue:      data.GasValue,
		FireValue:     data.FireValue,
		HumidityValue: data.HumidityValue,
		KeypadStatus:  keypad,
	})
	if err != nil {
		return models.IngestResponse{}, apierrors.NewDatabaseWriteError(err)
	}

	if keypad != "" {
		err = s.Store.InsertEvent(ctx, models.DeviceEvent{
			DeviceID:  deviceID,
			Timestamp: ts,
			Type:      models.EventTypeKeypad,
			Value:     keypad,
		})
		if err != nil {
			return models.IngestResponse{}, apierrors.NewDatabaseWriteError(err)
		}
		s.recordKeypad(logger, deviceID, keypad, ts)
	}

	logger.Debug("Telemetry stored", zap.String("device_id", deviceID))
	return models.IngestResponse{OK: true, Verified: true, DeviceID: deviceID}, nil
}

func (s IngestService) recordKeypad(logger *zap.Logger, deviceID string, status string, at time.Time) {
	if s.ActivityLogger == nil {
		return
	}

	entry := models.AuditEntry{
		Action:   activity.ActionKeypad,
		DeviceID: deviceID,
		At:       at,
		Details:  map[string]any{"keypad_status": status},
	}
	if err := s.ActivityLogger.Send(entry); err != nil {
		logger.Error("Failed to log keypad activity", zap.Error(err))
	}
}
