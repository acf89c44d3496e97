package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"edgeguard/internal/models"

	"github.com/go-resty/resty/v2"
)

const (
	preferMinimal = "return=minimal"
	preferMerge   = "resolution=merge-duplicates,return=minimal"
)

// PostgRESTStore talks to a Supabase/PostgREST endpoint with the service role key.
type PostgRESTStore struct {
	client *resty.Client
}

func NewPostgRESTStore(config models.PostgRESTConfiguration) *PostgRESTStore {
	timeout := time.Duration(config.TimeoutSeconds) * time.Second
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	client := resty.New().
		SetBaseURL(strings.TrimRight(config.URL, "/")+"/rest/v1").
		SetHeader("apikey", config.ServiceRoleKey).
		SetAuthToken(config.ServiceRoleKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &PostgRESTStore{client: client}
}

func checkResponse(op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%s: status %d: %s", op, resp.StatusCode(), resp.String())
	}
	return nil
}

func eq(value string) string {
	return "eq." + value
}

func (s *PostgRESTStore) selectByUID(ctx context.Context, table string, uid string, out any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParam("uid", eq(uid)).
		Get("/" + table)
	if err = checkResponse(table+" get", resp, err); err != nil {
		return err
	}
	if err = json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s get: decode: %w", table, err)
	}
	return nil
}

func (s *PostgRESTStore) upsert(ctx context.Context, table string, row any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", preferMerge).
		SetBody(row).
		Post("/" + table)
	return checkResponse(table+" upsert", resp, err)
}

func (s *PostgRESTStore) insert(ctx context.Context, table string, row any) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", preferMinimal).
		SetBody(row).
		Post("/" + table)
	return checkResponse(table+" insert", resp, err)
}

func (s *PostgRESTStore) deleteByUID(ctx context.Context, table string, uid string) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", preferMinimal).
		SetQueryParam("uid", eq(uid)).
		Delete("/" + table)
	return checkResponse(table+" delete", resp, err)
}

func (s *PostgRESTStore) IsAdmin(ctx context.Context, uid string) (bool, error) {
	var rows []adminRow
	if err := s.selectByUID(ctx, "admins", uid, &rows); err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func (s *PostgRESTStore) GetPending(ctx context.Context, uid string) (*models.PendingChallenge, error) {
	var rows []pendingRow
	if err := s.selectByUID(ctx, "mfa_pending", uid, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toModel(), nil
}

func (s *PostgRESTStore) UpsertPending(ctx context.Context, uid string, challenge models.PendingChallenge) error {
	return s.upsert(ctx, "mfa_pending", newPendingRow(uid, challenge))
}

func (s *PostgRESTStore) DeletePending(ctx context.Context, uid string) error {
	return s.deleteByUID(ctx, "mfa_pending", uid)
}

func (s *PostgRESTStore) DeleteExpiredPending(ctx context.Context, before time.Time) (int, error) {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", "return=representation").
		SetQueryParam("expires_at", "lt."+strconv.FormatInt(toMillis(before), 10)).
		SetQueryParam("select", "uid").
		Delete("/mfa_pending")
	if err = checkResponse("mfa_pending sweep", resp, err); err != nil {
		return 0, err
	}

	var deleted []adminRow
	if len(resp.Body()) > 0 {
		if err = json.Unmarshal(resp.Body(), &deleted); err != nil {
			return 0, fmt.Errorf("mfa_pending sweep: decode: %w", err)
		}
	}
	return len(deleted), nil
}

func (s *PostgRESTStore) GetVerified(ctx context.Context, uid string) (*models.VerifiedState, error) {
	var rows []stateRow
	if err := s.selectByUID(ctx, "mfa_state", uid, &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0].toModel(), nil
}

func (s *PostgRESTStore) UpsertVerified(ctx context.Context, uid string, state models.VerifiedState) error {
	return s.upsert(ctx, "mfa_state", newStateRow(uid, state))
}

func (s *PostgRESTStore) DeleteVerified(ctx context.Context, uid string) error {
	return s.deleteByUID(ctx, "mfa_state", uid)
}

func (s *PostgRESTStore) EnsureDevice(ctx context.Context, device models.Device) error {
	resp, err := s.client.R().
		SetContext(ctx).
		SetHeader("Prefer", preferMinimal).
		SetBody(newDeviceRow(device)).
		Post("/devices")
	if err == nil && resp.StatusCode() == http.StatusConflict {
		return nil
	}
	return checkResponse("devices insert", resp, err)
}

func (s *PostgRESTStore) UpsertDeviceStatus(ctx context.Context, status models.DeviceStatus) error {
	return s.upsert(ctx, "device_status", newDeviceStatusRow(status))
}

func (s *PostgRESTStore) InsertReading(ctx context.Context, reading models.Reading) error {
	return s.insert(ctx, "readings", newReadingRow(reading))
}

func (s *PostgRESTStore) InsertEvent(ctx context.Context, event models.DeviceEvent) error {
	return s.insert(ctx, "events", newEventRow(event))
}

func (s *PostgRESTStore) Close() error {
	return nil
}
