package activity

import (
	"encoding/json"
	"fmt"
	"time"

	"edgeguard/internal/models"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	schemaVersion      = "1"
	defaultSearchLimit = 100
	maxSearchLimit     = 1000
)

var schemaVersionKey = []byte("schema_version")

// auditDocument is what gets indexed. Details are kept as a stored JSON string.
type auditDocument struct {
	Action   string    `json:"action"`
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	DeviceID string    `json:"device_id"`
	At       time.Time `json:"at"`
	Details  string    `json:"details"`
}

var keywordFields = []string{"action", "user_id", "email", "device_id"}

// BleveLogger keeps the audit trail in a local bleve index.
type BleveLogger struct {
	index bleve.Index
}

// NewBleveLogger opens the index in dir, creating it on first use. An index written with
// another schema version is refused rather than silently reinterpreted.
func NewBleveLogger(dir string) (*BleveLogger, error) {
	index, err := bleve.Open(dir)
	if err != nil {
		index, err = bleve.New(dir, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create activity index: %w", err)
		}
		if err = index.SetInternal(schemaVersionKey, []byte(schemaVersion)); err != nil {
			_ = index.Close()
			return nil, fmt.Errorf("failed to set activity schema version: %w", err)
		}
		zap.L().Info("Created activity index", zap.String("directory", dir))
		return &BleveLogger{index: index}, nil
	}

	stored, err := index.GetInternal(schemaVersionKey)
	if err != nil {
		_ = index.Close()
		return nil, fmt.Errorf("failed to read activity schema version: %w", err)
	}
	if string(stored) != schemaVersion {
		_ = index.Close()
		return nil, fmt.Errorf("activity index in %s has schema %q, expected %q", dir, stored, schemaVersion)
	}

	return &BleveLogger{index: index}, nil
}

func buildIndexMapping() *mapping.IndexMappingImpl {
	keywordMapping := bleve.NewKeywordFieldMapping()

	storedOnly := bleve.NewTextFieldMapping()
	storedOnly.Index = false
	storedOnly.Store = true

	docMapping := bleve.NewDocumentMapping()
	for _, field := range keywordFields {
		docMapping.AddFieldMappingsAt(field, keywordMapping)
	}
	docMapping.AddFieldMappingsAt("at", bleve.NewDateTimeFieldMapping())
	docMapping.AddFieldMappingsAt("details", storedOnly)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func (l *BleveLogger) Send(entry models.AuditEntry) error {
	doc := auditDocument{
		Action:   entry.Action,
		UserID:   entry.UserID,
		Email:    entry.Email,
		DeviceID: entry.DeviceID,
		At:       entry.At,
	}
	if doc.At.IsZero() {
		doc.At = time.Now()
	}
	if len(entry.Details) > 0 {
		details, err := json.Marshal(entry.Details)
		if err != nil {
			return fmt.Errorf("failed to marshal activity details: %w", err)
		}
		doc.Details = string(details)
	}

	if err := l.index.Index(uuid.NewString(), doc); err != nil {
		return fmt.Errorf("failed to index activity: %w", err)
	}
	return nil
}

func (l *BleveLogger) Search(q models.AuditQuery) ([]models.AuditEntry, error) {
	req := bleve.NewSearchRequest(buildQuery(q))
	req.Size = searchLimit(q.Limit)
	req.SortBy([]string{"-at"})
	req.Fields = []string{"*"}

	result, err := l.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("failed to search activity: %w", err)
	}

	entries := make([]models.AuditEntry, 0, len(result.Hits))
	for _, hit := range result.Hits {
		entries = append(entries, entryFromFields(hit.Fields))
	}
	return entries, nil
}

func (l *BleveLogger) Close() error {
	return l.index.Close()
}

func searchLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultSearchLimit
	case limit > maxSearchLimit:
		return maxSearchLimit
	default:
		return limit
	}
}

func termQuery(field string, value string) query.Query {
	tq := bleve.NewTermQuery(value)
	tq.SetField(field)
	return tq
}

func buildQuery(q models.AuditQuery) query.Query {
	var clauses []query.Query

	switch len(q.Actions) {
	case 0:
	case 1:
		clauses = append(clauses, termQuery("action", q.Actions[0]))
	default:
		actions := make([]query.Query, 0, len(q.Actions))
		for _, action := range q.Actions {
			actions = append(actions, termQuery("action", action))
		}
		disjunction := bleve.NewDisjunctionQuery(actions...)
		disjunction.SetMin(1)
		clauses = append(clauses, disjunction)
	}

	if q.UserID != "" {
		clauses = append(clauses, termQuery("user_id", q.UserID))
	}
	if q.DeviceID != "" {
		clauses = append(clauses, termQuery("device_id", q.DeviceID))
	}
	if !q.Since.IsZero() {
		since := bleve.NewDateRangeQuery(q.Since, time.Time{})
		since.SetField("at")
		clauses = append(clauses, since)
	}

	switch len(clauses) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return clauses[0]
	default:
		return bleve.NewConjunctionQuery(clauses...)
	}
}

func entryFromFields(fields map[string]any) models.AuditEntry {
	str := func(name string) string {
		value, _ := fields[name].(string)
		return value
	}

	entry := models.AuditEntry{
		Action:   str("action"),
		UserID:   str("user_id"),
		Email:    str("email"),
		DeviceID: str("device_id"),
	}
	if at, err := time.Parse(time.RFC3339Nano, str("at")); err == nil {
		entry.At = at
	}
	if details := str("details"); details != "" {
		_ = json.Unmarshal([]byte(details), &entry.Details)
	}
	return entry
}
