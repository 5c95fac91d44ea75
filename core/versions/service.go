package versions

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/allegro/bigcache/v3"
	"github.com/oklog/ulid/v2"

	"github.com/swisspipe/swisspipe/metrics"
	"github.com/swisspipe/swisspipe/model"
	"github.com/swisspipe/swisspipe/pkg/logger"
	"github.com/swisspipe/swisspipe/storage"
)

const (
	maxCommitMessageLen     = 100
	maxCommitDescriptionLen = 1000

	// Versions are immutable, the cache TTL only bounds memory
	snapshotCacheTTL = 10 * time.Minute
)

// Service maintains the per-workflow version history: an append-only log of
// workflow snapshots with monotonically increasing version numbers.
type Service struct {
	db    storage.Storage
	cache *bigcache.BigCache

	maxVersionsPerWorkflow int64

	logger logger.Logger
}

type CreateVersionRequest struct {
	// Snapshot is the complete workflow definition as submitted by the editor
	Snapshot          json.RawMessage `json:"snapshot"`
	CommitMessage     string          `json:"commit_message"`
	CommitDescription string          `json:"commit_description,omitempty"`
}

// VersionHistory is one page of a workflow's history, newest first.
// Snapshots are stripped from list items; fetch the version detail for the
// full payload.
type VersionHistory struct {
	Versions []*model.WorkflowVersion `json:"versions"`
	Total    int64                    `json:"total"`

	// NextCursor pages toward older versions, empty on the last page
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

func NewService(db storage.Storage, maxVersionsPerWorkflow int64, l logger.Logger) (*Service, error) {
	cache, err := bigcache.New(context.Background(), bigcache.DefaultConfig(snapshotCacheTTL))
	if err != nil {
		return nil, err
	}

	if maxVersionsPerWorkflow <= 0 {
		maxVersionsPerWorkflow = 50
	}

	return &Service{
		db:                     db,
		cache:                  cache,
		maxVersionsPerWorkflow: maxVersionsPerWorkflow,
		logger:                 logger.EnsureLogger(l),
	}, nil
}

// CreateVersion appends a snapshot to the workflow's history. Version
// numbers come from an atomic storage counter, so concurrent saves get
// distinct, increasing numbers.
func (s *Service) CreateVersion(workflowID string, req CreateVersionRequest, changedBy string) (*model.WorkflowVersion, error) {
	if workflowID == "" {
		return nil, NewValidationError("workflow id is required")
	}
	if req.CommitMessage == "" {
		return nil, NewValidationError("commit message cannot be empty")
	}
	if len(req.CommitMessage) > maxCommitMessageLen {
		return nil, NewValidationError("commit message must be %d characters or less", maxCommitMessageLen)
	}
	if len(req.CommitDescription) > maxCommitDescriptionLen {
		return nil, NewValidationError("commit description must be %d characters or less", maxCommitDescriptionLen)
	}

	workflowName, err := workflowNameFromSnapshot(req.Snapshot)
	if err != nil {
		return nil, err
	}

	number, err := s.db.IncCounter(VersionCounterKey(workflowID), 0)
	if err != nil {
		return nil, err
	}

	version := &model.WorkflowVersion{
		ID:                ulid.Make().String(),
		WorkflowID:        workflowID,
		VersionNumber:     int64(number),
		WorkflowName:      workflowName,
		Snapshot:          req.Snapshot,
		CommitMessage:     req.CommitMessage,
		CommitDescription: req.CommitDescription,
		ChangedBy:         changedBy,
		CreatedAt:         time.Now().UnixMicro(),
	}

	data, err := json.Marshal(version)
	if err != nil {
		return nil, err
	}

	if err := s.db.Set(VersionStorageKey(workflowID, version.ID), data); err != nil {
		return nil, err
	}

	metrics.IncVersionCreated()
	s.logger.Info("created workflow version",
		"workflow_id", workflowID,
		"version_number", version.VersionNumber,
		"changed_by", changedBy)

	return version, nil
}

// ListVersions returns one page of history, newest first. Snapshots are
// omitted from the page items.
func (s *Service) ListVersions(workflowID string, cursorStr string, itemPerPage int) (*VersionHistory, error) {
	cursor, perPage, err := SetupPagination(cursorStr, itemPerPage)
	if err != nil {
		return nil, err
	}

	prefix := VersionStoragePrefix(workflowID)

	total, err := s.db.CountKeysByPrefix(prefix)
	if err != nil {
		return nil, err
	}

	items, err := s.db.GetByPrefix(prefix)
	if err != nil {
		return nil, err
	}

	history := &VersionHistory{
		Versions: []*model.WorkflowVersion{},
		Total:    total,
	}

	// Keys come back in ULID order, oldest first; walk backwards for
	// newest-first pages.
	for i := len(items) - 1; i >= 0; i-- {
		id, err := ulid.Parse(VersionIdFromStorageKey(items[i].Key))
		if err != nil {
			s.logger.Warn("skipping malformed version key", "key", string(items[i].Key))
			continue
		}

		if !cursor.Before(id) {
			continue
		}

		if len(history.Versions) >= perPage {
			history.HasMore = true
			history.NextCursor = NewCursor(history.Versions[len(history.Versions)-1].ID).String()
			break
		}

		var version model.WorkflowVersion
		if err := json.Unmarshal(items[i].Value, &version); err != nil {
			return nil, err
		}
		version.Snapshot = nil

		history.Versions = append(history.Versions, &version)
	}

	return history, nil
}

// GetVersion returns the full version record including its snapshot.
func (s *Service) GetVersion(workflowID, versionID string) (*model.WorkflowVersion, error) {
	key := VersionStorageKey(workflowID, versionID)

	data, err := s.cache.Get(string(key))
	if err != nil {
		data, err = s.db.GetKey(key)
		if errors.Is(err, storage.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		if err != nil {
			return nil, err
		}

		// Versions never change after creation so the cache cannot go stale
		_ = s.cache.Set(string(key), data)
	}

	var version model.WorkflowVersion
	if err := json.Unmarshal(data, &version); err != nil {
		return nil, err
	}

	return &version, nil
}

// DeleteWorkflowVersions drops the whole history of a workflow, counter
// included. Called on workflow deletion.
func (s *Service) DeleteWorkflowVersions(workflowID string) (int64, error) {
	deleted, err := s.db.DeleteByPrefix(VersionStoragePrefix(workflowID))
	if err != nil {
		return deleted, err
	}

	if err := s.db.Delete(VersionCounterKey(workflowID)); err != nil && !errors.Is(err, storage.ErrKeyNotFound) {
		return deleted, err
	}

	return deleted, nil
}

func workflowNameFromSnapshot(snapshot json.RawMessage) (string, error) {
	if len(snapshot) == 0 {
		return "", NewValidationError("workflow snapshot is required")
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(snapshot, &parsed); err != nil {
		return "", NewValidationError("invalid workflow JSON: %s", err)
	}

	if name, ok := parsed["name"].(string); ok && name != "" {
		return name, nil
	}
	return "Unnamed Workflow", nil
}
