package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amirphl/orochi-partners/config"
	"github.com/amirphl/orochi-partners/utils"
	"github.com/redis/go-redis/v9"
)

var ErrImporterCredentialsNotFound = errors.New("importer credentials not found")

// ImporterStore is the subset of the redis client the campaign importer uses
type ImporterStore interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
}

// ImporterCredentials are saved by the workspace when it connects an external
// affiliate platform
type ImporterCredentials struct {
	UserID     uint   `json:"userId"`
	Token      string `json:"token"`
	CampaignID string `json:"campaignId,omitempty"`
}

// ImportJob is queued for the importer worker
type ImportJob struct {
	ProgramID string    `json:"programId"`
	Action    string    `json:"action"`
	QueuedAt  time.Time `json:"queuedAt"`
}

// CampaignImporter hands programs off to the external campaign importer
type CampaignImporter interface {
	GetCredentials(ctx context.Context, workspaceID uint) (*ImporterCredentials, error)
	SetCredentials(ctx context.Context, workspaceID uint, creds *ImporterCredentials) error
	Queue(ctx context.Context, job ImportJob) error
}

type RedisCampaignImporter struct {
	store ImporterStore
	cfg   config.ImporterConfig
}

func NewCampaignImporter(store ImporterStore, cfg config.ImporterConfig) CampaignImporter {
	return &RedisCampaignImporter{store: store, cfg: cfg}
}

func (i *RedisCampaignImporter) credentialsKey(workspaceID uint) string {
	return fmt.Sprintf("%s:%d", i.cfg.CredentialsKey, workspaceID)
}

func (i *RedisCampaignImporter) GetCredentials(ctx context.Context, workspaceID uint) (*ImporterCredentials, error) {
	raw, err := i.store.Get(ctx, i.credentialsKey(workspaceID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrImporterCredentialsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read importer credentials: %w", err)
	}

	var creds ImporterCredentials
	if err := json.Unmarshal(raw, &creds); err != nil {
		return nil, fmt.Errorf("failed to decode importer credentials: %w", err)
	}
	return &creds, nil
}

func (i *RedisCampaignImporter) SetCredentials(ctx context.Context, workspaceID uint, creds *ImporterCredentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("failed to encode importer credentials: %w", err)
	}
	if err := i.store.Set(ctx, i.credentialsKey(workspaceID), raw, i.cfg.CredentialsTTL).Err(); err != nil {
		return fmt.Errorf("failed to save importer credentials: %w", err)
	}
	return nil
}

func (i *RedisCampaignImporter) Queue(ctx context.Context, job ImportJob) error {
	if job.Action == "" {
		job.Action = utils.ImportCampaignAction
	}
	if job.QueuedAt.IsZero() {
		job.QueuedAt = utils.UTCNow()
	}
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode import job: %w", err)
	}
	if err := i.store.RPush(ctx, i.cfg.QueueKey, raw).Err(); err != nil {
		return fmt.Errorf("failed to queue import job: %w", err)
	}
	return nil
}
