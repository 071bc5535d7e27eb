// Package events publishes pipeline events and batch claims on Redis.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"jobmate/ingestion-service/internal/model"
)

const (
	ChannelBatchCompleted = "EVENT_BATCH_COMPLETED"
	ChannelSweepCompleted = "EVENT_SWEEP_COMPLETED"

	ClaimKeyPrefix  = "ingest:claim:"
	DefaultClaimTTL = 36 * time.Hour
)

// releaseScript deletes the claim only if it is still held by the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// Bus wraps a Redis client.
type Bus struct {
	rdb      *redis.Client
	claimTTL time.Duration
}

// NewBus returns a Bus whose claims expire after claimTTL (DefaultClaimTTL
// when zero).
func NewBus(rdb *redis.Client, claimTTL time.Duration) *Bus {
	if claimTTL <= 0 {
		claimTTL = DefaultClaimTTL
	}
	return &Bus{rdb: rdb, claimTTL: claimTTL}
}

// Claim atomically reserves batchID for owner. It returns false when another
// owner already holds it.
func (b *Bus) Claim(ctx context.Context, batchID, owner string) (bool, error) {
	ok, err := b.rdb.SetNX(ctx, ClaimKeyPrefix+batchID, owner, b.claimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("claim %s: %w", batchID, err)
	}
	return ok, nil
}

// Release drops a claim held by owner so that a later run may retry.
func (b *Bus) Release(ctx context.Context, batchID, owner string) error {
	if err := releaseScript.Run(ctx, b.rdb, []string{ClaimKeyPrefix + batchID}, owner).Err(); err != nil {
		return fmt.Errorf("release %s: %w", batchID, err)
	}
	return nil
}

// BatchCompleted is the payload of ChannelBatchCompleted.
type BatchCompleted struct {
	Type             string   `json:"type"`
	RunID            string   `json:"runId"`
	BatchID          string   `json:"batchId"`
	CompletedAt      string   `json:"completedAt"`
	TotalFetched     int      `json:"totalFetched"`
	NewJobs          int      `json:"newJobs"`
	Duplicates       int      `json:"duplicates"`
	QueriesProcessed int      `json:"queriesProcessed"`
	Errors           []string `json:"errors"`
}

// PublishBatchCompleted announces a finished live run.
func (b *Bus) PublishBatchCompleted(ctx context.Context, run model.BatchRun) error {
	return b.publish(ctx, ChannelBatchCompleted, BatchCompleted{
		Type:             ChannelBatchCompleted,
		RunID:            run.RunID,
		BatchID:          run.BatchID,
		CompletedAt:      run.CompletedAt.UTC().Format(time.RFC3339),
		TotalFetched:     run.TotalFetched,
		NewJobs:          run.NewJobs,
		Duplicates:       run.Duplicates,
		QueriesProcessed: run.QueriesProcessed,
		Errors:           run.Errors,
	})
}

// SweepCompleted is the payload of ChannelSweepCompleted.
type SweepCompleted struct {
	Type             string `json:"type"`
	Migrated         int    `json:"migrated"`
	Duplicates       int    `json:"duplicates"`
	Removed          int    `json:"removed"`
	StagingProcessed int    `json:"stagingProcessed"`
	Errors           int    `json:"errors"`
}

// PublishSweepCompleted announces a finished live sweep.
func (b *Bus) PublishSweepCompleted(ctx context.Context, ev SweepCompleted) error {
	ev.Type = ChannelSweepCompleted
	return b.publish(ctx, ChannelSweepCompleted, ev)
}

func (b *Bus) publish(ctx context.Context, channel string, payload any) error {
	event, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", channel, err)
	}
	if err := b.rdb.Publish(ctx, channel, event).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}
