package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/zamyatin-zkex/baseflow/internal/entity"
	"github.com/zamyatin-zkex/baseflow/internal/event"
	"github.com/zamyatin-zkex/baseflow/internal/metrics"
)

const (
	snapshotKeyPrefix     = "baseflow:snapshot:"
	snapshotChannelPrefix = "baseflow.snapshot."
)

// Snapshots shares the latest snapshot with other dashboard instances.
// The key expires after ttl, it is a view, not a store to restore from.
type Snapshots struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewSnapshots(client redis.UniversalClient, ttl time.Duration) *Snapshots {
	return &Snapshots{client: client, ttl: ttl}
}

func SnapshotKey(observer string) string {
	return snapshotKeyPrefix + strings.ToLower(observer)
}

func SnapshotChannel(observer string) string {
	return snapshotChannelPrefix + strings.ToLower(observer)
}

func (s *Snapshots) Store(ctx context.Context, snap entity.MetricsSnapshot) error {
	payload, err := sonic.Marshal(snap)
	if err != nil {
		return fmt.Errorf("json marshal snapshot: %w", err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, SnapshotKey(snap.Observer), payload, s.ttl)
	pipe.Publish(ctx, SnapshotChannel(snap.Observer), payload)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}

	metrics.SnapshotsPublished.Inc()
	return nil
}

// HandleSnapshot is the bus listener for SnapshotUpdated.
func (s *Snapshots) HandleSnapshot(ctx context.Context, updated event.SnapshotUpdated) error {
	return s.Store(ctx, updated.Snapshot)
}
