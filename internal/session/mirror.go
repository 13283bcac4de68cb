package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const mirrorTTL = 24 * time.Hour

// Mirror copies session snapshots into Redis so dashboards and sibling
// processes can inspect live engagements without reaching into this process.
// The in-memory Store stays authoritative; mirror failures are reported but
// never block message processing.
type Mirror struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewMirror creates a Redis-backed snapshot mirror.
func NewMirror(client *redis.Client, tracer trace.Tracer) *Mirror {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if tracer == nil {
		tracer = otel.Tracer("honeypot/session-mirror")
	}
	return &Mirror{redis: client, tracer: tracer}
}

// Save persists a snapshot under the session key.
func (m *Mirror) Save(ctx context.Context, snap Snapshot) error {
	ctx, span := m.tracer.Start(ctx, "session.mirror_save")
	defer span.End()

	data, err := json.Marshal(snap)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal snapshot: %w", err)
	}
	if err := m.redis.Set(ctx, mirrorKey(snap.SessionID), data, mirrorTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to mirror snapshot: %w", err)
	}
	return nil
}

// Load retrieves a mirrored snapshot. Returns false when the key is absent.
func (m *Mirror) Load(ctx context.Context, sessionID string) (Snapshot, bool, error) {
	ctx, span := m.tracer.Start(ctx, "session.mirror_load")
	defer span.End()

	data, err := m.redis.Get(ctx, mirrorKey(sessionID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return Snapshot{}, false, nil
		}
		span.RecordError(err)
		return Snapshot{}, false, fmt.Errorf("session: failed to load mirrored snapshot: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		span.RecordError(err)
		return Snapshot{}, false, fmt.Errorf("session: failed to decode mirrored snapshot: %w", err)
	}
	return snap, true, nil
}

func mirrorKey(sessionID string) string {
	return fmt.Sprintf("honeypot:session:%s", sessionID)
}
