package usecase

import (
	"time"

	"social-publisher/infrastructure/logger"
)

// PublishLeadFloor is the minimum gap this system enforces between now and a
// scheduled publish time. YouTube itself rejects anything closer than about
// 15 minutes; the larger floor absorbs clock skew and the rendering time that
// sits between intake and the actual upload call.
const PublishLeadFloor = 30 * time.Minute

// ParsePublishTime parses a caller-supplied RFC3339 publish time. An empty or
// unparseable value means "publish immediately" rather than failing the whole
// request; bad values are logged and dropped.
func ParsePublishTime(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		logger.GetLogger().WithField("publish_at", raw).Warn("Unparseable publish time, treating as unscheduled")
		return nil
	}
	return &t
}

// NormalizePublishTime corrects a requested publish instant so it respects
// PublishLeadFloor at the given now. Nil stays nil; anything closer than the
// floor is pushed out to now+floor; already-valid values pass through
// unchanged, so the function is idempotent and safe to re-apply.
//
// Because rendering can take minutes, the orchestrator calls this twice: once
// at intake and once with a fresh now immediately before the upload session
// is opened. A single intake-time evaluation is not enough - the value can go
// stale while the video renders.
func NormalizePublishTime(requested *time.Time, now time.Time) *time.Time {
	if requested == nil {
		return nil
	}
	if requested.Sub(now) < PublishLeadFloor {
		adjusted := now.Add(PublishLeadFloor)
		return &adjusted
	}
	return requested
}
