package worker

// Jobs that run out of attempts are parked in dlq:<queue>, newest first, until
// someone reads them with `tiendactl jobs dlq`. Nothing consumes these lists
// automatically.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const DLQPrefix = "dlq:"

func dlqKey(queue string) string { return DLQPrefix + queue }

// DLQEntry is a parked job: its envelope plus where, why and when it failed.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      time.Time       `json:"failed_at"`
	Attempts      int             `json:"attempts"`
}

func newDLQEntry(queue string, job Job, reason string, at time.Time) DLQEntry {
	return DLQEntry{
		OriginalQueue: queue,
		JobType:       job.Type,
		Payload:       job.Payload,
		Reason:        reason,
		FailedAt:      at.UTC(),
		Attempts:      job.Attempts,
	}
}

// parkJob stores job in the dead letter list of queue.
func parkJob(ctx context.Context, rdb redis.UniversalClient, queue string, job Job, reason string) error {
	raw, err := json.Marshal(newDLQEntry(queue, job, reason, time.Now()))
	if err != nil {
		return fmt.Errorf("encode dlq entry: %w", err)
	}
	return rdb.LPush(ctx, dlqKey(queue), raw).Err()
}

// parkAndLog is the pool's dead letter hook. A job that cannot be parked is
// lost, so the log line carries the whole payload.
func parkAndLog(ctx context.Context, rdb redis.UniversalClient, queue string, job Job, reason string) {
	ev := log.Warn()
	if err := parkJob(ctx, rdb, queue, job, reason); err != nil {
		ev = log.Error().Err(err).RawJSON("payload", job.Payload)
	}
	ev.Str("queue", queue).
		Str("job_type", job.Type).
		Int("attempts", job.Attempts).
		Str("reason", reason).
		Msg("worker: job parked in dead letter queue")
}

// DLQLength counts the parked jobs of queue.
func DLQLength(ctx context.Context, rdb redis.UniversalClient, queue string) (int64, error) {
	return rdb.LLen(ctx, dlqKey(queue)).Result()
}

// PeekDLQ returns up to n of the most recently parked jobs of queue without
// removing them. Entries that no longer decode are skipped.
func PeekDLQ(ctx context.Context, rdb redis.UniversalClient, queue string, n int64) ([]DLQEntry, error) {
	raws, err := rdb.LRange(ctx, dlqKey(queue), 0, n-1).Result()
	if err != nil {
		return nil, err
	}
	out := make([]DLQEntry, 0, len(raws))
	for _, raw := range raws {
		var e DLQEntry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			log.Warn().Err(err).Str("queue", queue).Msg("worker: undecodable dead letter entry")
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
