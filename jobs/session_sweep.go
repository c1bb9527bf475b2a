package jobs

import (
	"context"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

// SessionSweepJob deletes session keys that ended up without an
// expiry. The session store always sets a TTL; a key with none is
// leftover from an interrupted write and would otherwise live forever.
type SessionSweepJob struct {
	rdb    *redis.Client
	logger *slog.Logger
}

// NewSessionSweepJob constructs a SessionSweepJob.
func NewSessionSweepJob(rdb *redis.Client, logger *slog.Logger) *SessionSweepJob {
	return &SessionSweepJob{rdb: rdb, logger: logger}
}

// Handle processes TaskSessionSweep tasks.
func (j *SessionSweepJob) Handle(ctx context.Context, t *asynq.Task) error {
	var swept int
	iter := j.rdb.Scan(ctx, 0, "session:*", 200).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		ttl, err := j.rdb.TTL(ctx, key).Result()
		if err != nil {
			return err
		}
		// -1 marks a key with no associated expiry.
		if ttl == -1 {
			if err := j.rdb.Del(ctx, key).Err(); err != nil {
				return err
			}
			swept++
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if j.logger != nil && swept > 0 {
		j.logger.Info("swept sessions without expiry", slog.Int("count", swept))
	}
	return nil
}

// ChatTrimJob re-trims every chat topic to its retention capacity.
// Push trims on every write; this covers topics written by older
// deployments or external tools.
type ChatTrimJob struct {
	rdb      *redis.Client
	capacity int64
	logger   *slog.Logger
}

// NewChatTrimJob constructs a ChatTrimJob.
func NewChatTrimJob(rdb *redis.Client, capacity int64, logger *slog.Logger) *ChatTrimJob {
	return &ChatTrimJob{rdb: rdb, capacity: capacity, logger: logger}
}

// Handle processes TaskChatTrim tasks.
func (j *ChatTrimJob) Handle(ctx context.Context, t *asynq.Task) error {
	iter := j.rdb.Scan(ctx, 0, "chat:*", 200).Iterator()
	for iter.Next(ctx) {
		if err := j.rdb.LTrim(ctx, iter.Val(), 0, j.capacity-1).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}
