package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Default ledger lifetimes
const (
	DefaultClaimTTL = 10 * time.Minute
	DefaultDoneTTL  = 24 * time.Hour
)

// releaseScript deletes the claim only when this ledger still owns it
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LedgerStats tracks ledger decisions
type LedgerStats struct {
	Claims      int64 `json:"claims"`
	Duplicates  int64 `json:"duplicates"`
	Completions int64 `json:"completions"`
	Releases    int64 `json:"releases"`
}

// RedisTaskLedger deduplicates task deliveries with a claim key per task
// and a done marker kept for DoneTTL after completion.
type RedisTaskLedger struct {
	redis    *redis.Client
	owner    string
	claimTTL time.Duration
	doneTTL  time.Duration
	prefix   string

	mu    sync.RWMutex
	stats LedgerStats
}

// NewRedisTaskLedger creates a ledger. Non-positive TTLs fall back to the defaults.
func NewRedisTaskLedger(redisClient *redis.Client, claimTTL, doneTTL time.Duration) *RedisTaskLedger {
	if claimTTL <= 0 {
		claimTTL = DefaultClaimTTL
	}
	if doneTTL <= 0 {
		doneTTL = DefaultDoneTTL
	}
	return &RedisTaskLedger{
		redis:    redisClient,
		owner:    uuid.NewString(),
		claimTTL: claimTTL,
		doneTTL:  doneTTL,
		prefix:   "ml_task:",
	}
}

// Claim reserves taskID. It returns false when the task already completed or
// another worker holds an unexpired claim.
func (l *RedisTaskLedger) Claim(ctx context.Context, taskID string) (bool, error) {
	done, err := l.redis.Exists(ctx, l.doneKey(taskID)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check task %s: %w", taskID, err)
	}
	if done > 0 {
		l.record(func(s *LedgerStats) { s.Duplicates++ })
		return false, nil
	}

	ok, err := l.redis.SetNX(ctx, l.claimKey(taskID), l.owner, l.claimTTL).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim task %s: %w", taskID, err)
	}
	if !ok {
		l.record(func(s *LedgerStats) { s.Duplicates++ })
		return false, nil
	}
	l.record(func(s *LedgerStats) { s.Claims++ })
	return true, nil
}

// Complete writes the done marker. The claim is left to expire so a racing
// redelivery cannot slip in between the two keys.
func (l *RedisTaskLedger) Complete(ctx context.Context, taskID string) error {
	if err := l.redis.Set(ctx, l.doneKey(taskID), time.Now().UTC().Format(time.RFC3339), l.doneTTL).Err(); err != nil {
		return fmt.Errorf("failed to complete task %s: %w", taskID, err)
	}
	l.record(func(s *LedgerStats) { s.Completions++ })
	return nil
}

// Release drops this ledger's claim so a redelivery can retry.
func (l *RedisTaskLedger) Release(ctx context.Context, taskID string) error {
	if err := releaseScript.Run(ctx, l.redis, []string{l.claimKey(taskID)}, l.owner).Err(); err != nil {
		return fmt.Errorf("failed to release task %s: %w", taskID, err)
	}
	l.record(func(s *LedgerStats) { s.Releases++ })
	return nil
}

// GetStats returns a snapshot of the ledger counters
func (l *RedisTaskLedger) GetStats() LedgerStats {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.stats
}

func (l *RedisTaskLedger) record(update func(*LedgerStats)) {
	l.mu.Lock()
	update(&l.stats)
	l.mu.Unlock()
}

func (l *RedisTaskLedger) claimKey(taskID string) string {
	return l.prefix + taskID + ":claim"
}

func (l *RedisTaskLedger) doneKey(taskID string) string {
	return l.prefix + taskID + ":done"
}
