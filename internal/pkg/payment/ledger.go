package payment

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Ledger remembers which external payment identifiers were already turned
// into local records. TryClaim is atomic: for a given id exactly one caller
// ever gets true, and ids are never released.
type Ledger interface {
	TryClaim(ctx context.Context, externalID, source string) (bool, error)
	// MarkRecorded notes that the claimed payment produced its local row.
	MarkRecorded(ctx context.Context, externalID string) error
	// MarkUnrecorded flags a claim whose record could not be written, so it
	// shows up for manual review.
	MarkUnrecorded(ctx context.Context, externalID, reason, metadata string) error
}

// MemoryLedger is a process-local ledger. It only guarantees at-most-once
// within one running instance.
type MemoryLedger struct {
	mu      sync.Mutex
	claimed map[string]memoryClaim
}

type memoryClaim struct {
	source   string
	recorded bool
	reason   string
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{claimed: make(map[string]memoryClaim)}
}

func (l *MemoryLedger) TryClaim(_ context.Context, externalID, source string) (bool, error) {
	externalID = strings.TrimSpace(externalID)
	if externalID == "" {
		return false, newValidationError("externalId", "claim key is empty")
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.claimed[externalID]; ok {
		return false, nil
	}
	l.claimed[externalID] = memoryClaim{source: source}
	return true, nil
}

func (l *MemoryLedger) MarkRecorded(_ context.Context, externalID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.claimed[externalID]
	if !ok {
		return nil
	}
	c.recorded = true
	c.reason = ""
	l.claimed[externalID] = c
	return nil
}

func (l *MemoryLedger) MarkUnrecorded(_ context.Context, externalID, reason, _ string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	c, ok := l.claimed[externalID]
	if !ok {
		return nil
	}
	c.recorded = false
	c.reason = reason
	l.claimed[externalID] = c
	return nil
}

// Claimed reports whether externalID has been claimed.
func (l *MemoryLedger) Claimed(externalID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.claimed[externalID]
	return ok
}

// NewLedgerFromConfig picks the ledger backend named by cfg.Ledger. The redis
// backend falls back to the database when no client is available.
func NewLedgerFromConfig(cfg Config, db *gorm.DB, rdb *redis.Client) (Ledger, error) {
	switch cfg.Ledger {
	case LedgerMemory:
		log.Warn("[PaymentLedger] Using in-memory ledger; duplicate protection does not survive restarts")
		return NewMemoryLedger(), nil
	case LedgerRedis:
		if rdb != nil {
			return NewRedisLedger(rdb), nil
		}
		log.Warn("[PaymentLedger] Redis ledger requested but no client configured, falling back to database")
		fallthrough
	case LedgerDatabase, "":
		if db == nil {
			return nil, fmt.Errorf("database ledger requires a database connection")
		}
		return NewGormLedger(db), nil
	default:
		return nil, fmt.Errorf("unknown payment ledger %q", cfg.Ledger)
	}
}
