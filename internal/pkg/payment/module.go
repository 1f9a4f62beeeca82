package payment

import (
	"context"
	"sync"

	"github.com/gofiber/fiber/v2/log"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ManuelReschke/CareFund/app/models"
)

// Module bundles the wired payment components used by the HTTP layer and the
// job queue.
type Module struct {
	Config     Config
	Gateway    *Gateway
	Reconciler *Reconciler
	Backfill   *ReceiptBackfill
	Ledger     Ledger
	Repository Repository
}

// UnrecordedLister is implemented by ledgers that can list claims flagged for
// manual review.
type UnrecordedLister interface {
	ListUnrecorded(ctx context.Context, limit int) ([]models.PaymentClaim, error)
}

var (
	module   *Module
	moduleMu sync.RWMutex
)

// NewModule wires the payment components. processor may be nil when card
// payments are not configured.
func NewModule(cfg Config, processor Processor, db *gorm.DB, rdb *redis.Client) (*Module, error) {
	ledger, err := NewLedgerFromConfig(cfg, db, rdb)
	if err != nil {
		return nil, err
	}
	repo := NewRepository(db)
	return &Module{
		Config:     cfg,
		Gateway:    NewGateway(cfg, processor),
		Reconciler: NewReconciler(processor, NewStripeWebhookVerifier(cfg.WebhookSecret), ledger, repo),
		Backfill:   NewReceiptBackfill(processor, repo),
		Ledger:     ledger,
		Repository: repo,
	}, nil
}

// Setup builds the module from the environment and makes it available via
// GetModule.
func Setup(db *gorm.DB, rdb *redis.Client) (*Module, error) {
	cfg := ConfigFromEnv()
	processor := NewProcessorFromConfig(cfg)
	if processor == nil {
		log.Warn("[Payment] STRIPE_SECRET_KEY not set, card payments disabled (bank transfer only)")
	}
	if cfg.WebhookSecret == "" {
		log.Warn("[Payment] STRIPE_WEBHOOK_SECRET not set, every webhook delivery will be rejected")
	}

	m, err := NewModule(cfg, processor, db, rdb)
	if err != nil {
		return nil, err
	}
	SetModule(m)
	log.Infof("[Payment] Ready (ledger=%s, currencies=%v)", cfg.Ledger, cfg.SupportedCurrencies())
	return m, nil
}

func SetModule(m *Module) {
	moduleMu.Lock()
	defer moduleMu.Unlock()
	module = m
}

// GetModule returns the module installed by Setup or SetModule.
func GetModule() *Module {
	moduleMu.RLock()
	defer moduleMu.RUnlock()
	return module
}

// UnrecordedClaims lists claims that need manual review. Ledgers without a
// queryable store return an empty list.
func (m *Module) UnrecordedClaims(ctx context.Context, limit int) ([]models.PaymentClaim, error) {
	if l, ok := m.Ledger.(UnrecordedLister); ok {
		return l.ListUnrecorded(ctx, limit)
	}
	return []models.PaymentClaim{}, nil
}
