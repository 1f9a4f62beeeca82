package payment

import (
	"context"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CareFund/app/models"
)

const defaultBackfillBatchSize = 200

// BackfillReport summarizes one receipt sweep.
type BackfillReport struct {
	Scanned      int `json:"scanned"`
	Filled       int `json:"filled"`
	StillMissing int `json:"stillMissing"`
	Failed       int `json:"failed"`
}

// ReceiptBackfill fills in processor receipt URLs for completed sponsorship
// payments. Receipts are issued asynchronously, so rows without one are
// retried every sweep.
type ReceiptBackfill struct {
	processor Processor
	repo      Repository
	batchSize int
}

func NewReceiptBackfill(processor Processor, repo Repository) *ReceiptBackfill {
	return &ReceiptBackfill{processor: processor, repo: repo, batchSize: defaultBackfillBatchSize}
}

// RunOnce performs one sweep over every eligible row, a page at a time.
// Errors on single rows are logged and counted; only a failed scan aborts.
func (b *ReceiptBackfill) RunOnce(ctx context.Context) (BackfillReport, error) {
	var report BackfillReport
	if b.processor == nil {
		return report, ErrGatewayUnavailable
	}

	var lastID uint
	for ctx.Err() == nil {
		rows, err := b.repo.ListSponsorshipsMissingReceipt(ctx, lastID, b.batchSize)
		if err != nil {
			log.Errorf("[ReceiptBackfill] Failed to list sponsorships after id %d: %v", lastID, err)
			return report, err
		}
		for _, s := range rows {
			if ctx.Err() != nil {
				break
			}
			lastID = s.ID
			b.fill(ctx, s, &report)
		}
		if b.batchSize <= 0 || len(rows) < b.batchSize {
			break
		}
	}

	if report.Scanned > 0 {
		log.Infof("[ReceiptBackfill] Scanned %d, filled %d, still missing %d, failed %d",
			report.Scanned, report.Filled, report.StillMissing, report.Failed)
	}
	return report, nil
}

func (b *ReceiptBackfill) fill(ctx context.Context, s models.Sponsorship, report *BackfillReport) {
	report.Scanned++
	if s.StripePaymentIntentID == nil || *s.StripePaymentIntentID == "" {
		return
	}

	fetchCtx, cancel := context.WithTimeout(ctx, processorTimeout)
	url, err := b.processor.GetReceiptURL(fetchCtx, *s.StripePaymentIntentID)
	cancel()
	if err != nil {
		report.Failed++
		log.Warnf("[ReceiptBackfill] Sponsorship %d (%s): %v", s.ID, *s.StripePaymentIntentID, err)
		return
	}
	if url == "" {
		report.StillMissing++
		return
	}
	if err := b.repo.SetSponsorshipReceiptURL(ctx, s.ID, url); err != nil {
		report.Failed++
		log.Errorf("[ReceiptBackfill] Failed to save receipt for sponsorship %d: %v", s.ID, err)
		return
	}
	report.Filled++
}
