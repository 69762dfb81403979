package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/logger"
)

const (
	defaultUnpaidTTL   = 48 * time.Hour
	defaultExpiryBatch = 100
)

type unpaidOrderLister interface {
	ListUnpaidBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

type unpaidOrderExpirer interface {
	ExpireUnpaid(ctx context.Context, orderID uuid.UUID) (bool, error)
}

// UnpaidOrderJobParams configure the unpaid order expiry job.
type UnpaidOrderJobParams struct {
	Logger    *logger.Logger
	Orders    unpaidOrderLister
	Expirer   unpaidOrderExpirer
	TTL       time.Duration
	BatchSize int
}

type unpaidOrderJob struct {
	logg    *logger.Logger
	orders  unpaidOrderLister
	expirer unpaidOrderExpirer
	ttl     time.Duration
	batch   int
	now     func() time.Time
}

// NewUnpaidOrderJob builds the job that cancels checkouts whose payment never
// arrived, returning their stock and discount use.
func NewUnpaidOrderJob(params UnpaidOrderJobParams) (Job, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Expirer == nil {
		return nil, fmt.Errorf("order expirer required")
	}
	ttl := params.TTL
	if ttl <= 0 {
		ttl = defaultUnpaidTTL
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultExpiryBatch
	}
	return &unpaidOrderJob{
		logg:    params.Logger,
		orders:  params.Orders,
		expirer: params.Expirer,
		ttl:     ttl,
		batch:   batch,
		now:     time.Now,
	}, nil
}

func (j *unpaidOrderJob) Name() string { return "unpaid-order-expiry" }

// Run handles one batch per cycle; anything left over is picked up next time.
func (j *unpaidOrderJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.ttl)
	rows, err := j.orders.ListUnpaidBefore(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("query unpaid orders: %w", err)
	}

	var errs error
	expired := 0
	for _, order := range rows {
		ok, err := j.expirer.ExpireUnpaid(ctx, order.ID)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("expire order %s: %w", order.ID, err))
			continue
		}
		if ok {
			expired++
		}
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"candidates": len(rows), "expired": expired})
	j.logg.Info(logCtx, "unpaid order expiry loop complete")
	return errs
}
