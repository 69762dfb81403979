package shipments

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/stondral/tsew-sub002/pkg/db/models"
	"github.com/stondral/tsew-sub002/pkg/logger"
	"github.com/stondral/tsew-sub002/pkg/pagination"
)

const (
	syncJobName      = "shipment-sync"
	defaultBatchSize = 50
)

type syncLister interface {
	ListForSync(ctx context.Context, after *pagination.Cursor, limit int) ([]models.Order, error)
}

type SyncJobParams struct {
	Orders    syncLister
	Service   Service
	BatchSize int
	Logger    *logger.Logger
}

// SyncJob polls the courier for every order still in transit.
type SyncJob struct {
	orders  syncLister
	service Service
	batch   int
	logg    *logger.Logger
}

func NewSyncJob(params SyncJobParams) (*SyncJob, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Service == nil {
		return nil, fmt.Errorf("shipment service required")
	}
	batch := pagination.NormalizeLimit(params.BatchSize)
	if params.BatchSize <= 0 {
		batch = defaultBatchSize
	}
	return &SyncJob{orders: params.Orders, service: params.Service, batch: batch, logg: params.Logger}, nil
}

func (j *SyncJob) Name() string { return syncJobName }

// Run syncs each order independently. One failing order does not stop the
// rest; all failures are returned together.
func (j *SyncJob) Run(ctx context.Context) error {
	var (
		errs    error
		after   *pagination.Cursor
		checked int
		changed int
	)
	for {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		rows, err := j.orders.ListForSync(ctx, after, j.batch)
		if err != nil {
			return multierr.Append(errs, fmt.Errorf("list orders for sync: %w", err))
		}
		for i := range rows {
			out, err := j.service.Sync(ctx, rows[i].ID)
			checked++
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("sync order %s: %w", rows[i].ID, err))
				continue
			}
			if out.Changed {
				changed++
			}
		}
		if len(rows) < j.batch {
			break
		}
		last := rows[len(rows)-1]
		after = &pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
	}

	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"checked": checked,
		"changed": changed,
		"failed":  len(multierr.Errors(errs)),
	}), "shipment sync pass finished")
	return errs
}
