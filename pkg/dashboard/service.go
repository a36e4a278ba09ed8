package dashboard

import (
	"context"

	"github.com/bookdatabase/bookdb/pkg/models"
	"github.com/bookdatabase/bookdb/pkg/reads"
	"github.com/pkg/errors"
	"github.com/uptrace/bun"
)

type Dashboard struct {
	ActiveReads    []*models.Read `json:"active_reads"`
	TotalBooks     int            `json:"total_books"`
	CompletedReads int            `json:"completed_reads"`
}

type Service struct {
	db          *bun.DB
	readService *reads.Service
}

func NewService(db *bun.DB) *Service {
	return &Service{db, reads.NewService(db)}
}

func (svc *Service) RetrieveDashboard(ctx context.Context) (*Dashboard, error) {
	active, err := svc.readService.ListActiveReads(ctx)
	if err != nil {
		return nil, err
	}

	total, err := svc.db.NewSelect().
		Model((*models.Book)(nil)).
		Count(ctx)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	completed, err := svc.readService.CountReads(ctx, models.ReadStatusCompleted)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		ActiveReads:    active,
		TotalBooks:     total,
		CompletedReads: completed,
	}, nil
}
