package contract

import (
	"context"

	"deep-research-be/internal/model"
)

type ReportArchiveRepository interface {
	Create(ctx context.Context, archive *model.ReportArchive) error
	FindBySessionId(ctx context.Context, sessionId string) (*model.ReportArchive, error)
	FindRecent(ctx context.Context, limit int) ([]*model.ReportArchive, error)
}
