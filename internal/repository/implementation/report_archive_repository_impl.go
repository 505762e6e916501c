package implementation

import (
	"context"
	"errors"

	"deep-research-be/internal/model"
	"deep-research-be/internal/repository/contract"

	"gorm.io/gorm"
)

type reportArchiveRepository struct {
	db *gorm.DB
}

func NewReportArchiveRepository(db *gorm.DB) contract.ReportArchiveRepository {
	return &reportArchiveRepository{db: db}
}

func (r *reportArchiveRepository) Create(ctx context.Context, archive *model.ReportArchive) error {
	return r.db.WithContext(ctx).Create(archive).Error
}

func (r *reportArchiveRepository) FindBySessionId(ctx context.Context, sessionId string) (*model.ReportArchive, error) {
	var archive model.ReportArchive
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionId).First(&archive).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &archive, nil
}

func (r *reportArchiveRepository) FindRecent(ctx context.Context, limit int) ([]*model.ReportArchive, error) {
	var archives []*model.ReportArchive
	err := r.db.WithContext(ctx).Order("created_at DESC").Limit(limit).Find(&archives).Error
	if err != nil {
		return nil, err
	}
	return archives, nil
}
