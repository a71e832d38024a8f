package audit

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:generate mockgen -source=audit_recorder.go -destination=mock/audit_recorder_mock.go -package=mock
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	ListForEntity(ctx context.Context, companyID, module, entityID string) ([]Entry, error)
}

type recorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

func NewRecorder(db *gorm.DB, logger ...*zap.Logger) Recorder {
	l := zap.L().Named("audit.recorder")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.recorder")
	}
	return &recorder{db: db, logger: l}
}

func (r *recorder) Record(ctx context.Context, e Entry) error {
	return r.db.WithContext(ctx).Create(&e).Error
}

func (r *recorder) ListForEntity(ctx context.Context, companyID, module, entityID string) ([]Entry, error) {
	var rows []Entry
	err := r.db.WithContext(ctx).
		Where("company_id = ?", companyID).
		Where("module = ? AND entity_id = ?", module, entityID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}
