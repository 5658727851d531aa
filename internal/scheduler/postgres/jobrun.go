package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/frahmantamala/leave-management/internal/core/database"
	jobrunDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/jobrun"
	"github.com/frahmantamala/leave-management/internal/scheduler"
)

type JobRunRepository struct {
	db *gorm.DB
}

func NewJobRunRepository(db *gorm.DB) scheduler.RepositoryAPI {
	return &JobRunRepository{db: db}
}

func (r *JobRunRepository) Create(ctx context.Context, run *scheduler.JobRun) error {
	model, err := scheduler.ToDataModel(run)
	if err != nil {
		return err
	}
	if err := database.Conn(ctx, r.db).Create(model).Error; err != nil {
		return err
	}
	run.ID = model.ID
	return nil
}

func (r *JobRunRepository) Finish(ctx context.Context, run *scheduler.JobRun) error {
	model, err := scheduler.ToDataModel(run)
	if err != nil {
		return err
	}
	return database.Conn(ctx, r.db).
		Model(&jobrunDatamodel.JobRun{ID: run.ID}).
		Select("status", "details", "completed_at").
		Updates(model).Error
}

func (r *JobRunRepository) HasCompleted(ctx context.Context, jobType, runKey string) (bool, error) {
	var count int64
	err := database.Conn(ctx, r.db).
		Model(&jobrunDatamodel.JobRun{}).
		Where("job_type = ? AND run_key = ? AND status IN ?", jobType, runKey,
			[]string{scheduler.StatusSucceeded, scheduler.StatusPartial}).
		Count(&count).Error
	return count > 0, err
}

func (r *JobRunRepository) List(ctx context.Context, jobType string, limit int) ([]*scheduler.JobRun, error) {
	var models []*jobrunDatamodel.JobRun
	q := database.Conn(ctx, r.db).Order("started_at DESC, id DESC").Limit(limit)
	if jobType != "" {
		q = q.Where("job_type = ?", jobType)
	}
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	return scheduler.FromDataModelSlice(models), nil
}
