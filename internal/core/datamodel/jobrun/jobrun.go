package jobrun

import (
	"time"

	"gorm.io/datatypes"
)

type JobRun struct {
	ID          int64          `gorm:"primaryKey"`
	JobType     string         `gorm:"column:job_type;not null;index:idx_job_runs_type_key"`
	RunKey      string         `gorm:"column:run_key;not null;index:idx_job_runs_type_key"`
	Status      string         `gorm:"column:status;not null"`
	Details     datatypes.JSON `gorm:"column:details"`
	StartedAt   time.Time      `gorm:"column:started_at;not null"`
	CompletedAt *time.Time     `gorm:"column:completed_at"`
}

func (JobRun) TableName() string {
	return "job_runs"
}
