package scheduler

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	jobrunDatamodel "github.com/frahmantamala/leave-management/internal/core/datamodel/jobrun"
)

const (
	JobTypeMonthlyAccrual     = "MONTHLY_ACCRUAL"
	JobTypeAnnualCarryForward = "ANNUAL_CARRY_FORWARD"
)

const (
	StatusRunning   = "RUNNING"
	StatusSucceeded = "SUCCEEDED"
	StatusPartial   = "PARTIAL"
	StatusFailed    = "FAILED"
)

// JobRun is one execution of a periodic job. RunKey names the period the
// job covered ("2025-01" for accruals, "2024-2025" for carry-forward).
type JobRun struct {
	ID          int64      `json:"id"`
	JobType     string     `json:"job_type"`
	RunKey      string     `json:"run_key"`
	Status      string     `json:"status"`
	Details     Details    `json:"details"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	detailsErr error
}

type Details struct {
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
	Failed    int      `json:"failed"`
	Failures  []string `json:"failures,omitempty"`
	Error     string   `json:"error,omitempty"`
}

func (r *JobRun) Completed() bool {
	return r.Status == StatusSucceeded || r.Status == StatusPartial
}

func ToDataModel(r *JobRun) (*jobrunDatamodel.JobRun, error) {
	details, err := json.Marshal(r.Details)
	if err != nil {
		return nil, err
	}
	return &jobrunDatamodel.JobRun{
		ID:          r.ID,
		JobType:     r.JobType,
		RunKey:      r.RunKey,
		Status:      r.Status,
		Details:     datatypes.JSON(details),
		StartedAt:   r.StartedAt,
		CompletedAt: r.CompletedAt,
	}, nil
}

func FromDataModel(m *jobrunDatamodel.JobRun) *JobRun {
	run := &JobRun{
		ID:          m.ID,
		JobType:     m.JobType,
		RunKey:      m.RunKey,
		Status:      m.Status,
		StartedAt:   m.StartedAt,
		CompletedAt: m.CompletedAt,
	}
	if len(m.Details) > 0 {
		if err := json.Unmarshal(m.Details, &run.Details); err != nil {
			run.detailsErr = fmt.Errorf("decode details of job run %d: %w", m.ID, err)
			run.Details = Details{Error: "unreadable details: " + err.Error()}
		}
	}
	return run
}

func FromDataModelSlice(models []*jobrunDatamodel.JobRun) []*JobRun {
	result := make([]*JobRun, len(models))
	for i, m := range models {
		result[i] = FromDataModel(m)
	}
	return result
}
