package domain

import "time"

// JobStatus enumerates assessment job milestones.
type JobStatus string

const (
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
)

// Job tracks one asynchronous assessment run.
type Job struct {
	ID        string            `json:"jobId"`
	Status    JobStatus         `json:"status"`
	Progress  int               `json:"progress"`
	Message   string            `json:"message"`
	StartTime time.Time         `json:"startTime"`
	EndTime   *time.Time        `json:"endTime,omitempty"`
	Result    *AssessmentResult `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// Terminal reports whether the job reached completed or failed.
func (j Job) Terminal() bool {
	return j.Status == JobCompleted || j.Status == JobFailed
}
