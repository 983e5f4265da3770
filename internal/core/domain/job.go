package domain

import "time"

// JobStatus is the lifecycle state of an asynchronous launch.
type JobStatus string

const (
	JobQueued  JobStatus = "queued"
	JobRunning JobStatus = "running"
	JobSuccess JobStatus = "success"
	JobError   JobStatus = "error"
)

// IsTerminal reports whether no further transitions can happen.
func (s JobStatus) IsTerminal() bool {
	return s == JobSuccess || s == JobError
}

// JobDetails carries the outcome of a successful launch.
type JobDetails struct {
	ContainerID        string `json:"container_id"`
	ContainerName      string `json:"container_name"`
	HostPort           int    `json:"host_port"`
	PortForwardOK      bool   `json:"port_forward_ok"`
	PortForwardOutcome string `json:"port_forward_outcome"`
}

// Job is one tracked launch attempt.
type Job struct {
	ID        string
	Status    JobStatus
	Message   string
	Details   *JobDetails
	CreatedAt time.Time
	UpdatedAt time.Time
}

// View returns what a poller sees. Queued jobs are reported as running.
func (j *Job) View() JobView {
	v := JobView{
		ID:      j.ID,
		Status:  j.Status,
		Message: j.Message,
		Details: j.Details,
	}
	if !j.Status.IsTerminal() {
		v.Status = JobRunning
		v.Details = nil
	}
	return v
}

// JobView is the poll response for a job.
type JobView struct {
	ID      string      `json:"job_id"`
	Status  JobStatus   `json:"status"`
	Message string      `json:"message"`
	Details *JobDetails `json:"details,omitempty"`
}
