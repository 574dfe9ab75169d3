package tasks

import (
	"context"

	"github.com/KBNLresearch/frame-generator/redis"
)

type TaskStatus string

const (
	TaskStatusSubmitted        TaskStatus = "submitted"
	TaskStatusStarted          TaskStatus = "started"
	TaskStatusFailed           TaskStatus = "failed"
	TaskStatusCompletedSuccess TaskStatus = "completed - success"
	TaskStatusCompletedFailure TaskStatus = "completed - failure"
	TaskStatusCanceled         TaskStatus = "canceled"
)

func (s TaskStatus) Complete() bool {
	return s == TaskStatusCompletedSuccess || s == TaskStatusCompletedFailure || s == TaskStatusCanceled
}

// JobTask is the state of one generation job, stored as JSON under the job id.
type JobTask struct {
	JobID         string     `json:"job_id"`
	Status        TaskStatus `json:"status"`
	Attempts      int        `json:"attempts"`
	StartedAt     *string    `json:"started_at"`
	CompletedAt   *string    `json:"completed_at"`
	UserCanceled  bool       `json:"user_canceled"`
	OutputPrefix  string     `json:"output_prefix"`
	Diagnostics   []string   `json:"diagnostics"`
	ErrorMessages []string   `json:"error_messages"`
}

type JobTasks struct {
	client *redis.Client
}

func NewJobTasks(client *redis.Client) JobTasks {
	return JobTasks{client: client}
}

func (tasks JobTasks) Get(ctx context.Context, jobID string) (*JobTask, error) {
	var task JobTask
	if err := tasks.client.GetDocument(ctx, jobID, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (tasks JobTasks) Update(ctx context.Context, jobID string, updateFunc func(task *JobTask)) error {
	var task JobTask
	return tasks.client.UpdateDocument(ctx, jobID, &task, func() error {
		updateFunc(&task)
		return nil
	})
}
