package worker

import (
	"context"
	"fmt"

	"github.com/KBNLresearch/frame-generator/tasks"
)

type redisTransactions interface {
	getJobTask(ctx context.Context, jobID string) (*tasks.JobTask, error)
	onTaskStarted(ctx context.Context, task *Task) error
	onTaskCancelled(ctx context.Context, task *Task, errorMessages ...string) error
	onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error
	onTaskFailedWithError(ctx context.Context, task *Task, err error) error
	onTaskComplete(ctx context.Context, task *Task) error
	close()
}

type redisClientWrapper struct {
	tasksClient *tasks.Client
}

func (wrapper *redisClientWrapper) close() {
	wrapper.tasksClient.Close()
}

func (wrapper *redisClientWrapper) getJobTask(ctx context.Context, jobID string) (*tasks.JobTask, error) {
	return wrapper.tasksClient.Jobs.Get(ctx, jobID)
}

func (wrapper *redisClientWrapper) onTaskStarted(ctx context.Context, task *Task) error {
	return wrapper.tasksClient.Jobs.Update(ctx, task.message.JobID, func(jobTask *tasks.JobTask) {
		jobTask.Status = tasks.TaskStatusStarted
		jobTask.Attempts += 1
		jobTask.StartedAt = getFormattedNow()
		jobTask.CompletedAt = nil
	})
}

func (wrapper *redisClientWrapper) onTaskCancelled(ctx context.Context, task *Task, errorMessages ...string) error {
	return wrapper.tasksClient.Jobs.Update(ctx, task.message.JobID, func(jobTask *tasks.JobTask) {
		jobTask.Status = tasks.TaskStatusCanceled
		jobTask.CompletedAt = getFormattedNow()
		jobTask.ErrorMessages = append(jobTask.ErrorMessages, errorMessages...)
	})
}

func (wrapper *redisClientWrapper) onTaskExceededRetries(ctx context.Context, task *Task, maxRetries int) error {
	return wrapper.tasksClient.Jobs.Update(ctx, task.message.JobID, func(jobTask *tasks.JobTask) {
		jobTask.Status = tasks.TaskStatusCompletedFailure
		jobTask.CompletedAt = getFormattedNow()
		jobTask.ErrorMessages = append(
			jobTask.ErrorMessages,
			fmt.Sprintf(
				"Job has exceeded retries. (Attempts: %d, max retries: %d )",
				jobTask.Attempts,
				maxRetries,
			),
		)
	})
}

func (wrapper *redisClientWrapper) onTaskFailedWithError(ctx context.Context, task *Task, err error) error {
	return wrapper.tasksClient.Jobs.Update(ctx, task.message.JobID, func(jobTask *tasks.JobTask) {
		jobTask.Status = tasks.TaskStatusFailed
		jobTask.CompletedAt = getFormattedNow()
		jobTask.ErrorMessages = append(jobTask.ErrorMessages, err.Error())
	})
}

func (wrapper *redisClientWrapper) onTaskComplete(ctx context.Context, task *Task) error {
	return wrapper.tasksClient.Jobs.Update(ctx, task.message.JobID, func(jobTask *tasks.JobTask) {
		if !jobTask.Status.Complete() {
			jobTask.Status = tasks.TaskStatusCompletedSuccess
		}
		jobTask.CompletedAt = getFormattedNow()
		jobTask.OutputPrefix = task.message.OutputPrefix
		if task.result != nil {
			jobTask.Diagnostics = diagnosticMessages(task.result.Diagnostics)
		}
	})
}
