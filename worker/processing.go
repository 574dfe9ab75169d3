package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/KBNLresearch/frame-generator/corpus"
	"github.com/KBNLresearch/frame-generator/pipeline"
	"github.com/KBNLresearch/frame-generator/tasks"
	"github.com/KBNLresearch/frame-generator/types"
	"github.com/KBNLresearch/frame-generator/utils"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

// Message is a generation job as received from the job queue. Settings is a JSON merge patch
// over the default settings.
type Message struct {
	JobID        string          `json:"job_id"`
	InputPrefix  string          `json:"input_prefix"`
	OutputPrefix string          `json:"output_prefix"`
	Settings     json.RawMessage `json:"settings,omitempty"`
}

type Task struct {
	delivery  *amqp.Delivery
	jobTask   *tasks.JobTask
	message   *Message
	settings  types.Settings
	result    *pipeline.Result
	status    tasks.TaskStatus
	fdlLogger *zerolog.Logger
}

func (worker *Worker) processMessage(ctx context.Context, delivery *amqp.Delivery) {
	task, err := worker.createTask(ctx, delivery)
	rejectLogger := worker.fdlLogger.With().Str("message_id", delivery.MessageId).Logger()
	if err != nil {
		worker.fdlLogger.Err(err).
			Str("message_id", delivery.MessageId).
			Str("body", string(delivery.Body)).
			Msg("Failed to create task for delivery")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.processTask(ctx, task); err != nil {
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.publishResult(task); err != nil {
		task.fdlLogger.Err(err).Msg("Got error while sending message to results queue")
		worker.rmq.rejectDelivery(delivery, &rejectLogger)
		return
	}
	if err = worker.rmq.acknowledgeDelivery(delivery); err != nil {
		task.fdlLogger.Err(err).Msg("Failed to acknowledge delivery")
	}
	task.fdlLogger.Info().Msg("Finished processing RMQ message")
}

func (worker *Worker) createTask(ctx context.Context, delivery *amqp.Delivery) (*Task, error) {
	var message Message
	if err := json.Unmarshal(delivery.Body, &message); err != nil {
		return nil, fmt.Errorf("failed to unmarshal message, got error %w", err)
	}
	if message.JobID == "" {
		return nil, errors.New("message has no job id")
	}
	jobTask, err := worker.redis.getJobTask(ctx, message.JobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query job task for message, got error %w", err)
	}
	taskLogger := worker.fdlLogger.With().Str("job_id", message.JobID).Logger()
	task := Task{
		delivery:  delivery,
		jobTask:   jobTask,
		message:   &message,
		status:    jobTask.Status,
		fdlLogger: &taskLogger,
	}
	return &task, nil
}

func (worker *Worker) processTask(ctx context.Context, task *Task) error {
	shouldPerform, err := worker.shouldPerformTask(ctx, task)
	if err != nil {
		task.fdlLogger.Err(err).
			Msg("Got error while trying to decide whether to run task")
		return err
	}
	if !shouldPerform {
		return nil
	}
	if err = worker.redis.onTaskStarted(ctx, task); err != nil {
		task.fdlLogger.Err(err).Msg("Failed to update task info")
		return fmt.Errorf("failed to update JobTask: %w", err)
	}
	if err = worker.runPipeline(ctx, task); err != nil {
		task.fdlLogger.Err(err).Msg("Got error while running pipeline")
		if err = worker.redis.onTaskFailedWithError(ctx, task, err); err != nil {
			return err
		}
		task.status = tasks.TaskStatusFailed
		return nil
	}
	task.fdlLogger.Info().Msg("Saved results, marking task as complete")
	if err = worker.redis.onTaskComplete(ctx, task); err != nil {
		task.fdlLogger.Err(err).Msg("Got error while trying to mark task as complete")
		return err
	}
	task.status = tasks.TaskStatusCompletedSuccess
	return nil
}

func (worker *Worker) runPipeline(ctx context.Context, task *Task) (err error) {
	defer utils.RecoverWithError(&err)
	task.fdlLogger.Info().Msgf("Processing message from RMQ, attempt # %d", task.jobTask.Attempts+1)
	if task.settings, err = jobSettings(task.message.Settings); err != nil {
		return err
	}

	inputDir, err := os.MkdirTemp(worker.config.TempDir, "job-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(inputDir)
	for _, dir := range []string{corpus.RegexDir, corpus.DocsDir, corpus.StopDir} {
		if err = os.Mkdir(filepath.Join(inputDir, dir), 0o755); err != nil {
			return err
		}
	}

	if err = worker.s3.downloadInputs(ctx, task, inputDir); err != nil {
		task.fdlLogger.Err(err).Caller().Msg("Could not fetch input files from s3")
		return fmt.Errorf("failed fetch inputs from s3: %w", err)
	}
	result, err := worker.run(ctx, task.settings, inputDir)
	if err != nil {
		return err
	}
	task.result = result
	task.fdlLogger.Info().Int("diagnostics", len(result.Diagnostics)).Msg("Finished pipeline, saving results to s3")
	if err = worker.s3.saveResults(ctx, task, result); err != nil {
		task.fdlLogger.Err(err).Msg("Got error while trying to save results")
		return err
	}
	return nil
}

func (worker *Worker) shouldPerformTask(ctx context.Context, task *Task) (bool, error) {
	jobTask := task.jobTask
	taskLogger := task.fdlLogger

	if jobTask.Status.Complete() {
		taskLogger.Info().Msg("Job is already done. (might indicate issue acking message with RMQ). Sending result again.")
		return false, nil
	}
	if jobTask.UserCanceled {
		taskLogger.Info().Msg("Job was canceled, no need to perform it.")
		task.status = tasks.TaskStatusCanceled
		err := worker.redis.onTaskCancelled(ctx, task)
		return false, err
	}
	if jobTask.Attempts >= worker.config.JobMaxRetries {
		taskLogger.Info().Msg("Job has exceeded retries.")
		task.status = tasks.TaskStatusCompletedFailure
		err := worker.redis.onTaskExceededRetries(ctx, task, worker.config.JobMaxRetries)
		return false, err
	}
	return true, nil
}
