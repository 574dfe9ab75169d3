package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/KBNLresearch/frame-generator/corpus"
	"github.com/KBNLresearch/frame-generator/pipeline"
	"github.com/KBNLresearch/frame-generator/tasks"
	"github.com/KBNLresearch/frame-generator/types"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type failingMethod struct {
	fail bool
}

type withValue struct {
	fail          bool
	returnedValue interface{}
}

type runnerMock struct {
	run      Runner
	config   runnerMockConfig
	calls    runnerCall
	settings types.Settings
}

type runnerMockConfig struct {
	fail bool
}

type runnerCall struct {
	run bool
}

type redisMock struct {
	config redisMockConfig
	calls  redisMockCalls
}

type redisMockConfig struct {
	getJobTask            withValue
	onTaskCancelled       failingMethod
	onTaskStarted         failingMethod
	onTaskExceededRetries failingMethod
	onTaskFailedWithError failingMethod
	onTaskComplete        failingMethod
}

type redisMockCalls struct {
	getJobTask            bool
	onTaskCancelled       bool
	onTaskStarted         bool
	onTaskExceededRetries bool
	onTaskFailedWithError bool
	onTaskComplete        bool
}

type rmqMock struct {
	config    rmqMockConfig
	calls     rmqMockCalls
	published []ResultMessage
}

type rmqMockConfig struct {
	publishResult       failingMethod
	acknowledgeDelivery failingMethod
}

type rmqMockCalls struct {
	publishResult       bool
	acknowledgeDelivery bool
	rejectDelivery      bool
}

type s3Mock struct {
	config s3MockConfig
	calls  s3MockCalls
}

type s3MockConfig struct {
	downloadInputs failingMethod
	saveResults    failingMethod
}

type s3MockCalls struct {
	downloadInputs bool
	saveResults    bool
}

func (mock *s3Mock) close() {}

func (mock *rmqMock) close() {}

func (mock *redisMock) close() {}

func getRunnerMock(config runnerMockConfig) *runnerMock {
	mock := runnerMock{config: config}
	mock.run = func(_ context.Context, settings types.Settings, inputDir string) (*pipeline.Result, error) {
		mock.calls.run = true
		mock.settings = settings
		if mock.config.fail {
			return nil, errors.New("pipeline failed")
		}
		if _, err := os.Stat(filepath.Join(inputDir, corpus.DocsDir, "a.txt")); err != nil {
			return nil, err
		}
		return &pipeline.Result{Settings: settings, Diagnostics: []corpus.Diagnostic{{Source: "a.txt", Message: "a.txt skipped"}}}, nil
	}
	return &mock
}

func (mock *redisMock) getJobTask(_ context.Context, jobID string) (*tasks.JobTask, error) {
	mock.calls.getJobTask = true
	if mock.config.getJobTask.fail {
		return nil, errors.New("failed to get job task")
	}
	switch mock.config.getJobTask.returnedValue.(type) {
	case tasks.JobTask:
		jobTask := mock.config.getJobTask.returnedValue.(tasks.JobTask)
		return &jobTask, nil
	default:
		return &tasks.JobTask{JobID: jobID, Status: tasks.TaskStatusSubmitted}, nil
	}
}

func (mock *redisMock) onTaskStarted(_ context.Context, task *Task) error {
	mock.calls.onTaskStarted = true
	if mock.config.onTaskStarted.fail {
		return errors.New("failed to update job task on start")
	}
	return nil
}

func (mock *redisMock) onTaskCancelled(_ context.Context, task *Task, errorMessages ...string) error {
	mock.calls.onTaskCancelled = true
	if mock.config.onTaskCancelled.fail {
		return errors.New("failed to update job task on cancel")
	}
	return nil
}

func (mock *redisMock) onTaskExceededRetries(_ context.Context, task *Task, maxRetries int) error {
	mock.calls.onTaskExceededRetries = true
	if mock.config.onTaskExceededRetries.fail {
		return errors.New("failed to update job task on exceeded retries")
	}
	return nil
}

func (mock *redisMock) onTaskFailedWithError(_ context.Context, task *Task, err error) error {
	mock.calls.onTaskFailedWithError = true
	if mock.config.onTaskFailedWithError.fail {
		return errors.New("failed to update job task on fail with error")
	}
	return nil
}

func (mock *redisMock) onTaskComplete(_ context.Context, task *Task) error {
	mock.calls.onTaskComplete = true
	if mock.config.onTaskComplete.fail {
		return errors.New("failed to update job task on complete")
	}
	return nil
}

func (mock *rmqMock) rejectDelivery(delivery *amqp.Delivery, fdlLogger *zerolog.Logger) {
	mock.calls.rejectDelivery = true
}

func (mock *rmqMock) getDeliveriesCh() <-chan amqp.Delivery {
	return nil
}

func (mock *rmqMock) getReqChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) getRespChanErrorsCh() <-chan *amqp.Error {
	return nil
}

func (mock *rmqMock) publishResult(task *Task) error {
	mock.calls.publishResult = true
	if mock.config.publishResult.fail {
		return errors.New("failed to publish result")
	}
	mock.published = append(mock.published, resultMessage(task))
	return nil
}

func (mock *rmqMock) acknowledgeDelivery(delivery *amqp.Delivery) error {
	mock.calls.acknowledgeDelivery = true
	if mock.config.acknowledgeDelivery.fail {
		return errors.New("failed to acknowledge delivery")
	}
	return nil
}

func (mock *s3Mock) downloadInputs(_ context.Context, task *Task, inputDir string) error {
	mock.calls.downloadInputs = true
	if mock.config.downloadInputs.fail {
		return errors.New("mock: failed to load from s3")
	}
	return os.WriteFile(filepath.Join(inputDir, corpus.DocsDir, "a.txt"), []byte("De kat zat op de mat."), 0o644)
}

func (mock *s3Mock) saveResults(_ context.Context, task *Task, result *pipeline.Result) error {
	mock.calls.saveResults = true
	if mock.config.saveResults.fail {
		return errors.New("failed to upload results")
	}
	return nil
}
