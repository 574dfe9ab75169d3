package worker

import (
	"context"
	"os"
	"reflect"
	"testing"

	"github.com/KBNLresearch/frame-generator/logger"
	"github.com/KBNLresearch/frame-generator/tasks"
	"github.com/KBNLresearch/frame-generator/types"
	"github.com/streadway/amqp"
	"github.com/stretchr/testify/require"
)

const jobBody = `{"job_id": "job-1", "input_prefix": "jobs/job-1/input", "output_prefix": "jobs/job-1/output"}`

type mockedClientsConfig struct {
	rmqMockConfig
	redisMockConfig
	s3MockConfig
	runnerMockConfig
}

type mockedClients struct {
	redis  *redisMock
	rmq    *rmqMock
	s3     *s3Mock
	runner *runnerMock
}

type methodsCalls struct {
	redis  redisMockCalls
	rmq    rmqMockCalls
	s3     s3MockCalls
	runner runnerCall
}

func testConfiguration(t *testing.T, config mockedClientsConfig, expectedCalls methodsCalls) *mockedClients {
	return testConfigurationWithBody(t, jobBody, config, expectedCalls)
}

func testConfigurationWithBody(t *testing.T, body string, config mockedClientsConfig, expectedCalls methodsCalls) *mockedClients {
	worker, mocks := configureWorker(t, config)
	worker.processMessage(context.Background(), &amqp.Delivery{
		Body: []byte(body),
	})
	calls := methodsCalls{
		redis:  mocks.redis.calls,
		rmq:    mocks.rmq.calls,
		s3:     mocks.s3.calls,
		runner: mocks.runner.calls,
	}
	if !reflect.DeepEqual(calls, expectedCalls) {
		t.Errorf("Got unexpected called methods set.\nExpected:\n%+v\nGot:\n%+v", expectedCalls, calls)
	}
	entries, err := os.ReadDir(worker.config.TempDir)
	require.NoError(t, err)
	require.Empty(t, entries, "staged inputs must be removed")
	return mocks
}

func configureWorker(t *testing.T, config mockedClientsConfig) (*Worker, *mockedClients) {
	redis := &redisMock{config: config.redisMockConfig}
	s3 := &s3Mock{config: config.s3MockConfig}
	rmq := &rmqMock{config: config.rmqMockConfig}
	runner := getRunnerMock(config.runnerMockConfig)

	fdlLogger := logger.NewLogger("Test Worker")

	return &Worker{
			config:    Config{JobMaxRetries: 3, TempDir: t.TempDir()},
			redis:     redis,
			s3:        s3,
			rmq:       rmq,
			fdlLogger: &fdlLogger,
			run:       runner.run,
		}, &mockedClients{
			redis:  redis,
			rmq:    rmq,
			s3:     s3,
			runner: runner,
		}
}

var successfulCalls = methodsCalls{
	redis:  redisMockCalls{getJobTask: true, onTaskStarted: true, onTaskComplete: true},
	rmq:    rmqMockCalls{publishResult: true, acknowledgeDelivery: true},
	s3:     s3MockCalls{downloadInputs: true, saveResults: true},
	runner: runnerCall{true},
}

func TestWorker(t *testing.T) {
	t.Run("Successful", testSuccessfulTask)
	t.Run("Settings patch", testSettingsPatch)
	t.Run("Invalid message", testInvalidMessage)
	t.Run("Message without job id", testMessageWithoutJobID)
	t.Run("Failed to get Job task", testGetJobTaskFailed)
	t.Run("Already complete with success", testAlreadyCompletedSuccessfully)
	t.Run("Already complete with failure", testAlreadyCompletedWithFailure)
	t.Run("User cancelled", testUserCancelled)
	t.Run("Failed to update task in onTaskCancelled", testFailedToUpdateOnTaskCancelled)
	t.Run("Exceeded attempts", testExceededAttempts)
	t.Run("Failed to update task in onTaskStarted", testFailedToUpdateOnTaskStarted)
	t.Run("Invalid settings patch", testInvalidSettingsPatch)
	t.Run("Failed to load inputs from S3", testFailedToFetchFromS3)
	t.Run("Failed due to pipeline error", testPipelineError)
	t.Run("Failed to update task in onTaskFailedWithError", testFailedToUpdateOnTaskFailedWithError)
	t.Run("Failed to update task in onTaskComplete", testFailedToUpdateOnTaskComplete)
	t.Run("Failed to save results to S3", testFailedToSaveToS3)
	t.Run("Failed to acknowledge delivery", testFailedAckDelivery)
	t.Run("Failed to publish result", testFailedPublishResult)
}

func testSuccessfulTask(t *testing.T) {
	mocks := testConfiguration(t, mockedClientsConfig{}, successfulCalls)
	require.Equal(t, []ResultMessage{{
		JobID:        "job-1",
		Status:       tasks.TaskStatusCompletedSuccess,
		OutputPrefix: "jobs/job-1/output",
		Sender:       sender,
	}}, mocks.rmq.published)
	require.Equal(t, types.DefaultSettings(), mocks.runner.settings)
}

func testSettingsPatch(t *testing.T) {
	body := `{"job_id": "job-1", "settings": {"gtype": "keywords", "kmodel": "tf-idf", "ktags": ["N"]}}`
	mocks := testConfigurationWithBody(t, body, mockedClientsConfig{}, successfulCalls)
	settings := mocks.runner.settings
	require.Equal(t, types.GenerateKeywords, settings.GenerationType)
	require.Equal(t, types.KeywordModelTfIdf, settings.KeywordModel)
	require.Equal(t, []string{"N"}, settings.KeywordTags)
	require.Equal(t, 5, settings.WindowSize)
	require.True(t, settings.PosTag)
}

func testInvalidMessage(t *testing.T) {
	testConfigurationWithBody(
		t,
		"not json",
		mockedClientsConfig{},
		methodsCalls{
			rmq: rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testMessageWithoutJobID(t *testing.T) {
	testConfigurationWithBody(
		t,
		"{}",
		mockedClientsConfig{},
		methodsCalls{
			rmq: rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testGetJobTaskFailed(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{getJobTask: withValue{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{getJobTask: true},
			rmq:   rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testAlreadyCompletedSuccessfully(t *testing.T) {
	mocks := testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{returnedValue: tasks.JobTask{Status: tasks.TaskStatusCompletedSuccess}},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getJobTask: true},
			rmq:   rmqMockCalls{publishResult: true, acknowledgeDelivery: true},
		},
	)
	require.Equal(t, tasks.TaskStatusCompletedSuccess, mocks.rmq.published[0].Status)
}

func testAlreadyCompletedWithFailure(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{returnedValue: tasks.JobTask{Status: tasks.TaskStatusCompletedFailure}},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getJobTask: true},
			rmq:   rmqMockCalls{publishResult: true, acknowledgeDelivery: true},
		},
	)
}

func testUserCancelled(t *testing.T) {
	mocks := testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{returnedValue: tasks.JobTask{UserCanceled: true}},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getJobTask: true, onTaskCancelled: true},
			rmq:   rmqMockCalls{publishResult: true, acknowledgeDelivery: true},
		},
	)
	require.Equal(t, tasks.TaskStatusCanceled, mocks.rmq.published[0].Status)
}

func testFailedToUpdateOnTaskCancelled(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask:      withValue{returnedValue: tasks.JobTask{UserCanceled: true}},
				onTaskCancelled: failingMethod{fail: true},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getJobTask: true, onTaskCancelled: true},
			rmq:   rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testExceededAttempts(t *testing.T) {
	mocks := testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{
				getJobTask: withValue{returnedValue: tasks.JobTask{Status: tasks.TaskStatusFailed, Attempts: 3}},
			},
		},
		methodsCalls{
			redis: redisMockCalls{getJobTask: true, onTaskExceededRetries: true},
			rmq:   rmqMockCalls{publishResult: true, acknowledgeDelivery: true},
		},
	)
	require.Equal(t, tasks.TaskStatusCompletedFailure, mocks.rmq.published[0].Status)
}

func testFailedToUpdateOnTaskStarted(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{onTaskStarted: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{getJobTask: true, onTaskStarted: true},
			rmq:   rmqMockCalls{rejectDelivery: true},
		},
	)
}

func testInvalidSettingsPatch(t *testing.T) {
	body := `{"job_id": "job-1", "settings": {"gtype": "poems"}}`
	mocks := testConfigurationWithBody(
		t,
		body,
		mockedClientsConfig{},
		methodsCalls{
			redis: redisMockCalls{getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true},
			rmq:   rmqMockCalls{publishResult: true, acknowledgeDelivery: true},
		},
	)
	require.Equal(t, tasks.TaskStatusFailed, mocks.rmq.published[0].Status)
}

func testFailedToFetchFromS3(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			s3MockConfig: s3MockConfig{downloadInputs: failingMethod{fail: true}},
		},
		methodsCalls{
			redis: redisMockCalls{getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true},
			rmq:   rmqMockCalls{publishResult: true, acknowledgeDelivery: true},
			s3:    s3MockCalls{downloadInputs: true},
		},
	)
}

func testPipelineError(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			runnerMockConfig: runnerMockConfig{fail: true},
		},
		methodsCalls{
			redis:  redisMockCalls{getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true},
			rmq:    rmqMockCalls{publishResult: true, acknowledgeDelivery: true},
			s3:     s3MockCalls{downloadInputs: true},
			runner: runnerCall{true},
		},
	)
}

func testFailedToUpdateOnTaskFailedWithError(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			runnerMockConfig: runnerMockConfig{fail: true},
			redisMockConfig:  redisMockConfig{onTaskFailedWithError: failingMethod{fail: true}},
		},
		methodsCalls{
			redis:  redisMockCalls{getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true},
			rmq:    rmqMockCalls{rejectDelivery: true},
			s3:     s3MockCalls{downloadInputs: true},
			runner: runnerCall{true},
		},
	)
}

func testFailedToUpdateOnTaskComplete(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			redisMockConfig: redisMockConfig{onTaskComplete: failingMethod{fail: true}},
		},
		methodsCalls{
			redis:  redisMockCalls{getJobTask: true, onTaskStarted: true, onTaskComplete: true},
			rmq:    rmqMockCalls{rejectDelivery: true},
			s3:     s3MockCalls{downloadInputs: true, saveResults: true},
			runner: runnerCall{true},
		},
	)
}

func testFailedToSaveToS3(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			s3MockConfig: s3MockConfig{saveResults: failingMethod{fail: true}},
		},
		methodsCalls{
			redis:  redisMockCalls{getJobTask: true, onTaskStarted: true, onTaskFailedWithError: true},
			rmq:    rmqMockCalls{publishResult: true, acknowledgeDelivery: true},
			s3:     s3MockCalls{downloadInputs: true, saveResults: true},
			runner: runnerCall{true},
		},
	)
}

func testFailedAckDelivery(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			rmqMockConfig: rmqMockConfig{acknowledgeDelivery: failingMethod{fail: true}},
		},
		successfulCalls,
	)
}

func testFailedPublishResult(t *testing.T) {
	testConfiguration(
		t,
		mockedClientsConfig{
			rmqMockConfig: rmqMockConfig{publishResult: failingMethod{fail: true}},
		},
		methodsCalls{
			redis:  redisMockCalls{getJobTask: true, onTaskStarted: true, onTaskComplete: true},
			rmq:    rmqMockCalls{publishResult: true, rejectDelivery: true},
			s3:     s3MockCalls{downloadInputs: true, saveResults: true},
			runner: runnerCall{true},
		},
	)
}

func TestJobSettings(t *testing.T) {
	settings, err := jobSettings(nil)
	require.NoError(t, err)
	require.Equal(t, types.DefaultSettings(), settings)

	settings, err = jobSettings([]byte(`{"pos": false, "kmodel": "tf-idf", "wdir": "left", "tcount": null}`))
	require.NoError(t, err)
	require.False(t, settings.PosTag)
	require.Equal(t, types.WindowLeft, settings.WindowDirection)
	require.Equal(t, 0, settings.TopicCount)
	require.Equal(t, 10, settings.KeywordCount)

	_, err = jobSettings([]byte(`{"wsize": "wide"}`))
	require.ErrorIs(t, err, types.ErrInvalidConfig)
}

func TestInputPath(t *testing.T) {
	for _, tc := range []struct {
		key      string
		expected string
		ok       bool
	}{
		{"jobs/1/input/docs/a.txt", "docs/a.txt", true},
		{"jobs/1/input/stop/nl.txt", "stop/nl.txt", true},
		{"jobs/1/input/regex/rules.tsv", "regex/rules.tsv", true},
		{"jobs/1/input/other/a.txt", "", false},
		{"jobs/1/input/docs/", "", false},
		{"jobs/1/input/docs/nested/a.txt", "", false},
		{"jobs/2/input/docs/a.txt", "", false},
	} {
		rel, ok := inputPath("jobs/1/input/", tc.key)
		require.Equal(t, tc.ok, ok, tc.key)
		require.Equal(t, tc.expected, rel, tc.key)
	}
}
