package worker

import (
	"encoding/json"

	"github.com/KBNLresearch/frame-generator/rmq"
	"github.com/KBNLresearch/frame-generator/tasks"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

const sender = "frame-generator"

// ResultMessage announces a finished job on the results queue.
type ResultMessage struct {
	JobID        string           `json:"job_id"`
	Status       tasks.TaskStatus `json:"status,omitempty"`
	OutputPrefix string           `json:"output_prefix"`
	Sender       string           `json:"sender"`
}

type rmqTransactions interface {
	publishResult(task *Task) error
	acknowledgeDelivery(delivery *amqp.Delivery) error
	rejectDelivery(delivery *amqp.Delivery, fdlLogger *zerolog.Logger)
	getDeliveriesCh() <-chan amqp.Delivery
	getReqChanErrorsCh() <-chan *amqp.Error
	getRespChanErrorsCh() <-chan *amqp.Error
	close()
}

type rmqClientWrapper struct {
	rmqClient *rmq.Client
}

func (wrapper *rmqClientWrapper) close() {
	wrapper.rmqClient.Close()
}

func (wrapper *rmqClientWrapper) getDeliveriesCh() <-chan amqp.Delivery {
	return wrapper.rmqClient.Deliveries
}

func (wrapper *rmqClientWrapper) getReqChanErrorsCh() <-chan *amqp.Error {
	return wrapper.rmqClient.ReqChanErrors
}

func (wrapper *rmqClientWrapper) getRespChanErrorsCh() <-chan *amqp.Error {
	return wrapper.rmqClient.RespChanErrors
}

func (wrapper *rmqClientWrapper) publishResult(task *Task) error {
	b, err := json.Marshal(resultMessage(task))
	if err != nil {
		return err
	}
	return wrapper.rmqClient.PublishResult(
		amqp.Publishing{
			ContentType: "application/json",
			Body:        b,
		},
	)
}

func resultMessage(task *Task) ResultMessage {
	return ResultMessage{
		JobID:        task.message.JobID,
		Status:       task.status,
		OutputPrefix: task.message.OutputPrefix,
		Sender:       sender,
	}
}

func (wrapper *rmqClientWrapper) acknowledgeDelivery(delivery *amqp.Delivery) error {
	return delivery.Ack(false)
}

func (wrapper *rmqClientWrapper) rejectDelivery(delivery *amqp.Delivery, fdlLogger *zerolog.Logger) {
	if delivery.Redelivered {
		fdlLogger.Info().Msg("Rejecting delivery as it already has been redelivered")
		err := delivery.Reject(false)
		if err != nil {
			fdlLogger.Err(err).Msg("Failed to reject delivery")
		}
		return
	}
	fdlLogger.Info().Msg("Requeuing delivery as it has not been redelivered yet")
	err := delivery.Reject(true)
	if err != nil {
		fdlLogger.Err(err).Msg("Failed to requeue delivery")
	}
}
