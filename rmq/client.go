package rmq

import (
	"fmt"

	"github.com/KBNLresearch/frame-generator/logger"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/streadway/amqp"
)

type Config struct {
	Host                string `envconfig:"FRAMES_RMQ_HOST" required:"true"`
	Port                string `envconfig:"FRAMES_RMQ_PORT" default:"5672"`
	Username            string `envconfig:"FRAMES_RMQ_USERNAME" required:"true"`
	Password            string `envconfig:"FRAMES_RMQ_PASSWORD" required:"true"`
	Exchange            string `envconfig:"FRAMES_RMQ_EXCHANGE" default:"frames-exchange"`
	MaxParallelJobCount int    `envconfig:"FRAMES_RMQ_MAX_PARALLEL_JOBS" default:"1"`
	JobQueue            string `envconfig:"FRAMES_RMQ_JOB_QUEUE" default:"frames-jobs"`
	ResultsQueue        string `envconfig:"FRAMES_RMQ_RESULTS_QUEUE" default:"frames-results"`
}

// Client consumes generation jobs on one connection and publishes completion messages on another.
type Client struct {
	Deliveries     <-chan amqp.Delivery
	ReqChanErrors  <-chan *amqp.Error
	RespChanErrors <-chan *amqp.Error
	config         Config
	reqConn        *amqp.Connection
	respConn       *amqp.Connection
	respChannel    *amqp.Channel
	fdlLogger      zerolog.Logger
}

func NewClient() (*Client, error) {
	fdlLogger := logger.NewLogger("RMQ client")
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		fdlLogger.Error().Err(err).Msg("Could not read env config")
		return nil, err
	}

	url := getURL(config)
	respConn, respChannel, err := setup(url)
	if err != nil {
		return nil, fmt.Errorf("failed connection: %w", err)
	}
	reqConn, reqChannel, err := setup(url)
	if err != nil {
		_ = respConn.Close()
		return nil, fmt.Errorf("failed connection: %w", err)
	}

	client := &Client{
		config:      config,
		reqConn:     reqConn,
		respConn:    respConn,
		respChannel: respChannel,
		fdlLogger:   fdlLogger,
	}
	if err := client.declare(reqChannel, respChannel); err != nil {
		client.Close()
		return nil, err
	}

	deliveries, err := reqChannel.Consume(
		config.JobQueue,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("consume deliveries: %w", err)
	}
	client.Deliveries = deliveries
	client.ReqChanErrors = reqChannel.NotifyClose(make(chan *amqp.Error))
	client.RespChanErrors = respChannel.NotifyClose(make(chan *amqp.Error))
	fdlLogger.Info().Str("queue", config.JobQueue).Msg("Consuming jobs")
	return client, nil
}

func (c *Client) declare(reqChannel *amqp.Channel, respChannel *amqp.Channel) error {
	if err := reqChannel.ExchangeDeclare(c.config.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}
	for _, queue := range []struct {
		channel *amqp.Channel
		name    string
	}{{reqChannel, c.config.JobQueue}, {respChannel, c.config.ResultsQueue}} {
		if _, err := queue.channel.QueueDeclare(
			queue.name,
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,
		); err != nil {
			return fmt.Errorf("declare queue %s: %w", queue.name, err)
		}
		if err := queue.channel.QueueBind(queue.name, queue.name, c.config.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s: %w", queue.name, err)
		}
	}
	if err := reqChannel.Qos(c.config.MaxParallelJobCount, 0, false); err != nil {
		return fmt.Errorf("qos: %w", err)
	}
	return nil
}

// PublishResult sends a job completion message to the results queue.
func (c *Client) PublishResult(msg amqp.Publishing) error {
	return c.respChannel.Publish(
		c.config.Exchange,
		c.config.ResultsQueue,
		false,
		false,
		msg)
}

func (c *Client) Close() {
	_ = c.reqConn.Close()
	_ = c.respConn.Close()
}

func getURL(config Config) string {
	return fmt.Sprintf("amqp://%s:%s@%s:%s", config.Username, config.Password, config.Host, config.Port)
}

func setup(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}
