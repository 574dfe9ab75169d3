package tasks

import (
	"github.com/KBNLresearch/frame-generator/redis"
)

type Client struct {
	Jobs JobTasks
}

// NewClient is a preferred way for working with job tasks
func NewClient() (Client, error) {
	jobsRedisClient, err := redis.NewClient(redis.JobsDB)
	if err != nil {
		return Client{}, err
	}
	return Client{
		Jobs: JobTasks{client: jobsRedisClient},
	}, nil
}

func (client *Client) Close() {
	_ = client.Jobs.client.Close()
}
