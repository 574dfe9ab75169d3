package s3client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/KBNLresearch/frame-generator/logger"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/sts"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
)

// Client reads and writes objects of one bucket. A failing call refreshes the session and is
// tried once more.
type Client struct {
	mu         sync.Mutex
	sess       *session.Session
	bucketName string
	env        EnvironmentConfig
}

var clientLogger = logger.NewLogger("S3Client")
var sdkLogger = logger.NewLogger("S3-SDK")

func New() (*Client, error) {
	errLogger := clientLogger.With().Caller().Logger()
	env, err := readEnvironment(&errLogger)
	if err != nil {
		clientLogger.Err(err).Msg("Failed to get proper variables from environment")
		return nil, err
	}
	client := &Client{
		bucketName: env.BucketName,
		env:        env,
	}
	if err := client.acquireNewSession(); err != nil {
		return nil, err
	}
	return client, nil
}

func (client *Client) Upload(ctx context.Context, key string, body io.Reader) error {
	params := &s3manager.UploadInput{
		Bucket: aws.String(client.bucketName),
		Key:    aws.String(key),
		Body:   body,
	}
	return client.withSession(func(sess *session.Session) error {
		uploader := s3manager.NewUploader(sess.Copy(&aws.Config{Logger: getLogger(keyLogger(sdkLogger, key, client.bucketName))}))
		fulLogger := keyLogger(clientLogger, key, client.bucketName)
		fulLogger.Debug().Msg("Uploading the file")
		_, err := uploader.UploadWithContext(ctx, params)
		return err
	})
}

func (client *Client) Download(ctx context.Context, key string) ([]byte, error) {
	params := &s3.GetObjectInput{
		Bucket: aws.String(client.bucketName),
		Key:    aws.String(key),
	}
	var data []byte
	err := client.withSession(func(sess *session.Session) error {
		fdlLogger := keyLogger(clientLogger, key, client.bucketName)
		downloader := s3manager.NewDownloader(sess.Copy(&aws.Config{Logger: getLogger(keyLogger(sdkLogger, key, client.bucketName))}))
		buf := aws.NewWriteAtBuffer([]byte{})
		fdlLogger.Debug().Msg("Downloading file")
		size, err := downloader.DownloadWithContext(ctx, buf, params)
		if err != nil {
			fdlLogger.Error().Err(err).Msg("Failed to download file")
			return err
		}
		fdlLogger.Debug().Msgf("Downloaded %v bytes", size)
		data = buf.Bytes()
		return nil
	})
	return data, err
}

// List returns the keys below prefix.
func (client *Client) List(ctx context.Context, prefix string) ([]string, error) {
	params := &s3.ListObjectsV2Input{
		Bucket: aws.String(client.bucketName),
		Prefix: aws.String(prefix),
	}
	var keys []string
	err := client.withSession(func(sess *session.Session) error {
		keys = keys[:0]
		return s3.New(sess).ListObjectsV2PagesWithContext(ctx, params, func(page *s3.ListObjectsV2Output, _ bool) bool {
			for _, object := range page.Contents {
				keys = append(keys, aws.StringValue(object.Key))
			}
			return true
		})
	})
	return keys, err
}

func (client *Client) Close() {
	client.mu.Lock()
	defer client.mu.Unlock()
	clientLogger.Info().Msg("Closing client")
	client.sess = nil
}

func (client *Client) withSession(call func(sess *session.Session) error) error {
	sess, err := client.session()
	if err != nil {
		return err
	}
	err = call(sess)
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}
	clientLogger.Error().Err(err).Msg("Caught error while using S3 session, trying to refresh it")
	if refreshErr := client.acquireNewSession(); refreshErr != nil {
		clientLogger.Error().Err(refreshErr).Msg("Caught error while refreshing S3 session")
		return err
	}
	clientLogger.Info().Msg("Successfully refreshed session")
	sess, err = client.session()
	if err != nil {
		return err
	}
	return call(sess)
}

func (client *Client) session() (*session.Session, error) {
	client.mu.Lock()
	defer client.mu.Unlock()
	if client.sess == nil {
		return nil, errors.New("could not get session")
	}
	return client.sess, nil
}

func (client *Client) createEC2Config() *aws.Config {
	return &aws.Config{
		Region:     aws.String(client.env.Region),
		MaxRetries: aws.Int(4),
		LogLevel:   aws.LogLevel(aws.LogDebug),
	}
}

func (client *Client) createEnvConfig() (*aws.Config, error) {
	creds := credentials.NewStaticCredentials(client.env.AccessKeyID, client.env.AccessKey, "")
	if _, err := creds.Get(); err != nil {
		clientLogger.Error().Err(err).Msg("Error with credentials from environment")
		return nil, err
	}
	cfg := aws.NewConfig().
		WithRegion(client.env.Region).
		WithMaxRetries(4).
		WithCredentials(creds).
		WithLogLevel(aws.LogDebug)
	if len(client.env.AwsEndpoint) > 0 {
		cfg = cfg.WithEndpoint(client.env.AwsEndpoint).
			WithS3ForcePathStyle(true)
	}
	return cfg, nil
}

func (client *Client) acquireNewSession() error {
	client.mu.Lock()
	defer client.mu.Unlock()
	client.sess = nil

	sess, err := session.NewSession(client.createEC2Config())
	if err == nil {
		if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err == nil {
			client.sess = sess
			clientLogger.Info().Msg("S3 session successfully initialized using EC2")
			return nil
		}
	}
	clientLogger.Info().Msg("Could not initialize S3 session using EC2, trying env credentials")
	cfg, err := client.createEnvConfig()
	if err != nil {
		return err
	}
	sess, err = session.NewSession(cfg)
	if err != nil {
		clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
		return err
	}
	if len(client.env.AwsEndpoint) == 0 {
		if _, err = sts.New(sess).GetCallerIdentity(&sts.GetCallerIdentityInput{}); err != nil {
			clientLogger.Error().Err(err).Msg("Could not initialize S3 session")
			return errors.New("could not initialize S3 session")
		}
	}
	client.sess = sess
	clientLogger.Info().Msg("S3 session successfully initialized using env credentials")
	return nil
}

type EnvironmentConfig struct {
	BucketName  string `envconfig:"FRAMES_STORAGE_BUCKET" required:"true"`
	Region      string `envconfig:"FRAMES_AWS_REGION" required:"true"`
	AwsEndpoint string `envconfig:"FRAMES_AWS_ENDPOINT_URL" default:""`
	AccessKeyID string `envconfig:"FRAMES_AWS_ACCESS_ID" default:""`
	AccessKey   string `envconfig:"FRAMES_AWS_ACCESS_KEY" default:""`
}

func readEnvironment(errLogger *zerolog.Logger) (EnvironmentConfig, error) {
	var config EnvironmentConfig
	err := envconfig.Process("", &config)
	if err != nil {
		errLogger.Err(err).Msg("Got error while processing environment")
		return config, err
	}
	return config, nil
}

func keyLogger(base zerolog.Logger, key string, bucket string) zerolog.Logger {
	return base.With().Str("key", key).Str("bucket", bucket).Logger()
}

type s3Logger struct {
	fdlLogger zerolog.Logger
}

func getLogger(fdlLogger zerolog.Logger) *s3Logger {
	return &s3Logger{fdlLogger}
}

func (logger *s3Logger) Log(v ...interface{}) {
	logger.fdlLogger.Debug().Msg(fmt.Sprint(v...))
}
