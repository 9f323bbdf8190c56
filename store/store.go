package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/anyproto/any-sync/app"
	"github.com/anyproto/any-sync/app/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("not found")
)

func New() Store {
	return &store{}
}

const CName = "store"

var log = logger.NewNamed(CName)

// S3 DeleteObjects accepts at most 1000 keys per call
const deleteBatchSize = 1000

type Store interface {
	app.Component

	// Put writes the file under file.Name, replacing any previous content, and returns the object ref
	Put(ctx context.Context, file File) (ref string, err error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, keys ...string) error
	DeletePath(ctx context.Context, path string) error
	// List calls do for every object under prefix
	List(ctx context.Context, prefix string, do func(obj ObjectInfo) error) error
}

type store struct {
	bucket *string
	client *s3.Client
}

func (s *store) Init(a *app.App) (err error) {
	conf := a.MustComponent("config").(configSource).GetS3Store()
	if conf.Bucket == "" {
		return fmt.Errorf("s3 bucket is empty")
	}

	awsConf, err := config.LoadDefaultConfig(context.TODO())
	if err != nil {
		return err
	}

	// If creds are provided in the configuration, they are directly forwarded to the client as static credentials.
	if conf.Credentials.AccessKey != "" && conf.Credentials.SecretKey != "" {
		awsConf.Credentials = credentials.NewStaticCredentialsProvider(conf.Credentials.AccessKey, conf.Credentials.SecretKey, "")
	}
	awsConf.Region = conf.Region
	if conf.GcsCompat {
		awsConf.HTTPClient = &http.Client{Transport: newGcsTransport(http.DefaultTransport, awsConf)}
	}
	s.bucket = aws.String(conf.Bucket)
	s.client = s3.NewFromConfig(awsConf, func(o *s3.Options) {
		o.UsePathStyle = conf.UsePathStyle
		if conf.Endpoint != "" {
			o.BaseEndpoint = aws.String(conf.Endpoint)
			// S3 compatible stores reject the default trailing checksums
			o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		}
	})
	return nil
}

func (s *store) Name() string {
	return CName
}

func (s *store) Put(ctx context.Context, file File) (ref string, err error) {
	input := &s3.PutObjectInput{
		Bucket:        s.bucket,
		Key:           aws.String(file.Name),
		Body:          file.Reader,
		ContentType:   aws.String(file.ContentType()),
		ContentLength: aws.Int64(int64(file.Len())),
	}
	if _, err = s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put %s: %w", file.Name, err)
	}
	return file.Name, nil
}

func (s *store) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: s.bucket,
		Key:    &key,
	}
	output, err := s.client.GetObject(ctx, input)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return output.Body, nil
}

func (s *store) Delete(ctx context.Context, keys ...string) error {
	for len(keys) > 0 {
		batch := keys
		if len(batch) > deleteBatchSize {
			batch = batch[:deleteBatchSize]
		}
		keys = keys[len(batch):]
		objects := make([]types.ObjectIdentifier, len(batch))
		for i := range batch {
			objects[i] = types.ObjectIdentifier{Key: aws.String(batch[i])}
		}
		if err := s.deleteObjects(ctx, objects); err != nil {
			return err
		}
	}
	return nil
}

func (s *store) DeletePath(ctx context.Context, path string) error {
	var keys []string
	err := s.List(ctx, path, func(obj ObjectInfo) error {
		keys = append(keys, obj.Key)
		return nil
	})
	if err != nil {
		return err
	}
	return s.Delete(ctx, keys...)
}

func (s *store) List(ctx context.Context, prefix string, do func(obj ObjectInfo) error) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: s.bucket,
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, c := range page.Contents {
			obj := ObjectInfo{
				Key:  aws.ToString(c.Key),
				Size: aws.ToInt64(c.Size),
			}
			if c.LastModified != nil {
				obj.LastModified = *c.LastModified
			}
			if err = do(obj); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *store) deleteObjects(ctx context.Context, objects []types.ObjectIdentifier) error {
	output, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: s.bucket,
		Delete: &types.Delete{
			Objects: objects,
			Quiet:   aws.Bool(true),
		},
	})
	if err != nil {
		return err
	}
	if len(output.Errors) > 0 {
		for _, e := range output.Errors {
			log.Warn("delete object failed", zap.String("key", aws.ToString(e.Key)), zap.String("code", aws.ToString(e.Code)))
		}
		return fmt.Errorf("failed to delete %d objects", len(output.Errors))
	}
	return nil
}

func isNotFound(err error) bool {
	var notFound *types.NoSuchKey
	if errors.As(err, &notFound) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
