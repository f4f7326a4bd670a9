package blob

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"

	"github.com/tidecast/tidecast/common/gerror"
	"github.com/tidecast/tidecast/common/logger"
)

const (
	AWSS3BlobStoreType BlobStoreType = "AWS_S3"
	LocalBlobStoreType BlobStoreType = "LOCAL"
)

type BlobStoreType string

func (s BlobStoreType) String() string {
	return string(s)
}

func BlobStoreTypes() []string {
	return []string{AWSS3BlobStoreType.String(), LocalBlobStoreType.String()}
}

type S3BlobStoreConfig struct {
	BucketName string
	Region     string
	// Endpoint overrides the S3 endpoint, for S3-compatible stores such as MinIO.
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
}

type S3BlobStore struct {
	s3       *s3.S3
	uploader *s3manager.Uploader
	config   S3BlobStoreConfig
	log      logger.Log
}

func NewS3BlobStore(config S3BlobStoreConfig, logFactory logger.LogFactory) (*S3BlobStore, error) {
	if config.BucketName == "" {
		return nil, fmt.Errorf("error bucket name must be configured")
	}
	log := logFactory("AWSS3BlobStore")
	cfg := &aws.Config{}
	log.Infof("Using bucket: %s", config.BucketName)
	if config.Region != "" {
		log.Infof("Using region: %s", config.Region)
		cfg = cfg.WithRegion(config.Region)
	} else {
		log.Info("Using default region")
	}
	if config.Endpoint != "" {
		log.Infof("Using endpoint: %s", config.Endpoint)
		cfg = cfg.WithEndpoint(config.Endpoint).WithS3ForcePathStyle(true)
	}
	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		log.Infof("Using static credentials: %s", config.AccessKeyID)
		cfg = cfg.WithCredentials(credentials.NewStaticCredentials(config.AccessKeyID, config.SecretAccessKey, ""))
	} else {
		log.Infof("Using default credentials")
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("error creating AWS session: %w", err)
	}
	return &S3BlobStore{
		s3:       s3.New(sess),
		uploader: s3manager.NewUploader(sess),
		config:   config,
		log:      log,
	}, nil
}

// PutBlob writes all data in the source reader to a blob identified by key.
// The caller is responsible for closing the reader.
func (s *S3BlobStore) PutBlob(ctx context.Context, key string, source io.Reader) error {
	err := ValidateKey(key)
	if err != nil {
		return err
	}
	input := &s3manager.UploadInput{
		Body:                 source,
		Bucket:               aws.String(s.config.BucketName),
		ContentType:          aws.String("application/x-ndjson"),
		Key:                  aws.String(key),
		ServerSideEncryption: aws.String("AES256"),
	}
	// Large exports go up as multipart uploads; a failed upload tries to clean up its parts
	// but may leave some behind for the bucket's lifecycle rules to remove.
	out, err := s.uploader.UploadWithContext(ctx, input)
	if err != nil {
		return fmt.Errorf("error putting blob %s: %w", key, err)
	}
	s.log.WithField("bucket", s.config.BucketName).
		WithField("key", key).
		WithField("upload_id", out.UploadID).
		Infof("Uploaded object")
	return nil
}

// GetBlob returns a reader positioned at the beginning of the blob identified by key.
// The caller is responsible for closing the reader.
func (s *S3BlobStore) GetBlob(ctx context.Context, key string) (io.ReadCloser, error) {
	err := ValidateKey(key)
	if err != nil {
		return nil, err
	}
	input := &s3.GetObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(key),
	}
	output, err := s.s3.GetObjectWithContext(ctx, input)
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == s3.ErrCodeNoSuchKey {
			return nil, gerror.NewErrNotFound("Not Found").Wrap(err).IDetail("key", key)
		}
		return nil, fmt.Errorf("error getting blob %s: %w", key, err)
	}
	s.log.WithField("bucket", s.config.BucketName).
		WithField("key", key).
		Infof("Read object")
	return output.Body, nil
}

// DeleteBlob deletes a blob. Returns nil if the blob does not exist.
func (s *S3BlobStore) DeleteBlob(ctx context.Context, key string) error {
	err := ValidateKey(key)
	if err != nil {
		return err
	}
	input := &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(key),
	}
	_, err = s.s3.DeleteObjectWithContext(ctx, input)
	if err != nil {
		return fmt.Errorf("error deleting blob %s: %w", key, err)
	}
	s.log.WithField("bucket", s.config.BucketName).
		WithField("key", key).
		Infof("Deleted object")
	return nil
}
