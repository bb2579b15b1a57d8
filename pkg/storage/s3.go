// Copyright 2025 Alexander Alten (novatechflow), NovaTechflow (novatechflow.com).
// This project is supported and financed by Scalytics, Inc. (www.scalytics.io).
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/novatechflow/hwpscale/internal/metrics"
	"github.com/novatechflow/hwpscale/pkg/cache"
)

// S3Config describes connection details for AWS S3 or compatible endpoints.
type S3Config struct {
	Bucket string
	// Prefix is the key prefix of one unpacked document, e.g. "docs/report/".
	Prefix          string
	Region          string
	Endpoint        string
	ForcePathStyle  bool
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	KMSKeyARN       string
}

type awsS3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Container serves the streams of one document stored as objects under a
// common prefix. Downloaded streams are kept in an optional LRU cache.
type S3Container struct {
	bucket string
	region string
	prefix string
	kmsKey string
	api    awsS3API
	cache  *cache.StreamCache
	health *Health
}

// NewS3Container returns an AWS-backed container.
func NewS3Container(ctx context.Context, cfg S3Config, streams *cache.StreamCache) (*S3Container, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket required")
	}
	if cfg.Region == "" {
		return nil, errors.New("s3 region required")
	}

	loadOpts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken)))
	}
	if cfg.Endpoint != "" {
		customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
			if service == s3.ServiceID {
				return aws.Endpoint{
					URL:           cfg.Endpoint,
					PartitionID:   "aws",
					SigningRegion: cfg.Region,
				}, nil
			}
			return aws.Endpoint{}, &aws.EndpointNotFoundError{}
		})
		loadOpts = append(loadOpts, config.WithEndpointResolverWithOptions(customResolver))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.ForcePathStyle
	})

	return newS3ContainerWithAPI(cfg, client, streams), nil
}

func newS3ContainerWithAPI(cfg S3Config, api awsS3API, streams *cache.StreamCache) *S3Container {
	prefix := cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &S3Container{
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: prefix,
		kmsKey: cfg.KMSKeyARN,
		api:    api,
		cache:  streams,
		health: NewHealth(HealthConfig{}),
	}
}

// Health reports how the bucket has been answering recent requests.
func (c *S3Container) Health() *Health { return c.health }

func (c *S3Container) source() string { return c.bucket + "/" + c.prefix }

func (c *S3Container) key(name string) string { return c.prefix + name }

// EnsureBucket creates the bucket when it does not exist yet.
func (c *S3Container) EnsureBucket(ctx context.Context) error {
	if err := c.headBucket(ctx); err == nil {
		return nil
	} else if !errors.Is(err, errBucketMissing) {
		return err
	}

	input := &s3.CreateBucketInput{
		Bucket: aws.String(c.bucket),
	}
	if cfg := c.bucketLocationConfig(); cfg != nil {
		input.CreateBucketConfiguration = cfg
	}
	_, err := c.api.CreateBucket(ctx, input)
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "BucketAlreadyOwnedByYou", "BucketAlreadyExists":
				return nil
			}
		}
		c.observeError("create_bucket")
		return fmt.Errorf("create bucket %s: %w", c.bucket, err)
	}
	return nil
}

var errBucketMissing = errors.New("bucket missing")

func (c *S3Container) headBucket(ctx context.Context) error {
	start := time.Now()
	_, err := c.api.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	c.observe("head_bucket", start, missing(err))
	if err == nil {
		return nil
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		if apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchBucket" {
			return errBucketMissing
		}
	}
	c.observeError("head_bucket")
	return fmt.Errorf("head bucket %s: %w", c.bucket, err)
}

func (c *S3Container) bucketLocationConfig() *types.CreateBucketConfiguration {
	if c.region == "" || c.region == "us-east-1" {
		return nil
	}
	constraint := types.BucketLocationConstraint(c.region)
	return &types.CreateBucketConfiguration{LocationConstraint: constraint}
}

// Put uploads one stream.
func (c *S3Container) Put(ctx context.Context, name string, body []byte) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(c.key(name)),
		Body:   bytes.NewReader(body),
	}
	if c.kmsKey != "" {
		input.ServerSideEncryption = types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(c.kmsKey)
	}
	start := time.Now()
	_, err := c.api.PutObject(ctx, input)
	c.observe("put_object", start, err)
	if err != nil {
		c.observeError("put_object")
		return fmt.Errorf("put object %s: %w", c.key(name), err)
	}
	return nil
}

func (c *S3Container) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if c.cache != nil {
		if data, ok := c.cache.Get(c.source(), name); ok {
			return io.NopCloser(bytes.NewReader(data)), nil
		}
	}
	key := c.key(name)
	start := time.Now()
	resp, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	c.observe("get_object", start, missing(err))
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			switch apiErr.ErrorCode() {
			case "NoSuchKey", "NotFound":
				return nil, fmt.Errorf("stream %s: %w", name, ErrNotFound)
			}
		}
		c.observeError("get_object")
		return nil, fmt.Errorf("get object %s: %w", key, err)
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		c.observeError("get_object")
		return nil, fmt.Errorf("read body %s: %w", key, err)
	}
	if c.cache != nil {
		c.cache.Set(c.source(), name, data)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (c *S3Container) List(ctx context.Context) ([]string, error) {
	paginator := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(c.prefix),
	})
	out := make([]string, 0)
	for paginator.HasMorePages() {
		start := time.Now()
		page, err := paginator.NextPage(ctx)
		c.observe("list_objects", start, err)
		if err != nil {
			c.observeError("list_objects")
			return nil, fmt.Errorf("list objects %s: %w", c.prefix, err)
		}
		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			name := strings.TrimPrefix(*obj.Key, c.prefix)
			if name == "" || strings.HasSuffix(name, "/") {
				continue
			}
			out = append(out, name)
		}
	}
	return out, nil
}

func (c *S3Container) observe(op string, start time.Time, err error) {
	elapsed := time.Since(start)
	metrics.S3Requests.WithLabelValues(op).Inc()
	metrics.S3Duration.WithLabelValues(op).Observe(float64(elapsed.Milliseconds()))
	c.health.Record(elapsed, err)
}

// missing hides not-found answers from the health view; the bucket did
// respond.
func missing(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return nil
		}
	}
	return err
}

func (c *S3Container) observeError(op string) {
	metrics.S3Errors.WithLabelValues(op).Inc()
}
