// Package publish uploads the generated feed to object storage.
package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	// ContentType is the MIME type of the feed
	ContentType = "application/json"
	// CacheControl lets browsers and CDNs keep the feed for five minutes
	CacheControl = "public, max-age=300"
	// DefaultKey is the object key used when none is configured
	DefaultKey = "events.json"
)

// ErrNoBucket is returned when the publisher has no bucket configured
var ErrNoBucket = errors.New("s3 bucket is required")

// putObjectAPI is the subset of the S3 client used by the publisher
type putObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Options configures an S3Publisher
type Options struct {
	Bucket string
	Key    string
	Region string
	// PublicBaseURL overrides the virtual-hosted bucket URL, e.g. a CDN origin
	PublicBaseURL string
	// Profile selects a shared AWS config profile
	Profile string
}

// UploadResult describes a completed upload
type UploadResult struct {
	Key        string    `json:"key"`
	ETag       string    `json:"etag"`
	Size       int64     `json:"size"`
	PublicURL  string    `json:"public_url"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// S3Publisher writes the feed to an S3 bucket
type S3Publisher struct {
	client  putObjectAPI
	opts    Options
	region  string
	nowFunc func() time.Time
}

// NewS3Publisher creates a publisher using the default AWS credential chain
func NewS3Publisher(ctx context.Context, opts Options) (*S3Publisher, error) {
	if opts.Bucket == "" {
		return nil, ErrNoBucket
	}

	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.Profile != "" {
		loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(opts.Profile))
	}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return newS3Publisher(s3.NewFromConfig(cfg), opts, cfg.Region), nil
}

func newS3Publisher(client putObjectAPI, opts Options, region string) *S3Publisher {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	opts.Key = strings.TrimPrefix(opts.Key, "/")
	return &S3Publisher{
		client:  client,
		opts:    opts,
		region:  region,
		nowFunc: time.Now,
	}
}

// PublicURL returns the URL the feed will be served from
func (p *S3Publisher) PublicURL() string {
	if p.opts.PublicBaseURL != "" {
		return strings.TrimRight(p.opts.PublicBaseURL, "/") + "/" + p.opts.Key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.opts.Bucket, p.region, p.opts.Key)
}

// Publish uploads data as the feed object
func (p *S3Publisher) Publish(ctx context.Context, data []byte) (*UploadResult, error) {
	now := p.nowFunc().UTC()

	input := &s3.PutObjectInput{
		Bucket:       aws.String(p.opts.Bucket),
		Key:          aws.String(p.opts.Key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(ContentType),
		CacheControl: aws.String(CacheControl),
		Metadata: map[string]string{
			"uploaded-by": "museum-events",
			"upload-time": now.Format(time.RFC3339),
		},
	}

	out, err := p.client.PutObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("uploading to s3://%s/%s: %w", p.opts.Bucket, p.opts.Key, err)
	}

	result := &UploadResult{
		Key:        p.opts.Key,
		Size:       int64(len(data)),
		PublicURL:  p.PublicURL(),
		UploadedAt: now,
	}
	if out != nil && out.ETag != nil {
		result.ETag = strings.Trim(*out.ETag, `"`)
	}
	return result, nil
}
