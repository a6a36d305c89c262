package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"

	"github.com/JonMunkholm/detarget/internal/core"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3GetObjectAPI is the part of *s3.Client the source needs.
type S3GetObjectAPI interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads one object. The client is built on first use from the
// AWS default credential chain unless one was supplied.
type S3Source struct {
	Bucket string
	Key    string

	region    string
	endpoint  string
	pathStyle bool

	once   sync.Once
	client S3GetObjectAPI
	err    error
}

func newS3Source(u *url.URL, opts Options) (*S3Source, error) {
	key := strings.TrimPrefix(u.Path, "/")
	if u.Host == "" || key == "" {
		return nil, fmt.Errorf("%w: s3 locator needs bucket and key", core.ErrUnsupportedSource)
	}
	return &S3Source{
		Bucket:    u.Host,
		Key:       key,
		region:    opts.S3Region,
		endpoint:  opts.S3Endpoint,
		pathStyle: opts.S3PathStyle,
		client:    opts.S3Client,
	}, nil
}

func (s *S3Source) getClient(ctx context.Context) (S3GetObjectAPI, error) {
	s.once.Do(func() {
		if s.client != nil {
			return
		}
		var loadOpts []func(*awsconfig.LoadOptions) error
		if s.region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(s.region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			s.err = fmt.Errorf("%w: load aws config: %w", core.ErrFetchFailed, err)
			return
		}
		s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			if s.endpoint != "" {
				o.BaseEndpoint = aws.String(s.endpoint)
			}
			o.UsePathStyle = s.pathStyle
		})
	})
	return s.client, s.err
}

// Fetch streams the object body.
func (s *S3Source) Fetch(ctx context.Context) (io.ReadCloser, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.Bucket),
		Key:    aws.String(s.Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		var nsb *types.NoSuchBucket
		var nf *types.NotFound
		if errors.As(err, &nsk) || errors.As(err, &nsb) || errors.As(err, &nf) {
			return nil, fmt.Errorf("%w: %s: %w", core.ErrResourceNotFound, s.Locator(), err)
		}
		return nil, fmt.Errorf("%w: %s: %w", core.ErrFetchFailed, s.Locator(), err)
	}
	return out.Body, nil
}

// Locator returns the s3:// URL.
func (s *S3Source) Locator() string {
	return "s3://" + s.Bucket + "/" + s.Key
}
