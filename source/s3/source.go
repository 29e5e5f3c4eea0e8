// Package s3 provides a document source backed by an S3 object.
//
// Loads use GetObject, saves use PutObject, and change detection polls with
// conditional GETs on the object's ETag.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/yacchi/umbra/source"
	"github.com/yacchi/umbra/types"
	"github.com/yacchi/umbra/watcher"
)

// TypeS3 is the source type identifier for S3 sources.
const TypeS3 source.SourceType = "s3"

// Client is the subset of *s3.Client used by Source.
type Client interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Ensure *s3.Client satisfies Client.
var _ Client = (*s3.Client)(nil)

// Source loads and saves a document stored as an S3 object.
type Source struct {
	bucket    string
	key       string
	mediaType string

	awsConfig *aws.Config
	region    string
	endpoint  string

	client        Client
	clientInit    sync.Once
	clientInitErr error

	// etagMu guards lastETag, the ETag of the last object delivered to a watcher.
	etagMu   sync.Mutex
	lastETag *string
}

// Ensure Source implements the source.WatchableSource interface.
var _ source.WatchableSource = (*Source)(nil)

// Option configures a Source.
type Option func(*Source)

// WithClient sets the S3 client. It overrides every other client option.
func WithClient(client Client) Option {
	return func(s *Source) {
		s.client = client
	}
}

// WithAWSConfig sets the AWS configuration used to build the client.
// If not provided, the default configuration is loaded from the environment.
//
// Example:
//
//	cfg, _ := config.LoadDefaultConfig(ctx, config.WithRegion("eu-west-1"))
//	src := s3.New("bucket", "shadows/umbra.json", s3.WithAWSConfig(cfg))
func WithAWSConfig(cfg aws.Config) Option {
	return func(s *Source) {
		s.awsConfig = &cfg
	}
}

// WithRegion overrides the region of the default configuration.
func WithRegion(region string) Option {
	return func(s *Source) {
		s.region = region
	}
}

// WithEndpoint points the client at an S3-compatible endpoint such as MinIO.
// Path-style addressing is enabled together with the endpoint.
func WithEndpoint(endpoint string) Option {
	return func(s *Source) {
		s.endpoint = endpoint
	}
}

// WithMediaType sets the media type reported for the object and written as
// its Content-Type on save.
func WithMediaType(mediaType string) Option {
	return func(s *Source) {
		s.mediaType = mediaType
	}
}

// New creates an S3 source for the given bucket and key.
//
// Example:
//
//	src := s3.New("my-bucket", "shadows/guybrush.yaml")
//	src := s3.New("my-bucket", "umbra.json", s3.WithRegion("us-west-2"))
func New(bucket, key string, opts ...Option) *Source {
	s := &Source{
		bucket: bucket,
		key:    key,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ParseURL splits an "s3://bucket/key" URL. It returns false for any other
// form, including URLs with an empty bucket or key.
func ParseURL(rawURL string) (bucket, key string, ok bool) {
	rest, found := strings.CutPrefix(rawURL, "s3://")
	if !found {
		return "", "", false
	}
	bucket, key, found = strings.Cut(rest, "/")
	if !found || bucket == "" || key == "" {
		return "", "", false
	}
	return bucket, key, true
}

// Bucket returns the S3 bucket name.
func (s *Source) Bucket() string {
	return s.bucket
}

// Key returns the S3 object key.
func (s *Source) Key() string {
	return s.key
}

// Type returns the source type identifier.
func (s *Source) Type() source.SourceType {
	return TypeS3
}

// FillDetails implements types.DetailsFiller.
func (s *Source) FillDetails(d *types.Details) {
	d.Name = path.Base(s.key)
	d.Path = s.location()
	d.MediaType = s.mediaType
	d.Watcher = watcher.TypePolling
}

func (s *Source) location() string {
	return fmt.Sprintf("s3://%s/%s", s.bucket, s.key)
}

// ensureClient creates a default S3 client if one was not provided.
func (s *Source) ensureClient(ctx context.Context) error {
	if s.client != nil {
		return nil
	}

	s.clientInit.Do(func() {
		var cfg aws.Config
		if s.awsConfig != nil {
			cfg = *s.awsConfig
		} else {
			var loadOpts []func(*config.LoadOptions) error
			if s.region != "" {
				loadOpts = append(loadOpts, config.WithRegion(s.region))
			}
			loaded, err := config.LoadDefaultConfig(ctx, loadOpts...)
			if err != nil {
				s.clientInitErr = fmt.Errorf("failed to load AWS config: %w", err)
				return
			}
			cfg = loaded
		}

		s.client = s3.NewFromConfig(cfg, func(o *s3.Options) {
			if s.endpoint != "" {
				o.BaseEndpoint = aws.String(s.endpoint)
				o.UsePathStyle = true
			}
		})
	})
	return s.clientInitErr
}

// Load implements the source.Source interface.
// A missing object is reported as a *source.NotExistError.
func (s *Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, _, err := s.fetchObject(ctx, nil)
	return data, err
}

// fetchObject fetches the object, optionally with a conditional GET.
// If ifNoneMatch is provided, returns nil data when the object is unchanged.
func (s *Source) fetchObject(ctx context.Context, ifNoneMatch *string) ([]byte, *string, error) {
	if err := s.ensureClient(ctx); err != nil {
		return nil, nil, err
	}

	input := &s3.GetObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key),
		IfNoneMatch: ifNoneMatch,
	}

	result, err := s.client.GetObject(ctx, input)
	if err != nil {
		var noSuchKey *s3types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, nil, source.NewNotExistError(s.location(), err)
		}
		var respErr *awshttp.ResponseError
		if errors.As(err, &respErr) {
			switch respErr.HTTPStatusCode() {
			case http.StatusNotModified:
				return nil, ifNoneMatch, nil
			case http.StatusNotFound:
				return nil, nil, source.NewNotExistError(s.location(), err)
			}
		}
		return nil, nil, fmt.Errorf("failed to get object %s: %w", s.location(), err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read object body: %w", err)
	}
	if data == nil {
		data = []byte{}
	}
	return data, result.ETag, nil
}

// Save implements the source.Source interface.
// updateFunc receives the current object (nil if it does not exist) and the
// result is written with PutObject. S3 offers no lock, so concurrent writers
// race and the last PutObject wins.
func (s *Source) Save(ctx context.Context, updateFunc source.UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	current, _, err := s.fetchObject(ctx, nil)
	if err != nil && !errors.Is(err, source.ErrNotExist) {
		return err
	}

	data, err := updateFunc(current)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
		Body:   bytes.NewReader(data),
	}
	if s.mediaType != "" {
		input.ContentType = aws.String(s.mediaType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to put object %s: %w", s.location(), err)
	}
	return nil
}

// CanSave returns true because S3 objects can be written back.
func (s *Source) CanSave() bool {
	return true
}

// Watch implements the source.WatchableSource interface.
// The returned watcher polls with the ETag of the last delivered object so
// unchanged objects cost a 304.
func (s *Source) Watch() (watcher.Watcher, error) {
	poll := func(ctx context.Context) ([]byte, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		s.etagMu.Lock()
		defer s.etagMu.Unlock()

		data, etag, err := s.fetchObject(ctx, s.lastETag)
		if err != nil {
			return nil, err
		}
		if data == nil {
			return nil, nil
		}
		s.lastETag = etag
		return data, nil
	}
	return watcher.NewPolling(watcher.PollHandlerFunc(poll)), nil
}
