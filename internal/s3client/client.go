package s3client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	appConfig "ontosync/config"
	"ontosync/internal/store"
)

const messageMetadataKey = "sync-message"

// API is the subset of the S3 client used by Client.
type API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
}

// Client stores files as objects in a single bucket. Revisions are ETags and
// writes are conditional, so a concurrent change surfaces as store.ErrConflict.
type Client struct {
	s3Client API
	bucket   string
}

func New(ctx context.Context, cfg *appConfig.Config) (*Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     cfg.AccessKey,
				SecretAccessKey: cfg.SecretKey,
			},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Client *s3.Client
	if cfg.ApiURL != "" {
		s3Client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.ApiURL)
			o.UsePathStyle = true
		})
	} else {
		s3Client = s3.NewFromConfig(awsConfig)
	}

	return NewWithAPI(s3Client, cfg.BucketName), nil
}

func NewWithAPI(api API, bucket string) *Client {
	return &Client{s3Client: api, bucket: bucket}
}

func (c *Client) Describe() string {
	return "s3:" + c.bucket
}

// Check confirms the bucket exists and the credentials can reach it.
func (c *Client) Check(ctx context.Context) error {
	_, err := c.s3Client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(c.bucket),
	})
	if err != nil {
		return fmt.Errorf("%w: bucket %s, check BUCKET_NAME, ACCESS_KEY and SECRET_KEY: %w", store.ErrUnreachable, c.bucket, err)
	}
	return nil
}

func (c *Client) Read(ctx context.Context, p string) (store.ReadResult, error) {
	key := objectKey(p)
	out, err := c.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return store.NotFoundResult(), nil
		}
		return store.ReadResult{}, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer out.Body.Close()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return store.ReadResult{}, fmt.Errorf("failed to read object %s: %w", key, err)
	}
	return store.FoundResult(content, aws.ToString(out.ETag)), nil
}

func (c *Client) Create(ctx context.Context, p string, content []byte, message string) error {
	input := c.putInput(p, content, message)
	input.IfNoneMatch = aws.String("*")
	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		return classify("create", aws.ToString(input.Key), err)
	}
	return nil
}

func (c *Client) Update(ctx context.Context, p string, content []byte, message, revision string) error {
	input := c.putInput(p, content, message)
	input.IfMatch = aws.String(revision)
	if _, err := c.s3Client.PutObject(ctx, input); err != nil {
		return classify("update", aws.ToString(input.Key), err)
	}
	return nil
}

// Delete removes the object if its ETag still matches. S3 keeps no commit
// log, so message is only used by callers for logging.
func (c *Client) Delete(ctx context.Context, p, _, revision string) error {
	key := objectKey(p)
	_, err := c.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket:  aws.String(c.bucket),
		Key:     aws.String(key),
		IfMatch: aws.String(revision),
	})
	if err != nil {
		return classify("delete", key, err)
	}
	return nil
}

func (c *Client) List(ctx context.Context, dir string) ([]store.Entry, error) {
	prefix := objectKey(dir)
	if prefix != "" {
		prefix += "/"
	}

	var entries []store.Entry
	paginator := s3.NewListObjectsV2Paginator(c.s3Client, &s3.ListObjectsV2Input{
		Bucket:    aws.String(c.bucket),
		Prefix:    aws.String(prefix),
		Delimiter: aws.String("/"),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}

		for _, cp := range page.CommonPrefixes {
			p := strings.TrimSuffix(aws.ToString(cp.Prefix), "/")
			entries = append(entries, store.Entry{Name: path.Base(p), Path: p, Type: store.TypeDir})
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == prefix {
				continue
			}
			entries = append(entries, store.Entry{
				Name:     path.Base(key),
				Path:     key,
				Type:     store.TypeFile,
				Revision: aws.ToString(obj.ETag),
				Size:     aws.ToInt64(obj.Size),
			})
		}
	}

	if len(entries) == 0 && prefix != "" {
		if _, err := c.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: aws.String(c.bucket),
			Key:    aws.String(strings.TrimSuffix(prefix, "/")),
		}); err == nil {
			return nil, fmt.Errorf("list %s: %w", dir, store.ErrNotDirectory)
		}
	}

	return entries, nil
}

func (c *Client) putInput(p string, content []byte, message string) *s3.PutObjectInput {
	key := objectKey(p)
	return &s3.PutObjectInput{
		Bucket:        aws.String(c.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(content),
		ContentLength: aws.Int64(int64(len(content))),
		ContentType:   aws.String(detectContentType(key)),
		Metadata:      map[string]string{messageMetadataKey: message},
	}
}

func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return true
	}
	var notFound *types.NotFound
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

func classify(op, key string, err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "PreconditionFailed", "ConditionalRequestConflict":
			return fmt.Errorf("failed to %s object %s: %w: %w", op, key, store.ErrConflict, err)
		}
	}
	return fmt.Errorf("failed to %s object %s: %w", op, key, err)
}

// objectKey maps a store path to a key without leading or trailing slashes.
func objectKey(p string) string {
	return strings.Trim(p, "/")
}

func detectContentType(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))

	contentTypes := map[string]string{
		".jsonld": "application/ld+json",
		".json":   "application/json",
		".ttl":    "text/turtle",
		".owl":    "application/rdf+xml",
		".rdf":    "application/rdf+xml",
		".xml":    "application/xml",
		".txt":    "text/plain",
		".html":   "text/html",
		".zip":    "application/zip",
		".gz":     "application/gzip",
	}

	if contentType, exists := contentTypes[ext]; exists {
		return contentType
	}

	return "application/octet-stream"
}
