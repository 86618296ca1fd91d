package s3

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/canvasforge/gamevault/pkg/gamevault"
)

// Config options for the S3 content store
type Config struct {
	Region          string // AWS region
	Bucket          string // S3 bucket name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for S3-compatible services
	UsePathStyle    bool   // Use path-style addressing (default: false)

	// KeyPrefix is prepended to the content-addressed object key
	// (default: "games/").
	KeyPrefix string

	// PublicBaseURL, when set, is used to build download URLs directly
	// (gateway-style). When empty, presigned GET URLs are generated.
	PublicBaseURL   string
	PresignDuration int // Duration in seconds for presigned URLs (default: 3600)

	// MaxSizeBytes is the payload ceiling enforced before any network call
	// (default: gamevault.DefaultMaxContentSize).
	MaxSizeBytes int64

	// PutTimeout bounds a single upload (default: gamevault.DefaultPutTimeout).
	PutTimeout time.Duration

	// MinIO/S3-compatible service options
	CreateBucketIfNotExist bool // Create bucket if it doesn't exist
}

// Store is an S3-compatible implementation of the gamevault.ContentStore
// interface.
type Store struct {
	client          *s3.Client
	presignClient   *s3.PresignClient
	bucket          string
	keyPrefix       string
	publicBaseURL   string
	presignDuration time.Duration
	maxSize         int64
	putTimeout      time.Duration
}

// New creates a new S3-compatible content store
func New(config Config) (*Store, error) {
	if config.Bucket == "" {
		return nil, errors.New("bucket name is required")
	}

	if config.Region == "" {
		config.Region = "us-east-1"
	}
	if config.KeyPrefix == "" {
		config.KeyPrefix = "games/"
	}
	if config.PresignDuration == 0 {
		config.PresignDuration = 3600 // 1 hour default
	}
	if config.MaxSizeBytes == 0 {
		config.MaxSizeBytes = gamevault.DefaultMaxContentSize
	}
	if config.PutTimeout == 0 {
		config.PutTimeout = gamevault.DefaultPutTimeout
	}

	// Set up AWS config
	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		// Use default credential chain
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	// Custom endpoint for S3-compatible services (MinIO, etc.)
	if config.Endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
			o.UsePathStyle = config.UsePathStyle
		})
	}

	client := s3.NewFromConfig(awsCfg, s3Options...)

	store := &Store{
		client:          client,
		presignClient:   s3.NewPresignClient(client),
		bucket:          config.Bucket,
		keyPrefix:       config.KeyPrefix,
		publicBaseURL:   strings.TrimRight(config.PublicBaseURL, "/"),
		presignDuration: time.Duration(config.PresignDuration) * time.Second,
		maxSize:         config.MaxSizeBytes,
		putTimeout:      config.PutTimeout,
	}

	if config.CreateBucketIfNotExist {
		if err := store.createBucketIfNotExists(context.Background(), config.Region); err != nil {
			return nil, fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return store, nil
}

// createBucketIfNotExists creates the bucket if it doesn't exist
func (s *Store) createBucketIfNotExists(ctx context.Context, region string) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err == nil {
		return nil
	}

	// Handle multiple error shapes for MinIO compatibility
	var notFound *types.NotFound
	var noSuchBucket *types.NoSuchBucket
	if !errors.As(err, &notFound) && !errors.As(err, &noSuchBucket) &&
		!strings.Contains(err.Error(), "BadRequest") &&
		!strings.Contains(err.Error(), "NoSuchBucket") {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	createInput := &s3.CreateBucketInput{
		Bucket: aws.String(s.bucket),
	}
	if region != "us-east-1" {
		createInput.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}

	_, err = s.client.CreateBucket(ctx, createInput)
	if err != nil {
		if strings.Contains(err.Error(), "BucketAlreadyExists") ||
			strings.Contains(err.Error(), "BucketAlreadyOwnedByYou") {
			return nil
		}
		return fmt.Errorf("failed to create bucket: %w", err)
	}

	return nil
}

// Put uploads a payload under a content-addressed key and returns its stable
// reference. Size validation happens before any network call; the upload
// itself is bounded by the configured timeout.
func (s *Store) Put(ctx context.Context, req gamevault.PutRequest) (*gamevault.ContentRef, error) {
	if len(req.Data) == 0 {
		return nil, &gamevault.ValidationError{Field: "content", Reason: "must not be empty"}
	}
	if int64(len(req.Data)) > s.maxSize {
		return nil, &gamevault.ValidationError{
			Field:  "content",
			Reason: fmt.Sprintf("exceeds maximum size of %d bytes", s.maxSize),
		}
	}

	sum := sha256.Sum256(req.Data)
	id := hex.EncodeToString(sum[:])
	objectKey := s.keyPrefix + id

	contentType := req.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(req.Data),
		ContentType: aws.String(contentType),
	}
	if len(req.Labels) > 0 {
		input.Metadata = req.Labels
	}

	uploadCtx, cancel := context.WithTimeout(ctx, s.putTimeout)
	defer cancel()

	uploader := manager.NewUploader(s.client)
	if _, err := uploader.Upload(uploadCtx, input); err != nil {
		return nil, mapUploadError(err)
	}

	url, err := s.downloadURL(ctx, objectKey)
	if err != nil {
		return nil, mapUploadError(err)
	}

	return &gamevault.ContentRef{
		ID:        id,
		URL:       url,
		SizeBytes: int64(len(req.Data)),
	}, nil
}

// Get retrieves a stored payload by its reference ID.
func (s *Store) Get(ctx context.Context, id string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyPrefix + id),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, gamevault.ErrContentNotFound
		}
		return nil, fmt.Errorf("failed to download from S3: %w", err)
	}

	return result.Body, nil
}

// Delete removes a stored payload.
func (s *Store) Delete(ctx context.Context, id string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.keyPrefix + id),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}

	return nil
}

// downloadURL builds the retrieval URL for an object key: a plain gateway URL
// when PublicBaseURL is configured, a presigned GET otherwise.
func (s *Store) downloadURL(ctx context.Context, objectKey string) (string, error) {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + objectKey, nil
	}

	result, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = s.presignDuration
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned download URL: %w", err)
	}

	return result.URL, nil
}

// mapUploadError translates backend failures into the closed UploadErrorKind
// taxonomy so callers match on kind instead of S3 error codes.
func mapUploadError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &gamevault.UploadError{Kind: gamevault.UploadTimeout, Reason: "upload timed out", Err: err}
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken", "TokenRefreshRequired":
			return &gamevault.UploadError{Kind: gamevault.UploadAuthentication, Reason: apiErr.ErrorMessage(), Err: err}
		case "AccessDenied", "AllAccessDisabled", "AccountProblem":
			return &gamevault.UploadError{Kind: gamevault.UploadPermission, Reason: apiErr.ErrorMessage(), Err: err}
		case "SlowDown", "TooManyRequests", "RequestLimitExceeded", "Throttling", "ThrottlingException":
			return &gamevault.UploadError{Kind: gamevault.UploadRateLimit, Reason: apiErr.ErrorMessage(), Err: err}
		case "EntityTooLarge", "MaxMessageLengthExceeded":
			return &gamevault.UploadError{Kind: gamevault.UploadPayloadTooLarge, Reason: apiErr.ErrorMessage(), Err: err}
		case "RequestTimeout":
			return &gamevault.UploadError{Kind: gamevault.UploadTimeout, Reason: apiErr.ErrorMessage(), Err: err}
		}
	}

	return &gamevault.UploadError{Kind: gamevault.UploadUnknown, Err: err}
}
