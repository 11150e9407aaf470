// Package storage hands out presigned S3 upload URLs for course thumbnails.
// The API never proxies image bytes; clients PUT directly to the bucket and
// then confirm the upload so the public URL is stored on the course.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/iliyamo/course-platform/internal/config"
)

// UploadTTL is how long a presigned upload URL stays valid.
const UploadTTL = 15 * time.Minute

// ErrUnsupportedType is returned for content types other than the image
// formats in allowedTypes.
var ErrUnsupportedType = errors.New("unsupported thumbnail content type")

var (
	// ErrInvalidKey is returned when a key was not issued for the course.
	ErrInvalidKey = errors.New("invalid thumbnail key")
	// ErrNotUploaded is returned when the bucket has no object at the key.
	ErrNotUploaded = errors.New("thumbnail not uploaded")
)

var allowedTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}

	headObject = func(c *s3.Client, ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
		return c.HeadObject(ctx, in, optFns...)
	}
)

// ThumbnailUpload tells the client where and how to upload.
type ThumbnailUpload struct {
	UploadURL string    `json:"uploadUrl"`
	Method    string    `json:"method"`
	Key       string    `json:"key"`
	PublicURL string    `json:"publicUrl"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ThumbnailPresigner signs PUT requests against the configured bucket.
type ThumbnailPresigner struct {
	cfg     config.S3Config
	client  *s3.Client
	presign *s3.PresignClient
}

// NewThumbnailPresigner loads AWS configuration once.  Static credentials
// are used when configured; otherwise the default provider chain applies.
func NewThumbnailPresigner(ctx context.Context, cfg config.S3Config) (*ThumbnailPresigner, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return &ThumbnailPresigner{cfg: cfg, client: client, presign: newS3PresignClient(client)}, nil
}

// PresignUpload returns a PUT URL for a new thumbnail object of courseID.
func (p *ThumbnailPresigner) PresignUpload(ctx context.Context, courseID, contentType string) (*ThumbnailUpload, error) {
	ext, ok := allowedTypes[strings.ToLower(strings.TrimSpace(contentType))]
	if !ok {
		return nil, ErrUnsupportedType
	}
	key := fmt.Sprintf("courses/%s/thumbnails/%s.%s", courseID, uuid.NewString(), ext)

	req, err := presignPutObject(p.presign, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(UploadTTL))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	return &ThumbnailUpload{
		UploadURL: req.URL,
		Method:    req.Method,
		Key:       key,
		PublicURL: p.PublicURL(key),
		ExpiresAt: time.Now().UTC().Add(UploadTTL),
	}, nil
}

// ConfirmUpload checks that key belongs to courseID and that the object
// exists in the bucket, and returns its public URL.
func (p *ThumbnailPresigner) ConfirmUpload(ctx context.Context, courseID, key string) (string, error) {
	if !validKey(courseID, key) {
		return "", ErrInvalidKey
	}
	_, err := headObject(p.client, ctx, &s3.HeadObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
	})
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return "", ErrNotUploaded
	}
	if err != nil {
		return "", fmt.Errorf("head object: %w", err)
	}
	return p.PublicURL(key), nil
}

func validKey(courseID, key string) bool {
	prefix := fmt.Sprintf("courses/%s/thumbnails/", courseID)
	name, ok := strings.CutPrefix(key, prefix)
	if !ok || courseID == "" || strings.ContainsAny(name, "/\\") {
		return false
	}
	base, ext, ok := strings.Cut(name, ".")
	if !ok || uuid.Validate(base) != nil {
		return false
	}
	for _, e := range allowedTypes {
		if e == ext {
			return true
		}
	}
	return false
}

// PublicURL is where an uploaded object is served from.
func (p *ThumbnailPresigner) PublicURL(key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	switch {
	case p.cfg.PublicBaseURL != "":
		return strings.TrimRight(p.cfg.PublicBaseURL, "/") + "/" + escaped
	case p.cfg.Endpoint != "":
		return strings.TrimRight(p.cfg.Endpoint, "/") + "/" + p.cfg.Bucket + "/" + escaped
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", p.cfg.Bucket, p.cfg.Region, escaped)
	}
}
