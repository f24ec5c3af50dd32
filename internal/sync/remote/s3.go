package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/kimhsiao/salonbook/backend/internal/crypto"
	apperrors "github.com/kimhsiao/salonbook/backend/internal/errors"
	"github.com/kimhsiao/salonbook/backend/internal/logging"
)

// KeyPrefix is the object key prefix for uploaded snapshots.
const KeyPrefix = "backups/"

// Object metadata keys.
const (
	metaFilename  = "filename"
	metaCreatedAt = "created-at"
)

// S3Config holds the settings for an S3-compatible remote.
type S3Config struct {
	Provider  Provider
	Bucket    string
	Region    string
	Endpoint  string
	AccountID string // R2 only
	AccessKey string
	SecretKey string
	UseSSL    bool // MinIO only
	PathStyle bool

	// Passphrase enables encryption of uploads when non-empty.
	Passphrase string
	// Compress enables zstd compression of uploads.
	Compress bool
}

// S3API is the subset of the S3 client used by S3Adapter.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, opts ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, opts ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Adapter stores snapshots as objects under KeyPrefix.
type S3Adapter struct {
	client     S3API
	bucket     string
	passphrase string
	compress   bool
	now        func() time.Time
}

var _ Adapter = (*S3Adapter)(nil)

// NewS3Adapter builds an S3 client from cfg using the default AWS credential
// chain, overridden by static keys when they are set.
func NewS3Adapter(ctx context.Context, cfg S3Config) (*S3Adapter, error) {
	if cfg.Bucket == "" {
		return nil, apperrors.New(apperrors.ErrValidation, "s3 bucket is required")
	}
	if cfg.Passphrase != "" {
		if err := crypto.ValidatePassphrase(cfg.Passphrase); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrValidation, "invalid backup passphrase", err)
		}
	}

	ep, err := resolveEndpoint(cfg)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrValidation, "invalid s3 settings", err)
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(ep.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrBackendUnavailable, "failed to load aws config", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep.URL != "" {
			o.BaseEndpoint = aws.String(ep.URL)
		}
		o.UsePathStyle = ep.PathStyle
	})

	logging.Info("remote backend configured", map[string]interface{}{
		"provider":   string(cfg.Provider),
		"bucket":     cfg.Bucket,
		"region":     ep.Region,
		"endpoint":   ep.URL,
		"encrypted":  cfg.Passphrase != "",
		"compressed": cfg.Compress,
	})

	a := NewS3AdapterWithClient(client, cfg.Bucket, cfg.Passphrase)
	a.compress = cfg.Compress
	return a, nil
}

// NewS3AdapterWithClient wraps an existing client.
func NewS3AdapterWithClient(client S3API, bucket, passphrase string) *S3Adapter {
	return &S3Adapter{
		client:     client,
		bucket:     bucket,
		passphrase: passphrase,
		now:        time.Now,
	}
}

func (a *S3Adapter) key(id string) string {
	return KeyPrefix + id
}

// Available reports whether the bucket can be reached.
func (a *S3Adapter) Available(ctx context.Context) bool {
	_, err := a.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(a.bucket)})
	if err != nil {
		logging.Debug("remote backend unreachable", map[string]interface{}{
			"bucket": a.bucket,
			"error":  err.Error(),
		})
		return false
	}
	return true
}

// Upload puts the file as an object named after its base name.
func (a *S3Adapter) Upload(ctx context.Context, localPath string) (string, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to read snapshot: %w", err)
	}

	if a.compress {
		data = compress(data)
	}
	if a.passphrase != "" {
		data, err = crypto.Encrypt(data, a.passphrase)
		if err != nil {
			return "", fmt.Errorf("failed to encrypt snapshot: %w", err)
		}
	}

	id := filepath.Base(localPath)
	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(a.key(id)),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/octet-stream"),
		Metadata: map[string]string{
			metaFilename:  id,
			metaCreatedAt: a.now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload failed: %w", err)
	}
	return id, nil
}

// List returns every object under KeyPrefix, newest first. CreatedAt comes
// from the created-at metadata written by Upload, falling back to the
// object's LastModified.
func (a *S3Adapter) List(ctx context.Context) ([]Record, error) {
	var records []Record
	paginator := s3.NewListObjectsV2Paginator(a.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(a.bucket),
		Prefix: aws.String(KeyPrefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list failed: %w", err)
		}
		for _, obj := range page.Contents {
			id := path.Base(aws.ToString(obj.Key))
			if id == "" || id == "." || id == "/" {
				continue
			}
			createdAt := aws.ToTime(obj.LastModified)
			if t, ok := a.createdAt(ctx, aws.ToString(obj.Key)); ok {
				createdAt = t
			}
			records = append(records, Record{
				ID:        id,
				Filename:  id,
				Size:      aws.ToInt64(obj.Size),
				CreatedAt: createdAt.UTC(),
			})
		}
	}
	sortNewestFirst(records)
	return records, nil
}

// createdAt reads the upload time recorded in the object's metadata.
func (a *S3Adapter) createdAt(ctx context.Context, key string) (time.Time, bool) {
	out, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		logging.Debug("remote metadata unavailable", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, out.Metadata[metaCreatedAt])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Delete removes the object. S3 deletes are idempotent, so existence is
// checked first to report ErrNotFound.
func (a *S3Adapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(id)),
	})
	if err != nil {
		if isMissing(err) {
			return ErrNotFound
		}
		return fmt.Errorf("delete failed: %w", err)
	}

	_, err = a.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(id)),
	})
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}
	return nil
}

// Download fetches the object into destPath, decrypting if needed.
func (a *S3Adapter) Download(ctx context.Context, id, destPath string) error {
	out, err := a.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(a.key(id)),
	})
	if err != nil {
		if isMissing(err) {
			return ErrNotFound
		}
		return fmt.Errorf("download failed: %w", err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return fmt.Errorf("download failed: %w", err)
	}

	if crypto.IsEncrypted(data) {
		if a.passphrase == "" {
			return apperrors.New(apperrors.ErrValidation, "backup is encrypted but no passphrase is configured")
		}
		data, err = crypto.Decrypt(data, a.passphrase)
		if err != nil {
			return apperrors.Wrap(apperrors.ErrValidation, "failed to decrypt backup", err)
		}
	}
	if isCompressed(data) {
		data, err = decompress(data)
		if err != nil {
			return fmt.Errorf("failed to decompress backup: %w", err)
		}
	}

	return writeFileAtomic(destPath, data)
}

func isMissing(err error) bool {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noKey) || errors.As(err, &notFound)
}
