package minio

import (
	"context"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"

	"github.com/turtacn/aopwiki-graph/internal/config"
	"github.com/turtacn/aopwiki-graph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/aopwiki-graph/pkg/errors"
)

const nTriplesContentType = "application/n-triples"

// ArtifactStore reads conversion inputs from object storage and publishes
// conversion outputs to it.
type ArtifactStore struct {
	api    ObjectAPI
	bucket string
	prefix string
	region string
	logger logging.Logger
}

// Uploaded describes one stored output.
type Uploaded struct {
	Bucket string
	Object string
	Size   int64
	ETag   string
}

// NewArtifactStore stores outputs in cfg.Bucket under prefix.
func NewArtifactStore(api ObjectAPI, cfg config.MinIOConfig, prefix string, log logging.Logger) *ArtifactStore {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &ArtifactStore{
		api:    api,
		bucket: cfg.Bucket,
		region: cfg.Region,
		prefix: strings.Trim(prefix, "/"),
		logger: log.Named("minio"),
	}
}

// EnsureBucket creates the output bucket when it does not exist.
func (s *ArtifactStore) EnsureBucket(ctx context.Context) error {
	if s.bucket == "" {
		return errors.New(errors.ErrCodeValidation, "output bucket is not configured")
	}
	exists, err := s.api.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to check bucket existence").WithDetail("bucket=" + s.bucket)
	}
	if exists {
		return nil
	}
	if err := s.api.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{Region: s.region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeStorageError, "failed to create bucket").WithDetail("bucket=" + s.bucket)
	}
	s.logger.Info("Created bucket", logging.String("bucket", s.bucket))
	return nil
}

// Open streams an object. The caller closes the reader.
func (s *ArtifactStore) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	if bucket == "" {
		bucket = s.bucket
	}
	if bucket == "" || object == "" {
		return nil, errors.New(errors.ErrCodeValidation, "bucket and object are required")
	}
	detail := "object=" + bucket + "/" + object

	if _, err := s.api.StatObject(ctx, bucket, object, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return nil, errors.New(errors.ErrCodeNotFound, "object not found").WithDetail(detail)
		}
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to stat object").WithDetail(detail)
	}
	rc, err := s.api.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeStorageError, "failed to get object").WithDetail(detail)
	}
	return rc, nil
}

// ObjectKey is where a local output file of runID is stored.
func (s *ArtifactStore) ObjectKey(runID, file string) string {
	return path.Join(s.prefix, runID, filepath.Base(file))
}

// UploadOutputs stores each local file under <prefix>/<runID>/<basename>.
// It stops at the first failure.
func (s *ArtifactStore) UploadOutputs(ctx context.Context, runID string, files []string) ([]Uploaded, error) {
	if s.bucket == "" {
		return nil, errors.New(errors.ErrCodeValidation, "output bucket is not configured")
	}
	out := make([]Uploaded, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		key := s.ObjectKey(runID, f)
		start := time.Now()
		info, err := s.api.FPutObject(ctx, s.bucket, key, f, minio.PutObjectOptions{
			ContentType:  contentTypeFor(f),
			UserMetadata: map[string]string{"run-id": runID},
		})
		if err != nil {
			return out, errors.Wrap(err, errors.ErrCodeStorageError, "upload failed").WithDetail("object=" + key)
		}
		s.logger.Info("Output uploaded",
			logging.String("object", key),
			logging.Int64("size", info.Size),
			logging.Duration("latency", time.Since(start)))
		out = append(out, Uploaded{Bucket: s.bucket, Object: key, Size: info.Size, ETag: info.ETag})
	}
	return out, nil
}

// HealthCheck verifies the endpoint answers.
func (s *ArtifactStore) HealthCheck(ctx context.Context) error {
	if _, err := s.api.ListBuckets(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio unreachable")
	}
	return nil
}

func contentTypeFor(file string) string {
	if strings.HasSuffix(file, ".nt") {
		return nTriplesContentType
	}
	return "application/octet-stream"
}
