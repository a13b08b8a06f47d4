package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"golang.org/x/exp/slog"

	"payfamily/internal/app/client/crypto"
	names "payfamily/internal/domain/backup"
)

const (
	objectSuffix      = ".json"
	checksumMetaKey   = "Checksum"
	envelopeMediaType = "application/json"
)

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	KeyPrefix       string
	UseSSL          bool
	Region          string
}

// S3Remote keeps backups as objects under
// bucket/[prefix/]ownerID/backups/<name>.json.
type S3Remote struct {
	client  *minio.Client
	bucket  string
	prefix  string
	ownerID string
	log     *slog.Logger
}

var _ Remote = (*S3Remote)(nil)

func NewS3Remote(cfg S3Config, ownerID string, log *slog.Logger) (*S3Remote, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	if err := names.ValidateName(ownerID); err != nil {
		return nil, fmt.Errorf("owner id %q cannot be used as an object prefix", ownerID)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}

	return &S3Remote{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  path.Join(strings.Trim(cfg.KeyPrefix, "/"), ownerID, "backups") + "/",
		ownerID: ownerID,
		log:     log.With("component", "s3_remote"),
	}, nil
}

// Ping makes sure the bucket exists, creating it when missing.
func (r *S3Remote) Ping(ctx context.Context) error {
	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if exists {
		return nil
	}

	if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("%w: create bucket: %v", ErrUnavailable, err)
	}
	r.log.Info("bucket created", "bucket", r.bucket)

	return nil
}

func (r *S3Remote) Put(ctx context.Context, name string, env *crypto.Envelope) error {
	if err := names.ValidateName(name); err != nil {
		return err
	}

	data, err := crypto.MarshalEnvelope(env)
	if err != nil {
		return err
	}

	_, err = r.client.PutObject(ctx, r.bucket, r.key(name), strings.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{
			ContentType:  envelopeMediaType,
			UserMetadata: map[string]string{checksumMetaKey: names.Checksum([]byte(data))},
		})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrUnavailable, name, err)
	}

	r.log.Debug("backup uploaded", "name", name, "size", len(data))

	return nil
}

func (r *S3Remote) Get(ctx context.Context, name string) (*crypto.Envelope, error) {
	if err := names.ValidateName(name); err != nil {
		return nil, err
	}

	obj, err := r.client.GetObject(ctx, r.bucket, r.key(name), minio.GetObjectOptions{})
	if err != nil {
		return nil, r.mapErr(name, err)
	}
	defer obj.Close()

	info, err := obj.Stat()
	if err != nil {
		return nil, r.mapErr(name, err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(obj, names.MaxSize+1)); err != nil {
		return nil, r.mapErr(name, err)
	}
	if buf.Len() > names.MaxSize {
		return nil, fmt.Errorf("backup %s exceeds %d bytes", name, names.MaxSize)
	}

	if want := info.UserMetadata[checksumMetaKey]; want != "" && want != names.Checksum(buf.Bytes()) {
		return nil, fmt.Errorf("%w: %s", ErrChecksum, name)
	}

	return crypto.ParseEnvelope(buf.String())
}

func (r *S3Remote) List(ctx context.Context) ([]Object, error) {
	objects := []Object{}
	for obj := range r.client.ListObjects(ctx, r.bucket, minio.ListObjectsOptions{Prefix: r.prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("%w: list: %v", ErrUnavailable, obj.Err)
		}

		name := strings.TrimPrefix(obj.Key, r.prefix)
		if !strings.HasSuffix(name, objectSuffix) {
			continue
		}
		objects = append(objects, Object{
			Name:      strings.TrimSuffix(name, objectSuffix),
			Size:      obj.Size,
			UpdatedAt: obj.LastModified,
		})
	}
	return objects, nil
}

// Delete removes the backup, reporting ErrNotFound for unknown names like
// the backup server does.
func (r *S3Remote) Delete(ctx context.Context, name string) error {
	if err := names.ValidateName(name); err != nil {
		return err
	}

	if _, err := r.client.StatObject(ctx, r.bucket, r.key(name), minio.StatObjectOptions{}); err != nil {
		return r.mapErr(name, err)
	}

	if err := r.client.RemoveObject(ctx, r.bucket, r.key(name), minio.RemoveObjectOptions{}); err != nil {
		return r.mapErr(name, err)
	}
	return nil
}

func (r *S3Remote) key(name string) string {
	return r.prefix + name + objectSuffix
}

func (r *S3Remote) mapErr(name string, err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, name, err)
}
