package vault

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"lai-go/internal/config"
	"lai-go/internal/lai"
)

// s3API is the subset of the S3 client the vault uses.
type s3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// uploader is the subset of the multipart upload manager the vault uses.
type uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// S3Vault stores bundles as objects in an S3 bucket:
//
//	s3://<bucket>/<prefix>/bundles/<id>.json
type S3Vault struct {
	name     string
	bucket   string
	prefix   string
	client   s3API
	uploader uploader
}

// NewS3Vault creates an S3 vault from config. Static credentials are used when
// both key fields are set; otherwise the default AWS credential chain applies.
// A custom endpoint switches the client to path-style addressing, which
// S3-compatible servers such as MinIO expect.
func NewS3Vault(cfg config.VaultConfig) (*S3Vault, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 vault requires s3_bucket to be set")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.S3Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.S3Region))
	}
	if cfg.S3AccessKeyID != "" && cfg.S3SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Vault(cfg.Name, cfg.S3Bucket, cfg.S3Prefix, client, manager.NewUploader(client)), nil
}

func newS3Vault(name, bucket, prefix string, client s3API, up uploader) *S3Vault {
	return &S3Vault{
		name:     name,
		bucket:   bucket,
		prefix:   prefix,
		client:   client,
		uploader: up,
	}
}

// PutBundle uploads the bundle. If the reader yields a different number of
// bytes than size, the uploaded object is removed and an error returned.
func (v *S3Vault) PutBundle(id string, r io.Reader, size int64) error {
	if err := validateID(id); err != nil {
		return err
	}

	ctx := context.Background()
	key := v.bundleKey(id)
	cr := &countingReader{r: r}

	_, err := v.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(v.bucket),
		Key:         aws.String(key),
		Body:        cr,
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("uploading bundle to s3://%s/%s: %w", v.bucket, key, err)
	}

	if cr.n != size {
		err := fmt.Errorf("size mismatch: expected %d bytes, got %d", size, cr.n)
		if _, delErr := v.client.DeleteObject(ctx, &s3.DeleteObjectInput{Bucket: aws.String(v.bucket), Key: aws.String(key)}); delErr != nil {
			err = errors.Join(err, fmt.Errorf("removing partial upload s3://%s/%s: %w", v.bucket, key, delErr))
		}
		return err
	}
	return nil
}

// GetBundle downloads the bundle and writes it to w.
func (v *S3Vault) GetBundle(id string, w io.Writer) error {
	if err := validateID(id); err != nil {
		return err
	}

	key := v.bundleKey(id)
	out, err := v.client.GetObject(context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(v.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return fmt.Errorf("%w: %s", lai.ErrBundleNotFound, id)
		}
		return fmt.Errorf("fetching s3://%s/%s: %w", v.bucket, key, err)
	}
	defer out.Body.Close()

	written, err := io.Copy(w, out.Body)
	if err != nil {
		return fmt.Errorf("reading bundle body: %w", err)
	}
	if out.ContentLength != nil && written != *out.ContentLength {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", *out.ContentLength, written)
	}
	return nil
}

// ValidateSetup checks that the bucket exists and is reachable with the configured credentials.
func (v *S3Vault) ValidateSetup() error {
	if _, err := v.client.HeadBucket(context.Background(), &s3.HeadBucketInput{Bucket: aws.String(v.bucket)}); err != nil {
		return fmt.Errorf("s3 bucket %s not accessible: %w", v.bucket, err)
	}
	return nil
}

func (v *S3Vault) bundleKey(id string) string {
	return path.Join(v.prefix, "bundles", id+".json")
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

var _ lai.Vault = (*S3Vault)(nil)
