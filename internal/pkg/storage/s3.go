package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/gofiber/fiber/v2/log"

	"github.com/quietpage/quietpage/internal/pkg/env"
)

// deleteBatchSize is the S3 cap on keys per DeleteObjects call.
const deleteBatchSize = 1000

// S3Gateway stores objects in a single S3 (or S3-compatible) bucket.
type S3Gateway struct {
	client *s3.Client
	bucket string
}

// NewS3Gateway creates an S3 gateway for the configured bucket.
func NewS3Gateway(cfg *Config) (*S3Gateway, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKeyID,
			cfg.S3SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			// S3-compatible services generally need path-style addressing
			o.UsePathStyle = true
			o.UseAccelerate = false
		}
	})

	gw := &S3Gateway{
		client: client,
		bucket: cfg.S3Bucket,
	}

	if err := gw.testConnection(cfg); err != nil {
		return nil, fmt.Errorf("failed to connect to S3: %w", err)
	}

	log.Infof("[Storage] Successfully initialized S3 gateway for bucket: %s", gw.bucket)
	return gw, nil
}

// testConnection checks that the bucket is reachable, creating it outside
// production so a fresh dev environment just works.
func (g *S3Gateway) testConnection(cfg *Config) error {
	ctx := context.Background()

	_, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(g.bucket),
	})
	if err == nil {
		return nil
	}

	if env.GetEnv("APP_ENV", "dev") == "prod" {
		return fmt.Errorf("bucket %s not accessible: %w", g.bucket, err)
	}

	log.Warnf("[Storage] Bucket %s not found, attempting to create it", g.bucket)
	input := &s3.CreateBucketInput{
		Bucket: aws.String(g.bucket),
	}
	// AWS regions other than us-east-1 need an explicit location constraint;
	// S3-compatible services reject one.
	if cfg.S3Endpoint == "" && cfg.S3Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(cfg.S3Region),
		}
	}
	if _, err := g.client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", g.bucket, err)
	}

	log.Infof("[Storage] Successfully created bucket: %s", g.bucket)
	return nil
}

func (g *S3Gateway) Exists(logical string) (bool, error) {
	ctx := context.Background()

	_, err := g.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(logical),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}
	return true, nil
}

func (g *S3Gateway) Get(logical string) ([]byte, error) {
	ctx := context.Background()

	result, err := g.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(logical),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, logical)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

func (g *S3Gateway) Put(logical string, data []byte) error {
	ctx := context.Background()

	_, err := g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(g.bucket),
		Key:           aws.String(logical),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(getContentType(path.Ext(logical))),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (g *S3Gateway) SetPublic(logical string) error {
	ctx := context.Background()

	_, err := g.client.PutObjectAcl(ctx, &s3.PutObjectAclInput{
		Bucket: aws.String(g.bucket),
		Key:    aws.String(logical),
		ACL:    types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return fmt.Errorf("failed to set object ACL: %w", err)
	}
	return nil
}

func (g *S3Gateway) Delete(logicals ...string) error {
	ctx := context.Background()

	if len(logicals) == 1 {
		_, err := g.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(g.bucket),
			Key:    aws.String(logicals[0]),
		})
		if err != nil {
			return fmt.Errorf("failed to delete object from S3: %w", err)
		}
		return nil
	}

	for start := 0; start < len(logicals); start += deleteBatchSize {
		end := start + deleteBatchSize
		if end > len(logicals) {
			end = len(logicals)
		}

		objects := make([]types.ObjectIdentifier, 0, end-start)
		for _, key := range logicals[start:end] {
			objects = append(objects, types.ObjectIdentifier{Key: aws.String(key)})
		}

		_, err := g.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(g.bucket),
			Delete: &types.Delete{
				Objects: objects,
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return fmt.Errorf("failed to delete objects from S3: %w", err)
		}
	}
	return nil
}

func (g *S3Gateway) Files(dir string) ([]string, error) {
	contents, _, err := g.list(dir, true)
	if err != nil {
		return nil, err
	}
	return contents, nil
}

func (g *S3Gateway) Directories(dir string) ([]string, error) {
	_, prefixes, err := g.list(dir, true)
	if err != nil {
		return nil, err
	}
	return prefixes, nil
}

func (g *S3Gateway) AllFiles(dir string) ([]string, error) {
	contents, _, err := g.list(dir, false)
	if err != nil {
		return nil, err
	}
	return contents, nil
}

// list walks ListObjectsV2 pages under dir. With delimited set, only direct
// children come back and subdirectories land in the prefix list.
func (g *S3Gateway) list(dir string, delimited bool) ([]string, []string, error) {
	ctx := context.Background()
	prefix := strings.TrimSuffix(dir, "/") + "/"

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(g.bucket),
		Prefix: aws.String(prefix),
	}
	if delimited {
		input.Delimiter = aws.String("/")
	}

	var files []string
	var dirs []string
	for {
		page, err := g.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to list objects under %s: %w", dir, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if key == prefix {
				continue
			}
			files = append(files, key)
		}
		for _, cp := range page.CommonPrefixes {
			dirs = append(dirs, strings.TrimSuffix(aws.ToString(cp.Prefix), "/"))
		}
		if !aws.ToBool(page.IsTruncated) {
			break
		}
		input.ContinuationToken = page.NextContinuationToken
	}
	return files, dirs, nil
}

func (g *S3Gateway) DeleteDirectory(dir string) error {
	files, err := g.AllFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return nil
	}
	return g.Delete(files...)
}

// getContentType returns the MIME type based on file extension
func getContentType(ext string) string {
	switch strings.ToLower(ext) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".bmp":
		return "image/bmp"
	case ".tiff", ".tif":
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}
