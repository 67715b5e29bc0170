package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"vidfeed/domain/apperror"
	"vidfeed/domain/model"
	"vidfeed/domain/repository"
	"vidfeed/infrastructure/logger"
	"vidfeed/infrastructure/metrics"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	providerName = "s3"
	// S3 lower-cases user metadata keys.
	customIDMetaKey = "customid"
	presignExpiry   = time.Hour
)

type Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
	UsePathStyle    bool
}

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// S3Storage stores published videos in an S3 compatible bucket. The tag string
// travels as object metadata.
type S3Storage struct {
	bucket        string
	publicBaseURL string
	client        s3API
	presigner     presignAPI
}

func NewS3Storage(ctx context.Context, cfg Config) (repository.IFileStorage, error) {
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, apperror.New(apperror.KindConfiguration, "S3_BUCKET is not configured")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return newS3Storage(bucket, cfg.PublicBaseURL, client, s3.NewPresignClient(client)), nil
}

func newS3Storage(bucket, publicBaseURL string, client s3API, presigner presignAPI) *S3Storage {
	return &S3Storage{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		client:        client,
		presigner:     presigner,
	}
}

func (s *S3Storage) UploadFiles(ctx context.Context, files []model.UploadFile) ([]model.UploadFileResult, error) {
	results := make([]model.UploadFileResult, len(files))
	for i, f := range files {
		start := time.Now()
		input := &s3.PutObjectInput{
			Bucket:        aws.String(s.bucket),
			Key:           aws.String(f.Name),
			Body:          bytes.NewReader(f.Data),
			ContentLength: aws.Int64(int64(len(f.Data))),
			ContentType:   aws.String(f.Type),
		}
		if f.CustomID != "" {
			input.Metadata = map[string]string{customIDMetaKey: f.CustomID}
		}
		_, err := s.client.PutObject(ctx, input)
		metrics.RecordStorageOperation(providerName, "upload", metrics.Status(err), time.Since(start).Seconds())
		if err != nil {
			results[i] = model.UploadFileResult{Error: apperror.Wrap(apperror.KindUpload, err, "put object "+f.Name)}
			continue
		}
		u, err := s.objectURL(ctx, f.Name)
		if err != nil {
			results[i] = model.UploadFileResult{Error: err}
			continue
		}
		results[i] = model.UploadFileResult{Data: &model.UploadedFile{
			Key:  f.Name,
			URL:  u,
			Name: f.Name,
			Size: int64(len(f.Data)),
		}}
	}
	return results, nil
}

func (s *S3Storage) objectURL(ctx context.Context, key string) (string, error) {
	if s.publicBaseURL != "" {
		return s.PublicURL(key)
	}
	urls, err := s.GetFileURLs(ctx, []string{key})
	if err != nil {
		return "", err
	}
	return urls[key], nil
}

// ListFiles returns the first page of the bucket, which holds up to 1000 objects.
func (s *S3Storage) ListFiles(ctx context.Context) ([]model.StoredFile, error) {
	start := time.Now()
	out, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{Bucket: aws.String(s.bucket)})
	metrics.RecordStorageOperation(providerName, "list", metrics.Status(err), time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	if aws.ToBool(out.IsTruncated) {
		logger.GetLogger().WithField("returned", len(out.Contents)).Warn("Bucket listing truncated to first page")
	}
	files := make([]model.StoredFile, 0, len(out.Contents))
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		sf := model.StoredFile{Key: key, Name: key, Status: "Uploaded"}
		if obj.LastModified != nil {
			sf.UploadedAt = obj.LastModified.UnixMilli()
		}
		head, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.bucket), Key: obj.Key})
		if err != nil {
			logger.GetLogger().WithField("file_key", key).WithField("error", err).Warn("Failed reading object metadata")
		} else {
			sf.CustomID = head.Metadata[customIDMetaKey]
		}
		files = append(files, sf)
	}
	return files, nil
}

func (s *S3Storage) GetFileURLs(ctx context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		start := time.Now()
		req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(k),
		}, s3.WithPresignExpires(presignExpiry))
		metrics.RecordStorageOperation(providerName, "presign", metrics.Status(err), time.Since(start).Seconds())
		if err != nil {
			return nil, fmt.Errorf("presign %s: %w", k, err)
		}
		out[k] = req.URL
	}
	return out, nil
}

func (s *S3Storage) PublicURL(key string) (string, error) {
	if s.publicBaseURL == "" {
		return "", apperror.New(apperror.KindConfiguration, "S3_PUBLIC_BASE_URL is not configured")
	}
	return s.publicBaseURL + "/" + key, nil
}
