package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/FreeNowOrg/BlogNow/internal/auth"
	"github.com/FreeNowOrg/BlogNow/internal/config"
	"github.com/FreeNowOrg/BlogNow/internal/model"
)

// Presigner is the subset of *s3.PresignClient used for uploads.
type Presigner interface {
	PresignPutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// MediaService hands out presigned upload URLs for post images. The server
// never touches the bytes.
type MediaService struct {
	presigner  Presigner
	bucket     string
	publicURL  string
	thresholds model.Thresholds
}

// NewMediaService builds an S3 presign client from cfg. Without object store
// settings the service stays disabled and every presign answers
// model.ErrObjectStoreDisabled.
func NewMediaService(ctx context.Context, cfg *config.Config, thresholds model.Thresholds) (*MediaService, error) {
	svc := &MediaService{thresholds: thresholds}
	if !cfg.ObjectStoreEnabled() {
		return svc, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(
		ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("load object store config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	svc.presigner = s3.NewPresignClient(client)
	svc.bucket = cfg.S3Bucket
	svc.publicURL = strings.TrimSuffix(cfg.S3PublicURL, "/")
	return svc, nil
}

// NewMediaServiceWithPresigner wires an explicit presigner.
func NewMediaServiceWithPresigner(p Presigner, bucket, publicURL string, thresholds model.Thresholds) *MediaService {
	return &MediaService{
		presigner:  p,
		bucket:     bucket,
		publicURL:  strings.TrimSuffix(publicURL, "/"),
		thresholds: thresholds,
	}
}

// Enabled reports whether an object store is configured.
func (s *MediaService) Enabled() bool {
	return s.presigner != nil
}

// PresignUpload validates the declared upload and returns a PUT URL the
// client uploads to directly.
func (s *MediaService) PresignUpload(ctx context.Context, viewer *model.User, req *model.PresignUploadRequest) (*model.PresignUploadResponse, error) {
	if err := auth.Require(viewer, s.thresholds.PostCreate); err != nil {
		return nil, err
	}
	if !s.Enabled() {
		return nil, model.ErrObjectStoreDisabled
	}

	contentType := strings.ToLower(strings.TrimSpace(req.ContentType))
	if i := strings.Index(contentType, ";"); i != -1 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	ext, ok := model.ImageExtension(contentType)
	if !ok {
		return nil, model.ErrInvalidImageType
	}
	if req.FileSize < 0 {
		return nil, model.NewValidationError("file_size", "file_size cannot be negative")
	}
	if req.FileSize > model.MaxPostMediaSize {
		return nil, model.ErrFileTooLarge
	}

	key := fmt.Sprintf("%s/%s%s", model.PostMediaFolder, uuid.NewString(), ext)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}
	if req.FileSize > 0 {
		input.ContentLength = aws.Int64(req.FileSize)
	}

	presigned, err := s.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(model.MediaPresignExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign upload: %w", err)
	}

	return &model.PresignUploadResponse{
		UploadURL:  presigned.URL,
		PublicURL:  s.publicURL + "/" + key,
		Key:        key,
		ExpiresInS: int(model.MediaPresignExpiry.Seconds()),
	}, nil
}
