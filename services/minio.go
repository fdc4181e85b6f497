package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/lac-hong-legacy/librarium_api/model"
	"github.com/lac-hong-legacy/librarium_api/shared"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

type MinIOService struct {
	appContext.DefaultService
	client     *minio.Client
	bucketName string
	endpoint   string
	accessKey  string
	secretKey  string
	useSSL     bool
	enabled    bool
	urlExpiry  time.Duration
}

const MINIO_SVC = "minio_svc"

func (svc MinIOService) Id() string {
	return MINIO_SVC
}

func (svc *MinIOService) Configure(ctx *appContext.Context) error {
	svc.loadEnv()
	return svc.DefaultService.Configure(ctx)
}

// NewMinIOService connects outside the service container, for tooling.
func NewMinIOService() (*MinIOService, error) {
	svc := &MinIOService{}
	svc.loadEnv()
	if err := svc.Start(); err != nil {
		return nil, err
	}
	return svc, nil
}

func (svc *MinIOService) loadEnv() {
	svc.enabled = os.Getenv("MINIO_ENABLED") != "false"

	svc.endpoint = os.Getenv("MINIO_ENDPOINT")
	if svc.endpoint == "" {
		svc.endpoint = "localhost:9000"
	}

	svc.accessKey = os.Getenv("MINIO_ACCESS_KEY")
	if svc.accessKey == "" {
		svc.accessKey = "admin"
	}

	svc.secretKey = os.Getenv("MINIO_SECRET_KEY")
	if svc.secretKey == "" {
		svc.secretKey = "password123"
	}

	svc.useSSL = os.Getenv("MINIO_USE_SSL") == "true"

	svc.bucketName = os.Getenv("MINIO_BUCKET_NAME")
	if svc.bucketName == "" {
		svc.bucketName = "librarium"
	}

	svc.urlExpiry = time.Hour
	if v := os.Getenv("MINIO_URL_EXPIRY_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			svc.urlExpiry = time.Duration(n) * time.Minute
		}
	}
}

func (svc *MinIOService) Start() error {
	if !svc.enabled {
		log.Info("MinIO disabled, avatar sprite URLs will be omitted")
		return nil
	}

	client, err := minio.New(svc.endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(svc.accessKey, svc.secretKey, ""),
		Secure: svc.useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %v", err)
	}

	svc.client = client

	if err := svc.ensureBucket(); err != nil {
		return fmt.Errorf("failed to ensure bucket exists: %v", err)
	}

	log.Printf("MinIO service started successfully with endpoint: %s", svc.endpoint)
	return nil
}

func (svc *MinIOService) Enabled() bool {
	return svc != nil && svc.client != nil
}

func (svc *MinIOService) ensureBucket() error {
	ctx := context.Background()

	exists, err := svc.client.BucketExists(ctx, svc.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %v", err)
	}

	if !exists {
		err = svc.client.MakeBucket(ctx, svc.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
		log.Printf("Created MinIO bucket: %s", svc.bucketName)
	}

	return nil
}

// SpriteObject is the object name of the sprite for an avatar kind and tier.
func SpriteObject(kind model.AvatarKind, tier int) string {
	return path.Join(shared.AvatarSpriteBaseDir, string(kind), fmt.Sprintf("tier-%d.png", tier))
}

// SpriteURL returns a presigned URL for the avatar's sprite, or "" when
// storage is disabled.
func (svc *MinIOService) SpriteURL(ctx context.Context, state model.AvatarState) (string, error) {
	if !svc.Enabled() {
		return "", nil
	}

	presignedURL, err := svc.client.PresignedGetObject(ctx, svc.bucketName, SpriteObject(state.Kind, state.Tier), svc.urlExpiry, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %v", err)
	}

	return presignedURL.String(), nil
}

func (svc *MinIOService) UploadSprite(ctx context.Context, kind model.AvatarKind, tier int, reader io.Reader, objectSize int64) (*minio.UploadInfo, error) {
	if !svc.Enabled() {
		return nil, fmt.Errorf("minio client not initialized")
	}

	uploadInfo, err := svc.client.PutObject(ctx, svc.bucketName, SpriteObject(kind, tier), reader, objectSize, minio.PutObjectOptions{
		ContentType: "image/png",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload sprite to MinIO: %v", err)
	}

	return &uploadInfo, nil
}

func (svc *MinIOService) GetBucketName() string {
	return svc.bucketName
}
