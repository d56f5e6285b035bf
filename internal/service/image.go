package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/errs"
	"github.com/pageza/foodgram/backend/internal/logger"
	"github.com/pageza/foodgram/backend/internal/models"
)

// MaxImageSize bounds decoded recipe images
const MaxImageSize = 10 << 20

const imagePrefix = "recipes"

// ImageFile is a decoded, sniffed image ready to be stored
type ImageFile struct {
	Data        []byte
	ContentType string
	Extension   string
}

// ImageStore persists recipe images and hands back the URL clients use
type ImageStore interface {
	Save(ctx context.Context, img *ImageFile) (string, error)
	Delete(ctx context.Context, url string) error
}

// DecodeDataURI decodes a "data:image/<ext>;base64,<data>" payload
func DecodeDataURI(uri string) (*ImageFile, error) {
	header, payload, ok := strings.Cut(uri, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, errs.NewValidation("image", "Expected a base64 encoded data URI.")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errs.NewValidation("image", "Image data is not valid base64.")
	}
	return SniffImage(data)
}

// SniffImage checks that data holds an image and detects its type
func SniffImage(data []byte) (*ImageFile, error) {
	if len(data) == 0 {
		return nil, errs.NewValidation("image", "The submitted file is empty.")
	}
	if len(data) > MaxImageSize {
		return nil, errs.NewValidation("image", fmt.Sprintf("Image must not exceed %d bytes.", MaxImageSize))
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, errs.NewValidation("image", "Upload a valid image. The file you uploaded was either not an image or a corrupted image.")
	}
	return &ImageFile{Data: data, ContentType: mt.String(), Extension: mt.Extension()}, nil
}

func newImageName(img *ImageFile) (id, name string) {
	id = uuid.NewString()
	return id, id + img.Extension
}

// DatabaseImageStore keeps images in the images table and serves them
// under baseURL/recipes/<name>
type DatabaseImageStore struct {
	db      *gorm.DB
	baseURL string
	log     *logger.Logger
}

// NewDatabaseImageStore creates a new DatabaseImageStore
func NewDatabaseImageStore(db *gorm.DB, baseURL string, log *logger.Logger) *DatabaseImageStore {
	return &DatabaseImageStore{
		db:      db,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     log.With("service", "DatabaseImageStore"),
	}
}

func (s *DatabaseImageStore) Save(ctx context.Context, img *ImageFile) (string, error) {
	id, name := newImageName(img)
	row := &models.Image{ID: id, ContentType: img.ContentType, Data: img.Data}
	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}
	return s.baseURL + "/" + imagePrefix + "/" + name, nil
}

func (s *DatabaseImageStore) Delete(ctx context.Context, url string) error {
	id := imageID(path.Base(url))
	if err := s.db.WithContext(ctx).Delete(&models.Image{}, "id = ?", id).Error; err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}

// Open loads the image stored under name
func (s *DatabaseImageStore) Open(ctx context.Context, name string) (*models.Image, error) {
	var img models.Image
	if err := s.db.WithContext(ctx).First(&img, "id = ?", imageID(name)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewNotFound("Image not found.")
		}
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return &img, nil
}

func imageID(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

// S3API is the part of the S3 client the store uses
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ImageStore uploads images to an S3 bucket and returns their public URL
type S3ImageStore struct {
	client  S3API
	bucket  string
	baseURL string
	log     *logger.Logger
}

// NewS3ImageStore creates a store on the configured bucket
func NewS3ImageStore(cfg *config.S3Config, log *logger.Logger) *S3ImageStore {
	baseURL := fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.BucketName, cfg.Region)
	if cfg.Endpoint != "" {
		baseURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.BucketName
	}
	return newS3ImageStore(cfg.Client, cfg.BucketName, baseURL, log)
}

func newS3ImageStore(client S3API, bucket, baseURL string, log *logger.Logger) *S3ImageStore {
	return &S3ImageStore{
		client:  client,
		bucket:  bucket,
		baseURL: baseURL,
		log:     log.With("service", "S3ImageStore"),
	}
}

func (s *S3ImageStore) Save(ctx context.Context, img *ImageFile) (string, error) {
	_, name := newImageName(img)
	key := imagePrefix + "/" + name

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(img.Data),
		ContentType: aws.String(img.ContentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}

	publicURL := s.baseURL + "/" + key
	s.log.Debug("uploaded image to S3", "url", publicURL)
	return publicURL, nil
}

func (s *S3ImageStore) Delete(ctx context.Context, url string) error {
	key := imagePrefix + "/" + path.Base(url)
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}
