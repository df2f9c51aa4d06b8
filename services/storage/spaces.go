package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
)

// ErrUnsupportedImageType is returned for cover uploads that are not images
var ErrUnsupportedImageType = errors.New("unsupported image type")

const maxCoverSize = 5 << 20 // 5 MiB

// SpacesService stores book cover images in DigitalOcean Spaces through
// the S3-compatible API.
type SpacesService struct {
	s3Client *s3.S3
	bucket   string
	endpoint string
	cdnURL   string
}

// SpacesConfig holds configuration for the Spaces client
type SpacesConfig struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	Endpoint  string
	CDNURL    string
}

// NewSpacesService creates a new Spaces service
func NewSpacesService(config SpacesConfig) (*SpacesService, error) {
	sess, err := session.NewSession(&aws.Config{
		Credentials: credentials.NewStaticCredentials(
			config.AccessKey,
			config.SecretKey,
			"",
		),
		Endpoint:         aws.String(config.Endpoint),
		Region:           aws.String(config.Region),
		S3ForcePathStyle: aws.Bool(false),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Spaces session: %w", err)
	}

	return &SpacesService{
		s3Client: s3.New(sess),
		bucket:   config.Bucket,
		endpoint: config.Endpoint,
		cdnURL:   config.CDNURL,
	}, nil
}

// imageContentType maps a filename to its image content type, or "" when
// the extension is not an accepted cover format.
func imageContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".webp":
		return "image/webp"
	default:
		return ""
	}
}

// UploadCover stores a book's cover image and returns its public URL.
// Each upload gets a timestamped key; superseded objects are removed
// lazily via DeleteCover.
func (s *SpacesService) UploadCover(ctx context.Context, bookID uint, fileHeader *multipart.FileHeader) (string, error) {
	contentType := imageContentType(fileHeader.Filename)
	if contentType == "" {
		return "", ErrUnsupportedImageType
	}
	if fileHeader.Size > maxCoverSize {
		return "", fmt.Errorf("cover image exceeds %d bytes", maxCoverSize)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer file.Close()

	key := fmt.Sprintf("covers/%d/%d%s", bookID, time.Now().Unix(), strings.ToLower(filepath.Ext(fileHeader.Filename)))

	_, err = s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        file,
		ACL:         aws.String("public-read"),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload cover: %w", err)
	}

	return s.publicURL(key), nil
}

// DeleteCover removes a stored cover object by its public URL
func (s *SpacesService) DeleteCover(ctx context.Context, url string) error {
	key := s.keyFromURL(url)
	if key == "" {
		return nil
	}

	_, err := s.s3Client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete cover: %w", err)
	}
	return nil
}

func (s *SpacesService) publicURL(key string) string {
	if s.cdnURL != "" {
		return fmt.Sprintf("%s/%s", s.cdnURL, key)
	}
	return fmt.Sprintf("https://%s.%s/%s", s.bucket, s.endpoint, key)
}

func (s *SpacesService) keyFromURL(url string) string {
	var base string
	if s.cdnURL != "" && strings.HasPrefix(url, s.cdnURL+"/") {
		base = s.cdnURL + "/"
	} else {
		origin := fmt.Sprintf("https://%s.%s/", s.bucket, s.endpoint)
		if strings.HasPrefix(url, origin) {
			base = origin
		}
	}
	if base == "" {
		return ""
	}
	return strings.TrimPrefix(url, base)
}
