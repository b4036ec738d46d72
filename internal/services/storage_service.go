// internal/services/storage_service.go
package services

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"

	"github.com/c13agent/aaas-backend/internal/config"
)

// StorageService mints short-lived download links for file deliveries
// stored in S3. Products whose download URL does not point into the
// configured bucket are served as-is.
type StorageService struct {
	s3Client *s3.S3
	cfg      config.StorageConfig
}

func NewStorageService(cfg config.StorageConfig) (*StorageService, error) {
	if cfg.AccessKeyID == "" {
		// No credentials in local development; raw URLs are served
		// unsigned.
		return &StorageService{cfg: cfg}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		cfg:      cfg,
	}, nil
}

// SignDownloadURL returns a presigned URL for a stored object, or the
// raw URL unchanged when it cannot be signed. The fallback is logged
// because it hands out a permanent link.
func (s *StorageService) SignDownloadURL(rawURL string) string {
	key, ok := s.objectKey(rawURL)
	if !ok || s.s3Client == nil {
		logrus.WithField("url_host", hostOf(rawURL)).
			Warn("serving unsigned download URL")
		return rawURL
	}

	signed, err := s.presign(key, time.Duration(s.cfg.SignedURLTTL)*time.Second)
	if err != nil {
		logrus.WithError(err).WithField("key", key).
			Warn("presign failed, serving unsigned download URL")
		return rawURL
	}

	return signed
}

func (s *StorageService) presign(key string, expiration time.Duration) (string, error) {
	req, _ := s.s3Client.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})

	signed, err := req.Presign(expiration)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return signed, nil
}

// objectKey extracts the object key when the URL points into the
// configured bucket. Both virtual-hosted and s3:// forms are accepted.
func (s *StorageService) objectKey(rawURL string) (string, bool) {
	if s.cfg.Bucket == "" {
		return "", false
	}

	if strings.HasPrefix(rawURL, "s3://") {
		rest := strings.TrimPrefix(rawURL, "s3://")
		bucket, key, found := strings.Cut(rest, "/")
		if !found || bucket != s.cfg.Bucket || key == "" {
			return "", false
		}
		return key, true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	if !strings.HasPrefix(u.Host, s.cfg.Bucket+".s3") {
		return "", false
	}

	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", false
	}
	return key, true
}

func hostOf(rawURL string) string {
	if u, err := url.Parse(rawURL); err == nil {
		return u.Host
	}
	return ""
}
