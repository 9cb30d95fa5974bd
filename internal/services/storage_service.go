// internal/services/storage_service.go
package services

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"

	"github.com/tracelink/provenance-backend/internal/config"
)

// StorageService stores custody documents off-core and hands back the sha256
// content hash that ledger records reference. The core never sees document
// bytes, only the hash.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type DocumentUploadResult struct {
	ContentHash string `json:"content_hash"`
	Key         string `json:"key"`
	Size        int64  `json:"size"`
}

func NewStorageService(cfg *config.Config) (*StorageService, error) {
	if cfg.AWS.AccessKeyID == "" {
		// Local filesystem fallback for development
		return &StorageService{config: cfg}, nil
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   cfg,
	}, nil
}

func (s *StorageService) UploadDocument(file multipart.File, header *multipart.FileHeader) (*DocumentUploadResult, error) {
	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(fileBytes) == 0 {
		return nil, fmt.Errorf("document is empty")
	}

	digest := sha256.Sum256(fileBytes)
	contentHash := hex.EncodeToString(digest[:])
	key := "documents/" + contentHash

	if s.s3Client != nil {
		params := &s3.PutObjectInput{
			Bucket:        aws.String(s.config.AWS.S3Bucket),
			Key:           aws.String(key),
			Body:          bytes.NewReader(fileBytes),
			ContentType:   aws.String(header.Header.Get("Content-Type")),
			ContentLength: aws.Int64(int64(len(fileBytes))),
		}
		if _, err := s.s3Client.PutObject(params); err != nil {
			return nil, fmt.Errorf("failed to upload document: %w", err)
		}
	} else {
		if err := s.writeLocal(key, fileBytes); err != nil {
			return nil, err
		}
	}

	return &DocumentUploadResult{
		ContentHash: contentHash,
		Key:         key,
		Size:        int64(len(fileBytes)),
	}, nil
}

func (s *StorageService) writeLocal(key string, fileBytes []byte) error {
	path := filepath.Join("uploads", key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(path, fileBytes, 0o644); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	return nil
}
