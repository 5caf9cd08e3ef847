package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/rs/zerolog/log"

	"github.com/evn/absen_backend/config"
)

// OSSStore stores photos in an Aliyun OSS bucket. Objects are private and
// read through presigned GET URLs.
type OSSStore struct {
	bucket *oss.Bucket
	prefix string
}

func NewOSSStore(cfg config.OSSConfig) (*OSSStore, error) {
	if cfg.Endpoint == "" || cfg.AccessKeyID == "" || cfg.AccessKeySecret == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("missing env: ALI_OSS_ENDPOINT/ACCESS_KEY/SECRET_KEY/BUCKET")
	}
	client, err := oss.New(cfg.Endpoint, cfg.AccessKeyID, cfg.AccessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bkt, err := client.Bucket(cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("client.Bucket: %w", err)
	}
	log.Info().Str("bucket", cfg.Bucket).Msg("oss storage ready")
	return &OSSStore{bucket: bkt, prefix: strings.Trim(cfg.Prefix, "/")}, nil
}

func (s *OSSStore) objectKey(key string) string {
	if s.prefix == "" {
		return key
	}
	return s.prefix + "/" + key
}

func (s *OSSStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	opts := []oss.Option{
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.ObjectACL(oss.ACLPrivate),
	}
	if err := s.bucket.PutObject(s.objectKey(key), bytes.NewReader(data), opts...); err != nil {
		return fmt.Errorf("oss put: %w", err)
	}
	return nil
}

func (s *OSSStore) SignedURL(_ context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.bucket.SignURL(s.objectKey(key), oss.HTTPGet, int64(ttl.Seconds()))
	if err != nil {
		return "", fmt.Errorf("oss sign: %w", err)
	}
	return u, nil
}
