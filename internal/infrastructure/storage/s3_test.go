package storage

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestS3Storage_PresignedURL(t *testing.T) {
	s, err := NewS3Storage(S3Config{
		Endpoint:        "localhost:9000",
		AccessKeyID:     "minio",
		SecretAccessKey: "minio-secret",
		Bucket:          "reports",
		Region:          "us-east-1",
		Prefix:          "collections/",
	})
	require.NoError(t, err)

	raw, err := s.PresignedURL(context.Background(), "portfolio/t1/par.xlsx", 15*time.Minute)
	require.NoError(t, err)

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "http", u.Scheme)
	assert.Equal(t, "/reports/collections/portfolio/t1/par.xlsx", u.Path)
	assert.Equal(t, "900", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))
}

func TestNewS3Storage_RejectsBadEndpoint(t *testing.T) {
	_, err := NewS3Storage(S3Config{Endpoint: "http://localhost:9000", Bucket: "reports"})
	assert.Error(t, err)
}
