package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectPath(t *testing.T) {
	tests := []struct {
		prefix, owner, name string
		want                string
	}{
		{"reports", "user_123", "Santa_Clara_Water_Report_20250101_101500.pdf", "reports/user_123/Santa_Clara_Water_Report_20250101_101500.pdf"},
		{"photos", "../../etc", "passwd", "photos/etc/passwd"},
		{"photos", "", "a.png", "photos/anonymous/a.png"},
		{"tips", "u", "nested/dir/img.png", "tips/u/img.png"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ObjectPath(tc.prefix, tc.owner, tc.name))
	}
}

func TestNewServiceRequiresBucket(t *testing.T) {
	_, err := NewService(context.Background(), Config{})
	assert.Error(t, err)
}

func TestEmulatorSignedURL(t *testing.T) {
	svc, err := NewService(context.Background(), Config{Bucket: "eco-reports", Endpoint: "http://localhost:4443/"})
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close() })

	got, err := svc.SignedURL("reports/u/r.pdf", signedURLTTL)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:4443/download/storage/v1/b/eco-reports/o/reports%2Fu%2Fr.pdf?alt=media", got)
}
