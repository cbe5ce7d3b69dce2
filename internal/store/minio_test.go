package store

import (
	"strings"
	"testing"
)

func TestNewMinioArtifactStore_Validation(t *testing.T) {
	t.Run("missing endpoint", func(t *testing.T) {
		_, err := NewMinioArtifactStore(MinioConfig{Bucket: "b"}, nil)
		if err == nil || !strings.Contains(err.Error(), "endpoint") {
			t.Errorf("error = %v, want endpoint error", err)
		}
	})

	t.Run("missing bucket", func(t *testing.T) {
		_, err := NewMinioArtifactStore(MinioConfig{Endpoint: "localhost:9000"}, nil)
		if err == nil || !strings.Contains(err.Error(), "bucket") {
			t.Errorf("error = %v, want bucket error", err)
		}
	})

	t.Run("valid config", func(t *testing.T) {
		s, err := NewMinioArtifactStore(MinioConfig{
			Endpoint:  "localhost:9000",
			AccessKey: "test",
			SecretKey: "test",
			Bucket:    "tabled-artifacts",
		}, nil)
		if err != nil {
			t.Fatalf("NewMinioArtifactStore() error = %v", err)
		}
		if s == nil {
			t.Fatal("store is nil")
		}
	})
}

func TestMinioObjectKeys(t *testing.T) {
	if got := ImageKey("j1", "cat.PNG"); got != "j1/j1.png" {
		t.Errorf("ImageKey() = %q, want %q", got, "j1/j1.png")
	}
	if got := ResultKey("j1"); got != "j1/j1.xml" {
		t.Errorf("ResultKey() = %q, want %q", got, "j1/j1.xml")
	}
}
