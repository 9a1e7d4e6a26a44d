package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"PORT", "CAPTURE_WIDTH", "CAPTURE_HEIGHT", "MIN_SCORE", "BLOB_BACKEND", "PUBLIC_BASE_URL", "S3_PRESIGN_TTL_MINUTES"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected port 8080, got %d", cfg.Port)
	}
	if cfg.CaptureWidth != 640 || cfg.CaptureHeight != 480 {
		t.Errorf("Expected 640x480 capture, got %dx%d", cfg.CaptureWidth, cfg.CaptureHeight)
	}
	if cfg.MinScore != 0.5 {
		t.Errorf("Expected min score 0.5, got %v", cfg.MinScore)
	}
	if cfg.BlobBackend != BlobBackendDisk {
		t.Errorf("Expected disk backend, got %s", cfg.BlobBackend)
	}
	if cfg.PublicBaseURL != "http://localhost:8080/artifacts" {
		t.Errorf("Unexpected public base URL: %s", cfg.PublicBaseURL)
	}
	if cfg.PresignTTL != 15*time.Minute {
		t.Errorf("Expected 15m presign TTL, got %v", cfg.PresignTTL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("MIN_SCORE", "0.75")
	t.Setenv("BLOB_BACKEND", "s3")
	t.Setenv("AWS_BUCKET_NAME", "pantry")
	t.Setenv("PUBLIC_BASE_URL", "")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.MinScore != 0.75 {
		t.Errorf("Expected min score 0.75, got %v", cfg.MinScore)
	}
	if cfg.BlobBackend != BlobBackendS3 || cfg.AWSBucket != "pantry" {
		t.Errorf("Unexpected blob settings: %s %s", cfg.BlobBackend, cfg.AWSBucket)
	}
	if cfg.PublicBaseURL != "http://localhost:9090/artifacts" {
		t.Errorf("Public base URL should follow port, got %s", cfg.PublicBaseURL)
	}
}

func TestGetEnvAsInt_Invalid(t *testing.T) {
	t.Setenv("CAPTURE_WIDTH", "wide")

	if got := getEnvAsInt("CAPTURE_WIDTH", 640); got != 640 {
		t.Errorf("getEnvAsInt with invalid value = %d, expected default", got)
	}
}
