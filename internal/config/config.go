package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Blob store backends.
const (
	BlobBackendDisk = "disk"
	BlobBackendS3   = "s3"
)

type Config struct {
	Port          int
	Password      string
	PasswordHash  string // bcrypt, ma pierwszeństwo przed Password
	DatabasePath  string
	LogDirectory  string
	LogLevel      string
	CameraDevice  string
	CameraLock    string // Plik blokady kamery (serwer i CLI)
	CaptureWidth  int
	CaptureHeight int
	ModelPath     string
	ConfigPath    string
	MinScore      float64 // Minimalna pewność detekcji (0-1)
	MaxDetections int

	CaptureRateLimit float64 // zdjęć na sekundę na klienta
	CaptureBurst     int

	BlobBackend   string // disk lub s3
	BlobDirectory string
	PublicBaseURL string // Adres pod którym serwowane są artefakty

	AWSRegion          string
	AWSBucket          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	AWSEndpoint        string
	S3PublicBaseURL    string
	PresignTTL         time.Duration
}

// Load reads an optional .env file and builds the configuration from the environment.
func Load() *Config {
	// Brak pliku .env nie jest błędem
	_ = godotenv.Load()

	port := getEnvAsInt("PORT", 8080)

	return &Config{
		Port:          port,
		Password:      getEnv("PASSWORD", "inventory"),
		PasswordHash:  getEnv("PASSWORD_HASH", ""),
		DatabasePath:  getEnv("DB_PATH", filepath.Join(".", "data", "inventory.db")),
		LogDirectory:  getEnv("LOG_DIR", filepath.Join(".", "logs")),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CameraDevice:  getEnv("CAMERA_DEVICE", "0"),
		CameraLock:    getEnv("CAMERA_LOCK_PATH", filepath.Join(os.TempDir(), "inventorycam-camera.lock")),
		CaptureWidth:  getEnvAsInt("CAPTURE_WIDTH", 640),
		CaptureHeight: getEnvAsInt("CAPTURE_HEIGHT", 480),
		ModelPath:     getEnv("MODEL_PATH", filepath.Join(".", "models", "frozen_inference_graph.pb")),
		ConfigPath:    getEnv("MODEL_CONFIG_PATH", filepath.Join(".", "models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt")),
		MinScore:      getEnvAsFloat("MIN_SCORE", 0.5),
		MaxDetections: getEnvAsInt("MAX_DETECTIONS", 20),

		CaptureRateLimit: getEnvAsFloat("CAPTURE_RATE_LIMIT", 1),
		CaptureBurst:     getEnvAsInt("CAPTURE_BURST", 3),

		BlobBackend:   getEnv("BLOB_BACKEND", BlobBackendDisk),
		BlobDirectory: getEnv("BLOB_DIR", filepath.Join(".", "artifacts")),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:"+strconv.Itoa(port)+"/artifacts"),

		AWSRegion:          getEnv("AWS_REGION", "us-east-1"),
		AWSBucket:          getEnv("AWS_BUCKET_NAME", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT", ""),
		S3PublicBaseURL:    getEnv("S3_PUBLIC_BASE_URL", ""),
		PresignTTL:         time.Duration(getEnvAsInt("S3_PRESIGN_TTL_MINUTES", 15)) * time.Minute,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}
