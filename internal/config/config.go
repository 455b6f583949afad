package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
)

const (
	ArchiveBackendDrive = "drive"
	ArchiveBackendMinio = "minio"
)

type Config struct {
	// Application
	Version     string
	Environment string
	Port        int
	LogLevel    string

	// Logdy (lightweight web log viewer)
	LogdyEnabled bool
	LogdyHost    string
	LogdyPort    int

	// Detection
	ModelWeights      string
	ModelInputSize    int
	NMSThreshold      float64
	AccidentClassID   int
	AccidentThreshold float64
	CooldownSeconds   float64
	DefaultFPS        float64

	// Sources
	VideoDir       string
	ScratchDir     string
	ThumbnailDir   string
	ThumbnailWidth int

	// Clip extraction (fixed re-encode profile)
	FFmpegPath       string
	ClipLeadSeconds  float64
	ClipTailSeconds  float64
	ClipWidth        int
	ClipPreset       string
	ClipCRF          int
	ClipAudioBitrate string

	// Backend
	BackendURL     string
	CamerasURL     string
	InternalSecret string
	BackendTimeout time.Duration

	// Archive
	ArchiveBackend       string
	DriveCredentialsFile string
	DriveRootFolderID    string
	MinioEndpoint        string
	MinioAccessKey       string
	MinioSecretKey       string
	MinioBucket          string
	MinioUseSSL          bool
	MinioURLExpiry       time.Duration

	// Pipeline
	ScanWorkers         int
	ScanQueueSize       int
	DispatchConcurrency int

	// NATS (optional outcome events)
	NatsEnabled         bool
	NatsURL             string
	NatsConnectTimeout  time.Duration
	NatsReconnectWait   time.Duration
	NatsMaxReconnects   int
	NatsDispatchSubject string
	NatsScanSubject     string

	// gRPC health service
	GRPCHealthEnabled bool
	GRPCHealthPort    int

	// Swagger Configuration
	SwaggerHost string

	// Graceful Shutdown
	ShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("No .env file found or error loading .env file, using environment variables and defaults")
	} else {
		log.Info().Msg("Loaded configuration from .env file")
	}

	scratchDir := getEnv("SCRATCH_DIR", os.TempDir())

	return &Config{
		// Application
		Version:     getEnv("VERSION", "1.0.0"),
		Environment: getEnv("ENVIRONMENT", "development"),
		Port:        getEnvInt("PORT", 8000),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		// Logdy
		LogdyEnabled: getEnvBool("LOGDY_ENABLED", false),
		LogdyHost:    getEnv("LOGDY_HOST", "localhost"),
		LogdyPort:    getEnvInt("LOGDY_PORT", 8080),

		// Detection
		ModelWeights:      getEnv("YOLO_WEIGHTS", ""),
		ModelInputSize:    getEnvInt("MODEL_INPUT_SIZE", 640),
		NMSThreshold:      getEnvFloat("NMS_THRESHOLD", 0.45),
		AccidentClassID:   getEnvInt("ACCIDENT_CLASS_ID", 0),
		AccidentThreshold: getEnvFloat("ACCIDENT_THRESHOLD", 0.7),
		CooldownSeconds:   getEnvFloat("COOLDOWN_SECONDS", 20),
		DefaultFPS:        getEnvFloat("DEFAULT_FPS", 30),

		// Sources
		VideoDir:       getEnv("VIDEO_DIR", ""),
		ScratchDir:     scratchDir,
		ThumbnailDir:   getEnv("THUMBNAIL_DIR", filepath.Join(scratchDir, "thumbnails")),
		ThumbnailWidth: getEnvInt("THUMBNAIL_WIDTH", 320),

		// Clip extraction
		FFmpegPath:       getEnv("FFMPEG_PATH", "ffmpeg"),
		ClipLeadSeconds:  getEnvFloat("CLIP_LEAD_SECONDS", 7),
		ClipTailSeconds:  getEnvFloat("CLIP_TAIL_SECONDS", 8),
		ClipWidth:        getEnvInt("CLIP_WIDTH", 640),
		ClipPreset:       getEnv("CLIP_PRESET", "fast"),
		ClipCRF:          getEnvInt("CLIP_CRF", 28),
		ClipAudioBitrate: getEnv("CLIP_AUDIO_BITRATE", "96k"),

		// Backend
		BackendURL:     getEnv("INTERNAL_BACKEND_URL", ""),
		CamerasURL:     getEnv("INTERNAL_CAMERAS_URL", ""),
		InternalSecret: getEnv("INTERNAL_SECRET", ""),
		BackendTimeout: getEnvDuration("BACKEND_TIMEOUT", 10*time.Second),

		// Archive
		ArchiveBackend:       strings.ToLower(getEnv("ARCHIVE_BACKEND", ArchiveBackendDrive)),
		DriveCredentialsFile: getEnv("DRIVE_CREDENTIALS_FILE", "/app/credentials/drive_sa.json"),
		DriveRootFolderID:    getEnv("DRIVE_ROOT_FOLDER_ID", ""),
		MinioEndpoint:        getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey:       getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:       getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:          getEnv("MINIO_BUCKET", "accident-clips"),
		MinioUseSSL:          getEnvBool("MINIO_USE_SSL", false),
		MinioURLExpiry:       getEnvDuration("MINIO_URL_EXPIRY", 7*24*time.Hour),

		// Pipeline
		ScanWorkers:         getEnvInt("SCAN_WORKERS", 2),
		ScanQueueSize:       getEnvInt("SCAN_QUEUE_SIZE", 16),
		DispatchConcurrency: getEnvInt("DISPATCH_CONCURRENCY", 4),

		// NATS
		NatsEnabled:         getEnvBool("NATS_ENABLED", false),
		NatsURL:             getNatsURL(),
		NatsConnectTimeout:  getEnvDuration("NATS_CONNECT_TIMEOUT", 10*time.Second),
		NatsReconnectWait:   getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		NatsMaxReconnects:   getEnvInt("NATS_MAX_RECONNECTS", -1), // -1 = unlimited
		NatsDispatchSubject: getEnv("NATS_DISPATCH_SUBJECT", "accidents.dispatch"),
		NatsScanSubject:     getEnv("NATS_SCAN_SUBJECT", "accidents.scan"),

		// gRPC health
		GRPCHealthEnabled: getEnvBool("GRPC_HEALTH_ENABLED", false),
		GRPCHealthPort:    getEnvInt("GRPC_HEALTH_PORT", 50051),

		SwaggerHost: getEnv("SWAGGER_HOST", "localhost:8000"),

		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
	}
}

// Validate reports every missing or out-of-range setting at once.
func (c *Config) Validate() error {
	var errs []error

	required := map[string]string{
		"VIDEO_DIR":            c.VideoDir,
		"INTERNAL_BACKEND_URL": c.BackendURL,
		"INTERNAL_SECRET":      c.InternalSecret,
		"YOLO_WEIGHTS":         c.ModelWeights,
	}
	switch c.ArchiveBackend {
	case ArchiveBackendDrive:
		required["DRIVE_CREDENTIALS_FILE"] = c.DriveCredentialsFile
		required["DRIVE_ROOT_FOLDER_ID"] = c.DriveRootFolderID
	case ArchiveBackendMinio:
		required["MINIO_ENDPOINT"] = c.MinioEndpoint
		required["MINIO_ACCESS_KEY"] = c.MinioAccessKey
		required["MINIO_SECRET_KEY"] = c.MinioSecretKey
		required["MINIO_BUCKET"] = c.MinioBucket
	default:
		errs = append(errs, fmt.Errorf("ARCHIVE_BACKEND must be %q or %q, got %q", ArchiveBackendDrive, ArchiveBackendMinio, c.ArchiveBackend))
	}
	keys := lo.Keys(required)
	slices.Sort(keys)
	for _, key := range keys {
		if required[key] == "" {
			errs = append(errs, fmt.Errorf("%s is required", key))
		}
	}

	if c.AccidentThreshold <= 0 || c.AccidentThreshold > 1 {
		errs = append(errs, fmt.Errorf("ACCIDENT_THRESHOLD must be in (0,1], got %v", c.AccidentThreshold))
	}
	if c.CooldownSeconds < 0 {
		errs = append(errs, fmt.Errorf("COOLDOWN_SECONDS must be >= 0, got %v", c.CooldownSeconds))
	}
	if c.ScanWorkers < 1 || c.ScanQueueSize < 1 || c.DispatchConcurrency < 1 {
		errs = append(errs, errors.New("SCAN_WORKERS, SCAN_QUEUE_SIZE and DISPATCH_CONCURRENCY must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// Helper functions for Docker environment detection
func isRunningInDocker() bool {
	if os.Getenv("DOCKER_CONTAINER") == "true" {
		return true
	}

	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	return false
}

// getNatsURL returns the appropriate NATS URL based on environment
func getNatsURL() string {
	if envURL := os.Getenv("NATS_URL"); envURL != "" {
		return envURL
	}

	if isRunningInDocker() {
		return "nats://nats:4222"
	}

	return "nats://localhost:4222"
}
