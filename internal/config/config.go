package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Video backend selection: "bunny", "cloudflare" or "s3"
	VideoBackend string

	// S3-compatible storage configuration (R2, GCS interop, Object Storage)
	S3Endpoint    string
	S3Region      string
	SAKeyID       string
	SAKey         string
	VideoBucket   string
	StagingBucket string

	// Bunny Stream configuration
	BunnyLibraryID    string
	BunnyAPIKey       string
	BunnyCDNHostname  string
	BunnyTokenAuthKey string

	// Cloudflare Stream configuration
	CFAccountID         string
	CFAPIToken          string
	CFCustomerSubdomain string

	// YDB configuration
	YDBEndpoint         string
	YDBDatabasePath     string
	YDBAutoCreateTables int

	// Token signing
	JWTSecretKey string
	GrantTTL     time.Duration
	UploadTTL    time.Duration

	// Session policy
	DefaultMaxSessions int
	SessionTimeout     time.Duration
	StagingWindow      time.Duration

	// Scheduled task trigger authentication
	SchedulerToken string

	// Telegram alerting
	TelegramBotToken    string
	TelegramAdminChatID string

	// Email/Postbox configuration for transcode notifications
	PostboxEndpoint        string
	PostboxRegion          string
	PostboxAccessKeyID     string
	PostboxSecretAccessKey string
	EmailFrom              string
	OpsEmail               string

	// HTTP configuration
	HTTPPort string
}

func Load() *Config {
	s3Endpoint := getEnv("S3_ENDPOINT", "https://storage.yandexcloud.net")
	if s3Endpoint == "" {
		s3Endpoint = "https://storage.yandexcloud.net"
	}
	if !strings.HasPrefix(s3Endpoint, "http://") && !strings.HasPrefix(s3Endpoint, "https://") {
		s3Endpoint = "https://" + s3Endpoint
		log.Printf("WARN: S3_ENDPOINT was missing a protocol scheme. Prepending 'https://'. New endpoint: %s", s3Endpoint)
	}

	// A missing signing secret must never fall back to a usable default:
	// every grant the process issues would be forgeable.
	secret := os.Getenv("VB_JWT_SECRET_KEY")
	if secret == "" {
		log.Fatal("FATAL: VB_JWT_SECRET_KEY is not set. Refusing to start with an insecure signing secret.")
	}

	return &Config{
		VideoBackend: getEnv("VB_VIDEO_BACKEND", "bunny"),

		S3Endpoint:    s3Endpoint,
		S3Region:      getEnv("VB_S3_REGION", "ru-central1"),
		SAKeyID:       getEnv("VB_SA_KEY_ID", ""),
		SAKey:         getEnv("VB_SA_KEY", ""),
		VideoBucket:   getEnv("VB_VIDEO_BUCKET", ""),
		StagingBucket: getEnv("VB_STAGING_BUCKET", ""),

		BunnyLibraryID:    getEnv("BUNNY_LIBRARY_ID", ""),
		BunnyAPIKey:       getEnv("BUNNY_API_KEY", ""),
		BunnyCDNHostname:  getEnv("BUNNY_CDN_HOSTNAME", ""),
		BunnyTokenAuthKey: getEnv("BUNNY_TOKEN_AUTH_KEY", ""),

		CFAccountID:         getEnv("CF_ACCOUNT_ID", ""),
		CFAPIToken:          getEnv("CF_API_TOKEN", ""),
		CFCustomerSubdomain: getEnv("CF_CUSTOMER_SUBDOMAIN", ""),

		YDBEndpoint:         getEnv("VB_YDB_ENDPOINT", ""),
		YDBDatabasePath:     getEnv("VB_YDB_DATABASE_PATH", ""),
		YDBAutoCreateTables: getEnvInt("VB_YDB_AUTO_CREATE_TABLES", 0, 0, 1),

		JWTSecretKey: secret,
		GrantTTL:     time.Duration(getEnvInt("VB_GRANT_TTL_MINUTES", 240, 1, 1440)) * time.Minute,
		UploadTTL:    time.Duration(getEnvInt("VB_UPLOAD_TTL_MINUTES", 60, 1, 240)) * time.Minute,

		DefaultMaxSessions: getEnvInt("VB_DEFAULT_MAX_SESSIONS", 2, 1, 10),
		SessionTimeout:     time.Duration(getEnvInt("VB_SESSION_TIMEOUT_MINUTES", 240, 5, 1440)) * time.Minute,
		StagingWindow:      time.Duration(getEnvInt("VB_STAGING_WINDOW_MINUTES", 30, 5, 240)) * time.Minute,

		SchedulerToken: getEnv("VB_SCHEDULER_TOKEN", ""),

		TelegramBotToken:    getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramAdminChatID: getEnv("TELEGRAM_CHAT_ID", ""),

		PostboxEndpoint:        getEnv("VB_POSTBOX_ENDPOINT", ""),
		PostboxRegion:          getEnv("VB_POSTBOX_REGION", ""),
		PostboxAccessKeyID:     getEnv("VB_POSTBOX_ACCESS_KEY_ID", ""),
		PostboxSecretAccessKey: getEnv("VB_POSTBOX_SECRET_ACCESS_KEY", ""),
		EmailFrom:              getEnv("VB_EMAIL_FROM", ""),
		OpsEmail:               getEnv("VB_OPS_EMAIL", ""),

		HTTPPort: getEnv("VB_HTTP_PORT", "8080"),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback, min, max int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			if n < min {
				return min
			}
			if n > max {
				return max
			}
			return n
		}
		log.Printf("WARN: %s=%q is not an integer, using default %d", key, v, fallback)
	}

	if fallback < min {
		return min
	}
	if fallback > max {
		return max
	}
	return fallback
}
