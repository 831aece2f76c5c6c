// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// Values come from environment variables (STRATASITE_*), config files, or
// command-line flags; see LoadConfig. WAFFLE's CoreConfig still owns
// ports, TLS, log level, core CORS and request body limits.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64 // Maximum connections in pool (default: 100)
	MongoMinPoolSize uint64 // Minimum connections to keep warm (default: 10)

	// Session tokens
	JWTSecret string        // HS256 signing secret (32+ chars in production)
	JWTExpiry time.Duration // Token lifetime (default: 1h)
	JWTIssuer string        // "iss" claim

	// AdminEmail is the single address allowed to register and log in.
	// Contact form notifications are also sent here.
	AdminEmail string

	// One-time codes
	RedisURL string        // Redis URL for the OTP store; empty keeps codes in MongoDB
	OTPTTL   time.Duration // How long an issued code stays valid (default: 10m)
	// OTPMaxAttempts wrong codes discard a pending code; 0 never discards.
	OTPMaxAttempts int

	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a reverse proxy that sets them.
	TrustProxy bool

	// Login lockout (persistent, per email)
	RateLimitEnabled       bool
	RateLimitLoginAttempts int
	RateLimitLoginWindow   time.Duration
	RateLimitLoginLockout  time.Duration

	// AuthRatePerMinute limits requests per IP on /admin/* (0 disables).
	AuthRatePerMinute int

	// Content
	ContentDomains  []string // One content router is mounted per domain
	MaxContentBytes int      // Ceiling on serialized section content
	MaxBodyBytes    int64    // Ceiling on JSON request bodies

	// Uploads
	UploadMaxBytes int64
	UploadMaxFiles int

	// CORSOrigins enables the allow-list CORS middleware when non-empty.
	CORSOrigins []string

	// File storage configuration
	StorageType      string // Storage backend: "local" or "s3"
	StorageLocalPath string // Local storage path (e.g., "./uploads")
	StorageLocalURL  string // URL prefix for serving local files (e.g., "/uploads")
	StoragePublicURL string // Prefix stored in documents; defaults to the local URL or CloudFront URL

	// S3/CloudFront configuration (only used if StorageType is "s3")
	StorageS3Region    string
	StorageS3Bucket    string
	StorageS3Prefix    string
	StorageCFURL       string
	StorageCFKeyPairID string
	StorageCFKeyPath   string

	// Email/SMTP configuration
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string // Also used as the site name in mail bodies

	// Admin seeding (creates the AdminEmail account on startup when the
	// password is set and no account exists yet)
	SeedAdminName     string
	SeedAdminPassword string
}
