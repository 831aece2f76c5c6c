// internal/app/bootstrap/config.go
package bootstrap

import (
	"errors"
	"fmt"
	"strings"
	"time"

	otpstore "github.com/dalemusser/stratasite/internal/app/store/otp"
	"github.com/dalemusser/stratasite/internal/app/system/apicors"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// EnvVarPrefix is the prefix for environment variables.
const EnvVarPrefix = "STRATASITE"

// DefaultContentDomains are the site pages served when content_domains is unset.
const DefaultContentDomains = "home,about,services,blog,team,faq,siteconfig,contact"

// appConfigKeys defines the configuration keys for this application.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, jwt_secret, etc.
//   - Environment variables: STRATASITE_MONGO_URI, STRATASITE_JWT_SECRET, etc.
//   - Command-line flags: --mongo_uri, --jwt_secret, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "stratasite", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	// Session tokens
	{Name: "jwt_secret", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "JWT signing secret (32+ chars in production)"},
	{Name: "jwt_expiry", Default: "1h", Desc: "Admin token lifetime (e.g., 1h, 30m)"},
	{Name: "jwt_issuer", Default: "stratasite", Desc: "JWT issuer claim"},

	{Name: "admin_email", Default: "", Desc: "The only email allowed to register and log in as admin"},

	// One-time codes
	{Name: "redis_url", Default: "", Desc: "Redis URL for OTP storage (blank uses MongoDB)"},
	{Name: "otp_ttl", Default: "10m", Desc: "OTP validity (e.g., 10m, 5m)"},
	{Name: "otp_max_attempts", Default: otpstore.DefaultMaxAttempts, Desc: "Wrong codes before a pending OTP is discarded (0 = unlimited)"},

	// Proxy
	{Name: "trust_proxy", Default: false, Desc: "Trust X-Forwarded-For/X-Real-IP (only behind a reverse proxy)"},

	// Rate limiting configuration
	{Name: "rate_limit_enabled", Default: true, Desc: "Enable lockout after repeated failed logins"},
	{Name: "rate_limit_login_attempts", Default: 5, Desc: "Max failed login attempts before lockout"},
	{Name: "rate_limit_login_window", Default: "15m", Desc: "Time window for counting failed attempts"},
	{Name: "rate_limit_login_lockout", Default: "15m", Desc: "Lockout duration after exceeding limit"},
	{Name: "auth_rate_per_minute", Default: 30, Desc: "Requests per minute per IP on /admin endpoints (0 disables)"},

	// Content
	{Name: "content_domains", Default: DefaultContentDomains, Desc: "Comma-separated content domains"},
	{Name: "max_content_bytes", Default: 256 << 10, Desc: "Max serialized size of one section's content"},
	{Name: "max_body_bytes", Default: 1 << 20, Desc: "Max JSON request body size"},

	// Uploads
	{Name: "upload_max_bytes", Default: 5 << 20, Desc: "Max size of one uploaded image"},
	{Name: "upload_max_files", Default: 10, Desc: "Max multipart parts per upload request"},

	{Name: "cors_origins", Default: "", Desc: "Comma-separated CORS origins (blank uses WAFFLE core CORS)"},

	// File storage configuration
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads", Desc: "Local storage path for uploaded files"},
	{Name: "storage_local_url", Default: "/uploads", Desc: "URL prefix for serving local files"},
	{Name: "storage_public_url", Default: "", Desc: "Prefix written into documents for uploaded files (blank derives it)"},

	// S3/CloudFront configuration
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "uploads/", Desc: "S3 key prefix"},
	{Name: "storage_cf_url", Default: "", Desc: "CloudFront distribution URL"},
	{Name: "storage_cf_keypair_id", Default: "", Desc: "CloudFront key pair ID"},
	{Name: "storage_cf_key_path", Default: "", Desc: "Path to CloudFront private key file"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@example.com", Desc: "From email address"},
	{Name: "mail_from_name", Default: "Stratasite", Desc: "From display name"},

	// Admin seeding configuration
	{Name: "seed_admin_name", Default: "Admin", Desc: "Name of the admin account created on startup"},
	{Name: "seed_admin_password", Default: "", Desc: "Password for the admin account created on startup (blank skips seeding)"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// WAFFLE_* and STRATASITE_* environment variables, and flags with
// precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, EnvVarPrefix, appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		JWTSecret: appValues.String("jwt_secret"),
		JWTExpiry: appValues.Duration("jwt_expiry", time.Hour),
		JWTIssuer: appValues.String("jwt_issuer"),

		AdminEmail: strings.TrimSpace(appValues.String("admin_email")),

		RedisURL: strings.TrimSpace(appValues.String("redis_url")),
		OTPTTL:   appValues.Duration("otp_ttl", 10*time.Minute),

		OTPMaxAttempts: appValues.Int("otp_max_attempts"),
		TrustProxy:     appValues.Bool("trust_proxy"),

		// Rate limiting
		RateLimitEnabled:       appValues.Bool("rate_limit_enabled"),
		RateLimitLoginAttempts: appValues.Int("rate_limit_login_attempts"),
		RateLimitLoginWindow:   appValues.Duration("rate_limit_login_window", 15*time.Minute),
		RateLimitLoginLockout:  appValues.Duration("rate_limit_login_lockout", 15*time.Minute),
		AuthRatePerMinute:      appValues.Int("auth_rate_per_minute"),

		// Content
		ContentDomains:  splitList(appValues.String("content_domains")),
		MaxContentBytes: appValues.Int("max_content_bytes"),
		MaxBodyBytes:    int64(appValues.Int("max_body_bytes")),

		// Uploads
		UploadMaxBytes: int64(appValues.Int("upload_max_bytes")),
		UploadMaxFiles: appValues.Int("upload_max_files"),

		CORSOrigins: apicors.ParseOrigins(appValues.String("cors_origins")),

		// File storage
		StorageType:      appValues.String("storage_type"),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageLocalURL:  appValues.String("storage_local_url"),
		StoragePublicURL: appValues.String("storage_public_url"),

		// S3/CloudFront
		StorageS3Region:    appValues.String("storage_s3_region"),
		StorageS3Bucket:    appValues.String("storage_s3_bucket"),
		StorageS3Prefix:    appValues.String("storage_s3_prefix"),
		StorageCFURL:       appValues.String("storage_cf_url"),
		StorageCFKeyPairID: appValues.String("storage_cf_keypair_id"),
		StorageCFKeyPath:   appValues.String("storage_cf_key_path"),

		// Email/SMTP
		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		// Admin seeding
		SeedAdminName:     appValues.String("seed_admin_name"),
		SeedAdminPassword: appValues.String("seed_admin_password"),
	}
	if len(appCfg.ContentDomains) == 0 {
		appCfg.ContentDomains = splitList(DefaultContentDomains)
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if auth.IsWeakSecret(appCfg.JWTSecret) {
		if coreCfg.Env == "prod" {
			return errors.New("jwt_secret is too weak for production (use 32+ random characters)")
		}
		logger.Warn("jwt_secret looks like a placeholder; set a strong secret before deploying")
	}
	if appCfg.JWTExpiry <= 0 {
		return errors.New("jwt_expiry must be positive")
	}

	if appCfg.AdminEmail == "" {
		return errors.New("admin_email is required")
	}

	if appCfg.RedisURL != "" {
		if _, err := redis.ParseURL(appCfg.RedisURL); err != nil {
			return fmt.Errorf("invalid redis_url: %w", err)
		}
	}

	if appCfg.OTPMaxAttempts < 0 {
		return errors.New("otp_max_attempts must not be negative")
	}

	if appCfg.MaxContentBytes <= 0 || appCfg.MaxBodyBytes <= 0 || appCfg.UploadMaxBytes <= 0 {
		return errors.New("max_content_bytes, max_body_bytes and upload_max_bytes must be positive")
	}
	if appCfg.UploadMaxFiles <= 0 {
		return errors.New("upload_max_files must be positive")
	}

	for _, d := range appCfg.ContentDomains {
		if !validDomain(d) {
			return fmt.Errorf("invalid content domain %q", d)
		}
		if reservedMounts[d] {
			return fmt.Errorf("content domain %q collides with a built-in route", d)
		}
	}

	return nil
}

// reservedMounts are top-level paths owned by other features.
var reservedMounts = map[string]bool{
	"admin": true, "posts": true, "contact-form": true, "health": true,
	"ready": true, "live": true, "uploads": true,
}

func validDomain(d string) bool {
	if d == "" || len(d) > 64 {
		return false
	}
	for _, c := range d {
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}

func splitList(s string) []string {
	var out []string
	seen := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		out = append(out, p)
	}
	return out
}
