// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	adminfeature "github.com/dalemusser/stratasite/internal/app/features/admin"
	contactfeature "github.com/dalemusser/stratasite/internal/app/features/contact"
	contentfeature "github.com/dalemusser/stratasite/internal/app/features/content"
	healthfeature "github.com/dalemusser/stratasite/internal/app/features/health"
	postsfeature "github.com/dalemusser/stratasite/internal/app/features/posts"
	adminstore "github.com/dalemusser/stratasite/internal/app/store/admins"
	contactstore "github.com/dalemusser/stratasite/internal/app/store/contact"
	contentstore "github.com/dalemusser/stratasite/internal/app/store/content"
	otpstore "github.com/dalemusser/stratasite/internal/app/store/otp"
	poststore "github.com/dalemusser/stratasite/internal/app/store/posts"
	"github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	revokedstore "github.com/dalemusser/stratasite/internal/app/store/revoked"
	"github.com/dalemusser/stratasite/internal/app/system/apicors"
	"github.com/dalemusser/stratasite/internal/app/system/apperr"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/throttle"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/middleware"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// otpKeyPrefix namespaces OTP keys in a shared Redis.
const otpKeyPrefix = "stratasite:otp:"

// BuildHandler constructs the root HTTP handler for this WAFFLE app.
//
// Route layout:
//   - /health, /ready, /live             probes
//   - /uploads/*                         local uploads (local storage only)
//   - /{domain}, /{domain}/{section}     page content, one router per domain
//   - /admin/*                           account, token and OTP endpoints
//   - /posts/*                           blog posts
//   - /contact-form/*                    contact submissions
//
// Reads are public. Writes require "Authorization: Bearer <token>".
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase
	exposeDetail := coreCfg.Env != "prod"

	tokens := auth.NewTokenManager(appCfg.JWTSecret, appCfg.JWTIssuer, appCfg.JWTExpiry)
	admins := adminstore.New(db)
	revoked := revokedstore.New(db)
	authn := auth.NewAuthenticator(tokens, adminstore.NewFetcher(db, logger), revoked, logger)

	r := chi.NewRouter()

	// ─────────────────────────────────────────────────────────────────────────────
	// Global Middleware (applies to ALL routes)
	// ─────────────────────────────────────────────────────────────────────────────

	// Client address from proxy headers, only when a trusted proxy sets them.
	if appCfg.TrustProxy {
		r.Use(chimw.RealIP)
	}

	// Request timeout middleware: prevents requests from hanging indefinitely.
	r.Use(chimw.Timeout(30 * time.Second))

	// CORS must run before routing so preflight requests are answered.
	if len(appCfg.CORSOrigins) > 0 {
		r.Use(apicors.Middleware(appCfg.CORSOrigins))
	} else {
		r.Use(middleware.CORSFromConfig(coreCfg))
	}

	// Security headers middleware: adds X-Frame-Options, X-Content-Type-Options, etc.
	r.Use(middleware.SecurityHeadersFromConfig(coreCfg))

	// ─────────────────────────────────────────────────────────────────────────────
	// Routes
	// ─────────────────────────────────────────────────────────────────────────────

	// Health check endpoints for load balancers and orchestrators
	checks := []healthfeature.Check{healthfeature.MongoCheck(deps.MongoClient)}
	if deps.Redis != nil {
		checks = append(checks, healthfeature.RedisCheck(deps.Redis))
	}
	healthHandler := healthfeature.NewHandler(logger, checks...)
	r.Mount("/health", healthfeature.Routes(healthHandler))
	healthfeature.MountRootEndpoints(r, healthHandler)

	// Uploaded files (local storage only)
	if appCfg.StorageType == "local" || appCfg.StorageType == "" {
		r.Handle(appCfg.StorageLocalURL+"/*", fileserver.Handler(appCfg.StorageLocalURL, appCfg.StorageLocalPath))
	}

	// Admin accounts. OTP codes go to Redis when configured, else MongoDB.
	var otp otpstore.Store
	if deps.Redis != nil {
		otp = otpstore.NewRedis(deps.Redis, otpKeyPrefix, appCfg.OTPMaxAttempts)
	} else {
		otp = otpstore.NewMongo(db, appCfg.OTPMaxAttempts)
	}

	// Persistent login lockout (nil if disabled)
	var lockout *ratelimit.Store
	if appCfg.RateLimitEnabled {
		lockout = ratelimit.New(
			db,
			appCfg.RateLimitLoginAttempts,
			appCfg.RateLimitLoginWindow,
			appCfg.RateLimitLoginLockout,
		)
	}

	adminSvc := adminfeature.NewService(adminfeature.Deps{
		Admins:  admins,
		OTP:     otp,
		Limiter: lockout,
		Revoked: revoked,
		Tokens:  tokens,
		Assets:  deps.Assets,
		Mail:    deps.Mailer,
	}, adminfeature.Config{
		AllowedEmail: appCfg.AdminEmail,
		SiteName:     appCfg.MailFromName,
		OTPTTL:       appCfg.OTPTTL,
	}, logger)
	adminHandler := adminfeature.NewHandler(adminSvc, exposeDetail, appCfg.MaxBodyBytes, appCfg.UploadMaxBytes, logger)

	var authLimit func(http.Handler) http.Handler
	if appCfg.AuthRatePerMinute > 0 {
		authLimit = throttle.New(appCfg.AuthRatePerMinute, 0, logger).Middleware
	}
	r.Mount("/admin", adminfeature.Routes(adminHandler, authn.Require, authLimit))

	// Blog posts
	postsSvc := postsfeature.NewService(poststore.New(db), deps.Assets, logger)
	postsHandler := postsfeature.NewHandler(postsSvc, exposeDetail, appCfg.MaxBodyBytes, appCfg.UploadMaxBytes, logger)
	r.Mount("/posts", postsfeature.Routes(postsHandler, authn.Require))

	// Contact form
	contactHandler := contactfeature.NewHandler(
		contactstore.New(db),
		deps.Mailer,
		appCfg.AdminEmail,
		appCfg.MailFromName,
		exposeDetail,
		appCfg.MaxBodyBytes,
		logger,
	)
	r.Mount("/contact-form", contactfeature.Routes(contactHandler, authn.Require))

	// Page content: every domain shares one collection and one handler set.
	sections := contentstore.New(db)
	contentSvc := contentfeature.NewService(sections, deps.Assets, appCfg.MaxContentBytes, logger)
	contentCfg := contentfeature.Config{
		ExposeDetail:   exposeDetail,
		MaxBodyBytes:   appCfg.MaxBodyBytes,
		MaxUploadBytes: appCfg.UploadMaxBytes,
		MaxFiles:       appCfg.UploadMaxFiles,
	}
	for _, domain := range appCfg.ContentDomains {
		h := contentfeature.NewHandler(domain, contentSvc, contentCfg, logger)
		r.Mount("/"+h.Page(), contentfeature.Routes(h, authn.Require))
	}
	logger.Info("content domains mounted", zap.Strings("domains", appCfg.ContentDomains))

	// 404 / 405 as JSON
	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.WriteError(w, apperr.New(apperr.NotFound, "Route not found"), false)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		jsonutil.Error(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	return r, nil
}
