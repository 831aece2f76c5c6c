// Package admin implements the single administrator's account: registration
// against an allow-listed address, password login issuing bearer tokens,
// password changes, profile edits and the one-time passcode challenge.
package admin

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	adminstore "github.com/dalemusser/stratasite/internal/app/store/admins"
	otpstore "github.com/dalemusser/stratasite/internal/app/store/otp"
	"github.com/dalemusser/stratasite/internal/app/store/ratelimit"
	"github.com/dalemusser/stratasite/internal/app/system/apperr"
	"github.com/dalemusser/stratasite/internal/app/system/assets"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/authutil"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.uber.org/zap"
)

// AvatarDomain is the storage prefix for profile pictures.
const AvatarDomain = "avatars"

// Revoker records logged-out tokens.
type Revoker interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
}

// Config holds the account policy.
type Config struct {
	// AllowedEmail is the only address that may register or log in.
	AllowedEmail string
	// SiteName appears in outgoing mail.
	SiteName string
	// OTPTTL is how long an issued code stays valid.
	OTPTTL time.Duration
}

// Deps bundles the collaborators a Service needs. Limiter may be nil to
// disable login lockout.
type Deps struct {
	Admins  *adminstore.Store
	OTP     otpstore.Store
	Limiter *ratelimit.Store
	Revoked Revoker
	Tokens  *auth.TokenManager
	Assets  *assets.Manager
	Mail    mailer.Sender
}

// Service implements the admin account operations.
type Service struct {
	admins  *adminstore.Store
	otp     otpstore.Store
	limiter *ratelimit.Store
	revoked Revoker
	tokens  *auth.TokenManager
	assets  *assets.Manager
	mail    mailer.Sender
	cfg     Config
	logger  *zap.Logger
}

// NewService creates an admin Service.
func NewService(d Deps, cfg Config, logger *zap.Logger) *Service {
	if cfg.OTPTTL <= 0 {
		cfg.OTPTTL = 10 * time.Minute
	}
	if cfg.SiteName == "" {
		cfg.SiteName = "Stratasite"
	}
	return &Service{
		admins:  d.Admins,
		otp:     d.OTP,
		limiter: d.Limiter,
		revoked: d.Revoked,
		tokens:  d.Tokens,
		assets:  d.Assets,
		mail:    d.Mail,
		cfg:     cfg,
		logger:  logger,
	}
}

// allowed reports whether email is the allow-listed address.
func (s *Service) allowed(email string) bool {
	return s.cfg.AllowedEmail != "" && text.Fold(normalize.Email(email)) == text.Fold(normalize.Email(s.cfg.AllowedEmail))
}

type registerInput struct {
	Name     string `validate:"required,max=200" label:"Name"`
	Email    string `validate:"required,email,max=254" label:"Email"`
	Password string `validate:"required" label:"Password"`
}

// Register creates the admin account.
func (s *Service) Register(ctx context.Context, name, email, password string) (*models.Admin, error) {
	if !s.allowed(email) {
		return nil, apperr.NewForbidden("Access denied")
	}
	in := registerInput{Name: normalize.Name(name), Email: normalize.Email(email), Password: password}
	if res := inputval.Validate(in); res.HasErrors() {
		return nil, apperr.NewValidation(res.First())
	}
	if err := authutil.ValidatePassword(password); err != nil {
		return nil, apperr.NewValidation(err.Error())
	}

	hash, err := authutil.HashPassword(password)
	if err != nil {
		return nil, apperr.NewInternal("Server error", err)
	}
	a, err := s.admins.Create(ctx, models.Admin{Name: in.Name, Email: in.Email, PasswordHash: hash})
	if errors.Is(err, adminstore.ErrDuplicateEmail) {
		return nil, apperr.NewConflict("Email already exists")
	}
	if err != nil {
		return nil, apperr.NewInternal("Server error", err)
	}
	s.logger.Info("admin registered", zap.String("admin_id", a.ID.Hex()))
	return a, nil
}

// Session is an issued bearer token.
type Session struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expiresAt"`
	Admin     *models.Admin `json:"admin"`
}

// Login checks credentials and issues a token. Unknown accounts and wrong
// passwords produce the same error.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	if !s.allowed(email) {
		return nil, apperr.NewForbidden("Access denied")
	}
	if email == "" || password == "" {
		return nil, apperr.NewValidation("Email and password are required")
	}
	key := normalize.Email(email)

	if s.limiter != nil {
		if ok, until := s.limiter.CheckAllowed(ctx, key); !ok {
			return nil, lockedErr(until)
		}
	}

	a, err := s.admins.GetByEmail(ctx, key)
	switch {
	case errors.Is(err, adminstore.ErrNotFound):
		authutil.BurnCompare(password)
		return nil, s.loginFailed(ctx, key)
	case err != nil:
		return nil, apperr.NewInternal("Server error", err)
	}
	if !authutil.CheckPassword(password, a.PasswordHash) {
		return nil, s.loginFailed(ctx, key)
	}

	if s.limiter != nil {
		if err := s.limiter.ClearOnSuccess(ctx, key); err != nil {
			s.logger.Warn("failed to clear login attempts", zap.Error(err))
		}
	}

	token, claims, err := s.tokens.Issue(a)
	if err != nil {
		return nil, apperr.NewInternal("Server error", err)
	}
	s.logger.Info("admin logged in", zap.String("admin_id", a.ID.Hex()))
	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, Admin: a}, nil
}

func (s *Service) loginFailed(ctx context.Context, key string) error {
	if s.limiter != nil {
		if locked, until := s.limiter.RecordFailure(ctx, key); locked {
			s.logger.Warn("admin login locked out", zap.Timep("locked_until", until))
			return lockedErr(until)
		}
	}
	return apperr.NewInvalidCredentials()
}

func lockedErr(until *time.Time) error {
	msg := "Too many failed login attempts. Please try again later."
	if until != nil {
		if mins := int(time.Until(*until).Round(time.Minute).Minutes()); mins > 1 {
			msg = fmt.Sprintf("Too many failed login attempts. Please try again in %d minutes.", mins)
		}
	}
	return apperr.New(apperr.TooManyRequests, msg)
}

// ResetPassword overwrites the password of the account with email.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	if email == "" || newPassword == "" {
		return apperr.NewValidation("Email and new password are required")
	}
	if err := authutil.ValidatePassword(newPassword); err != nil {
		return apperr.NewValidation(err.Error())
	}
	hash, err := authutil.HashPassword(newPassword)
	if err != nil {
		return apperr.NewInternal("Server error", err)
	}
	err = s.admins.SetPasswordByEmail(ctx, email, hash)
	if errors.Is(err, adminstore.ErrNotFound) {
		return apperr.NewNotFound("Admin not found")
	}
	if err != nil {
		return apperr.NewInternal("Server error", err)
	}
	s.logger.Info("admin password reset")
	return nil
}

// SendOTP issues a new code for email, replacing any pending one, and
// mails it.
func (s *Service) SendOTP(ctx context.Context, email string) error {
	if email == "" {
		return apperr.NewValidation("Email is required")
	}
	a, err := s.admins.GetByEmail(ctx, email)
	if errors.Is(err, adminstore.ErrNotFound) {
		return apperr.NewNotFound("Admin not found")
	}
	if err != nil {
		return apperr.NewInternal("Server error", err)
	}

	code, err := otpstore.GenerateCode()
	if err != nil {
		return apperr.NewInternal("Server error", err)
	}
	if err := s.otp.Put(ctx, a.Email, code, s.cfg.OTPTTL); err != nil {
		return apperr.NewInternal("Server error", err)
	}

	textBody, htmlBody := mailer.OTPEmail(mailer.OTPEmailData{
		SiteName:  s.cfg.SiteName,
		Code:      code,
		ExpiryMin: int(s.cfg.OTPTTL / time.Minute),
	})
	if err := s.mail.Send(ctx, mailer.Email{
		To:       a.Email,
		Subject:  "Your verification code",
		TextBody: textBody,
		HTMLBody: htmlBody,
	}); err != nil {
		return apperr.NewInternal("Failed to send OTP", err)
	}
	return nil
}

// ResendOTP is SendOTP under another name; the new code replaces the old.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	return s.SendOTP(ctx, email)
}

// VerifyOTP consumes the pending code for email.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) error {
	if email == "" || code == "" {
		return apperr.NewValidation("Email and OTP are required")
	}
	err := s.otp.Consume(ctx, normalize.Email(email), code)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, otpstore.ErrNoChallenge):
		return apperr.New(apperr.Expired, "OTP has expired or not sent")
	case errors.Is(err, otpstore.ErrMismatch):
		return apperr.New(apperr.Invalid, "Invalid OTP")
	default:
		return apperr.NewInternal("Server error", err)
	}
}

// ChangePassword replaces the current admin's password after checking the
// old one.
func (s *Service) ChangePassword(ctx context.Context, current *models.Admin, oldPassword, newPassword string) error {
	if oldPassword == "" || newPassword == "" {
		return apperr.NewValidation("Old and new password are required")
	}
	a, err := s.admins.GetByID(ctx, current.ID)
	if errors.Is(err, adminstore.ErrNotFound) {
		return apperr.NewUnauthorized("Account not found")
	}
	if err != nil {
		return apperr.NewInternal("Server error", err)
	}
	if !authutil.CheckPassword(oldPassword, a.PasswordHash) {
		return apperr.NewUnauthorized("Old password is incorrect")
	}
	if err := authutil.ValidatePassword(newPassword); err != nil {
		return apperr.NewValidation(err.Error())
	}
	hash, err := authutil.HashPassword(newPassword)
	if err != nil {
		return apperr.NewInternal("Server error", err)
	}
	if err := s.admins.SetPassword(ctx, a.ID, hash); err != nil {
		return apperr.NewInternal("Server error", err)
	}
	s.logger.Info("admin password changed", zap.String("admin_id", a.ID.Hex()))
	return nil
}

// ProfileInput holds the editable profile fields. Nil means unchanged.
type ProfileInput struct {
	Name  *string
	Phone *string
}

type profileCheck struct {
	Name  string `validate:"max=200" label:"Name"`
	Phone string `validate:"phone" label:"Phone"`
}

// UpdateProfile applies in and, when avatar is non-nil, stores it as the
// new profile picture. The previous picture is removed best-effort.
func (s *Service) UpdateProfile(ctx context.Context, current *models.Admin, in ProfileInput, avatar io.Reader) (*models.Admin, error) {
	var chk profileCheck
	if in.Name != nil {
		if normalize.Name(*in.Name) == "" {
			return nil, apperr.NewValidation("Name cannot be empty")
		}
		chk.Name = normalize.Name(*in.Name)
	}
	if in.Phone != nil {
		chk.Phone = normalize.Phone(*in.Phone)
	}
	if res := inputval.Validate(chk); res.HasErrors() {
		return nil, apperr.NewValidation(res.First())
	}

	upd := adminstore.ProfileUpdate{Name: in.Name, Phone: in.Phone}
	var newAvatar string
	if avatar != nil {
		data, err := s.assets.NormalizeAvatar(avatar)
		if err != nil {
			return nil, avatarErr(err)
		}
		saved, err := s.assets.SaveBytes(ctx, AvatarDomain, data, "image/jpeg", ".jpg")
		if err != nil {
			return nil, apperr.NewInternal("Failed to store avatar", err)
		}
		newAvatar = saved.URL
		upd.AvatarPath = &newAvatar
	}

	before, err := s.admins.UpdateProfile(ctx, current.ID, upd)
	if err != nil {
		if newAvatar != "" {
			s.assets.Remove(context.WithoutCancel(ctx), newAvatar)
		}
		if errors.Is(err, adminstore.ErrNotFound) {
			return nil, apperr.NewUnauthorized("Account not found")
		}
		return nil, apperr.NewInternal("Server error", err)
	}
	if newAvatar != "" && before.AvatarPath != nil && *before.AvatarPath != newAvatar {
		s.assets.Remove(context.WithoutCancel(ctx), *before.AvatarPath)
	}

	a, err := s.admins.GetByID(ctx, current.ID)
	if err != nil {
		return nil, apperr.NewInternal("Server error", err)
	}
	return a, nil
}

func avatarErr(err error) error {
	switch {
	case errors.Is(err, assets.ErrTooLarge):
		return apperr.Wrap(apperr.PayloadTooLarge, "Avatar too large", err)
	case errors.Is(err, assets.ErrEmpty), errors.Is(err, assets.ErrUnsupportedType):
		return apperr.Wrap(apperr.Validation, err.Error(), err)
	default:
		return apperr.Wrap(apperr.Validation, "Avatar is not a readable image", err)
	}
}

// Logout revokes token if it is a valid session token. Invalid or missing
// tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.NewInternal("Server error", err)
	}
	s.logger.Info("admin logged out", zap.String("admin_id", claims.Subject))
	return nil
}
