package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/dalemusser/stratasite/internal/app/system/apperr"
	"github.com/dalemusser/stratasite/internal/app/system/auth"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"go.uber.org/zap"
)

// Handler serves the /admin endpoints.
type Handler struct {
	svc            *Service
	exposeDetail   bool
	maxBodyBytes   int64
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewHandler creates an admin Handler.
func NewHandler(svc *Service, exposeDetail bool, maxBodyBytes, maxUploadBytes int64, logger *zap.Logger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &Handler{
		svc:            svc,
		exposeDetail:   exposeDetail,
		maxBodyBytes:   maxBodyBytes,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

type credentials struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// adminView is the public shape of the account in auth responses.
type adminView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func view(a *models.Admin) adminView {
	return adminView{ID: a.ID.Hex(), Name: a.Name, Email: a.Email}
}

// handleRegister handles POST /admin/register.
//
// Request body: {"name": "...", "email": "...", "password": "..."}
//
// Response (201 Created): {"message": "Admin registered successfully", "admin": {id, name, email}}
func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	a, err := h.svc.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Created(w, map[string]any{
		"message": "Admin registered successfully",
		"admin":   view(a),
	})
}

// handleLogin handles POST /admin/login.
//
// Response (200 OK): {"token": "...", "expiresAt": "...", "admin": {id, name, email}}
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	sess, err := h.svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{
		"token":     sess.Token,
		"expiresAt": sess.ExpiresAt,
		"admin":     view(sess.Admin),
	})
}

type resetRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// handleResetPassword handles POST /admin/resetpassword.
func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.svc.ResetPassword(ctx, req.Email, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Message(w, "Password reset successfully")
}

type otpRequest struct {
	Email string  `json:"email"`
	OTP   otpCode `json:"otp"`
}

// otpCode accepts the code as a JSON string or a JSON integer.
type otpCode string

func (c *otpCode) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*c = otpCode(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	if _, err := n.Int64(); err != nil {
		return fmt.Errorf("otp must be a string or an integer: %w", err)
	}
	*c = otpCode(n.String())
	return nil
}

// handleSendOTP handles POST /admin/sendotp.
func (h *Handler) handleSendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	if err := h.svc.SendOTP(ctx, req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Message(w, "OTP sent to your email")
}

// handleResendOTP handles POST /admin/resendotp.
func (h *Handler) handleResendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	if err := h.svc.ResendOTP(ctx, req.Email); err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Message(w, "OTP resent to your email")
}

// handleVerifyOTP handles POST /admin/verifyotp.
func (h *Handler) handleVerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.svc.VerifyOTP(ctx, req.Email, strings.TrimSpace(string(req.OTP))); err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Message(w, "OTP verified successfully")
}

// handleLogout handles POST /admin/logout. The bearer token, if any, is
// revoked; the call succeeds either way.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.BearerToken(r)
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.svc.Logout(ctx, token); err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Message(w, "Logged out successfully")
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// handleChangePassword handles POST /admin/changepassword (auth).
func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.CurrentAdmin(r)
	if !ok {
		h.fail(w, r, apperr.NewUnauthorized("Authorization token required"))
		return
	}
	var req changePasswordRequest
	if err := h.decode(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.svc.ChangePassword(ctx, current, req.OldPassword, req.NewPassword); err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.Message(w, "Password changed successfully")
}

type profileRequest struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// handleUpdateProfile handles PUT /admin/updateprofile (auth).
//
// Accepts either a JSON body {"name"?, "phone"?} or a multipart form with
// the same fields plus an optional "avatar" file.
func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.CurrentAdmin(r)
	if !ok {
		h.fail(w, r, apperr.NewUnauthorized("Authorization token required"))
		return
	}

	var in ProfileInput
	var avatar io.Reader
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(1<<20))
		if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				h.fail(w, r, apperr.Wrap(apperr.PayloadTooLarge, "Avatar too large", err))
				return
			}
			h.fail(w, r, apperr.Wrap(apperr.Validation, "invalid multipart form", err))
			return
		}
		defer func() { _ = r.MultipartForm.RemoveAll() }()

		if vs, ok := r.MultipartForm.Value["name"]; ok && len(vs) > 0 {
			in.Name = &vs[0]
		}
		if vs, ok := r.MultipartForm.Value["phone"]; ok && len(vs) > 0 {
			in.Phone = &vs[0]
		}
		file, _, err := r.FormFile("avatar")
		switch {
		case err == nil:
			defer file.Close()
			avatar = file
		case !errors.Is(err, http.ErrMissingFile):
			h.fail(w, r, apperr.Wrap(apperr.Validation, "invalid avatar upload", err))
			return
		}
	} else {
		var req profileRequest
		if err := h.decode(w, r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
		in = ProfileInput{Name: req.Name, Phone: req.Phone}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()
	a, err := h.svc.UpdateProfile(ctx, current, in, avatar)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	jsonutil.OK(w, map[string]any{
		"message": "Profile updated successfully",
		"admin":   a,
	})
}

// handleMe handles GET /admin/me (auth).
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	current, ok := auth.CurrentAdmin(r)
	if !ok {
		h.fail(w, r, apperr.NewUnauthorized("Authorization token required"))
		return
	}
	jsonutil.OK(w, map[string]any{"admin": current})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	return jsonutil.Decode(r, v)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.As(err).Kind == apperr.Internal {
		h.logger.Error("admin request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	jsonutil.WriteError(w, err, h.exposeDetail)
}
