package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the /admin router.
//
// limit, when non-nil, throttles every route by client IP. requireAuth
// guards changepassword, updateprofile and me.
func Routes(h *Handler, requireAuth, limit func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	if limit != nil {
		r.Use(limit)
	}

	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/resetpassword", h.handleResetPassword)
	r.Post("/sendotp", h.handleSendOTP)
	r.Post("/resendotp", h.handleResendOTP)
	r.Post("/verifyotp", h.handleVerifyOTP)
	r.Post("/logout", h.handleLogout)

	r.Group(func(pr chi.Router) {
		pr.Use(requireAuth)
		pr.Post("/changepassword", h.handleChangePassword)
		pr.Put("/updateprofile", h.handleUpdateProfile)
		pr.Get("/me", h.handleMe)
	})

	return r
}
