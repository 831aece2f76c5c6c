// Package contact accepts public contact form submissions and lets the admin
// read and delete them. Each submission is also mailed to the admin.
package contact

import (
	"context"
	"errors"
	"net/http"

	contactstore "github.com/dalemusser/stratasite/internal/app/store/contact"
	"github.com/dalemusser/stratasite/internal/app/store/storeutil"
	"github.com/dalemusser/stratasite/internal/app/system/apperr"
	"github.com/dalemusser/stratasite/internal/app/system/inputval"
	"github.com/dalemusser/stratasite/internal/app/system/jsonutil"
	"github.com/dalemusser/stratasite/internal/app/system/mailer"
	"github.com/dalemusser/stratasite/internal/app/system/normalize"
	"github.com/dalemusser/stratasite/internal/app/system/timeouts"
	"github.com/dalemusser/stratasite/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Handler serves /contact-form.
type Handler struct {
	store        *contactstore.Store
	mail         mailer.Sender
	notifyTo     string
	siteName     string
	exposeDetail bool
	maxBodyBytes int64
	logger       *zap.Logger
}

// NewHandler creates a contact Handler. notifyTo receives a copy of every
// submission; when empty no mail is sent.
func NewHandler(store *contactstore.Store, mail mailer.Sender, notifyTo, siteName string, exposeDetail bool, maxBodyBytes int64, logger *zap.Logger) *Handler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 64 << 10
	}
	return &Handler{
		store:        store,
		mail:         mail,
		notifyTo:     notifyTo,
		siteName:     siteName,
		exposeDetail: exposeDetail,
		maxBodyBytes: maxBodyBytes,
		logger:       logger,
	}
}

// Routes returns the /contact-form router. Submitting is public; reading
// and deleting need requireAuth.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Post("/", h.submit)

	r.Group(func(pr chi.Router) {
		pr.Use(requireAuth)
		pr.Get("/", h.list)
		pr.Get("/{id}", h.get)
		pr.Delete("/{id}", h.delete)
	})
	return r
}

// SubmitInput is the public form body.
type SubmitInput struct {
	Name    string `json:"name" validate:"required,max=200" label:"Name"`
	Email   string `json:"email" validate:"required,email,max=254" label:"Email"`
	Phone   string `json:"phone" validate:"phone" label:"Phone"`
	Subject string `json:"subject" validate:"max=300" label:"Subject"`
	Message string `json:"message" validate:"required,max=5000" label:"Message"`
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	var in SubmitInput
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	if err := jsonutil.Decode(r, &in); err != nil {
		h.fail(w, r, err)
		return
	}
	in.Name = normalize.Name(in.Name)
	in.Email = normalize.Email(in.Email)
	in.Phone = normalize.Phone(in.Phone)
	in.Subject = normalize.Name(in.Subject)
	if res := inputval.Validate(in); res.HasErrors() {
		h.fail(w, r, apperr.NewValidation(res.First()))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	msg, err := h.store.Create(ctx, models.ContactMessage{
		Name:    in.Name,
		Email:   in.Email,
		Phone:   in.Phone,
		Subject: in.Subject,
		Message: in.Message,
	})
	if err != nil {
		h.fail(w, r, apperr.NewInternal("Failed to save message", err))
		return
	}

	h.notify(r.Context(), msg)
	jsonutil.Created(w, map[string]string{"message": "Message sent successfully!"})
}

// notify mails the submission to the admin. Failures are logged only.
func (h *Handler) notify(parent context.Context, msg *models.ContactMessage) {
	if h.mail == nil || h.notifyTo == "" {
		return
	}
	ctx, cancel := timeouts.WithTimeout(context.WithoutCancel(parent), timeouts.Medium(), h.logger, "contact notification")
	defer cancel()

	textBody, htmlBody := mailer.ContactNotificationEmail(mailer.ContactNotificationData{
		SiteName: h.siteName,
		Name:     msg.Name,
		Email:    msg.Email,
		Phone:    msg.Phone,
		Subject:  msg.Subject,
		Message:  msg.Message,
	})
	subject := "New contact form message"
	if msg.Subject != "" {
		subject += ": " + msg.Subject
	}
	if err := h.mail.Send(ctx, mailer.Email{
		To:       h.notifyTo,
		Subject:  subject,
		TextBody: textBody,
		HTMLBody: htmlBody,
		ReplyTo:  msg.Email,
	}); err != nil {
		h.logger.Warn("contact notification failed",
			zap.String("message_id", msg.ID.Hex()),
			zap.Error(err))
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, limit := storeutil.ParsePage(r.URL.Query().Get("page"), r.URL.Query().Get("limit"))

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	msgs, total, err := h.store.List(ctx, page, limit)
	if err != nil {
		h.fail(w, r, apperr.NewInternal("Failed to fetch messages", err))
		return
	}
	jsonutil.OK(w, map[string]any{
		"messages":      msgs,
		"totalPages":    storeutil.TotalPages(total, limit),
		"currentPage":   page,
		"totalMessages": total,
	})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		h.fail(w, r, apperr.NewNotFound("Message not found"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	msg, err := h.store.Get(ctx, id)
	if err != nil {
		h.fail(w, r, storeErr(err))
		return
	}
	jsonutil.OK(w, msg)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(r)
	if !ok {
		h.fail(w, r, apperr.NewNotFound("Message not found"))
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()
	if err := h.store.Delete(ctx, id); err != nil {
		h.fail(w, r, storeErr(err))
		return
	}
	jsonutil.Message(w, "Message deleted successfully")
}

func parseID(r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	return id, err == nil
}

func storeErr(err error) error {
	if errors.Is(err, contactstore.ErrNotFound) {
		return apperr.NewNotFound("Message not found")
	}
	return apperr.NewInternal("Server error", err)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if apperr.As(err).Kind == apperr.Internal {
		h.logger.Error("contact request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	jsonutil.WriteError(w, err, h.exposeDetail)
}
