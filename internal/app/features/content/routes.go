package content

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the router for one content domain.
//
// When mounted at /home:
//   - GET    /home                          - all sections as {section: content}
//   - GET    /home/{section}                - one section
//   - POST   /home                          - create a section (auth)
//   - PUT    /home/{section}                - replace content, upsert (auth)
//   - PATCH  /home/{section}                - merge content fields, upsert (auth)
//   - DELETE /home/{section}                - delete a section and its files (auth)
//   - POST   /home/upload-image/{section}   - upload an image into a field (auth)
//
// Reads are public; requireAuth guards every write.
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.ListHandler)
	r.Get("/{section}", h.GetHandler)

	r.Group(func(pr chi.Router) {
		pr.Use(requireAuth)
		pr.Post("/", h.CreateHandler)
		pr.Put("/{section}", h.ReplaceHandler)
		pr.Patch("/{section}", h.MergeHandler)
		pr.Delete("/{section}", h.DeleteHandler)
		pr.Post("/upload-image/{section}", h.UploadHandler)
	})

	return r
}
