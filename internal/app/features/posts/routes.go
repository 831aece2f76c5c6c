package posts

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes returns the /posts router.
//
//   - GET    /posts                        - published posts, paginated, no bodies
//   - GET    /posts/{id}                   - one published post
//   - GET    /posts/slug/{slug}            - one published post by slug
//   - GET    /posts/categories/all         - distinct categories
//   - GET    /posts/tags/all               - distinct tags
//   - GET    /posts/admin/all              - every post including drafts (auth)
//   - POST   /posts                        - create (auth)
//   - PUT    /posts/{id}, PATCH /posts/{id} - update (auth)
//   - DELETE /posts/{id}                   - delete (auth)
//   - POST   /posts/{id}/image             - upload featured image (auth)
//   - POST   /posts/admin/generate-slugs   - fill in missing slugs (auth)
func Routes(h *Handler, requireAuth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()

	r.Get("/", h.list)
	r.Get("/categories/all", h.categories)
	r.Get("/tags/all", h.tags)
	r.Get("/slug/{slug}", h.getBySlug)
	r.Get("/{id}", h.get)

	r.Group(func(pr chi.Router) {
		pr.Use(requireAuth)
		pr.Get("/admin/all", h.listAll)
		pr.Post("/admin/generate-slugs", h.generateSlugs)
		pr.Post("/", h.create)
		pr.Put("/{id}", h.update)
		pr.Patch("/{id}", h.update)
		pr.Delete("/{id}", h.delete)
		pr.Post("/{id}/image", h.uploadImage)
	})

	return r
}
