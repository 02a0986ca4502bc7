package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FreeNowOrg/BlogNow/internal/httputil"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/service"
	"github.com/FreeNowOrg/BlogNow/internal/transport/http/middleware"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

func (h *PostHandler) writePostError(w http.ResponseWriter, r *http.Request, err error, selector, value string) {
	if errors.Is(err, model.ErrPostNotFound) {
		httputil.WriteErrorBody(w, r, err, httputil.Body{
			"post":   nil,
			"filter": lookupFilter(selector, value),
		})
		return
	}
	httputil.WriteError(w, r, err)
}

// Get handles GET /post/{selector}/{value}
// Hidden posts answer 404 like missing ones.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	selector := chi.URLParam(r, "selector")
	value := chi.URLParam(r, "value")

	post, err := h.postService.Get(r.Context(), middleware.Viewer(r), selector, value)
	if err != nil {
		h.writePostError(w, r, err, selector, value)
		return
	}
	httputil.WriteOK(w, httputil.Body{"post": post})
}

// Create handles POST /post/create
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreatePostRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	post, err := h.postService.Create(r.Context(), middleware.Viewer(r), &req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteCreated(w, httputil.Body{"post": post})
}

// Update handles PATCH /post/{selector}/{value}
func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	selector := chi.URLParam(r, "selector")
	value := chi.URLParam(r, "value")

	var req model.UpdatePostRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	post, err := h.postService.Update(r.Context(), middleware.Viewer(r), selector, value, &req)
	if err != nil {
		h.writePostError(w, r, err, selector, value)
		return
	}
	httputil.WriteOK(w, httputil.Body{"post": post})
}

// Delete handles DELETE /post/{selector}/{value}
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	selector := chi.URLParam(r, "selector")
	value := chi.URLParam(r, "value")

	if err := h.postService.Delete(r.Context(), middleware.Viewer(r), selector, value); err != nil {
		h.writePostError(w, r, err, selector, value)
		return
	}
	httputil.WriteOK(w, nil)
}

// ListRecent handles GET /post/list/recent
func (h *PostHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	resp, err := h.postService.ListRecent(r.Context(), middleware.Viewer(r), page)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteOK(w, resp)
}

// ListByAuthor handles GET /post/list/author/{uuid}
func (h *PostHandler) ListByAuthor(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	resp, err := h.postService.ListByAuthor(r.Context(), middleware.Viewer(r), chi.URLParam(r, "uuid"), page)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteOK(w, resp)
}
