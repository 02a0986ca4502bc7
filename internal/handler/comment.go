package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/FreeNowOrg/BlogNow/internal/httputil"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/service"
	"github.com/FreeNowOrg/BlogNow/internal/transport/http/middleware"
)

type CommentHandler struct {
	commentService *service.CommentService
}

func NewCommentHandler(commentService *service.CommentService) *CommentHandler {
	return &CommentHandler{commentService: commentService}
}

// List handles GET /comment/{target_type}/{target_uuid}
func (h *CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := parsePage(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	resp, err := h.commentService.List(
		r.Context(),
		middleware.Viewer(r),
		chi.URLParam(r, "target_type"),
		chi.URLParam(r, "target_uuid"),
		page,
		r.URL.Query().Get("sort"),
	)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteOK(w, resp)
}

// Create handles POST /comment/{target_type}/{target_uuid}
func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateCommentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	comment, err := h.commentService.Create(
		r.Context(),
		middleware.Viewer(r),
		chi.URLParam(r, "target_type"),
		chi.URLParam(r, "target_uuid"),
		&req,
	)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteCreated(w, httputil.Body{"comment": comment})
}

// Update handles PATCH /comment/{uuid}
func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateCommentRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	comment, err := h.commentService.Update(r.Context(), middleware.Viewer(r), chi.URLParam(r, "uuid"), &req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteOK(w, httputil.Body{"comment": comment})
}

// Delete handles DELETE /comment/{uuid}
func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.commentService.Delete(r.Context(), middleware.Viewer(r), chi.URLParam(r, "uuid")); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteOK(w, nil)
}
