package handler

import (
	"net/http"

	"github.com/FreeNowOrg/BlogNow/internal/httputil"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/service"
	"github.com/FreeNowOrg/BlogNow/internal/transport/http/middleware"
)

type MediaHandler struct {
	mediaService *service.MediaService
}

func NewMediaHandler(mediaService *service.MediaService) *MediaHandler {
	return &MediaHandler{mediaService: mediaService}
}

// Presign handles POST /media/presign
// Returns a presigned URL for uploading post media directly to the bucket.
func (h *MediaHandler) Presign(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB is plenty for JSON
	var req model.PresignUploadRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	res, err := h.mediaService.PresignUpload(r.Context(), middleware.Viewer(r), &req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteOK(w, res)
}
