package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/FreeNowOrg/BlogNow/internal/httputil"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/service"
)

type UserHandler struct {
	identity *service.IdentityService
}

func NewUserHandler(identity *service.IdentityService) *UserHandler {
	return &UserHandler{identity: identity}
}

// Get handles GET /user/{selector}/{value}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	selector := chi.URLParam(r, "selector")
	value := chi.URLParam(r, "value")

	u, err := h.identity.Resolve(r.Context(), selector, value)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			httputil.WriteErrorBody(w, r, err, httputil.Body{
				"user":   nil,
				"filter": lookupFilter(selector, value),
			})
			return
		}
		httputil.WriteError(w, r, err)
		return
	}

	httputil.WriteOK(w, httputil.Body{"user": service.Sanitize(u)})
}

// List handles GET /users/{selector}/{values}
// Values are comma separated; unknown ones are left out.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	selector := chi.URLParam(r, "selector")
	values := strings.Split(chi.URLParam(r, "values"), ",")

	users, err := h.identity.ResolveMany(r.Context(), selector, values)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteOK(w, httputil.Body{"users": users})
}
