package handler

import (
	"net/http"
	"time"

	"github.com/FreeNowOrg/BlogNow/internal/httputil"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/service"
	"github.com/FreeNowOrg/BlogNow/internal/transport/http/middleware"
)

type AuthHandler struct {
	userService *service.UserService
}

func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// Register handles POST /user/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	profile, session, err := h.userService.Register(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	setTokenCookie(w, r, session)
	httputil.WriteCreated(w, httputil.Body{"profile": profile, "token": session.Token})
}

// SignIn handles POST /user/auth/sign-in
// The token is returned in the body and as the session cookie.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	profile, session, err := h.userService.SignIn(r.Context(), &req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	setTokenCookie(w, r, session)
	httputil.WriteOK(w, httputil.Body{"token": session.Token, "profile": profile})
}

// Profile handles GET /user/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	viewer := middleware.Viewer(r)
	if viewer == nil {
		httputil.WriteErrorBody(w, r, model.ErrAuthRequired, httputil.Body{"profile": nil})
		return
	}
	httputil.WriteOK(w, httputil.Body{"profile": service.Sanitize(viewer)})
}

// SignOut handles POST /user/auth/sign-out
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.userService.SignOut(r.Context(), middleware.Viewer(r)); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	clearTokenCookie(w, r)
	httputil.WriteOK(w, nil)
}

// ChangePassword handles PATCH /user/auth/password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req model.ChangePasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	if err := h.userService.ChangePassword(r.Context(), middleware.Viewer(r), &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	clearTokenCookie(w, r)
	httputil.WriteOK(w, nil)
}

// ChangeUsername handles PATCH /user/auth/username
func (h *AuthHandler) ChangeUsername(w http.ResponseWriter, r *http.Request) {
	var req model.ChangeUsernameRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	profile, err := h.userService.ChangeUsername(r.Context(), middleware.Viewer(r), &req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	clearTokenCookie(w, r)
	httputil.WriteOK(w, httputil.Body{"profile": profile})
}

// UpdateProfile handles PATCH /user/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req model.UpdateProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	profile, err := h.userService.UpdateProfile(r.Context(), middleware.Viewer(r), &req)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteOK(w, httputil.Body{"profile": profile})
}

func setTokenCookie(w http.ResponseWriter, r *http.Request, session *model.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.Expires,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearTokenCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.TokenCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}
