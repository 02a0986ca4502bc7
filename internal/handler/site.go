package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/feeds"

	"github.com/FreeNowOrg/BlogNow/internal/httputil"
	"github.com/FreeNowOrg/BlogNow/internal/markdown"
	"github.com/FreeNowOrg/BlogNow/internal/model"
	"github.com/FreeNowOrg/BlogNow/internal/service"
	"github.com/FreeNowOrg/BlogNow/internal/transport/http/middleware"
)

const feedExcerptLength = 280

type SiteHandler struct {
	siteService *service.SiteService
	postService *service.PostService
	siteURL     string
}

func NewSiteHandler(siteService *service.SiteService, postService *service.PostService, siteURL string) *SiteHandler {
	return &SiteHandler{
		siteService: siteService,
		postService: postService,
		siteURL:     strings.TrimSuffix(siteURL, "/"),
	}
}

// Meta handles GET /site/meta
func (h *SiteHandler) Meta(w http.ResponseWriter, r *http.Request) {
	meta, err := h.siteService.Meta(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteOK(w, httputil.Body{"meta": meta})
}

// Config handles GET /config
func (h *SiteHandler) Config(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.siteService.Config(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteOK(w, httputil.Body{"config": cfg})
}

// SetConfig handles PUT /config/{key}
func (h *SiteHandler) SetConfig(w http.ResponseWriter, r *http.Request) {
	var req model.SetConfigRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	key := chi.URLParam(r, "key")
	if err := h.siteService.SetConfig(r.Context(), middleware.Viewer(r), key, &req); err != nil {
		httputil.WriteError(w, r, err)
		return
	}
	httputil.WriteOK(w, httputil.Body{"key": key, "val": *req.Val})
}

// RSS handles GET /post/feed.rss
func (h *SiteHandler) RSS(w http.ResponseWriter, r *http.Request) {
	h.writeFeed(w, r, "application/rss+xml; charset=utf-8", (*feeds.Feed).ToRss)
}

// Atom handles GET /post/feed.atom
func (h *SiteHandler) Atom(w http.ResponseWriter, r *http.Request) {
	h.writeFeed(w, r, "application/atom+xml; charset=utf-8", (*feeds.Feed).ToAtom)
}

func (h *SiteHandler) writeFeed(w http.ResponseWriter, r *http.Request, contentType string, encode func(*feeds.Feed) (string, error)) {
	feed, err := h.buildFeed(r)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	out, err := encode(feed)
	if err != nil {
		httputil.WriteError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(out))
}

func (h *SiteHandler) buildFeed(r *http.Request) (*feeds.Feed, error) {
	ctx := r.Context()
	posts, err := h.postService.Feed(ctx)
	if err != nil {
		return nil, err
	}

	feed := &feeds.Feed{
		Title:       h.siteService.Value(ctx, model.ConfigSiteName),
		Description: h.siteService.Value(ctx, model.ConfigSiteDesc),
		Link:        &feeds.Link{Href: h.siteURL + "/"},
		Created:     time.Now(),
	}
	if len(posts) > 0 {
		feed.Updated = posts[0].CreatedAt
	}

	for _, p := range posts {
		item := &feeds.Item{
			Id:          p.UUID,
			Title:       p.Title,
			Link:        &feeds.Link{Href: h.postURL(&p)},
			Description: markdown.Excerpt(p.Content, feedExcerptLength),
			Content:     markdown.Render(p.Content),
			Created:     p.CreatedAt,
		}
		if p.EditedAt != nil {
			item.Updated = *p.EditedAt
		}
		if p.Author != nil {
			item.Author = &feeds.Author{Name: p.Author.Nickname}
		}
		feed.Items = append(feed.Items, item)
	}
	return feed, nil
}

func (h *SiteHandler) postURL(p *model.Post) string {
	if p.Slug != "" {
		return h.siteURL + "/post/" + model.PostSelectorSlug + "/" + p.Slug
	}
	return h.siteURL + "/post/" + model.PostSelectorPID + "/" + strconv.FormatInt(p.PID, 10)
}
