// Package server 提供影片详情页的 HTTP 路由。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/text/language"

	"github.com/John-Robertt/wikimdb/internal/app/lookup"
	"github.com/John-Robertt/wikimdb/internal/domain"
	"github.com/John-Robertt/wikimdb/internal/metrics"
	"github.com/John-Robertt/wikimdb/internal/page"
	"github.com/John-Robertt/wikimdb/internal/upstream"
)

// Looker 是路由层依赖的查询能力（*lookup.Service 实现它）。
type Looker interface {
	Lookup(ctx context.Context, req lookup.Request) (lookup.Result, error)
}

// Options 是构造路由所需的协作者；Metrics 可为空（不暴露 /metrics）。
type Options struct {
	Lookup  Looker
	Pages   *page.Renderer
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

type server struct {
	lookup  Looker
	pages   *page.Renderer
	metrics *metrics.Metrics
	log     *slog.Logger
}

// New 构造路由：
//
//	GET /                 首页（查询表单）
//	GET /film?id=<id>     302 到 /film/<id>
//	GET /film/{id}        详情页
//	GET /item/{id}        302 到 /film/{id}（旧路由）
//	GET /api/film/{id}    FilmRecord JSON
//	GET /healthz          存活检查
//	GET /metrics          Prometheus 指标
func New(opts Options) (http.Handler, error) {
	if opts.Lookup == nil {
		return nil, errors.New("server：lookup 不能为空")
	}
	if opts.Pages == nil {
		return nil, errors.New("server：pages 不能为空")
	}
	s := &server{lookup: opts.Lookup, pages: opts.Pages, metrics: opts.Metrics, log: opts.Logger}
	if s.log == nil {
		s.log = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Get("/film", s.handleFilmQuery)
	r.Get("/film/{id}", s.handleFilm)
	r.Get("/item/{id}", s.handleLegacyItem)
	r.Get("/api/film/{id}", s.handleAPIFilm)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}
	return r, nil
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.writeHTML(w, r, http.StatusOK, func(b *strings.Builder) error { return s.pages.Index(b) })
}

func (s *server) handleFilmQuery(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	http.Redirect(w, r, filmPath(id, r.URL.Query().Get("lang")), http.StatusFound)
}

func (s *server) handleLegacyItem(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, filmPath(idParam(r), r.URL.Query().Get("lang")), http.StatusFound)
}

func (s *server) handleFilm(w http.ResponseWriter, r *http.Request) {
	id := domain.EntityID(idParam(r))
	lang := requestLanguage(r)

	res, err := s.lookup.Lookup(r.Context(), lookup.Request{ID: id, Language: lang})
	switch {
	case errors.Is(err, lookup.ErrEmptyID):
		http.Redirect(w, r, "/", http.StatusFound)
	case upstream.IsFetchFailed(err):
		s.log.WarnContext(r.Context(), "film page degraded", "request_id", RequestIDFrom(r.Context()), "entity", id.QID(), "err", err)
		s.writeHTML(w, r, http.StatusBadGateway, func(b *strings.Builder) error { return s.pages.Failure(b, id) })
	case err != nil:
		s.log.ErrorContext(r.Context(), "lookup failed", "request_id", RequestIDFrom(r.Context()), "entity", id.QID(), "err", err)
		s.writeHTML(w, r, http.StatusInternalServerError, func(b *strings.Builder) error { return s.pages.Failure(b, id) })
	case res.Record.NotFound:
		s.writeHTML(w, r, http.StatusNotFound, func(b *strings.Builder) error { return s.pages.NotFound(b, id) })
	default:
		s.writeHTML(w, r, http.StatusOK, func(b *strings.Builder) error { return s.pages.Film(b, id, lang, res.Record) })
	}
}

type apiError struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

func (s *server) handleAPIFilm(w http.ResponseWriter, r *http.Request) {
	id := domain.EntityID(idParam(r))

	res, err := s.lookup.Lookup(r.Context(), lookup.Request{ID: id, Language: requestLanguage(r)})
	switch {
	case errors.Is(err, lookup.ErrEmptyID):
		writeJSON(w, http.StatusBadRequest, apiError{Error: "bad_request", Description: err.Error()})
	case upstream.IsFetchFailed(err):
		s.log.WarnContext(r.Context(), "api fetch failed", "request_id", RequestIDFrom(r.Context()), "entity", id.QID(), "err", err)
		writeJSON(w, http.StatusBadGateway, apiError{Error: "fetch_failed", Description: "upstream unavailable"})
	case err != nil:
		s.log.ErrorContext(r.Context(), "lookup failed", "request_id", RequestIDFrom(r.Context()), "entity", id.QID(), "err", err)
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal_error"})
	case res.Record.NotFound:
		writeJSON(w, http.StatusNotFound, apiError{Error: "not_found", Description: id.QID()})
	default:
		writeJSON(w, http.StatusOK, res.Record)
	}
}

// writeHTML 先完整渲染再写出：模板失败时仍能返回 500，而不是半个页面。
func (s *server) writeHTML(w http.ResponseWriter, r *http.Request, status int, render func(*strings.Builder) error) {
	var b strings.Builder
	if err := render(&b); err != nil {
		s.log.ErrorContext(r.Context(), "render failed", "request_id", RequestIDFrom(r.Context()), "err", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(b.String()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func filmPath(id, lang string) string {
	p := "/film/" + url.PathEscape(strings.TrimSpace(id))
	if l := strings.TrimSpace(lang); l != "" {
		p += "?" + url.Values{"lang": {l}}.Encode()
	}
	return p
}

// idParam 返回解码后的 {id}。
// 路径含 %2F 这类转义时 chi 按 RawPath 匹配，参数仍是转义形式，需要再解一次。
func idParam(r *http.Request) string {
	v := chi.URLParam(r, "id")
	if r.URL.RawPath == "" {
		return v
	}
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

// requestLanguage：合法的 ?lang= 优先，其次 Accept-Language 中权重最高的语言（只取基础语言）。
// 无法解析为 BCP 47 标签的 ?lang= 视为未提供，不会原样传给上游。
func requestLanguage(r *http.Request) string {
	if l := strings.TrimSpace(r.URL.Query().Get("lang")); l != "" {
		if tag, err := language.Parse(l); err == nil {
			return tag.String()
		}
	}
	tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language"))
	if err != nil || len(tags) == 0 {
		return ""
	}
	base, conf := tags[0].Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}

func (s *server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := ""
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			route = rctx.RoutePattern()
		}
		if s.metrics != nil {
			s.metrics.ObservePage(route, status)
		}
		s.log.InfoContext(r.Context(), "http request",
			"request_id", RequestIDFrom(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"route", route,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration_ms", time.Since(started).Milliseconds(),
		)
	})
}
