package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/wikimdb/internal/app/lookup"
	"github.com/John-Robertt/wikimdb/internal/domain"
	"github.com/John-Robertt/wikimdb/internal/metrics"
	"github.com/John-Robertt/wikimdb/internal/page"
	"github.com/John-Robertt/wikimdb/internal/upstream"
	"github.com/John-Robertt/wikimdb/internal/upstream/statement"
)

type stubLooker struct {
	mu   sync.Mutex
	reqs []lookup.Request

	results map[domain.EntityID]lookup.Result
	errs    map[domain.EntityID]error
}

func (s *stubLooker) Lookup(_ context.Context, req lookup.Request) (lookup.Result, error) {
	s.mu.Lock()
	s.reqs = append(s.reqs, req)
	s.mu.Unlock()
	if strings.TrimSpace(string(req.ID)) == "" {
		return lookup.Result{}, lookup.ErrEmptyID
	}
	if err := s.errs[req.ID]; err != nil {
		return lookup.Result{}, err
	}
	if res, ok := s.results[req.ID]; ok {
		return res, nil
	}
	return lookup.Result{Record: domain.FilmRecord{NotFound: true}}, nil
}

func (s *stubLooker) last() lookup.Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[len(s.reqs)-1]
}

func interstellar() domain.FilmRecord {
	return domain.FilmRecord{
		Title:       "Interstellar",
		Year:        "(2014)",
		ReleaseDate: "November 7, 2014",
		Rating:      "PG-13",
		Duration:    "2h 49min",
		Genres:      []string{"science fiction", "drama"},
		Crew: []domain.CrewEntry{
			{Role: "director", Label: "director", Names: []string{"Christopher Nolan"}},
		},
	}
}

func newTestServer(t *testing.T) (http.Handler, *stubLooker, *metrics.Metrics, *bytes.Buffer) {
	t.Helper()
	looker := &stubLooker{
		results: map[domain.EntityID]lookup.Result{
			"13417189": {Record: interstellar(), Schema: "statement"},
		},
		errs: map[domain.EntityID]error{
			"500":   &upstream.FetchError{URL: "https://upstream.test", StatusCode: 500},
			"panic": errors.New("unknown schema"),
		},
	}
	pages, err := page.New()
	require.NoError(t, err)
	m := metrics.New()
	var logs bytes.Buffer
	h, err := New(Options{
		Lookup:  looker,
		Pages:   pages,
		Metrics: m,
		Logger:  slog.New(slog.NewTextHandler(&logs, nil)),
	})
	require.NoError(t, err)
	return h, looker, m, &logs
}

func do(h http.Handler, method, target string, hdr map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestFilmPage_OK(t *testing.T) {
	h, looker, _, _ := newTestServer(t)

	rr := do(h, http.MethodGet, "/film/13417189", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))

	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, "Interstellar (2014)", doc.Find("h5.heading").Text())
	assert.Equal(t, "PG-13 | 2h 49min | science fiction, drama | November 7, 2014", doc.Find("h6.meta").Text())
	assert.Equal(t, "Christopher Nolan", doc.Find("dl.crew dd").Text())

	assert.Equal(t, lookup.Request{ID: "13417189"}, looker.last())
}

func TestFilmPage_Language(t *testing.T) {
	h, looker, _, _ := newTestServer(t)

	do(h, http.MethodGet, "/film/13417189", map[string]string{"Accept-Language": "fr-CH, fr;q=0.9, en;q=0.8"})
	assert.Equal(t, "fr", looker.last().Language)

	do(h, http.MethodGet, "/film/13417189?lang=de", map[string]string{"Accept-Language": "fr"})
	assert.Equal(t, "de", looker.last().Language, "?lang= 应优先于 Accept-Language")

	do(h, http.MethodGet, "/film/13417189", map[string]string{"Accept-Language": "!!"})
	assert.Empty(t, looker.last().Language)
}

func TestFilmPage_InvalidLangIsIgnored(t *testing.T) {
	h, looker, _, _ := newTestServer(t)

	do(h, http.MethodGet, "/film/13417189?lang=de-AT", nil)
	assert.Equal(t, "de-AT", looker.last().Language)

	for _, target := range []string{
		"/film/13417189?lang=de%0Ax",
		"/api/film/13417189?lang=de%0D%0AX-Evil:%201",
		"/film/13417189?lang=%E4%B8%AD%E6%96%87",
	} {
		rr := do(h, http.MethodGet, target, map[string]string{"Accept-Language": "fr"})
		assert.Equal(t, http.StatusOK, rr.Code, target)
		assert.Equal(t, "fr", looker.last().Language, "非法 ?lang= 应回退到 Accept-Language：%s", target)
	}
}

// 非法语言值不能变成 Accept-Language 头，否则请求在发出前就失败并被误报为上游故障。
func TestFilmPage_InvalidLangNeverReachesUpstream(t *testing.T) {
	var (
		mu    sync.Mutex
		hits  int
		langs []string
	)
	up := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits++
		langs = append(langs, r.Header.Get("Accept-Language"))
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"item":null}}`))
	}))
	t.Cleanup(up.Close)

	reg, err := upstream.NewRegistry(statement.Adapter{})
	require.NoError(t, err)
	client, err := upstream.NewClient(up.URL, up.Client(), "")
	require.NoError(t, err)
	m := metrics.New()
	pages, err := page.New()
	require.NoError(t, err)
	h, err := New(Options{
		Lookup:  &lookup.Service{Registry: reg, Schema: "statement", Client: client, Observer: m},
		Pages:   pages,
		Metrics: m,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)

	rr := do(h, http.MethodGet, "/film/1?lang=de%0Ax", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(h, http.MethodGet, "/api/film/1?lang=de%0D%0AX-Evil:%201", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"not_found","error_description":"Q1"}`, rr.Body.String())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, hits)
	assert.Equal(t, []string{"", ""}, langs)
	// 只有 outcome="ok" 一个序列：没有任何请求被记为失败。
	assert.Equal(t, 1, testutil.CollectAndCount(m.FetchDuration))
}

func TestFilmPage_NotFoundAndFailure(t *testing.T) {
	h, _, _, logs := newTestServer(t)

	rr := do(h, http.MethodGet, "/film/404", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, "Q404", doc.Find("p.not-found code").Text())

	rr = do(h, http.MethodGet, "/film/500", nil)
	require.Equal(t, http.StatusBadGateway, rr.Code)
	doc, err = goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("p.failure").Length())
	assert.Contains(t, logs.String(), "film page degraded")

	rr = do(h, http.MethodGet, "/film/panic", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestRedirects(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	cases := []struct {
		target string
		want   string
	}{
		{"/film?id=13417189", "/film/13417189"},
		{"/film?id=+42+&lang=de", "/film/42?lang=de"},
		{"/film?id=", "/"},
		{"/item/13417189", "/film/13417189"},
		{"/item/a%20b?lang=fr", "/film/a%20b?lang=fr"},
		{"/film?id=a/b", "/film/a%2Fb"},
		{"/item/a%2Fb", "/film/a%2Fb"},
	}
	for _, c := range cases {
		rr := do(h, http.MethodGet, c.target, nil)
		assert.Equal(t, http.StatusFound, rr.Code, c.target)
		assert.Equal(t, c.want, rr.Header().Get("Location"), c.target)
	}
}

func TestFilmPage_EscapedIDRoundTrips(t *testing.T) {
	h, looker, _, _ := newTestServer(t)

	rr := do(h, http.MethodGet, "/film?id=a/b", nil)
	require.Equal(t, http.StatusFound, rr.Code)

	do(h, http.MethodGet, rr.Header().Get("Location"), nil)
	assert.Equal(t, domain.EntityID("a/b"), looker.last().ID)

	do(h, http.MethodGet, "/api/film/a%2Fb", nil)
	assert.Equal(t, domain.EntityID("a/b"), looker.last().ID)

	do(h, http.MethodGet, "/film/a%20b", nil)
	assert.Equal(t, domain.EntityID("a b"), looker.last().ID)
}

func TestAPIFilm(t *testing.T) {
	h, _, _, _ := newTestServer(t)

	rr := do(h, http.MethodGet, "/api/film/13417189", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var rec domain.FilmRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rec))
	assert.Equal(t, interstellar(), rec)

	rr = do(h, http.MethodGet, "/api/film/404", nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"error":"not_found","error_description":"Q404"}`, rr.Body.String())

	rr = do(h, http.MethodGet, "/api/film/500", nil)
	require.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"error":"fetch_failed","error_description":"upstream unavailable"}`, rr.Body.String())
}

func TestIndexHealthAndMetrics(t *testing.T) {
	h, _, m, _ := newTestServer(t)

	rr := do(h, http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	doc, err := goquery.NewDocumentFromReader(rr.Body)
	require.NoError(t, err)
	assert.Equal(t, "wikiMDb", doc.Find("h1").Text())

	rr = do(h, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok\n", rr.Body.String())

	do(h, http.MethodGet, "/film/13417189", nil)
	do(h, http.MethodGet, "/film/404", nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Pages.WithLabelValues("/film/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Pages.WithLabelValues("/film/{id}", "404")))

	rr = do(h, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	body, _ := io.ReadAll(rr.Body)
	assert.Contains(t, string(body), `wikimdb_http_requests_total{route="/film/{id}",status="200"} 1`)
}

func TestRequestID(t *testing.T) {
	h, _, _, logs := newTestServer(t)

	rr := do(h, http.MethodGet, "/healthz", nil)
	id := rr.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err, "应生成 UUID request id")
	assert.Contains(t, logs.String(), "request_id="+id)

	given := uuid.NewString()
	rr = do(h, http.MethodGet, "/healthz", map[string]string{RequestIDHeader: given})
	assert.Equal(t, given, rr.Header().Get(RequestIDHeader))

	rr = do(h, http.MethodGet, "/healthz", map[string]string{RequestIDHeader: "not-a-uuid"})
	assert.NotEqual(t, "not-a-uuid", rr.Header().Get(RequestIDHeader))
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}
