// Package lookup 串联一次影片查询：生成查询 → 取回 → 解码 → 投影。
package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/John-Robertt/wikimdb/internal/domain"
	"github.com/John-Robertt/wikimdb/internal/film"
	"github.com/John-Robertt/wikimdb/internal/upstream"
)

// ErrEmptyID 表示请求没有携带实体标识符（在任何 I/O 之前拒绝）。
var ErrEmptyID = errors.New("实体标识符不能为空")

// Service 持有一次查询需要的全部协作者；零值不可用。
//
// 约束：
// - 严格串行：每次 Lookup 最多一次上游请求，不缓存、不重试
// - 除 Observer 回调外不做任何输出
// - 字段在构造后只读，可被多个 goroutine 共享
type Service struct {
	Registry upstream.Registry
	// Schema 选择 adapter（"statement" / "entity"）。
	Schema string
	Client upstream.Fetcher
	// MediaHost 为空时使用 film.DefaultMediaHost。
	MediaHost string
	// DefaultLanguage 在请求没有语言时使用；也为空时由查询文档默认值（"en"）兜底。
	DefaultLanguage string
	Observer        Observer
}

// Request 是一次查询的输入。
type Request struct {
	ID       domain.EntityID
	Language string
}

// Result 是一次查询的输出。Raw 是上游原始响应，用于保存快照或排查问题。
type Result struct {
	Record domain.FilmRecord
	Raw    upstream.Raw
	Schema string
}

// Lookup 执行一次查询。
//
// 返回值：
// - 实体不存在：Record.NotFound=true，err=nil
// - 上游失败：*upstream.FetchError 原样返回（由调用方决定页面级降级）
func (s *Service) Lookup(ctx context.Context, req Request) (Result, error) {
	id, ok := domain.ParseEntityID(string(req.ID))
	if !ok {
		return Result{}, ErrEmptyID
	}
	if s.Client == nil {
		return Result{}, errors.New("lookup：client 不能为空")
	}
	a, err := s.adapter()
	if err != nil {
		return Result{}, err
	}
	lang := s.language(req.Language)

	started := time.Now()
	raw, err := s.Client.Fetch(ctx, a.Query(id, lang), lang)
	if s.Observer != nil {
		s.Observer.OnFetch(a.Name(), id, time.Since(started), err)
	}
	if err != nil {
		return Result{}, err
	}

	rec := Project(a, raw, film.Options{MediaHost: s.MediaHost, Language: lang})
	if s.Observer != nil {
		s.Observer.OnProject(a.Name(), id, rec)
	}
	return Result{Record: rec, Raw: raw, Schema: a.Name()}, nil
}

// Replay 投影一份已保存的原始响应（不发请求）。
func (s *Service) Replay(raw upstream.Raw, language string) (Result, error) {
	a, err := s.adapter()
	if err != nil {
		return Result{}, err
	}
	rec := Project(a, raw, film.Options{MediaHost: s.MediaHost, Language: s.language(language)})
	return Result{Record: rec, Raw: raw, Schema: a.Name()}, nil
}

// Project 用指定 adapter 解码原始响应并投影为 FilmRecord（纯函数）。
func Project(a upstream.Adapter, raw upstream.Raw, opts film.Options) domain.FilmRecord {
	return film.Project(a.Decode(raw), opts)
}

func (s *Service) adapter() (upstream.Adapter, error) {
	a, ok := s.Registry.Get(s.Schema)
	if !ok {
		return nil, fmt.Errorf("未知的 schema：%q（可选：%s）", s.Schema, strings.Join(s.Registry.Names(), ", "))
	}
	return a, nil
}

func (s *Service) language(requested string) string {
	if l := strings.TrimSpace(requested); l != "" {
		return l
	}
	return strings.TrimSpace(s.DefaultLanguage)
}
