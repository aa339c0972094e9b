package lookup

import (
	"context"
	"log/slog"
	"time"

	"github.com/John-Robertt/wikimdb/internal/domain"
)

// Observer 把“取回/投影”事件从查询流程中解耦出来（日志、指标由实现决定）。
//
// 约束：实现必须并发安全；HTTP 服务会在多个 goroutine 中共享同一个 Observer。
type Observer interface {
	// OnFetch 在上游请求结束时调用；err 非空表示 FetchFailed。
	OnFetch(schema string, id domain.EntityID, dur time.Duration, err error)
	// OnProject 在投影完成时调用（包括 NotFound）。
	OnProject(schema string, id domain.EntityID, rec domain.FilmRecord)
}

// MultiObserver 按顺序把事件转发给每个非空 Observer。
type MultiObserver []Observer

func (m MultiObserver) OnFetch(schema string, id domain.EntityID, dur time.Duration, err error) {
	for _, o := range m {
		if o != nil {
			o.OnFetch(schema, id, dur, err)
		}
	}
}

func (m MultiObserver) OnProject(schema string, id domain.EntityID, rec domain.FilmRecord) {
	for _, o := range m {
		if o != nil {
			o.OnProject(schema, id, rec)
		}
	}
}

// LogObserver 把事件写成结构化日志。
type LogObserver struct {
	Logger *slog.Logger
}

func (o LogObserver) OnFetch(schema string, id domain.EntityID, dur time.Duration, err error) {
	l := o.logger()
	if err != nil {
		l.Warn("upstream fetch failed", "schema", schema, "entity", id.QID(), "duration_ms", dur.Milliseconds(), "err", err)
		return
	}
	l.Debug("upstream fetch", "schema", schema, "entity", id.QID(), "duration_ms", dur.Milliseconds())
}

func (o LogObserver) OnProject(schema string, id domain.EntityID, rec domain.FilmRecord) {
	l := o.logger()
	if rec.NotFound {
		l.Info("entity not found", "schema", schema, "entity", id.QID())
		return
	}
	if !l.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	l.Debug("projected",
		"schema", schema,
		"entity", id.QID(),
		"title", rec.Title,
		"has_poster", rec.PosterURL != "",
		"genres", len(rec.Genres),
		"crew", len(rec.Crew),
	)
}

func (o LogObserver) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}
