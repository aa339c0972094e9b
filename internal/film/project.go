package film

import (
	"strings"

	"github.com/John-Robertt/wikimdb/internal/domain"
	"github.com/John-Robertt/wikimdb/internal/graph"
	"github.com/John-Robertt/wikimdb/internal/query"
)

// DefaultMediaHost 是上游媒体存储的默认主机。
const DefaultMediaHost = "upload.wikimedia.org"

// Options 是投影需要的显式配置（不读取任何全局状态）。
type Options struct {
	// MediaHost 为空时使用 DefaultMediaHost。
	MediaHost string
	// Language 决定上映日期的展示语言；不支持的语言回退为英语。
	Language string
}

// Project 把统一原始响应投影为可展示的 FilmRecord。
//
// 约束：
// - 纯函数：相同输入 => 相同输出，不做 I/O
// - 全函数：任何路径缺失/形态不符只会让对应字段缺失，绝不 panic
// - 上游没有实体载荷时只返回 NotFound=true
func Project(resp graph.Response, opts Options) domain.FilmRecord {
	e := resp.Entity
	if e == nil {
		return domain.FilmRecord{NotFound: true}
	}

	rec := domain.FilmRecord{
		Title: strings.TrimSpace(e.Label),
	}

	// 海报：logo 优先，其次 image；只取第一条（best）声明。
	if v, ok := e.First(graph.PropLogo, graph.KindString); ok && strings.TrimSpace(v.Text) != "" {
		rec.PosterURL = MediaURL(opts.MediaHost, v.Text)
	} else if v, ok := e.First(graph.PropImage, graph.KindString); ok && strings.TrimSpace(v.Text) != "" {
		rec.PosterURL = MediaURL(opts.MediaHost, v.Text)
	}

	if v, ok := e.First(graph.PropPublication, graph.KindTime); ok {
		if t, ok := ParseTimestamp(v.Text); ok {
			rec.Year = FormatYear(t)
			rec.ReleaseDate = FormatLongDate(t, MatchLanguage(opts.Language))
		}
	}

	if v, ok := e.First(graph.PropRating, graph.KindItem); ok {
		rec.Rating = strings.TrimSpace(v.Label)
	}

	if v, ok := e.First(graph.PropDuration, graph.KindQuantity); ok {
		rec.Duration = FormatDuration(v.Text)
	}

	for _, l := range e.Labels(graph.PropGenre) {
		if g := StripFilmToken(l); g != "" {
			rec.Genres = append(rec.Genres, g)
		}
	}

	for _, role := range query.Roles {
		label := strings.TrimSpace(resp.PropertyLabels[role.Property])
		if label == "" {
			continue
		}
		names := make([]string, 0, len(e.Claims[role.Property]))
		for _, n := range e.Labels(role.Property) {
			if n = strings.TrimSpace(n); n != "" {
				names = append(names, n)
			}
		}
		rec.Crew = append(rec.Crew, domain.CrewEntry{Role: role.Key, Label: label, Names: names})
	}

	return rec
}

// StripFilmToken 去掉类型标签开头或结尾独立的 "film" 词（区分大小写），并压缩空白。
//
// "drama film" -> "drama"，"film noir" -> "noir"，"filmmaking" 不变。
// 标签恰好是 "film" 时保持原样（避免类型凭空消失）。
func StripFilmToken(label string) string {
	fields := strings.Fields(label)
	if len(fields) > 1 && fields[0] == "film" {
		fields = fields[1:]
	}
	if len(fields) > 1 && fields[len(fields)-1] == "film" {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}
