// Package nfo 把 FilmRecord 编码为 Kodi/Jellyfin/Emby 可读取的 NFO（XML）。
package nfo

import (
	"encoding/xml"
	"errors"
	"strconv"
	"strings"

	"github.com/John-Robertt/wikimdb/internal/domain"
)

// EntityURLPrefix 是实体页面的 URL 前缀（用于 <website>）。
const EntityURLPrefix = "https://www.wikidata.org/wiki/"

type movie struct {
	XMLName xml.Name `xml:"movie"`

	Title    string   `xml:"title"`
	UniqueID uniqueID `xml:"uniqueid"`

	Year    int    `xml:"year,omitempty"`
	Runtime int    `xml:"runtime,omitempty"`
	MPAA    string `xml:"mpaa,omitempty"`

	Thumb *thumb `xml:"thumb,omitempty"`

	Genres    []string `xml:"genre,omitempty"`
	Directors []string `xml:"director,omitempty"`
	Credits   []string `xml:"credits,omitempty"`

	Website string `xml:"website,omitempty"`
}

type uniqueID struct {
	Type    string `xml:"type,attr"`
	Default bool   `xml:"default,attr"`
	Value   string `xml:",chardata"`
}

type thumb struct {
	Aspect string `xml:"aspect,attr"`
	URL    string `xml:",chardata"`
}

// ErrNotFound 表示记录没有实体（NotFound），不生成 NFO。
var ErrNotFound = errors.New("实体不存在，无法生成 NFO")

// Encode 把记录转成 NFO。
//
// 规则：
// - 字段缺失允许为空；列表去空白、去重、保持输入顺序
// - title 为空时回退到 Q 标识符
// - year/runtime 从展示串反解（"(2014)"、"2h 49min"），无法解析时省略
func Encode(id domain.EntityID, rec domain.FilmRecord) ([]byte, error) {
	if rec.NotFound {
		return nil, ErrNotFound
	}
	qid := id.QID()
	title := strings.TrimSpace(rec.Title)
	if title == "" {
		title = qid
	}

	m := movie{
		Title:    title,
		UniqueID: uniqueID{Type: "wikidata", Default: true, Value: qid},
		Year:     parseYear(rec.Year),
		Runtime:  parseMinutes(rec.Duration),
		MPAA:     strings.TrimSpace(rec.Rating),
		Genres:   normList(rec.Genres),
		Website:  EntityURLPrefix + qid,
	}
	if u := strings.TrimSpace(rec.PosterURL); u != "" {
		m.Thumb = &thumb{Aspect: "poster", URL: u}
	}
	for _, c := range rec.Crew {
		switch c.Role {
		case "director":
			m.Directors = normList(c.Names)
		case "screenwriter":
			m.Credits = normList(c.Names)
		}
	}

	b, err := xml.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, err
	}
	// 约定：输出带 standalone="yes" 的 XML 头，便于与常见刮削器产物兼容。
	const header = `<?xml version="1.0" encoding="UTF-8" standalone="yes" ?>` + "\n"
	return append([]byte(header), b...), nil
}

func parseYear(s string) int {
	s = strings.Trim(strings.TrimSpace(s), "()")
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}

// parseMinutes 解析 "2h 5min" / "45min"。
func parseMinutes(s string) int {
	total := 0
	for _, f := range strings.Fields(s) {
		switch {
		case strings.HasSuffix(f, "min"):
			n, err := strconv.Atoi(strings.TrimSuffix(f, "min"))
			if err != nil {
				return 0
			}
			total += n
		case strings.HasSuffix(f, "h"):
			n, err := strconv.Atoi(strings.TrimSuffix(f, "h"))
			if err != nil {
				return 0
			}
			total += n * 60
		default:
			return 0
		}
	}
	return total
}

func normList(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	m := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if _, ok := m[s]; ok {
			continue
		}
		m[s] = struct{}{}
		out = append(out, s)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
