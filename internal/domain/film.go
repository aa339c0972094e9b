package domain

import "strings"

// FilmRecord 是投影得到的、可直接展示的影片记录。
//
// 约束：
// - 每个字段独立可选：空串/空切片即“缺失”，一个字段缺失不影响其他字段
// - NotFound=true 时其余字段全部为空（上游没有实体载荷）
// - 记录生成后不再修改；不缓存、不持久化
type FilmRecord struct {
	NotFound bool `json:"not_found,omitempty"`

	Title       string `json:"title,omitempty"`
	Year        string `json:"year,omitempty"`         // 形如 "(2014)"
	ReleaseDate string `json:"release_date,omitempty"` // 按语言格式化的长日期
	PosterURL   string `json:"poster_url,omitempty"`
	Rating      string `json:"rating,omitempty"`
	Duration    string `json:"duration,omitempty"` // 形如 "2h 5min"

	Genres []string    `json:"genres,omitempty"`
	Crew   []CrewEntry `json:"crew,omitempty"`
}

// CrewEntry 描述一个职能（导演/编剧）及其人员。
// Names 允许为空：职能标签存在但没有任何人员声明。
type CrewEntry struct {
	Role  string   `json:"role"`  // 稳定 key，例如 "director"
	Label string   `json:"label"` // 属性的展示名，例如 "director" / "Regisseur"
	Names []string `json:"names"`
}

const (
	genreSep = ", "
	metaSep  = " | "
)

// GenresDisplay 返回用于展示的类型串（", " 连接）。
func (r FilmRecord) GenresDisplay() string {
	return strings.Join(r.Genres, genreSep)
}

// Meta 按固定顺序（分级、时长、类型、上映日期）拼接摘要行，缺失项直接跳过。
func (r FilmRecord) Meta() string {
	parts := make([]string, 0, 4)
	for _, s := range []string{r.Rating, r.Duration, r.GenresDisplay(), r.ReleaseDate} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, metaSep)
}

// Heading 返回页面标题：标题 + 年份（任一缺失时只返回另一个）。
func (r FilmRecord) Heading() string {
	return strings.TrimSpace(r.Title + " " + r.Year)
}

// NamesDisplay 返回人员列表的展示串。
func (c CrewEntry) NamesDisplay() string {
	return strings.Join(c.Names, genreSep)
}
