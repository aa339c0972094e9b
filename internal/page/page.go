// Package page 把 FilmRecord 渲染为 HTML 页面与终端文本。
//
// 渲染层只读记录，不做任何取数或格式化推导（展示串由 domain.FilmRecord 提供）。
package page

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/John-Robertt/wikimdb/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

const siteName = "wikiMDb"

// Renderer 持有预解析的模板；可被多个 goroutine 共享。
type Renderer struct {
	pages map[string]*template.Template
}

type view struct {
	Lang   string
	Title  string
	QID    string
	Record domain.FilmRecord
}

// New 解析内嵌模板；每个页面在 layout 之上独立解析一份（"content" 块互不覆盖）。
func New() (*Renderer, error) {
	layout, err := template.ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("解析 layout 失败：%w", err)
	}
	pages := make(map[string]*template.Template, 4)
	for _, name := range []string{"index", "film", "not_found", "failure"} {
		t, err := template.Must(layout.Clone()).ParseFS(templateFS, "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("解析模板 %s 失败：%w", name, err)
		}
		pages[name] = t
	}
	return &Renderer{pages: pages}, nil
}

// Index 渲染首页（查询表单）。
func (r *Renderer) Index(w io.Writer) error {
	return r.render(w, "index", view{Lang: "en", Title: siteName})
}

// Film 渲染详情页；rec.NotFound 时改为渲染 NotFound。
// lang 只写入 <html lang>，日期等展示串在投影时已按语言生成。
func (r *Renderer) Film(w io.Writer, id domain.EntityID, lang string, rec domain.FilmRecord) error {
	if rec.NotFound {
		return r.NotFound(w, id)
	}
	title := rec.Heading()
	if title == "" {
		title = siteName
	}
	return r.render(w, "film", view{Lang: htmlLang(lang), Title: title, QID: id.QID(), Record: rec})
}

// NotFound 渲染“实体不存在”页面。
func (r *Renderer) NotFound(w io.Writer, id domain.EntityID) error {
	return r.render(w, "not_found", view{Lang: "en", Title: "Not found | " + siteName, QID: id.QID()})
}

// Failure 渲染“加载失败”页面（上游不可用）。
func (r *Renderer) Failure(w io.Writer, id domain.EntityID) error {
	return r.render(w, "failure", view{Lang: "en", Title: "Unavailable | " + siteName, QID: id.QID()})
}

// render 先写入缓冲区：模板执行失败时不会向客户端输出半个页面。
func (r *Renderer) render(w io.Writer, name string, v view) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("未知页面：%s", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		return fmt.Errorf("渲染 %s 失败：%w", name, err)
	}
	_, err := buf.WriteTo(w)
	return err
}

func htmlLang(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" || strings.ContainsAny(lang, " ,;") {
		return "en"
	}
	return lang
}
