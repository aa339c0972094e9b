package page

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/John-Robertt/wikimdb/internal/domain"
)

// Text 把记录渲染为终端文本。
//
// 颜色按 w 是否为终端自动降级：写入文件/管道时输出纯文本。
func Text(w io.Writer, id domain.EntityID, rec domain.FilmRecord) error {
	r := lipgloss.NewRenderer(w)
	var (
		heading = r.NewStyle().Bold(true).Foreground(lipgloss.Color("#F5C518"))
		meta    = r.NewStyle().Foreground(lipgloss.Color("245"))
		label   = r.NewStyle().Bold(true)
		notice  = r.NewStyle().Foreground(lipgloss.Color("203"))
	)

	if rec.NotFound {
		_, err := fmt.Fprintln(w, notice.Render("No film found for "+id.QID()+"."))
		return err
	}

	var lines []string
	h := rec.Heading()
	if h == "" {
		h = id.QID()
	}
	lines = append(lines, heading.Render(h))
	if m := rec.Meta(); m != "" {
		lines = append(lines, meta.Render(m))
	}
	if rec.PosterURL != "" {
		lines = append(lines, label.Render("Poster")+"  "+rec.PosterURL)
	}

	if len(rec.Crew) > 0 {
		width := 0
		for _, c := range rec.Crew {
			width = max(width, lipgloss.Width(c.Label))
		}
		lines = append(lines, "")
		for _, c := range rec.Crew {
			lines = append(lines, label.Width(width+2).Render(c.Label)+c.NamesDisplay())
		}
	}

	_, err := io.WriteString(w, strings.Join(lines, "\n")+"\n")
	return err
}
