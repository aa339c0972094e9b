package domain

import "testing"

func TestFilmRecord_MetaOrderAndFilter(t *testing.T) {
	r := FilmRecord{
		Rating:      "PG-13",
		Duration:    "2h 49min",
		Genres:      []string{"science fiction", "drama"},
		ReleaseDate: "November 7, 2014",
	}
	want := "PG-13 | 2h 49min | science fiction, drama | November 7, 2014"
	if got := r.Meta(); got != want {
		t.Fatalf("meta 不一致：\n got=%q\nwant=%q", got, want)
	}

	// 缺失项必须被过滤，不能留下空的分隔符。
	r2 := FilmRecord{Duration: "45min", ReleaseDate: "May 1, 2001"}
	if got := r2.Meta(); got != "45min | May 1, 2001" {
		t.Fatalf("meta 未过滤缺失项：%q", got)
	}
	if got := (FilmRecord{}).Meta(); got != "" {
		t.Fatalf("空记录的 meta 应为空串，实际=%q", got)
	}
}

func TestFilmRecord_Heading(t *testing.T) {
	cases := []struct {
		r    FilmRecord
		want string
	}{
		{FilmRecord{Title: "Interstellar", Year: "(2014)"}, "Interstellar (2014)"},
		{FilmRecord{Title: "Interstellar"}, "Interstellar"},
		{FilmRecord{Year: "(2014)"}, "(2014)"},
		{FilmRecord{}, ""},
	}
	for _, c := range cases {
		if got := c.r.Heading(); got != c.want {
			t.Fatalf("Heading(%+v)=%q，期望 %q", c.r, got, c.want)
		}
	}
}

func TestEntityID_ParseAndQID(t *testing.T) {
	if _, ok := ParseEntityID("   "); ok {
		t.Fatalf("空白标识符应被拒绝")
	}
	id, ok := ParseEntityID(" 13417189 ")
	if !ok {
		t.Fatalf("期望解析成功")
	}
	if id.QID() != "Q13417189" {
		t.Fatalf("QID 不一致：%q", id.QID())
	}

	// 标识符不透明：不做格式校验，原样加前缀。
	odd, _ := ParseEntityID("Q42")
	if odd.QID() != "QQ42" {
		t.Fatalf("标识符应原样透传，实际=%q", odd.QID())
	}
}
