package film

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// 支持的展示语言；第一个是无法匹配时的回退。
var supported = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
	language.Italian,
	language.Dutch,
}

var matcher = language.NewMatcher(supported)

// MatchLanguage 把语言提示（"de"、"de-AT"、"fr-CH, fr;q=0.9" 等）匹配到支持的展示语言。
// 提示为空/无法解析/不受支持时回退为英语。
func MatchLanguage(hint string) language.Tag {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return supported[0]
	}
	tags, _, err := language.ParseAcceptLanguage(hint)
	if err != nil || len(tags) == 0 {
		return supported[0]
	}
	// 无法匹配时 Match 返回下标 0（即英语）。
	_, idx, _ := matcher.Match(tags...)
	return supported[idx]
}

type longDate struct {
	months [12]string
	format func(day int, month string, year int) string
}

var longDates = map[string]longDate{
	"en": {
		months: [12]string{"January", "February", "March", "April", "May", "June", "July", "August", "September", "October", "November", "December"},
		format: func(d int, m string, y int) string { return m + " " + strconv.Itoa(d) + ", " + strconv.Itoa(y) },
	},
	"de": {
		months: [12]string{"Januar", "Februar", "März", "April", "Mai", "Juni", "Juli", "August", "September", "Oktober", "November", "Dezember"},
		format: func(d int, m string, y int) string { return strconv.Itoa(d) + ". " + m + " " + strconv.Itoa(y) },
	},
	"fr": {
		months: [12]string{"janvier", "février", "mars", "avril", "mai", "juin", "juillet", "août", "septembre", "octobre", "novembre", "décembre"},
		format: dayMonthYear,
	},
	"es": {
		months: [12]string{"enero", "febrero", "marzo", "abril", "mayo", "junio", "julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre"},
		format: func(d int, m string, y int) string { return strconv.Itoa(d) + " de " + m + " de " + strconv.Itoa(y) },
	},
	"it": {
		months: [12]string{"gennaio", "febbraio", "marzo", "aprile", "maggio", "giugno", "luglio", "agosto", "settembre", "ottobre", "novembre", "dicembre"},
		format: dayMonthYear,
	},
	"nl": {
		months: [12]string{"januari", "februari", "maart", "april", "mei", "juni", "juli", "augustus", "september", "oktober", "november", "december"},
		format: dayMonthYear,
	},
}

func dayMonthYear(d int, m string, y int) string {
	return strconv.Itoa(d) + " " + m + " " + strconv.Itoa(y)
}

// FormatLongDate 返回长日期（月份名 + 日 + 年），顺序与月份名随语言变化。
func FormatLongDate(t time.Time, tag language.Tag) string {
	base, _ := tag.Base()
	ld, ok := longDates[base.String()]
	if !ok {
		ld = longDates["en"]
	}
	return ld.format(t.Day(), ld.months[t.Month()-1], t.Year())
}
