package film

import (
	"strconv"
	"strings"
	"time"
)

// ParseTimestamp 解析上游时间值（例如 "+2014-11-07T00:00:00Z"）。
// 先去掉开头的纪元标记（'+' / '-'），再按 RFC 3339 解析；失败返回 ok=false。
//
// 注意：精度为“年/月”的值（例如 "+2014-00-00T00:00:00Z"）无法解析，按缺失处理。
func ParseTimestamp(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if s[0] == '+' || s[0] == '-' {
		s = s[1:]
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

// FormatYear 返回带括号的四位年份，例如 "(2014)"。
func FormatYear(t time.Time) string {
	return "(" + t.Format("2006") + ")"
}

// FormatDuration 把数量值（分钟）格式化为紧凑时长。
//
// 规则：
// - 只取开头的整数部分（"+125" -> 125，"90.5" -> 90）
// - 非数字/负数 -> 缺失（返回空串）
// - 小时 >= 1："<H>h <M>min"，否则 "<M>min"
func FormatDuration(amount string) string {
	m, ok := leadingInt(amount)
	if !ok || m < 0 {
		return ""
	}
	h := m / 60
	m %= 60
	if h >= 1 {
		return strconv.Itoa(h) + "h " + strconv.Itoa(m) + "min"
	}
	return strconv.Itoa(m) + "min"
}

// leadingInt 解析“可选符号 + 连续数字”的前缀；没有数字时 ok=false。
func leadingInt(s string) (int, bool) {
	s = strings.TrimSpace(s)
	neg := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		neg = s[0] == '-'
		s = s[1:]
	}
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		// 溢出：按不可解析处理。
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}
