package upstream

import (
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Path 沿对象键逐层取值；任一层缺失或不是对象时返回 nil。
func Path(v any, keys ...string) any {
	cur := v
	for _, k := range keys {
		m, ok := asObject(cur)
		if !ok {
			return nil
		}
		cur = m[k]
	}
	return cur
}

// Object 返回对象形态的值；其他形态返回 (nil, false)。
func Object(v any) (map[string]any, bool) { return asObject(v) }

// List 返回数组形态的值；其他形态（包括 null）返回 nil。
func List(v any) []any {
	l, _ := v.([]any)
	return l
}

// Text 读取 {text: "..."} 形态的标签；缺失时返回空串。
func Text(v any) string {
	var l struct {
		Text string `json:"text"`
	}
	if !Lenient(v, &l) {
		return ""
	}
	return strings.TrimSpace(l.Text)
}

// Lenient 把一段已解析的 JSON 宽松地解码到 out（数字/布尔可转为字符串）。
// 返回 false 表示形态不符；调用方应丢弃这一段，而不是让整次解码失败。
func Lenient(in any, out any) bool {
	if in == nil {
		return false
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		TagName:          "json",
		Result:           out,
	})
	if err != nil {
		return false
	}
	return dec.Decode(in) == nil
}

func asObject(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, m != nil
	case Raw:
		return m, m != nil
	default:
		return nil, false
	}
}
