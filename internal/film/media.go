package film

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"strings"
)

var filePrefixes = []string{"File:", "Image:"}

// NormalizeFilename 把声明里的文件名规范化为媒体存储的落盘名：
// 去掉 "File:"/"Image:" 前缀，空格替换为下划线。
func NormalizeFilename(name string) string {
	name = strings.TrimSpace(name)
	for _, p := range filePrefixes {
		if len(name) >= len(p) && strings.EqualFold(name[:len(p)], p) {
			name = name[len(p):]
			break
		}
	}
	return strings.ReplaceAll(strings.TrimSpace(name), " ", "_")
}

// MediaURL 按上游媒体存储的分片约定拼接文件 URL：
//
//	https://<host>/wikipedia/commons/<h[0]>/<h[0:2]>/<encodeURIComponent(name)>
//
// 其中 h 是规范化文件名的 MD5 十六进制串。
func MediaURL(host, filename string) string {
	name := NormalizeFilename(filename)
	if name == "" {
		return ""
	}
	sum := md5.Sum([]byte(name))
	h := hex.EncodeToString(sum[:])
	return "https://" + mediaHost(host) + "/wikipedia/commons/" + h[:1] + "/" + h[:2] + "/" + EscapeComponent(name)
}

func mediaHost(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	host = strings.TrimRight(host, "/")
	if host == "" {
		return DefaultMediaHost
	}
	return host
}

// encodeURIComponent 额外保留的字符（QueryEscape 会转义它们）。
var componentUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)

// EscapeComponent 与 JavaScript 的 encodeURIComponent 逐字节一致：
// 只保留 A-Z a-z 0-9 - _ . ! ~ * ' ( )，其余按 UTF-8 百分号编码（大写十六进制）。
func EscapeComponent(s string) string {
	return componentUnescaper.Replace(url.QueryEscape(s))
}
