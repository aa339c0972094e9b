package upstream

import (
	"errors"
	"fmt"
)

// FetchError 表示一次查询没有拿到可用的响应体（FetchFailed）。
//
// 上层据此决定页面级降级（例如渲染“加载失败”），本层不重试。
// 注意：实体不存在不是 FetchError，而是正常响应里没有实体载荷。
type FetchError struct {
	URL        string
	StatusCode int // 0 表示没有拿到 HTTP 响应
	Err        error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "fetch failed"
	}
	switch {
	case e.StatusCode >= 400 && e.Err == nil:
		return fmt.Sprintf("fetch failed: %s 返回 HTTP %d", e.URL, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("fetch failed: %s: %v", e.URL, e.Err)
	default:
		return "fetch failed: " + e.URL
	}
}

func (e *FetchError) Unwrap() error { return e.Err }

// IsFetchFailed 判断 err 是否为 FetchError。
func IsFetchFailed(err error) bool {
	var e *FetchError
	return errors.As(err, &e)
}
