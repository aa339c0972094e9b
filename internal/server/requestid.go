package server

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader 同时用于读取上游代理传入的 ID 与回显给客户端。
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

// RequestIDFrom 返回请求上下文中的 request ID；不存在时返回空串。
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// requestID 为每个请求分配 ID：沿用合法的 X-Request-ID（UUID），否则新生成。
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}
