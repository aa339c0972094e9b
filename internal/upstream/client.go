// Package upstream 实现对 GraphQL 代理的单次查询，以及各 schema adapter 的公共部分。
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/John-Robertt/wikimdb/internal/query"
)

// Raw 是上游返回的、原样解析的 JSON 对象（数字保留为 json.Number）。
type Raw map[string]any

const (
	// DefaultEndpoint 是公共的 Wikidata GraphQL 代理。
	DefaultEndpoint = "https://tools.wmflabs.org/tptools/wdql.php"

	// 单个详情页的响应通常只有几 KB；上限只用于防御异常响应。
	maxBodyBytes = 8 << 20
)

// Fetcher 抽象“发出一次查询并取回原始响应”，便于上层测试替换。
type Fetcher interface {
	Fetch(ctx context.Context, spec query.Spec, lang string) (Raw, error)
}

var _ Fetcher = (*Client)(nil)

// Client 对上游端点发出 GET 查询。
//
// 约束：每次 Fetch 只发一次请求；不缓存、不重试（重试与否由 http.Client 的 Transport 决定，
// 本项目的 httpx 固定为 0 次）。
type Client struct {
	endpoint  *url.URL
	http      *http.Client
	userAgent string
}

// NewClient 构造 Client。hc 为空时使用 http.DefaultClient；
// userAgent 为空时不设置，交给 hc 的 Transport 注入（见 httpx）。
func NewClient(endpoint string, hc *http.Client, userAgent string) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("endpoint 无效：%w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("endpoint 必须是 http/https URL：%q", endpoint)
	}
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{endpoint: u, http: hc, userAgent: strings.TrimSpace(userAgent)}, nil
}

// Endpoint 返回规范化后的端点 URL。
func (c *Client) Endpoint() string { return c.endpoint.String() }

// Fetch 发出一次 GET：?query=<文档>&variables=<JSON>。
// lang 非空时作为 Accept-Language 转发。
//
// 返回值：
// - 成功：解析后的 JSON 对象；实体不存在也算成功（载荷里没有实体而已）
// - 失败：*FetchError（网络错误、HTTP >= 400、非 JSON、只有 GraphQL errors 没有 data）
func (c *Client) Fetch(ctx context.Context, spec query.Spec, lang string) (Raw, error) {
	if c == nil {
		return nil, errors.New("client 不能为空")
	}

	u := *c.endpoint
	q := u.Query()
	for k, vs := range spec.Values() {
		q[k] = vs
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &FetchError{URL: c.Endpoint(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if l := strings.TrimSpace(lang); l != "" {
		req.Header.Set("Accept-Language", l)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &FetchError{URL: c.Endpoint(), Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		return nil, &FetchError{URL: c.Endpoint(), StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &FetchError{URL: c.Endpoint(), StatusCode: resp.StatusCode, Err: fmt.Errorf("读取响应失败：%w", err)}
	}

	raw, err := DecodeRaw(body)
	if err != nil {
		return nil, &FetchError{URL: c.Endpoint(), StatusCode: resp.StatusCode, Err: err}
	}
	return raw, nil
}

// DecodeRaw 解析响应体（也用于离线回放已保存的响应）。
//
// 只有 GraphQL errors 而 data 缺失或为 null 时返回 gqlerror.List：上游明确拒绝了查询。
func DecodeRaw(body []byte) (Raw, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var raw Raw
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("响应不是合法 JSON：%w", err)
	}
	if raw == nil {
		return nil, errors.New("响应不是 JSON 对象")
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("响应在 JSON 对象之后还有多余内容")
	}

	if data, hasData := raw["data"]; !hasData || data == nil {
		if _, hasErrors := raw["errors"]; hasErrors {
			var payload struct {
				Errors gqlerror.List `json:"errors"`
			}
			if err := json.Unmarshal(body, &payload); err != nil || len(payload.Errors) == 0 {
				return nil, errors.New("上游返回了无法解析的 errors")
			}
			return nil, payload.Errors
		}
	}
	return raw, nil
}

// Errors 返回响应中附带的 GraphQL errors（data 存在时上游仍可能给出部分错误）。
func (r Raw) Errors() gqlerror.List {
	v, ok := r["errors"]
	if !ok {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var list gqlerror.List
	if err := json.Unmarshal(b, &list); err != nil {
		return nil
	}
	return list
}
