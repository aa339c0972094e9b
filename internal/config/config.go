package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/John-Robertt/wikimdb/internal/film"
	"github.com/John-Robertt/wikimdb/internal/query"
	"github.com/John-Robertt/wikimdb/internal/upstream"
)

// FileName 是默认配置文件名（位于 cwd）。
const FileName = "wikimdb.toml"

const (
	// ErrCodeNotFound 表示 --config 指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	DefaultListen   = ":3000"
	DefaultSchema   = string(query.SchemaStatement)
	DefaultTimeout  = 15 * time.Second
	DefaultLogLevel = "info"
)

// CLIArgs 是 CLI 暴露的覆盖项，并保留“是否显式指定”的信息。
// 这能保证覆盖优先级可实现：例如 --lang= 必须能覆盖配置文件里的 default_language。
type CLIArgs struct {
	ConfigPath string

	Listen    string
	ListenSet bool

	Schema    string
	SchemaSet bool

	Language    string
	LanguageSet bool
}

// FileConfig 对应 wikimdb.toml 的解析结构。未知键直接报错（避免拼写错误被静默忽略）。
type FileConfig struct {
	Listen          string       `toml:"listen"`
	Endpoint        string       `toml:"endpoint"`
	Schema          string       `toml:"schema"`
	MediaHost       string       `toml:"media_host"`
	DefaultLanguage string       `toml:"default_language"`
	Timeout         string       `toml:"timeout"`
	UserAgent       string       `toml:"user_agent"`
	LogLevel        string       `toml:"log_level"`
	Proxy           *ProxyConfig `toml:"proxy"`
}

type ProxyConfig struct {
	URL string `toml:"url"`
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigPath 是实际读取的配置文件；没有读取任何文件时为空。
	ConfigPath string

	Listen          string
	Endpoint        string
	Schema          string
	MediaHost       string
	DefaultLanguage string
	Timeout         time.Duration
	UserAgent       string
	LogLevel        string
	ProxyURL        string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与 CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在（相对路径以 cwd 为基准）
// 2) 否则尝试 <cwd>/wikimdb.toml（可选，不存在时全部使用默认值）
//
// 覆盖优先级（固定）：
// - listen/schema/default_language：CLI > config > 默认
// - 其他字段：仅由 config 控制
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	var (
		cfgPath string
		fc      FileConfig
		exists  bool
	)
	if p := strings.TrimSpace(cli.ConfigPath); p != "" {
		cfgPath = absCleanFrom(cwdAbs, p)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		cfgPath = filepath.Join(cwdAbs, FileName)
		fc, exists, err = readFileConfig(cfgPath)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}
	if !exists {
		cfgPath = ""
	}

	eff, err := merge(cli, fc)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	eff.ConfigPath = cfgPath
	return eff, nil
}

func merge(cli CLIArgs, fc FileConfig) (EffectiveConfig, error) {
	listen := pick(cli.ListenSet, cli.Listen, fc.Listen, DefaultListen)
	if listen == "" {
		return EffectiveConfig{}, fmt.Errorf("listen 不能为空")
	}

	schema := strings.ToLower(pick(cli.SchemaSet, cli.Schema, fc.Schema, DefaultSchema))
	if err := validateSchema(schema); err != nil {
		return EffectiveConfig{}, err
	}

	// default_language 允许被 CLI 显式清空（--lang=）。
	lang := strings.TrimSpace(fc.DefaultLanguage)
	if cli.LanguageSet {
		lang = strings.TrimSpace(cli.Language)
	}

	endpoint := strings.TrimSpace(fc.Endpoint)
	if endpoint == "" {
		endpoint = upstream.DefaultEndpoint
	}
	if err := validateHTTPURL("endpoint", endpoint); err != nil {
		return EffectiveConfig{}, err
	}

	mediaHost := strings.TrimSpace(fc.MediaHost)
	if mediaHost == "" {
		mediaHost = film.DefaultMediaHost
	}

	timeout := DefaultTimeout
	if s := strings.TrimSpace(fc.Timeout); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return EffectiveConfig{}, fmt.Errorf("timeout 无效：%w", err)
		}
		if d <= 0 {
			return EffectiveConfig{}, fmt.Errorf("timeout 必须为正数：%q", s)
		}
		timeout = d
	}

	level := strings.ToLower(strings.TrimSpace(fc.LogLevel))
	if level == "" {
		level = DefaultLogLevel
	}
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return EffectiveConfig{}, fmt.Errorf("log_level 只能是 debug/info/warn/error，实际是 %q", fc.LogLevel)
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if proxyURL != "" {
		if _, err := url.Parse(proxyURL); err != nil {
			return EffectiveConfig{}, fmt.Errorf("proxy.url 无效：%w", err)
		}
	}

	return EffectiveConfig{
		Listen:          listen,
		Endpoint:        endpoint,
		Schema:          schema,
		MediaHost:       mediaHost,
		DefaultLanguage: lang,
		Timeout:         timeout,
		UserAgent:       strings.TrimSpace(fc.UserAgent),
		LogLevel:        level,
		ProxyURL:        proxyURL,
	}, nil
}

// pick 实现 CLI > config > 默认 的取值顺序（空串视为未配置）。
func pick(cliSet bool, cliVal, fileVal, def string) string {
	if cliSet {
		return strings.TrimSpace(cliVal)
	}
	if v := strings.TrimSpace(fileVal); v != "" {
		return v
	}
	return def
}

func validateSchema(s string) error {
	switch query.Schema(s) {
	case query.SchemaStatement, query.SchemaEntity:
		return nil
	case "":
		return fmt.Errorf("schema 不能为空")
	default:
		return fmt.Errorf("schema 只能是 %s 或 %s，实际是 %q", query.SchemaStatement, query.SchemaEntity, s)
	}
}

func validateHTTPURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s 无效：%q", field, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s 必须是 http/https：%q", field, raw)
	}
	return nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取并解析 TOML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	dec := toml.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}
