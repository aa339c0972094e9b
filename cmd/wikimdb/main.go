package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/John-Robertt/wikimdb/internal/app/lookup"
	"github.com/John-Robertt/wikimdb/internal/config"
	"github.com/John-Robertt/wikimdb/internal/domain"
	"github.com/John-Robertt/wikimdb/internal/infra/snapshot"
	"github.com/John-Robertt/wikimdb/internal/nfo"
	"github.com/John-Robertt/wikimdb/internal/page"
	"github.com/John-Robertt/wikimdb/internal/server"
	"github.com/John-Robertt/wikimdb/internal/upstream"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run 是可测试的入口：stdout 只输出命令结果，日志与错误写 stderr。
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 || isHelp(args[0]) {
		printUsage(stdout)
		return exitOK
	}

	cmd, rest := args[0], args[1:]
	for _, a := range rest {
		if isHelp(a) {
			printUsage(stdout)
			return exitOK
		}
	}

	switch cmd {
	case "serve":
		return serveCmd(ctx, rest, stderr)
	case "show":
		return showCmd(ctx, rest, stdout, stderr)
	case "project":
		return projectCmd(rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "未知命令：%q\n\n", cmd)
		printUsage(stderr)
		return exitUsage
	}
}

func serveCmd(ctx context.Context, args []string, stderr io.Writer) int {
	ca, err := parseArgs(args, []string{"config", "listen"}, false)
	if err != nil {
		return usageError(stderr, err)
	}
	a, code := setup(ca, stderr, true)
	if a == nil {
		return code
	}

	pages, err := page.New()
	if err != nil {
		fmt.Fprintf(stderr, "初始化页面模板失败：%v\n", err)
		return exitFailure
	}
	h, err := server.New(server.Options{Lookup: a.svc, Pages: pages, Metrics: a.metrics, Logger: a.log})
	if err != nil {
		fmt.Fprintf(stderr, "初始化路由失败：%v\n", err)
		return exitFailure
	}

	srv := &http.Server{
		Addr:              a.eff.Listen,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	a.log.Info("listening", "addr", a.eff.Listen, "schema", a.eff.Schema, "endpoint", a.eff.Endpoint, "config", a.eff.ConfigPath)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			a.log.Error("server stopped", "err", err)
			return exitFailure
		}
		return exitOK
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("shutdown failed", "err", err)
		return exitFailure
	}
	a.log.Info("server stopped")
	return exitOK
}

func showCmd(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	ca, err := parseArgs(args, []string{"config", "lang", "schema", "format", "save-raw"}, true)
	if err != nil {
		return usageError(stderr, err)
	}
	a, code := setup(ca, stderr, false)
	if a == nil {
		return code
	}

	id := domain.EntityID(strings.TrimSpace(ca.Positional))
	res, err := a.svc.Lookup(ctx, lookup.Request{ID: id})
	if err != nil {
		if upstream.IsFetchFailed(err) {
			fmt.Fprintf(stderr, "加载失败：%v\n", err)
		} else {
			fmt.Fprintf(stderr, "查询失败：%v\n", err)
		}
		return exitFailure
	}

	if ca.SaveRaw != "" {
		path, err := snapshot.New(ca.SaveRaw).Write(res.Schema, id, res.Raw)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return exitFailure
		}
		a.log.Info("snapshot saved", "path", path)
	}
	return emit(stdout, stderr, ca.Format, id, res.Record)
}

func projectCmd(args []string, stdout, stderr io.Writer) int {
	ca, err := parseArgs(args, []string{"config", "lang", "schema", "format"}, true)
	if err != nil {
		return usageError(stderr, err)
	}
	a, code := setup(ca, stderr, false)
	if a == nil {
		return code
	}

	raw, err := snapshot.Read(ca.Positional)
	if err != nil {
		fmt.Fprintf(stderr, "读取快照失败：%v\n", err)
		return exitFailure
	}
	res, err := a.svc.Replay(raw, "")
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitFailure
	}
	return emit(stdout, stderr, ca.Format, idFromSnapshotName(ca.Positional), res.Record)
}

func setup(ca cmdArgs, stderr io.Writer, withMetrics bool) (*app, int) {
	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(stderr, "读取当前目录失败：%v\n", err)
		return nil, exitFailure
	}
	eff, err := config.LoadEffective(cwd, config.CLIArgs{
		ConfigPath:  ca.ConfigPath,
		Listen:      ca.Listen,
		ListenSet:   ca.ListenSet,
		Schema:      ca.Schema,
		SchemaSet:   ca.SchemaSet,
		Language:    ca.Lang,
		LanguageSet: ca.LangSet,
	})
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return nil, exitFailure
	}
	a, err := newApp(eff, stderr, withMetrics)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return nil, exitFailure
	}
	return a, exitOK
}

// emit 输出记录；实体不存在时仍按格式输出（nfo 除外），但退出码为 1。
func emit(stdout, stderr io.Writer, format string, id domain.EntityID, rec domain.FilmRecord) int {
	if rec.NotFound && format == formatNFO {
		fmt.Fprintf(stderr, "No film found for %s.\n", id.QID())
		return exitFailure
	}
	var err error
	switch format {
	case formatJSON:
		enc := json.NewEncoder(stdout)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		err = enc.Encode(rec)
	case formatNFO:
		var b []byte
		b, err = nfo.Encode(id, rec)
		if err == nil {
			_, err = stdout.Write(append(b, '\n'))
		}
	default:
		err = page.Text(stdout, id, rec)
	}
	if err != nil {
		fmt.Fprintf(stderr, "输出失败：%v\n", err)
		return exitFailure
	}
	if rec.NotFound {
		return exitFailure
	}
	return exitOK
}

// idFromSnapshotName 从 "Q13417189.json" 这类文件名还原标识符（仅用于展示）。
func idFromSnapshotName(path string) domain.EntityID {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return domain.EntityID(strings.TrimPrefix(base, domain.EntityPrefix))
}

func usageError(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "参数错误：%v\n\n", err)
	printUsage(stderr)
	return exitUsage
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `用法：
  wikimdb serve   [--config FILE] [--listen ADDR]
  wikimdb show    <id> [--config FILE] [--lang L] [--schema statement|entity] [--format text|json|nfo] [--save-raw DIR]
  wikimdb project <raw.json> [--config FILE] [--lang L] [--schema statement|entity] [--format text|json|nfo]

命令：
  serve    启动 HTTP 服务（/film/{id}、/api/film/{id}、/metrics）
  show     查询一个实体并输出影片详情（id 不含 Q 前缀，例如 13417189）
  project  离线投影一份已保存的上游响应（见 show --save-raw）

参数：
  --config    配置文件（默认读取 ./wikimdb.toml，不存在则使用内置默认值）
  --listen    监听地址（默认 :3000）
  --lang      展示语言（覆盖配置中的 default_language）
  --schema    上游 schema：statement|entity（默认 statement）
  --format    输出格式：text|json|nfo（默认 text）
  --save-raw  把上游原始响应保存到 DIR/<schema>/Q<id>.json
  -h, --help  显示帮助

退出码：0 成功；1 失败或实体不存在；2 参数错误
`)
}
