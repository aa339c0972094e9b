// Package snapshot 保存与读取上游原始响应（用于离线回放与排查）。
//
// 只在显式要求时读写，从不在查询流程中隐式命中：这不是缓存。
package snapshot

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/John-Robertt/wikimdb/internal/domain"
	"github.com/John-Robertt/wikimdb/internal/infra/fsx"
	"github.com/John-Robertt/wikimdb/internal/upstream"
)

// Store 把快照写到 <Root>/<schema>/Q<id>.json。
type Store struct {
	Root string
}

func New(root string) Store {
	return Store{Root: filepath.Clean(strings.TrimSpace(root))}
}

var nameRE = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Path 返回快照的路径；schema 与 id 都会成为路径的一部分，只允许安全字符。
func (s Store) Path(schema string, id domain.EntityID) (string, error) {
	schema = strings.ToLower(strings.TrimSpace(schema))
	if !nameRE.MatchString(schema) {
		return "", fmt.Errorf("非法 schema：%q", schema)
	}
	if !nameRE.MatchString(string(id)) {
		return "", fmt.Errorf("标识符 %q 不能作为文件名", string(id))
	}
	return filepath.Join(s.Root, schema, id.QID()+".json"), nil
}

// Write 原子写入快照（覆盖旧文件），返回写入的路径。
func (s Store) Write(schema string, id domain.EntityID, raw upstream.Raw) (string, error) {
	path, err := s.Path(schema, id)
	if err != nil {
		return "", err
	}
	err = fsx.WriteAtomic(path, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(raw)
	})
	if err != nil {
		return "", fmt.Errorf("写入快照失败：%w", err)
	}
	return path, nil
}

// Read 读取任意路径上的快照（不要求位于 Root 下）。
func Read(path string) (upstream.Raw, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	raw, err := upstream.DecodeRaw(b)
	if err != nil {
		return nil, fmt.Errorf("快照 %q 无效：%w", path, err)
	}
	return raw, nil
}
