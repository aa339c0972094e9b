package upstream

import (
	"fmt"
	"sort"
	"strings"

	"github.com/John-Robertt/wikimdb/internal/domain"
	"github.com/John-Robertt/wikimdb/internal/graph"
	"github.com/John-Robertt/wikimdb/internal/query"
)

// Adapter 把“上游 schema 差异”限制在各自的子包内部；核心流程只依赖统一的 graph.Response。
//
// 约束：
// - Query 只做模板拼接，不做 I/O
// - Decode 必须是全函数：形态不符的部分直接丢弃，不返回错误
type Adapter interface {
	Name() string
	Query(id domain.EntityID, lang string) query.Spec
	Decode(raw Raw) graph.Response
}

// Registry 是 adapter 的只读注册表（按 name 索引）。
type Registry struct {
	byName map[string]Adapter
}

// NewRegistry 注册 adapter，并在启动时校验每个 adapter 生成的查询文档。
func NewRegistry(adapters ...Adapter) (Registry, error) {
	byName := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		if a == nil {
			return Registry{}, fmt.Errorf("adapter 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(a.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("adapter.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 adapter：%q", name)
		}
		// 文档与标识符无关；用占位标识符生成一次即可覆盖模板错误。
		if err := query.Validate(a.Query(domain.EntityID("1"), "").Document); err != nil {
			return Registry{}, fmt.Errorf("adapter %q：%w", name, err)
		}
		byName[name] = a
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (Adapter, bool) {
	if r.byName == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	a, ok := r.byName[name]
	return a, ok
}

// Names 返回已注册的 adapter 名称（字典序）。
func (r Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for n := range r.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
