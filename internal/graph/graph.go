// Package graph 定义与上游 schema 无关的原始响应模型。
//
// 各 schema adapter 负责把自己的 JSON 形态解码到这里；投影层只依赖本包，
// 不关心响应来自扁平 statement schema 还是嵌套 entity schema。
package graph

// Property 是知识图谱属性 ID（例如 "P577"）。
type Property string

const (
	PropLogo         Property = "P154"
	PropImage        Property = "P18"
	PropPublication  Property = "P577"
	PropDuration     Property = "P2047"
	PropRating       Property = "P1657"
	PropGenre        Property = "P136"
	PropDirector     Property = "P57"
	PropScreenwriter Property = "P58"
)

// Kind 区分声明值载荷的形态。
type Kind int

const (
	KindUnknown Kind = iota
	KindString
	KindQuantity
	KindTime
	KindItem
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindQuantity:
		return "quantity"
	case KindTime:
		return "time"
	case KindItem:
		return "item"
	default:
		return "unknown"
	}
}

// Value 是一条声明的主值。
//
// - KindString/KindQuantity/KindTime：Text 分别是字符串值、数量（amount）、时间戳
// - KindItem：Label 是被引用实体的展示标签（可能为空：上游没有该语言的标签）
type Value struct {
	Kind  Kind
	Text  string
	Label string
}

// Entity 是上游返回的实体载荷。
// Claims 按属性索引；每个切片保持上游顺序（best 值已由上游筛选）。
type Entity struct {
	Label  string
	Claims map[Property][]Value
}

// Response 是一次查询的统一原始响应。
//
// Entity == nil 表示上游没有实体载荷（not found），这不是错误。
type Response struct {
	Entity         *Entity
	PropertyLabels map[Property]string
}

// First 返回某属性中第一个满足 kind 的值。
// 只看第一条声明：best 值的排序由上游决定，本地不做二次挑选。
func (e *Entity) First(p Property, kind Kind) (Value, bool) {
	if e == nil {
		return Value{}, false
	}
	vs := e.Claims[p]
	if len(vs) == 0 || vs[0].Kind != kind {
		return Value{}, false
	}
	return vs[0], true
}

// Labels 返回某属性下所有 item 值的非空标签（保持声明顺序）。
func (e *Entity) Labels(p Property) []string {
	if e == nil {
		return nil
	}
	var out []string
	for _, v := range e.Claims[p] {
		if v.Kind != KindItem || v.Label == "" {
			continue
		}
		out = append(out, v.Label)
	}
	return out
}

// Add 追加一条声明（Claims 为空时惰性创建）。
func (e *Entity) Add(p Property, v Value) {
	if e.Claims == nil {
		e.Claims = make(map[Property][]Value)
	}
	e.Claims[p] = append(e.Claims[p], v)
}
