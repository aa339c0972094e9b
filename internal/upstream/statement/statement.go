// Package statement 实现扁平 statement schema 的 adapter。
//
// 响应形态：
//
//	data.item.label.text
//	data.item.<alias>[].data.item.{value | label.text}
//	data.<role>.label.text
//
// 这个 schema 的值没有 __typename，值类型只能取自别名表（query.Fields）。
package statement

import (
	"github.com/John-Robertt/wikimdb/internal/domain"
	"github.com/John-Robertt/wikimdb/internal/graph"
	"github.com/John-Robertt/wikimdb/internal/query"
	"github.com/John-Robertt/wikimdb/internal/upstream"
)

// Adapter 实现 upstream.Adapter。
type Adapter struct{}

var _ upstream.Adapter = Adapter{}

func (Adapter) Name() string { return string(query.SchemaStatement) }

func (Adapter) Query(id domain.EntityID, lang string) query.Spec {
	return query.Build(query.SchemaStatement, id, lang)
}

type snakValue struct {
	Value string `json:"value"`
	Label *struct {
		Text string `json:"text"`
	} `json:"label"`
}

// Decode 把扁平响应解码为 graph.Response。
// data.item 缺失或为 null 视为实体不存在。
func (Adapter) Decode(raw upstream.Raw) graph.Response {
	data := upstream.Path(raw, "data")

	resp := graph.Response{PropertyLabels: map[graph.Property]string{}}
	for _, r := range query.Roles {
		if l := upstream.Text(upstream.Path(data, r.Key, "label")); l != "" {
			resp.PropertyLabels[r.Property] = l
		}
	}

	item, ok := upstream.Object(upstream.Path(data, "item"))
	if !ok {
		return resp
	}

	e := &graph.Entity{Label: upstream.Text(item["label"])}
	for _, f := range query.Fields {
		for _, st := range upstream.List(item[f.Alias]) {
			e.Add(f.Property, decodeValue(f.Kind, upstream.Path(st, "data", "item")))
		}
	}
	resp.Entity = e
	return resp
}

// decodeValue 形态不符时返回 KindUnknown 占位，保留声明顺序（“只取第一条”依赖它）。
func decodeValue(kind graph.Kind, v any) graph.Value {
	var sv snakValue
	if !upstream.Lenient(v, &sv) {
		return graph.Value{}
	}
	switch kind {
	case graph.KindItem:
		if sv.Label == nil {
			return graph.Value{Kind: graph.KindItem}
		}
		return graph.Value{Kind: graph.KindItem, Label: sv.Label.Text}
	case graph.KindString, graph.KindQuantity, graph.KindTime:
		if sv.Value == "" {
			return graph.Value{}
		}
		return graph.Value{Kind: kind, Text: sv.Value}
	default:
		return graph.Value{}
	}
}
