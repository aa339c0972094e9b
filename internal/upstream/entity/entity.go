// Package entity 实现嵌套 entity schema 的 adapter。
//
// 响应形态：
//
//	data.wikidata.entity.label.text
//	data.wikidata.entity.<alias>[].mainsnak.value.{__typename, value | amount | time | label.text}
//	data.wikidata.<role>.label.text
package entity

import (
	"github.com/John-Robertt/wikimdb/internal/domain"
	"github.com/John-Robertt/wikimdb/internal/graph"
	"github.com/John-Robertt/wikimdb/internal/query"
	"github.com/John-Robertt/wikimdb/internal/upstream"
)

// Adapter 实现 upstream.Adapter。
type Adapter struct{}

var _ upstream.Adapter = Adapter{}

func (Adapter) Name() string { return string(query.SchemaEntity) }

func (Adapter) Query(id domain.EntityID, lang string) query.Spec {
	return query.Build(query.SchemaEntity, id, lang)
}

type claimValue struct {
	Typename string `json:"__typename"`
	Value    string `json:"value"`
	Amount   string `json:"amount"`
	Time     string `json:"time"`
	Label    *struct {
		Text string `json:"text"`
	} `json:"label"`
}

// Decode 把嵌套响应解码为 graph.Response。
// data.wikidata.entity 缺失或为 null 视为实体不存在。
func (Adapter) Decode(raw upstream.Raw) graph.Response {
	wd := upstream.Path(raw, "data", "wikidata")

	resp := graph.Response{PropertyLabels: map[graph.Property]string{}}
	for _, r := range query.Roles {
		if l := upstream.Text(upstream.Path(wd, r.Key, "label")); l != "" {
			resp.PropertyLabels[r.Property] = l
		}
	}

	ent, ok := upstream.Object(upstream.Path(wd, "entity"))
	if !ok {
		return resp
	}

	e := &graph.Entity{Label: upstream.Text(ent["label"])}
	for _, f := range query.Fields {
		for _, c := range upstream.List(ent[f.Alias]) {
			e.Add(f.Property, decodeValue(upstream.Path(c, "mainsnak", "value")))
		}
	}
	resp.Entity = e
	return resp
}

// decodeValue 按 __typename 判定值类型；缺少 __typename 时按出现的字段推断。
// 无法判定时返回 KindUnknown 占位。
func decodeValue(v any) graph.Value {
	var cv claimValue
	if !upstream.Lenient(v, &cv) {
		return graph.Value{}
	}
	switch typename(cv) {
	case "StringValue":
		return textValue(graph.KindString, cv.Value)
	case "QuantityValue":
		return textValue(graph.KindQuantity, cv.Amount)
	case "TimeValue":
		return textValue(graph.KindTime, cv.Time)
	case "Item":
		if cv.Label == nil {
			return graph.Value{Kind: graph.KindItem}
		}
		return graph.Value{Kind: graph.KindItem, Label: cv.Label.Text}
	default:
		return graph.Value{}
	}
}

func typename(cv claimValue) string {
	switch {
	case cv.Typename != "":
		return cv.Typename
	case cv.Label != nil:
		return "Item"
	case cv.Amount != "":
		return "QuantityValue"
	case cv.Time != "":
		return "TimeValue"
	case cv.Value != "":
		return "StringValue"
	default:
		return ""
	}
}

func textValue(kind graph.Kind, s string) graph.Value {
	if s == "" {
		return graph.Value{}
	}
	return graph.Value{Kind: kind, Text: s}
}
