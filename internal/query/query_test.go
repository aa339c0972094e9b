package query

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/John-Robertt/wikimdb/internal/domain"
)

func TestBuild_VariablesPrefixAndOptionalLang(t *testing.T) {
	s := Build(SchemaStatement, domain.EntityID("13417189"), " de ")
	if s.Variables["id"] != "Q13417189" {
		t.Fatalf("id 变量不一致：%q", s.Variables["id"])
	}
	if s.Variables["lang"] != "de" {
		t.Fatalf("lang 变量不一致：%q", s.Variables["lang"])
	}

	s2 := Build(SchemaStatement, domain.EntityID("1"), "")
	if _, ok := s2.Variables["lang"]; ok {
		t.Fatalf("locale 为空时不应写 lang：%v", s2.Variables)
	}
}

func TestSpec_ValuesEncodesVariablesAsJSON(t *testing.T) {
	v := Build(SchemaEntity, domain.EntityID("42"), "fr").Values()
	if v.Get("query") != Document(SchemaEntity) {
		t.Fatalf("query 参数应为完整文档")
	}
	if v.Get("variables") != `{"id":"Q42","lang":"fr"}` {
		t.Fatalf("variables 编码不一致：%s", v.Get("variables"))
	}

	var vars map[string]string
	if err := json.Unmarshal([]byte(v.Get("variables")), &vars); err != nil {
		t.Fatalf("variables 不是合法 JSON：%v", err)
	}
}

func TestDocuments_ParseAndValidate(t *testing.T) {
	for _, schema := range []Schema{SchemaStatement, SchemaEntity} {
		doc := Document(schema)
		if err := Validate(doc); err != nil {
			t.Fatalf("schema=%s 文档不合法：%v\n%s", schema, err, doc)
		}

		qd, err := parser.ParseQuery(&ast.Source{Input: doc})
		if err != nil {
			t.Fatalf("schema=%s 解析失败：%v", schema, err)
		}
		op := qd.Operations[0]
		if v := op.VariableDefinitions.ForName("lang"); v == nil || v.DefaultValue == nil {
			t.Fatalf("schema=%s 的 $lang 应带默认值", schema)
		}
		if len(qd.Fragments) != 2 {
			t.Fatalf("schema=%s 期望 2 个 fragment，实际 %d", schema, len(qd.Fragments))
		}

		// 每个属性都必须出现在文档里（包括编剧 P58）。
		for _, f := range Fields {
			if !strings.Contains(doc, f.Alias+": ") || !strings.Contains(doc, `"`+string(f.Property)+`"`) {
				t.Fatalf("schema=%s 缺少声明 %s/%s", schema, f.Alias, f.Property)
			}
		}
	}
}

func TestValidate_RejectsBrokenDocuments(t *testing.T) {
	cases := map[string]string{
		"empty":      "   ",
		"syntax":     "query q($id: ID!) { item(id: $id) {",
		"mutation":   "mutation m($id: ID!) { x }",
		"missing id": "query q { item { label } }",
		"two ops":    "query a($id: ID!) { x } query b($id: ID!) { y }",
	}
	for name, doc := range cases {
		if err := Validate(doc); err == nil {
			t.Fatalf("%s：期望错误，但得到 nil", name)
		}
	}
}

func TestDocument_UnknownSchema(t *testing.T) {
	if Document(Schema("nope")) != "" {
		t.Fatalf("未知 schema 应返回空文档")
	}
	if _, ok := FieldByAlias("nope"); ok {
		t.Fatalf("未知别名不应命中")
	}
	f, ok := FieldByAlias("duration")
	if !ok || f.Property != "P2047" {
		t.Fatalf("duration 别名映射不一致：%+v", f)
	}
}
