// Package query 负责为各上游 schema 生成参数化的 GraphQL 查询文档。
//
// 生成只是字符串模板拼接：标识符原样透传，不做任何校验。
package query

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/John-Robertt/wikimdb/internal/domain"
	"github.com/John-Robertt/wikimdb/internal/graph"
)

// Schema 标识上游 schema 变体。
type Schema string

const (
	// SchemaStatement 是扁平 schema：item(id) { alias: statements(...) }。
	SchemaStatement Schema = "statement"
	// SchemaEntity 是嵌套 schema：wikidata { entity(id) { alias: claims(...) } }。
	SchemaEntity Schema = "entity"
)

// Field 描述查询中的一个声明别名。
// 两种 schema 共用同一张表：adapter 也靠它把别名映射回属性与值类型。
type Field struct {
	Alias    string
	Property graph.Property
	Kind     graph.Kind
}

// Fields 是影片详情页需要的全部声明（顺序即文档中的顺序）。
var Fields = []Field{
	{Alias: "logos", Property: graph.PropLogo, Kind: graph.KindString},
	{Alias: "images", Property: graph.PropImage, Kind: graph.KindString},
	{Alias: "publication", Property: graph.PropPublication, Kind: graph.KindTime},
	{Alias: "duration", Property: graph.PropDuration, Kind: graph.KindQuantity},
	{Alias: "mpaa", Property: graph.PropRating, Kind: graph.KindItem},
	{Alias: "genres", Property: graph.PropGenre, Kind: graph.KindItem},
	{Alias: "director", Property: graph.PropDirector, Kind: graph.KindItem},
	{Alias: "screenwriter", Property: graph.PropScreenwriter, Kind: graph.KindItem},
}

// Role 是需要同时查询属性标签的职能（详情页的 crew 区块）。
type Role struct {
	Key      string
	Property graph.Property
}

// Roles 按展示顺序排列。
var Roles = []Role{
	{Key: "director", Property: graph.PropDirector},
	{Key: "screenwriter", Property: graph.PropScreenwriter},
}

// FieldByAlias 按别名查找声明定义。
func FieldByAlias(alias string) (Field, bool) {
	for _, f := range Fields {
		if f.Alias == alias {
			return f, true
		}
	}
	return Field{}, false
}

// Spec 是一次查询的完整参数：文档 + 变量。
type Spec struct {
	Document  string
	Variables map[string]string
}

// Build 为 schema 生成查询参数。
//
// 变量固定为 {id: "Q<id>", lang?: locale}；locale 为空时不写 lang，
// 由文档中声明的默认值（"en"）兜底。
func Build(schema Schema, id domain.EntityID, locale string) Spec {
	vars := map[string]string{"id": id.QID()}
	if l := strings.TrimSpace(locale); l != "" {
		vars["lang"] = l
	}
	return Spec{Document: Document(schema), Variables: vars}
}

// Values 返回 GET 请求的两个查询参数：query 与 JSON 编码的 variables。
func (s Spec) Values() url.Values {
	// map[string]string 的 JSON 编码不会失败；键按字典序输出，结果稳定。
	b, _ := json.Marshal(s.Variables)
	return url.Values{
		"query":     {s.Document},
		"variables": {string(b)},
	}
}

// Document 返回 schema 对应的查询文档；未知 schema 返回空串。
func Document(schema Schema) string {
	switch schema {
	case SchemaStatement:
		return statementDoc
	case SchemaEntity:
		return entityDoc
	default:
		return ""
	}
}

// Validate 用 GraphQL 解析器检查文档语法，并确认它是一个声明了 $id 的查询操作。
// 只检查语法与结构，不依赖上游 schema。
func Validate(doc string) error {
	if strings.TrimSpace(doc) == "" {
		return fmt.Errorf("查询文档为空")
	}
	qd, err := parser.ParseQuery(&ast.Source{Name: "film", Input: doc})
	if err != nil {
		return fmt.Errorf("查询文档无法解析：%w", err)
	}
	if len(qd.Operations) != 1 {
		return fmt.Errorf("查询文档应只包含 1 个操作，实际 %d 个", len(qd.Operations))
	}
	op := qd.Operations[0]
	if op.Operation != ast.Query {
		return fmt.Errorf("操作类型必须是 query，实际是 %q", op.Operation)
	}
	if op.VariableDefinitions.ForName("id") == nil {
		return fmt.Errorf("查询 %q 缺少变量 $id", op.Name)
	}
	return nil
}

var (
	statementDoc = buildStatementDoc()
	entityDoc    = buildEntityDoc()
)

func buildStatementDoc() string {
	var b strings.Builder
	b.WriteString("query getItem($id: ID!, $lang: String = \"en\") {\n")
	b.WriteString("  item(id: $id) {\n")
	b.WriteString("    label(language: $lang) {\n      text\n    }\n")
	for _, f := range Fields {
		fmt.Fprintf(&b, "    %s: statements(propertyIds: %q, best: true) {\n      ...StatementValue\n    }\n", f.Alias, string(f.Property))
	}
	b.WriteString("  }\n")
	for _, r := range Roles {
		fmt.Fprintf(&b, "  %s: property(id: %q) {\n    ...PropertyLabel\n  }\n", r.Key, string(r.Property))
	}
	b.WriteString("}\n\n")
	b.WriteString(propertyLabelFragment)
	b.WriteString(`
fragment StatementValue on Statement {
  data: mainsnak {
    ... on PropertyValueSnak {
      item: value {
        ... on StringValue {
          value
        }
        ... on QuantityValue {
          value: amount
        }
        ... on TimeValue {
          value: time
        }
        ... on Item {
          label(language: $lang) {
            text
          }
        }
      }
    }
  }
}
`)
	return b.String()
}

func buildEntityDoc() string {
	var b strings.Builder
	b.WriteString("query getFilm($id: ID!, $lang: String = \"en\") {\n")
	b.WriteString("  wikidata {\n")
	b.WriteString("    entity(id: $id) {\n")
	b.WriteString("      label(language: $lang) {\n        text\n      }\n")
	for _, f := range Fields {
		fmt.Fprintf(&b, "      %s: claims(property: %q, best: true) {\n        ...ClaimValue\n      }\n", f.Alias, string(f.Property))
	}
	b.WriteString("    }\n")
	for _, r := range Roles {
		fmt.Fprintf(&b, "    %s: property(id: %q) {\n      ...PropertyLabel\n    }\n", r.Key, string(r.Property))
	}
	b.WriteString("  }\n}\n\n")
	b.WriteString(propertyLabelFragment)
	b.WriteString(`
fragment ClaimValue on Claim {
  mainsnak {
    value {
      __typename
      ... on StringValue {
        value
      }
      ... on QuantityValue {
        amount
      }
      ... on TimeValue {
        time
      }
      ... on Item {
        label(language: $lang) {
          text
        }
      }
    }
  }
}
`)
	return b.String()
}

const propertyLabelFragment = `fragment PropertyLabel on Property {
  label(language: $lang) {
    text
  }
}
`
