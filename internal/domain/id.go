package domain

import "strings"

// EntityPrefix 是发往上游前统一加在标识符前面的固定前缀（Wikidata QID）。
const EntityPrefix = "Q"

// EntityID 是调用方给出的实体标识符（通常是 QID 的数字部分，例如 "11424"）。
//
// 约束：标识符对本系统是不透明的；除“非空”外不做任何校验，原样透传给上游。
type EntityID string

// ParseEntityID 只做去空白与非空判断。
func ParseEntityID(s string) (EntityID, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return EntityID(s), true
}

// QID 返回发往上游的完整标识符（固定前缀 + 原始标识符）。
func (id EntityID) QID() string {
	return EntityPrefix + string(id)
}
