package main

import (
	"fmt"
	"strings"
)

// cmdArgs 是各子命令共享的参数集合；每个子命令只接受自己声明的 flag。
type cmdArgs struct {
	Positional string

	ConfigPath string

	Listen    string
	ListenSet bool

	Lang    string
	LangSet bool

	Schema    string
	SchemaSet bool

	Format  string
	SaveRaw string
}

const (
	formatText = "text"
	formatJSON = "json"
	formatNFO  = "nfo"
)

// parseArgs 解析 "--flag value" 与 "--flag=value" 两种写法；allowed 之外的 flag 一律报错。
// wantPositional 表示是否需要（且只允许）一个位置参数。
func parseArgs(args []string, allowed []string, wantPositional bool) (cmdArgs, error) {
	ca := cmdArgs{Format: formatText}
	isAllowed := make(map[string]bool, len(allowed))
	for _, a := range allowed {
		isAllowed[a] = true
	}

	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") || a == "-" {
			if !wantPositional {
				return cmdArgs{}, fmt.Errorf("不接受位置参数：%q", a)
			}
			if ca.Positional != "" {
				return cmdArgs{}, fmt.Errorf("重复的位置参数：%q 与 %q", ca.Positional, a)
			}
			ca.Positional = a
			continue
		}

		name, value, hasValue := strings.Cut(strings.TrimLeft(a, "-"), "=")
		if !isAllowed[name] {
			return cmdArgs{}, fmt.Errorf("未知参数 %q", a)
		}
		if !hasValue {
			if i+1 >= len(args) {
				return cmdArgs{}, fmt.Errorf("--%s 需要一个值", name)
			}
			i++
			value = args[i]
		}

		switch name {
		case "config":
			ca.ConfigPath = value
		case "listen":
			ca.Listen, ca.ListenSet = value, true
		case "lang":
			ca.Lang, ca.LangSet = value, true
		case "schema":
			ca.Schema, ca.SchemaSet = value, true
		case "format":
			switch value {
			case formatText, formatJSON, formatNFO:
				ca.Format = value
			default:
				return cmdArgs{}, fmt.Errorf("--format 只能是 text、json 或 nfo，实际是 %q", value)
			}
		case "save-raw":
			if strings.TrimSpace(value) == "" {
				return cmdArgs{}, fmt.Errorf("--save-raw 不能为空")
			}
			ca.SaveRaw = value
		}
	}

	if wantPositional && strings.TrimSpace(ca.Positional) == "" {
		return cmdArgs{}, fmt.Errorf("缺少位置参数")
	}
	return ca, nil
}
