package golang

import (
	"strconv"
	"strings"
	"text/template"
)

func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"pascalCase": PascalCase,
		"goName":     ToGoIdentifier,
		"testName":   TestFuncName,
		"goComment":  GoComment,
		"quote":      strconv.Quote,
		"lower":      strings.ToLower,
		"join":       strings.Join,
	}
}

func GoComment(s string) string {
	if s == "" {
		return ""
	}
	lines := strings.Split(s, "\n")
	var result strings.Builder
	for i, line := range lines {
		if i > 0 {
			result.WriteString("\n")
		}
		result.WriteString("// ")
		result.WriteString(strings.TrimSpace(line))
	}
	return result.String()
}
