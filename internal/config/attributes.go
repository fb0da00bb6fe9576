package config

import (
	"fmt"
	"strings"
)

// CustomAttribute is a span attribute whose value is an expression over
// the child's metadata.
type CustomAttribute struct {
	Name       string
	Expression string
}

// ParseAttributeString parses one or more NAME=EXPR definitions separated
// by ';'. Empty sections are skipped. Only the first '=' separates name
// from expression.
func ParseAttributeString(s string) ([]CustomAttribute, error) {
	var attrs []CustomAttribute
	for _, section := range strings.Split(s, ";") {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}

		name, expression, ok := strings.Cut(section, "=")
		if !ok {
			return nil, fmt.Errorf("invalid attribute format %q: expected NAME=EXPR", section)
		}
		name = strings.TrimSpace(name)
		expression = strings.TrimSpace(expression)
		if name == "" {
			return nil, fmt.Errorf("invalid attribute %q: name cannot be empty", section)
		}
		if expression == "" {
			return nil, fmt.Errorf("invalid attribute %q: expression cannot be empty", section)
		}

		attrs = append(attrs, CustomAttribute{Name: name, Expression: expression})
	}
	return attrs, nil
}
