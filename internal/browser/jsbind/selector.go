// internal/browser/jsbind/selector.go
package jsbind

import (
	"fmt"
	"strings"
)

// SelectorToXPath translates simple CSS selectors (tag, #id, .class,
// [attr] and [attr=value], joined by descendant spaces) into XPath.
// Input that already looks like XPath is returned unchanged.
func SelectorToXPath(css string) string {
	css = strings.TrimSpace(css)
	if css == "*" {
		return "//*"
	}
	if strings.HasPrefix(css, "/") || strings.HasPrefix(css, "./") || strings.HasPrefix(css, "(") {
		return css
	}

	var xpath strings.Builder
	xpath.WriteString("//")
	for i, part := range strings.Fields(css) {
		if i > 0 {
			xpath.WriteString("//")
		}
		tag, predicates := compileCompound(part)
		xpath.WriteString(tag)
		if len(predicates) > 0 {
			xpath.WriteString("[")
			xpath.WriteString(strings.Join(predicates, " and "))
			xpath.WriteString("]")
		}
	}
	return xpath.String()
}

// compileCompound handles one compound selector such as input.big#name[type=text].
func compileCompound(token string) (string, []string) {
	tag := "*"
	var predicates []string
	hasTag := false

	for len(token) > 0 {
		switch token[0] {
		case '#', '.':
			end := strings.IndexAny(token[1:], ".#[")
			if end == -1 {
				end = len(token)
			} else {
				end++
			}
			name := token[1:end]
			if token[0] == '#' {
				predicates = append(predicates, "@id="+xpathLiteral(name))
			} else {
				predicates = append(predicates, fmt.Sprintf("contains(concat(' ', normalize-space(@class), ' '), %s)", xpathLiteral(" "+name+" ")))
			}
			token = token[end:]
		case '[':
			end := strings.IndexByte(token, ']')
			if end == -1 {
				return tag, predicates
			}
			body := token[1:end]
			if key, val, ok := strings.Cut(body, "="); ok {
				predicates = append(predicates, fmt.Sprintf("@%s=%s", strings.TrimSpace(key), xpathLiteral(unquote(val))))
			} else {
				predicates = append(predicates, "@"+strings.TrimSpace(body))
			}
			token = token[end+1:]
		default:
			if hasTag {
				return tag, predicates
			}
			end := strings.IndexAny(token, ".#[")
			if end == -1 {
				end = len(token)
			}
			tag = strings.ToLower(token[:end])
			hasTag = true
			token = token[end:]
		}
	}
	return tag, predicates
}

// unquote strips one pair of matching CSS string quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so a value holding both quote kinds is built with concat.
func xpathLiteral(s string) string {
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	parts := strings.Split(s, "'")
	args := make([]string, 0, 2*len(parts)-1)
	for i, part := range parts {
		if i > 0 {
			args = append(args, `"'"`)
		}
		if part != "" {
			args = append(args, "'"+part+"'")
		}
	}
	return "concat(" + strings.Join(args, ", ") + ")"
}
