package mailer

import (
	"fmt"
	"html"
	"regexp"
)

// placeholderRe matches {{ name }} with optional whitespace around the name.
var placeholderRe = regexp.MustCompile(`\{\{\s*([^{}\s]+)\s*\}\}`)

// Render substitutes every {{ name }} in tpl whose name is present in vars.
// Placeholders without a variable are left untouched and nil renders as "".
// Values are inserted verbatim; substituted text is not scanned again.
func Render(tpl string, vars map[string]any) string {
	return render(tpl, vars, func(s string) string { return s })
}

// RenderHTML is Render with every value HTML-escaped.
func RenderHTML(tpl string, vars map[string]any) string {
	return render(tpl, vars, html.EscapeString)
}

func render(tpl string, vars map[string]any, escape func(string) string) string {
	return placeholderRe.ReplaceAllStringFunc(tpl, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		v, ok := vars[name]
		if !ok {
			return m
		}
		return escape(stringify(v))
	})
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
