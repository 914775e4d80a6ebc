package templates

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"text/template"

	"git.home.luguber.info/inful/catalogbuilder/internal/util/sets"
)

// ErrMissingVariable is returned when a placeholder has no value in the dictionary.
var ErrMissingVariable = errors.New("missing template variable")

var placeholder = regexp.MustCompile(`<<([A-Za-z_][A-Za-z0-9_.\-]*)>>`)

// Template is a parsed catalog template. It is safe for concurrent use.
type Template struct {
	name   string
	parsed *template.Template
}

// Parse converts a body using <<name>> placeholders into a Template. Text outside
// placeholders is emitted verbatim, including any text/template delimiters it contains.
func Parse(name, body string) (*Template, error) {
	var src bytes.Buffer
	last := 0
	for _, loc := range placeholder.FindAllStringSubmatchIndex(body, -1) {
		writeLiteral(&src, body[last:loc[0]])
		src.WriteString(`{{var `)
		src.WriteString(strconv.Quote(body[loc[2]:loc[3]]))
		src.WriteString(`}}`)
		last = loc[1]
	}
	writeLiteral(&src, body[last:])

	tpl, err := template.New(name).Funcs(variableFuncs(nil, nil)).Option("missingkey=error").Parse(src.String())
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	return &Template{name: name, parsed: tpl}, nil
}

func writeLiteral(buf *bytes.Buffer, text string) {
	if text == "" {
		return
	}
	buf.WriteString(`{{`)
	buf.WriteString(strconv.Quote(text))
	buf.WriteString(`}}`)
}

func variableFuncs(data map[string]string, missing *string) template.FuncMap {
	return template.FuncMap{
		"var": func(name string) (string, error) {
			value, ok := data[name]
			if !ok {
				if missing != nil {
					*missing = name
				}
				return "", fmt.Errorf("%w: %s", ErrMissingVariable, name)
			}
			return value, nil
		},
	}
}

// Name returns the location the template was loaded from.
func (t *Template) Name() string { return t.name }

// Execute substitutes every placeholder from data. A placeholder without a value fails
// with ErrMissingVariable naming the key.
func (t *Template) Execute(data map[string]string) (string, error) {
	tpl, err := t.parsed.Clone()
	if err != nil {
		return "", fmt.Errorf("clone template %s: %w", t.name, err)
	}
	var missing string
	tpl.Funcs(variableFuncs(data, &missing))

	var buf bytes.Buffer
	if err := tpl.Execute(&buf, nil); err != nil {
		if missing != "" {
			return "", fmt.Errorf("%w %q in %s", ErrMissingVariable, missing, t.name)
		}
		return "", fmt.Errorf("render template %s: %w", t.name, err)
	}
	return buf.String(), nil
}

// Render parses and executes body in one step.
func Render(name, body string, data map[string]string) (string, error) {
	tpl, err := Parse(name, body)
	if err != nil {
		return "", err
	}
	return tpl.Execute(data)
}

// Placeholders lists the distinct placeholder names referenced by body, in order of appearance.
func Placeholders(body string) []string {
	seen := sets.New[string]()
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(body, -1) {
		if seen.Has(m[1]) {
			continue
		}
		seen.Add(m[1])
		names = append(names, m[1])
	}
	return names
}
