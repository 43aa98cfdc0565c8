// Package render turns a notation shard into score images and audio by
// driving the external LilyPond toolchain. The core engine only ever
// sees the Renderer interface and the asset paths it hands back.
package render

import (
	"fmt"
	"strings"

	"github.com/physikerchor/choirdeck/core/errors"
)

// TemplateFields enumerates exactly the substitutions a score template
// may use. Anything else in a template is rejected when the template is
// parsed, not silently ignored at fill time.
type TemplateFields struct {
	Notes         string
	Tempo         string
	GlobalOptions string
	Clef          string
	Lyrics        string
}

// fieldValue resolves a recognized field name.
func (f TemplateFields) fieldValue(name string) (string, bool) {
	switch name {
	case "notes":
		return f.Notes, true
	case "tempo":
		return f.Tempo, true
	case "global_options":
		return f.GlobalOptions, true
	case "clef":
		return f.Clef, true
	case "lyrics":
		return f.Lyrics, true
	}
	return "", false
}

// Template is a LilyPond source template with $field placeholders.
// Both $name and ${name} forms are accepted; $$ is a literal dollar.
type Template struct {
	text   string
	fields []string
}

// ParseTemplate validates a template's placeholders against the
// recognized field set.
func ParseTemplate(text string) (*Template, error) {
	t := &Template{text: text}
	if err := scanPlaceholders(text, func(name string) error {
		if _, ok := (TemplateFields{}).fieldValue(name); !ok {
			return fmt.Errorf("template references unknown field $%s: %w", name, errors.ErrInvalidInput)
		}
		t.fields = append(t.fields, name)
		return nil
	}); err != nil {
		return nil, err
	}
	return t, nil
}

// Fields returns the placeholder names the template uses, in order of
// first appearance.
func (t *Template) Fields() []string {
	return t.fields
}

// Fill substitutes the field values into the template.
func (t *Template) Fill(f TemplateFields) string {
	var sb strings.Builder
	_ = scanText(t.text, &sb, func(name string) string {
		v, _ := f.fieldValue(name)
		return v
	})
	return sb.String()
}

// scanPlaceholders walks a template and calls fn for every $name or
// ${name} placeholder.
func scanPlaceholders(text string, fn func(string) error) error {
	return scanText(text, nil, func(name string) string {
		return ""
	}, fn)
}

// scanText walks the template once. When sb is non-nil the output is
// assembled using value(); every placeholder name is also reported to
// any supplied checks.
func scanText(text string, sb *strings.Builder, value func(string) string, checks ...func(string) error) error {
	i := 0
	for i < len(text) {
		c := text[i]
		if c != '$' {
			if sb != nil {
				sb.WriteByte(c)
			}
			i++
			continue
		}
		if i+1 < len(text) && text[i+1] == '$' {
			if sb != nil {
				sb.WriteByte('$')
			}
			i += 2
			continue
		}
		j := i + 1
		braced := j < len(text) && text[j] == '{'
		if braced {
			j++
		}
		start := j
		for j < len(text) && (text[j] == '_' || text[j] >= 'a' && text[j] <= 'z' || text[j] >= 'A' && text[j] <= 'Z' || text[j] >= '0' && text[j] <= '9') {
			j++
		}
		name := text[start:j]
		if braced {
			if j >= len(text) || text[j] != '}' {
				return fmt.Errorf("unterminated ${ placeholder: %w", errors.ErrInvalidInput)
			}
			j++
		}
		if name == "" {
			return fmt.Errorf("dangling $ in template: %w", errors.ErrInvalidInput)
		}
		for _, check := range checks {
			if err := check(name); err != nil {
				return err
			}
		}
		if sb != nil {
			sb.WriteString(value(name))
		}
		i = j
	}
	return nil
}
