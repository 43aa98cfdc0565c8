package render

import (
	"reflect"
	"strings"
	"testing"

	"github.com/physikerchor/choirdeck/core/errors"
)

// TestTemplateFill verifies both placeholder forms and the $$ escape.
func TestTemplateFill(t *testing.T) {
	tmpl, err := ParseTemplate(`\tempo $tempo { ${notes} } cost: $$5`)
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	got := tmpl.Fill(TemplateFields{Notes: "c'4 d'4", Tempo: "4=100"})
	want := `\tempo 4=100 { c'4 d'4 } cost: $5`
	if got != want {
		t.Errorf("Fill = %q, want %q", got, want)
	}
}

// TestTemplateFields verifies placeholders are reported in order of
// first appearance.
func TestTemplateFields(t *testing.T) {
	tmpl, err := ParseTemplate("$clef $lyrics $global_options $clef")
	if err != nil {
		t.Fatalf("ParseTemplate: %v", err)
	}
	want := []string{"clef", "lyrics", "global_options", "clef"}
	if !reflect.DeepEqual(tmpl.Fields(), want) {
		t.Errorf("Fields = %v, want %v", tmpl.Fields(), want)
	}
}

// TestTemplateRejectsUnknownField verifies validation happens at parse
// time.
func TestTemplateRejectsUnknownField(t *testing.T) {
	_, err := ParseTemplate("$notes $composer")
	if !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("err = %v, want ErrInvalidInput", err)
	}
	if err == nil || !strings.Contains(err.Error(), "composer") {
		t.Errorf("error should name the field: %v", err)
	}
}

// TestTemplateMalformedPlaceholders verifies the dangling and
// unterminated cases.
func TestTemplateMalformedPlaceholders(t *testing.T) {
	for _, text := range []string{"price: $ 5", "${notes"} {
		if _, err := ParseTemplate(text); !errors.Is(err, errors.ErrInvalidInput) {
			t.Errorf("ParseTemplate(%q): err = %v, want ErrInvalidInput", text, err)
		}
	}
}

// TestEmbeddedTemplates verifies the shipped templates parse and use
// only recognized fields.
func TestEmbeddedTemplates(t *testing.T) {
	for name, text := range map[string]string{
		"mp3": mp3Template,
		"png": pngTemplate,
	} {
		if _, err := ParseTemplate(text); err != nil {
			t.Errorf("%s template: %v", name, err)
		}
	}
}
