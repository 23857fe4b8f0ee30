package report

import (
	"sort"
	"strings"

	apperrors "github.com/fardiff/pkg/errors"
)

// Placeholder tokens recognized in the report template.
const (
	PlaceholderTitle        = "$TITLE$"
	PlaceholderSummary      = "$SUMMARY$"
	PlaceholderSymbolsJSON  = "$SYMBOLS_JSON$"
	PlaceholderSectionsJSON = "$SECTIONS_JSON$"
	PlaceholderCSS          = "$WEBTREEMAP_CSS$"
	PlaceholderJS           = "$WEBTREEMAP_JS$"
)

// RequiredPlaceholders lists the tokens every report template must contain.
var RequiredPlaceholders = []string{
	PlaceholderTitle,
	PlaceholderSummary,
	PlaceholderSymbolsJSON,
	PlaceholderSectionsJSON,
	PlaceholderCSS,
	PlaceholderJS,
}

// Template is a parsed document with known placeholder positions.
type Template struct {
	text  string
	slots []slot
}

type slot struct {
	token string
	pos   int
}

// ParseTemplate locates each required placeholder in text. Every token must
// appear exactly once; anything else is a template error.
func ParseTemplate(text string, required []string) (*Template, error) {
	t := &Template{text: text}
	for _, token := range required {
		switch n := strings.Count(text, token); n {
		case 1:
			t.slots = append(t.slots, slot{token: token, pos: strings.Index(text, token)})
		case 0:
			return nil, apperrors.Newf(apperrors.CodeTemplate, "template is missing placeholder %s", token)
		default:
			return nil, apperrors.Newf(apperrors.CodeTemplate, "placeholder %s appears %d times in template", token, n)
		}
	}
	sort.Slice(t.slots, func(i, j int) bool { return t.slots[i].pos < t.slots[j].pos })
	return t, nil
}

// Render substitutes values in a single pass over the original text, so a
// value that happens to contain a placeholder token is emitted verbatim.
func (t *Template) Render(values map[string]string) (string, error) {
	var sb strings.Builder
	size := len(t.text)
	for _, v := range values {
		size += len(v)
	}
	sb.Grow(size)

	prev := 0
	for _, s := range t.slots {
		v, ok := values[s.token]
		if !ok {
			return "", apperrors.Newf(apperrors.CodeTemplate, "no value for placeholder %s", s.token)
		}
		sb.WriteString(t.text[prev:s.pos])
		sb.WriteString(v)
		prev = s.pos + len(s.token)
	}
	sb.WriteString(t.text[prev:])
	return sb.String(), nil
}
