// Package naming converts Go identifiers into the external names used by
// custom elements: kebab-case for attributes and events, lowerCamelCase for
// DOM properties.
package naming

import (
	"strings"
	"unicode"
)

// Kebab converts an identifier such as "DisplayName", "display_name" or
// "HTMLColor" into "display-name" / "html-color".
func Kebab(s string) string {
	return strings.Join(words(s), "-")
}

// Camel converts an identifier into lowerCamelCase ("display_name" and
// "DisplayName" both become "displayName").
func Camel(s string) string {
	parts := words(s)
	var b strings.Builder
	for i, w := range parts {
		if i == 0 {
			b.WriteString(w)
			continue
		}
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		b.WriteString(string(r))
	}
	return b.String()
}

// EventName derives a DOM event name from a handler identifier: a leading
// "On"/"on_"/"on" is dropped and the rest is kebab-cased ("OnSnakeEvt" is
// "snake-evt").
func EventName(s string) string {
	trimmed := strings.TrimPrefix(s, "on_")
	if trimmed == s {
		for _, p := range []string{"On", "on"} {
			rest := strings.TrimPrefix(s, p)
			if rest != s && rest != "" && !unicode.IsLower([]rune(rest)[0]) {
				trimmed = rest
				break
			}
		}
	}
	return Kebab(trimmed)
}

// words splits an identifier into lower-cased words on underscores, dashes
// and case boundaries. Runs of capitals are kept together as an acronym.
func words(s string) []string {
	var out []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			out = append(out, strings.ToLower(string(cur)))
			cur = cur[:0]
		}
	}

	runes := []rune(s)
	for i, r := range runes {
		switch {
		case r == '_' || r == '-' || unicode.IsSpace(r):
			flush()
		case unicode.IsUpper(r):
			if len(cur) > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					flush()
				}
			}
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
	}
	flush()
	return out
}
