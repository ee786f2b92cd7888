package utils

import "strings"

// htmlEscaper escapes both quote styles along with &, < and >.
var htmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#039;",
)

// Sanitize prepares a free-text value for storage and redisplay.  Tags are
// stripped from the trimmed value before the special characters are escaped.  Sanitize is not idempotent: escaping an already
// escaped value escapes the ampersands again.
func Sanitize(s string) string {
	return htmlEscaper.Replace(StripTags(strings.TrimSpace(s)))
}

// SanitizePtr applies Sanitize to an optional value.
func SanitizePtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := Sanitize(*s)
	return &v
}

// StripTags removes HTML/XML tags and comments.  A '<' only opens a tag when
// it is followed by a letter, '/', '!' or '?', so text such as "a < b" is
// kept.  An unterminated tag swallows the rest of the input.
func StripTags(s string) string {
	if !strings.Contains(s, "<") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	inTag := false
	var quote byte
	for i := 0; i < len(s); i++ {
		ch := s[i]
		if inTag {
			switch {
			case quote != 0:
				if ch == quote {
					quote = 0
				}
			case ch == '"' || ch == '\'':
				quote = ch
			case ch == '>':
				inTag = false
			}
			continue
		}
		if ch == '<' && i+1 < len(s) && opensTag(s[i+1]) {
			inTag = true
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

func opensTag(ch byte) bool {
	return ch == '/' || ch == '!' || ch == '?' ||
		(ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// CleanList trims every entry and drops the empty ones.  Used for URL lists,
// which are validated rather than escaped.
func CleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
