// internal/app/system/normalize/normalize.go
package normalize

import (
	"strings"
)

// Email trims and lowercases an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims surrounding whitespace and preserves case.
func Name(s string) string {
	return strings.TrimSpace(s)
}

// QueryParam trims a raw query or form value.
func QueryParam(s string) string {
	return strings.TrimSpace(s)
}

// Category trims and lowercases a category or enum-like value.
func Category(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// EmailList accepts a participant list as the admin console sends it:
// either one comma-separated string or a JSON array of strings. Entries are
// normalized with Email; blanks and duplicates are dropped, order is kept.
// Any other shape yields nil.
func EmailList(v any) []string {
	var raw []string
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		raw = strings.Split(t, ",")
	case []string:
		raw = t
	case []any:
		for _, item := range t {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	default:
		return nil
	}

	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		e := Email(s)
		if e == "" {
			continue
		}
		if _, dup := seen[e]; dup {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}
