package bot

import "strings"

// SplitArgs tokenizes command argument text with shell-like rules:
// tokens are separated by runs of whitespace, double quotes group text
// including whitespace, and a backslash escapes the next character.
//
//	`hello "world wide"` -> ["hello", "world wide"]
//	`a\ b`               -> ["a b"]
//	`""`                 -> [""]
//
// An unterminated quote or trailing escape returns ErrUnmatchedQuote.
func SplitArgs(s string) ([]string, error) {
	args := []string{}
	var cur strings.Builder
	inQuote, escaped, started := false, false, false

	for _, r := range s {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
			started = true
		case r == '"':
			inQuote = !inQuote
			started = true
		case !inQuote && (r == ' ' || r == '\t'):
			if started {
				args = append(args, cur.String())
				cur.Reset()
				started = false
			}
		default:
			cur.WriteRune(r)
			started = true
		}
	}
	if inQuote || escaped {
		return nil, ErrUnmatchedQuote
	}
	if started {
		args = append(args, cur.String())
	}
	return args, nil
}
