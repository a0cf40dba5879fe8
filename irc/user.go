package irc

import "strings"

// User provides access to the parts of an IRC origin string. Parts that
// are absent from the raw string are left empty.
//
//	u := irc.ParseUser("my_nick!~some_user@host.name")
//	u.Nick -> "my_nick"
//	u.User -> "some_user"
//	u.Host -> "host.name"
type User struct {
	Raw  string
	Nick string
	User string
	Host string
}

// ParseUser decomposes a raw "nick!user@host" origin string. A leading
// "~" on the username (added by servers for unverified idents) is
// stripped.
func ParseUser(raw string) User {
	u := User{Raw: raw}

	rest := raw
	if i := strings.LastIndexByte(rest, '@'); i >= 0 {
		u.Host = rest[i+1:]
		rest = rest[:i]
	}
	if i := strings.IndexByte(rest, '!'); i >= 0 {
		u.Nick = rest[:i]
		u.User = strings.TrimPrefix(rest[i+1:], "~")
	} else {
		u.Nick = rest
	}
	return u
}

// IsChannel reports whether target names a channel rather than a nick.
func IsChannel(target string) bool {
	return strings.HasPrefix(target, "#") || strings.HasPrefix(target, "&")
}
