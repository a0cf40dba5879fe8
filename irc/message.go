// Package irc implements the IRC wire codec and the connection state
// machine for a single client session.
//
// The package handles the protocol at several layers:
//   - Message: parsing and serializing the line-based wire format
//   - User: decomposing "nick!user@host" origin strings
//   - Client: session lifecycle (registration, keepalive, reconnection)
//     and paced sending of outgoing commands
//
// The Client reports everything it sees and does through a Notifier, so
// the caller decides how wire activity becomes application events.
package irc

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedLine is returned by ParseMessage for lines that do not
// match the wire format.
var ErrMalformedLine = errors.New("irc: malformed line")

// MaxLineLen is the maximum length of a wire line excluding the CRLF
// terminator, per RFC2812.
const MaxLineLen = 510

// forceTrailing lists commands whose last parameter is always sent as a
// trailing parameter, even when it contains no spaces.
var forceTrailing = map[string]bool{
	"USER":    true,
	"QUIT":    true,
	"PRIVMSG": true,
	"NOTICE":  true,
	"PART":    true,
	"TOPIC":   true,
	"KICK":    true,
	"PONG":    true,
}

// Message represents a single IRC wire message.
//
// The wire format, paraphrased and simplified from RFC2812, is:
//
//	message = [":" prefix " "] command {" " parameter} [" :" trailing]
//
// Name is the readable form of Command: numeric replies recognised in
// RFC2812 are resolved to their reply name (e.g. "001" -> "RPL_WELCOME"),
// all other commands are their own name.
//
// Trailing records whether the last parameter was (or must be) carried
// as a trailing parameter, so re-rendering a message is not lossy.
type Message struct {
	Prefix   string
	Command  string
	Params   []string
	Name     string
	Raw      string
	Trailing bool
}

// ParseMessage parses a raw wire line (without the CRLF terminator).
func ParseMessage(line string) (Message, error) {
	m := Message{Raw: line}
	rest := line

	if strings.HasPrefix(rest, ":") {
		i := strings.IndexByte(rest, ' ')
		if i < 0 {
			return Message{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
		}
		m.Prefix = rest[1:i]
		rest = rest[i+1:]
	}

	for rest != "" {
		rest = strings.TrimLeft(rest, " ")
		if rest == "" {
			break
		}
		if m.Command != "" && strings.HasPrefix(rest, ":") {
			// Trailing is really just another parameter.
			m.Params = append(m.Params, rest[1:])
			m.Trailing = true
			break
		}
		var token string
		if i := strings.IndexByte(rest, ' '); i >= 0 {
			token, rest = rest[:i], rest[i+1:]
		} else {
			token, rest = rest, ""
		}
		if m.Command == "" {
			m.Command = token
		} else {
			m.Params = append(m.Params, token)
		}
	}

	if m.Command == "" {
		return Message{}, fmt.Errorf("%w: %q", ErrMalformedLine, line)
	}
	m.Name = CommandName(m.Command)
	return m, nil
}

// NewMessage builds an outgoing Message from its components, generating
// the Raw and Name fields.
func NewMessage(command string, params ...string) Message {
	trailing := needsTrailing(command, params)
	return Message{
		Command:  command,
		Params:   params,
		Name:     CommandName(command),
		Raw:      command + rawParams(params, trailing),
		Trailing: trailing,
	}
}

// PadParams returns Params padded with empty strings up to length n,
// useful when a command has optional parameters.
func (m Message) PadParams(n int) []string {
	if len(m.Params) >= n {
		return m.Params
	}
	padded := make([]string, n)
	copy(padded, m.Params)
	return padded
}

// Pretty returns a readable version of the raw message: identical to the
// wire form, except numeric commands that have names render as
// "NUMERIC/NAME".
func (m Message) Pretty() string {
	var b strings.Builder
	if m.Prefix != "" {
		b.WriteString(":" + m.Prefix + " ")
	}
	b.WriteString(m.Command)
	if m.Name != m.Command {
		b.WriteString("/" + m.Name)
	}
	b.WriteString(rawParams(m.Params, m.Trailing || needsTrailing(m.Command, m.Params)))
	return b.String()
}

func (m Message) String() string {
	return m.Pretty()
}

// needsTrailing reports whether the last parameter cannot survive the
// wire as a middle parameter.
func needsTrailing(command string, params []string) bool {
	if len(params) == 0 {
		return false
	}
	last := params[len(params)-1]
	return forceTrailing[command] || last == "" ||
		strings.ContainsAny(last, " ") || strings.HasPrefix(last, ":")
}

func rawParams(params []string, trailing bool) string {
	if len(params) > 0 && trailing {
		return joinParams(params[:len(params)-1]) + " :" + params[len(params)-1]
	}
	return joinParams(params)
}

func joinParams(params []string) string {
	var b strings.Builder
	for _, p := range params {
		b.WriteString(" " + p)
	}
	return b.String()
}

// TruncateLine clamps a raw line to MaxLineLen bytes, avoiding splitting
// a UTF-8 sequence at the cut point.
func TruncateLine(line string) string {
	if len(line) <= MaxLineLen {
		return line
	}
	cut := MaxLineLen
	for cut > 0 && line[cut]&0xC0 == 0x80 {
		cut--
	}
	return line[:cut]
}
