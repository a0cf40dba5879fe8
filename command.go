package bot

import (
	"context"
	"strings"
)

// CommandHandler reacts to one command invocation.
type CommandHandler func(ctx context.Context, cmd CommandEvent) error

// CommandEvent is a message event recognised as a command invocation.
type CommandEvent struct {
	Event

	// Command is the matched command token.
	Command string
	// Data is the raw argument text after the command token.
	Data string
	// Direct records whether the invocation addressed the bot by nick
	// or arrived privately, rather than using the command prefix.
	Direct bool
}

// Arguments tokenizes Data on demand with shell-like quoting rules.
func (c CommandEvent) Arguments() ([]string, error) {
	return SplitArgs(c.Data)
}

// commandEventFrom rebuilds the typed view from a core.command event.
func commandEventFrom(e Event) CommandEvent {
	return CommandEvent{
		Event:   e,
		Command: e.String("command"),
		Data:    e.String("data"),
		Direct:  e.Bool("direct"),
	}
}

// parseCommand decides whether a message is a command invocation. The
// precedence is fixed: the command prefix wins, then private messages
// need no prefix at all, then a message addressed to our nick. Anything
// else is not a command.
func parseCommand(text, prefix, nick string, private bool) (command, data string, direct, ok bool) {
	var rest string
	switch {
	case prefix != "" && strings.HasPrefix(text, prefix):
		rest = text[len(prefix):]
	case private:
		rest, direct = text, true
	default:
		stripped, addressed := stripAddress(text, nick)
		if !addressed {
			return "", "", false, false
		}
		rest, direct = stripped, true
	}

	rest = strings.TrimLeft(rest, " \t")
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		command, data = rest[:i], strings.TrimLeft(rest[i+1:], " \t")
	} else {
		command = rest
	}
	if command == "" {
		return "", "", false, false
	}
	return command, data, direct, true
}

// stripAddress removes a leading "nick:", "nick," or "nick " address
// form. The nick must be followed by a separator: "botsome text" is not
// addressed to "bot".
func stripAddress(text, nick string) (string, bool) {
	if nick == "" || !strings.HasPrefix(text, nick) {
		return "", false
	}
	rest := text[len(nick):]
	if rest == "" {
		return "", false
	}
	switch rest[0] {
	case ':', ',':
		rest = rest[1:]
	case ' ', '\t':
	default:
		return "", false
	}
	return strings.TrimLeft(rest, " \t"), true
}
