package irc

import "strings"

// wireHandler reacts to one parsed wire command. Handlers run on the
// read loop goroutine, so they see messages strictly in arrival order.
type wireHandler func(c *Client, m Message)

// wireHandlers maps resolved command names to their handlers. Commands
// without an entry are still reported raw through the Notifier but have
// no semantic translation.
var wireHandlers = map[string]wireHandler{
	"PING":              handlePing,
	"RPL_WELCOME":       handleWelcome,
	"ERR_NICKNAMEINUSE": handleNickInUse,
	"NICK":              handleNick,
	"JOIN":              handleJoin,
	"PART":              handlePart,
	"KICK":              handleKick,
	"QUIT":              handleQuit,
	"TOPIC":             handleTopic,
	"RPL_TOPIC":         handleTopicReply,
	"PRIVMSG":           handlePrivmsg,
	"NOTICE":            handleNotice,
	"RPL_NAMREPLY":      handleNamesReply,
	"RPL_ENDOFNAMES":    handleNamesEnd,
}

// handlePing answers server keepalive probes. The reply bypasses the
// outgoing queue: a PONG stuck behind paced traffic gets the client
// disconnected for inactivity.
func handlePing(c *Client, m Message) {
	payload := ""
	if len(m.Params) > 0 {
		payload = m.Params[len(m.Params)-1]
	}
	c.writeLine(NewMessage("PONG", payload).Raw)
}

// handleWelcome marks registration as accepted. The server may have
// assigned a different nick than requested, so the first parameter is
// authoritative. Channels joined on a previous connection are rejoined,
// each exactly once.
func handleWelcome(c *Client, m Message) {
	assigned := ""
	if len(m.Params) > 0 {
		assigned = m.Params[0]
	}

	c.mu.Lock()
	changed := assigned != "" && assigned != c.nick
	if changed {
		c.nick = assigned
	}
	nick := c.nick
	rejoin := make([]string, 0, len(c.joined))
	for ch := range c.joined {
		rejoin = append(rejoin, ch)
		c.pending[ch] = struct{}{}
	}
	c.joined = make(map[string]struct{})
	c.mu.Unlock()

	c.attempts = 0
	c.setState(Connected)
	c.logger.Info("registered", "nick", nick)
	if changed {
		c.notifier.NickChanged(nick)
	}
	c.notifier.Welcome()

	for _, ch := range rejoin {
		c.Send(NewMessage("JOIN", ch))
	}
}

// handleNickInUse picks an alternative nick by appending an underscore.
// When the server truncated our last attempt, appending again would
// retry the same truncated nick forever, so trailing characters are
// replaced with underscores instead.
func handleNickInUse(c *Client, m Message) {
	taken := m.PadParams(2)[1]

	c.mu.Lock()
	var next string
	if taken != c.nick {
		stripped := strings.TrimRight(taken, "_")
		if stripped != "" {
			stripped = stripped[:len(stripped)-1]
		}
		next = stripped + strings.Repeat("_", len(taken)-len(stripped))
	} else {
		next = taken + "_"
	}
	c.nick = next
	c.mu.Unlock()

	c.logger.Info("nick already in use, retrying", "taken", taken, "next", next)
	c.writeLine(NewMessage("NICK", next).Raw)
}

func handleNick(c *Client, m Message) {
	user := ParseUser(m.Prefix)
	newNick := m.PadParams(1)[0]

	c.mu.Lock()
	self := user.Nick == c.nick
	if self {
		c.nick = newNick
	}
	c.mu.Unlock()

	if self {
		c.notifier.NickChanged(newNick)
	} else {
		c.notifier.UserRenamed(user.Nick, newNick)
	}
}

func handleJoin(c *Client, m Message) {
	user := ParseUser(m.Prefix)
	channel := m.PadParams(1)[0]

	c.mu.Lock()
	self := user.Nick == c.nick
	if self {
		c.joined[channel] = struct{}{}
		delete(c.pending, channel)
	}
	c.mu.Unlock()

	if self {
		c.notifier.Joined(channel)
	} else {
		c.notifier.UserJoined(user, channel)
	}
}

func handlePart(c *Client, m Message) {
	user := ParseUser(m.Prefix)
	channel := m.PadParams(1)[0]

	c.mu.Lock()
	self := user.Nick == c.nick
	if self {
		delete(c.joined, channel)
	}
	c.mu.Unlock()

	if self {
		c.notifier.Left(channel)
	} else {
		c.notifier.UserLeft(user, channel)
	}
}

// handleKick treats a kick as a departure of the kicked user, so channel
// membership stays in sync whether a user left or was removed.
func handleKick(c *Client, m Message) {
	params := m.PadParams(2)
	channel, kicked := params[0], params[1]

	c.mu.Lock()
	self := kicked == c.nick
	if self {
		delete(c.joined, channel)
	}
	c.mu.Unlock()

	if self {
		c.notifier.Left(channel)
	} else {
		c.notifier.UserLeft(ParseUser(kicked), channel)
	}
}

func handleQuit(c *Client, m Message) {
	c.notifier.UserQuit(ParseUser(m.Prefix), m.PadParams(1)[0])
}

func handleTopic(c *Client, m Message) {
	params := m.PadParams(2)
	c.notifier.TopicChanged(ParseUser(m.Prefix), params[0], params[1])
}

// handleTopicReply reports the topic sent on joining a channel. The
// author here is the server, not a user.
func handleTopicReply(c *Client, m Message) {
	params := m.PadParams(3)
	c.notifier.TopicChanged(ParseUser(m.Prefix), params[1], params[2])
}

func handlePrivmsg(c *Client, m Message) {
	user := ParseUser(m.Prefix)
	params := m.PadParams(2)
	target, text := params[0], params[1]

	if cmd, data, ok := parseCTCP(text); ok {
		if cmd == "ACTION" {
			c.notifier.Action(user, target, data)
		}
		// Other CTCP queries (VERSION, TIME, ...) are ignored.
		return
	}
	c.notifier.Privmsg(user, target, text)
}

func handleNotice(c *Client, m Message) {
	user := ParseUser(m.Prefix)
	params := m.PadParams(2)
	target, text := params[0], params[1]

	if _, _, ok := parseCTCP(text); ok {
		// CTCP replies carried in notices are ignored.
		return
	}
	c.notifier.Notice(user, target, text)
}

// handleNamesReply accumulates one page of a NAMES listing. The full
// listing is reported when RPL_ENDOFNAMES arrives.
func handleNamesReply(c *Client, m Message) {
	params := m.PadParams(4)
	channel := params[2]

	c.mu.Lock()
	c.names[channel] = append(c.names[channel], strings.Fields(params[3])...)
	c.mu.Unlock()
}

func handleNamesEnd(c *Client, m Message) {
	channel := m.PadParams(2)[1]

	c.mu.Lock()
	raw := c.names[channel]
	delete(c.names, channel)
	c.mu.Unlock()

	names := make([]string, len(raw))
	for i, n := range raw {
		names[i] = strings.TrimLeft(n, "@+")
	}
	c.notifier.Names(channel, names, raw)
}

// parseCTCP unwraps a \x01-delimited CTCP payload into its command and
// data parts. ok is false for plain message text.
func parseCTCP(text string) (cmd, data string, ok bool) {
	if len(text) < 2 || text[0] != '\x01' || text[len(text)-1] != '\x01' {
		return "", "", false
	}
	cmd, data, _ = strings.Cut(text[1:len(text)-1], " ")
	return cmd, data, true
}
