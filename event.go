package bot

import (
	"time"

	"github.com/google/uuid"
)

// Event type names. The taxonomy is fixed: every type carries a
// documented field set, and the bus never invents fields.
//
//	core.raw.connected                                     transport opened
//	core.raw.disconnected                                  transport lost
//	core.raw.received       message                        one raw line in
//	core.raw.sent           message                        one raw line out
//	core.raw.dropped        message                        line lost to the queue cap
//	core.self.connected                                    registration accepted
//	core.self.joined        channel                        we joined a channel
//	core.self.left          channel                        we left a channel
//	core.message.privmsg    channel, user, message,
//	                        is_private, reply_to           chat message
//	core.message.notice     (same as privmsg)              notice
//	core.message.action     (same as privmsg)              CTCP ACTION
//	core.channel.joined     channel, user                  someone joined
//	core.channel.left       channel, user                  someone left
//	core.channel.names      channel, names, raw_names      NAMES listing
//	core.channel.topic      channel, author, topic         topic changed
//	core.user.quit          user, message                  someone quit
//	core.user.renamed       oldnick, newnick               someone renamed
//	core.command            privmsg fields + command,
//	                        data, direct                   command invocation
const (
	EventRawConnected    = "core.raw.connected"
	EventRawDisconnected = "core.raw.disconnected"
	EventRawReceived     = "core.raw.received"
	EventRawSent         = "core.raw.sent"
	EventRawDropped      = "core.raw.dropped"
	EventSelfConnected   = "core.self.connected"
	EventSelfJoined      = "core.self.joined"
	EventSelfLeft        = "core.self.left"
	EventMessagePrivmsg  = "core.message.privmsg"
	EventMessageNotice   = "core.message.notice"
	EventMessageAction   = "core.message.action"
	EventChannelJoined   = "core.channel.joined"
	EventChannelLeft     = "core.channel.left"
	EventChannelNames    = "core.channel.names"
	EventChannelTopic    = "core.channel.topic"
	EventUserQuit        = "core.user.quit"
	EventUserRenamed     = "core.user.renamed"
	EventCommand         = "core.command"
)

// Event is one occurrence flowing through the bus. Events are immutable
// once dispatch begins: a handler that needs to react differently emits
// a derived event with Extend instead of mutating this one.
type Event struct {
	Type string
	Time time.Time
	ID   string

	bot  *Bot
	data map[string]any
}

func newEvent(b *Bot, typ string, data map[string]any) Event {
	if data == nil {
		data = map[string]any{}
	}
	return Event{
		Type: typ,
		Time: time.Now(),
		ID:   uuid.NewString(),
		bot:  b,
		data: data,
	}
}

// Bot returns the session the event belongs to.
func (e Event) Bot() *Bot {
	return e.bot
}

// Get returns a named field and whether it is present.
func (e Event) Get(key string) (any, bool) {
	v, ok := e.data[key]
	return v, ok
}

// String returns a string field, or "" when absent or not a string.
func (e Event) String(key string) string {
	s, _ := e.data[key].(string)
	return s
}

// Bool returns a boolean field, or false when absent or not a bool.
func (e Event) Bool(key string) bool {
	b, _ := e.data[key].(bool)
	return b
}

// Strings returns a string-slice field, or nil.
func (e Event) Strings(key string) []string {
	v, _ := e.data[key].([]string)
	return v
}

// Fields returns a copy of the event's field map.
func (e Event) Fields() map[string]any {
	out := make(map[string]any, len(e.data))
	for k, v := range e.data {
		out[k] = v
	}
	return out
}

// Extend derives a new event of a different type, keeping the original
// fields and creation time and overlaying extra.
func (e Event) Extend(typ string, extra map[string]any) Event {
	data := make(map[string]any, len(e.data)+len(extra))
	for k, v := range e.data {
		data[k] = v
	}
	for k, v := range extra {
		data[k] = v
	}
	return Event{
		Type: typ,
		Time: e.Time,
		ID:   uuid.NewString(),
		bot:  e.bot,
		data: data,
	}
}

// Reply sends message back to where the event came from: the channel
// for public messages, the sender for private ones. Events without a
// reply_to field reply nowhere.
func (e Event) Reply(message string) {
	if e.bot == nil {
		return
	}
	e.bot.reply(e.String("reply_to"), message)
}
