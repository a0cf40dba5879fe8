package irc

// Notifier receives everything the client sees and does. The client
// calls at most one Notifier method at a time from its own goroutines;
// implementations that need to do real work should hand off quickly.
//
// RawReceived and RawSent fire for every wire line before any semantic
// interpretation, so a Notifier always observes the full wire stream
// even for commands the client does not understand.
type Notifier interface {
	// Transport lifecycle.
	Connected()
	Disconnected(err error)

	// Wire traffic.
	RawReceived(line string)
	RawSent(line string)
	// Dropped reports a queued outgoing line discarded because the
	// outgoing queue exceeded its depth cap.
	Dropped(line string)

	// Session lifecycle.
	Welcome()
	NickChanged(nick string)
	Joined(channel string)
	Left(channel string)

	// Messages.
	Privmsg(user User, target, message string)
	Notice(user User, target, message string)
	Action(user User, target, message string)

	// Channel activity by other users.
	UserJoined(user User, channel string)
	UserLeft(user User, channel string)
	UserQuit(user User, message string)
	UserRenamed(oldNick, newNick string)
	TopicChanged(author User, channel, topic string)
	Names(channel string, names, rawNames []string)
}

// NopNotifier implements Notifier with no-ops. Embed it to implement
// only the methods of interest.
type NopNotifier struct{}

func (NopNotifier) Connected()                        {}
func (NopNotifier) Disconnected(error)                {}
func (NopNotifier) RawReceived(string)                {}
func (NopNotifier) RawSent(string)                    {}
func (NopNotifier) Dropped(string)                    {}
func (NopNotifier) Welcome()                          {}
func (NopNotifier) NickChanged(string)                {}
func (NopNotifier) Joined(string)                     {}
func (NopNotifier) Left(string)                       {}
func (NopNotifier) Privmsg(User, string, string)      {}
func (NopNotifier) Notice(User, string, string)       {}
func (NopNotifier) Action(User, string, string)       {}
func (NopNotifier) UserJoined(User, string)           {}
func (NopNotifier) UserLeft(User, string)             {}
func (NopNotifier) UserQuit(User, string)             {}
func (NopNotifier) UserRenamed(string, string)        {}
func (NopNotifier) TopicChanged(User, string, string) {}
func (NopNotifier) Names(string, []string, []string)  {}

var _ Notifier = NopNotifier{}
