package bot

import "github.com/ircflow/ircbot/irc"

// wireNotifier translates connection activity into bus events. The
// translation is mechanical: every callback maps to exactly one event
// type with its fixed field set.
type wireNotifier struct {
	bot *Bot
}

var _ irc.Notifier = (*wireNotifier)(nil)

func (n *wireNotifier) Connected() {
	n.bot.Publish(EventRawConnected, nil)
}

func (n *wireNotifier) Disconnected(err error) {
	n.bot.Publish(EventRawDisconnected, nil)
}

func (n *wireNotifier) RawReceived(line string) {
	n.bot.recordRecent(line)
	n.bot.Publish(EventRawReceived, map[string]any{"message": line})
}

func (n *wireNotifier) RawSent(line string) {
	n.bot.Publish(EventRawSent, map[string]any{"message": line})
}

func (n *wireNotifier) Dropped(line string) {
	n.bot.Publish(EventRawDropped, map[string]any{"message": line})
}

func (n *wireNotifier) Welcome() {
	n.bot.Publish(EventSelfConnected, nil)
}

func (n *wireNotifier) NickChanged(nick string) {
	n.bot.logger.Info("nick changed", "nick", nick)
}

func (n *wireNotifier) Joined(channel string) {
	n.bot.Publish(EventSelfJoined, map[string]any{"channel": channel})
}

func (n *wireNotifier) Left(channel string) {
	n.bot.Publish(EventSelfLeft, map[string]any{"channel": channel})
}

func (n *wireNotifier) Privmsg(user irc.User, target, message string) {
	n.publishMessage(EventMessagePrivmsg, user, target, message)
}

func (n *wireNotifier) Notice(user irc.User, target, message string) {
	n.publishMessage(EventMessageNotice, user, target, message)
}

func (n *wireNotifier) Action(user irc.User, target, message string) {
	n.publishMessage(EventMessageAction, user, target, message)
}

// publishMessage fills the shared field set of the three message event
// types. reply_to points back at the channel for public messages and at
// the sender for private ones.
func (n *wireNotifier) publishMessage(typ string, user irc.User, target, message string) {
	private := !irc.IsChannel(target)
	replyTo := target
	if private {
		replyTo = user.Nick
	}
	n.bot.Publish(typ, map[string]any{
		"channel":    target,
		"user":       user.Raw,
		"message":    message,
		"is_private": private,
		"reply_to":   replyTo,
	})
}

func (n *wireNotifier) UserJoined(user irc.User, channel string) {
	n.bot.Publish(EventChannelJoined, map[string]any{"channel": channel, "user": user.Raw})
}

func (n *wireNotifier) UserLeft(user irc.User, channel string) {
	n.bot.Publish(EventChannelLeft, map[string]any{"channel": channel, "user": user.Raw})
}

func (n *wireNotifier) UserQuit(user irc.User, message string) {
	n.bot.Publish(EventUserQuit, map[string]any{"user": user.Raw, "message": message})
}

func (n *wireNotifier) UserRenamed(oldNick, newNick string) {
	n.bot.Publish(EventUserRenamed, map[string]any{"oldnick": oldNick, "newnick": newNick})
}

func (n *wireNotifier) TopicChanged(author irc.User, channel, topic string) {
	n.bot.Publish(EventChannelTopic, map[string]any{
		"channel": channel,
		"author":  author.Raw,
		"topic":   topic,
	})
}

func (n *wireNotifier) Names(channel string, names, rawNames []string) {
	n.bot.Publish(EventChannelNames, map[string]any{
		"channel":   channel,
		"names":     names,
		"raw_names": rawNames,
	})
}
