package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ircflow/ircbot/config"
	"github.com/ircflow/ircbot/irc"
	"github.com/ircflow/ircbot/store"
)

// corePlugin names the bot's own hook and command bindings.
const corePlugin = "core"

// recentLines is how many received raw lines are kept for inspection.
const recentLines = 10

type commandEntry struct {
	plugin string
	CommandBinding
}

// Bot wires the connection, the event bus, the command router and the
// plugin registry into one session.
type Bot struct {
	cfg    *config.Config
	logger *slog.Logger
	runner *runner
	store  store.Store
	client *irc.Client

	names        map[string]struct{}
	plugins      []Plugin
	sessions     []*Session
	commands     map[string]commandEntry
	commandOrder []string

	recentMu sync.Mutex
	recent   []string

	running atomic.Bool
}

// New builds a session from cfg. The storage backend comes from the
// config unless overridden with WithStore.
func New(cfg *config.Config, opts ...Option) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := newOptions(opts...)

	st := o.store
	if st == nil {
		var err error
		switch cfg.Storage.Backend {
		case "", "memory":
			st = store.NewMemory()
		case "redis":
			st, err = store.NewRedis(cfg.Storage.URL, cfg.Storage.Prefix)
		case "mongodb":
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			st, err = store.NewMongo(ctx, cfg.Storage.URL, cfg.Storage.Database, cfg.Storage.Prefix)
			cancel()
		default:
			err = fmt.Errorf("bot: unknown storage backend %q", cfg.Storage.Backend)
		}
		if err != nil {
			return nil, err
		}
	}

	b := &Bot{
		cfg:      cfg,
		logger:   o.logger.With("component", "bot"),
		runner:   newRunner(o.logger, o.metrics, o.tracing),
		store:    st,
		names:    map[string]struct{}{corePlugin: {}},
		commands: make(map[string]commandEntry),
	}

	clientOpts := []irc.Option{
		irc.WithUser(cfg.Bot.Username, cfg.Bot.Realname),
		irc.WithNotifier(&wireNotifier{bot: b}),
		irc.WithLogger(o.logger),
		irc.WithKeepalive(cfg.Bot.PingInterval.Std(), cfg.Bot.PingTimeout.Std()),
		irc.WithBackoff(cfg.Bot.BackoffMin.Std(), cfg.Bot.BackoffMax.Std()),
		irc.WithPacing(cfg.Bot.PaceInterval.Std(), cfg.Bot.PaceBurst, cfg.Bot.QueueCap),
	}
	if cfg.Bot.Password != "" && cfg.Bot.AuthMethod != "nickserv" {
		clientOpts = append(clientOpts, irc.WithPassword(cfg.Bot.Password))
	}
	clientOpts = append(clientOpts, o.clientOpts...)
	b.client = irc.NewClient(cfg.Bot.Addr(), cfg.Bot.Nick, clientOpts...)

	b.runner.subscribe(EventSelfConnected, corePlugin, b.onConnected)
	b.runner.subscribe(EventMessagePrivmsg, corePlugin, b.routeCommand)
	b.runner.subscribe(EventCommand, corePlugin, b.dispatchCommand)
	b.registerCommand(corePlugin, CommandBinding{
		Name:    "help",
		Help:    "help [command]: list commands, or show what a command does",
		Handler: b.helpCommand,
	})
	b.registerCommand(corePlugin, CommandBinding{
		Name:    "plugins",
		Help:    "plugins: list loaded plugins",
		Handler: b.pluginsCommand,
	})
	return b, nil
}

// Register sets up plugins in order and collects their bindings. A
// plugin that fails setup (or reuses a taken name) is disabled and
// logged; the rest still load. Must be called before Run.
func (b *Bot) Register(plugins ...Plugin) error {
	if b.running.Load() {
		return ErrRunning
	}
	for _, p := range plugins {
		name := strings.ToLower(p.Name())
		if _, dup := b.names[name]; dup {
			b.logger.Warn("plugin name already taken, skipping", "plugin", name)
			continue
		}
		session := &Session{
			bot:    b,
			name:   name,
			Config: newPluginConfig(b.cfg.Plugins[name]),
			Logger: b.logger.With("plugin", name),
		}
		if err := p.Setup(session); err != nil {
			b.logger.Warn("plugin setup failed, disabling", "plugin", name, "error", err)
			continue
		}
		for _, h := range p.Hooks() {
			if err := b.runner.subscribe(h.Pattern, name, h.Handler); err != nil {
				return err
			}
		}
		for _, cb := range p.Commands() {
			b.registerCommand(name, cb)
		}
		b.names[name] = struct{}{}
		b.plugins = append(b.plugins, p)
		b.sessions = append(b.sessions, session)
		b.logger.Info("plugin loaded", "plugin", name)
	}
	return nil
}

// registerCommand adds a command binding. The first registration of a
// name wins; later ones are logged and skipped.
func (b *Bot) registerCommand(plugin string, cb CommandBinding) {
	if prev, taken := b.commands[cb.Name]; taken {
		b.logger.Warn("command already registered, keeping first",
			"command", cb.Name, "owner", prev.plugin, "skipped", plugin)
		return
	}
	b.commands[cb.Name] = commandEntry{plugin: plugin, CommandBinding: cb}
	b.commandOrder = append(b.commandOrder, cb.Name)
}

// Run starts the dispatch loop and drives the connection until ctx is
// cancelled or Shutdown is called, then tears down plugins in reverse
// order and closes the store.
func (b *Bot) Run(ctx context.Context) error {
	if !b.running.CompareAndSwap(false, true) {
		return ErrRunning
	}

	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	b.runner.start(dispatchCtx)

	err := b.client.Run(ctx)

	stopDispatch()
	b.runner.wait()

	for i := len(b.plugins) - 1; i >= 0; i-- {
		if terr := b.plugins[i].Teardown(); terr != nil {
			b.logger.Warn("plugin teardown failed",
				"plugin", b.sessions[i].name, "error", terr)
		}
	}

	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if cerr := b.store.Close(closeCtx); cerr != nil {
		b.logger.Warn("store close failed", "error", cerr)
	}

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, irc.ErrClientClosed) {
		return err
	}
	return nil
}

// Shutdown disconnects gracefully and makes Run return: the QUIT goes
// out immediately, then the client stops without reconnecting.
func (b *Bot) Shutdown(message string) {
	if message == "" {
		message = "shutting down"
	}
	b.client.Quit(message)
	b.client.Close()
}

// Publish emits an event onto the bus.
func (b *Bot) Publish(typ string, data map[string]any) {
	b.runner.publish(newEvent(b, typ, data))
}

// Nick returns the session's current nick.
func (b *Bot) Nick() string {
	return b.client.Nick()
}

// RecentMessages returns the last few raw lines received, oldest first.
func (b *Bot) RecentMessages() []string {
	b.recentMu.Lock()
	defer b.recentMu.Unlock()
	return append([]string(nil), b.recent...)
}

func (b *Bot) recordRecent(line string) {
	b.recentMu.Lock()
	b.recent = append(b.recent, line)
	if len(b.recent) > recentLines {
		b.recent = b.recent[len(b.recent)-recentLines:]
	}
	b.recentMu.Unlock()
}

// reply sends message to target, using NOTICE when configured.
func (b *Bot) reply(target, message string) {
	if target == "" {
		return
	}
	if b.cfg.Bot.UseNotice {
		b.client.Notice(target, message)
	} else {
		b.client.Privmsg(target, message)
	}
}

// onConnected runs after every successful registration: identify with
// services if configured, then join the configured channels. Joins of
// channels the client already rejoined on its own are no-ops.
func (b *Bot) onConnected(ctx context.Context, e Event) error {
	if b.cfg.Bot.AuthMethod == "nickserv" && b.cfg.Bot.Password != "" {
		b.client.Privmsg("NickServ", "IDENTIFY "+b.cfg.Bot.Password)
	}
	for _, channel := range b.cfg.Bot.Channels {
		b.client.Join(channel)
	}
	return nil
}

// routeCommand turns chat messages that look like command invocations
// into core.command events.
func (b *Bot) routeCommand(ctx context.Context, e Event) error {
	command, data, direct, ok := parseCommand(
		e.String("message"),
		b.cfg.Bot.CommandPrefix,
		b.client.Nick(),
		e.Bool("is_private"),
	)
	if !ok {
		return nil
	}
	b.runner.publish(e.Extend(EventCommand, map[string]any{
		"command": command,
		"data":    data,
		"direct":  direct,
	}))
	return nil
}

// dispatchCommand invokes the handler bound to a command. An unknown
// command is a silent no-op, not an error.
func (b *Bot) dispatchCommand(ctx context.Context, e Event) error {
	cmd := commandEventFrom(e)
	entry, ok := b.commands[cmd.Command]
	if !ok {
		return nil
	}
	if err := entry.Handler(ctx, cmd); err != nil {
		return fmt.Errorf("command %q (plugin %s): %w", cmd.Command, entry.plugin, err)
	}
	return nil
}

func (b *Bot) helpCommand(ctx context.Context, cmd CommandEvent) error {
	args, err := cmd.Arguments()
	if err != nil {
		cmd.Reply("unmatched quote in arguments")
		return nil
	}
	if len(args) == 0 {
		names := append([]string(nil), b.commandOrder...)
		sort.Strings(names)
		cmd.Reply("commands: " + strings.Join(names, ", "))
		return nil
	}
	entry, ok := b.commands[args[0]]
	if !ok {
		cmd.Reply("no such command: " + args[0])
		return nil
	}
	help := entry.Help
	if help == "" {
		help = args[0] + ": no help available"
	}
	cmd.Reply(help)
	return nil
}

func (b *Bot) pluginsCommand(ctx context.Context, cmd CommandEvent) error {
	names := make([]string, len(b.sessions))
	for i, s := range b.sessions {
		names[i] = s.name
	}
	cmd.Reply("loaded plugins: " + strings.Join(names, ", "))
	return nil
}
