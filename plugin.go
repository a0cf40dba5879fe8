package bot

import (
	"log/slog"
	"sync"

	"github.com/ircflow/ircbot/store"
)

// HookBinding binds a handler to an event type pattern.
type HookBinding struct {
	Pattern string
	Handler Handler
}

// CommandBinding binds a handler to a user-invocable command name.
type CommandBinding struct {
	Name    string
	Help    string
	Handler CommandHandler
}

// Plugin is a named singleton unit of hooks and commands. Name is the
// plugin's identity: it keys the plugin's config section and storage
// namespace, so renaming a plugin severs the link to prior state.
//
// Setup runs once, before the session starts; bindings are collected
// afterwards and are fixed for the session. Teardown runs during
// shutdown, in reverse registration order.
type Plugin interface {
	Name() string
	Setup(s *Session) error
	Hooks() []HookBinding
	Commands() []CommandBinding
	Teardown() error
}

// BasePlugin provides no-op defaults for the optional Plugin methods.
type BasePlugin struct{}

func (BasePlugin) Setup(*Session) error       { return nil }
func (BasePlugin) Hooks() []HookBinding       { return nil }
func (BasePlugin) Commands() []CommandBinding { return nil }
func (BasePlugin) Teardown() error            { return nil }

// Session is one plugin's view of the running bot: its scoped config,
// lazily-created storage namespace, logger, and the outgoing sink. Two
// plugins never share a Session.
type Session struct {
	bot  *Bot
	name string

	// Config is the plugin's config section with typed getters.
	Config *PluginConfig
	// Logger is scoped to the plugin.
	Logger *slog.Logger

	storeMu sync.Mutex
	coll    store.Collection
}

// Name returns the owning plugin's name.
func (s *Session) Name() string {
	return s.name
}

// Store returns the plugin's storage namespace, created on first use.
func (s *Session) Store() (store.Collection, error) {
	s.storeMu.Lock()
	defer s.storeMu.Unlock()
	if s.coll == nil {
		coll, err := s.bot.store.Namespace(s.name)
		if err != nil {
			return nil, err
		}
		s.coll = coll
	}
	return s.coll, nil
}

// Publish emits an event onto the bus.
func (s *Session) Publish(typ string, data map[string]any) {
	s.bot.Publish(typ, data)
}

// Nick returns the session's current nick.
func (s *Session) Nick() string {
	return s.bot.client.Nick()
}

// Outgoing sink: everything below is paced and sequenced with all
// other plugins' traffic.

func (s *Session) Privmsg(target, message string) { s.bot.client.Privmsg(target, message) }
func (s *Session) Notice(target, message string)  { s.bot.client.Notice(target, message) }
func (s *Session) Action(target, message string)  { s.bot.client.Action(target, message) }
func (s *Session) Join(channel string)            { s.bot.client.Join(channel) }
func (s *Session) Part(channel, message string)   { s.bot.client.Part(channel, message) }
func (s *Session) Topic(channel, topic string)    { s.bot.client.Topic(channel, topic) }
func (s *Session) SetNick(nick string)            { s.bot.client.SetNick(nick) }

// PluginConfig is a plugin's scoped view of its config file section.
// Absent keys fall back to the caller-supplied default: a missing key
// is never a hard failure. Set changes the in-memory value only and is
// never persisted back to the config source.
type PluginConfig struct {
	mu     sync.RWMutex
	values map[string]any
}

func newPluginConfig(values map[string]any) *PluginConfig {
	copied := make(map[string]any, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &PluginConfig{values: copied}
}

// String returns the string value for key, or fallback.
func (c *PluginConfig) String(key, fallback string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if s, ok := c.values[key].(string); ok {
		return s
	}
	return fallback
}

// Bool returns the boolean value for key, or fallback.
func (c *PluginConfig) Bool(key string, fallback bool) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if b, ok := c.values[key].(bool); ok {
		return b
	}
	return fallback
}

// Int returns the integer value for key, or fallback.
func (c *PluginConfig) Int(key string, fallback int) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	switch v := c.values[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return fallback
}

// Set overrides a value for the rest of the session.
func (c *PluginConfig) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
}
