package bot

import (
	"context"
	"errors"
	"testing"

	"github.com/ircflow/ircbot/config"
	"github.com/ircflow/ircbot/store"
)

func testConfig() *config.Config {
	cfg := config.Default()
	cfg.Bot.Nick = "bot"
	cfg.Bot.Host = "irc.test"
	return cfg
}

func newTestBot(t *testing.T, cfg *config.Config, opts ...Option) *Bot {
	t.Helper()
	opts = append([]Option{
		WithLogger(discardLogger()),
		WithStore(store.NewMemory()),
	}, opts...)
	b, err := New(cfg, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return b
}

// fakePlugin is a configurable test double.
type fakePlugin struct {
	BasePlugin
	name     string
	setupErr error
	session  *Session
	hooks    []HookBinding
	commands []CommandBinding
	tornDown bool
}

func (p *fakePlugin) Name() string { return p.name }

func (p *fakePlugin) Setup(s *Session) error {
	p.session = s
	return p.setupErr
}

func (p *fakePlugin) Hooks() []HookBinding       { return p.hooks }
func (p *fakePlugin) Commands() []CommandBinding { return p.commands }

func (p *fakePlugin) Teardown() error {
	p.tornDown = true
	return nil
}

func TestRegisterPartialFailure(t *testing.T) {
	b := newTestBot(t, testConfig())

	broken := &fakePlugin{name: "broken", setupErr: errors.New("no database")}
	healthy := &fakePlugin{name: "healthy", commands: []CommandBinding{{
		Name:    "ping",
		Handler: func(ctx context.Context, cmd CommandEvent) error { return nil },
	}}}

	if err := b.Register(broken, healthy); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(b.plugins) != 1 || b.sessions[0].name != "healthy" {
		t.Fatalf("loaded plugins = %v", b.sessions)
	}
	if _, ok := b.commands["ping"]; !ok {
		t.Error("healthy plugin's command missing")
	}
}

func TestRegisterDuplicateName(t *testing.T) {
	b := newTestBot(t, testConfig())

	first := &fakePlugin{name: "twin"}
	second := &fakePlugin{name: "twin"}
	if err := b.Register(first, second); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if len(b.plugins) != 1 {
		t.Fatalf("loaded %d plugins, want 1", len(b.plugins))
	}
	if second.session != nil {
		t.Error("duplicate plugin was set up")
	}
}

// A plugin name is lowercased, matching its config section key.
func TestRegisterLowercasesName(t *testing.T) {
	cfg := testConfig()
	cfg.Plugins = map[string]map[string]any{"shouty": {"volume": 11}}
	b := newTestBot(t, cfg)

	p := &fakePlugin{name: "Shouty"}
	if err := b.Register(p); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := p.session.Name(); got != "shouty" {
		t.Errorf("session name = %q", got)
	}
	if got := p.session.Config.Int("volume", 0); got != 11 {
		t.Errorf("config not linked to lowercased section, volume = %d", got)
	}
}

func TestCommandCollisionFirstWins(t *testing.T) {
	b := newTestBot(t, testConfig())

	handler := func(ctx context.Context, cmd CommandEvent) error { return nil }
	first := &fakePlugin{name: "first", commands: []CommandBinding{{Name: "say", Handler: handler}}}
	second := &fakePlugin{name: "second", commands: []CommandBinding{{Name: "say", Handler: handler}}}

	if err := b.Register(first, second); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if got := b.commands["say"].plugin; got != "first" {
		t.Errorf("command owner = %q, want %q", got, "first")
	}
}

func TestPluginConfigFallbacks(t *testing.T) {
	cfg := newPluginConfig(map[string]any{
		"greeting": "hello",
		"volume":   3,
		"loud":     true,
	})

	if got := cfg.String("greeting", "hi"); got != "hello" {
		t.Errorf("String = %q", got)
	}
	if got := cfg.String("absent", "hi"); got != "hi" {
		t.Errorf("String fallback = %q", got)
	}
	if got := cfg.Int("volume", 0); got != 3 {
		t.Errorf("Int = %d", got)
	}
	if got := cfg.Int("absent", 7); got != 7 {
		t.Errorf("Int fallback = %d", got)
	}
	if got := cfg.Bool("loud", false); !got {
		t.Error("Bool = false")
	}
	// A plugin declaring default shout=false sees false when the
	// section has no such key.
	if got := cfg.Bool("shout", false); got {
		t.Error("Bool fallback = true")
	}
	// Wrong-typed values fall back too.
	if got := cfg.Bool("greeting", false); got {
		t.Error("Bool on a string value = true")
	}
}

func TestPluginConfigSetIsInMemoryOnly(t *testing.T) {
	section := map[string]any{"shout": false}
	cfg := newPluginConfig(section)

	cfg.Set("shout", true)
	if !cfg.Bool("shout", false) {
		t.Error("Set did not take effect")
	}
	if section["shout"] != false {
		t.Error("Set leaked into the source section")
	}
}

func TestSessionStoreNamespaces(t *testing.T) {
	b := newTestBot(t, testConfig())
	a := &fakePlugin{name: "plugin_a"}
	c := &fakePlugin{name: "plugin_b"}
	if err := b.Register(a, c); err != nil {
		t.Fatalf("Register: %v", err)
	}

	ctx := context.Background()
	sa, err := a.session.Store()
	if err != nil {
		t.Fatal(err)
	}
	sb, err := c.session.Store()
	if err != nil {
		t.Fatal(err)
	}

	if err := sa.Put(ctx, "state", "a"); err != nil {
		t.Fatal(err)
	}
	if err := sb.Put(ctx, "state", "b"); err != nil {
		t.Fatal(err)
	}
	var got string
	if err := sa.Get(ctx, "state", &got); err != nil || got != "a" {
		t.Errorf("plugin_a read %q, %v", got, err)
	}
}
