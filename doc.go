// Package bot runs a long-lived IRC session and fans its activity out
// to plugins through a typed event bus.
//
// The wire protocol and connection lifecycle live in the irc package;
// this package owns everything above the connection: the event bus, the
// command router, the plugin registry with its namespaced config and
// storage, and the session lifecycle.
//
// A minimal bot:
//
//	cfg, err := config.Load("bot.yaml")
//	if err != nil { ... }
//	b, err := bot.New(cfg)
//	if err != nil { ... }
//	if err := b.Register(plugins.NewExample(), plugins.NewLogger()); err != nil { ... }
//	err = b.Run(ctx)
package bot
