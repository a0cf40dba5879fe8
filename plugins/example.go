// Package plugins contains the built-in plugins.
package plugins

import (
	"context"
	"errors"
	"strings"

	bot "github.com/ircflow/ircbot"
	"github.com/ircflow/ircbot/store"
)

// Example demonstrates the full plugin surface: commands, config
// defaults and persistent storage.
//
// Config keys:
//
//	shout  bool  repeat arguments uppercased (default false)
type Example struct {
	bot.BasePlugin
	session *bot.Session
}

func NewExample() *Example {
	return &Example{}
}

func (p *Example) Name() string { return "example" }

func (p *Example) Setup(s *bot.Session) error {
	p.session = s
	return nil
}

func (p *Example) Commands() []bot.CommandBinding {
	return []bot.CommandBinding{
		{Name: "say", Help: "say <words>: repeat the arguments", Handler: p.say},
		{Name: "remember", Help: "remember <key> <value>: store a value", Handler: p.remember},
		{Name: "recall", Help: "recall <key>: retrieve a stored value", Handler: p.recall},
		{Name: "forget", Help: "forget <key>: delete a stored value", Handler: p.forget},
	}
}

func (p *Example) say(ctx context.Context, cmd bot.CommandEvent) error {
	args, err := cmd.Arguments()
	if err != nil {
		cmd.Reply("unmatched quote in arguments")
		return nil
	}
	if len(args) == 0 {
		cmd.Reply("say what?")
		return nil
	}
	out := strings.Join(args, " ")
	if p.session.Config.Bool("shout", false) {
		out = strings.ToUpper(out) + "!"
	}
	cmd.Reply(out)
	return nil
}

func (p *Example) remember(ctx context.Context, cmd bot.CommandEvent) error {
	args, err := cmd.Arguments()
	if err != nil || len(args) < 2 {
		cmd.Reply("remember <key> <value>")
		return nil
	}
	coll, err := p.session.Store()
	if err != nil {
		return err
	}
	if err := coll.Put(ctx, args[0], strings.Join(args[1:], " ")); err != nil {
		return err
	}
	cmd.Reply("remembered " + args[0])
	return nil
}

func (p *Example) recall(ctx context.Context, cmd bot.CommandEvent) error {
	args, err := cmd.Arguments()
	if err != nil || len(args) != 1 {
		cmd.Reply("recall <key>")
		return nil
	}
	coll, err := p.session.Store()
	if err != nil {
		return err
	}
	var value string
	err = coll.Get(ctx, args[0], &value)
	if errors.Is(err, store.ErrNotFound) {
		cmd.Reply("nothing stored for " + args[0])
		return nil
	}
	if err != nil {
		return err
	}
	cmd.Reply(args[0] + " is " + value)
	return nil
}

func (p *Example) forget(ctx context.Context, cmd bot.CommandEvent) error {
	args, err := cmd.Arguments()
	if err != nil || len(args) != 1 {
		cmd.Reply("forget <key>")
		return nil
	}
	coll, err := p.session.Store()
	if err != nil {
		return err
	}
	if err := coll.Delete(ctx, args[0]); err != nil {
		return err
	}
	cmd.Reply("forgot " + args[0])
	return nil
}
