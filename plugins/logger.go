package plugins

import (
	"context"
	"sort"

	bot "github.com/ircflow/ircbot"
)

// Logger mirrors every event to the log. Mostly useful while developing
// other plugins.
type Logger struct {
	bot.BasePlugin
	session *bot.Session
}

func NewLogger() *Logger {
	return &Logger{}
}

func (p *Logger) Name() string { return "logger" }

func (p *Logger) Setup(s *bot.Session) error {
	p.session = s
	return nil
}

func (p *Logger) Hooks() []bot.HookBinding {
	return []bot.HookBinding{{Pattern: "*", Handler: p.log}}
}

func (p *Logger) log(ctx context.Context, e bot.Event) error {
	fields := e.Fields()
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]any, 0, 2*len(keys))
	for _, k := range keys {
		attrs = append(attrs, k, fields[k])
	}
	p.session.Logger.Info(e.Type, attrs...)
	return nil
}
