package plugins

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	bot "github.com/ircflow/ircbot"
)

// Firehose mirrors the whole event stream onto NATS, one JSON message
// per event on "<subject_prefix>.<event type>". External consumers can
// subscribe to slices of the stream ("ircbot.events.core.message.>")
// without touching the bot.
//
// Config keys:
//
//	url             string  NATS server URL (default nats://127.0.0.1:4222)
//	subject_prefix  string  subject prefix (default "ircbot.events")
type Firehose struct {
	bot.BasePlugin
	session *bot.Session
	conn    *nats.Conn
	subject string
}

func NewFirehose() *Firehose {
	return &Firehose{}
}

func (p *Firehose) Name() string { return "firehose" }

func (p *Firehose) Setup(s *bot.Session) error {
	p.session = s
	p.subject = s.Config.String("subject_prefix", "ircbot.events")

	url := s.Config.String("url", nats.DefaultURL)
	conn, err := nats.Connect(url, nats.Name("ircbot-firehose"))
	if err != nil {
		return fmt.Errorf("firehose: connect %s: %w", url, err)
	}
	p.conn = conn
	return nil
}

func (p *Firehose) Hooks() []bot.HookBinding {
	return []bot.HookBinding{{Pattern: "*", Handler: p.mirror}}
}

type firehoseRecord struct {
	ID     string         `json:"id"`
	Type   string         `json:"type"`
	Time   time.Time      `json:"time"`
	Fields map[string]any `json:"fields,omitempty"`
}

// mirror publishes one event. Failures are logged and swallowed: a
// broken mirror must never disturb dispatch.
func (p *Firehose) mirror(ctx context.Context, e bot.Event) error {
	payload, err := json.Marshal(firehoseRecord{
		ID:     e.ID,
		Type:   e.Type,
		Time:   e.Time,
		Fields: e.Fields(),
	})
	if err != nil {
		p.session.Logger.Warn("encode failed", "event", e.Type, "error", err)
		return nil
	}
	if err := p.conn.Publish(p.subject+"."+e.Type, payload); err != nil {
		p.session.Logger.Warn("publish failed", "event", e.Type, "error", err)
	}
	return nil
}

func (p *Firehose) Teardown() error {
	if p.conn == nil {
		return nil
	}
	if err := p.conn.Drain(); err != nil {
		p.conn.Close()
		return fmt.Errorf("firehose: drain: %w", err)
	}
	return nil
}
