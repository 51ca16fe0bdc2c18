// Package bridge is the orchestrator: it consumes source notifications from
// the bus and turns each into an independent, supervised unit of work that
// reduces, routes and redelivers.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tinyland-inc/bridgeclaw/pkg/bus"
	"github.com/tinyland-inc/bridgeclaw/pkg/config"
	"github.com/tinyland-inc/bridgeclaw/pkg/events"
	"github.com/tinyland-inc/bridgeclaw/pkg/reduce"
	"github.com/tinyland-inc/bridgeclaw/pkg/timedset"
	"github.com/tinyland-inc/bridgeclaw/pkg/transport"
)

// Deliverer redelivers a normalized message to a destination chat.
type Deliverer interface {
	Deliver(ctx context.Context, msg reduce.Message, chatID int64, replyTo int) bool
}

// TextSender issues plain text sends to the destination, used for event
// notifications and operator escalations.
type TextSender interface {
	SendText(ctx context.Context, chatID int64, text string, replyTo int) (int, error)
}

// SourceControl is the slice of the source API the orchestrator drives
// directly: canned replies and invitation approval.
type SourceControl interface {
	SendPrivateMessage(ctx context.Context, userID, text string) error
	ApproveGroupInvitation(ctx context.Context, eventID string) error
}

// Bridge consumes the notification bus and fans work out per notification.
type Bridge struct {
	cfg  *config.Config
	bus  *bus.Bus
	disp Deliverer
	conv *events.Converter
	tp   *transport.Transport
	text TextSender
	src  SourceControl
	log  zerolog.Logger

	// replied tracks private senders already answered inside the window.
	replied *timedset.Set[string]
}

// New wires the orchestrator. The converter's approval policy and the
// transport's notifier are installed here so all cross-component hooks live
// in one place.
func New(
	cfg *config.Config,
	b *bus.Bus,
	disp Deliverer,
	conv *events.Converter,
	tp *transport.Transport,
	text TextSender,
	src SourceControl,
	log zerolog.Logger,
) *Bridge {
	window := time.Duration(cfg.AutoReply.WindowDays) * 24 * time.Hour
	if window <= 0 {
		window = 7 * 24 * time.Hour
	}
	br := &Bridge{
		cfg:     cfg,
		bus:     b,
		disp:    disp,
		conv:    conv,
		tp:      tp,
		text:    text,
		src:     src,
		log:     log,
		replied: timedset.New[string](window),
	}
	if src != nil {
		conv.SetApprovePolicy(src.ApproveGroupInvitation)
	}
	if cfg.Events.Target != 0 {
		tp.SetNotifier(func(ctx context.Context, msg string) error {
			_, err := text.SendText(ctx, cfg.Events.Target, msg, 0)
			return err
		})
	}
	return br
}

// Run consumes notifications until ctx is cancelled or the bus closes, then
// waits for in-flight units of work to finish.
func (br *Bridge) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for {
		n, ok := br.bus.Consume(ctx)
		if !ok {
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			br.handle(ctx, n)
		}()
	}
	wg.Wait()
}

// handle processes one notification. A panic here must never take down the
// consume loop: it is recovered and routed through the transport's reporting
// path instead.
func (br *Bridge) handle(ctx context.Context, n bus.Notification) {
	defer func() {
		if r := recover(); r != nil {
			br.tp.Report(ctx, "notification handler", fmt.Errorf("panic: %v", r))
		}
	}()

	switch {
	case n.Group != nil:
		br.handleGroup(ctx, n.Group)
	case n.Private != nil:
		br.handlePrivate(ctx, n.Private)
	case n.Event != nil:
		br.handleEvent(ctx, n.Event)
	}
}

func (br *Bridge) handleGroup(ctx context.Context, g *bus.GroupMessage) {
	target, ok := br.cfg.TargetFor(g.GroupID)
	if !ok {
		br.log.Debug().Str("group", g.GroupID).Msg("no route for group, dropping")
		return
	}
	msg := reduce.ForGroup(g.GroupName, g.SenderName, g.SenderID, g.Chain, g.GroupID)
	br.disp.Deliver(ctx, msg, target, 0)
}

// handlePrivate mirrors the direct message to the operator chat and, at most
// once per sender per window, answers it with the canned reply.
func (br *Bridge) handlePrivate(ctx context.Context, p *bus.PrivateMessage) {
	if br.cfg.Events.Target != 0 {
		name := p.Nick
		if p.Remark != "" {
			name = p.Remark
		}
		kind := "private message"
		if p.Stranger {
			kind = "temp session"
		}
		msg := reduce.Reduce(p.Chain, "").
			WithHeader(fmt.Sprintf("[%s]\n%s (%s)\n", kind, name, p.SenderID))
		br.disp.Deliver(ctx, msg, br.cfg.Events.Target, 0)
	}

	if !br.cfg.AutoReply.Enabled || br.src == nil {
		return
	}
	if br.replied.CheckAndAdd(p.SenderID) {
		return
	}
	reply := br.cfg.AutoReply.FriendText
	if p.Stranger {
		reply = br.cfg.AutoReply.StrangerText
	}
	if reply == "" {
		return
	}
	if err := br.src.SendPrivateMessage(ctx, p.SenderID, reply); err != nil {
		br.tp.Report(ctx, "auto reply", err)
	}
}

func (br *Bridge) handleEvent(ctx context.Context, e events.Event) {
	text, ok := br.conv.Convert(ctx, e)
	if !ok {
		return
	}
	if br.cfg.Events.Target == 0 {
		br.log.Info().Str("event", text).Msg("no operator chat configured, logging only")
		return
	}
	br.tp.Execute(ctx, "sendMessage", func(ctx context.Context) (int, error) {
		return br.text.SendText(ctx, br.cfg.Events.Target, text, 0)
	})
}
