package events

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tinyland-inc/bridgeclaw/pkg/segment"
)

// ApprovePolicy decides what to do with an incoming group invitation.
// The default bridge policy approves it through the source platform; the
// hook exists so deployments can decline or ignore instead.
type ApprovePolicy func(ctx context.Context, eventID string) error

// Converter renders lifecycle events into operator-channel text.
//
// Converting a GroupInvitation is not pure: the configured ApprovePolicy
// runs as a side effect before the notification text is returned. This
// mirrors long-standing bridge behavior and is kept injectable on purpose.
type Converter struct {
	excluded map[string]struct{}
	approve  ApprovePolicy
	log      zerolog.Logger
}

// NewConverter creates a Converter. Events scoped to any id in
// excludedScopes are suppressed regardless of kind.
func NewConverter(excludedScopes []string, log zerolog.Logger) *Converter {
	excluded := make(map[string]struct{}, len(excludedScopes))
	for _, id := range excludedScopes {
		excluded[id] = struct{}{}
	}
	return &Converter{excluded: excluded, log: log}
}

// SetApprovePolicy installs the group-invitation policy hook.
func (c *Converter) SetApprovePolicy(p ApprovePolicy) {
	c.approve = p
}

// Convert maps an event to operator text. The second return is false when
// the event is suppressed: either its kind never notifies, or its scope is
// excluded by configuration.
func (c *Converter) Convert(ctx context.Context, e Event) (string, bool) {
	switch v := e.(type) {
	case BotOnline:
		return "[source bot]\nsigned in", true
	case BotOffline:
		return "[source bot]\nwent offline", true
	case BotOfflineForced:
		return "[source bot]\nforced offline by another login", true
	case BotDropped:
		return "[source bot]\nconnection dropped", true
	case BotReconnected:
		return "[source bot]\nreconnected", true
	case FriendNickChanged:
		if c.isExcluded(v.UserID) {
			return "", false
		}
		return fmt.Sprintf("friend %s (remark: %s) renamed from %s to %s",
			v.UserID, v.Remark, v.Old, v.New), true
	case FriendRecalled:
		if c.isExcluded(v.OperatorID) {
			return "", false
		}
		return fmt.Sprintf("%s\nfriend %s recalled a message",
			segment.FormatTime(v.Time), v.OperatorID), true
	case FriendInputStatus:
		return "", false
	case GroupRecalled:
		if c.isExcluded(v.GroupID) {
			return "", false
		}
		return fmt.Sprintf("group %s: %s recalled message %s",
			v.GroupName, v.OperatorName, v.MessageID), true
	case GroupMutedAll:
		if c.isExcluded(v.GroupID) {
			return "", false
		}
		return fmt.Sprintf("group %s: mute-all %s\nby: %s",
			v.GroupName, onOff(v.Enabled), v.OperatorName), true
	case GroupNameChanged:
		if c.isExcluded(v.GroupID) {
			return "", false
		}
		return fmt.Sprintf("group %s renamed from %s to %s\nby: %s",
			v.GroupID, v.Old, v.New, v.OperatorName), true
	case GroupAnonymousChat:
		if c.isExcluded(v.GroupID) {
			return "", false
		}
		return fmt.Sprintf("group %s: anonymous chat %s\nby: %s",
			v.GroupName, onOff(v.Enabled), v.OperatorName), true
	case GroupMemberInvite:
		if c.isExcluded(v.GroupID) {
			return "", false
		}
		return fmt.Sprintf("group %s: member invitations %s\nby: %s",
			v.GroupName, onOff(v.Enabled), v.OperatorName), true
	case GroupAnnouncementChanged:
		if c.isExcluded(v.GroupID) {
			return "", false
		}
		return fmt.Sprintf("group %s: entrance announcement changed\nold: %s\nnew: %s\nby: %s",
			v.GroupName, v.Old, v.New, v.OperatorName), true
	case BotJoinedGroup:
		if c.isExcluded(v.GroupID) {
			return "", false
		}
		return fmt.Sprintf("bot joined group %s (%s)", v.GroupName, v.GroupID), true
	case BotKicked:
		if c.isExcluded(v.GroupID) {
			return "", false
		}
		return fmt.Sprintf("bot was kicked from group %s (%s)", v.GroupName, v.GroupID), true
	case BotLeftGroup:
		if c.isExcluded(v.GroupID) {
			return "", false
		}
		return fmt.Sprintf("bot left group %s (%s)", v.GroupName, v.GroupID), true
	case BotMuted:
		return fmt.Sprintf("bot muted by %s for %ds", v.OperatorName, v.Seconds), true
	case BotUnmuted:
		return fmt.Sprintf("bot unmuted by %s", v.OperatorName), true
	case MemberJoined, MemberLeft, MemberMuted, MemberPermissionChanged:
		return "", false
	case Nudge:
		return fmt.Sprintf("[poke] %s %s %s %s", v.FromID, v.Action, v.TargetID, v.Suffix), true
	case OtherClientOnline:
		return fmt.Sprintf("another client signed in: %s", v.Platform), true
	case OtherClientOffline:
		return fmt.Sprintf("another client signed out: %s", v.Platform), true
	case FriendRequest:
		return fmt.Sprintf("[friend request]\n%s\n%s\n%s\nfrom group: %s",
			v.FromID, v.Nick, v.Message, v.GroupID), true
	case GroupInvitation:
		c.runApprove(ctx, v)
		return fmt.Sprintf("[group invitation (approved)]\ninvited by: %s (%s)\ngroup: %s\nmessage: %s",
			v.Nick, v.FromID, v.GroupID, v.Message), true
	case Unknown:
		return "[source bot]\nunrecognized event: " + v.Kind, true
	default:
		// New kinds must opt in to suppression explicitly.
		return "[source bot]\nunrecognized event", true
	}
}

func (c *Converter) runApprove(ctx context.Context, inv GroupInvitation) {
	if c.approve == nil {
		return
	}
	if err := c.approve(ctx, inv.EventID); err != nil {
		c.log.Error().Str("group", inv.GroupID).Err(err).Msg("group invitation approval failed")
	}
}

func (c *Converter) isExcluded(scope string) bool {
	_, ok := c.excluded[scope]
	return ok
}

func onOff(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
