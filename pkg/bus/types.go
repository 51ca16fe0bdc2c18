package bus

import (
	"github.com/tinyland-inc/bridgeclaw/pkg/events"
	"github.com/tinyland-inc/bridgeclaw/pkg/segment"
)

// GroupMessage is a chat message received in a source group.
type GroupMessage struct {
	GroupID    string
	GroupName  string
	SenderID   string
	SenderName string
	Chain      []segment.Segment
}

// PrivateMessage is a direct or temp-session message to the bot account.
type PrivateMessage struct {
	SenderID string
	Nick     string
	Remark   string
	Stranger bool
	Chain    []segment.Segment
}

// Notification is one inbound unit of work from the source platform.
// Exactly one field is non-nil.
type Notification struct {
	Group   *GroupMessage
	Private *PrivateMessage
	Event   events.Event
}
