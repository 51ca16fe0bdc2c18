// Package events maps source-platform lifecycle events to operator-readable
// text. Every known event kind either renders a template or is suppressed
// explicitly; only genuinely unrecognized kinds hit the generic fallback.
package events

// Event is a lifecycle or state event from the source platform.
type Event interface {
	event()
}

// Connection lifecycle of the source bot itself.
type (
	// BotOnline fires when the source session is established.
	BotOnline struct{}
	// BotOffline fires when the bot deliberately goes offline.
	BotOffline struct{}
	// BotOfflineForced fires when another login displaces the bot.
	BotOfflineForced struct{}
	// BotDropped fires when the connection is lost.
	BotDropped struct{}
	// BotReconnected fires when a dropped connection recovers.
	BotReconnected struct{}
)

// FriendNickChanged reports a friend renaming themselves.
type FriendNickChanged struct {
	UserID string
	Remark string
	Old    string
	New    string
}

// FriendRecalled reports a friend retracting a message.
type FriendRecalled struct {
	Time       int64
	OperatorID string
}

// FriendInputStatus reports typing-state changes. Always suppressed.
type FriendInputStatus struct {
	UserID string
}

// GroupRecalled reports a message retraction inside a group.
type GroupRecalled struct {
	GroupID      string
	GroupName    string
	OperatorName string
	MessageID    string
}

// GroupMutedAll reports the whole-group mute switch changing.
type GroupMutedAll struct {
	GroupID      string
	GroupName    string
	Enabled      bool
	OperatorName string
}

// GroupNameChanged reports a group renaming.
type GroupNameChanged struct {
	GroupID      string
	Old          string
	New          string
	OperatorName string
}

// GroupAnonymousChat reports the anonymous-chat switch changing.
type GroupAnonymousChat struct {
	GroupID      string
	GroupName    string
	Enabled      bool
	OperatorName string
}

// GroupMemberInvite reports the member-may-invite switch changing.
type GroupMemberInvite struct {
	GroupID      string
	GroupName    string
	Enabled      bool
	OperatorName string
}

// GroupAnnouncementChanged reports the entrance announcement changing.
type GroupAnnouncementChanged struct {
	GroupID      string
	GroupName    string
	Old          string
	New          string
	OperatorName string
}

// Bot membership changes.
type (
	// BotJoinedGroup fires when the bot enters a group.
	BotJoinedGroup struct {
		GroupID   string
		GroupName string
	}
	// BotKicked fires when the bot is removed from a group.
	BotKicked struct {
		GroupID   string
		GroupName string
	}
	// BotLeftGroup fires when the bot leaves a group on its own.
	BotLeftGroup struct {
		GroupID   string
		GroupName string
	}
	// BotMuted fires when the bot is muted in a group.
	BotMuted struct {
		OperatorName string
		Seconds      int64
	}
	// BotUnmuted fires when a bot mute is lifted.
	BotUnmuted struct {
		OperatorName string
	}
)

// Member churn inside groups the bot watches. All suppressed: group-local
// noise the operator channel does not need.
type (
	// MemberJoined fires when someone joins a group.
	MemberJoined struct{ GroupID string }
	// MemberLeft fires when someone leaves a group.
	MemberLeft struct{ GroupID string }
	// MemberMuted fires when a member is muted.
	MemberMuted struct{ GroupID string }
	// MemberPermissionChanged fires on member role changes.
	MemberPermissionChanged struct{ GroupID string }
)

// Nudge is a poke aimed at someone in a chat.
type Nudge struct {
	FromID   string
	TargetID string
	Action   string
	Suffix   string
}

// OtherClientOnline reports another client of the same account signing in.
type OtherClientOnline struct {
	Platform string
}

// OtherClientOffline reports another client signing out.
type OtherClientOffline struct {
	Platform string
}

// FriendRequest is an incoming friend request.
type FriendRequest struct {
	FromID  string
	Nick    string
	Message string
	GroupID string
}

// GroupInvitation is an incoming invitation for the bot to join a group.
// Converting it triggers the auto-approval policy.
type GroupInvitation struct {
	EventID string
	FromID  string
	Nick    string
	GroupID string
	Message string
}

// Unknown preserves an event kind the decoder does not recognize.
type Unknown struct {
	Kind string
}

func (BotOnline) event()                {}
func (BotOffline) event()               {}
func (BotOfflineForced) event()         {}
func (BotDropped) event()               {}
func (BotReconnected) event()           {}
func (FriendNickChanged) event()        {}
func (FriendRecalled) event()           {}
func (FriendInputStatus) event()        {}
func (GroupRecalled) event()            {}
func (GroupMutedAll) event()            {}
func (GroupNameChanged) event()         {}
func (GroupAnonymousChat) event()       {}
func (GroupMemberInvite) event()        {}
func (GroupAnnouncementChanged) event() {}
func (BotJoinedGroup) event()           {}
func (BotKicked) event()                {}
func (BotLeftGroup) event()             {}
func (BotMuted) event()                 {}
func (BotUnmuted) event()               {}
func (MemberJoined) event()             {}
func (MemberLeft) event()               {}
func (MemberMuted) event()              {}
func (MemberPermissionChanged) event()  {}
func (Nudge) event()                    {}
func (OtherClientOnline) event()        {}
func (OtherClientOffline) event()       {}
func (FriendRequest) event()            {}
func (GroupInvitation) event()          {}
func (Unknown) event()                  {}
