package onebot

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tinyland-inc/bridgeclaw/pkg/events"
	"github.com/tinyland-inc/bridgeclaw/pkg/segment"
)

func TestDecodeGroupMessage(t *testing.T) {
	raw := []byte(`{
		"post_type": "message",
		"message_type": "group",
		"group_id": 1001,
		"group_name": "devs",
		"sender": {"user_id": 42, "nickname": "alice", "card": "Alice (ops)"},
		"message": [
			{"type": "source", "data": {"time": 1700000000, "message_id": 555}},
			{"type": "text", "data": {"text": "hello"}}
		]
	}`)
	n, ok := decodeNotification(raw)
	require.True(t, ok)
	require.NotNil(t, n.Group)

	g := n.Group
	assert.Equal(t, "1001", g.GroupID)
	assert.Equal(t, "devs", g.GroupName)
	assert.Equal(t, "42", g.SenderID)
	assert.Equal(t, "Alice (ops)", g.SenderName, "card takes precedence over nickname")
	require.Len(t, g.Chain, 2)
	assert.Equal(t, segment.Source{Time: 1700000000, MessageID: "555"}, g.Chain[0])
	assert.Equal(t, segment.Text{Text: "hello"}, g.Chain[1])
}

func TestDecodeGroupMessageNicknameFallback(t *testing.T) {
	raw := []byte(`{
		"post_type": "message",
		"message_type": "group",
		"group_id": 1001,
		"sender": {"user_id": 42, "nickname": "alice"},
		"message": []
	}`)
	n, ok := decodeNotification(raw)
	require.True(t, ok)
	assert.Equal(t, "alice", n.Group.SenderName)
}

func TestDecodePrivateMessage(t *testing.T) {
	raw := []byte(`{
		"post_type": "message",
		"message_type": "private",
		"sub_type": "friend",
		"sender": {"user_id": 42, "nickname": "alice", "remark": "boss"},
		"message": [{"type": "text", "data": {"text": "hi"}}]
	}`)
	n, ok := decodeNotification(raw)
	require.True(t, ok)
	require.NotNil(t, n.Private)
	assert.Equal(t, "42", n.Private.SenderID)
	assert.Equal(t, "boss", n.Private.Remark)
	assert.False(t, n.Private.Stranger)

	raw = []byte(`{
		"post_type": "message",
		"message_type": "private",
		"sub_type": "group",
		"sender": {"user_id": 43},
		"message": []
	}`)
	n, ok = decodeNotification(raw)
	require.True(t, ok)
	assert.True(t, n.Private.Stranger, "temp sessions are strangers")
}

func TestDecodeChainSegments(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want segment.Segment
	}{
		{
			"image",
			`{"type": "image", "data": {"url": "http://x/a.png", "file": "img1"}}`,
			segment.Image{URL: "http://x/a.png", ID: "img1"},
		},
		{
			"flash image",
			`{"type": "flash", "data": {"url": "http://x/a.png", "file": "img1"}}`,
			segment.Image{URL: "http://x/a.png", ID: "img1", Flash: true},
		},
		{
			"file",
			`{"type": "file", "data": {"file_id": "f1", "name": "doc.pdf", "size": 99}}`,
			segment.File{ID: "f1", Name: "doc.pdf", Size: 99},
		},
		{
			"at member",
			`{"type": "at", "data": {"qq": 42}}`,
			segment.At{Target: "42"},
		},
		{
			"at all",
			`{"type": "at", "data": {"qq": "all"}}`,
			segment.AtAll{},
		},
		{
			"dice",
			`{"type": "dice", "data": {"result": 6}}`,
			segment.Dice{Value: "6"},
		},
		{
			"app card via content",
			`{"type": "app", "data": {"content": "{\"prompt\":\"p\"}"}}`,
			segment.App{Content: `{"prompt":"p"}`},
		},
		{
			"app card via data",
			`{"type": "json", "data": {"data": "{\"prompt\":\"p\"}"}}`,
			segment.App{Content: `{"prompt":"p"}`},
		},
		{
			"voice",
			`{"type": "record", "data": {"url": "http://x/v.amr", "file": "v1"}}`,
			segment.Voice{URL: "http://x/v.amr", ID: "v1"},
		},
		{
			"unknown kind preserved",
			`{"type": "hologram", "data": {"x": 1}}`,
			segment.Unknown{Type: "hologram", Raw: `{"x": 1}`},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r rawSegment
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &r))
			assert.Equal(t, tt.want, decodeSegment(r))
		})
	}
}

func TestDecodeNestedForward(t *testing.T) {
	raw := []byte(`{"type": "forward", "data": {"nodes": [
		{"sender_id": 1, "sender_name": "alice", "content": [{"type": "text", "data": {"text": "a"}}]},
		{"sender_id": 2, "sender_name": "bob", "content": []}
	]}}`)
	var r rawSegment
	require.NoError(t, json.Unmarshal(raw, &r))

	fwd, ok := decodeSegment(r).(segment.Forward)
	require.True(t, ok)
	require.Len(t, fwd.Nodes, 2)
	assert.Equal(t, "alice", fwd.Nodes[0].SenderName)
	assert.Equal(t, "1", fwd.Nodes[0].SenderID)
	assert.Equal(t, []segment.Segment{segment.Text{Text: "a"}}, fwd.Nodes[0].Chain)
}

func TestDecodeQuoteOrigin(t *testing.T) {
	raw := []byte(`{"type": "quote", "data": {"sender_id": 42, "origin": [{"type": "text", "data": {"text": "orig"}}]}}`)
	var r rawSegment
	require.NoError(t, json.Unmarshal(raw, &r))

	q, ok := decodeSegment(r).(segment.Quote)
	require.True(t, ok)
	assert.Equal(t, "42", q.SenderID)
	assert.Equal(t, []segment.Segment{segment.Text{Text: "orig"}}, q.Origin)
}

func TestDecodeMetaEvents(t *testing.T) {
	n, ok := decodeNotification([]byte(`{"post_type": "meta_event", "meta_event_type": "lifecycle", "sub_type": "connect"}`))
	require.True(t, ok)
	assert.Equal(t, events.BotOnline{}, n.Event)

	_, ok = decodeNotification([]byte(`{"post_type": "meta_event", "meta_event_type": "heartbeat"}`))
	assert.False(t, ok, "heartbeats are dropped")
}

func TestDecodeRequests(t *testing.T) {
	n, ok := decodeNotification([]byte(`{
		"post_type": "request", "request_type": "friend",
		"user_id": 42, "nickname": "alice", "comment": "hi", "group_id": 1001
	}`))
	require.True(t, ok)
	assert.Equal(t, events.FriendRequest{FromID: "42", Nick: "alice", Message: "hi", GroupID: "1001"}, n.Event)

	n, ok = decodeNotification([]byte(`{
		"post_type": "request", "request_type": "group", "sub_type": "invite",
		"flag": "fl9", "user_id": 42, "group_id": 1001
	}`))
	require.True(t, ok)
	assert.Equal(t, events.GroupInvitation{EventID: "fl9", FromID: "42", GroupID: "1001"}, n.Event)

	_, ok = decodeNotification([]byte(`{"post_type": "request", "request_type": "group", "sub_type": "add"}`))
	assert.False(t, ok, "member join requests are dropped")
}

func TestDecodeNotices(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want events.Event
	}{
		{
			"bot joined group",
			`{"post_type": "notice", "notice_type": "group_increase", "group_id": 1, "group_name": "g", "user_id": 7, "self_id": 7}`,
			events.BotJoinedGroup{GroupID: "1", GroupName: "g"},
		},
		{
			"member joined",
			`{"post_type": "notice", "notice_type": "group_increase", "group_id": 1, "user_id": 8, "self_id": 7}`,
			events.MemberJoined{GroupID: "1"},
		},
		{
			"bot kicked",
			`{"post_type": "notice", "notice_type": "group_decrease", "sub_type": "kick_me", "group_id": 1, "group_name": "g"}`,
			events.BotKicked{GroupID: "1", GroupName: "g"},
		},
		{
			"bot muted",
			`{"post_type": "notice", "notice_type": "group_ban", "sub_type": "ban_me", "operator_name": "op", "duration": 600}`,
			events.BotMuted{OperatorName: "op", Seconds: 600},
		},
		{
			"group recall",
			`{"post_type": "notice", "notice_type": "group_recall", "group_id": 1, "group_name": "g", "operator_name": "op", "message_id": 9}`,
			events.GroupRecalled{GroupID: "1", GroupName: "g", OperatorName: "op", MessageID: "9"},
		},
		{
			"unknown notice preserved",
			`{"post_type": "notice", "notice_type": "sparkle"}`,
			events.Unknown{Kind: "notice.sparkle"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := decodeNotification([]byte(tt.raw))
			require.True(t, ok)
			assert.Equal(t, tt.want, n.Event)
		})
	}
}

func TestDecodeUnparseableFrame(t *testing.T) {
	_, ok := decodeNotification([]byte(`{{not json`))
	assert.False(t, ok)
}
