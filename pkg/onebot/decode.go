package onebot

import (
	"encoding/json"

	"github.com/tinyland-inc/bridgeclaw/pkg/bus"
	"github.com/tinyland-inc/bridgeclaw/pkg/events"
	"github.com/tinyland-inc/bridgeclaw/pkg/segment"
)

// rawSegment is one wire segment: a type tag and a kind-specific payload.
type rawSegment struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type rawSender struct {
	UserID   json.Number `json:"user_id"`
	Nickname string      `json:"nickname"`
	Card     string      `json:"card"`
	Remark   string      `json:"remark"`
}

// rawFrame is the superset envelope of every inbound frame category.
type rawFrame struct {
	PostType    string       `json:"post_type"`
	MessageType string       `json:"message_type"`
	SubType     string       `json:"sub_type"`
	MetaType    string       `json:"meta_event_type"`
	NoticeType  string       `json:"notice_type"`
	RequestType string       `json:"request_type"`
	GroupID     json.Number  `json:"group_id"`
	GroupName   string       `json:"group_name"`
	UserID      json.Number  `json:"user_id"`
	SelfID      json.Number  `json:"self_id"`
	OperatorID  json.Number  `json:"operator_id"`
	Operator    string       `json:"operator_name"`
	TargetID    json.Number  `json:"target_id"`
	MessageID   json.Number  `json:"message_id"`
	Time        int64        `json:"time"`
	Duration    int64        `json:"duration"`
	Enabled     bool         `json:"enabled"`
	Old         string       `json:"old"`
	New         string       `json:"new"`
	Flag        string       `json:"flag"`
	Comment     string       `json:"comment"`
	Nick        string       `json:"nickname"`
	Platform    string       `json:"platform"`
	Action      string       `json:"action"`
	Suffix      string       `json:"suffix"`
	Sender      rawSender    `json:"sender"`
	Message     []rawSegment `json:"message"`
}

// decodeNotification turns an inbound frame into a bus notification. The
// second return is false for frames the bridge has no use for (heartbeats,
// echo-less API noise).
func decodeNotification(raw []byte) (bus.Notification, bool) {
	var f rawFrame
	if err := json.Unmarshal(raw, &f); err != nil {
		return bus.Notification{}, false
	}

	switch f.PostType {
	case "message":
		return decodeMessage(&f)
	case "notice", "request", "meta_event":
		if ev, ok := decodeEvent(&f); ok {
			return bus.Notification{Event: ev}, true
		}
		return bus.Notification{}, false
	default:
		return bus.Notification{}, false
	}
}

func decodeMessage(f *rawFrame) (bus.Notification, bool) {
	chain := DecodeChain(f.Message)
	switch f.MessageType {
	case "group":
		name := f.Sender.Card
		if name == "" {
			name = f.Sender.Nickname
		}
		return bus.Notification{Group: &bus.GroupMessage{
			GroupID:    f.GroupID.String(),
			GroupName:  f.GroupName,
			SenderID:   f.Sender.UserID.String(),
			SenderName: name,
			Chain:      chain,
		}}, true
	case "private":
		return bus.Notification{Private: &bus.PrivateMessage{
			SenderID: f.Sender.UserID.String(),
			Nick:     f.Sender.Nickname,
			Remark:   f.Sender.Remark,
			Stranger: f.SubType != "friend",
			Chain:    chain,
		}}, true
	default:
		return bus.Notification{}, false
	}
}

// DecodeChain maps wire segments to the typed chain the reducer consumes.
// Unknown segment kinds are preserved, not dropped: the reducer renders them
// through the raw-text fallback.
func DecodeChain(raws []rawSegment) []segment.Segment {
	chain := make([]segment.Segment, 0, len(raws))
	for _, r := range raws {
		chain = append(chain, decodeSegment(r))
	}
	return chain
}

func decodeSegment(r rawSegment) segment.Segment {
	switch r.Type {
	case "source":
		var d struct {
			Time      int64       `json:"time"`
			MessageID json.Number `json:"message_id"`
		}
		_ = json.Unmarshal(r.Data, &d)
		return segment.Source{Time: d.Time, MessageID: d.MessageID.String()}
	case "quote":
		var d struct {
			SenderID json.Number  `json:"sender_id"`
			Origin   []rawSegment `json:"origin"`
		}
		_ = json.Unmarshal(r.Data, &d)
		return segment.Quote{SenderID: d.SenderID.String(), Origin: DecodeChain(d.Origin)}
	case "forward":
		var d struct {
			Nodes []struct {
				SenderID   json.Number  `json:"sender_id"`
				SenderName string       `json:"sender_name"`
				Content    []rawSegment `json:"content"`
			} `json:"nodes"`
		}
		_ = json.Unmarshal(r.Data, &d)
		nodes := make([]segment.ForwardNode, 0, len(d.Nodes))
		for _, n := range d.Nodes {
			nodes = append(nodes, segment.ForwardNode{
				SenderName: n.SenderName,
				SenderID:   n.SenderID.String(),
				Chain:      DecodeChain(n.Content),
			})
		}
		return segment.Forward{Nodes: nodes}
	case "text":
		var d struct {
			Text string `json:"text"`
		}
		_ = json.Unmarshal(r.Data, &d)
		return segment.Text{Text: d.Text}
	case "image", "flash":
		var d struct {
			URL string `json:"url"`
			ID  string `json:"file"`
		}
		_ = json.Unmarshal(r.Data, &d)
		return segment.Image{URL: d.URL, ID: d.ID, Flash: r.Type == "flash"}
	case "file":
		var d struct {
			ID   string `json:"file_id"`
			Name string `json:"name"`
			Size int64  `json:"size"`
		}
		_ = json.Unmarshal(r.Data, &d)
		return segment.File{ID: d.ID, Name: d.Name, Size: d.Size}
	case "at":
		var d struct {
			Target json.Number `json:"qq"`
		}
		_ = json.Unmarshal(r.Data, &d)
		if d.Target.String() == "all" || d.Target.String() == "" {
			return segment.AtAll{}
		}
		return segment.At{Target: d.Target.String()}
	case "poke":
		var d struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(r.Data, &d)
		return segment.Poke{Name: d.Name}
	case "dice":
		var d struct {
			Value json.Number `json:"result"`
		}
		_ = json.Unmarshal(r.Data, &d)
		return segment.Dice{Value: d.Value.String()}
	case "face":
		var d struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(r.Data, &d)
		return segment.Face{Name: d.Name}
	case "mface":
		var d struct {
			Name string `json:"name"`
		}
		_ = json.Unmarshal(r.Data, &d)
		return segment.MarketFace{Name: d.Name}
	case "app", "json":
		var d struct {
			Content string `json:"content"`
			Data    string `json:"data"`
		}
		_ = json.Unmarshal(r.Data, &d)
		content := d.Content
		if content == "" {
			content = d.Data
		}
		return segment.App{Content: content}
	case "xml":
		var d struct {
			Data string `json:"data"`
		}
		_ = json.Unmarshal(r.Data, &d)
		return segment.XML{Content: d.Data}
	case "record":
		var d struct {
			URL string `json:"url"`
			ID  string `json:"file"`
		}
		_ = json.Unmarshal(r.Data, &d)
		return segment.Voice{URL: d.URL, ID: d.ID}
	case "music":
		var d struct {
			Title      string `json:"title"`
			Brief      string `json:"brief"`
			JumpURL    string `json:"jump_url"`
			Summary    string `json:"summary"`
			PictureURL string `json:"picture_url"`
		}
		_ = json.Unmarshal(r.Data, &d)
		return segment.Music{
			Title: d.Title, Brief: d.Brief, JumpURL: d.JumpURL,
			Summary: d.Summary, PictureURL: d.PictureURL,
		}
	case "code":
		var d struct {
			Code string `json:"code"`
		}
		_ = json.Unmarshal(r.Data, &d)
		return segment.Code{Code: d.Code}
	default:
		return segment.Unknown{Type: r.Type, Raw: string(r.Data)}
	}
}

func decodeEvent(f *rawFrame) (events.Event, bool) {
	switch f.PostType {
	case "meta_event":
		switch f.MetaType {
		case "lifecycle":
			switch f.SubType {
			case "connect", "enable":
				return events.BotOnline{}, true
			case "disable":
				return events.BotOffline{}, true
			}
			return events.Unknown{Kind: "lifecycle." + f.SubType}, true
		case "heartbeat":
			return nil, false
		}
		return events.Unknown{Kind: "meta_event." + f.MetaType}, true
	case "notice":
		return decodeNotice(f), true
	case "request":
		switch f.RequestType {
		case "friend":
			return events.FriendRequest{
				FromID:  f.UserID.String(),
				Nick:    f.Nick,
				Message: f.Comment,
				GroupID: f.GroupID.String(),
			}, true
		case "group":
			if f.SubType == "invite" {
				return events.GroupInvitation{
					EventID: f.Flag,
					FromID:  f.UserID.String(),
					Nick:    f.Nick,
					GroupID: f.GroupID.String(),
					Message: f.Comment,
				}, true
			}
			// Member join requests are handled by group admins, not the bridge.
			return nil, false
		}
		return events.Unknown{Kind: "request." + f.RequestType}, true
	}
	return nil, false
}

func decodeNotice(f *rawFrame) events.Event {
	switch f.NoticeType {
	case "bot_offline":
		if f.SubType == "forced" {
			return events.BotOfflineForced{}
		}
		return events.BotOffline{}
	case "bot_dropped":
		return events.BotDropped{}
	case "bot_reconnected":
		return events.BotReconnected{}
	case "friend_nick_changed":
		return events.FriendNickChanged{
			UserID: f.UserID.String(),
			Remark: f.Sender.Remark,
			Old:    f.Old,
			New:    f.New,
		}
	case "friend_recall":
		return events.FriendRecalled{Time: f.Time, OperatorID: f.OperatorID.String()}
	case "friend_input_status":
		return events.FriendInputStatus{UserID: f.UserID.String()}
	case "group_recall":
		return events.GroupRecalled{
			GroupID:      f.GroupID.String(),
			GroupName:    f.GroupName,
			OperatorName: f.Operator,
			MessageID:    f.MessageID.String(),
		}
	case "group_mute_all":
		return events.GroupMutedAll{
			GroupID:      f.GroupID.String(),
			GroupName:    f.GroupName,
			Enabled:      f.Enabled,
			OperatorName: f.Operator,
		}
	case "group_name_changed":
		return events.GroupNameChanged{
			GroupID:      f.GroupID.String(),
			Old:          f.Old,
			New:          f.New,
			OperatorName: f.Operator,
		}
	case "group_anonymous_chat":
		return events.GroupAnonymousChat{
			GroupID:      f.GroupID.String(),
			GroupName:    f.GroupName,
			Enabled:      f.Enabled,
			OperatorName: f.Operator,
		}
	case "group_member_invite":
		return events.GroupMemberInvite{
			GroupID:      f.GroupID.String(),
			GroupName:    f.GroupName,
			Enabled:      f.Enabled,
			OperatorName: f.Operator,
		}
	case "group_announcement":
		return events.GroupAnnouncementChanged{
			GroupID:      f.GroupID.String(),
			GroupName:    f.GroupName,
			Old:          f.Old,
			New:          f.New,
			OperatorName: f.Operator,
		}
	case "group_increase":
		if f.UserID.String() == f.SelfID.String() {
			return events.BotJoinedGroup{GroupID: f.GroupID.String(), GroupName: f.GroupName}
		}
		return events.MemberJoined{GroupID: f.GroupID.String()}
	case "group_decrease":
		switch f.SubType {
		case "kick_me":
			return events.BotKicked{GroupID: f.GroupID.String(), GroupName: f.GroupName}
		case "leave_me":
			return events.BotLeftGroup{GroupID: f.GroupID.String(), GroupName: f.GroupName}
		}
		return events.MemberLeft{GroupID: f.GroupID.String()}
	case "group_ban":
		if f.SubType == "ban_me" {
			return events.BotMuted{OperatorName: f.Operator, Seconds: f.Duration}
		}
		if f.SubType == "lift_ban_me" {
			return events.BotUnmuted{OperatorName: f.Operator}
		}
		return events.MemberMuted{GroupID: f.GroupID.String()}
	case "group_admin":
		return events.MemberPermissionChanged{GroupID: f.GroupID.String()}
	case "poke":
		return events.Nudge{
			FromID:   f.UserID.String(),
			TargetID: f.TargetID.String(),
			Action:   f.Action,
			Suffix:   f.Suffix,
		}
	case "client_online":
		return events.OtherClientOnline{Platform: f.Platform}
	case "client_offline":
		return events.OtherClientOffline{Platform: f.Platform}
	}
	return events.Unknown{Kind: "notice." + f.NoticeType}
}
