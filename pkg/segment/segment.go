// Package segment models the message-segment chain delivered by the source
// platform. A chain is an ordered slice of Segment values; operations over
// chains dispatch on the concrete type with a mandatory fallback arm for
// segment kinds this bridge does not understand.
package segment

import (
	"fmt"
	"time"
)

// Segment is one atomic unit within an inbound message chain.
type Segment interface {
	segment()
}

// Source carries the origin metadata of a chain. When present it is always
// the first segment.
type Source struct {
	Time      int64 // unix seconds
	MessageID string
}

// Quote references an earlier message quoted by this one. The quoted chain
// is carried inline and is only ever rendered as raw text.
type Quote struct {
	SenderID string
	Origin   []Segment
}

// Forward is a bundle of forwarded messages. Platform behavior guarantees
// it is the last meaningful content of a chain.
type Forward struct {
	Nodes []ForwardNode
}

// ForwardNode is a single forwarded message with its own chain. Node chains
// never carry a Source segment and have no group context of their own.
type ForwardNode struct {
	SenderName string
	SenderID   string
	Chain      []Segment
}

// Text is a plain text run.
type Text struct {
	Text string
}

// Image references a picture by URL. Flash images arrive as the same shape.
type Image struct {
	URL   string
	ID    string
	Flash bool
}

// File references a group file. Files are re-fetched from the source group,
// so a file segment without group context cannot be redelivered.
type File struct {
	ID   string
	Name string
	Size int64
}

// At mentions a single member.
type At struct {
	Target string
}

// AtAll mentions everyone in the group.
type AtAll struct{}

// Poke is a nudge sticker.
type Poke struct {
	Name string
}

// Dice is a dice roll sticker.
type Dice struct {
	Value string
}

// Face is a built-in emoticon.
type Face struct {
	Name string
}

// MarketFace is a sticker-store emoticon.
type MarketFace struct {
	Name string
}

// Code is an inline rich-code payload.
type Code struct {
	Code string
}

// App is a structured app-share card carrying an opaque JSON payload.
type App struct {
	Content string
}

// Voice is an audio clip. Rendered as raw text only.
type Voice struct {
	URL string
	ID  string
}

// Music is a music-share card. Rendered as raw text only.
type Music struct {
	Title      string
	Brief      string
	JumpURL    string
	Summary    string
	PictureURL string
}

// XML is a legacy rich-XML payload. Rendered as raw text only.
type XML struct {
	Content string
}

// Unknown preserves a segment kind the decoder does not recognize.
type Unknown struct {
	Type string
	Raw  string
}

func (Source) segment()     {}
func (Quote) segment()      {}
func (Forward) segment()    {}
func (Text) segment()       {}
func (Image) segment()      {}
func (File) segment()       {}
func (At) segment()         {}
func (AtAll) segment()      {}
func (Poke) segment()       {}
func (Dice) segment()       {}
func (Face) segment()       {}
func (MarketFace) segment() {}
func (Code) segment()       {}
func (App) segment()        {}
func (Voice) segment()      {}
func (Music) segment()      {}
func (XML) segment()        {}
func (Unknown) segment()    {}

// RawText renders any segment as a diagnostic text line. It is the fallback
// for segment kinds that have no richer rendering, and the only rendering
// ever applied to quoted chains.
func RawText(s Segment) string {
	switch v := s.(type) {
	case Text:
		return v.Text
	case App:
		return fmt.Sprintf("app card: %s", v.Content)
	case Image:
		if v.Flash {
			return fmt.Sprintf("flash image:\nurl: %s\nid: %s", v.URL, v.ID)
		}
		return fmt.Sprintf("image:\nurl: %s\nid: %s", v.URL, v.ID)
	case File:
		return fmt.Sprintf("file:\nname: %s\nid: %s\nsize: %d", v.Name, v.ID, v.Size)
	case AtAll:
		return "@all"
	case At:
		return fmt.Sprintf("@%s", v.Target)
	case Dice:
		return fmt.Sprintf("[dice: %s]", v.Value)
	case Face:
		return fmt.Sprintf("[face: %s]", v.Name)
	case MarketFace:
		return fmt.Sprintf("[sticker: %s]", v.Name)
	case Forward:
		return fmt.Sprintf("[forward bundle of %d messages]", len(v.Nodes))
	case Poke:
		return fmt.Sprintf("[poke: %s]", v.Name)
	case Music:
		return fmt.Sprintf("music share: %s\n%s\n%s\n%s\n%s", v.Title, v.Brief, v.JumpURL, v.Summary, v.PictureURL)
	case Voice:
		return fmt.Sprintf("voice:\nurl: %s\nid: %s", v.URL, v.ID)
	case XML:
		return fmt.Sprintf("xml: %s", v.Content)
	case Code:
		return fmt.Sprintf("[code: %s]", v.Code)
	case Source:
		return fmt.Sprintf("source:\ntime: %s\nid: %s", FormatTime(v.Time), v.MessageID)
	case Quote:
		return fmt.Sprintf("quote of message by %s", v.SenderID)
	case Unknown:
		return fmt.Sprintf("[unsupported segment: %s]", v.Type)
	default:
		return "[unsupported segment]"
	}
}

// TextConvertible reports whether a segment renders inline into composite
// text instead of becoming an attachment or a diagnostic.
func TextConvertible(s Segment) bool {
	switch s.(type) {
	case Text, Poke, Dice, AtAll, At, Face, MarketFace, Code, App:
		return true
	default:
		return false
	}
}

// ToText renders a text-convertible segment inline. Callers must check
// TextConvertible first; non-convertible segments fall back to RawText.
func ToText(s Segment) string {
	switch v := s.(type) {
	case Text:
		return v.Text
	case Poke:
		return fmt.Sprintf("[poke: %s]", v.Name)
	case Dice:
		return fmt.Sprintf("[dice: %s]", v.Value)
	case AtAll:
		return "@all"
	case At:
		return fmt.Sprintf("@%s", v.Target)
	case Face:
		return fmt.Sprintf("[face: %s]", v.Name)
	case MarketFace:
		return fmt.Sprintf("[sticker: %s]", v.Name)
	case Code:
		return fmt.Sprintf("[code: %s]", v.Code)
	case App:
		return AppCardText(v)
	default:
		return RawText(s)
	}
}

// FormatTime renders a source timestamp for message headers.
func FormatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04:05 MST")
}
