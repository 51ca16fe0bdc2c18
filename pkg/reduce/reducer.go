// Package reduce collapses an ordered chain of message segments into a
// normalized Message. Reduction is pure and never fails: malformed input
// degrades into diagnostic text carried inside the result.
package reduce

import (
	"fmt"
	"strings"

	"github.com/tinyland-inc/bridgeclaw/pkg/segment"
)

// maxForwardDepth bounds recursion into nested forward bundles. The platform
// caps nesting well below this; deeper input is rendered as raw text.
const maxForwardDepth = 8

// Reduce normalizes a segment chain. groupID is the forwarding context: the
// source group the chain arrived from, used to build re-fetchable file refs.
// An empty groupID means the chain is the body of a forwarded node and its
// files cannot be reached.
func Reduce(chain []segment.Segment, groupID string) Message {
	return reduce(chain, groupID, 0)
}

// ForGroup normalizes a top-level group message chain, prefixing the group
// and sender header lines the destination reader needs for attribution.
func ForGroup(groupName, senderName, senderID string, chain []segment.Segment, groupID string) Message {
	prefix := fmt.Sprintf("[%s]\n%s (%s)\n", groupName, senderName, senderID)
	return Reduce(chain, groupID).WithHeader(prefix)
}

func forNode(node segment.ForwardNode, depth int) Message {
	prefix := fmt.Sprintf("[forwarded]\n%s (%s)\n", node.SenderName, node.SenderID)
	return reduce(node.Chain, "", depth).WithHeader(prefix)
}

func reduce(chain []segment.Segment, groupID string, depth int) Message {
	var sb, diags strings.Builder

	if len(chain) == 0 {
		diags.WriteString("parser: received an empty message\n")
		return Composite{Text: finalText(&sb, &diags)}
	}

	// Source metadata, when present, is always first. Forwarded node chains
	// legitimately have none; a top-level chain without one is malformed but
	// still processed.
	if src, ok := chain[0].(segment.Source); ok {
		fmt.Fprintf(&sb, "time: %s\n", segment.FormatTime(src.Time))
		chain = chain[1:]
	} else if groupID != "" {
		diags.WriteString("parser: warning: chain does not start with source metadata\n")
	}

	// A quote, when present, immediately follows the source metadata. Quoted
	// chains are flattened to raw text, never normalized recursively.
	if len(chain) > 0 {
		if q, ok := chain[0].(segment.Quote); ok {
			fmt.Fprintf(&sb, "quoting message from %s:\n", q.SenderID)
			for _, origin := range q.Origin {
				sb.WriteString(segment.RawText(origin))
				sb.WriteByte('\n')
			}
			sb.WriteString("quote ends\n")
			chain = chain[1:]
		}
	}

	// A forward bundle terminates the chain: anything after it mirrors
	// nothing the platform actually renders and is ignored.
	if len(chain) > 0 {
		if fwd, ok := chain[0].(segment.Forward); ok && depth < maxForwardDepth {
			sb.WriteString("[forwarded conversation below]\n")
			children := make([]Message, 0, len(fwd.Nodes))
			for _, node := range fwd.Nodes {
				children = append(children, forNode(node, depth+1))
			}
			return Forwarded{Text: finalText(&sb, &diags), Children: children}
		}
	}

	var result Composite
	picNum := 0
	for _, s := range chain {
		if segment.TextConvertible(s) {
			sb.WriteString(segment.ToText(s))
			continue
		}
		switch v := s.(type) {
		case segment.Image:
			result.Images = append(result.Images, v.URL)
			picNum++
			fmt.Fprintf(&sb, "[image %d]", picNum)
		case segment.File:
			if groupID != "" {
				result.Files = append(result.Files, FileRef{
					ID:      v.ID,
					GroupID: groupID,
					Name:    v.Name,
					Size:    v.Size,
				})
			} else {
				fmt.Fprintf(&diags,
					"file from an unknown group cannot be redelivered:\nname: %s\nid: %s\nsize: %d\n",
					v.Name, v.ID, v.Size)
			}
		default:
			sb.WriteString(segment.RawText(s))
			sb.WriteByte('\n')
		}
	}

	result.Text = finalText(&sb, &diags)
	return result
}

func finalText(sb, diags *strings.Builder) string {
	text := sb.String()
	if diags.Len() > 0 {
		if text != "" && !strings.HasSuffix(text, "\n") {
			text += "\n"
		}
		text += diags.String()
	}
	return strings.TrimRight(text, "\n")
}
