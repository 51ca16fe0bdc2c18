// Package dispatch walks a normalized message and maps it onto destination
// sends: single photos with captions, text-plus-album pairs, streamed
// documents and reply-threaded forward bundles. All sends go through the
// resilient transport; a soft-failed anchor skips its dependents but never
// aborts sibling branches.
package dispatch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/tinyland-inc/bridgeclaw/pkg/reduce"
	"github.com/tinyland-inc/bridgeclaw/pkg/transport"
)

// Sender is the destination send capability. Implementations return the id
// of the sent message for reply threading.
type Sender interface {
	SendText(ctx context.Context, chatID int64, text string, replyTo int) (int, error)
	SendPhoto(ctx context.Context, chatID int64, url, caption string, replyTo int) (int, error)
	SendAlbum(ctx context.Context, chatID int64, urls []string, replyTo int) (int, error)
	SendDocument(ctx context.Context, chatID int64, name string, r io.Reader, caption string, replyTo int) (int, error)
}

// FileInfo is resolved group-file metadata from the source platform.
type FileInfo struct {
	Name string
	Size int64
	URL  string
	MD5  string
	SHA1 string
	Path string
}

// FileResolver fetches authoritative file metadata from the source platform.
type FileResolver func(ctx context.Context, groupID, fileID string) (*FileInfo, error)

// maxResolveAttempts bounds metadata lookups for the single-file branch.
const maxResolveAttempts = 5

// Dispatcher delivers normalized messages to one destination platform.
type Dispatcher struct {
	sender      Sender
	tp          *transport.Transport
	resolve     FileResolver
	httpClient  *http.Client
	maxFileSize int64
	log         zerolog.Logger
}

// New creates a Dispatcher. maxFileSize caps the bytes fetched per file;
// larger files degrade to a link-only notice.
func New(sender Sender, tp *transport.Transport, resolve FileResolver, maxFileSize int64, log zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		sender:      sender,
		tp:          tp,
		resolve:     resolve,
		httpClient:  &http.Client{Timeout: 5 * time.Minute},
		maxFileSize: maxFileSize,
		log:         log,
	}
}

// Deliver sends msg to chatID, threading under replyTo when non-zero.
// It reports whether the anchor message was delivered.
func (d *Dispatcher) Deliver(ctx context.Context, msg reduce.Message, chatID int64, replyTo int) bool {
	switch m := msg.(type) {
	case reduce.Forwarded:
		return d.deliverForwarded(ctx, m, chatID, replyTo)
	case reduce.Composite:
		return d.deliverComposite(ctx, m, chatID, replyTo)
	default:
		return false
	}
}

func (d *Dispatcher) deliverForwarded(ctx context.Context, m reduce.Forwarded, chatID int64, replyTo int) bool {
	anchor, ok := d.tp.Execute(ctx, "sendMessage", func(ctx context.Context) (int, error) {
		return d.sender.SendText(ctx, chatID, m.Text, replyTo)
	})
	if !ok {
		// Nothing exists to thread the children under.
		return false
	}
	for _, child := range m.Children {
		d.Deliver(ctx, child, chatID, anchor)
	}
	return true
}

func (d *Dispatcher) deliverComposite(ctx context.Context, m reduce.Composite, chatID int64, replyTo int) bool {
	var anchor int
	var ok bool

	switch {
	case len(m.Images) == 1:
		anchor, ok = d.tp.Execute(ctx, "sendPhoto", func(ctx context.Context) (int, error) {
			return d.sender.SendPhoto(ctx, chatID, m.Images[0], m.Text, replyTo)
		})
	case len(m.Images) > 1:
		anchor, ok = d.tp.Execute(ctx, "sendMessage", func(ctx context.Context) (int, error) {
			return d.sender.SendText(ctx, chatID, m.Text, replyTo)
		})
		if ok {
			if _, albumOK := d.tp.Execute(ctx, "sendMediaGroup", func(ctx context.Context) (int, error) {
				return d.sender.SendAlbum(ctx, chatID, m.Images, anchor)
			}); !albumOK {
				d.log.Warn().Int64("chat", chatID).Msg("album send failed, caption delivered without media")
			}
		}
	case len(m.Files) == 1:
		// Source file messages arrive one at a time; this branch is
		// terminal for the composite.
		return d.deliverSingleFile(ctx, m, chatID, replyTo)
	default:
		anchor, ok = d.tp.Execute(ctx, "sendMessage", func(ctx context.Context) (int, error) {
			return d.sender.SendText(ctx, chatID, m.Text, replyTo)
		})
	}

	if !ok {
		return false
	}
	d.deliverFileQueue(ctx, m.Files, chatID, anchor)
	return true
}

func (d *Dispatcher) deliverSingleFile(ctx context.Context, m reduce.Composite, chatID int64, replyTo int) bool {
	ref := m.Files[0]
	info, err := d.resolveWithRetries(ctx, ref.GroupID, ref.ID)
	if err != nil {
		d.log.Error().Str("file", ref.Name).Err(err).Msg("file metadata lookup failed")
		return d.sendFileFailure(ctx, chatID, ref, m.Text)
	}

	size := info.Size
	if size == 0 {
		size = ref.Size
	}
	if size > d.maxFileSize {
		text := fmt.Sprintf(
			"%s\nfile exceeds the auto-download limit and was not transferred:\nname: %s\nsize: %d\nurl: %s\nmd5: %s\nsha1: %s\npath: %s",
			m.Text, info.Name, size, info.URL, info.MD5, info.SHA1, info.Path)
		_, ok := d.tp.Execute(ctx, "sendMessage", func(ctx context.Context) (int, error) {
			return d.sender.SendText(ctx, chatID, text, replyTo)
		})
		return ok
	}

	body, err := d.fetch(ctx, info.URL)
	if err != nil {
		d.log.Error().Str("file", ref.Name).Err(err).Msg("file download failed")
		return d.sendFileFailure(ctx, chatID, ref, m.Text)
	}
	_, ok := d.tp.Execute(ctx, "sendDocument", func(ctx context.Context) (int, error) {
		return d.sender.SendDocument(ctx, chatID, ref.Name, bytes.NewReader(body), m.Text, replyTo)
	})
	return ok
}

// deliverFileQueue streams the remaining files as replies to the anchor, in
// original order. A file that is oversized or fails to fetch produces a
// notice and the queue moves on.
func (d *Dispatcher) deliverFileQueue(ctx context.Context, files []reduce.FileRef, chatID int64, anchor int) {
	for _, ref := range files {
		if ref.Size > d.maxFileSize {
			d.sendFileFailure(ctx, chatID, ref, "")
			continue
		}
		info, err := d.resolve(ctx, ref.GroupID, ref.ID)
		if err != nil {
			d.log.Error().Str("file", ref.Name).Err(err).Msg("file metadata lookup failed")
			d.sendFileFailure(ctx, chatID, ref, "")
			continue
		}
		body, err := d.fetch(ctx, info.URL)
		if err != nil {
			d.log.Error().Str("file", ref.Name).Err(err).Msg("file download failed")
			d.sendFileFailure(ctx, chatID, ref, "")
			continue
		}
		d.tp.Execute(ctx, "sendDocument", func(ctx context.Context) (int, error) {
			return d.sender.SendDocument(ctx, chatID, ref.Name, bytes.NewReader(body), "", anchor)
		})
	}
}

func (d *Dispatcher) sendFileFailure(ctx context.Context, chatID int64, ref reduce.FileRef, text string) bool {
	notice := fmt.Sprintf("file could not be redelivered:\nname: %s\ngroup: %s\nid: %s\nsize: %d",
		ref.Name, ref.GroupID, ref.ID, ref.Size)
	if text != "" {
		notice = text + "\n" + notice
	}
	_, ok := d.tp.Execute(ctx, "sendMessage", func(ctx context.Context) (int, error) {
		return d.sender.SendText(ctx, chatID, notice, 0)
	})
	return ok
}

func (d *Dispatcher) resolveWithRetries(ctx context.Context, groupID, fileID string) (*FileInfo, error) {
	var lastErr error
	for attempt := 0; attempt < maxResolveAttempts; attempt++ {
		info, err := d.resolve(ctx, groupID, fileID)
		if err == nil {
			return info, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

// fetch downloads a file into memory. Size is bounded by maxFileSize, so
// buffering keeps retried document sends re-readable.
func (d *Dispatcher) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, d.maxFileSize+1))
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > d.maxFileSize {
		return nil, fmt.Errorf("download %s: larger than advertised size", url)
	}
	return body, nil
}
