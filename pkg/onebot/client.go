// Package onebot connects to the source platform over a OneBot-style
// WebSocket: inbound frames become bus notifications, and API calls go out
// over the same socket with echo correlation.
package onebot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"

	"github.com/tinyland-inc/bridgeclaw/pkg/bus"
)

// ErrNotConnected is returned for API calls issued while the socket is down.
var ErrNotConnected = errors.New("onebot: not connected")

const (
	defaultReconnectInterval = 5 * time.Second
	callTimeout              = 30 * time.Second
)

// Config holds the source connection settings.
type Config struct {
	WSUrl             string
	AccessToken       string
	ReconnectInterval time.Duration
}

// FileInfo is the authoritative metadata for a group file, including the
// descriptors used for the oversized-file link fallback.
type FileInfo struct {
	Name string
	Size int64
	URL  string
	MD5  string
	SHA1 string
	Path string
}

// Client maintains the source WebSocket session.
type Client struct {
	cfg Config
	bus *bus.Bus
	log zerolog.Logger

	mu      sync.Mutex
	conn    *websocket.Conn
	pending map[string]chan []byte

	dial func(ctx context.Context, url string, header http.Header) (*websocket.Conn, error)
}

// NewClient creates a Client publishing notifications to b.
func NewClient(cfg Config, b *bus.Bus, log zerolog.Logger) *Client {
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = defaultReconnectInterval
	}
	return &Client{
		cfg:     cfg,
		bus:     b,
		log:     log,
		pending: make(map[string]chan []byte),
		dial: func(ctx context.Context, url string, header http.Header) (*websocket.Conn, error) {
			conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, header)
			if resp != nil && resp.Body != nil {
				resp.Body.Close()
			}
			return conn, err
		},
	}
}

// Run connects and reads frames until ctx is cancelled, reconnecting on
// connection loss. The first successful connect publishes a BotOnline-style
// event from the platform itself, so Run adds nothing of its own.
func (c *Client) Run(ctx context.Context) {
	for {
		if err := c.connectAndRead(ctx); err != nil {
			c.log.Warn().Err(err).Dur("retry_in", c.cfg.ReconnectInterval).
				Msg("source connection lost")
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(c.cfg.ReconnectInterval):
		}
	}
}

func (c *Client) connectAndRead(ctx context.Context) error {
	header := http.Header{}
	if c.cfg.AccessToken != "" {
		header.Set("Authorization", "Bearer "+c.cfg.AccessToken)
	}
	conn, err := c.dial(ctx, c.cfg.WSUrl, header)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.cfg.WSUrl, err)
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	c.log.Info().Str("url", c.cfg.WSUrl).Msg("source connected")

	defer func() {
		c.mu.Lock()
		c.conn = nil
		for echo, ch := range c.pending {
			close(ch)
			delete(c.pending, echo)
		}
		c.mu.Unlock()
		conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		c.handleFrame(ctx, raw)
	}
}

func (c *Client) handleFrame(ctx context.Context, raw []byte) {
	if echo := gjson.GetBytes(raw, "echo"); echo.Exists() && echo.String() != "" {
		c.resolvePending(echo.String(), raw)
		return
	}
	n, ok := decodeNotification(raw)
	if !ok {
		return
	}
	if err := c.bus.Publish(ctx, n); err != nil {
		c.log.Warn().Err(err).Msg("dropping inbound notification")
	}
}

func (c *Client) resolvePending(echo string, raw []byte) {
	c.mu.Lock()
	ch, ok := c.pending[echo]
	if ok {
		delete(c.pending, echo)
	}
	c.mu.Unlock()
	if ok {
		ch <- raw
		close(ch)
	}
}

// call issues an API action and waits for the echo-correlated response.
func (c *Client) call(ctx context.Context, action string, params any) (gjson.Result, error) {
	echo := uuid.New().String()
	frame, err := json.Marshal(map[string]any{
		"action": action,
		"params": params,
		"echo":   echo,
	})
	if err != nil {
		return gjson.Result{}, fmt.Errorf("marshal %s: %w", action, err)
	}

	ch := make(chan []byte, 1)
	c.mu.Lock()
	conn := c.conn
	if conn == nil {
		c.mu.Unlock()
		return gjson.Result{}, ErrNotConnected
	}
	c.pending[echo] = ch
	err = conn.WriteMessage(websocket.TextMessage, frame)
	c.mu.Unlock()
	if err != nil {
		c.dropPending(echo)
		return gjson.Result{}, fmt.Errorf("write %s: %w", action, err)
	}

	timer := time.NewTimer(callTimeout)
	defer timer.Stop()
	select {
	case raw, ok := <-ch:
		if !ok {
			return gjson.Result{}, ErrNotConnected
		}
		if retcode := gjson.GetBytes(raw, "retcode").Int(); retcode != 0 {
			return gjson.Result{}, fmt.Errorf("onebot: %s failed: retcode %d: %s",
				action, retcode, gjson.GetBytes(raw, "message").String())
		}
		return gjson.GetBytes(raw, "data"), nil
	case <-timer.C:
		c.dropPending(echo)
		return gjson.Result{}, fmt.Errorf("onebot: %s timed out", action)
	case <-ctx.Done():
		c.dropPending(echo)
		return gjson.Result{}, ctx.Err()
	}
}

func (c *Client) dropPending(echo string) {
	c.mu.Lock()
	delete(c.pending, echo)
	c.mu.Unlock()
}

// GetGroupFile resolves the metadata of a group file. The URL it returns is
// short-lived; callers fetch promptly.
func (c *Client) GetGroupFile(ctx context.Context, groupID, fileID string) (*FileInfo, error) {
	data, err := c.call(ctx, "get_file_info", map[string]any{
		"group_id": groupID,
		"file_id":  fileID,
	})
	if err != nil {
		return nil, err
	}
	return &FileInfo{
		Name: data.Get("name").String(),
		Size: data.Get("size").Int(),
		URL:  data.Get("url").String(),
		MD5:  data.Get("md5").String(),
		SHA1: data.Get("sha1").String(),
		Path: data.Get("path").String(),
	}, nil
}

// SendPrivateMessage sends a plain-text direct message on the source side.
func (c *Client) SendPrivateMessage(ctx context.Context, userID, text string) error {
	_, err := c.call(ctx, "send_private_msg", map[string]any{
		"user_id": userID,
		"message": text,
	})
	return err
}

// ApproveGroupInvitation accepts a pending group-invitation request.
func (c *Client) ApproveGroupInvitation(ctx context.Context, eventID string) error {
	_, err := c.call(ctx, "set_group_add_request", map[string]any{
		"flag":     eventID,
		"sub_type": "invite",
		"approve":  true,
	})
	return err
}
