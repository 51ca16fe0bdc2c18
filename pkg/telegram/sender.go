// Package telegram binds the delivery dispatcher to the Telegram Bot API.
package telegram

import (
	"context"
	"io"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/rs/zerolog"
)

// Sender issues destination sends. Every method returns the id of the sent
// message so callers can thread replies under it.
type Sender struct {
	bot *telego.Bot
	log zerolog.Logger
}

// NewSender creates a Sender for the given bot token.
func NewSender(token string, log zerolog.Logger) (*Sender, error) {
	bot, err := telego.NewBot(token, telego.WithDiscardLogger())
	if err != nil {
		return nil, err
	}
	return &Sender{bot: bot, log: log}, nil
}

// SendText sends a plain text message. replyTo of 0 means unthreaded.
func (s *Sender) SendText(ctx context.Context, chatID int64, text string, replyTo int) (int, error) {
	params := tu.Message(tu.ID(chatID), text)
	if replyTo != 0 {
		params = params.WithReplyParameters(&telego.ReplyParameters{MessageID: replyTo})
	}
	msg, err := s.bot.SendMessage(ctx, params)
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// SendPhoto sends one picture by URL with a caption.
func (s *Sender) SendPhoto(ctx context.Context, chatID int64, url, caption string, replyTo int) (int, error) {
	params := tu.Photo(tu.ID(chatID), tu.FileFromURL(url)).WithCaption(caption)
	if replyTo != 0 {
		params = params.WithReplyParameters(&telego.ReplyParameters{MessageID: replyTo})
	}
	msg, err := s.bot.SendPhoto(ctx, params)
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}

// SendAlbum sends a media group referencing pictures by URL. The returned id
// is the first message of the album.
func (s *Sender) SendAlbum(ctx context.Context, chatID int64, urls []string, replyTo int) (int, error) {
	media := make([]telego.InputMedia, 0, len(urls))
	for _, url := range urls {
		media = append(media, tu.MediaPhoto(tu.FileFromURL(url)))
	}
	params := tu.MediaGroup(tu.ID(chatID), media...)
	if replyTo != 0 {
		params = params.WithReplyParameters(&telego.ReplyParameters{MessageID: replyTo})
	}
	msgs, err := s.bot.SendMediaGroup(ctx, params)
	if err != nil {
		return 0, err
	}
	if len(msgs) == 0 {
		return 0, nil
	}
	return msgs[0].MessageID, nil
}

// SendDocument streams a file as a document attachment with a caption.
func (s *Sender) SendDocument(ctx context.Context, chatID int64, name string, r io.Reader, caption string, replyTo int) (int, error) {
	params := tu.Document(tu.ID(chatID), tu.File(tu.NameReader(r, name)))
	if caption != "" {
		params = params.WithCaption(caption)
	}
	if replyTo != 0 {
		params = params.WithReplyParameters(&telego.ReplyParameters{MessageID: replyTo})
	}
	msg, err := s.bot.SendDocument(ctx, params)
	if err != nil {
		return 0, err
	}
	return msg.MessageID, nil
}
