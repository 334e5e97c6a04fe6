// Package line bridges the LINE Messaging API into the relay's channel
// contracts: webhook parsing, reply-token replies, and pushes.
package line

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/line/line-bot-sdk-go/v7/linebot"

	"automatron/pkg/channel"
	"automatron/pkg/config"
	"automatron/pkg/reply"
)

// Placeholder shown when a reply value carries no content; the transport
// rejects empty message text.
const placeholderText = "..."

// Client wraps the LINE bot SDK. Signature verification and message
// transport are owned by the SDK; this adapter only maps between reply
// values and LINE message shapes.
type Client struct {
	bot *linebot.Client
	log *slog.Logger
}

// NewClient validates LINE configuration and constructs the adapter.
func NewClient(cfg config.LineConfig, log *slog.Logger) (*Client, error) {
	secret := strings.TrimSpace(cfg.ChannelSecret)
	token := strings.TrimSpace(cfg.ChannelAccessToken)
	if secret == "" || token == "" {
		return nil, errors.New("line.channel_secret and line.channel_access_token are required")
	}
	if log == nil {
		log = slog.Default()
	}

	bot, err := linebot.New(secret, token)
	if err != nil {
		return nil, fmt.Errorf("initialize line client: %w", err)
	}

	return &Client{
		bot: bot,
		log: log.With("component", "channel.line"),
	}, nil
}

// ParseWebhook verifies the request signature and maps message events to
// channel events. Non-message events (follows, joins) are dropped.
func (c *Client) ParseWebhook(r *http.Request) ([]channel.Event, error) {
	lineEvents, err := c.bot.ParseRequest(r)
	if err != nil {
		if errors.Is(err, linebot.ErrInvalidSignature) {
			return nil, channel.ErrInvalidSignature
		}
		return nil, fmt.Errorf("parse webhook request: %w", err)
	}

	events := make([]channel.Event, 0, len(lineEvents))
	for _, lineEvent := range lineEvents {
		if lineEvent.Type != linebot.EventTypeMessage {
			continue
		}

		event := channel.Event{
			Kind:       channel.KindOther,
			ReplyToken: lineEvent.ReplyToken,
		}
		if lineEvent.Source != nil {
			event.SenderID = lineEvent.Source.UserID
		}

		switch message := lineEvent.Message.(type) {
		case *linebot.TextMessage:
			event.Kind = channel.KindText
			event.Text = message.Text
		case *linebot.StickerMessage:
			event.Kind = channel.KindSticker
			event.StickerPackageID = message.PackageID
			event.StickerID = message.StickerID
		}

		events = append(events, event)
	}

	return events, nil
}

// Reply sends values through an event's single-use reply token.
func (c *Client) Reply(ctx context.Context, replyToken string, values ...reply.Value) error {
	if _, err := c.bot.ReplyMessage(replyToken, Messages(values...)...).WithContext(ctx).Do(); err != nil {
		c.logAPIError("reply", err)
		return fmt.Errorf("reply message: %w", err)
	}

	return nil
}

// Push sends values to a user without an inbound event.
func (c *Client) Push(ctx context.Context, to string, values ...reply.Value) error {
	if _, err := c.bot.PushMessage(to, Messages(values...)...).WithContext(ctx).Do(); err != nil {
		c.logAPIError("push", err)
		return fmt.Errorf("push message: %w", err)
	}

	return nil
}

// logAPIError surfaces the LINE API response detail that the wrapped
// error string alone would hide.
func (c *Client) logAPIError(operation string, err error) {
	var apiErr *linebot.APIError
	if errors.As(err, &apiErr) && apiErr.Response != nil {
		c.log.Error("LINE API call failed", "operation", operation, "status", apiErr.Code, "detail", apiErr.Response.Message)
		return
	}

	c.log.Error("LINE API call failed", "operation", operation, "error", err)
}

// Messages converts reply values to LINE messages. A missing or empty
// value becomes the visible placeholder.
func Messages(values ...reply.Value) []linebot.SendingMessage {
	if len(values) == 0 {
		return []linebot.SendingMessage{linebot.NewTextMessage(placeholderText)}
	}

	messages := make([]linebot.SendingMessage, 0, len(values))
	for _, value := range values {
		messages = append(messages, toMessage(value))
	}

	return messages
}

func toMessage(value reply.Value) linebot.SendingMessage {
	switch v := value.(type) {
	case reply.Text:
		if strings.TrimSpace(string(v)) == "" {
			return linebot.NewTextMessage(placeholderText)
		}
		return linebot.NewTextMessage(string(v))
	case *reply.Bubble:
		return linebot.NewFlexMessage(v.AltText(), bubbleContainer(v))
	default:
		return linebot.NewTextMessage(placeholderText)
	}
}

func bubbleContainer(b *reply.Bubble) *linebot.BubbleContainer {
	return &linebot.BubbleContainer{
		Type: linebot.FlexContainerTypeBubble,
		Styles: &linebot.BubbleStyle{
			Header: &linebot.BlockStyle{BackgroundColor: b.HeaderBackground},
		},
		Header: &linebot.BoxComponent{
			Type:   linebot.FlexComponentTypeBox,
			Layout: linebot.FlexBoxLayoutTypeVertical,
			Contents: []linebot.FlexComponent{
				&linebot.TextComponent{
					Type:   linebot.FlexComponentTypeText,
					Text:   b.Title,
					Color:  b.HeaderColor,
					Weight: linebot.FlexTextWeightTypeBold,
				},
			},
		},
		Body: &linebot.BoxComponent{
			Type:   linebot.FlexComponentTypeBox,
			Layout: linebot.FlexBoxLayoutTypeVertical,
			Contents: []linebot.FlexComponent{
				&linebot.TextComponent{
					Type: linebot.FlexComponentTypeText,
					Text: b.Body,
					Wrap: true,
					Size: linebot.FlexTextSizeType(b.TextSize),
				},
			},
		},
	}
}
