// Package channel defines the transport-neutral contracts between the
// webhook orchestrator and the chat transport adapter.
package channel

import (
	"context"
	"errors"
	"net/http"

	"automatron/pkg/reply"
)

// ErrInvalidSignature marks a webhook request that failed the
// transport's signature verification.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// EventKind discriminates inbound chat events.
type EventKind string

const (
	KindText    EventKind = "text"
	KindSticker EventKind = "sticker"
	KindOther   EventKind = "other"
)

// Event is one inbound chat message. It lives only for the duration of
// one webhook invocation and is never persisted.
type Event struct {
	Kind       EventKind
	ReplyToken string
	SenderID   string

	// Text is set for KindText.
	Text string

	// Sticker identifiers are set for KindSticker.
	StickerPackageID string
	StickerID        string
}

// Messenger delivers reply values to the chat transport, either through
// an event's single-use reply token or as an unsolicited push.
type Messenger interface {
	Reply(ctx context.Context, replyToken string, values ...reply.Value) error
	Push(ctx context.Context, to string, values ...reply.Value) error
}

// WebhookParser verifies and decodes one inbound webhook request into
// message events. Signature verification failures surface as errors.
type WebhookParser interface {
	ParseWebhook(r *http.Request) ([]Event, error)
}
