// Package reply defines the transport-neutral values produced when
// handling one inbound message, before LINE-specific formatting.
package reply

import (
	"fmt"
)

// Preview text (the notification line shown outside the chat bubble) is
// capped by the transport; longer previews are cut and marked.
const (
	maxAltTextRunes = 400
	ellipsis        = "…"
)

// Default bubble style.
const (
	defaultHeaderBackground = "#353433"
	defaultHeaderColor      = "#d7fc70"
	defaultTextSize         = "xl"
)

// Error bubble style, visually distinct from ordinary bubbles.
const (
	errorHeaderBackground = "#E82822"
	errorHeaderColor      = "#ffffff"
	errorTextSize         = "sm"
)

// Value is one reply to the user: either plain Text or a styled *Bubble.
// A nil Value stands for "no content" and is rendered as a placeholder
// by the transport composer.
type Value interface {
	isValue()
}

// Text is a plain text reply.
type Text string

func (Text) isValue() {}

// Bubble is a rich card reply with a colored header and a body.
type Bubble struct {
	Title            string `json:"title"`
	Body             string `json:"text"`
	HeaderBackground string `json:"header_background,omitempty"`
	HeaderColor      string `json:"header_color,omitempty"`
	TextSize         string `json:"text_size,omitempty"`
}

func (*Bubble) isValue() {}

// NewBubble builds a bubble with the default header style.
func NewBubble(title, body string) *Bubble {
	return &Bubble{
		Title:            title,
		Body:             body,
		HeaderBackground: defaultHeaderBackground,
		HeaderColor:      defaultHeaderColor,
		TextSize:         defaultTextSize,
	}
}

// Normalize fills unset style fields with the default bubble style.
// Used for bubbles decoded from external JSON.
func (b *Bubble) Normalize() {
	if b.HeaderBackground == "" {
		b.HeaderBackground = defaultHeaderBackground
	}
	if b.HeaderColor == "" {
		b.HeaderColor = defaultHeaderColor
	}
	if b.TextSize == "" {
		b.TextSize = defaultTextSize
	}
}

// ErrorBubble converts any error into a red diagnostic card. It never
// fails, so a downstream failure always reaches the user as a visible
// reply instead of a dropped message.
func ErrorBubble(err error) *Bubble {
	body := "unknown error"
	if err != nil {
		body = fmt.Sprintf("%+v", err)
	}

	return &Bubble{
		Title:            "Error: " + errorMessage(err),
		Body:             body,
		HeaderBackground: errorHeaderBackground,
		HeaderColor:      errorHeaderColor,
		TextSize:         errorTextSize,
	}
}

func errorMessage(err error) string {
	if err == nil {
		return "unknown"
	}
	return err.Error()
}

// AltText renders the bubble's bounded preview line.
func (b *Bubble) AltText() string {
	return Truncate(fmt.Sprintf("[%s] %s", b.Title, b.Body), maxAltTextRunes)
}

// Truncate caps text at max runes; anything longer is cut five runes
// short of the cap and marked with an ellipsis.
func Truncate(text string, max int) string {
	runes := []rune(text)
	if len(runes) <= max {
		return text
	}

	cut := max - 5
	if cut < 0 {
		cut = 0
	}

	return string(runes[:cut]) + ellipsis
}
