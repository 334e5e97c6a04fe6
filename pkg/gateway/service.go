// Package gateway hosts the relay's HTTP endpoints and orchestrates one
// webhook batch from inbound event to delivered reply.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"automatron/pkg/channel"
	"automatron/pkg/config"
	"automatron/pkg/dispatch"
	"automatron/pkg/intent"
	"automatron/pkg/reply"
)

const (
	defaultHost = "0.0.0.0"
	defaultPort = 18789
)

const (
	unauthorizedReply    = "unauthorized"
	unsupportedKindReply = "don't know how to handle this yet!"
)

// Service wires the webhook orchestrator to the chat transport and the
// command dispatcher. Events in one batch are processed strictly in
// order, each to completion, so no synchronization is needed around the
// dispatch path.
type Service struct {
	cfg        *config.Config
	log        *slog.Logger
	messenger  channel.Messenger
	parser     channel.WebhookParser
	dispatcher *dispatch.Dispatcher

	mu        sync.RWMutex
	startedAt time.Time
}

// envelope is the JSON response shape of the webhook endpoint.
type envelope struct {
	OK   bool `json:"ok"`
	Data any  `json:"data"`
}

type postRequest struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

type textRequest struct {
	Key    string `json:"key"`
	Text   string `json:"text"`
	Source string `json:"source"`
}

type textResponse struct {
	OK    bool        `json:"ok"`
	Reply reply.Value `json:"reply"`
}

// NewService constructs the relay service over its collaborators.
func NewService(cfg *config.Config, messenger channel.Messenger, parser channel.WebhookParser, dispatcher *dispatch.Dispatcher, log *slog.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if messenger == nil {
		return nil, errors.New("messenger is required")
	}
	if parser == nil {
		return nil, errors.New("webhook parser is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		cfg:        cfg,
		log:        log.With("component", "gateway.service"),
		messenger:  messenger,
		parser:     parser,
		dispatcher: dispatcher,
	}, nil
}

// Handler returns the HTTP routes. Exposed separately from Run for
// in-process testing.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook", s.handleWebhook)
	mux.HandleFunc("POST /post", s.handlePost)
	mux.HandleFunc("POST /text", s.handleText)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	return mux
}

// Run serves the relay until ctx is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()
	s.startedAt = time.Now().UTC()
	s.mu.Unlock()

	host := strings.TrimSpace(s.cfg.Gateway.Host)
	if host == "" {
		host = defaultHost
	}
	port := s.cfg.Gateway.Port
	if port <= 0 {
		port = defaultPort
	}

	addr := host + ":" + strconv.Itoa(port)
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	s.log.Info("Relay server started", "address", addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start relay server: %w", err)
	}

	return nil
}

// handleWebhook processes one inbound chat batch. Per-event dispatch
// failures become error-card replies; a failure of the reply channel
// itself aborts the batch and is reported through the push channel.
func (s *Service) handleWebhook(w http.ResponseWriter, r *http.Request) {
	events, err := s.parser.ParseWebhook(r)
	if err != nil {
		if errors.Is(err, channel.ErrInvalidSignature) {
			s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid signature"})
			return
		}
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.handleEvents(r.Context(), events); err != nil {
		s.reportFailure(r.Context(), err)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.respondJSON(w, http.StatusOK, envelope{OK: true})
}

// handleEvents runs each event fully before starting the next.
func (s *Service) handleEvents(ctx context.Context, events []channel.Event) error {
	for _, event := range events {
		if err := s.handleEvent(ctx, event); err != nil {
			return err
		}
	}

	return nil
}

// handleEvent authorizes, routes, dispatches, and replies for one event.
// The returned error is a reply-channel failure only; dispatch failures
// are converted to error cards here.
func (s *Service) handleEvent(ctx context.Context, event channel.Event) error {
	if event.SenderID != s.cfg.Line.UserID {
		s.log.Warn("Rejected message from unauthorized sender")
		return s.messenger.Reply(ctx, event.ReplyToken, reply.Text(unauthorizedReply))
	}

	switch event.Kind {
	case channel.KindText:
		return s.dispatchAndReply(ctx, event.ReplyToken, event.Text)
	case channel.KindSticker:
		token := intent.StickerToken(event.StickerPackageID, event.StickerID)
		return s.dispatchAndReply(ctx, event.ReplyToken, token)
	default:
		return s.messenger.Reply(ctx, event.ReplyToken, reply.Text(unsupportedKindReply))
	}
}

func (s *Service) dispatchAndReply(ctx context.Context, replyToken, text string) error {
	value, err := s.dispatcher.DispatchText(ctx, text)
	if err != nil {
		s.log.Error("Command dispatch failed", "error", err)
		value = reply.ErrorBubble(err)
	}

	return s.messenger.Reply(ctx, replyToken, value)
}

// handlePost pushes caller-supplied content to the authorized user.
func (s *Service) handlePost(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Key != s.cfg.API.Key {
		s.respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid API key"})
		return
	}

	value, err := decodeValue(req.Data)
	if err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if err := s.messenger.Push(r.Context(), s.cfg.Line.UserID, value); err != nil {
		s.reportFailure(r.Context(), err)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// handleText runs the command interpreter remotely: acknowledge over the
// push channel, dispatch, push the result.
func (s *Service) handleText(w http.ResponseWriter, r *http.Request) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Key != s.cfg.API.Key {
		s.respondJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid API key"})
		return
	}

	ctx := r.Context()
	userID := s.cfg.Line.UserID

	ack := fmt.Sprintf("received: %s [from %s]", req.Text, req.Source)
	if err := s.messenger.Push(ctx, userID, reply.Text(ack)); err != nil {
		s.reportFailure(ctx, err)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	value, dispatchErr := s.dispatcher.DispatchText(ctx, req.Text)
	if dispatchErr != nil {
		s.log.Error("Command dispatch failed", "error", dispatchErr)
		value = reply.ErrorBubble(dispatchErr)
	}

	if err := s.messenger.Push(ctx, userID, value); err != nil {
		s.reportFailure(ctx, err)
		s.respondJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.respondJSON(w, http.StatusOK, textResponse{OK: dispatchErr == nil, Reply: value})
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	startedAt := s.startedAt
	s.mu.RUnlock()

	uptime := int64(0)
	if !startedAt.IsZero() {
		uptime = int64(time.Since(startedAt).Seconds())
	}

	s.respondJSON(w, http.StatusOK, map[string]any{"status": "ok", "uptime_seconds": uptime})
}

// reportFailure makes one best-effort push of the error card to the
// authorized user. If the push channel itself is down, the error simply
// surfaces to the HTTP caller.
func (s *Service) reportFailure(ctx context.Context, cause error) {
	s.log.Error("Orchestrator failure", "error", cause)

	if err := s.messenger.Push(ctx, s.cfg.Line.UserID, reply.ErrorBubble(cause)); err != nil {
		s.log.Error("Failed to push failure report", "error", err)
	}
}

// decodeValue interprets the /post data payload as a reply value:
// missing/null, a plain string, or a card object.
func decodeValue(raw json.RawMessage) (reply.Value, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return reply.Text(text), nil
	}

	var bubble reply.Bubble
	if err := json.Unmarshal(raw, &bubble); err != nil {
		return nil, fmt.Errorf("data must be a string or a card object: %w", err)
	}
	bubble.Normalize()

	return &bubble, nil
}

func (s *Service) respondJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error("Failed to write response", "error", err)
	}
}
