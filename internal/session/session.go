// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/unicode/norm"

	"github.com/edusphere/edusphere-tui/internal/model"
	"github.com/edusphere/edusphere-tui/internal/storage"
	"github.com/edusphere/edusphere-tui/internal/stream"
	"github.com/edusphere/edusphere-tui/internal/transcript"
	"github.com/edusphere/edusphere-tui/internal/transport"
)

// =============================================================================
// CONFIGURATION
// =============================================================================

const (
	DefaultStreamPath      = "/chat/stream"
	DefaultFallbackMessage = "Sorry, something went wrong."
	DefaultReadBufferSize  = 4096

	// RecommendationHeader correlates a turn with the last recommendation.
	RecommendationHeader = "X-Recommendation-ID"
)

// Config holds session settings.
type Config struct {
	StreamPath      string
	FallbackMessage string
	ReadBufferSize  int

	// Context supplies the recommendation correlation ID; nil disables it.
	Context ContextProvider
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		StreamPath:      DefaultStreamPath,
		FallbackMessage: DefaultFallbackMessage,
		ReadBufferSize:  DefaultReadBufferSize,
	}
}

// ContextProvider returns the current recommendation ID, if any.
type ContextProvider interface {
	RecommendationID() (string, bool)
}

// StoredContext reads the recommendation ID persisted by the api package.
type StoredContext struct {
	KV storage.KV
}

// RecommendationID returns the last_reco_id value.
func (c StoredContext) RecommendationID() (string, bool) {
	id, ok, err := c.KV.Get(storage.KeyLastRecoID)
	if err != nil || !ok || id == "" {
		return "", false
	}
	return id, true
}

// Streamer opens streaming exchanges. *transport.Client implements it.
type Streamer interface {
	Stream(ctx context.Context, env *transport.Envelope) (*transport.StreamResponse, error)
}

// =============================================================================
// SESSION
// =============================================================================

// Session runs turns of one conversation.
type Session struct {
	client  Streamer
	cfg     Config
	conv    *model.Conversation
	builder *transcript.Builder

	state atomic.Int32

	obsMu     sync.RWMutex
	observers []Observer
}

// New creates a session with an empty conversation.
func New(client Streamer, cfg Config) *Session {
	if cfg.StreamPath == "" {
		cfg.StreamPath = DefaultStreamPath
	}
	if cfg.FallbackMessage == "" {
		cfg.FallbackMessage = DefaultFallbackMessage
	}
	if cfg.ReadBufferSize <= 0 {
		cfg.ReadBufferSize = DefaultReadBufferSize
	}

	conv := model.NewConversation()
	return &Session{
		client:  client,
		cfg:     cfg,
		conv:    conv,
		builder: transcript.NewBuilder(conv),
	}
}

// State returns the current state.
func (s *Session) State() State {
	return State(s.state.Load())
}

// Conversation returns the session's conversation.
func (s *Session) Conversation() *model.Conversation {
	return s.conv
}

// Messages returns a snapshot of the conversation.
func (s *Session) Messages() []model.Message {
	return s.conv.Snapshot()
}

// Observe registers an observer.
func (s *Session) Observe(o Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, o)
}

// OnUpdate registers a snapshot callback.
func (s *Session) OnUpdate(fn func([]model.Message)) {
	s.Observe(funcObserver(fn))
}

// Reset clears the conversation. It fails with ErrBusy during a turn.
func (s *Session) Reset() error {
	// Hold Sending while clearing so no turn can start underneath.
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateSending)) {
		return ErrBusy
	}
	s.conv.Clear()
	s.state.Store(int32(StateIdle))
	s.notifyUpdate()
	return nil
}

// SendTurn appends text as a user message, streams the reply into an open
// assistant message and returns the resulting conversation.
//
// On failure the fallback apology is appended and a *TurnError returned.
// Cancelling ctx closes the partial reply, appends nothing and returns
// ctx.Err(). In every case the session is Idle again on return.
func (s *Session) SendTurn(ctx context.Context, text string) ([]model.Message, error) {
	text = norm.NFC.String(strings.TrimSpace(text))
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if !s.state.CompareAndSwap(int32(StateIdle), int32(StateSending)) {
		return nil, ErrBusy
	}
	s.notifyState(StateIdle, StateSending)
	defer s.transition(StateIdle)

	if err := s.conv.Append(model.NewUserMessage(text)); err != nil {
		return s.fail(ctx, err)
	}
	s.notifyUpdate()

	env, err := s.envelope()
	if err != nil {
		return s.fail(ctx, err)
	}

	resp, err := s.client.Stream(ctx, env)
	if err != nil {
		return s.fail(ctx, err)
	}
	defer resp.Close()

	s.transition(StateStreaming)
	if _, err := s.builder.Open(); err != nil {
		return s.fail(ctx, err)
	}
	s.notifyUpdate()

	err = s.pump(ctx, resp)
	s.builder.Close()
	if err != nil {
		return s.fail(ctx, err)
	}

	s.notifyUpdate()
	return s.conv.Snapshot(), nil
}

// envelope builds the chat request from the closed messages.
func (s *Session) envelope() (*transport.Envelope, error) {
	body := struct {
		Messages []model.WireMessage `json:"messages"`
	}{Messages: s.conv.Wire()}

	env, err := transport.JSON(http.MethodPost, s.cfg.StreamPath, body)
	if err != nil {
		return nil, err
	}
	env.WithHeader("Accept", "text/event-stream")
	if s.cfg.Context != nil {
		if id, ok := s.cfg.Context.RecommendationID(); ok {
			env.WithHeader(RecommendationHeader, id)
		}
	}
	return env, nil
}

// pump reads the body until the terminator or end of stream, applying the
// deltas of each read as one update.
func (s *Session) pump(ctx context.Context, body io.Reader) error {
	dec := stream.NewDecoder()
	buf := make([]byte, s.cfg.ReadBufferSize)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			deltas, done := stream.Texts(dec.Feed(buf[:n]))
			if len(deltas) > 0 {
				s.builder.ApplyAll(deltas)
				s.notifyUpdate()
			}
			if done {
				return nil
			}
		}

		switch {
		case readErr == nil:
			continue
		case errors.Is(readErr, io.EOF):
			if tail := dec.Finish(); tail != "" {
				log.Printf("Stream ended mid-line, discarded %d bytes", len(tail))
			}
			return nil
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			return &transport.NetworkError{Op: "read " + s.cfg.StreamPath, Err: readErr}
		}
	}
}

// fail ends a turn. Cancellation leaves the conversation as is; any other
// error appends the fallback apology.
func (s *Session) fail(ctx context.Context, err error) ([]model.Message, error) {
	if s.builder.Building() {
		s.builder.Close()
	}

	if ctx.Err() != nil {
		log.Printf("Chat turn cancelled: %v", err)
		s.notifyUpdate()
		return s.conv.Snapshot(), ctx.Err()
	}

	log.Printf("Chat turn failed: %v", err)
	s.transition(StateFailed)

	fallback := model.NewAssistantMessage(s.cfg.FallbackMessage)
	if appendErr := s.conv.Append(fallback); appendErr != nil {
		log.Printf("Chat turn: failed to append fallback: %v", appendErr)
	}
	s.notifyUpdate()
	return s.conv.Snapshot(), &TurnError{Err: err, Fallback: fallback}
}

// =============================================================================
// NOTIFICATION
// =============================================================================

func (s *Session) transition(to State) {
	from := State(s.state.Swap(int32(to)))
	if from != to {
		s.notifyState(from, to)
	}
}

func (s *Session) notifyState(from, to State) {
	for _, o := range s.snapshotObservers() {
		o.OnStateChange(from, to)
	}
}

func (s *Session) notifyUpdate() {
	observers := s.snapshotObservers()
	if len(observers) == 0 {
		return
	}
	msgs := s.conv.Snapshot()
	for _, o := range observers {
		o.OnUpdate(msgs)
	}
}

func (s *Session) snapshotObservers() []Observer {
	s.obsMu.RLock()
	defer s.obsMu.RUnlock()
	out := make([]Observer, len(s.observers))
	copy(out, s.observers)
	return out
}
