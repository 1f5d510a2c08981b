package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/vtree/pkg/hosttree"
	"github.com/vango-dev/vtree/pkg/protocol"
	"github.com/vango-dev/vtree/pkg/telemetry"
	"github.com/vango-dev/vtree/pkg/vdom"
)

// ErrNoListeners is reported to the client when an event names a node with
// no handler for it.
var ErrNoListeners = errors.New("server: no listeners for event")

// View renders the current state of one session.
type View func() *vdom.VNode

// App creates the view for a new session. Per-session state lives in the
// closure; event handlers mutate it and the session re-renders afterwards.
type App func(s *Session) View

// Session is one live connection. The session renders into a server-side
// host tree and streams every pass to the client as a mutation batch.
type Session struct {
	ID string

	conn   *websocket.Conn
	config *Config
	logger *slog.Logger

	metrics *telemetry.Metrics

	// mu serializes render passes, event dispatch and writes.
	mu       sync.Mutex
	tree     *hosttree.Tree
	root     vdom.Handle
	recorder *protocol.Recorder
	renderer *telemetry.Renderer
	view     View
	seq      uint64

	closed    atomic.Bool
	done      chan struct{}
	onClose   func(*Session)
	createdAt time.Time
}

func newSession(conn *websocket.Conn, cfg *Config, logger *slog.Logger, m *telemetry.Metrics, opts []telemetry.TracingOption) *Session {
	tree := hosttree.New()
	recorder := protocol.NewRecorder(tree)
	id := generateSessionID()

	opts = append([]telemetry.TracingOption{telemetry.WithMetrics(m)}, opts...)
	return &Session{
		ID:        id,
		conn:      conn,
		config:    cfg,
		logger:    logger.With("session_id", id),
		metrics:   m,
		tree:      tree,
		root:      tree.NewRoot("body"),
		recorder:  recorder,
		renderer:  telemetry.NewRenderer(recorder, opts...),
		done:      make(chan struct{}),
		createdAt: time.Now(),
	}
}

// Root returns the handle of the session's render container.
func (s *Session) Root() vdom.Handle {
	return s.root
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// IsClosed reports whether the session has ended.
func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// HTML returns the current server-side markup of the container.
func (s *Session) HTML() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.InnerHTML(s.root)
}

// Render runs a render pass and sends the resulting batch.
func (s *Session) Render(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.renderLocked(ctx)
}

func (s *Session) renderLocked(ctx context.Context) error {
	if s.view == nil {
		return nil
	}
	err := s.renderer.Render(ctx, s.view(), s.root)

	// Partial passes still changed the host; the client must see them.
	if muts := s.recorder.Take(); len(muts) > 0 {
		s.seq++
		if werr := s.writeFrame((&protocol.Batch{Seq: s.seq, Mutations: muts}).Frame()); werr != nil {
			return werr
		}
	}
	s.tree.Collect()

	if err != nil {
		s.logger.Error("render failed", "error", err)
		s.sendError(protocol.NewError(protocol.ErrRenderFailed, err.Error()))
		return err
	}
	return nil
}

// handleEvent dispatches a client event to the handlers on the named node
// and re-renders.
func (s *Session) handleEvent(ctx context.Context, ev *protocol.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.dispatch(ev)
	s.metrics.ObserveEvent(err)
	if err != nil {
		code := protocol.ErrHandlerFailed
		if errors.Is(err, ErrNoListeners) || errors.Is(err, hosttree.ErrUnknownHandle) || errors.Is(err, hosttree.ErrNotElement) {
			code = protocol.ErrUnknownTarget
		}
		s.logger.Warn("event failed", "node", ev.Node, "event", ev.Name, "error", err)
		s.sendError(protocol.NewError(code, err.Error()))
	}

	// Handlers may have changed state even when a later one failed.
	s.renderLocked(ctx)
}

func (s *Session) dispatch(ev *protocol.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("handler panic", "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	n, err := s.tree.Dispatch(ev.Node, ev.Name, ev.Value)
	if err == nil && n == 0 {
		err = fmt.Errorf("%w: %s on #%d", ErrNoListeners, ev.Name, ev.Node)
	}
	return err
}

// readLoop reads frames until the connection fails or the session closes.
func (s *Session) readLoop(ctx context.Context) {
	defer s.Close()

	for {
		if s.config.ReadTimeout > 0 {
			s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
		}
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.logger.Warn("frame decode error", "error", err)
			s.withLock(func() { s.sendError(protocol.NewError(protocol.ErrInvalidFrame, err.Error())) })
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			ev, err := protocol.DecodeEvent(frame.Payload)
			if err != nil {
				s.withLock(func() { s.sendError(protocol.NewError(protocol.ErrInvalidEvent, err.Error())) })
				continue
			}
			s.handleEvent(ctx, ev)
		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type)
			s.withLock(func() {
				s.sendError(protocol.NewError(protocol.ErrInvalidFrame, "unexpected frame "+frame.Type.String()))
			})
		}
	}
}

func (s *Session) withLock(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn()
}

// sendError writes an error frame. Caller holds mu.
func (s *Session) sendError(em *protocol.ErrorMessage) {
	if err := s.writeFrame(em.Frame()); err != nil {
		s.logger.Debug("error frame not sent", "error", err)
	}
}

// writeFrame writes one frame. Caller holds mu.
func (s *Session) writeFrame(f *protocol.Frame) error {
	if s.closed.Load() {
		return websocket.ErrCloseSent
	}
	if s.config.WriteTimeout > 0 {
		s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, f.Encode()); err != nil {
		s.logger.Error("write error", "error", err)
		return err
	}
	s.metrics.FrameSent()
	return nil
}

// Close ends the session. It is safe to call more than once.
func (s *Session) Close() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	close(s.done)
	s.conn.Close()
	s.metrics.SessionClosed()
	if s.onClose != nil {
		s.onClose(s)
	}
	s.logger.Info("session closed", "duration", time.Since(s.createdAt))
}

func generateSessionID() string {
	b := make([]byte, 16)
	rand.Read(b)
	return hex.EncodeToString(b)
}
