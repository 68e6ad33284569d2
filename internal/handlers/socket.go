// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nextcloud/go_live_translation/internal/constants"
	"github.com/nextcloud/go_live_translation/internal/languages"
	"github.com/nextcloud/go_live_translation/internal/notify"
	"github.com/nextcloud/go_live_translation/internal/recognition"
	"github.com/nextcloud/go_live_translation/internal/session"
	"github.com/nextcloud/go_live_translation/internal/translation"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  constants.AudioChunkSize,
	WriteBufferSize: constants.AudioChunkSize,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// socketSink queues outbound frames for the socket writer. Views and control
// replies are dropped when the client does not keep up; notifications are
// never dropped.
type socketSink struct {
	out    chan ServerMessage
	notes  *notify.Queue
	logger *slog.Logger
}

func newSocketSink(logger *slog.Logger) *socketSink {
	return &socketSink{
		out:    make(chan ServerMessage, constants.OutboundQueueSize),
		notes:  notify.NewQueue(),
		logger: logger,
	}
}

func (s *socketSink) send(msg ServerMessage) {
	select {
	case s.out <- msg:
	default:
		s.logger.Warn("socket queue full, dropping message", "type", msg.Type)
	}
}

func (s *socketSink) Publish(v session.View) {
	s.send(ServerMessage{Type: MsgView, View: &v})
}

func (s *socketSink) Notify(n notify.Notification) {
	s.notes.Push(n)
}

// SessionSocket runs one translation session for the lifetime of the socket.
// Binary frames carry audio for the recognition service; text frames carry
// ClientMessage controls.
func (h *Handler) SessionSocket(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	target := r.URL.Query().Get("target")
	for _, code := range []string{source, target} {
		if code == "" {
			continue
		}
		if _, err := languages.Normalize(code); err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid or unsupported language ID provided."})
			return
		}
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	logger := slog.With("component", "session_socket")
	sink := newSocketSink(logger)

	sess, err := h.Service.StartSession(r.Context(), source, target, sink)
	if err != nil {
		n := notify.FromError(notify.SubsystemRecognition, "Recognition", err)
		conn.SetWriteDeadline(time.Now().Add(constants.SendTimeout))
		_ = conn.WriteJSON(ServerMessage{Type: MsgNotification, Notification: &n})
		return
	}
	defer h.Service.StopSession(sess.ID())
	logger = logger.With("session_id", sess.ID())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sink.send(ServerMessage{Type: MsgSession, SessionID: sess.ID()})
	sink.Publish(sess.View())

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		h.writeLoop(ctx, conn, sink, sess.StreamDone(), logger)
	}()

	h.readLoop(ctx, conn, sess, sink, logger)
	cancel()
	<-writerDone
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, sess *session.Session, sink *socketSink, logger *slog.Logger) {
	conn.SetReadLimit(constants.MaxSocketMessageSize)
	conn.SetReadDeadline(time.Now().Add(constants.SocketPongTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(constants.SocketPongTimeout))
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("session socket read failed", "error", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(constants.SocketPongTimeout))

		switch msgType {
		case websocket.BinaryMessage:
			err := h.Service.SendAudio(ctx, sess.ID(), data)
			if errors.Is(err, recognition.ErrClosed) {
				logger.Debug("dropping audio after recognition stream ended")
			} else if err != nil {
				logger.Warn("forwarding audio failed", "error", err)
			}
		case websocket.TextMessage:
			h.handleControl(ctx, sess, sink, data, logger)
		}
	}
}

func (h *Handler) handleControl(ctx context.Context, sess *session.Session, sink *socketSink, data []byte, logger *slog.Logger) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		sink.send(ServerMessage{Type: MsgError, Error: "invalid control message"})
		return
	}

	var err error
	switch msg.Type {
	case MsgSetLanguages:
		err = sess.SetLanguages(ctx, msg.Source, msg.Target)
	case MsgSetContext:
		err = sess.SetContext(ctx, msg.Context)
	case MsgResetBackend:
		var id translation.BackendID
		if id, err = translation.ParseBackendID(msg.Backend); err == nil {
			err = sess.ResetBackend(ctx, id)
		}
	default:
		logger.Debug("ignoring control message", "type", msg.Type)
		return
	}

	if err != nil {
		logger.Warn("control message failed", "type", msg.Type, "error", err)
		sink.send(ServerMessage{Type: MsgError, Error: err.Error()})
	}
}

func (h *Handler) writeLoop(ctx context.Context, conn *websocket.Conn, sink *socketSink, streamDone <-chan struct{}, logger *slog.Logger) {
	ping := time.NewTicker(constants.SocketPingInterval)
	defer ping.Stop()

	write := func(msg ServerMessage) bool {
		conn.SetWriteDeadline(time.Now().Add(constants.SendTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			logger.Warn("session socket write failed", "error", err)
			return false
		}
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-sink.out:
			if !write(msg) {
				return
			}
		case <-sink.notes.Ready():
			for _, n := range sink.notes.Drain() {
				if !write(ServerMessage{Type: MsgNotification, Notification: &n}) {
					return
				}
			}
		case <-streamDone:
			streamDone = nil
			if !write(ServerMessage{Type: MsgStopped}) {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(constants.SendTimeout)); err != nil {
				logger.Warn("session socket ping failed", "error", err)
				return
			}
		}
	}
}
