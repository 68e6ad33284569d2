// SPDX-FileCopyrightText: 2026 Nextcloud GmbH and Nextcloud contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package recognition streams audio to the speech recognition service and
// hands back its raw event messages.
package recognition

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/nextcloud/go_live_translation/internal/constants"
	"github.com/nextcloud/go_live_translation/internal/languages"
	"github.com/nextcloud/go_live_translation/internal/notify"
)

var ErrClosed = errors.New("recognition stream closed")

type Client struct {
	conn     *websocket.Conn
	audio    chan []byte
	messages chan []byte
	done     chan struct{}

	mu        sync.Mutex
	err       error
	closing   bool
	closeOnce sync.Once

	logger *slog.Logger
}

// Dial opens the recognition stream for the given language code. The
// service receives both the code and its recognition locale.
func Dial(ctx context.Context, rawURL, language string, skipCertVerify bool) (*Client, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid recognition url: %v", notify.ErrConnection, err)
	}
	q := u.Query()
	q.Set("language", language)
	q.Set("locale", languages.RecognitionLocale(language))
	u.RawQuery = q.Encode()

	dialer := websocket.Dialer{
		HandshakeTimeout: constants.RecognitionHandshakeTimeout,
	}
	if u.Scheme == "wss" && skipCertVerify {
		dialer.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: websocket dial: %v", notify.ErrConnection, err)
	}

	c := &Client{
		conn:     conn,
		audio:    make(chan []byte, constants.AudioQueueSize),
		messages: make(chan []byte, constants.RecognitionQueueSize),
		done:     make(chan struct{}),
		logger:   slog.With("component", "recognition", "language", language),
	}
	go c.readLoop()
	go c.writeLoop()

	c.logger.Info("recognition stream connected")
	return c, nil
}

// Messages yields text frames in delivery order. It is closed when the
// stream ends.
func (c *Client) Messages() <-chan []byte {
	return c.messages
}

func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err is the reason the stream ended, or nil when it was closed locally.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// SendAudio queues one binary audio chunk. It blocks while the queue is full.
func (c *Client) SendAudio(ctx context.Context, chunk []byte) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	select {
	case c.audio <- chunk:
		return nil
	case <-c.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) Close() error {
	c.mu.Lock()
	c.closing = true
	c.mu.Unlock()

	c.shutdown(nil)
	return nil
}

func (c *Client) shutdown(cause error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if !c.closing && cause != nil {
			c.err = fmt.Errorf("%w: %v", notify.ErrConnection, cause)
		}
		c.mu.Unlock()

		close(c.done)
		deadline := time.Now().Add(constants.RecognitionWriteTimeout)
		_ = c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.conn.Close()

		if cause != nil {
			c.logger.Warn("recognition stream ended", "error", cause)
		} else {
			c.logger.Info("recognition stream closed")
		}
	})
}

func (c *Client) readLoop() {
	defer close(c.messages)

	for {
		msgType, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					err = nil
				}
				c.shutdown(err)
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		select {
		case c.messages <- data:
		case <-c.done:
			return
		}
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case chunk := <-c.audio:
			c.conn.SetWriteDeadline(time.Now().Add(constants.RecognitionWriteTimeout))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, chunk); err != nil {
				c.shutdown(err)
				return
			}
		}
	}
}
