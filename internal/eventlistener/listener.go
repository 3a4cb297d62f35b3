// internal/eventlistener/listener.go
package eventlistener

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solstrike-client/internal/blockchain/solbc"
)

// bufferedConn reads through the handshake reader, which may already hold
// the first frames sent by the server.
type bufferedConn struct {
	net.Conn
	r *bufio.Reader
}

func (c *bufferedConn) Read(p []byte) (int, error) {
	return c.r.Read(p)
}

// NewEventListener dials wsURL. Call Subscribe to start receiving the logs of
// every transaction that mentions programID.
func NewEventListener(ctx context.Context, wsURL string, programID solana.PublicKey, logger *zap.Logger, opts ...Option) (*EventListener, error) {
	el := &EventListener{
		logger:     logger.Named("event-listener"),
		wsURL:      wsURL,
		programID:  programID,
		commitment: rpc.CommitmentConfirmed,
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(el)
	}

	if err := el.connect(ctx); err != nil {
		return nil, err
	}
	return el, nil
}

func (el *EventListener) isClosed() bool {
	select {
	case <-el.done:
		return true
	default:
		return false
	}
}

// connect заменяет текущее соединение новым.
func (el *EventListener) connect(ctx context.Context) error {
	conn, br, _, err := ws.Dial(ctx, el.wsURL)
	if err != nil {
		return fmt.Errorf("dial %s: %w", el.wsURL, err)
	}
	var rw io.ReadWriter = conn
	if br != nil {
		rw = &bufferedConn{Conn: conn, r: br}
	}

	el.mu.Lock()
	defer el.mu.Unlock()
	if el.isClosed() {
		conn.Close()
		return ErrListenerClosed
	}
	if el.conn != nil {
		el.conn.Close()
		el.metrics.AddWebsocketConnections(streamLabel, -1)
	}
	el.conn = conn
	el.rw = rw
	el.metrics.AddWebsocketConnections(streamLabel, 1)
	return nil
}

// subscribe отправляет запрос logsSubscribe по текущему соединению.
func (el *EventListener) subscribe() error {
	req, err := json.Marshal(map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "logsSubscribe",
		"params": []interface{}{
			map[string]interface{}{"mentions": []string{el.programID.String()}},
			map[string]interface{}{"commitment": el.commitment},
		},
	})
	if err != nil {
		return err
	}

	el.mu.Lock()
	conn := el.conn
	el.mu.Unlock()

	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	defer conn.SetWriteDeadline(time.Time{})
	return wsutil.WriteClientText(conn, req)
}

// Subscribe starts streaming log events to handler until ctx is done or
// Close is called. A dropped connection is re-established with backoff.
func (el *EventListener) Subscribe(ctx context.Context, handler func(event LogEvent)) error {
	if el.isClosed() {
		return ErrListenerClosed
	}
	if err := el.subscribe(); err != nil {
		return fmt.Errorf("logsSubscribe: %w", err)
	}
	el.logger.Info("Subscribed to program logs",
		zap.String("program", el.programID.String()),
		zap.String("commitment", string(el.commitment)))

	go func() {
		select {
		case <-ctx.Done():
			el.Close()
		case <-el.stopped:
		}
	}()
	go el.run(ctx, handler)
	return nil
}

func (el *EventListener) run(ctx context.Context, handler func(event LogEvent)) {
	defer close(el.stopped)

	for {
		el.mu.Lock()
		rw := el.rw
		el.mu.Unlock()

		msg, _, err := wsutil.ReadServerData(rw)
		if err != nil {
			if el.isClosed() || ctx.Err() != nil {
				return
			}
			el.logger.Warn("Log stream dropped, reconnecting", zap.Error(err))
			if err := el.reconnect(ctx); err != nil {
				el.mu.Lock()
				el.err = err
				el.mu.Unlock()
				el.logger.Error("Failed to restore log stream", zap.Error(err))
				el.Close()
				return
			}
			continue
		}

		event, ok := el.parse(msg)
		if !ok {
			continue
		}
		handler(event)
	}
}

func (el *EventListener) reconnect(ctx context.Context) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = initialBackoff
	policy.MaxInterval = maxBackoff

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		if err := el.connect(ctx); err != nil {
			if el.isClosed() {
				return struct{}{}, backoff.Permanent(err)
			}
			return struct{}{}, err
		}
		return struct{}{}, el.subscribe()
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(maxAttempts))
	return err
}

// parse turns a logsNotification into a LogEvent. Subscription replies and
// malformed frames are dropped.
func (el *EventListener) parse(msg []byte) (LogEvent, bool) {
	var n notification
	if err := json.Unmarshal(msg, &n); err != nil {
		el.logger.Warn("Malformed frame", zap.Error(err), zap.Int("size", len(msg)))
		return LogEvent{}, false
	}
	if n.Error != nil {
		el.logger.Error("Subscription rejected",
			zap.Int("code", n.Error.Code),
			zap.String("message", n.Error.Message))
		return LogEvent{}, false
	}
	if n.Method != "logsNotification" {
		return LogEvent{}, false
	}

	v := n.Params.Result.Value
	return LogEvent{
		Signature:    v.Signature,
		Slot:         n.Params.Result.Context.Slot,
		Err:          v.Err,
		Logs:         v.Logs,
		Instructions: solbc.InstructionNames(v.Logs),
		ProgramData:  programData(v.Logs),
	}, true
}

func programData(logs []string) [][]byte {
	const marker = "Program data: "
	var out [][]byte
	for _, line := range logs {
		payload, ok := strings.CutPrefix(line, marker)
		if !ok {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
		if err != nil {
			continue
		}
		out = append(out, data)
	}
	return out
}

// Done is closed once the listener has been closed, either by Close, by
// cancelling the Subscribe context or by giving up on reconnecting.
func (el *EventListener) Done() <-chan struct{} {
	return el.done
}

// Err returns the error that stopped the stream, if reconnecting gave up.
func (el *EventListener) Err() error {
	el.mu.Lock()
	defer el.mu.Unlock()
	return el.err
}

// Close stops the stream. Safe to call more than once.
func (el *EventListener) Close() error {
	var err error
	el.closeOnce.Do(func() {
		el.mu.Lock()
		defer el.mu.Unlock()
		close(el.done)
		if el.conn != nil {
			err = el.conn.Close()
			el.metrics.AddWebsocketConnections(streamLabel, -1)
		}
	})
	return err
}
