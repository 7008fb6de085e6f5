package transport

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/matheus3301/crmchat/internal/status"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 16 << 20
)

// Options configures a websocket Client.
type Options struct {
	URL    string
	Token  string
	UserID string

	// RegisterEvent is emitted with UserID after every successful dial.
	RegisterEvent string

	InitialInterval time.Duration
	MaxInterval     time.Duration

	Dialer *websocket.Dialer
}

// Client is a reconnecting websocket Channel.
type Client struct {
	handlers

	opts    Options
	machine *status.Machine
	logger  *zap.Logger

	connMu sync.RWMutex
	conn   *websocket.Conn

	writeMu sync.Mutex

	cancel context.CancelFunc
	done   chan struct{}
}

var _ Channel = (*Client)(nil)

// NewClient creates a client; call Start or Run to connect.
func NewClient(opts Options, machine *status.Machine, logger *zap.Logger) *Client {
	if opts.Dialer == nil {
		opts.Dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 15 * time.Second,
		}
	}
	if opts.RegisterEvent == "" {
		opts.RegisterEvent = "register"
	}
	if opts.InitialInterval <= 0 {
		opts.InitialInterval = 500 * time.Millisecond
	}
	if opts.MaxInterval < opts.InitialInterval {
		opts.MaxInterval = 30 * time.Second
	}
	return &Client{
		opts:    opts,
		machine: machine,
		logger:  logger,
	}
}

// Start runs the connection loop in the background.
func (c *Client) Start(ctx context.Context) {
	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go func() {
		defer close(c.done)
		c.Run(ctx)
	}()
}

// Stop cancels the connection loop and waits for it to exit.
func (c *Client) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

// Run connects and keeps reconnecting with exponential backoff until ctx is done.
func (c *Client) Run(ctx context.Context) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.InitialInterval
	b.MaxInterval = c.opts.MaxInterval
	b.MaxElapsedTime = 0
	b.Reset()

	c.transition(status.Connecting)
	for {
		connected, err := c.session(ctx)
		if ctx.Err() != nil {
			c.transition(status.Offline)
			return
		}
		if connected {
			b.Reset()
		}
		wait := b.NextBackOff()
		c.transition(status.Reconnecting)
		c.logger.Warn("chat connection lost", zap.Error(err), zap.Duration("retry_in", wait))

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			c.transition(status.Offline)
			return
		}
		c.transition(status.Connecting)
	}
}

// session dials once and reads until the connection fails.
func (c *Client) session(ctx context.Context) (bool, error) {
	header := http.Header{}
	if c.opts.Token != "" {
		header.Set("Authorization", "Bearer "+c.opts.Token)
	}
	conn, _, err := c.opts.Dialer.DialContext(ctx, c.opts.URL, header)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// register must be the first frame: the writer is held until it is
	// out, so no Emit can slip in once Connected reports true.
	c.writeMu.Lock()
	c.setConn(conn)
	err = c.emitLocked(c.opts.RegisterEvent, []any{c.opts.UserID})
	c.writeMu.Unlock()

	stop := make(chan struct{})
	go c.keepAlive(ctx, conn, stop)
	defer func() {
		close(stop)
		c.setConn(nil)
		_ = conn.Close()
		c.dispatch(Event{Name: EventDisconnect})
	}()
	if err != nil {
		return true, fmt.Errorf("register: %w", err)
	}

	c.transition(status.Online)
	c.logger.Info("chat connection established", zap.String("url", c.opts.URL))
	c.dispatch(Event{Name: EventConnect})

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			return true, err
		}
		var evt Event
		switch mt {
		case websocket.TextMessage:
			evt, err = decodeText(data)
		case websocket.BinaryMessage:
			evt, err = decodeBinary(data)
		default:
			continue
		}
		if err != nil {
			c.logger.Warn("dropping malformed frame", zap.Error(err))
			continue
		}
		c.dispatch(evt)
	}
}

func (c *Client) keepAlive(ctx context.Context, conn *websocket.Conn, stop <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				_ = conn.Close()
				return
			}
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
			_ = conn.Close()
			return
		case <-stop:
			return
		}
	}
}

func (c *Client) transition(to status.State) {
	if c.machine == nil {
		return
	}
	if err := c.machine.Transition(to); err != nil {
		c.logger.Debug("status transition skipped", zap.Error(err))
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

func (c *Client) currentConn() *websocket.Conn {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conn
}

// Connected reports whether a connection is currently established.
func (c *Client) Connected() bool {
	return c.currentConn() != nil
}

// Emit sends a named event with JSON arguments.
func (c *Client) Emit(event string, args ...any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.emitLocked(event, args)
}

// EmitBinary sends a named event with a raw binary payload.
func (c *Client) EmitBinary(event string, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.emitBinaryLocked(event, data)
}

// Stream runs fn while holding the writer.
func (c *Client) Stream(ctx context.Context, fn func(Emitter) error) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if !c.Connected() {
		return ErrNotConnected
	}
	return fn(&lockedEmitter{ctx: ctx, c: c})
}

func (c *Client) emitLocked(event string, args []any) error {
	data, err := encodeText(event, args)
	if err != nil {
		return err
	}
	return c.writeLocked(websocket.TextMessage, data)
}

func (c *Client) emitBinaryLocked(event string, payload []byte) error {
	data, err := encodeBinary(event, payload)
	if err != nil {
		return err
	}
	return c.writeLocked(websocket.BinaryMessage, data)
}

func (c *Client) writeLocked(mt int, data []byte) error {
	conn := c.currentConn()
	if conn == nil {
		return ErrNotConnected
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(mt, data); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}

// lockedEmitter writes through a Client whose writer is already held.
type lockedEmitter struct {
	ctx context.Context
	c   *Client
}

func (e *lockedEmitter) Emit(event string, args ...any) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	return e.c.emitLocked(event, args)
}

func (e *lockedEmitter) EmitBinary(event string, data []byte) error {
	if err := e.ctx.Err(); err != nil {
		return err
	}
	return e.c.emitBinaryLocked(event, data)
}
