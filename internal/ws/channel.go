package ws

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/DoyleJ11/take5-client/internal/types"
	wire "github.com/DoyleJ11/take5-client/pkg/types"
	"github.com/coder/websocket"
	"go.uber.org/zap"
)

var ErrNotOpen = errors.New("websocket is not open")

const (
	writeTimeout = 3 * time.Second
	readLimit    = 1 << 20
)

// Channel is one persistent server connection. Sends are fire-and-forget: no
// acknowledgement, no retry, no reconnect.
type Channel struct {
	name string
	log  *zap.Logger
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
}

func Dial(ctx context.Context, url, name string, log *zap.Logger) (*Channel, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s channel: %w", name, err)
	}
	conn.SetReadLimit(readLimit)
	return &Channel{
		name: name,
		log:  log.With(zap.String("channel", name)),
		conn: conn,
	}, nil
}

func (c *Channel) Open() bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return !c.closed
}

// Send writes one action. Failures are logged locally and dropped.
func (c *Channel) Send(a wire.Action) {
	if err := c.send(a); err != nil {
		if c == nil {
			return
		}
		c.log.Warn("send dropped", zap.String("type", a.Type), zap.Error(err))
	}
}

func (c *Channel) send(a wire.Action) error {
	if !c.Open() {
		return ErrNotOpen
	}
	payload, err := types.Encode(a)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	return c.conn.Write(ctx, websocket.MessageText, payload)
}

// Run reads frames until the connection ends and hands every decoded message
// to deliver, in arrival order. Frames that fail to decode are logged and
// skipped. A clean close, or one we initiated, returns nil.
func (c *Channel) Run(ctx context.Context, deliver func(types.Inbound)) error {
	for {
		_, data, err := c.conn.Read(ctx)
		if err != nil {
			wasOpen := c.markClosed()
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				return nil
			}
			if !wasOpen || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("read %s channel: %w", c.name, err)
		}

		in, err := types.Decode(data)
		if err != nil {
			c.log.Warn("bad frame", zap.Error(err), zap.ByteString("frame", data))
			continue
		}
		deliver(in)
	}
}

func (c *Channel) Close() {
	if c == nil {
		return
	}
	if c.markClosed() {
		_ = c.conn.Close(websocket.StatusNormalClosure, "bye")
	}
}

// markClosed reports whether the channel was open before the call.
func (c *Channel) markClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	was := !c.closed
	c.closed = true
	return was
}
