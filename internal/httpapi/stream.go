package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/DoyleJ11/take5-client/internal/engine"
	"github.com/DoyleJ11/take5-client/internal/room"
	"github.com/DoyleJ11/take5-client/internal/view"
	wire "github.com/DoyleJ11/take5-client/pkg/types"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	streamWriteTimeout = 3 * time.Second
	streamOutbox       = 8
)

// UIMessage is what a front end sends over the view stream.
type UIMessage struct {
	Type   string       `json:"type"`
	Value  int          `json:"value"`
	Origin *engine.Rect `json:"origin,omitempty"`
}

// ViewStream pushes every published view to the socket and turns inbound UI
// messages into controller messages.
func ViewStream(b Backend, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: []string{"localhost:*", "127.0.0.1:*"},
		})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		ctrl := b.Controller()
		out := make(chan view.View, streamOutbox)
		subID := uuid.NewString()
		if !ctrl.Post(room.Subscribe{ID: subID, Outbox: out}) {
			return
		}
		defer ctrl.Post(room.Unsubscribe{ID: subID})

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			defer writeCancel()
			for v := range out {
				payload, err := json.Marshal(v)
				if err != nil {
					log.Error("encode view", zap.Error(err))
					continue
				}
				ctx, cancel := context.WithTimeout(writeCtx, streamWriteTimeout)
				err = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
				if err != nil {
					return
				}
			}
			// outbox closed: the controller dropped us or stopped
			_ = conn.Close(websocket.StatusTryAgainLater, "view stream dropped")
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(writeCtx)
			if err != nil {
				return
			}

			var m UIMessage
			if err := json.Unmarshal(data, &m); err != nil {
				writeStreamError(writeCtx, conn, "bad json")
				continue
			}
			if m.Type == "leave" {
				b.LeaveRoom(false)
				continue
			}
			msg, err := toRoomMsg(m)
			if err != nil {
				writeStreamError(writeCtx, conn, err.Error())
				continue
			}
			if !ctrl.Post(msg) {
				return
			}
		}
	}
}

var (
	errUnknownType = errors.New("unknown type")
	errBadValue    = errors.New("value out of range")
)

func toRoomMsg(m UIMessage) (room.Msg, error) {
	switch m.Type {
	case "tap":
		if !wire.ValidCard(m.Value) {
			return nil, errBadValue
		}
		return room.Tap{Value: m.Value}, nil
	case "play":
		return room.Confirm{Origin: m.Origin}, nil
	case "choose_row":
		if !wire.ValidRow(m.Value) {
			return nil, errBadValue
		}
		return room.ChooseRow{Row: m.Value}, nil
	case "ready":
		return room.Ready{}, nil
	case "restart":
		return room.Restart{}, nil
	case "force_restart":
		return room.ForceRestart{}, nil
	case "delete":
		return room.Delete{}, nil
	case "dismiss":
		return room.DismissAlert{}, nil
	default:
		return nil, errUnknownType
	}
}

func writeStreamError(ctx context.Context, conn *websocket.Conn, text string) {
	payload, _ := json.Marshal(struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}{Type: "error", Error: text})
	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	_ = conn.Write(ctx, websocket.MessageText, payload)
}
