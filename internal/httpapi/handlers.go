package httpapi

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/DoyleJ11/take5-client/internal/client"
	"github.com/DoyleJ11/take5-client/internal/engine"
	"github.com/DoyleJ11/take5-client/internal/hub"
	"github.com/DoyleJ11/take5-client/internal/room"
	"github.com/DoyleJ11/take5-client/internal/session"
	"github.com/DoyleJ11/take5-client/internal/view"
	wire "github.com/DoyleJ11/take5-client/pkg/types"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	codeLength   = 6
	maxCodeTries = 8
	replyTimeout = 2 * time.Second
)

// Backend is what the view server drives. *client.Client implements it.
type Backend interface {
	Controller() *room.Controller
	Directory() *hub.Hub
	CreateRoom(ctx context.Context, name, roomID string) error
	JoinRoom(ctx context.Context, name, roomID string) error
	LeaveRoom(passive bool)
}

type roomRequest struct {
	Name   string `json:"name"`
	RoomID string `json:"roomId"`
}

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

// freshCode picks a code that is not in the current room list.
func freshCode(ctx context.Context, dir *hub.Hub) (string, error) {
	for range maxCodeTries {
		c, err := GenerateCode()
		if err != nil {
			return "", err
		}
		taken, err := dir.Listed(ctx, c)
		if err != nil {
			return "", err
		}
		if !taken {
			return c, nil
		}
	}
	return "", errors.New("no free room code")
}

func CreateRoom(b Backend, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req roomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.RoomID == "" {
			code, err := freshCode(r.Context(), b.Directory())
			if err != nil {
				log.Error("generate room code", zap.Error(err))
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			req.RoomID = code
		}

		if err := b.CreateRoom(r.Context(), req.Name, req.RoomID); err != nil {
			writeRoomError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, roomRequest{Name: req.Name, RoomID: req.RoomID})
	}
}

func JoinRoom(b Backend, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req roomRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		req.RoomID = chi.URLParam(r, "id")

		if err := b.JoinRoom(r.Context(), req.Name, req.RoomID); err != nil {
			writeRoomError(w, log, err)
			return
		}
		writeJSON(w, http.StatusAccepted, req)
	}
}

func writeRoomError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, client.ErrRoomNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, session.ErrEmptyName), errors.Is(err, client.ErrNoRoomID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Warn("room request failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusBadGateway)
	}
}

func GetView(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan view.View, 1)
		if !post(w, b, room.GetView{Reply: reply}) {
			return
		}
		select {
		case v := <-reply:
			writeJSON(w, http.StatusOK, v)
		case <-time.After(replyTimeout):
			http.Error(w, "view unavailable", http.StatusServiceUnavailable)
		}
	}
}

func GetRooms(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), replyTimeout)
		defer cancel()
		rooms, err := b.Directory().Rooms(ctx)
		if err != nil {
			http.Error(w, "rooms unavailable", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, rooms)
	}
}

func Tap(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := strconv.Atoi(chi.URLParam(r, "value"))
		if err != nil || !wire.ValidCard(v) {
			http.Error(w, "bad card value", http.StatusBadRequest)
			return
		}
		if post(w, b, room.Tap{Value: v}) {
			w.WriteHeader(http.StatusAccepted)
		}
	}
}

// Play confirms the selected card. The optional body is the card's on-screen
// rectangle at submission time.
func Play(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var origin *engine.Rect
		if r.ContentLength > 0 {
			var rect engine.Rect
			if err := json.NewDecoder(r.Body).Decode(&rect); err != nil {
				http.Error(w, "bad json", http.StatusBadRequest)
				return
			}
			origin = &rect
		}
		if post(w, b, room.Confirm{Origin: origin}) {
			w.WriteHeader(http.StatusAccepted)
		}
	}
}

func ChooseRow(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		idx, err := strconv.Atoi(chi.URLParam(r, "idx"))
		if err != nil || !wire.ValidRow(idx) {
			http.Error(w, "bad row index", http.StatusBadRequest)
			return
		}
		if post(w, b, room.ChooseRow{Row: idx}) {
			w.WriteHeader(http.StatusAccepted)
		}
	}
}

// Command posts a message that carries no request data.
func Command(b Backend, m room.Msg) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if post(w, b, m) {
			w.WriteHeader(http.StatusAccepted)
		}
	}
}

func Leave(b Backend) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.LeaveRoom(false)
		w.WriteHeader(http.StatusAccepted)
	}
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func post(w http.ResponseWriter, b Backend, m room.Msg) bool {
	if !b.Controller().Post(m) {
		http.Error(w, "client stopped", http.StatusServiceUnavailable)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
