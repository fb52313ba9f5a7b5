package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/DoyleJ11/take5-client/internal/config"
	"github.com/DoyleJ11/take5-client/internal/hub"
	"github.com/DoyleJ11/take5-client/internal/room"
	"github.com/DoyleJ11/take5-client/internal/session"
	"github.com/DoyleJ11/take5-client/internal/types"
	"github.com/DoyleJ11/take5-client/internal/ws"
	wire "github.com/DoyleJ11/take5-client/pkg/types"
	"go.uber.org/zap"
)

var (
	ErrRoomNotFound = errors.New("room not found")
	ErrNoRoomID     = errors.New("room id required")
)

const (
	lobbyPath    = "/lobby_ws"
	gamePath     = "/ws"
	checkTimeout = 5 * time.Second
)

type Options struct {
	Config  config.Config
	Log     *zap.Logger
	Store   session.IdentityStore
	Journal room.Journal
	HTTP    *http.Client
}

// Client wires the two server channels to the room controller and directory.
// The lobby channel is open only while no room is active.
type Client struct {
	cfg  config.Config
	log  *zap.Logger
	http *http.Client

	ctrl *room.Controller
	dir  *hub.Hub

	mu    sync.Mutex
	lobby *ws.Channel

	ctx context.Context
}

func New(ctx context.Context, opts Options) (*Client, error) {
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = &session.MemoryStore{}
	}
	if opts.HTTP == nil {
		opts.HTTP = &http.Client{Timeout: checkTimeout}
	}

	sess, err := session.Restore(ctx, opts.Store, opts.Config.Name)
	if err != nil {
		return nil, err
	}

	c := &Client{
		cfg:  opts.Config,
		log:  opts.Log.Named("client"),
		http: opts.HTTP,
		dir:  hub.NewHub(ctx),
		ctx:  ctx,
	}
	c.ctrl = room.NewController(ctx, sess, room.Options{
		Log:         opts.Log,
		Store:       opts.Store,
		Journal:     opts.Journal,
		OnEnterRoom: c.onEnterRoom,
		OnLeave:     c.onLeave,
	})
	return c, nil
}

func (c *Client) Controller() *room.Controller { return c.ctrl }

func (c *Client) Directory() *hub.Hub { return c.dir }

// Start opens the lobby channel and, when configured, enters a room directly.
func (c *Client) Start(ctx context.Context) error {
	if err := c.connectLobby(ctx); err != nil {
		return err
	}
	if c.cfg.Room == "" {
		return nil
	}
	if c.cfg.Create {
		return c.CreateRoom(ctx, c.cfg.Name, c.cfg.Room)
	}
	return c.JoinRoom(ctx, c.cfg.Name, c.cfg.Room)
}

func (c *Client) CreateRoom(ctx context.Context, name, roomID string) error {
	if roomID == "" {
		return ErrNoRoomID
	}
	id, err := c.identify(ctx, name)
	if err != nil {
		return err
	}
	return c.connectGame(ctx, types.CreateRoom(id.ID, id.Name, roomID))
}

// JoinRoom checks the room exists first. A missing room leaves the client in
// the lobby with an alert.
func (c *Client) JoinRoom(ctx context.Context, name, roomID string) error {
	if roomID == "" {
		return ErrNoRoomID
	}
	id, err := c.identify(ctx, name)
	if err != nil {
		return err
	}

	exists, err := CheckRoom(ctx, c.http, c.cfg.ServerURL, roomID)
	if err != nil {
		c.ctrl.Post(room.Alert{Text: "Network error"})
		return err
	}
	if !exists {
		c.ctrl.Post(room.Alert{Text: "Room does not exist"})
		if err := c.connectLobby(ctx); err != nil {
			c.log.Warn("reconnect lobby", zap.Error(err))
		}
		return fmt.Errorf("%w: %s", ErrRoomNotFound, roomID)
	}
	return c.connectGame(ctx, types.Login(id.ID, id.Name, roomID))
}

// LeaveRoom returns to the lobby. Passive leaves do not notify the server.
func (c *Client) LeaveRoom(passive bool) {
	c.ctrl.Post(room.Leave{Passive: passive})
}

func (c *Client) Close() {
	c.ctrl.Post(room.Shutdown{})
	c.dir.Inbox() <- hub.ShutdownHub{}
	c.closeLobby()
}

func (c *Client) identify(ctx context.Context, name string) (wire.Identity, error) {
	reply := make(chan room.IdentifyReply, 1)
	if !c.ctrl.Post(room.Identify{Name: name, Reply: reply}) {
		return wire.Identity{}, context.Canceled
	}
	select {
	case r := <-reply:
		return r.Identity, r.Err
	case <-ctx.Done():
		return wire.Identity{}, ctx.Err()
	}
}

func (c *Client) connectLobby(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lobby.Open() {
		return nil
	}
	ch, err := ws.Dial(ctx, c.cfg.WebsocketURL(lobbyPath), "lobby", c.log)
	if err != nil {
		return err
	}
	c.lobby = ch
	c.ctrl.Post(room.AttachLobby{Source: ch})
	go c.pump(ch)
	return nil
}

func (c *Client) closeLobby() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lobby.Close()
	c.lobby = nil
}

// connectGame dials a fresh game channel and sends first as soon as it opens.
// The controller closes any previous game channel when the new one attaches.
func (c *Client) connectGame(ctx context.Context, first wire.Action) error {
	ch, err := ws.Dial(ctx, c.cfg.WebsocketURL(gamePath), "game", c.log)
	if err != nil {
		c.ctrl.Post(room.Alert{Text: "Could not reach the game server"})
		return err
	}
	ch.Send(first)
	c.ctrl.Post(room.Attach{Sender: ch})
	go c.pump(ch)
	return nil
}

// pump forwards every decoded message into the actors. It never mutates state.
func (c *Client) pump(ch *ws.Channel) {
	err := ch.Run(c.ctx, func(in types.Inbound) {
		if rl, ok := in.(types.RoomList); ok {
			select {
			case c.dir.Inbox() <- hub.UpdateRooms{Rooms: rl.Rooms}:
			case <-c.dir.Done():
			}
		}
		c.ctrl.Post(room.FromServer{From: ch, In: in})
	})
	if err != nil {
		c.log.Warn("channel ended", zap.Error(err))
	}
}

// onEnterRoom and onLeave run on the controller goroutine.
func (c *Client) onEnterRoom(roomID string) {
	c.log.Info("entered room", zap.String("room", roomID))
	go c.closeLobby()
}

func (c *Client) onLeave() {
	go func() {
		if err := c.connectLobby(c.ctx); err != nil {
			c.log.Warn("reconnect lobby", zap.Error(err))
		}
	}()
}
