package room

import (
	"context"
	"fmt"
	"time"

	"github.com/DoyleJ11/take5-client/internal/engine"
	"github.com/DoyleJ11/take5-client/internal/session"
	"github.com/DoyleJ11/take5-client/internal/types"
	"github.com/DoyleJ11/take5-client/internal/view"
	wire "github.com/DoyleJ11/take5-client/pkg/types"
	"go.uber.org/zap"
)

const inboxSize = 64

type Options struct {
	Log     *zap.Logger
	Store   session.IdentityStore
	Journal Journal
	// After schedules animation timers; nil uses time.AfterFunc.
	After func(d time.Duration, f func())
	// OnEnterRoom runs on the first state push of a room. OnLeave runs after
	// the controller returned to the lobby. Both run on the controller
	// goroutine and must not block on it.
	OnEnterRoom func(roomID string)
	OnLeave     func()
}

// Controller owns the session. Every message is handled to completion, in
// arrival order, on a single goroutine.
type Controller struct {
	inbox chan Msg
	log   *zap.Logger
	opts  Options

	sess   *session.Context
	sender Sender
	lobby  Sender
	sched  *engine.Scheduler

	screen      view.Screen
	prediction  engine.Prediction
	phases      map[int]view.Phase
	transitions []engine.Transition
	alert       string
	lines       view.Log
	rooms       []wire.RoomSummary

	version int
	subs    map[string]chan view.View

	ctx    context.Context
	cancel context.CancelFunc
}

func NewController(parent context.Context, sess *session.Context, opts Options) *Controller {
	ctx, cancel := context.WithCancel(parent)
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}
	if opts.Store == nil {
		opts.Store = &session.MemoryStore{}
	}

	c := &Controller{
		inbox:      make(chan Msg, inboxSize),
		log:        opts.Log.Named("room"),
		opts:       opts,
		sess:       sess,
		sched:      engine.NewScheduler(opts.After),
		screen:     view.ScreenLobby,
		prediction: engine.Prediction{Kind: engine.PredictionNone, Row: -1},
		phases:     map[int]view.Phase{},
		subs:       make(map[string]chan view.View),
		ctx:        ctx,
		cancel:     cancel,
	}

	go c.loop()
	return c
}

// Inbox is where transports, timers and the view server post messages.
func (c *Controller) Inbox() chan<- Msg { return c.inbox }

// Post enqueues m unless the controller has stopped.
func (c *Controller) Post(m Msg) bool {
	if c.ctx.Err() != nil {
		return false
	}
	select {
	case c.inbox <- m:
		return true
	case <-c.ctx.Done():
		return false
	}
}

// Done is closed once the loop has exited.
func (c *Controller) Done() <-chan struct{} { return c.ctx.Done() }

func (c *Controller) loop() {
	for {
		select {
		case <-c.ctx.Done():
			c.shutdown()
			return

		case m := <-c.inbox:
			if _, ok := m.(Shutdown); ok {
				c.shutdown()
				return
			}
			if c.handle(m) {
				c.publish()
			}
		}
	}
}

// handle reports whether the view changed.
func (c *Controller) handle(m Msg) bool {
	switch msg := m.(type) {
	case FromServer:
		if !c.current(msg.From) {
			c.log.Debug("dropped push from closed channel", zap.String("type", fmt.Sprintf("%T", msg.In)))
			return false
		}
		return c.handleInbound(msg.In)

	case Tap:
		if !c.sess.Lock.Tap(msg.Value) {
			return false
		}
		c.predict()
		return true

	case Confirm:
		return c.confirm(msg.Origin)

	case ChooseRow:
		if c.sess.State == nil || !engine.CanChooseRow(c.sess.State.PublicState, c.sess.Identity.ID) {
			return false
		}
		c.send(types.ChooseRow(msg.Row))
		return false

	case Ready:
		c.send(types.Simple(wire.ActReady))
		return false

	case Restart:
		if !c.sess.IsOwner() {
			return false
		}
		c.send(types.Simple(wire.ActRestart))
		return false

	case ForceRestart:
		if !c.sess.IsOwner() {
			return false
		}
		c.send(types.Simple(wire.ActForceRestart))
		return false

	case Delete:
		if !c.sess.IsOwner() {
			return false
		}
		c.send(types.Simple(wire.ActDeleteRoom))
		return false

	case Leave:
		c.leave(msg.Passive)
		return true

	case DismissAlert:
		if c.alert == "" {
			return false
		}
		c.alert = ""
		return true

	case Alert:
		c.alert = msg.Text
		return true

	case Attach:
		if c.sender != nil {
			c.sender.Close()
		}
		c.sender = msg.Sender
		if c.sess.RoomID == "" && c.sess.State == nil {
			return false
		}
		// switching rooms: the next push is a fresh baseline
		c.resetRoom()
		return true

	case AttachLobby:
		c.lobby = msg.Source
		return false

	case Identify:
		err := c.sess.SetName(msg.Name)
		msg.Reply <- IdentifyReply{Identity: c.sess.Identity, Err: err}
		return false

	case Arrived:
		if _, ok := c.phases[msg.Value]; !ok {
			return false
		}
		c.phases[msg.Value] = view.PhaseLanding
		return true

	case Settled:
		if _, ok := c.phases[msg.Value]; !ok {
			return false
		}
		delete(c.phases, msg.Value)
		return true

	case Subscribe:
		select {
		case msg.Outbox <- c.build():
			c.subs[msg.ID] = msg.Outbox
		default:
			// outbox has no room for the first view
			close(msg.Outbox)
		}
		return false

	case Unsubscribe:
		if ch, ok := c.subs[msg.ID]; ok {
			close(ch)
			delete(c.subs, msg.ID)
		}
		return false

	case GetView:
		msg.Reply <- c.build()
		return false
	}
	return false
}

// current reports whether from is a channel the controller still holds.
func (c *Controller) current(from Sender) bool {
	return from != nil && (from == c.sender || from == c.lobby)
}

func (c *Controller) handleInbound(in types.Inbound) bool {
	switch m := in.(type) {
	case types.Identity:
		c.sess.Identity = m.Identity
		if err := c.opts.Store.Save(c.ctx, m.Identity); err != nil {
			c.log.Warn("persist identity", zap.Error(err))
		}
		c.log.Info("identity confirmed", zap.String("id", m.ID), zap.String("name", m.Name))
		return true

	case types.Error:
		c.alert = m.Text
		if c.sender != nil {
			c.sender.Close()
			c.sender = nil
		}
		return true

	case types.State:
		c.applyState(m.StatePayload)
		return true

	case types.Countdown:
		c.sess.Countdown = m.Count
		return true

	case types.Info:
		c.lines.Add(m.Text)
		return true

	case types.Stats:
		c.sess.Stats = m.Stats
		return true

	case types.RoomClosed:
		c.alert = "The room was closed"
		c.leave(true)
		return true

	case types.RoomList:
		c.rooms = m.Rooms
		return c.screen == view.ScreenLobby
	}
	return false
}

// applyState runs the full pipeline for one authoritative push.
func (c *Controller) applyState(st wire.StatePayload) {
	if c.sess.RoomID != "" && st.RoomID != c.sess.RoomID {
		c.log.Info("room changed", zap.String("from", c.sess.RoomID), zap.String("to", st.RoomID))
		c.resetRoom()
	}
	entering := c.screen != view.ScreenGame
	c.sess.State = &st
	c.sess.RoomID = st.RoomID
	c.sess.Countdown = 0
	c.screen = view.ScreenGame
	if entering {
		c.lobby = nil
		if c.opts.OnEnterRoom != nil {
			c.opts.OnEnterRoom(st.RoomID)
		}
	}

	ps := st.PublicState
	me, _ := c.sess.Me()
	c.sess.Lock.Reconcile(ps.Status, me.HasSelected, st.MyHand, st.MySelectedCard)
	c.predict()

	landing := engine.ComputeLanding(c.sess.Prev, ps.Rows)
	if dups := landing.DuplicateValues(); len(dups) > 0 {
		c.log.Warn("duplicate card values landed", zap.Ints("values", dups))
	}
	events := engine.DiffPlayerPlays(landing, ps.Players)
	owners := engine.OwnerMap(events)

	c.prunePhases(ps.Rows)
	layout := view.NewGridLayout(&st)
	c.transitions = c.sched.Plan(landing, owners, ps.Rows, c.sess.Identity.ID, layout, &c.sess.Origin)
	for _, tr := range c.transitions {
		if tr.Animated() {
			c.phases[tr.CardValue] = view.PhaseHidden
		}
	}
	c.sched.Start(c.transitions, c.arrived)

	for _, row := range engine.CollectedRows(c.sess.Prev, ps.Rows) {
		c.lines.Add(fmt.Sprintf("Row %d was collected", row+1))
	}
	for _, ev := range events {
		line := fmt.Sprintf("%s played %d", ev.PlayerName, ev.CardValue)
		if row, ok := engine.FindLandingRow(landing, ev.CardValue); ok {
			line += fmt.Sprintf(", landed in row %d", row+1)
		}
		c.lines.Add(line)
		if c.opts.Journal != nil {
			c.opts.Journal.Record(st.RoomID, ev)
		}
	}
	c.sess.Prev = engine.TakeSnapshot(ps)

	if ps.PendingCard != nil && ps.PendingPlayerID != "" {
		key := fmt.Sprintf("%s-%d", ps.PendingPlayerID, ps.PendingCard.Value)
		if key != c.sess.LastPendingKey {
			c.sess.LastPendingKey = key
			name := "Unknown player"
			if p, ok := ps.Players[ps.PendingPlayerID]; ok {
				name = p.Name
			}
			c.lines.Add(fmt.Sprintf("%s's card %d is waiting to be placed", name, ps.PendingCard.Value))
		}
	}

	switch {
	case ps.Status == wire.StatusFinished && !c.sess.GameOverShown:
		c.sess.GameOverShown = true
		if standings := view.Standings(ps.Players, c.sess.Identity.ID); len(standings) > 0 {
			c.lines.Add(fmt.Sprintf("Game over, %s wins with %d points", standings[0].Name, standings[0].Score))
		}
	case ps.Status != wire.StatusFinished:
		c.sess.GameOverShown = false
	}
}

// arrived runs on timer goroutines and only hands the event back to the loop.
func (c *Controller) arrived(a engine.Arrival) {
	var m Msg = Arrived{Value: a.CardValue}
	if a.Settled {
		m = Settled{Value: a.CardValue}
	}
	c.Post(m)
}

// prunePhases forgets animation state for cards no longer on the board.
func (c *Controller) prunePhases(rows []wire.Row) {
	onBoard := map[int]bool{}
	for _, r := range rows {
		for _, card := range r.Cards {
			onBoard[card.Value] = true
		}
	}
	for v := range c.phases {
		if !onBoard[v] {
			delete(c.phases, v)
		}
	}
}

func (c *Controller) predict() {
	if c.sess.State == nil {
		c.prediction = engine.Prediction{Kind: engine.PredictionNone, Row: -1}
		return
	}
	ps := c.sess.State.PublicState
	c.prediction = engine.PredictRow(c.sess.Lock.Selected(), ps.Rows, ps.Status)
}

func (c *Controller) confirm(origin *engine.Rect) bool {
	selected := c.sess.Lock.Selected()
	if selected == nil || !c.sess.Lock.CanConfirm() {
		return false
	}
	rect := origin
	if rect == nil {
		if r, ok := view.NewGridLayout(c.sess.State).HandRect(*selected); ok {
			rect = &r
		}
	}

	value, err := c.sess.Lock.Submit()
	if err != nil {
		c.log.Debug("confirm rejected", zap.Error(err))
		return false
	}
	if rect != nil {
		c.sess.Origin.Capture(*rect)
	}
	c.send(types.PlayCard(value))
	c.lines.Add(fmt.Sprintf("You played %d, waiting for the others...", value))
	return true
}

func (c *Controller) leave(passive bool) {
	if !passive {
		c.send(types.Simple(wire.ActLeaveRoom))
	}
	if c.sender != nil {
		c.sender.Close()
		c.sender = nil
	}
	c.resetRoom()
	if c.opts.OnLeave != nil {
		c.opts.OnLeave()
	}
}

// resetRoom drops everything scoped to the current room and shows the lobby.
func (c *Controller) resetRoom() {
	c.sess.ResetRoom()
	c.screen = view.ScreenLobby
	c.prediction = engine.Prediction{Kind: engine.PredictionNone, Row: -1}
	c.phases = map[int]view.Phase{}
	c.transitions = nil
}

func (c *Controller) send(a wire.Action) {
	if c.sender == nil {
		c.log.Warn("send dropped, no game channel", zap.String("type", a.Type))
		return
	}
	c.sender.Send(a)
}

func (c *Controller) build() view.View {
	return view.Build(c.sess, view.Input{
		Version:     c.version,
		Screen:      c.screen,
		Prediction:  c.prediction,
		Phases:      c.phases,
		Transitions: c.transitions,
		Alert:       c.alert,
		Log:         &c.lines,
		Rooms:       c.rooms,
	})
}

func (c *Controller) publish() {
	c.version++
	v := c.build()
	// transitions belong to the push that produced them
	c.transitions = nil
	for id, ch := range c.subs {
		select {
		case ch <- v:
		default:
			// slow subscriber
			close(ch)
			delete(c.subs, id)
		}
	}
}

func (c *Controller) shutdown() {
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	if c.sender != nil {
		c.sender.Close()
		c.sender = nil
	}
	c.cancel()
}
