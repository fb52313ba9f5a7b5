package room

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DoyleJ11/take5-client/internal/engine"
	"github.com/DoyleJ11/take5-client/internal/session"
	"github.com/DoyleJ11/take5-client/internal/types"
	"github.com/DoyleJ11/take5-client/internal/view"
	wire "github.com/DoyleJ11/take5-client/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu     sync.Mutex
	sent   []wire.Action
	closed bool
}

func (f *fakeSender) Send(a wire.Action) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, a)
}

func (f *fakeSender) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
}

func (f *fakeSender) actions() []wire.Action {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]wire.Action(nil), f.sent...)
}

func (f *fakeSender) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

type fakeTimers struct {
	mu  sync.Mutex
	fns []func()
}

func (f *fakeTimers) after(_ time.Duration, fn func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fns = append(f.fns, fn)
}

// fire runs every pending timer in scheduling order.
func (f *fakeTimers) fire() int {
	f.mu.Lock()
	fns := f.fns
	f.fns = nil
	f.mu.Unlock()
	for _, fn := range fns {
		fn()
	}
	return len(fns)
}

type fakeJournal struct {
	mu     sync.Mutex
	events []engine.PlayEvent
}

func (f *fakeJournal) Record(_ string, ev engine.PlayEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
}

// helper: receive one view with a timeout so tests never hang
func recvView(t *testing.T, ch <-chan view.View, within time.Duration) view.View {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("subscriber outbox closed unexpectedly")
		}
		return v
	case <-time.After(within):
		t.Fatalf("timed out waiting for view")
		return view.View{} // unreachable
	}
}

func getView(t *testing.T, c *Controller) view.View {
	t.Helper()
	reply := make(chan view.View, 1)
	c.Inbox() <- GetView{Reply: reply}
	return recvView(t, reply, time.Second)
}

func card(v int, owner string) wire.Card {
	return wire.Card{Value: v, Score: wire.BullheadScore(v), OwnerID: owner}
}

func statePush(rows [][]wire.Card, hand []int, players ...wire.PlayerPublic) FromServer {
	ps := wire.PublicState{Status: wire.StatusPlaying, Players: map[string]wire.PlayerPublic{}, OwnerID: "me"}
	for _, r := range rows {
		ps.Rows = append(ps.Rows, wire.Row{Cards: r})
	}
	for _, p := range players {
		ps.Players[p.ID] = p
	}
	st := wire.StatePayload{RoomID: "r1", PublicState: ps}
	for _, v := range hand {
		st.MyHand = append(st.MyHand, card(v, ""))
	}
	return FromServer{In: types.State{StatePayload: st}}
}

var (
	me  = wire.PlayerPublic{ID: "me", Name: "Me", IsOnline: true}
	bob = wire.PlayerPublic{ID: "b", Name: "Bob", IsOnline: true}
)

type harness struct {
	c       *Controller
	sender  *fakeSender
	timers  *fakeTimers
	journal *fakeJournal
	store   *session.MemoryStore
	entered []string
	left    int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	h := &harness{sender: &fakeSender{}, timers: &fakeTimers{}, journal: &fakeJournal{}, store: &session.MemoryStore{}}
	h.c = NewController(ctx, session.New(wire.Identity{ID: "me", Name: "Me"}), Options{
		Store:       h.store,
		Journal:     h.journal,
		After:       h.timers.after,
		OnEnterRoom: func(id string) { h.entered = append(h.entered, id) },
		OnLeave:     func() { h.left++ },
	})
	h.post(Attach{Sender: h.sender})
	return h
}

// post delivers m, tagging server pushes with the attached game channel.
func (h *harness) post(m Msg) {
	if fs, ok := m.(FromServer); ok && fs.From == nil {
		fs.From = h.sender
		m = fs
	}
	h.c.Inbox() <- m
}

func TestController_SubscribeThenStateBumpsVersion(t *testing.T) {
	h := newHarness(t)

	out := make(chan view.View, 4)
	h.post(Subscribe{ID: "s1", Outbox: out})
	first := recvView(t, out, 100*time.Millisecond)
	assert.Equal(t, 0, first.Version)
	assert.Equal(t, view.ScreenLobby, first.Screen)

	h.post(statePush([][]wire.Card{{card(10, "")}, {card(20, "")}, {card(30, "")}, {card(40, "")}}, []int{15, 90}, me, bob))
	next := recvView(t, out, 100*time.Millisecond)
	assert.Equal(t, 1, next.Version)
	assert.Equal(t, view.ScreenGame, next.Screen)
	assert.Equal(t, "r1", next.RoomID)
	assert.Len(t, next.Hand, 2)

	h.post(statePush([][]wire.Card{{card(10, "")}, {card(20, "")}, {card(30, "")}, {card(40, "")}}, []int{15, 90}, me, bob))
	recvView(t, out, 100*time.Millisecond)
	assert.Equal(t, []string{"r1"}, h.entered)
}

func TestController_SubmitThenOwnLandingAnimatesFromHand(t *testing.T) {
	h := newHarness(t)
	rows := [][]wire.Card{{card(10, "")}, {card(20, "")}, {card(30, "")}, {card(40, "")}}
	h.post(statePush(rows, []int{15, 90}, me, bob))

	h.post(Tap{Value: 15})
	v := getView(t, h.c)
	require.Equal(t, engine.LockCardSelected, v.Lock)
	assert.Equal(t, engine.PredictionRow, v.Prediction.Kind)
	assert.Equal(t, 0, v.Prediction.Row)

	origin := engine.Rect{Left: 500, Top: 600, Width: 50, Height: 80}
	h.post(Confirm{Origin: &origin})
	v = getView(t, h.c)
	assert.Equal(t, engine.LockConfirmPending, v.Lock)
	assert.True(t, v.HandLocked)
	require.Equal(t, []wire.Action{{Type: wire.ActPlayCard, Value: 15}}, h.sender.actions())

	// taps are ignored while the submission is pending
	h.post(Tap{Value: 90})
	v = getView(t, h.c)
	assert.True(t, v.Hand[0].Selected)
	assert.False(t, v.Hand[1].Selected)

	out := make(chan view.View, 8)
	h.post(Subscribe{ID: "s1", Outbox: out})
	recvView(t, out, 100*time.Millisecond)

	landed := [][]wire.Card{{card(10, ""), card(15, "me")}, {card(20, ""), card(25, "b")}, {card(30, "")}, {card(40, "")}}
	h.post(statePush(landed, []int{90}, me, bob))
	v = recvView(t, out, 100*time.Millisecond)

	require.Len(t, v.Transitions, 2)
	assert.Equal(t, engine.OriginSubmission, v.Transitions[0].Origin)
	assert.Equal(t, 15, v.Transitions[0].CardValue)
	assert.Equal(t, engine.OriginAvatar, v.Transitions[1].Origin)
	assert.False(t, v.Rows[0].Cards[1].Visible)
	assert.False(t, v.Rows[1].Cards[1].Visible)
	assert.Equal(t, engine.LockIdle, v.Lock)
	assert.Contains(t, v.Log, "Me played 15, landed in row 1")
	assert.Contains(t, v.Log, "Bob played 25, landed in row 2")
	assert.Len(t, h.journal.events, 2)

	// arrival, then settle, for each of the two clones
	require.Equal(t, 4, h.timers.fire())
	var last view.View
	for i := 0; i < 4; i++ {
		last = recvView(t, out, 100*time.Millisecond)
	}
	assert.True(t, last.Rows[0].Cards[1].Visible)
	assert.False(t, last.Rows[0].Cards[1].Landing)
	assert.Empty(t, last.Transitions)
}

func TestController_ServerSelectionOverridesLocalLock(t *testing.T) {
	h := newHarness(t)
	push := statePush([][]wire.Card{{card(10, "")}}, []int{15, 90}, me)
	st := push.In.(types.State)
	sel := 90
	st.MySelectedCard = &sel
	push.In = st
	h.post(push)

	v := getView(t, h.c)
	assert.Equal(t, engine.LockConfirmPending, v.Lock)
	assert.True(t, v.Hand[1].Selected)
	assert.False(t, v.CanConfirm)
}

func TestController_PendingPlayLoggedOnce(t *testing.T) {
	h := newHarness(t)
	push := func() FromServer {
		p := statePush([][]wire.Card{{card(10, "")}}, nil, me, bob)
		st := p.In.(types.State)
		st.PublicState.Status = wire.StatusChoosingRow
		st.PublicState.PendingPlayerID = "b"
		pc := card(3, "b")
		st.PublicState.PendingCard = &pc
		p.In = st
		return p
	}
	h.post(push())
	h.post(push())

	v := getView(t, h.c)
	count := 0
	for _, l := range v.Log {
		if l == "Bob's card 3 is waiting to be placed" {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, "Waiting for Bob to pick a row...", v.Instruction)

	// not my turn to pick
	h.post(ChooseRow{Row: 0})
	getView(t, h.c)
	assert.Empty(t, h.sender.actions())
}

func TestController_ChooseRowWhenPending(t *testing.T) {
	h := newHarness(t)
	p := statePush([][]wire.Card{{card(10, "")}, {card(20, "")}}, nil, me)
	st := p.In.(types.State)
	st.PublicState.Status = wire.StatusChoosingRow
	st.PublicState.PendingPlayerID = "me"
	p.In = st
	h.post(p)
	h.post(ChooseRow{Row: 0})
	getView(t, h.c)

	require.Equal(t, []wire.Action{{Type: wire.ActChooseRow, Value: 0}}, h.sender.actions())
}

func TestController_ErrorAlertsAndClosesChannel(t *testing.T) {
	h := newHarness(t)
	h.post(FromServer{In: types.Error{Text: "room full"}})

	v := getView(t, h.c)
	assert.Equal(t, "room full", v.Alert)
	assert.Equal(t, view.ScreenLobby, v.Screen)
	assert.True(t, h.sender.isClosed())

	h.post(DismissAlert{})
	assert.Empty(t, getView(t, h.c).Alert)
}

func TestController_RoomClosedReturnsToLobbyPassively(t *testing.T) {
	h := newHarness(t)
	h.post(statePush([][]wire.Card{{card(10, "")}}, []int{15}, me))
	h.post(FromServer{In: types.RoomClosed{}})

	v := getView(t, h.c)
	assert.Equal(t, view.ScreenLobby, v.Screen)
	assert.Empty(t, v.RoomID)
	assert.NotEmpty(t, v.Alert)
	assert.True(t, h.sender.isClosed())
	assert.Empty(t, h.sender.actions())
	assert.Equal(t, 1, h.left)
}

func TestController_LeaveSendsLeaveRoom(t *testing.T) {
	h := newHarness(t)
	h.post(statePush([][]wire.Card{{card(10, "")}}, []int{15}, me))
	h.post(Leave{})
	getView(t, h.c)

	require.Equal(t, []wire.Action{{Type: wire.ActLeaveRoom}}, h.sender.actions())
	assert.Equal(t, 1, h.left)
}

func TestController_OwnerOnlyActions(t *testing.T) {
	h := newHarness(t)
	p := statePush([][]wire.Card{{card(10, "")}}, nil, me)
	st := p.In.(types.State)
	st.PublicState.OwnerID = "b"
	p.In = st
	h.post(p)
	h.post(Delete{})
	h.post(Restart{})
	h.post(Ready{})
	getView(t, h.c)

	require.Equal(t, []wire.Action{{Type: wire.ActReady}}, h.sender.actions())
}

func TestController_IdentityAdoptedAndSaved(t *testing.T) {
	h := newHarness(t)
	h.post(FromServer{In: types.Identity{Identity: wire.Identity{ID: "user_7", Name: "Me"}}})

	v := getView(t, h.c)
	assert.Equal(t, "user_7", v.Me.ID)
	saved, err := h.store.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "user_7", saved.ID)
}

func TestController_IdentifyRejectsBlankName(t *testing.T) {
	h := newHarness(t)
	reply := make(chan IdentifyReply, 1)
	h.post(Identify{Name: "  ", Reply: reply})
	r := <-reply
	require.ErrorIs(t, r.Err, session.ErrEmptyName)

	h.post(Identify{Name: " Zed ", Reply: reply})
	r = <-reply
	require.NoError(t, r.Err)
	assert.Equal(t, "Zed", r.Identity.Name)
}

func TestController_SlowSubscriberDropped(t *testing.T) {
	h := newHarness(t)
	slow := make(chan view.View, 1)
	h.post(Subscribe{ID: "slow", Outbox: slow})
	// outbox is now full with the initial view

	h.post(FromServer{In: types.Info{Text: "hello"}})
	getView(t, h.c)

	<-slow
	_, ok := <-slow
	assert.False(t, ok, "slow subscriber should be closed")
}

func TestController_CountdownAndStats(t *testing.T) {
	h := newHarness(t)
	p := statePush([][]wire.Card{{card(10, "")}}, nil, me)
	st := p.In.(types.State)
	st.PublicState.Status = wire.StatusFinished
	p.In = st
	h.post(p)
	h.post(FromServer{In: types.Countdown{Count: 5}})
	h.post(FromServer{In: types.Stats{Stats: []wire.PlayerStat{{Name: "Me"}}}})

	v := getView(t, h.c)
	assert.Equal(t, 5, v.Countdown)
	assert.Len(t, v.Stats, 1)
	require.Len(t, v.GameOver, 1)
	assert.True(t, v.GameOver[0].Winner)
}

func TestController_ShutdownClosesSubscribers(t *testing.T) {
	h := newHarness(t)
	out := make(chan view.View, 2)
	h.post(Subscribe{ID: "s1", Outbox: out})
	recvView(t, out, 100*time.Millisecond)

	h.post(Shutdown{})
	select {
	case <-h.c.Done():
	case <-time.After(time.Second):
		t.Fatalf("controller did not stop")
	}
	_, ok := <-out
	assert.False(t, ok)
	assert.False(t, h.c.Post(Ready{}))
}

func TestController_PushAfterLeaveIsDropped(t *testing.T) {
	h := newHarness(t)
	push := statePush([][]wire.Card{{card(10, "")}}, []int{15}, me)
	h.post(push)
	h.post(Leave{})
	h.post(push)

	v := getView(t, h.c)
	assert.Equal(t, view.ScreenLobby, v.Screen)
	assert.Empty(t, v.RoomID)
	assert.Equal(t, []string{"r1"}, h.entered)
	assert.Equal(t, 1, h.left)
}

func TestController_LobbyPushesOnlyUntilRoomEntered(t *testing.T) {
	h := newHarness(t)
	lobby := &fakeSender{}
	h.post(AttachLobby{Source: lobby})

	rooms := []wire.RoomSummary{{ID: "r1", OwnerName: "ann"}}
	h.post(FromServer{From: lobby, In: types.RoomList{Rooms: rooms}})
	require.Len(t, getView(t, h.c).Rooms, 1)

	// unknown channels are ignored
	h.post(FromServer{From: &fakeSender{}, In: types.Info{Text: "stray"}})
	assert.NotContains(t, getView(t, h.c).Log, "stray")

	h.post(statePush([][]wire.Card{{card(10, "")}}, nil, me))
	h.post(FromServer{From: lobby, In: types.Info{Text: "late lobby line"}})
	assert.NotContains(t, getView(t, h.c).Log, "late lobby line")
}

func TestController_TapOutsideHandIgnored(t *testing.T) {
	h := newHarness(t)
	h.post(statePush([][]wire.Card{{card(10, "")}}, []int{30, 40}, me))
	h.post(Tap{Value: 99})
	h.post(Confirm{})

	v := getView(t, h.c)
	assert.Equal(t, engine.LockIdle, v.Lock)
	assert.False(t, v.HandLocked)
	assert.Empty(t, h.sender.actions())
}

func TestController_SubmissionIsLogged(t *testing.T) {
	h := newHarness(t)
	h.post(statePush([][]wire.Card{{card(10, "")}}, []int{30, 40}, me))
	h.post(Tap{Value: 30})
	h.post(Confirm{})

	v := getView(t, h.c)
	assert.Contains(t, v.Log, "You played 30, waiting for the others...")
}

func TestController_SwitchingRoomsStartsFromBaseline(t *testing.T) {
	h := newHarness(t)
	h.post(statePush([][]wire.Card{{card(10, "")}, {card(20, "")}}, []int{15}, me, bob))

	next := &fakeSender{}
	h.post(Attach{Sender: next})
	v := getView(t, h.c)
	assert.True(t, h.sender.isClosed())
	assert.Empty(t, v.RoomID)

	p := statePush([][]wire.Card{{card(61, "b")}, {card(70, "")}}, []int{5}, me, bob)
	st := p.In.(types.State)
	st.RoomID = "r2"
	h.post(FromServer{From: next, In: st})

	v = getView(t, h.c)
	assert.Equal(t, "r2", v.RoomID)
	for _, l := range v.Log {
		assert.NotContains(t, l, "Bob played 61")
		assert.NotContains(t, l, "was collected")
	}
	assert.Empty(t, h.journal.events)
	assert.Equal(t, []string{"r1", "r2"}, h.entered)

	// the old game channel no longer reaches the controller
	h.post(statePush([][]wire.Card{{card(10, "")}}, nil, me))
	assert.Equal(t, "r2", getView(t, h.c).RoomID)
}

func TestController_UnbufferedSubscriberDoesNotStall(t *testing.T) {
	h := newHarness(t)
	out := make(chan view.View)
	h.post(Subscribe{ID: "s1", Outbox: out})

	getView(t, h.c)
	_, ok := <-out
	assert.False(t, ok)
}
