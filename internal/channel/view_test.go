package channel

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/linen/internal/api"
	"github.com/linen/internal/model"
	"github.com/linen/internal/mutate"
	"github.com/linen/internal/push"
	"github.com/linen/internal/reaction"
	"github.com/linen/internal/realtime"
)

var base = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu      sync.Mutex
	calls   []string
	err     error
	thread  model.Thread
	message model.Message
	moved   model.Thread
	release chan struct{}
}

func (f *fakeAPI) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) SendChannelMessage(ctx context.Context, r api.ChannelMessageRequest) (api.ChannelMessageResponse, error) {
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return api.ChannelMessageResponse{}, ctx.Err()
		}
	}
	if err := f.record("send:" + r.ImitationID); err != nil {
		return api.ChannelMessageResponse{}, err
	}
	return api.ChannelMessageResponse{Thread: f.thread, ImitationID: r.ImitationID}, nil
}

func (f *fakeAPI) SendThreadMessage(ctx context.Context, r api.ThreadMessageRequest) (api.ThreadMessageResponse, error) {
	if err := f.record("reply:" + r.ThreadID); err != nil {
		return api.ThreadMessageResponse{}, err
	}
	return api.ThreadMessageResponse{Message: f.message, ImitationID: r.ImitationID}, nil
}

func (f *fakeAPI) PinThread(ctx context.Context, threadID string, pinned bool) error {
	return f.record("pin:" + threadID)
}

func (f *fakeAPI) UpdateThread(ctx context.Context, threadID string, u api.ThreadUpdate) error {
	return f.record("update:" + threadID)
}

func (f *fakeAPI) PostReaction(ctx context.Context, messageID, reactionType string, action reaction.Action) error {
	return f.record("reaction:" + messageID + ":" + string(action))
}

func (f *fakeAPI) MergeThreads(ctx context.Context, from, to string) error {
	return f.record("merge:" + from + ">" + to)
}

func (f *fakeAPI) MoveMessageToThread(ctx context.Context, messageID, threadID string) error {
	return f.record("move-message:" + messageID + ">" + threadID)
}

func (f *fakeAPI) MoveMessageToChannel(ctx context.Context, messageID, channelID string) (model.Thread, error) {
	if err := f.record("move-message-channel:" + messageID + ">" + channelID); err != nil {
		return model.Thread{}, err
	}
	return f.moved, nil
}

func (f *fakeAPI) MoveThreadToChannel(ctx context.Context, threadID, channelID string) error {
	return f.record("move-thread:" + threadID + ">" + channelID)
}

type fakeSource struct {
	mu      sync.Mutex
	deliver map[string]func([]byte)
	closed  map[string]bool
}

type fakeSub struct {
	src  *fakeSource
	name string
}

func (s fakeSub) Close() error {
	s.src.mu.Lock()
	s.src.closed[s.name] = true
	s.src.mu.Unlock()
	return nil
}

func newFakeSource() *fakeSource {
	return &fakeSource{deliver: map[string]func([]byte){}, closed: map[string]bool{}}
}

func (f *fakeSource) Subscribe(ctx context.Context, t realtime.Topic, deliver func([]byte)) (realtime.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deliver[t.Name()] = deliver
	return fakeSub{src: f, name: t.Name()}, nil
}

func (f *fakeSource) Close() error { return nil }

func (f *fakeSource) emit(t *testing.T, name string, payload []byte) {
	t.Helper()
	f.mu.Lock()
	d := f.deliver[name]
	f.mu.Unlock()
	if d == nil {
		t.Fatalf("no subscription for %s", name)
	}
	d(payload)
}

type recordingNotifier struct {
	mu   sync.Mutex
	errs []error
}

func (n *recordingNotifier) Notify(err error) {
	n.mu.Lock()
	n.errs = append(n.errs, err)
	n.mu.Unlock()
}

func (n *recordingNotifier) Errors() []error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]error(nil), n.errs...)
}

var (
	alice = model.User{ID: "u-1", AuthsID: "a-1", Username: "alice"}
	bob   = model.User{ID: "u-2", AuthsID: "a-2", Username: "bob"}
)

func newView(t *testing.T, fa *fakeAPI, src realtime.Source, n Notifier, manage bool) *View {
	t.Helper()
	v := New(Deps{API: fa, Source: src, Notifier: n}, Config{
		Channel:     model.Channel{ID: "c-1", ChannelName: "general"},
		Permissions: model.Permissions{Manage: manage, User: &alice, Auth: &model.Auth{ID: "a-1"}},
		Debounce:    5 * time.Millisecond,
	})
	t.Cleanup(func() { v.Close() })
	return v
}

func thread(id string, msgs ...model.Message) model.Thread {
	return model.Thread{ID: id, ChannelID: "c-1", State: model.ThreadStateOpen, Messages: msgs}
}

func msg(id string, min int, author string) model.Message {
	return model.Message{ID: id, UsersID: author, SentAt: base.Add(time.Duration(min) * time.Minute), Body: id}
}

func ids(ts []model.Thread) []string {
	out := make([]string, 0, len(ts))
	for _, t := range ts {
		out = append(out, t.ID)
	}
	return out
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func TestSendMessageExactlyOneEntry(t *testing.T) {
	fa := &fakeAPI{release: make(chan struct{})}
	src := newFakeSource()
	v := newView(t, fa, src, nil, false)
	if err := v.Start(context.Background()); err != nil {
		t.Fatal(err)
	}

	imitID, err := v.SendMessage(context.Background(), "hello @bob", nil)
	if err != nil {
		t.Fatal(err)
	}
	snap := v.Snapshot()
	if len(snap.Threads) != 1 || snap.Threads[0].ID != imitID {
		t.Fatalf("threads = %v", ids(snap.Threads))
	}

	confirmed := thread("t-99", msg("m-99", 0, "u-1"))
	fa.thread = confirmed

	// Сокет успевает раньше HTTP-ответа.
	inner, _ := json.Marshal(confirmed)
	payload, _ := json.Marshal(map[string]any{
		"is_thread": true, "thread_id": "t-99", "imitation_id": imitID, "thread": string(inner),
	})
	src.emit(t, "room:lobby:c-1", payload)
	v.HandleEvent(<-v.inbox.C())
	if got := ids(v.Snapshot().Threads); len(got) != 1 || got[0] != "t-99" {
		t.Fatalf("after socket: %v", got)
	}

	close(fa.release)
	v.Wait()
	if got := ids(v.Snapshot().Threads); len(got) != 1 || got[0] != "t-99" {
		t.Fatalf("after http: %v", got)
	}
}

func TestSendMessageValidation(t *testing.T) {
	v := newView(t, &fakeAPI{}, nil, nil, false)
	tests := []struct {
		name  string
		body  string
		files []model.UploadedFile
		want  error
	}{
		{"empty", "   ", nil, ErrEmptyBody},
		{"too large", "x", []model.UploadedFile{{ID: "f", Size: DefaultMaxFileSize + 1}}, ErrFileTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := v.SendMessage(context.Background(), tt.body, tt.files); !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if n := len(v.Snapshot().Threads); n != 0 {
				t.Fatalf("threads = %d", n)
			}
		})
	}

	anon := New(Deps{API: &fakeAPI{}}, Config{Channel: model.Channel{ID: "c-1"}})
	defer anon.Close()
	if _, err := anon.SendMessage(context.Background(), "hi", nil); !errors.Is(err, ErrNotSignedIn) {
		t.Fatalf("err = %v", err)
	}
}

func TestSendMessageFailureDiscardsImitation(t *testing.T) {
	fa := &fakeAPI{err: errors.New("offline")}
	n := &recordingNotifier{}
	v := newView(t, fa, nil, n, false)
	v.Load([]model.Thread{thread("t-1", msg("m-1", 0, "u-1"))}, nil)
	if _, err := v.SendMessage(context.Background(), "hello", nil); err != nil {
		t.Fatal(err)
	}
	v.Wait()
	if got := ids(v.Snapshot().Threads); len(got) != 1 || got[0] != "t-1" {
		t.Fatalf("threads = %v", got)
	}
	errs := n.Errors()
	var nerr *NetworkError
	if len(errs) != 1 || !errors.As(errs[0], &nerr) {
		t.Fatalf("notified = %v", errs)
	}
}

func TestSendReplyFailureDiscardsImitation(t *testing.T) {
	fa := &fakeAPI{err: errors.New("offline")}
	v := newView(t, fa, nil, &recordingNotifier{}, false)
	pinned := thread("t-1", msg("m-1", 0, "u-1"))
	pinned.Pinned = true
	v.Load([]model.Thread{pinned}, []model.Thread{pinned})
	if _, err := v.SendReply(context.Background(), "t-1", "reply", nil); err != nil {
		t.Fatal(err)
	}
	v.Wait()
	snap := v.Snapshot()
	if n := len(snap.Threads[0].Messages); n != 1 {
		t.Fatalf("thread messages = %d", n)
	}
	if n := len(snap.Pinned[0].Messages); n != 1 {
		t.Fatalf("pinned messages = %d", n)
	}
}

type fakePush struct {
	mu  sync.Mutex
	got []push.Mention
}

func (p *fakePush) PushUserMention(ctx context.Context, m push.Mention) error {
	p.mu.Lock()
	p.got = append(p.got, m)
	p.mu.Unlock()
	return nil
}

func TestSendReplyPushesMentions(t *testing.T) {
	confirmed := msg("m-2", 1, "u-1")
	confirmed.Body = "ping !bob"
	confirmed.Mentions = []model.User{bob}
	fa := &fakeAPI{message: confirmed}
	fp := &fakePush{}
	v := New(Deps{API: fa, Push: fp}, Config{
		Channel:     model.Channel{ID: "c-1"},
		Permissions: model.Permissions{User: &alice},
		Debounce:    5 * time.Millisecond,
	})
	defer v.Close()
	v.Load([]model.Thread{thread("t-1", msg("m-1", 0, "u-2"))}, nil)

	imitID, err := v.SendReply(context.Background(), "t-1", "ping !bob", nil)
	if err != nil {
		t.Fatal(err)
	}
	if m := v.Snapshot().Threads[0].Messages; len(m) != 2 || m[1].ID != imitID {
		t.Fatalf("messages = %s", mustJSON(t, m))
	}
	v.Wait()
	m := v.Snapshot().Threads[0].Messages
	if len(m) != 2 || m[1].ID != "m-2" {
		t.Fatalf("messages = %s", mustJSON(t, m))
	}
	if len(fp.got) != 1 || fp.got[0].UserID != "a-2" || fp.got[0].MentionType != "signal" {
		t.Fatalf("pushes = %+v", fp.got)
	}
}

func TestSendReplyIntoClosedThread(t *testing.T) {
	fa := &fakeAPI{}
	v := newView(t, fa, nil, nil, false)
	closed := thread("t-1", msg("m-1", 0, "u-1"))
	closed.State = model.ThreadStateClosed
	v.Load([]model.Thread{closed}, nil)
	before := mustJSON(t, v.Snapshot())
	if _, err := v.SendReply(context.Background(), "t-1", "late", nil); !errors.Is(err, ErrThreadClosed) {
		t.Fatalf("err = %v", err)
	}
	if mustJSON(t, v.Snapshot()) != before {
		t.Fatal("state changed")
	}
}

func TestReactionUpdatesThreadsAndPinned(t *testing.T) {
	fa := &fakeAPI{}
	v := newView(t, fa, nil, nil, false)
	th := thread("t-1", msg("m-1", 0, "u-2"))
	th.Pinned = true
	v.Load([]model.Thread{th}, []model.Thread{th})

	v.ToggleReaction(context.Background(), "t-1", "m-1", ":+1:")
	snap := v.Snapshot()
	for _, list := range [][]model.Thread{snap.Threads, snap.Pinned} {
		r := list[0].Messages[0].Reactions
		if len(r) != 1 || r[0].Count != 1 {
			t.Fatalf("reactions = %+v", r)
		}
	}
	v.ToggleReaction(context.Background(), "t-1", "m-1", ":+1:")
	if r := v.Snapshot().Threads[0].Messages[0].Reactions; len(r) != 0 {
		t.Fatalf("reactions after unreact = %+v", r)
	}
	v.Wait()
	calls := fa.Calls()
	if len(calls) != 2 {
		t.Fatalf("calls = %v", calls)
	}
}

func TestPinThreadFailureNotifies(t *testing.T) {
	fa := &fakeAPI{err: errors.New("503")}
	n := &recordingNotifier{}
	v := newView(t, fa, nil, n, true)
	v.Load([]model.Thread{thread("t-1", msg("m-1", 0, "u-1"))}, nil)
	err := v.PinThread(context.Background(), "t-1", true)
	var nerr *NetworkError
	if !errors.As(err, &nerr) || nerr.Message != "Failed to pin the thread." {
		t.Fatalf("err = %v", err)
	}
	if !v.Snapshot().Threads[0].Pinned || len(v.Snapshot().Pinned) != 1 {
		t.Fatal("optimistic pin rolled back")
	}
	if len(n.Errors()) != 1 {
		t.Fatalf("notified = %v", n.Errors())
	}
}

func TestNotFoundSendsNoRequest(t *testing.T) {
	fa := &fakeAPI{}
	v := newView(t, fa, nil, nil, true)
	v.Load([]model.Thread{thread("t-1", msg("m-1", 0, "u-1")), thread("t-2", msg("m-2", 1, "u-1"))}, nil)
	ctx := context.Background()
	closed := model.ThreadStateClosed
	steps := []error{
		v.PinThread(ctx, "nope", true),
		v.MergeThreads(ctx, "nope", "t-1"),
		v.MergeThreads(ctx, "t-1", "t-1"),
		v.MoveMessageToThread(ctx, "m-1", "t-1"),
		v.MoveMessageToThread(ctx, "nope", "t-1"),
		v.MoveThreadToChannel(ctx, "t-1", "c-1"),
		v.UpdateThread(ctx, "nope", mutate.Patch{State: &closed}),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}
	if calls := fa.Calls(); len(calls) != 0 {
		t.Fatalf("calls = %v", calls)
	}
}

func TestDragRequiresPermission(t *testing.T) {
	fa := &fakeAPI{}
	v := newView(t, fa, nil, nil, false)
	v.Load([]model.Thread{thread("t-1", msg("m-1", 0, "u-2")), thread("t-2", msg("m-2", 1, "u-1"))}, nil)
	if err := v.OnThreadDrop(context.Background(), Drop{Kind: DragMessage, ID: "m-1"}, "t-2"); !errors.Is(err, ErrNotPermitted) {
		t.Fatalf("err = %v", err)
	}
	if err := v.OnThreadDrop(context.Background(), Drop{Kind: DragMessage, ID: "m-2"}, "t-1"); err != nil {
		t.Fatal(err)
	}
	got := v.Snapshot().Threads
	if len(got) != 1 || len(got[0].Messages) != 2 {
		t.Fatalf("threads = %s", mustJSON(t, got))
	}
}

func TestDropRouting(t *testing.T) {
	fa := &fakeAPI{moved: thread("t-new", msg("m-3", 2, "u-1"))}
	v := newView(t, fa, nil, nil, true)
	v.Load([]model.Thread{
		thread("t-1", msg("m-1", 0, "u-1")),
		thread("t-2", msg("m-2", 1, "u-1"), msg("m-3", 2, "u-1")),
		thread("t-3", msg("m-4", 3, "u-1")),
	}, nil)
	ctx := context.Background()

	if err := v.OnThreadDrop(ctx, Drop{Kind: DragThread, ID: "t-1"}, "t-2"); err != nil {
		t.Fatal(err)
	}
	if err := v.OnChannelDrop(ctx, Drop{Kind: DragMessage, ID: "m-3"}, "c-1"); err != nil {
		t.Fatal(err)
	}
	if err := v.OnChannelDrop(ctx, Drop{Kind: DragThread, ID: "t-3"}, "c-2"); err != nil {
		t.Fatal(err)
	}
	if err := v.OnChannelDrop(ctx, Drop{Kind: "user", ID: "x"}, "c-2"); err == nil {
		t.Fatal("expected error for unknown kind")
	}

	want := []string{"merge:t-1>t-2", "move-message-channel:m-3>c-1", "move-thread:t-3>c-2"}
	if got := fa.Calls(); mustJSON(t, got) != mustJSON(t, want) {
		t.Fatalf("calls = %v", got)
	}
	if got := ids(v.Snapshot().Threads); mustJSON(t, got) != `["t-2","t-new"]` {
		t.Fatalf("threads = %v", got)
	}
}

func TestUpdateThread(t *testing.T) {
	fa := &fakeAPI{err: errors.New("boom")}
	v := newView(t, fa, nil, nil, true)
	v.Load([]model.Thread{thread("t-1", msg("m-1", 0, "u-1"))}, nil)
	closed := model.ThreadStateClosed
	err := v.UpdateThread(context.Background(), "t-1", mutate.Patch{State: &closed})
	var nerr *NetworkError
	if !errors.As(err, &nerr) || nerr.Message != "Failed to close the thread." {
		t.Fatalf("err = %v", err)
	}
	if !v.Snapshot().Threads[0].Closed() {
		t.Fatal("state not applied")
	}
}

func TestMalformedEventIgnored(t *testing.T) {
	v := newView(t, &fakeAPI{}, nil, nil, false)
	v.Load([]model.Thread{thread("t-1", msg("m-1", 0, "u-1"))}, nil)
	before := mustJSON(t, v.Snapshot())
	v.HandleEvent(realtime.Envelope{Topic: realtime.ChannelTopic("c-1"), Payload: []byte(`{"is_thread":true,"thread":"{oops"}`)})
	if mustJSON(t, v.Snapshot()) != before {
		t.Fatal("state changed")
	}
}

func TestThreadFeedAndSelect(t *testing.T) {
	src := newFakeSource()
	v := newView(t, &fakeAPI{}, src, nil, false)
	v.Load([]model.Thread{thread("t-1", msg("m-1", 0, "u-1")), thread("t-2", msg("m-2", 0, "u-1"))}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go v.Run(ctx)

	if err := v.SelectThread(ctx, "t-1"); err != nil {
		t.Fatal(err)
	}
	if err := v.SelectThread(ctx, "t-2"); err != nil {
		t.Fatal(err)
	}
	src.mu.Lock()
	closedFirst := src.closed["room:topic:t-1"]
	src.mu.Unlock()
	if !closedFirst || v.CurrentThread() != "t-2" {
		t.Fatal("previous thread feed not cancelled")
	}

	inner, _ := json.Marshal(msg("m-9", 5, "u-2"))
	payload, _ := json.Marshal(map[string]any{"message_id": "m-9", "message": string(inner)})
	src.emit(t, "room:topic:t-2", payload)

	deadline := time.After(2 * time.Second)
	for {
		th := v.Snapshot().Threads[1]
		if len(th.Messages) == 2 && th.Messages[1].ID == "m-9" {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("reply not applied: %s", mustJSON(t, th))
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestCloseMakesHandlersNoop(t *testing.T) {
	fa := &fakeAPI{release: make(chan struct{}), thread: thread("t-99", msg("m-99", 0, "u-1"))}
	v := newView(t, fa, nil, nil, false)
	imitID, err := v.SendMessage(context.Background(), "hello", nil)
	if err != nil {
		t.Fatal(err)
	}
	v.Close()
	if v.Alive() {
		t.Fatal("still alive")
	}
	if got := ids(v.Snapshot().Threads); len(got) != 1 || got[0] != imitID {
		t.Fatalf("threads = %v", got)
	}
	if _, err := v.SendMessage(context.Background(), "again", nil); !errors.Is(err, ErrClosed) {
		t.Fatalf("err = %v", err)
	}
}

func TestMoveMessageToChannelWithoutThreadInReply(t *testing.T) {
	fa := &fakeAPI{}
	n := &recordingNotifier{}
	v := newView(t, fa, nil, n, true)
	v.Load([]model.Thread{thread("t-1", msg("m-1", 0, "u-1"), msg("m-2", 1, "u-1"))}, nil)
	if err := v.MoveMessageToChannel(context.Background(), "m-2", "c-1"); err != nil {
		t.Fatalf("err = %v", err)
	}
	if errs := n.Errors(); len(errs) != 0 {
		t.Fatalf("notified = %v", errs)
	}
	got := v.Snapshot().Threads
	if len(got) != 2 || got[0].ID != "t-1" || len(got[0].Messages) != 1 || len(got[1].Messages) != 1 {
		t.Fatalf("threads = %s", mustJSON(t, got))
	}
}

func TestStructuralMovesKeepPinnedInSync(t *testing.T) {
	pin := func(th model.Thread) model.Thread {
		th.Pinned = true
		return th
	}
	from := pin(thread("t-1", msg("m-1", 0, "u-1")))
	to := pin(thread("t-2", msg("m-2", 1, "u-1")))
	other := pin(thread("t-3", msg("m-3", 2, "u-1")))
	v := newView(t, &fakeAPI{}, nil, nil, true)
	v.Load([]model.Thread{from, to, other}, []model.Thread{from, to, other})
	ctx := context.Background()

	if err := v.MergeThreads(ctx, "t-1", "t-2"); err != nil {
		t.Fatal(err)
	}
	snap := v.Snapshot()
	if got := ids(snap.Pinned); mustJSON(t, got) != `["t-2","t-3"]` {
		t.Fatalf("pinned after merge = %v", got)
	}
	if n := len(snap.Pinned[0].Messages); n != 2 {
		t.Fatalf("merged pinned thread has %d messages", n)
	}

	if err := v.MoveThreadToChannel(ctx, "t-3", "c-2"); err != nil {
		t.Fatal(err)
	}
	if got := ids(v.Snapshot().Pinned); mustJSON(t, got) != `["t-2"]` {
		t.Fatalf("pinned after move = %v", got)
	}
}

func TestCloseWhileSending(t *testing.T) {
	v := newView(t, &fakeAPI{}, nil, nil, false)
	v.Load([]model.Thread{thread("t-1", msg("m-1", 0, "u-1"))}, nil)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				v.SendReaction(context.Background(), "t-1", "m-1", ":+1:", j%2 == 1)
			}
		}()
	}
	time.Sleep(time.Millisecond)
	if err := v.Close(); err != nil {
		t.Fatal(err)
	}
	wg.Wait()
	v.Wait()
}

func TestDropIgnoresUnconfirmed(t *testing.T) {
	fa := &fakeAPI{release: make(chan struct{})}
	v := newView(t, fa, nil, nil, true)
	v.Load([]model.Thread{thread("t-1", msg("m-1", 0, "u-1"))}, nil)
	imitID, err := v.SendMessage(context.Background(), "pending", nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	if err := v.OnThreadDrop(ctx, Drop{Kind: DragThread, ID: imitID}, "t-1"); err != nil {
		t.Fatal(err)
	}
	if err := v.OnThreadDrop(ctx, Drop{Kind: DragThread, ID: "t-1"}, imitID); err != nil {
		t.Fatal(err)
	}
	if err := v.OnChannelDrop(ctx, Drop{Kind: DragThread, ID: imitID}, "c-2"); err != nil {
		t.Fatal(err)
	}
	if calls := fa.Calls(); len(calls) != 0 {
		t.Fatalf("calls = %v", calls)
	}
	if got := ids(v.Snapshot().Threads); len(got) != 2 {
		t.Fatalf("threads = %v", got)
	}
}

func TestMoveMessageToChannelResolvesMissingAuthor(t *testing.T) {
	fa := &fakeAPI{}
	v := newView(t, fa, nil, nil, true)
	v.Load([]model.Thread{thread("t-1", msg("m-1", 0, "u-1"), msg("m-2", 1, "u-1"))}, nil)
	if err := v.MoveMessageToChannel(context.Background(), "m-2", "c-1"); err != nil {
		t.Fatal(err)
	}
	got := v.Snapshot().Threads
	if len(got) != 2 {
		t.Fatalf("threads = %v", ids(got))
	}
	author := got[1].Messages[0].Author
	if author == nil || author.Username != "alice" {
		t.Fatalf("author = %+v", author)
	}
}
