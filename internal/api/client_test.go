package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/linen/internal/model"
	"github.com/linen/internal/reaction"
)

type recorded struct {
	method, path, auth string
	body               map[string]any
}

func newServer(t *testing.T, reqs *[]recorded) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	record := func(req *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(req.Body).Decode(&body)
		*reqs = append(*reqs, recorded{req.Method, req.URL.Path, req.Header.Get("Authorization"), body})
	}
	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	}
	r.Post("/api/messages/channel", func(w http.ResponseWriter, req *http.Request) {
		record(req)
		writeJSON(w, ChannelMessageResponse{
			Thread:      model.Thread{ID: "t-99", Messages: []model.Message{{ID: "m-99"}}},
			ImitationID: "imitation-1",
		})
	})
	r.Post("/api/messages/thread", func(w http.ResponseWriter, req *http.Request) {
		record(req)
		writeJSON(w, ThreadMessageResponse{Message: model.Message{ID: "m-5", ThreadID: "t-1"}, ImitationID: "imitation-2"})
	})
	r.Put("/api/threads/{id}", func(w http.ResponseWriter, req *http.Request) {
		record(req)
		if chi.URLParam(req, "id") == "missing" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	r.Post("/api/reactions", func(w http.ResponseWriter, req *http.Request) { record(req) })
	r.Post("/api/merge", func(w http.ResponseWriter, req *http.Request) { record(req) })
	r.Post("/api/move/message/thread", func(w http.ResponseWriter, req *http.Request) { record(req) })
	r.Post("/api/move/thread/channel", func(w http.ResponseWriter, req *http.Request) { record(req) })
	r.Post("/api/move/message/channel", func(w http.ResponseWriter, req *http.Request) {
		record(req)
		writeJSON(w, model.Thread{ID: "t-new", ChannelID: "c-1"})
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *Client {
	return NewClient(Options{BaseURL: srv.URL + "/", Token: "secret", CommunityID: "acc-1"})
}

func TestSendChannelMessage(t *testing.T) {
	var reqs []recorded
	c := newClient(newServer(t, &reqs))
	out, err := c.SendChannelMessage(context.Background(), ChannelMessageRequest{
		Body: "hello", ChannelID: "c-1", ImitationID: "imitation-1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Thread.ID != "t-99" || out.ImitationID != "imitation-1" {
		t.Fatalf("out = %+v", out)
	}
	got := reqs[0]
	if got.auth != "Bearer secret" {
		t.Fatalf("auth = %q", got.auth)
	}
	if got.body["communityId"] != "acc-1" || got.body["channelId"] != "c-1" || got.body["imitationId"] != "imitation-1" {
		t.Fatalf("body = %v", got.body)
	}
	if files, ok := got.body["files"].([]any); !ok || len(files) != 0 {
		t.Fatalf("files = %v", got.body["files"])
	}
}

func TestSendThreadMessage(t *testing.T) {
	var reqs []recorded
	c := newClient(newServer(t, &reqs))
	out, err := c.SendThreadMessage(context.Background(), ThreadMessageRequest{Body: "re", ThreadID: "t-1", ImitationID: "imitation-2"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Message.ID != "m-5" {
		t.Fatalf("out = %+v", out)
	}
	if reqs[0].body["threadId"] != "t-1" {
		t.Fatalf("body = %v", reqs[0].body)
	}
}

func TestThreadUpdates(t *testing.T) {
	var reqs []recorded
	c := newClient(newServer(t, &reqs))
	ctx := context.Background()
	if err := c.PinThread(ctx, "t-1", true); err != nil {
		t.Fatal(err)
	}
	closed := model.ThreadStateClosed
	if err := c.UpdateThread(ctx, "t-1", ThreadUpdate{State: &closed}); err != nil {
		t.Fatal(err)
	}
	if reqs[0].body["pinned"] != true {
		t.Fatalf("pin body = %v", reqs[0].body)
	}
	if reqs[1].body["state"] != "CLOSED" {
		t.Fatalf("update body = %v", reqs[1].body)
	}
	if _, ok := reqs[1].body["title"]; ok {
		t.Fatal("nil title sent")
	}
}

func TestStatusError(t *testing.T) {
	var reqs []recorded
	c := newClient(newServer(t, &reqs))
	err := c.PinThread(context.Background(), "missing", true)
	if !IsStatus(err, http.StatusNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestMovesAndReactions(t *testing.T) {
	var reqs []recorded
	c := newClient(newServer(t, &reqs))
	ctx := context.Background()
	if err := c.PostReaction(ctx, "m-1", ":+1:", reaction.ActionIncrement); err != nil {
		t.Fatal(err)
	}
	if err := c.MergeThreads(ctx, "t-1", "t-2"); err != nil {
		t.Fatal(err)
	}
	if err := c.MoveMessageToThread(ctx, "m-1", "t-2"); err != nil {
		t.Fatal(err)
	}
	th, err := c.MoveMessageToChannel(ctx, "m-1", "c-1")
	if err != nil {
		t.Fatal(err)
	}
	if th.ID != "t-new" {
		t.Fatalf("thread = %+v", th)
	}
	if err := c.MoveThreadToChannel(ctx, "t-2", "c-2"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		key  string
		want any
	}{
		{"/api/reactions", "action", "increment"},
		{"/api/merge", "from", "t-1"},
		{"/api/move/message/thread", "threadId", "t-2"},
		{"/api/move/message/channel", "channelId", "c-1"},
		{"/api/move/thread/channel", "channelId", "c-2"},
	}
	if len(reqs) != len(tests) {
		t.Fatalf("requests = %d", len(reqs))
	}
	for i, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if reqs[i].path != tt.path {
				t.Fatalf("path = %s", reqs[i].path)
			}
			if reqs[i].body[tt.key] != tt.want {
				t.Fatalf("%s = %v, want %v", tt.key, reqs[i].body[tt.key], tt.want)
			}
			if reqs[i].body["communityId"] != "acc-1" {
				t.Fatalf("communityId = %v", reqs[i].body["communityId"])
			}
		})
	}
}

func TestMoveMessageToChannelWithoutBody(t *testing.T) {
	tests := []struct {
		name  string
		reply func(w http.ResponseWriter)
	}{
		{"no content", func(w http.ResponseWriter) { w.WriteHeader(http.StatusNoContent) }},
		{"empty ok", func(w http.ResponseWriter) { w.WriteHeader(http.StatusOK) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := chi.NewRouter()
			r.Post("/api/move/message/channel", func(w http.ResponseWriter, req *http.Request) { tt.reply(w) })
			srv := httptest.NewServer(r)
			defer srv.Close()

			th, err := newClient(srv).MoveMessageToChannel(context.Background(), "m-1", "c-2")
			if err != nil {
				t.Fatalf("err = %v", err)
			}
			if th.ID != "" {
				t.Fatalf("thread = %+v", th)
			}
		})
	}
}

func TestMalformedBodyStillFails(t *testing.T) {
	r := chi.NewRouter()
	r.Post("/api/move/message/channel", func(w http.ResponseWriter, req *http.Request) {
		_, _ = w.Write([]byte("{not json"))
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	if _, err := newClient(srv).MoveMessageToChannel(context.Background(), "m-1", "c-2"); err == nil {
		t.Fatal("expected decode error")
	}
}
