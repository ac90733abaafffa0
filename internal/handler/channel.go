package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/linen/internal/channel"
	"github.com/linen/internal/mention"
	"github.com/linen/internal/model"
	"github.com/linen/internal/mutate"
	"github.com/linen/internal/store"
)

// View: операции представления канала, доступные локальному UI.
type View interface {
	Snapshot() store.Collection
	CurrentThread() string
	Channel() model.Channel
	RenderMessage(m model.Message) []mention.Segment
	SendMessage(ctx context.Context, body string, files []model.UploadedFile) (string, error)
	SendReply(ctx context.Context, threadID, body string, files []model.UploadedFile) (string, error)
	PinThread(ctx context.Context, threadID string, pinned bool) error
	UpdateThread(ctx context.Context, threadID string, p mutate.Patch) error
	SelectThread(ctx context.Context, threadID string) error
	SendReaction(ctx context.Context, threadID, messageID, reactionType string, active bool)
	ToggleReaction(ctx context.Context, threadID, messageID, reactionType string)
	OnChannelDrop(ctx context.Context, d channel.Drop, channelID string) error
	OnThreadDrop(ctx context.Context, d channel.Drop, threadID string) error
}

type ChannelHandler struct {
	view View
}

func NewChannelHandler(view View) *ChannelHandler {
	return &ChannelHandler{view: view}
}

type threadsResponse struct {
	Channel       model.Channel  `json:"channel"`
	Threads       []model.Thread `json:"threads"`
	Pinned        []model.Thread `json:"pinnedThreads"`
	CurrentThread string         `json:"currentThreadId,omitempty"`
	// Rendered: тела сообщений с разрешёнными упоминаниями, по id сообщения.
	Rendered map[string][]mention.Segment `json:"rendered"`
}

func (h *ChannelHandler) GetThreads(w http.ResponseWriter, r *http.Request) {
	snap := h.view.Snapshot()
	rendered := make(map[string][]mention.Segment)
	for _, list := range [][]model.Thread{snap.Threads, snap.Pinned} {
		for _, t := range list {
			for _, m := range t.Messages {
				if _, done := rendered[m.ID]; !done {
					rendered[m.ID] = h.view.RenderMessage(m)
				}
			}
		}
	}
	writeJSON(w, http.StatusOK, threadsResponse{
		Channel:       h.view.Channel(),
		Threads:       snap.Threads,
		Pinned:        snap.Pinned,
		CurrentThread: h.view.CurrentThread(),
		Rendered:      rendered,
	})
}

type sendRequest struct {
	ThreadID string               `json:"threadId"`
	Body     string               `json:"body"`
	Files    []model.UploadedFile `json:"files"`
}

type sendResponse struct {
	ImitationID string `json:"imitationId"`
}

func (h *ChannelHandler) SendChannelMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !readJSON(w, r, &req) {
		return
	}
	id, err := h.view.SendMessage(r.Context(), req.Body, req.Files)
	if err != nil {
		writeViewError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, sendResponse{ImitationID: id})
}

func (h *ChannelHandler) SendThreadMessage(w http.ResponseWriter, r *http.Request) {
	var req sendRequest
	if !readJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.ThreadID) == "" {
		writeError(w, http.StatusBadRequest, "threadId required")
		return
	}
	id, err := h.view.SendReply(r.Context(), req.ThreadID, req.Body, req.Files)
	if err != nil {
		writeViewError(w, err)
		return
	}
	if id == "" {
		writeError(w, http.StatusNotFound, "thread not found")
		return
	}
	writeJSON(w, http.StatusAccepted, sendResponse{ImitationID: id})
}

type updateThreadRequest struct {
	Pinned *bool              `json:"pinned"`
	State  *model.ThreadState `json:"state"`
	Title  *string            `json:"title"`
}

// UpdateThread обрабатывает PUT /api/threads/{id}: pinned и/или state/title.
func (h *ChannelHandler) UpdateThread(w http.ResponseWriter, r *http.Request) {
	threadID := chi.URLParam(r, "id")
	var req updateThreadRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.State != nil && *req.State != model.ThreadStateOpen && *req.State != model.ThreadStateClosed {
		writeError(w, http.StatusBadRequest, "invalid state")
		return
	}
	patch := mutate.Patch{State: req.State, Title: req.Title}
	if req.Pinned == nil && patch.Empty() {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}
	if req.Pinned != nil {
		if err := h.view.PinThread(r.Context(), threadID, *req.Pinned); err != nil {
			writeViewError(w, err)
			return
		}
	}
	if !patch.Empty() {
		if err := h.view.UpdateThread(r.Context(), threadID, patch); err != nil {
			writeViewError(w, err)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChannelHandler) SelectThread(w http.ResponseWriter, r *http.Request) {
	if err := h.view.SelectThread(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeViewError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type reactionRequest struct {
	ThreadID  string `json:"threadId"`
	MessageID string `json:"messageId"`
	Type      string `json:"type"`
	Active    *bool  `json:"active"`
}

// PostReaction без active переключает реакцию по текущему состоянию.
func (h *ChannelHandler) PostReaction(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.ThreadID == "" || req.MessageID == "" || req.Type == "" {
		writeError(w, http.StatusBadRequest, "threadId, messageId and type required")
		return
	}
	if req.Active != nil {
		h.view.SendReaction(r.Context(), req.ThreadID, req.MessageID, req.Type, *req.Active)
	} else {
		h.view.ToggleReaction(r.Context(), req.ThreadID, req.MessageID, req.Type)
	}
	w.WriteHeader(http.StatusAccepted)
}

type dropRequest struct {
	channel.Drop
	ChannelID string `json:"channelId"`
	ThreadID  string `json:"threadId"`
}

func (h *ChannelHandler) DropOnChannel(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.ID == "" || req.ChannelID == "" {
		writeError(w, http.StatusBadRequest, "id and channelId required")
		return
	}
	if err := h.view.OnChannelDrop(r.Context(), req.Drop, req.ChannelID); err != nil {
		writeViewError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChannelHandler) DropOnThread(w http.ResponseWriter, r *http.Request) {
	var req dropRequest
	if !readJSON(w, r, &req) {
		return
	}
	if req.ID == "" || req.ThreadID == "" {
		writeError(w, http.StatusBadRequest, "id and threadId required")
		return
	}
	if err := h.view.OnThreadDrop(r.Context(), req.Drop, req.ThreadID); err != nil {
		writeViewError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
