package api

import (
	"context"
	"net/url"

	"github.com/linen/internal/model"
	"github.com/linen/internal/reaction"
)

type ChannelMessageRequest struct {
	CommunityID string               `json:"communityId"`
	Body        string               `json:"body"`
	Files       []model.UploadedFile `json:"files"`
	ChannelID   string               `json:"channelId"`
	ImitationID string               `json:"imitationId"`
}

type ChannelMessageResponse struct {
	Thread      model.Thread `json:"thread"`
	ImitationID string       `json:"imitationId"`
}

// SendChannelMessage создаёт тред с первым сообщением.
func (c *Client) SendChannelMessage(ctx context.Context, r ChannelMessageRequest) (ChannelMessageResponse, error) {
	r.CommunityID = c.communityID
	if r.Files == nil {
		r.Files = []model.UploadedFile{}
	}
	var out ChannelMessageResponse
	err := c.do(ctx, "POST", "/api/messages/channel", r, &out)
	return out, err
}

type ThreadMessageRequest struct {
	CommunityID string               `json:"communityId"`
	Body        string               `json:"body"`
	Files       []model.UploadedFile `json:"files"`
	ThreadID    string               `json:"threadId"`
	ImitationID string               `json:"imitationId"`
}

type ThreadMessageResponse struct {
	Message     model.Message `json:"message"`
	ImitationID string        `json:"imitationId"`
}

// SendThreadMessage отправляет ответ в тред.
func (c *Client) SendThreadMessage(ctx context.Context, r ThreadMessageRequest) (ThreadMessageResponse, error) {
	r.CommunityID = c.communityID
	if r.Files == nil {
		r.Files = []model.UploadedFile{}
	}
	var out ThreadMessageResponse
	err := c.do(ctx, "POST", "/api/messages/thread", r, &out)
	return out, err
}

// ChannelThreads: треды канала и закреплённые треды.
type ChannelThreads struct {
	Threads []model.Thread `json:"threads"`
	Pinned  []model.Thread `json:"pinnedThreads"`
}

// FetchThreads загружает начальное состояние канала.
func (c *Client) FetchThreads(ctx context.Context, channelID string) (ChannelThreads, error) {
	q := url.Values{"communityId": {c.communityID}, "channelId": {channelID}}
	var out ChannelThreads
	err := c.do(ctx, "GET", "/api/threads?"+q.Encode(), nil, &out)
	return out, err
}

// PinThread ставит или снимает закрепление.
func (c *Client) PinThread(ctx context.Context, threadID string, pinned bool) error {
	return c.do(ctx, "PUT", "/api/threads/"+url.PathEscape(threadID), map[string]bool{"pinned": pinned}, nil)
}

// ThreadUpdate: частичное обновление треда; nil-поля не отправляются.
type ThreadUpdate struct {
	State *model.ThreadState `json:"state,omitempty"`
	Title *string            `json:"title,omitempty"`
}

func (c *Client) UpdateThread(ctx context.Context, threadID string, u ThreadUpdate) error {
	return c.do(ctx, "PUT", "/api/threads/"+url.PathEscape(threadID), u, nil)
}

type reactionRequest struct {
	CommunityID string          `json:"communityId"`
	MessageID   string          `json:"messageId"`
	Type        string          `json:"type"`
	Action      reaction.Action `json:"action"`
}

func (c *Client) PostReaction(ctx context.Context, messageID, reactionType string, action reaction.Action) error {
	return c.do(ctx, "POST", "/api/reactions", reactionRequest{
		CommunityID: c.communityID,
		MessageID:   messageID,
		Type:        reactionType,
		Action:      action,
	}, nil)
}

func (c *Client) MergeThreads(ctx context.Context, from, to string) error {
	return c.do(ctx, "POST", "/api/merge", map[string]string{
		"from":        from,
		"to":          to,
		"communityId": c.communityID,
	}, nil)
}

func (c *Client) MoveMessageToThread(ctx context.Context, messageID, threadID string) error {
	return c.do(ctx, "POST", "/api/move/message/thread", map[string]string{
		"messageId":   messageID,
		"threadId":    threadID,
		"communityId": c.communityID,
	}, nil)
}

// MoveMessageToChannel выносит сообщение в отдельный тред канала и возвращает этот тред.
func (c *Client) MoveMessageToChannel(ctx context.Context, messageID, channelID string) (model.Thread, error) {
	var out model.Thread
	err := c.do(ctx, "POST", "/api/move/message/channel", map[string]string{
		"messageId":   messageID,
		"channelId":   channelID,
		"communityId": c.communityID,
	}, &out)
	return out, err
}

func (c *Client) MoveThreadToChannel(ctx context.Context, threadID, channelID string) error {
	return c.do(ctx, "POST", "/api/move/thread/channel", map[string]string{
		"threadId":    threadID,
		"channelId":   channelID,
		"communityId": c.communityID,
	}, nil)
}
