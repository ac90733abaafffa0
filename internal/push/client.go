// Package push отправляет уведомления об упоминаниях через микросервис пушей.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/linen/internal/logger"
	"github.com/linen/internal/mention"
	"github.com/linen/internal/model"
)

// Dispatcher: получатель уведомлений об упоминаниях.
type Dispatcher interface {
	PushUserMention(ctx context.Context, m Mention) error
}

// Mention: одно упоминание пользователя в подтверждённом сообщении.
type Mention struct {
	UserID      string       `json:"userId"`
	ThreadID    string       `json:"threadId"`
	ChannelID   string       `json:"channelId"`
	MentionType mention.Kind `json:"mentionType"`
}

// Client вызывает микросервис пуш-уведомлений. Если URL пустой: методы no-op.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент. baseURL пустой: пуши отключены.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		return &Client{}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Enabled: настроен ли адрес сервиса.
func (c *Client) Enabled() bool { return c.baseURL != "" }

// PushUserMention отправляет одно уведомление об упоминании.
func (c *Client) PushUserMention(ctx context.Context, m Mention) error {
	if c.baseURL == "" {
		return nil
	}
	body, err := json.Marshal(m)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/notify", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("push notify: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push notify: %d", resp.StatusCode)
	}
	return nil
}

// NotifyMentions рассылает уведомления всем упомянутым в сообщении
// пользователям, у которых есть учётная запись. Ошибки только логируются.
func NotifyMentions(ctx context.Context, d Dispatcher, body string, mentions []model.User, users mention.Lookup, threadID, channelID string) {
	if d == nil || len(mentions) == 0 {
		return
	}
	nodes := mention.Nodes(body, users)
	for _, u := range mentions {
		if u.AuthsID == "" {
			continue
		}
		m := Mention{
			UserID:      u.AuthsID,
			ThreadID:    threadID,
			ChannelID:   channelID,
			MentionType: mention.TypeFor(u.ID, nodes),
		}
		if err := d.PushUserMention(ctx, m); err != nil {
			logger.Errorf("push mention user=%s thread=%s: %v", u.ID, threadID, err)
		}
	}
}
