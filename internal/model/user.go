package model

// User: публичное представление участника сообщества.
// Author у сообщения может быть nil (пользователь удалён).
type User struct {
	ID              string `json:"id"`
	AuthsID         string `json:"authsId,omitempty"`
	Username        string `json:"username"`
	DisplayName     string `json:"displayName"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// Name возвращает отображаемое имя, с запасным вариантом на username.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

type Channel struct {
	ID          string `json:"id"`
	ChannelName string `json:"channelName"`
	AccountID   string `json:"accountId,omitempty"`
	Hidden      bool   `json:"hidden"`
	Default     bool   `json:"default"`
}
