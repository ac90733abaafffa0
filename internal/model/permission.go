package model

type Auth struct {
	ID string `json:"id"`
}

// Permissions: права текущего пользователя в сообществе. Вычисляются снаружи,
// здесь только потребляются.
type Permissions struct {
	Manage bool   `json:"manage"`
	Auth   *Auth  `json:"auth,omitempty"`
	User   *User  `json:"user,omitempty"`
	Token  string `json:"token,omitempty"`
}

// CanDrag: перетаскивать сообщение может модератор или автор.
func (p Permissions) CanDrag(m Message) bool {
	if p.Manage {
		return true
	}
	return p.User != nil && m.UsersID != "" && p.User.ID == m.UsersID
}
