package mention

import "github.com/linen/internal/model"

// Segment описывает кусок отрисованного текста: либо литерал, либо упоминание.
type Segment struct {
	Text string      `json:"text"`
	Kind Kind        `json:"kind,omitempty"`
	User *model.User `json:"user,omitempty"`
}

// Render разбивает тело на сегменты. Неразрешённые упоминания остаются текстом.
func Render(body string, users Lookup) []Segment {
	var segs []Segment
	appendText := func(s string) {
		if s == "" {
			return
		}
		if n := len(segs); n > 0 && segs[n-1].User == nil {
			segs[n-1].Text += s
			return
		}
		segs = append(segs, Segment{Text: s})
	}

	pos := 0
	for _, tok := range Extract(body) {
		var (
			u  model.User
			ok bool
		)
		if users != nil {
			u, ok = users.ByUsername(tok.Username)
		}
		if !ok {
			continue
		}
		appendText(body[pos:tok.Start])
		user := u
		segs = append(segs, Segment{Text: body[tok.Start:tok.End], Kind: tok.Kind, User: &user})
		pos = tok.End
	}
	appendText(body[pos:])
	return segs
}
