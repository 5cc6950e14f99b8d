package ui

import (
	"time"

	"smooze.app/wingman/internal/store"
)

// Bubble is one rendered chat message.
type Bubble struct {
	ID        int64       `json:"id"`
	Text      string      `json:"text"`
	Username  string      `json:"username"`
	Position  Position    `json:"position"`
	Style     BubbleStyle `json:"style"`
	CreatedAt time.Time   `json:"created_at"`
	Time      string      `json:"time"`
}

func PositionFor(s store.Sender) Position {
	if s == store.SenderUser {
		return PositionRight
	}
	return PositionLeft
}

// Render converts an oldest-first snapshot into newest-first bubbles.
func Render(msgs []store.Message, theme Theme) []Bubble {
	bubbles := make([]Bubble, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		pos := PositionFor(m.Sender)
		bubbles = append(bubbles, Bubble{
			ID:        m.ID,
			Text:      m.Text,
			Username:  m.Sender.Label(),
			Position:  pos,
			Style:     theme.Style(pos),
			CreatedAt: m.CreatedAt,
			Time:      m.CreatedAt.Local().Format("3:04 PM"),
		})
	}
	return bubbles
}
