package ui

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// TerminalRenderer draws bubbles as text: bot bubbles hug the left edge,
// user bubbles the right edge of a Width-column terminal.
type TerminalRenderer struct {
	Width int
	Theme Theme
	Color bool // emit 24-bit colors
}

const minBubbleWidth = 12

// Write prints bubbles (newest first, as returned by Render) top to bottom in
// reading order, oldest first.
func (r TerminalRenderer) Write(w io.Writer, bubbles []Bubble) error {
	for i := len(bubbles) - 1; i >= 0; i-- {
		if _, err := io.WriteString(w, r.RenderBubble(bubbles[i])); err != nil {
			return err
		}
	}
	return nil
}

func (r TerminalRenderer) RenderBubble(b Bubble) string {
	re := r.renderer()

	maxWidth := r.Width * 2 / 3
	if maxWidth < minBubbleWidth {
		maxWidth = minBubbleWidth
	}
	// Short messages shrink to their text plus one column of padding a side.
	width := min(lipgloss.Width(b.Text)+2, maxWidth)

	header := re.NewStyle().
		Foreground(lipgloss.Color(b.Style.TimeColor)).
		Render(b.Username + " · " + b.Time)
	body := r.bubbleStyle(re, b.Position).
		Width(width).
		Render(b.Text)

	if b.Position == PositionRight {
		block := lipgloss.JoinVertical(lipgloss.Right, header, body)
		return re.PlaceHorizontal(r.Width-1, lipgloss.Right, block) + "\n\n"
	}
	block := lipgloss.JoinVertical(lipgloss.Left, header, body)
	return re.NewStyle().MarginLeft(1).Render(block) + "\n\n"
}

// bubbleStyle maps the theme's bubble colors onto a terminal style. Theme
// paddings are in pixels; a terminal bubble gets one column on each side.
func (r TerminalRenderer) bubbleStyle(re *lipgloss.Renderer, pos Position) lipgloss.Style {
	style := r.Theme.Style(pos)
	return re.NewStyle().
		Background(lipgloss.Color(style.Background)).
		Foreground(lipgloss.Color(style.TextColor)).
		Padding(0, 1)
}

func (r TerminalRenderer) renderer() *lipgloss.Renderer {
	re := lipgloss.NewRenderer(io.Discard)
	if r.Color {
		re.SetColorProfile(termenv.TrueColor)
	} else {
		re.SetColorProfile(termenv.Ascii)
	}
	return re
}
