// Package ui turns conversation snapshots into styled chat bubbles.
package ui

import "strconv"

type Position string

const (
	PositionLeft  Position = "left"  // bot
	PositionRight Position = "right" // user
)

type BubbleStyle struct {
	Background   string `json:"background_color"`
	TextColor    string `json:"text_color"`
	TimeColor    string `json:"time_text_color"`
	MarginBottom int    `json:"margin_bottom"`
	Padding      int    `json:"padding"`
	SideMargin   int    `json:"side_margin"`
}

type SendButton struct {
	Icon        string `json:"icon"`
	IconSize    int    `json:"icon_size"`
	IconColor   string `json:"icon_color"`
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	MarginRight int    `json:"margin_right"`
}

type Font struct {
	Family string `json:"family"`
	Name   string `json:"name"`
	Weight int    `json:"weight"`
}

type Theme struct {
	Name       string                   `json:"name"`
	Background string                   `json:"background_color"`
	Bubbles    map[Position]BubbleStyle `json:"bubbles"`
	Send       SendButton               `json:"send_button"`
	Fonts      []Font                   `json:"fonts"`
}

func (t Theme) Style(p Position) BubbleStyle {
	return t.Bubbles[p]
}

// DarkTheme is the only theme the app ships.
func DarkTheme() Theme {
	return Theme{
		Name:       "dark",
		Background: "#121212",
		Bubbles: map[Position]BubbleStyle{
			PositionRight: {
				Background:   "#4A90E2",
				TextColor:    "#FFFFFF",
				TimeColor:    "#FFFFFF",
				MarginBottom: 16,
				Padding:      8,
				SideMargin:   8,
			},
			PositionLeft: {
				Background:   "#2A2A2A",
				TextColor:    "#FFFFFF",
				TimeColor:    "#7F7F7F",
				MarginBottom: 16,
				Padding:      8,
				SideMargin:   8,
			},
		},
		Send: SendButton{
			Icon:        "send",
			IconSize:    20,
			IconColor:   "black",
			Width:       44,
			Height:      44,
			MarginRight: 16,
		},
		Fonts: assistantFonts(),
	}
}

func assistantFonts() []Font {
	weights := []struct {
		name   string
		weight int
	}{
		{"ExtraLight", 200},
		{"Light", 300},
		{"Regular", 400},
		{"Medium", 500},
		{"SemiBold", 600},
		{"Bold", 700},
	}
	fonts := make([]Font, 0, len(weights))
	for _, w := range weights {
		fonts = append(fonts, Font{
			Family: "Assistant",
			Name:   "Assistant_" + strconv.Itoa(w.weight) + w.name,
			Weight: w.weight,
		})
	}
	return fonts
}
