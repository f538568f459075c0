package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/learnx/internal/models"
)

var styles = NewPalette(PaletteColors{
	Title:  "#7D56F4",
	OK:     "#04B575",
	Error:  "#FF0000",
	Warn:   "#FFA500",
	Help:   "#626262",
	Accent: "#F2C94C",
})

// PaletteColors are the hex foregrounds a [Palette] is built from.
type PaletteColors struct {
	Title, OK, Error, Warn, Help, Accent string
}

// Palette is a small stylesheet of named [lipgloss.Style] fields.
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	star  lipgloss.Style

	difficulty map[models.Difficulty]lipgloss.Style
}

func NewPalette(c PaletteColors) *Palette {
	return &Palette{
		title: NewBold(c.Title).MarginBottom(1),
		ok:    NewBold(c.OK),
		err:   NewBold(c.Error),
		warn:  NewStyle(c.Warn),
		help:  NewEm(c.Help),
		star:  NewStyle(c.Accent),
		difficulty: map[models.Difficulty]lipgloss.Style{
			models.DifficultyBeginner:     NewBold(c.OK),
			models.DifficultyIntermediate: NewBold(c.Warn),
			models.DifficultyAdvanced:     NewBold(c.Error),
		},
	}
}

// Badge renders a difficulty label, or "" when the course has none.
func (p *Palette) Badge(d models.Difficulty) string {
	if d == "" {
		return ""
	}
	style, ok := p.difficulty[d]
	if !ok {
		style = p.help
	}
	return style.Render("[" + string(d) + "]")
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
