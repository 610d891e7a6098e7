package tui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/lipgloss"
)

// FooterModel shows the run status and the key help.
type FooterModel struct {
	help   help.Model
	keymap KeyMap
	paused bool
	done   bool
	err    bool
	width  int
}

func NewFooterModel() FooterModel {
	h := help.New()
	h.Styles.ShortKey = footerKeyStyle
	h.Styles.ShortDesc = footerDescStyle
	h.Styles.ShortSeparator = footerDescStyle
	return FooterModel{help: h, keymap: DefaultKeyMap()}
}

func (f *FooterModel) SetWidth(w int) {
	f.width = w
	f.help.Width = max(w-14, 0)
}

func (f *FooterModel) SetPaused(p bool) { f.paused = p }
func (f *FooterModel) SetDone(d bool)   { f.done = d }
func (f *FooterModel) SetError(e bool)  { f.err = e }

func (f FooterModel) status() string {
	switch {
	case f.err:
		return statusErrorStyle.Render("ERROR")
	case f.done:
		return statusDoneStyle.Render("DONE")
	case f.paused:
		return statusPausedStyle.Render("PAUSED")
	default:
		return statusRunningStyle.Render("RUNNING")
	}
}

func (f FooterModel) View() string {
	row := " " + f.status() + "  " + f.help.View(f.keymap)
	return lipgloss.NewStyle().Width(f.width).MaxHeight(1).Render(row)
}
