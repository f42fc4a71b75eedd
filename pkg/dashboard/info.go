package dashboard

import (
	"fmt"
	"strings"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
)

// InfoPanel prints the latest sampled value of a fixed set of metrics as
// plain text, for the throughput counters that don't benefit from a plot.
type InfoPanel struct {
	p      *widgets.Paragraph
	fields []string
}

func NewInfoPanel(fields []string) *InfoPanel {
	p := widgets.NewParagraph()
	p.Title = "Throughput"
	p.BorderStyle.Fg = ui.ColorYellow
	p.TextStyle.Fg = ui.ColorWhite
	return &InfoPanel{p: p, fields: fields}
}

func (i *InfoPanel) Update(series map[string]*Series) {
	now := time.Now()
	lines := make([]string, 0, len(i.fields))
	for _, k := range i.fields {
		s, ok := series[k]
		if !ok {
			lines = append(lines, fmt.Sprintf("%-24s: --", k))
			continue
		}
		v, t, ok := s.last()
		if !ok {
			lines = append(lines, fmt.Sprintf("%-24s: --", k))
			continue
		}
		age := now.Sub(t).Truncate(time.Millisecond)
		lines = append(lines, fmt.Sprintf("%-24s: %10.2f (age %s)", k, v, age))
	}
	i.p.Text = strings.Join(lines, "\n")
}

func (i *InfoPanel) Draw() ui.Drawable { return i.p }
func (i *InfoPanel) Name() string      { return "InfoPanel" }

// LegendPanel is a static one-line key reminder, always visible at the
// bottom of the grid.
type LegendPanel struct {
	p *widgets.Paragraph
}

func NewLegendPanel() *LegendPanel {
	p := widgets.NewParagraph()
	p.Title = "Legend"
	p.Text = "[cycles](fg:green) [phases](fg:cyan) [strides](fg:magenta) [read_input](fg:yellow)\n" +
		"[q] Quit  [h] Help  [+] Zoom Out  [-] Zoom In"
	p.Border = false
	return &LegendPanel{p: p}
}

func (l *LegendPanel) Update(_ map[string]*Series) {}
func (l *LegendPanel) Draw() ui.Drawable            { return l.p }
func (l *LegendPanel) Name() string                 { return "LegendPanel" }

// HelpPanel is a toggleable key-binding reference.
type HelpPanel struct {
	visible bool
	p       *widgets.Paragraph
}

func NewHelpPanel() *HelpPanel {
	p := widgets.NewParagraph()
	p.Title = "Help"
	p.Text = `[q]       quit
[h]       toggle help
[+|-]     widen/narrow window
[resize]  adjust layout`
	p.BorderStyle.Fg = ui.ColorCyan
	p.TextStyle.Fg = ui.ColorWhite
	return &HelpPanel{p: p}
}

func (h *HelpPanel) Update(_ map[string]*Series) {}

func (h *HelpPanel) Draw() ui.Drawable {
	if !h.visible {
		return nil
	}
	return h.p
}

func (h *HelpPanel) Name() string       { return "HelpPanel" }
func (h *HelpPanel) SetVisible(v bool)  { h.visible = v }
