package tui

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/agbru/fractalcalc/internal/display"
	"github.com/agbru/fractalcalc/internal/format"
	"github.com/agbru/fractalcalc/internal/render"
	"github.com/agbru/fractalcalc/internal/view"
)

const halfBlock = "▀"

// PreviewModel draws a field with half-block characters: each terminal
// cell shows two vertically stacked pixels, the upper one as the
// foreground of "▀" and the lower one as its background.
type PreviewModel struct {
	field     *render.Field
	palette   display.Palette
	progress  float64
	rendering bool

	dragging bool
	drag     view.Selection

	width  int
	height int
}

// NewPreviewModel creates an empty preview coloured by p.
func NewPreviewModel(p display.Palette) PreviewModel {
	return PreviewModel{palette: p}
}

// SetSize updates the outer panel dimensions.
func (p *PreviewModel) SetSize(w, h int) {
	p.width = w
	p.height = h
}

// Device is the pixel grid that fills the panel interior.
func (p PreviewModel) Device() view.Device {
	return view.Device{Width: max(p.width-2, 1), Height: max(p.height-2, 1) * 2}
}

// SetField replaces the displayed field.
func (p *PreviewModel) SetField(f *render.Field) {
	p.field = f
	p.rendering = false
}

// SetProgress records the progress of the running render.
func (p *PreviewModel) SetProgress(v float64) {
	p.rendering = true
	p.progress = v
}

// StartDrag anchors a selection at device pixel (x, y).
func (p *PreviewModel) StartDrag(x, y int) {
	p.dragging = true
	p.drag = view.Selection{X1: x, Y1: y, X2: x, Y2: y}
}

// MoveDrag extends the selection to (x, y).
func (p *PreviewModel) MoveDrag(x, y int) {
	if p.dragging {
		p.drag.X2, p.drag.Y2 = x, y
	}
}

// EndDrag finishes the selection and returns it.
func (p *PreviewModel) EndDrag(x, y int) (view.Selection, bool) {
	if !p.dragging {
		return view.Selection{}, false
	}
	p.MoveDrag(x, y)
	p.dragging = false
	return p.drag, true
}

// cellAt converts panel-relative terminal coordinates to a device pixel.
// The border occupies the first row and column.
func (p PreviewModel) cellAt(col, row int) (x, y int, ok bool) {
	d := p.Device()
	x, y = col-1, (row-1)*2
	if x < 0 || y < 0 || x >= d.Width || y >= d.Height {
		return 0, 0, false
	}
	return x, y, true
}

func (p PreviewModel) inDrag(x, y int) bool {
	if !p.dragging {
		return false
	}
	x1, x2 := min(p.drag.X1, p.drag.X2), max(p.drag.X1, p.drag.X2)
	y1, y2 := min(p.drag.Y1, p.drag.Y2), max(p.drag.Y1, p.drag.Y2)
	return x >= x1 && x <= x2 && y >= y1 && y <= y2+1
}

// View renders the preview panel.
func (p PreviewModel) View() string {
	inner := p.Device()
	rows := inner.Height / 2

	var body string
	if p.field == nil {
		msg := "Waiting for the first render..."
		if p.rendering {
			msg = fmt.Sprintf("Rendering... %s", format.FormatProgressBarWithETA(p.progress, 0, min(20, max(inner.Width-30, 0))))
		}
		body = lipgloss.Place(inner.Width, rows, lipgloss.Center, lipgloss.Center, placeholderStyle.Render(msg))
	} else {
		body = p.renderField(inner.Width, rows)
	}

	return panelStyle.
		Width(inner.Width).
		Height(rows).
		Render(body)
}

func (p PreviewModel) renderField(cols, rows int) string {
	f := p.field
	colors := make(map[uint32]lipgloss.Color)
	colorOf := func(score uint32) lipgloss.Color {
		if c, ok := colors[score]; ok {
			return c
		}
		c := hexColor(p.palette.Color(score))
		colors[score] = c
		return c
	}

	var b strings.Builder
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		top, bottom := 2*r, 2*r+1
		for c := 0; c < cols; c++ {
			if c >= f.Device.Width || top >= f.Device.Height {
				b.WriteByte(' ')
				continue
			}
			style := lipgloss.NewStyle().Foreground(colorOf(f.At(c, top)))
			if bottom < f.Device.Height {
				style = style.Background(colorOf(f.At(c, bottom)))
			}
			if p.inDrag(c, top) {
				style = style.Reverse(true)
			}
			b.WriteString(style.Render(halfBlock))
		}
	}
	return b.String()
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
}

// clampCell is cellAt with out-of-panel positions pinned to the nearest
// edge, so a drag released outside the preview still selects up to it.
func (p PreviewModel) clampCell(col, row int) (x, y int) {
	d := p.Device()
	x = min(max(col-1, 0), d.Width-1)
	y = min(max((row-1)*2, 0), d.Height-2)
	return x, max(y, 0)
}
