package components

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/theirongolddev/cashflowcast/internal/tui/theme"
)

// Sparkline renders a unicode sparkline from values scaled between their
// minimum and maximum. A flat series renders at mid height.
func Sparkline(values []float64, color lipgloss.Color) string {
	if len(values) == 0 {
		return ""
	}
	blocks := []rune("▁▂▃▄▅▆▇█")
	lo, hi := extent(values)

	var buf strings.Builder
	buf.Grow(len(values) * 3)
	for _, v := range values {
		idx := len(blocks) / 2
		if hi > lo {
			idx = int((v - lo) / (hi - lo) * float64(len(blocks)-1))
		}
		buf.WriteRune(blocks[min(max(idx, 0), len(blocks)-1)])
	}
	return lipgloss.NewStyle().Foreground(color).Background(theme.Active.Surface).Render(buf.String())
}

// Bar glyphs. Rising bars fill from the bottom of a cell, hanging bars
// from the top.
var (
	riseBlocks = []rune(" ▁▂▃▄▅▆▇█")
	hangBlocks = []rune(" ▔▔▀▀▀██")
)

// BarChart draws one column per value against a zero axis. Positive values
// rise above the axis in up; negative values hang below it in down. Areas
// too small for bars fall back to a sparkline.
func BarChart(values []float64, labels []string, up, down lipgloss.Color, width, height int) string {
	if len(values) == 0 {
		return ""
	}
	if width < 15 || height < 3 {
		return Sparkline(values, up)
	}
	if len(labels) != len(values) {
		labels = nil
	}

	lo, hi := extent(values)
	lo, hi = min(lo, 0), max(hi, 0)
	if hi == lo {
		hi = 1
	}
	step := niceStep((hi - lo) / float64(max(2, height/2)))
	top := math.Ceil(hi/step) * step
	bottom := math.Floor(lo/step) * step

	// Split the plot rows between the two sides of the axis.
	upRows := int(math.Round(float64(height) * top / (top - bottom)))
	if top > 0 {
		upRows = max(upRows, 1)
	}
	if bottom < 0 {
		upRows = min(upRows, height-1)
	}
	downRows := height - upRows

	gutter := max(len(chartLabel(top)), len(chartLabel(bottom)), 1) + 1
	plotW := max(width-gutter-1, 5)
	values, labels = fitColumns(values, labels, (plotW+1)/2)
	n := len(values)
	barW := min(max((plotW+1)/n-1, 1), 6)
	if n == 1 {
		barW = min(plotW, 6)
	}
	axisLen := n*barW + n - 1

	t := theme.Active
	axis := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	blank := lipgloss.NewStyle().Background(t.Surface)
	upStyle := lipgloss.NewStyle().Foreground(up).Background(t.Surface)
	downStyle := lipgloss.NewStyle().Foreground(down).Background(t.Surface)

	writeRow := func(b *strings.Builder, tick string, cell func(v float64) (rune, lipgloss.Style)) {
		b.WriteString(axis.Render(fmt.Sprintf("%*s│", gutter, tick)))
		for i, v := range values {
			if i > 0 {
				b.WriteString(blank.Render(" "))
			}
			r, st := cell(v)
			b.WriteString(st.Render(strings.Repeat(string(r), barW)))
		}
		b.WriteString("\n")
	}

	var b strings.Builder
	upCell := top / float64(max(upRows, 1))
	for row := upRows; row >= 1; row-- {
		tick := ""
		if row == upRows {
			tick = chartLabel(top)
		}
		floor := float64(row-1) * upCell
		writeRow(&b, tick, func(v float64) (rune, lipgloss.Style) {
			return partial(riseBlocks, (v-floor)/upCell), upStyle
		})
	}

	b.WriteString(axis.Render(fmt.Sprintf("%*s┼%s", gutter, "0", strings.Repeat("─", axisLen))))
	b.WriteString("\n")

	downCell := -bottom / float64(max(downRows, 1))
	for row := 1; row <= downRows; row++ {
		tick := ""
		if row == downRows {
			tick = chartLabel(bottom)
		}
		ceil := float64(row-1) * downCell
		writeRow(&b, tick, func(v float64) (rune, lipgloss.Style) {
			return partial(hangBlocks, (-v-ceil)/downCell), downStyle
		})
	}

	if labels != nil {
		b.WriteString(blank.Render(strings.Repeat(" ", gutter+1)))
		b.WriteString(axis.Render(placeLabels(labels, barW, axisLen)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// partial picks the glyph for a cell filled to frac (0 empty, 1 full).
func partial(glyphs []rune, frac float64) rune {
	if frac <= 0 {
		return glyphs[0]
	}
	last := len(glyphs) - 1
	return glyphs[min(max(int(math.Ceil(frac*float64(last))), 1), last)]
}

// fitColumns samples values (and their labels) down to at most limit
// columns, always keeping the first and last.
func fitColumns(values []float64, labels []string, limit int) ([]float64, []string) {
	n := len(values)
	limit = max(limit, 2)
	if n <= limit {
		return values, labels
	}
	outV := make([]float64, limit)
	var outL []string
	if labels != nil {
		outL = make([]string, limit)
	}
	for i := range outV {
		src := i * (n - 1) / (limit - 1)
		outV[i] = values[src]
		if outL != nil {
			outL[i] = labels[src]
		}
	}
	return outV, outL
}

// placeLabels lays labels under their columns, skipping any that would
// collide with the previous one.
func placeLabels(labels []string, barW, axisLen int) string {
	line := []rune(strings.Repeat(" ", axisLen))
	next := 0
	for i, lbl := range labels {
		pos := i * (barW + 1)
		r := []rune(lbl)
		if pos < next || pos+len(r) > axisLen {
			continue
		}
		copy(line[pos:], r)
		next = pos + len(r) + 1
	}
	return strings.TrimRight(string(line), " ")
}

func extent(values []float64) (lo, hi float64) {
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}

// niceStep rounds rough up to 1, 2 or 5 times a power of ten.
func niceStep(rough float64) float64 {
	if rough <= 0 {
		return 1
	}
	mag := math.Pow(10, math.Floor(math.Log10(rough)))
	for _, m := range []float64{1, 2, 5, 10} {
		if rough <= m*mag {
			return m * mag
		}
	}
	return 10 * mag
}

// chartLabel abbreviates an axis value: 1500 -> "1.5k", -2000000 -> "-2M".
func chartLabel(v float64) string {
	if v == 0 {
		return "0"
	}
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	for _, u := range []struct {
		div    float64
		suffix string
	}{{1e9, "B"}, {1e6, "M"}, {1e3, "k"}} {
		if v >= u.div {
			return sign + strconv.FormatFloat(math.Round(v/u.div*10)/10, 'f', -1, 64) + u.suffix
		}
	}
	if v >= 1 {
		return sign + strconv.FormatFloat(math.Round(v), 'f', -1, 64)
	}
	return sign + strconv.FormatFloat(v, 'f', 2, 64)
}
