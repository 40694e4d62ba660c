package globeview

import (
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
)

const (
	maxNarrationLines = 8
	maxTallyLines     = 5
)

var (
	colorPanelFill   = color.RGBA{0, 0, 0, 100}
	colorPanelStroke = color.RGBA{36, 42, 53, 255}
	colorAccent      = color.RGBA{0, 230, 180, 255}
)

// panel is one titled box of text lines.
type panel struct {
	title string
	lines []string
}

// selection is whatever the last click picked: a node, a country, or nothing.
type selection struct {
	node    *globeengine.Node
	country *globeengine.CountrySelection

	// seen is when the node first appeared this session, zero if unknown.
	seen time.Time
}

func (s selection) lines() []string {
	switch {
	case s.node != nil:
		name := s.node.DisplayName
		if name == "" {
			name = string(s.node.ID)
		}
		lines := []string{name, globeengine.CountryName(s.node.CountryCode)}
		if !s.seen.IsZero() {
			lines = append(lines, "seen since "+s.seen.Format("15:04:05"))
		}
		return lines
	case s.country != nil:
		return []string{s.country.Name, fmt.Sprintf("%.1f, %.1f", s.country.Lat, s.country.Lng)}
	}
	return nil
}

// hudPanels lays the summary out as the boxes drawn on the left edge.
func hudPanels(sum globeengine.Summary, q globeengine.Quality, state globeengine.RotationState, sel selection) []panel {
	panels := []panel{{
		title: "REFERRAL GLOBE",
		lines: []string{
			fmt.Sprintf("People       %d", sum.PeopleCount),
			fmt.Sprintf("Countries    %d", sum.CountryCount),
			fmt.Sprintf("Connections  %d", sum.ConnectionCount),
		},
	}}

	if len(sum.Narration) > 0 {
		lines := sum.Narration
		if len(lines) > maxNarrationLines {
			lines = append(lines[:maxNarrationLines:maxNarrationLines], fmt.Sprintf("... %d more", len(sum.Narration)-maxNarrationLines))
		}
		panels = append(panels, panel{title: "YOUR CHAIN", lines: lines})
	}

	if len(sum.Tally) > 0 {
		var lines []string
		for i, c := range sum.Tally {
			if i == maxTallyLines {
				break
			}
			lines = append(lines, fmt.Sprintf("%-20s %d", truncate(c.Name, 20), c.Count))
		}
		panels = append(panels, panel{title: "TOP COUNTRIES", lines: lines})
	}

	if lines := sel.lines(); len(lines) > 0 {
		panels = append(panels, panel{title: "SELECTED", lines: lines})
	}

	profile := "full"
	if q.SafeProfile {
		profile = "safe"
	}
	panels = append(panels, panel{title: "RENDER", lines: []string{
		fmt.Sprintf("%.0f fps  scale %.2f  %s", q.FPS, q.ResolutionScale, profile),
		state.String(),
	}})
	return panels
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func (g *Game) drawSummary(screen *ebiten.Image) {
	if g.monoSource == nil || g.fontSource == nil {
		return
	}
	margin, fontSize := 24.0, 14.0
	if g.width > 2000 {
		margin, fontSize = 48.0, 28.0
	}
	face := &text.GoTextFace{Source: g.monoSource, Size: fontSize}
	titleFace := &text.GoTextFace{Source: g.fontSource, Size: fontSize * 0.8}
	lineH := fontSize * 1.4

	panels := hudPanels(g.engine.Summary(), g.engine.Quality(), g.engine.RotationState(), g.selection)
	y := margin
	for _, p := range panels {
		boxW, _ := text.Measure(p.title, titleFace, 0)
		for _, l := range p.lines {
			tw, _ := text.Measure(l, face, 0)
			boxW = max(boxW, tw)
		}
		boxW += 30
		boxH := fontSize + 20 + float64(len(p.lines))*lineH

		vector.DrawFilledRect(screen, float32(margin-10), float32(y), float32(boxW), float32(boxH), colorPanelFill, false)
		vector.StrokeRect(screen, float32(margin-10), float32(y), float32(boxW), float32(boxH), 1, colorPanelStroke, false)
		vector.DrawFilledRect(screen, float32(margin-10), float32(y), 4, float32(fontSize+10), colorAccent, false)

		titleOp := &text.DrawOptions{}
		titleOp.GeoM.Translate(margin+5, y+6)
		titleOp.ColorScale.Scale(1, 1, 1, 0.5)
		text.Draw(screen, p.title, titleFace, titleOp)

		ly := y + fontSize + 14
		for _, l := range p.lines {
			op := &text.DrawOptions{}
			op.GeoM.Translate(margin, ly)
			op.ColorScale.Scale(1, 1, 1, 0.8)
			text.Draw(screen, l, face, op)
			ly += lineH
		}
		y += boxH + 12
	}
}
