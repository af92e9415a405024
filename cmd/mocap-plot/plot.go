package main

import (
	"context"
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/mocap.stream/internal/units"
)

// trackPlots holds the two rendered views of a session.
type trackPlots struct {
	topDown *plot.Plot
	height  *plot.Plot
	points  int
}

// buildPlots draws each subject as one line on a top-down X/Y plot and on a
// height-over-frame plot. Positions are converted to unit.
func buildPlots(ctx context.Context, src trackSource, session string, subjects []string, unit string) (*trackPlots, error) {
	top := plot.New()
	top.Title.Text = fmt.Sprintf("Session %s - top-down", shortID(session))
	top.X.Label.Text = fmt.Sprintf("X (%s)", unit)
	top.Y.Label.Text = fmt.Sprintf("Y (%s)", unit)
	top.Add(plotter.NewGrid())

	height := plot.New()
	height.Title.Text = fmt.Sprintf("Session %s - height", shortID(session))
	height.X.Label.Text = "Frame"
	height.Y.Label.Text = fmt.Sprintf("Z (%s)", unit)
	height.Add(plotter.NewGrid())

	colors := generateColors(len(subjects))
	out := &trackPlots{topDown: top, height: height}
	for i, subject := range subjects {
		poses, err := src.SubjectTrack(ctx, session, subject)
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", subject, err)
		}
		if len(poses) == 0 {
			continue
		}

		xy := make(plotter.XYs, len(poses))
		z := make(plotter.XYs, len(poses))
		for j, p := range poses {
			xy[j] = plotter.XY{X: units.ConvertLength(p.X, unit), Y: units.ConvertLength(p.Y, unit)}
			z[j] = plotter.XY{X: float64(p.FrameSeq), Y: units.ConvertLength(p.Z, unit)}
		}

		xyLine, err := plotter.NewLine(xy)
		if err != nil {
			return nil, fmt.Errorf("create %s track line: %w", subject, err)
		}
		xyLine.Color = colors[i]
		xyLine.Width = vg.Points(1)
		top.Add(xyLine)
		top.Legend.Add(subject, xyLine)

		zLine, err := plotter.NewLine(z)
		if err != nil {
			return nil, fmt.Errorf("create %s height line: %w", subject, err)
		}
		zLine.Color = colors[i]
		zLine.Width = vg.Points(1)
		height.Add(zLine)
		height.Legend.Add(subject, zLine)

		out.points += len(poses)
	}

	for _, p := range []*plot.Plot{top, height} {
		p.Legend.Top = true
		p.Legend.Left = false
		p.Legend.XOffs = -10
		p.Legend.YOffs = -10
	}
	return out, nil
}

// save writes the top-down view to path and the height view next to it with
// a "_height" suffix.
func (p *trackPlots) save(path string) (string, error) {
	if err := p.topDown.Save(8*vg.Inch, 8*vg.Inch, path); err != nil {
		return "", fmt.Errorf("save top-down plot: %w", err)
	}
	ext := filepath.Ext(path)
	heightPath := strings.TrimSuffix(path, ext) + "_height" + ext
	if err := p.height.Save(14*vg.Inch, 6*vg.Inch, heightPath); err != nil {
		return "", fmt.Errorf("save height plot: %w", err)
	}
	return heightPath, nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// generateColors creates a palette of distinct colors for subject lines
func generateColors(n int) []color.Color {
	if n <= 0 {
		return nil
	}

	colors := make([]color.Color, n)
	for i := 0; i < n; i++ {
		hue := float64(i) / float64(n)
		r, g, b := hslToRGB(hue, 0.7, 0.5)
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}

// hslToRGB converts HSL to RGB (0-255 range)
func hslToRGB(h, s, l float64) (r, g, b uint8) {
	var rf, gf, bf float64

	if s == 0 {
		rf, gf, bf = l, l, l
	} else {
		var q float64
		if l < 0.5 {
			q = l * (1 + s)
		} else {
			q = l + s - l*s
		}
		p := 2*l - q
		rf = hueToRGB(p, q, h+1.0/3.0)
		gf = hueToRGB(p, q, h)
		bf = hueToRGB(p, q, h-1.0/3.0)
	}

	return uint8(rf * 255), uint8(gf * 255), uint8(bf * 255)
}

func hueToRGB(p, q, t float64) float64 {
	if t < 0 {
		t += 1
	}
	if t > 1 {
		t -= 1
	}
	if t < 1.0/6.0 {
		return p + (q-p)*6*t
	}
	if t < 1.0/2.0 {
		return q
	}
	if t < 2.0/3.0 {
		return p + (q-p)*(2.0/3.0-t)*6
	}
	return p
}
