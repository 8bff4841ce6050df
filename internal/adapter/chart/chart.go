// Package chart renders exploratory charts of the engineered readings to PNG files.
package chart

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/couchcryptid/fire-incident-analytics/internal/domain"
)

// Output file names, relative to the renderer directory.
const (
	HeatmapFile    = "correlation_heatmap.png"
	TimeSeriesFile = "fire_risk_timeseries.png"
)

// Renderer writes the correlation heatmap and the fire-risk time series.
// It implements pipeline.Visualizer.
type Renderer struct {
	dir    string
	logger *slog.Logger
}

// NewRenderer creates a Renderer that writes into dir, creating it if needed.
func NewRenderer(dir string, logger *slog.Logger) *Renderer {
	return &Renderer{dir: dir, logger: logger}
}

// Visualize renders both charts. It has no effect on the readings.
func (r *Renderer) Visualize(ctx context.Context, readings []domain.EngineeredReading) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("create plot dir: %w", err)
	}

	heat, err := correlationHeatmap(domain.CorrelationMatrix(readings), domain.CorrelationColumns)
	if err != nil {
		return err
	}
	if err := save(heat, 8*vg.Inch, 7*vg.Inch, filepath.Join(r.dir, HeatmapFile)); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	series, err := riskTimeSeries(readings)
	if err != nil {
		return err
	}
	if err := save(series, 10*vg.Inch, 6*vg.Inch, filepath.Join(r.dir, TimeSeriesFile)); err != nil {
		return err
	}

	r.logger.Info("plots written", "dir", r.dir, "readings", len(readings))
	return nil
}

// matrixGrid adapts a square matrix to plotter.GridXYZ with row 0 drawn at
// the top.
type matrixGrid [][]float64

func (m matrixGrid) Dims() (c, r int)   { return len(m), len(m) }
func (m matrixGrid) Z(c, r int) float64 { return m[len(m)-1-r][c] }
func (m matrixGrid) X(c int) float64    { return float64(c) }
func (m matrixGrid) Y(r int) float64    { return float64(r) }

func correlationHeatmap(m [][]float64, names []string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Correlation Matrix of Sensor Data"

	cmap := moreland.SmoothBlueRed()
	cmap.SetMin(-1)
	cmap.SetMax(1)
	h := plotter.NewHeatMap(matrixGrid(m), cmap.Palette(255))
	h.Min, h.Max = -1, 1
	p.Add(h)

	var cells plotter.XYLabels
	for r := range m {
		for c := range m {
			cells.XYs = append(cells.XYs, plotter.XY{X: float64(c), Y: float64(len(m) - 1 - r)})
			v := m[r][c]
			if math.IsNaN(v) {
				cells.Labels = append(cells.Labels, "nan")
			} else {
				cells.Labels = append(cells.Labels, fmt.Sprintf("%.2f", v))
			}
		}
	}
	labels, err := plotter.NewLabels(cells)
	if err != nil {
		return nil, fmt.Errorf("heatmap labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = text.XCenter
		labels.TextStyle[i].YAlign = text.YCenter
	}
	p.Add(labels)

	p.NominalX(names...)
	reversed := slices.Clone(names)
	slices.Reverse(reversed)
	p.NominalY(reversed...)
	return p, nil
}

func riskTimeSeries(readings []domain.EngineeredReading) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Fire Risk Score Over Time by Location"
	p.X.Label.Text = "Timestamp"
	p.Y.Label.Text = "FireRiskScore"
	p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04"}
	p.Add(plotter.NewGrid())

	byLocation := make(map[string]plotter.XYs)
	for _, r := range readings {
		byLocation[r.Location] = append(byLocation[r.Location], plotter.XY{
			X: float64(r.Time.Unix()),
			Y: r.FireRiskScore,
		})
	}
	locations := make([]string, 0, len(byLocation))
	for loc := range byLocation {
		locations = append(locations, loc)
	}
	slices.Sort(locations)

	for i, loc := range locations {
		xys := byLocation[loc]
		slices.SortStableFunc(xys, func(a, b plotter.XY) int {
			switch {
			case a.X < b.X:
				return -1
			case a.X > b.X:
				return 1
			default:
				return 0
			}
		})
		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("time series for %q: %w", loc, err)
		}
		line.LineStyle.Color = plotutil.Color(i)
		line.LineStyle.Width = vg.Points(1.5)
		p.Add(line)
		p.Legend.Add(loc, line)
	}
	p.Legend.Top = true
	return p, nil
}

func save(p *plot.Plot, w, h vg.Length, path string) (err error) {
	c := vgimg.New(w, h)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", path, cerr)
		}
	}()
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
