package charts

import (
	"errors"
	"fmt"
	"io"
	"math"

	"npdstudio/domain/scenario"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNoData is returned when there is nothing to draw
var ErrNoData = errors.New("no chart data available")

const (
	defaultWidth  = 900
	defaultHeight = 420
)

var retailerColors = map[scenario.Retailer]drawing.Color{
	scenario.Asda:        drawing.ColorFromHex("4e79a7"),
	scenario.Morrisons:   drawing.ColorFromHex("f28e2c"),
	scenario.Tesco:       drawing.ColorFromHex("e15759"),
	scenario.Sainsburys:  drawing.ColorFromHex("76b7b2"),
	scenario.TotalMarket: drawing.ColorFromHex("1f2937"),
	scenario.Others:      drawing.ColorFromHex("595959"),
}

func lineStyle(col drawing.Color) chart.Style {
	return chart.Style{
		StrokeColor: col,
		StrokeWidth: 2,
		DotColor:    col,
		DotWidth:    3,
	}
}

// RenderPrediction draws the monthly forecast of every retailer as a line chart.
func RenderPrediction(w io.Writer, title string, pred scenario.PredictionResponse) error {
	months, series := PredictionSeries(pred)
	if len(months) == 0 || len(series) == 0 {
		return ErrNoData
	}

	xs := make([]float64, len(months))
	ticks := make([]chart.Tick, len(months))
	for i, m := range months {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: m}
	}

	var top float64
	lines := make([]chart.Series, 0, len(series))
	for _, s := range series {
		for _, v := range s.Values {
			top = math.Max(top, v)
		}
		lines = append(lines, chart.ContinuousSeries{
			Name:    string(s.Retailer),
			XValues: xs,
			YValues: s.Values,
			Style:   lineStyle(retailerColors[s.Retailer]),
		})
	}

	ch := chart.Chart{
		Title:      title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: math.Max(float64(len(months)-1), 1)},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Name:  "Volume",
			Range: &chart.ContinuousRange{Min: 0, Max: upperBound(top)},
		},
		Series: lines,
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render prediction chart: %w", err)
	}
	return nil
}

// RenderShares draws the retailer shares as a doughnut. Negative remainders are drawn
// as empty slices.
func RenderShares(w io.Writer, title string, shares []Share) error {
	values := make([]chart.Value, 0, len(shares))
	var total float64
	for _, s := range shares {
		v := math.Max(s.Percent, 0)
		total += v
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s: %.1f%%", s.Retailer, s.Percent),
			Value: v,
			Style: chart.Style{FillColor: retailerColors[s.Retailer].WithAlpha(160), StrokeColor: retailerColors[s.Retailer]},
		})
	}
	if total <= 0 {
		return ErrNoData
	}

	donut := chart.DonutChart{
		Title:  title,
		Width:  defaultHeight,
		Height: defaultHeight,
		Values: values,
	}
	if err := donut.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render share chart: %w", err)
	}
	return nil
}

// RenderProfile draws the per-position mean of an uploaded distribution as a filled
// area, bounded by the min and max lines.
func RenderProfile(w io.Writer, title string, profile []PositionStats) error {
	var populated bool
	xs := make([]float64, len(profile))
	means := make([]float64, len(profile))
	mins := make([]float64, len(profile))
	maxs := make([]float64, len(profile))
	var top, bottom float64
	for i, ps := range profile {
		xs[i] = float64(ps.Position)
		means[i], mins[i], maxs[i] = ps.Mean, ps.Min, ps.Max
		populated = populated || ps.Count > 0
		top = math.Max(top, ps.Max)
		bottom = math.Min(bottom, ps.Min)
	}
	if !populated || len(profile) < 2 {
		return ErrNoData
	}

	area := drawing.ColorFromHex("3b82f6")
	ch := chart.Chart{
		Title:      title,
		Width:      defaultWidth,
		Height:     defaultHeight,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: chart.XAxis{
			Name:  "Position",
			Range: &chart.ContinuousRange{Min: xs[0], Max: xs[len(xs)-1]},
		},
		YAxis: chart.YAxis{
			Name:  "Distribution",
			Range: &chart.ContinuousRange{Min: bottom, Max: upperBound(top)},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    "Mean",
				XValues: xs,
				YValues: means,
				Style:   chart.Style{StrokeColor: area, StrokeWidth: 1.5, FillColor: area.WithAlpha(80)},
			},
			chart.ContinuousSeries{Name: "Min", XValues: xs, YValues: mins, Style: lineStyle(chart.ColorAlternateGray)},
			chart.ContinuousSeries{Name: "Max", XValues: xs, YValues: maxs, Style: lineStyle(chart.ColorAlternateGray)},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("render distribution chart: %w", err)
	}
	return nil
}

func upperBound(top float64) float64 {
	if top <= 0 {
		return 1
	}
	return top * 1.1
}
