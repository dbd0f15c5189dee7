// Package charts renders admin report series as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"math"

	"fintrack/internal/service"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// ErrNotEnoughData is returned when a report has fewer than two months to plot.
var ErrNotEnoughData = errors.New("at least two months are needed to draw a chart")

var palette = []drawing.Color{chart.ColorGreen, chart.ColorRed, chart.ColorBlue, chart.ColorOrange}

// RevenueVsCosts draws revenue and costs per month as two lines.
func RevenueVsCosts(r *service.Report) ([]byte, error) {
	if r == nil || len(r.Revenue.Labels) < 2 || len(r.Revenue.Datasets) == 0 || len(r.Costs.Datasets) == 0 {
		return nil, ErrNotEnoughData
	}
	return render("Revenue vs costs", r.Revenue.Labels, []service.Dataset{
		r.Revenue.Datasets[0],
		r.Costs.Datasets[0],
	}, moneyFormatter)
}

// Users draws new and paid users per month.
func Users(r *service.Report) ([]byte, error) {
	if r == nil || len(r.Users.Labels) < 2 {
		return nil, ErrNotEnoughData
	}
	return render("Users", r.Users.Labels, r.Users.Datasets, countFormatter)
}

func render(title string, labels []string, datasets []service.Dataset, yFormat chart.ValueFormatter) ([]byte, error) {
	xValues := make([]float64, len(labels))
	ticks := make([]chart.Tick, len(labels))
	for i, l := range labels {
		xValues[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: l}
	}

	maxY := 0.0
	series := make([]chart.Series, 0, len(datasets))
	for i, ds := range datasets {
		if len(ds.Data) != len(labels) {
			return nil, fmt.Errorf("dataset %q has %d points for %d labels", ds.Label, len(ds.Data), len(labels))
		}
		for _, v := range ds.Data {
			maxY = math.Max(maxY, v)
		}
		color := palette[i%len(palette)]
		series = append(series, chart.ContinuousSeries{
			Name:    ds.Label,
			XValues: xValues,
			YValues: ds.Data,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		})
	}
	// A flat zero series would otherwise give the y axis an empty range.
	if maxY <= 0 {
		maxY = 1
	}

	graph := chart.Chart{
		Title:  title,
		Width:  960,
		Height: 480,
		Background: chart.Style{
			Padding:   chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
			FillColor: chart.ColorWhite,
		},
		XAxis: chart.XAxis{
			Ticks: ticks,
			Range: &chart.ContinuousRange{Min: 0, Max: float64(len(labels) - 1)},
		},
		YAxis: chart.YAxis{
			ValueFormatter: yFormat,
			Range:          &chart.ContinuousRange{Min: 0, Max: maxY * 1.1},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("failed to render %s chart: %w", title, err)
	}
	return buf.Bytes(), nil
}

func moneyFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%.0f", f)
	}
	return ""
}

func countFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return fmt.Sprintf("%d", int(f))
	}
	return ""
}
