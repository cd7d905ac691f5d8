package chart

import (
	"bytes"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/wcharczuk/go-chart/v2"
)

const chartPoints = 96

// drawPriceChart renders a synthetic price series for the instrument. The
// walk is seeded from instrument+timeframe so repeated renders of the same
// pair look identical.
func drawPriceChart(instrument, timeframe string) ([]byte, error) {
	step := timeframeStep(timeframe)
	rng := rand.New(rand.NewSource(seedFor(instrument + timeframe)))

	now := time.Now().Truncate(step)
	xs := make([]time.Time, chartPoints)
	ys := make([]float64, chartPoints)

	price := 100.0
	for i := 0; i < chartPoints; i++ {
		xs[i] = now.Add(-time.Duration(chartPoints-i) * step)
		price += (rng.Float64() - 0.5) * 0.8
		ys[i] = price
	}

	graph := chart.Chart{
		Title:  instrument + " " + timeframe,
		Width:  800,
		Height: 400,
		XAxis: chart.XAxis{
			ValueFormatter: chart.TimeValueFormatterWithFormat("15:04"),
		},
		Series: []chart.Series{
			chart.TimeSeries{
				Name:    instrument,
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: chart.ColorBlue,
					StrokeWidth: 1.5,
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func timeframeStep(timeframe string) time.Duration {
	switch timeframe {
	case "1h":
		return time.Hour
	case "4h":
		return 4 * time.Hour
	default:
		return 15 * time.Minute
	}
}

func seedFor(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
