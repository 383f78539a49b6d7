// Package chart renders spending summaries as images.
package chart

import (
	"errors"
	"fmt"
	"math"

	"finance-tracker/internal/summary"

	"github.com/go-analyze/charts"
)

var (
	// ErrNoData is returned when there is nothing to draw.
	ErrNoData = errors.New("chart: no data")
	// ErrInvalidValue is returned for a slice value that is NaN or infinite.
	ErrInvalidValue = errors.New("chart: value is not finite")
)

// RenderPie draws slices as a pie chart and returns it as PNG bytes.
func RenderPie(slices []summary.Slice, title string) ([]byte, error) {
	if len(slices) == 0 {
		return nil, ErrNoData
	}

	values := make([]float64, 0, len(slices))
	names := make([]string, 0, len(slices))
	for _, s := range slices {
		// The rasterizer never terminates on non-finite geometry.
		if math.IsInf(s.Value, 0) || math.IsNaN(s.Value) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidValue, s.Name)
		}
		values = append(values, s.Value)
		names = append(names, s.Name)
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{Text: title}),
		charts.LegendLabelsOptionFunc(names),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}
	return buf, nil
}
