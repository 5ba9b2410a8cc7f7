package render

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/couchcryptid/casualty-tracker/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testChart(dates ...string) domain.Chart {
	var c domain.Chart
	for i, d := range dates {
		c.Points = append(c.Points, domain.ChartPoint{Label: d, Date: d, Killed: int64(10 * i), Injured: int64(30 * i)})
	}
	return c
}

func TestPNG(t *testing.T) {
	var buf bytes.Buffer
	err := PNG(&buf, testChart("2024-01-01", "2024-01-02", "2024-01-03"), Options{Title: "Gaza", Width: 640, Height: 320})
	require.NoError(t, err)

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 320, img.Bounds().Dy())
}

func TestPNG_DefaultSizeAndSinglePoint(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, testChart("2024-01-01"), Options{}))

	cfg, err := png.DecodeConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, DefaultWidth, cfg.Width)
	assert.Equal(t, DefaultHeight, cfg.Height)
}

func TestPNG_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, PNG(&buf, domain.Chart{}, Options{}), ErrNoPoints)

	bad := domain.Chart{Points: []domain.ChartPoint{{Date: "Jan 1"}, {Date: "Jan 2"}}}
	assert.Error(t, PNG(&buf, bad, Options{}))
}
