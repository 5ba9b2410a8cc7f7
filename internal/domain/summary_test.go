package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"mohtel", "Gaza Ministry of Health"},
		{"gmotel", "Gaza Government Media Office"},
		{"un_ocha", "UN OCHA"},
		{"west_bank_ministry", "West Bank Ministry"},
		{"", "Unknown Source"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, SourceName(tc.in), tc.in)
	}
}

func TestSummarize_Gaza(t *testing.T) {
	series := Series{
		{Date: "2025-05-01", Source: "mohtel", Killed: 52000, Injured: 118000,
			ChildrenKilled: staleChildrenKilled, WomenKilled: 12500,
			MedicalKilled: 1400, PressKilled: 210, DailyKilled: 40, DailyInjured: 90},
		{Date: "2025-04-30", Killed: 51960},
	}

	s, ok := Summarize(series, RegionGaza)
	require.True(t, ok)

	assert.Equal(t, "Gaza", s.RegionName)
	assert.Equal(t, "2025-05-01", s.Date)
	assert.Equal(t, "Gaza Ministry of Health", s.Source)
	assert.Equal(t, int64(40), s.DailyKilled)
	assert.True(t, s.Children.IsEstimate)
	assert.Equal(t, staleDemographicsDate, s.Children.LastUpdated)
	require.NotNil(t, s.Women)
	assert.False(t, s.Women.IsEstimate)
	require.NotNil(t, s.Medical)
	assert.Equal(t, int64(1400), *s.Medical)
	assert.Nil(t, s.Settler)
}

func TestSummarize_WestBank(t *testing.T) {
	series := Series{{Date: "2025-05-01", Killed: 900, ChildrenKilled: staleChildrenKilled, SettlerAttacksCum: 1500}}

	s, ok := Summarize(series, RegionWestBank)
	require.True(t, ok)

	assert.False(t, s.Children.IsEstimate, "frozen figures only apply to Gaza")
	assert.Nil(t, s.Women)
	assert.Nil(t, s.Press)
	require.NotNil(t, s.Settler)
	assert.Equal(t, int64(1500), *s.Settler)
}

func TestSummarize_Empty(t *testing.T) {
	_, ok := Summarize(nil, RegionGaza)
	assert.False(t, ok)
}
