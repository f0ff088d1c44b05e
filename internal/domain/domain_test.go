package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDay(t *testing.T) {
	cases := map[string]Day{
		"06-01": 0,
		"06-30": 29,
		"07-01": 30,
		"08-31": 91,
	}
	for in, want := range cases {
		got, err := ParseDay(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
		assert.Equal(t, in, got.String())
	}

	_, err := ParseDay("05-31")
	assert.Error(t, err)

	_, err = ParseDay("6-1")
	assert.Error(t, err)
}

func TestStampFormatting(t *testing.T) {
	s := StampAt(30, 23*60+59)
	assert.Equal(t, "07-01 23:59", s.String())
	assert.Equal(t, Day(30), s.Day())

	s += 2
	assert.Equal(t, "07-02 00:01", s.String())

	b, err := json.Marshal(s)
	require.NoError(t, err)
	assert.JSONEq(t, `"07-02 00:01"`, string(b))

	var back Stamp
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, s, back)
}

func TestStampAfterNewYear(t *testing.T) {
	// a train leaving 12-31 at 22:00 that arrives two days later
	s := StampAt(213, 22*60) + Stamp(2*MinutesPerDay-18*60)
	assert.Equal(t, "01-02 04:00", s.String())
	assert.Equal(t, Day(215), s.Day())

	b, err := json.Marshal(s)
	require.NoError(t, err)

	var back Stamp
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, s, back)

	require.NoError(t, json.Unmarshal([]byte(`"05-31 23:59"`), &back))
	assert.Equal(t, StampAt(364, 23*60+59), back)
}

func TestParseClock(t *testing.T) {
	m, err := ParseClock("19:19")
	require.NoError(t, err)
	assert.Equal(t, 19*60+19, m)

	_, err = ParseClock("25:00")
	assert.Error(t, err)
}

func TestNewTrainSchedule(t *testing.T) {
	tr := NewTrain(TrainSpec{
		ID:            "G1",
		Stations:      []string{"A", "B", "C", "D"},
		SeatNum:       5,
		Prices:        []int{10, 20, 30},
		StartTime:     23 * 60,
		TravelTimes:   []int{60, 120, 30},
		StopoverTimes: []int{5, 10},
		SaleStart:     0,
		SaleEnd:       3,
		Type:          "G",
	})

	assert.Equal(t, []int{0, 10, 30, 60}, tr.Prices)
	assert.Equal(t, 23*60, tr.Departure(0))
	assert.Equal(t, 24*60, tr.Arrival(1))
	assert.Equal(t, 24*60+5, tr.Departure(1))
	assert.Equal(t, 26*60+5, tr.Arrival(2))
	assert.Equal(t, 26*60+15, tr.Departure(2))
	assert.Equal(t, 26*60+45, tr.Arrival(3))

	assert.Equal(t, 50, tr.Fare(1, 3))
	assert.Equal(t, 2, tr.StationIndex("C"))
	assert.Equal(t, -1, tr.StationIndex("Z"))

	// leaving B on day 5 means the train left A on day 4
	assert.Equal(t, Day(4), tr.SaleDayFor(1, 5))
	assert.Equal(t, Day(5), tr.SaleDayFor(0, 5))

	assert.True(t, tr.OnSale(3))
	assert.False(t, tr.OnSale(4))
}
