package interval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, start, end string) Interval {
	t.Helper()
	iv, err := Parse(start, end)
	require.NoError(t, err)
	return iv
}

func TestParseTimeOfDay(t *testing.T) {
	tests := []struct {
		in      string
		want    TimeOfDay
		wantErr error
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 9*60 + 30},
		{in: "23:59", want: 23*60 + 59},
		{in: "24:00", wantErr: ErrInvalidTimeFormat},
		{in: "12:60", wantErr: ErrInvalidTimeFormat},
		{in: "9:00", wantErr: ErrInvalidTimeFormat},
		{in: "09:0", wantErr: ErrInvalidTimeFormat},
		{in: "0900", wantErr: ErrInvalidTimeFormat},
		{in: "ab:cd", wantErr: ErrInvalidTimeFormat},
		{in: "", wantErr: ErrInvalidTimeFormat},
		{in: "09:00 ", wantErr: ErrInvalidTimeFormat},
		{in: "-1:00", wantErr: ErrInvalidTimeFormat},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseTimeOfDay(tc.in)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTimeOfDayString(t *testing.T) {
	tod, err := NewTimeOfDay(9, 5)
	require.NoError(t, err)
	assert.Equal(t, "09:05", tod.String())

	_, err = NewTimeOfDay(24, 0)
	assert.ErrorIs(t, err, ErrInvalidTimeFormat)
}

func TestNewRejectsInvertedAndZeroLength(t *testing.T) {
	pairs := []struct{ start, end string }{
		{"10:00", "09:00"},
		{"09:00", "09:00"},
		{"23:59", "00:00"},
		{"12:30", "12:30"},
	}

	for _, p := range pairs {
		t.Run(p.start+"-"+p.end, func(t *testing.T) {
			_, err := Parse(p.start, p.end)
			assert.ErrorIs(t, err, ErrInvalidInterval)
		})
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{
			name: "touching does not overlap",
			a:    mustParse(t, "09:00", "10:00"),
			b:    mustParse(t, "10:00", "11:00"),
			want: false,
		},
		{
			name: "strict overlap",
			a:    mustParse(t, "09:00", "10:30"),
			b:    mustParse(t, "10:00", "11:00"),
			want: true,
		},
		{
			name: "identical intervals overlap",
			a:    mustParse(t, "09:00", "10:00"),
			b:    mustParse(t, "09:00", "10:00"),
			want: true,
		},
		{
			name: "containment overlaps",
			a:    mustParse(t, "09:00", "17:00"),
			b:    mustParse(t, "12:00", "13:00"),
			want: true,
		},
		{
			name: "disjoint with gap",
			a:    mustParse(t, "09:00", "10:00"),
			b:    mustParse(t, "14:00", "15:00"),
			want: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.a.Overlaps(tc.b))
			// The predicate is symmetric.
			assert.Equal(t, tc.want, tc.b.Overlaps(tc.a))
		})
	}
}

func TestContains(t *testing.T) {
	window := mustParse(t, "09:00", "17:00")

	assert.True(t, window.Contains(mustParse(t, "09:00", "17:00")), "equal bounds are contained")
	assert.True(t, window.Contains(mustParse(t, "10:00", "11:00")))
	assert.True(t, window.Contains(mustParse(t, "09:00", "09:30")))
	assert.True(t, window.Contains(mustParse(t, "16:00", "17:00")))
	assert.False(t, window.Contains(mustParse(t, "08:59", "17:00")))
	assert.False(t, window.Contains(mustParse(t, "09:00", "17:01")))
	assert.False(t, window.Contains(mustParse(t, "18:00", "19:00")))
}

func TestMinutes(t *testing.T) {
	assert.Equal(t, 90, mustParse(t, "09:00", "10:30").Minutes())
	assert.Equal(t, "09:00-10:30", mustParse(t, "09:00", "10:30").String())
}
