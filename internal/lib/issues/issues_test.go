package issues

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestDefaultStart(t *testing.T) {
	tests := []struct {
		name     string
		priorEnd *int
		latest   int
		want     int
	}{
		{
			name:     "new subscriber starts after latest issue",
			priorEnd: nil,
			latest:   10,
			want:     11,
		},
		{
			name:     "renewal continues after prior end",
			priorEnd: intPtr(22),
			latest:   10,
			want:     23,
		},
		{
			name:     "no issues published yet",
			priorEnd: nil,
			latest:   0,
			want:     1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultStart(tt.priorEnd, tt.latest))
		})
	}
}

func TestValidateStart(t *testing.T) {
	tests := []struct {
		name     string
		priorEnd *int
		start    int
		latest   int
		wantErr  error
	}{
		{
			name:    "start inside the allowed range",
			start:   11,
			latest:  10,
			wantErr: nil,
		},
		{
			name:    "lower bound of the range",
			start:   7,
			latest:  10,
			wantErr: nil,
		},
		{
			name:    "upper bound of the range",
			start:   13,
			latest:  10,
			wantErr: nil,
		},
		{
			name:    "start below the range",
			start:   5,
			latest:  10,
			wantErr: ErrStartOutOfRange,
		},
		{
			name:    "start above the range",
			start:   14,
			latest:  10,
			wantErr: ErrStartOutOfRange,
		},
		{
			name:     "renewal with exact next issue",
			priorEnd: intPtr(22),
			start:    23,
			latest:   22,
			wantErr:  nil,
		},
		{
			name:     "renewal with any other start is rejected",
			priorEnd: intPtr(22),
			start:    24,
			latest:   22,
			wantErr:  ErrRenewalStartMismatch,
		},
		{
			name:     "renewal ignores the plain range check",
			priorEnd: intPtr(30),
			start:    31,
			latest:   10,
			wantErr:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStart(tt.priorEnd, tt.start, tt.latest)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCompute(t *testing.T) {
	tests := []struct {
		name           string
		priorEnd       *int
		requestedStart int
		latest         int
		length         int
		want           *Window
		wantErr        error
	}{
		{
			name:           "new subscriber picks next issue",
			requestedStart: 11,
			latest:         10,
			length:         12,
			want:           &Window{Start: 11, Length: 12, End: 22, IssuesLeft: 12},
		},
		{
			name:           "grandfathered into back issues",
			requestedStart: 7,
			latest:         10,
			length:         4,
			want:           &Window{Start: 7, Length: 4, End: 10, IssuesLeft: 0},
		},
		{
			name:           "issues left never negative",
			requestedStart: 7,
			latest:         10,
			length:         2,
			want:           &Window{Start: 7, Length: 2, End: 8, IssuesLeft: 0},
		},
		{
			name:     "default start without a request",
			latest:   10,
			length:   6,
			want:     &Window{Start: 11, Length: 6, End: 16, IssuesLeft: 6},
			priorEnd: nil,
		},
		{
			name:           "seamless renewal",
			priorEnd:       intPtr(22),
			requestedStart: 23,
			latest:         22,
			length:         12,
			want:           &Window{Start: 23, Length: 12, End: 34, IssuesLeft: 12},
		},
		{
			name:           "renewal with wrong start rejected",
			priorEnd:       intPtr(22),
			requestedStart: 25,
			latest:         22,
			length:         12,
			wantErr:        ErrRenewalStartMismatch,
		},
		{
			name:           "start outside the window rejected",
			requestedStart: 5,
			latest:         10,
			length:         12,
			wantErr:        ErrStartOutOfRange,
		},
		{
			name:    "zero length rejected",
			latest:  10,
			length:  0,
			wantErr: ErrInvalidLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compute(tt.priorEnd, tt.requestedStart, tt.latest, tt.length)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got.Start+got.Length-1, got.End)
			assert.GreaterOrEqual(t, got.IssuesLeft, 0)
		})
	}
}

func TestCompute_ConsecutiveRenewals(t *testing.T) {
	latest := 10
	w, err := Compute(nil, 11, latest, 6)
	require.NoError(t, err)

	// Каждое следующее продление начинается ровно со следующего номера.
	for i := 0; i < 5; i++ {
		prev := w
		w, err = Compute(&prev.End, 0, latest, 6)
		require.NoError(t, err)
		assert.Equal(t, prev.End+1, w.Start)
		assert.Equal(t, w.Start+w.Length-1, w.End)
	}
}

func TestLeft(t *testing.T) {
	assert.Equal(t, 12, Left(22, 10))
	assert.Equal(t, 0, Left(22, 23))
	assert.Equal(t, 0, Left(22, 22))
}
