package relay

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePin struct {
	levels []bool
	err    error
}

func (p *fakePin) Set(high bool) error {
	if p.err != nil {
		return p.err
	}
	p.levels = append(p.levels, high)
	return nil
}

func TestRelay_SetIdempotent(t *testing.T) {
	pin := &fakePin{}
	r := New(pin, false)

	require.NoError(t, r.Set(true))
	require.NoError(t, r.Set(true))

	assert.True(t, r.State())
	// Driven on every call, no toggle semantics.
	assert.Equal(t, []bool{true, true}, pin.levels)
}

func TestRelay_Off(t *testing.T) {
	pin := &fakePin{}
	r := New(pin, false)

	require.NoError(t, r.Set(true))
	require.NoError(t, r.Off())
	require.NoError(t, r.Off())

	assert.False(t, r.State())
	assert.Equal(t, []bool{true, false, false}, pin.levels)
}

func TestRelay_ActiveLow(t *testing.T) {
	tests := []struct {
		name      string
		activeLow bool
		on        bool
		wantLevel bool
	}{
		{"active high on", false, true, true},
		{"active high off", false, false, false},
		{"active low on", true, true, false},
		{"active low off", true, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pin := &fakePin{}
			r := New(pin, tt.activeLow)
			require.NoError(t, r.Set(tt.on))
			assert.Equal(t, []bool{tt.wantLevel}, pin.levels)
			assert.Equal(t, tt.on, r.State())
		})
	}
}

func TestRelay_SetError(t *testing.T) {
	boom := errors.New("gpio busy")
	pin := &fakePin{err: boom}
	r := New(pin, false)

	err := r.Set(true)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "set pump on")
	assert.False(t, r.State(), "state must only change after a successful write")
}

func TestRelay_InitialStateOff(t *testing.T) {
	r := New(&fakePin{}, false)
	assert.False(t, r.State())
}
