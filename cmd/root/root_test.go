package root

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubFlusher struct{ err error }

func (s stubFlusher) Flush(context.Context) error { return s.err }

func TestSettle(t *testing.T) {
	flushErr := errors.New("flush timed out")
	stateErr := errors.New("disk full")

	tests := []struct {
		name  string
		flush error
		state error
		want  error
	}{
		{"clean", nil, nil, nil},
		{"state error", nil, stateErr, stateErr},
		{"flush error wins", flushErr, stateErr, flushErr},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Settle(context.Background(), stubFlusher{tt.flush}, func() error { return tt.state })
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
