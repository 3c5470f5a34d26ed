package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func TestNew_TripsAfterConsecutiveFailures(t *testing.T) {
	cb := New[string](Options{Name: "feed", ConsecutiveFailures: 3, Timeout: time.Minute})

	for i := 0; i < 3; i++ {
		_, err := cb.Execute(func() (string, error) { return "", errUpstream })
		require.ErrorIs(t, err, errUpstream)
	}

	_, err := cb.Execute(func() (string, error) { return "ok", nil })
	assert.True(t, IsOpen(err))
}

func TestNew_IsSuccessfulKeepsBreakerClosed(t *testing.T) {
	declined := errors.New("card declined")
	cb := New[int](Options{
		Name:                "gateway",
		ConsecutiveFailures: 2,
		Timeout:             time.Minute,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, declined)
		},
	})

	for i := 0; i < 5; i++ {
		_, err := cb.Execute(func() (int, error) { return 0, declined })
		require.ErrorIs(t, err, declined)
	}

	v, err := cb.Execute(func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)
}

func TestIsOpen(t *testing.T) {
	assert.False(t, IsOpen(nil))
	assert.False(t, IsOpen(errUpstream))
}
