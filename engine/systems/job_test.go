package systems

import (
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobSystemValidates(t *testing.T) {
	_, err := NewJobSystem(0, 1)
	assert.ErrorIs(t, err, ErrNoWorkers)
	_, err = NewJobSystem(1, -1)
	assert.ErrorIs(t, err, ErrNegativeChannelSize)
}

func TestJobCallbacksRunOnWait(t *testing.T) {
	js, err := NewJobSystem(4, 8)
	require.NoError(t, err)
	defer js.Shutdown()

	var ran atomic.Int32
	sum := 0
	failures := 0
	for i := 1; i <= 10; i++ {
		i := i
		js.Submit(Job{
			Name: "add",
			Run: func() (interface{}, error) {
				ran.Add(1)
				if i == 10 {
					return nil, errors.New("ten")
				}
				return i, nil
			},
			OnComplete: func(result interface{}) { sum += result.(int) },
			OnFailure:  func(err error) { failures++ },
		})
	}
	js.Wait()

	assert.EqualValues(t, 10, ran.Load())
	assert.Equal(t, 45, sum)
	assert.Equal(t, 1, failures)
	assert.Zero(t, js.Update())
}

func TestSubmitDrainsWhenFull(t *testing.T) {
	js, err := NewJobSystem(1, 0)
	require.NoError(t, err)
	defer js.Shutdown()

	done := 0
	for i := 0; i < 20; i++ {
		js.Submit(Job{
			Run:        func() (interface{}, error) { return nil, nil },
			OnComplete: func(interface{}) { done++ },
		})
	}
	js.Wait()
	assert.Equal(t, 20, done)
}

func TestShutdownIsIdempotent(t *testing.T) {
	js, err := NewJobSystem(2, 2)
	require.NoError(t, err)
	js.Submit(Job{Run: func() (interface{}, error) { return nil, nil }})
	require.NoError(t, js.Shutdown())
	require.NoError(t, js.Shutdown())
}
