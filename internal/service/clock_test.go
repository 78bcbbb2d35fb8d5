package service

import (
	"bytes"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestULIDGenerator_NewID(t *testing.T) {
	ids := NewULIDGenerator(systemClock{})
	first, err := ids.NewID()
	require.NoError(t, err)
	assert.Len(t, first, 26)

	second, err := ids.NewID()
	require.NoError(t, err)
	assert.Greater(t, second, first)
}

func TestULIDGenerator_EntropyFailureIsReturned(t *testing.T) {
	ids := &ulidGenerator{entropy: ulid.Monotonic(bytes.NewReader(nil), 0), clock: systemClock{}}

	var (
		id  string
		err error
	)
	require.NotPanics(t, func() { id, err = ids.NewID() })
	assert.Error(t, err)
	assert.Empty(t, id)
}
