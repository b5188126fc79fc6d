package conversation

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePairIsCanonical(t *testing.T) {
	a := uuid.New()
	b := uuid.New()

	x1, y1 := NormalizePair(a, b)
	x2, y2 := NormalizePair(b, a)

	assert.Equal(t, x1, x2)
	assert.Equal(t, y1, y2)
	require.NotEqual(t, x1, y1)
	assert.True(t, x1.String() < y1.String())
}

func TestOther(t *testing.T) {
	a := uuid.New()
	b := uuid.New()
	pa, pb := NormalizePair(a, b)
	c := Conversation{ID: uuid.New(), ParticipantA: pa, ParticipantB: pb}

	assert.Equal(t, pb, c.Other(pa))
	assert.Equal(t, pa, c.Other(pb))
}
