package match

import (
	"fmt"
	"sync"
	"testing"

	drift_errors "driftchat/pkg/errors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func registerConn(t *testing.T, r *Registry, connID string) uuid.UUID {
	t.Helper()
	userID := uuid.New()
	superseded := r.Register(userID, connID)
	require.Empty(t, superseded)
	return userID
}

func TestRegisterSupersedesPriorConnection(t *testing.T) {
	r := NewRegistry()
	userID := uuid.New()

	require.Empty(t, r.Register(userID, "c1"))
	require.True(t, r.Enqueue("c1"))

	superseded := r.Register(userID, "c2")
	assert.Equal(t, "c1", superseded)

	_, ok := r.Lookup("c1")
	assert.False(t, ok, "superseded connection must lose its presence entry")
	assert.False(t, r.IsQueued("c1"), "superseded connection must leave the queue")

	conn, ok := r.ConnectionOf(userID)
	require.True(t, ok)
	assert.Equal(t, "c2", conn)
}

func TestEnqueueRequiresRegistration(t *testing.T) {
	r := NewRegistry()
	assert.False(t, r.Enqueue("ghost"))
	assert.Zero(t, r.WaitingCount())
}

func TestEnqueueIsExclusiveWithQueueAndPairs(t *testing.T) {
	r := NewRegistry()
	registerConn(t, r, "c1")
	registerConn(t, r, "c2")

	require.True(t, r.Enqueue("c1"))
	assert.False(t, r.Enqueue("c1"), "double enqueue must be a no-op")
	assert.Equal(t, 1, r.WaitingCount())

	require.True(t, r.Enqueue("c2"))
	require.NoError(t, r.Pair("c1", "c2"))

	assert.False(t, r.Enqueue("c1"), "paired connections may not re-enter the queue")
	assert.False(t, r.Enqueue("c2"))
	assert.Zero(t, r.WaitingCount())
}

func TestPairSymmetryAndQueueRemoval(t *testing.T) {
	r := NewRegistry()
	registerConn(t, r, "c1")
	registerConn(t, r, "c2")
	require.True(t, r.Enqueue("c2"))

	require.NoError(t, r.Pair("c1", "c2"))

	p1, ok := r.Partner("c1")
	require.True(t, ok)
	p2, ok := r.Partner("c2")
	require.True(t, ok)
	assert.Equal(t, "c2", p1)
	assert.Equal(t, "c1", p2)

	assert.False(t, r.IsQueued("c1"))
	assert.False(t, r.IsQueued("c2"))
	assert.Equal(t, 2, r.PairedCount())
}

func TestPairRejectsSelf(t *testing.T) {
	r := NewRegistry()
	registerConn(t, r, "c1")
	require.True(t, r.Enqueue("c1"))

	err := r.Pair("c1", "c1")
	assert.ErrorIs(t, err, drift_errors.ErrSelfPairing)
	assert.True(t, r.IsQueued("c1"), "failed pairing must leave the queue untouched")
}

func TestPairRejectsStaleCandidate(t *testing.T) {
	r := NewRegistry()
	registerConn(t, r, "c1")
	registerConn(t, r, "c2")

	// c2 registered but never queued.
	err := r.Pair("c1", "c2")
	assert.ErrorIs(t, err, drift_errors.ErrStaleConnection)

	require.True(t, r.Enqueue("c2"))
	r.Unregister("c2")
	err = r.Pair("c1", "c2")
	assert.ErrorIs(t, err, drift_errors.ErrStaleConnection)
}

func TestPairRejectsAlreadyPaired(t *testing.T) {
	r := NewRegistry()
	registerConn(t, r, "c1")
	registerConn(t, r, "c2")
	registerConn(t, r, "c3")
	require.True(t, r.Enqueue("c2"))
	require.NoError(t, r.Pair("c1", "c2"))

	require.True(t, r.Enqueue("c3"))
	err := r.Pair("c1", "c3")
	assert.ErrorIs(t, err, drift_errors.ErrAlreadyPaired)
	assert.True(t, r.IsQueued("c3"))
}

func TestQueueSnapshotPreservesFIFOOrder(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 5; i++ {
		connID := fmt.Sprintf("c%d", i)
		registerConn(t, r, connID)
		require.True(t, r.Enqueue(connID))
	}

	assert.Equal(t, []string{"c0", "c1", "c2", "c3", "c4"}, r.QueueSnapshot())

	require.True(t, r.RemoveFromQueue("c2"))
	assert.Equal(t, []string{"c0", "c1", "c3", "c4"}, r.QueueSnapshot())
}

func TestUnpairIsIdempotent(t *testing.T) {
	r := NewRegistry()
	registerConn(t, r, "c1")
	registerConn(t, r, "c2")
	require.True(t, r.Enqueue("c2"))
	require.NoError(t, r.Pair("c1", "c2"))

	p, ok := r.Unpair("c1")
	require.True(t, ok)
	assert.Equal(t, "c2", p.PartnerConn)
	assert.Zero(t, r.PairedCount())

	_, ok = r.Unpair("c1")
	assert.False(t, ok)
	_, ok = r.Unpair("c2")
	assert.False(t, ok, "unpairing either side removes both directions")
}

func TestUnpairResolvesUsersAfterSupersede(t *testing.T) {
	r := NewRegistry()
	aliceID := registerConn(t, r, "c1")
	bobID := registerConn(t, r, "c2")
	require.True(t, r.Enqueue("c2"))
	require.NoError(t, r.Pair("c1", "c2"))

	// Alice reconnects; c1 loses its presence entry but the pairing must
	// still identify both users for teardown.
	assert.Equal(t, "c1", r.Register(aliceID, "c1b"))
	_, ok := r.Lookup("c1")
	require.False(t, ok)

	p, ok := r.Unpair("c1")
	require.True(t, ok)
	assert.Equal(t, "c2", p.PartnerConn)
	assert.Equal(t, aliceID, p.UserID)
	assert.Equal(t, bobID, p.PartnerID)
}

func TestUnregisterIsIdempotentAndLeavesPairsAlone(t *testing.T) {
	r := NewRegistry()
	registerConn(t, r, "c1")
	registerConn(t, r, "c2")
	require.True(t, r.Enqueue("c2"))
	require.NoError(t, r.Pair("c1", "c2"))

	r.Unregister("c1")
	r.Unregister("c1")

	_, ok := r.Lookup("c1")
	assert.False(t, ok)
	// Pair entries survive until an explicit Unpair by the teardown path.
	partner, ok := r.Partner("c2")
	require.True(t, ok)
	assert.Equal(t, "c1", partner)
}

func TestConcurrentJoinersPairAtMostOnce(t *testing.T) {
	r := NewRegistry()
	registerConn(t, r, "waiting")
	require.True(t, r.Enqueue("waiting"))

	const joiners = 16
	for i := 0; i < joiners; i++ {
		registerConn(t, r, fmt.Sprintf("j%d", i))
	}

	var wg sync.WaitGroup
	errs := make([]error, joiners)
	for i := 0; i < joiners; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = r.Pair(fmt.Sprintf("j%d", i), "waiting")
		}(i)
	}
	wg.Wait()

	won := 0
	for _, err := range errs {
		if err == nil {
			won++
		}
	}
	assert.Equal(t, 1, won, "exactly one joiner may claim a waiting connection")
	assert.Equal(t, 2, r.PairedCount())
	assert.Zero(t, r.WaitingCount())
}
