package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

func enrollFixture(t *testing.T, ms *memStore, now time.Time) (*models.Contact, *models.Campaign, *EnrollmentResult) {
	t.Helper()
	contact, campaign := seedSequenceFixtures(ms)
	s := newTestScheduler(ms, nil, now)
	result, err := s.Enroll(contact.ID, campaign.ID, "")
	require.NoError(t, err)
	return contact, campaign, result
}

func TestCollectDueReturnsOnlyRipeSends(t *testing.T) {
	ms := newMemStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	enrollFixture(t, ms, now)

	sel := NewSelector(ms, testLogger())

	// Right after enrollment only step 0 is due.
	due, err := sel.CollectDue(now, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, 0, due[0].StepNumber)

	// Three days later step 1 joins, oldest first.
	due, err = sel.CollectDue(now.Add(3*24*time.Hour), 0)
	require.NoError(t, err)
	require.Len(t, due, 2)
	assert.Equal(t, 0, due[0].StepNumber)
	assert.Equal(t, 1, due[1].StepNumber)
}

func TestCollectDueHonorsLimit(t *testing.T) {
	ms := newMemStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	enrollFixture(t, ms, now)

	sel := NewSelector(ms, testLogger())
	due, err := sel.CollectDue(now.Add(30*24*time.Hour), 2)
	require.NoError(t, err)
	assert.Len(t, due, 2)
}

func TestCollectDueSkipsRepliedEnrollments(t *testing.T) {
	ms := newMemStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, _, result := enrollFixture(t, ms, now)

	repliedAt := now.Add(time.Hour)
	first, err := ms.SetRepliedAt(result.EnrollmentID, repliedAt)
	require.NoError(t, err)
	require.True(t, first)

	sel := NewSelector(ms, testLogger())
	due, err := sel.CollectDue(now.Add(30*24*time.Hour), 0)
	require.NoError(t, err)
	assert.Empty(t, due)

	// The stale rows were flipped to skipped on the way out.
	for _, s := range ms.sends {
		assert.Equal(t, models.SendStatusSkippedReplied, s.Status)
	}
}

func TestReclaimReturnsStuckSends(t *testing.T) {
	ms := newMemStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	enrollFixture(t, ms, now)

	sel := NewSelector(ms, testLogger())
	due, err := sel.CollectDue(now, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)

	claimedAt := now.Add(time.Minute)
	ok, err := ms.ClaimSend(due[0].ID, claimedAt)
	require.NoError(t, err)
	require.True(t, ok)

	// Too fresh to reclaim.
	n, err := sel.Reclaim(10*time.Minute, claimedAt.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, n)

	// Past the timeout the send goes back to scheduled.
	n, err = sel.Reclaim(10*time.Minute, claimedAt.Add(11*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	send, err := ms.GetSend(due[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.SendStatusScheduled, send.Status)
	assert.Nil(t, send.ClaimedAt)
}
