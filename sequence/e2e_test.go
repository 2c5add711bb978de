package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// Full lifecycle: enroll, dispatch step 0, get a reply, verify the rest of
// the sequence is cancelled and nothing is due anymore.
func TestLifecycleReplyHaltsSequence(t *testing.T) {
	ms := newMemStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	contact, campaign, result := enrollFixture(t, ms, now)

	delivery := &fakeDelivery{}
	e := newTestExecutor(ms, delivery, nil, now)
	sel := NewSelector(ms, testLogger())

	due, err := sel.CollectDue(now, 0)
	require.NoError(t, err)
	require.Len(t, due, 1)
	res, err := e.Dispatch(due[0].ID)
	require.NoError(t, err)
	require.Equal(t, models.SendStatusSent, res.Status)

	// The prospect answers the intro email.
	r := newTestReactor(ms)
	reaction, err := r.ApplyEvent(&Event{
		Type:              EventReplied,
		ProviderMessageID: delivery.sent[0].MessageID,
		Timestamp:         now.Add(6 * time.Hour),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, reaction.Halted)

	enrollment, err := ms.GetEnrollment(result.EnrollmentID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStateReplied, enrollment.State())

	// Weeks later nothing is due and nothing else went out.
	due, err = sel.CollectDue(now.Add(30*24*time.Hour), 0)
	require.NoError(t, err)
	assert.Empty(t, due)
	assert.Len(t, delivery.sent, 1)

	contactAfter, _ := ms.GetContact(contact.ID)
	assert.NotNil(t, contactAfter.RespondedAt)
	campaignAfter, _ := ms.GetCampaign(campaign.ID)
	assert.Equal(t, 1, campaignAfter.ReplyCount)
	assert.Equal(t, 1, campaignAfter.SentCount)
}

// Full lifecycle without a reply: every step goes out on schedule and the
// enrollment completes.
func TestLifecycleRunsToCompletion(t *testing.T) {
	ms := newMemStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	contact, _, result := enrollFixture(t, ms, now)

	delivery := &fakeDelivery{}
	sel := NewSelector(ms, testLogger())

	clock := now
	for i := 0; i < 3; i++ {
		e := newTestExecutor(ms, delivery, nil, clock)
		due, err := sel.CollectDue(clock, 0)
		require.NoError(t, err)
		require.Len(t, due, 1, "exactly one send due at step %d", i)
		_, err = e.Dispatch(due[0].ID)
		require.NoError(t, err)
		clock = clock.Add(4 * 24 * time.Hour)
	}

	require.Len(t, delivery.sent, 3)
	for _, sent := range delivery.sent {
		assert.Equal(t, contact.Email, sent.To)
	}

	enrollment, err := ms.GetEnrollment(result.EnrollmentID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStateCompleted, enrollment.State())
	assert.Equal(t, 2, enrollment.CurrentStep)
}
