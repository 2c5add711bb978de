package sequence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

func newTestAutoEnroller(ms *memStore, batchSize int, now time.Time) *AutoEnroller {
	return NewAutoEnroller(ms, ms, newTestScheduler(ms, nil, now), batchSize, testLogger())
}

func TestAutoEnrollSweepsNewContacts(t *testing.T) {
	ms := newMemStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	contact, campaign := seedSequenceFixtures(ms)
	ms.campaigns[campaign.ID].AutoEnroll = true
	second := ms.addContact(models.Contact{Email: "bob@beta.co", FirstName: "Bob", IsActive: true})

	a := newTestAutoEnroller(ms, 0, now)
	n, err := a.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for _, c := range []uint{contact.ID, second.ID} {
		enrollment, err := ms.FindEnrollment(c, campaign.ID)
		require.NoError(t, err)
		require.NotNil(t, enrollment)
	}
	// Three sends each, scheduled through the regular path.
	assert.Len(t, ms.sends, 6)

	campaignAfter, _ := ms.GetCampaign(campaign.ID)
	assert.Equal(t, 2, campaignAfter.TotalEnrolled)
}

func TestAutoEnrollSkipsAlreadyEnrolled(t *testing.T) {
	ms := newMemStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	contact, campaign := seedSequenceFixtures(ms)
	ms.campaigns[campaign.ID].AutoEnroll = true

	s := newTestScheduler(ms, nil, now)
	_, err := s.Enroll(contact.ID, campaign.ID, "")
	require.NoError(t, err)

	second := ms.addContact(models.Contact{Email: "bob@beta.co", IsActive: true})

	a := newTestAutoEnroller(ms, 0, now)
	n, err := a.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	enrollment, err := ms.FindEnrollment(second.ID, campaign.ID)
	require.NoError(t, err)
	assert.NotNil(t, enrollment)
}

func TestAutoEnrollIgnoresUnflaggedCampaigns(t *testing.T) {
	ms := newMemStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	seedSequenceFixtures(ms)

	a := newTestAutoEnroller(ms, 0, now)
	n, err := a.Run()
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, ms.enrollments)
}

func TestAutoEnrollIgnoresPausedCampaigns(t *testing.T) {
	ms := newMemStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, campaign := seedSequenceFixtures(ms)
	ms.campaigns[campaign.ID].AutoEnroll = true
	ms.campaigns[campaign.ID].Status = models.CampaignStatusPaused

	a := newTestAutoEnroller(ms, 0, now)
	n, err := a.Run()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAutoEnrollSkipsUnreachableContacts(t *testing.T) {
	ms := newMemStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	contact, campaign := seedSequenceFixtures(ms)
	ms.campaigns[campaign.ID].AutoEnroll = true
	require.NoError(t, ms.MarkBounced(contact.ID, "hard", now))
	ms.addContact(models.Contact{Email: "gone@x.com", IsActive: true, Unsubscribed: true})
	reachable := ms.addContact(models.Contact{Email: "ok@x.com", IsActive: true})

	a := newTestAutoEnroller(ms, 0, now)
	n, err := a.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	enrollment, err := ms.FindEnrollment(reachable.ID, campaign.ID)
	require.NoError(t, err)
	assert.NotNil(t, enrollment)
	bounced, err := ms.FindEnrollment(contact.ID, campaign.ID)
	require.NoError(t, err)
	assert.Nil(t, bounced)
}

func TestAutoEnrollHonorsBatchSize(t *testing.T) {
	ms := newMemStore()
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	_, campaign := seedSequenceFixtures(ms)
	ms.campaigns[campaign.ID].AutoEnroll = true
	ms.addContact(models.Contact{Email: "b@x.com", IsActive: true})
	ms.addContact(models.Contact{Email: "c@x.com", IsActive: true})

	a := newTestAutoEnroller(ms, 2, now)
	n, err := a.Run()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// The next run picks up the remainder.
	n, err = a.Run()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
