package sequence

import (
	"errors"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// memStore is an in-memory implementation of every store interface,
// mirroring the conditional-update semantics of the SQL layer.
type memStore struct {
	mu          sync.Mutex
	contacts    map[uint]*models.Contact
	campaigns   map[uint]*models.Campaign
	definitions map[uint]*models.SequenceDefinition
	templates   map[uint]*models.Template
	enrollments map[uint]*models.Enrollment
	sends       map[uint]*models.Send
	messages    map[uint]*models.Message
	events      []*models.WebhookEvent
	nextID      uint
}

var errNotFound = errors.New("record not found")

func newMemStore() *memStore {
	return &memStore{
		contacts:    make(map[uint]*models.Contact),
		campaigns:   make(map[uint]*models.Campaign),
		definitions: make(map[uint]*models.SequenceDefinition),
		templates:   make(map[uint]*models.Template),
		enrollments: make(map[uint]*models.Enrollment),
		sends:       make(map[uint]*models.Send),
		messages:    make(map[uint]*models.Message),
	}
}

func (m *memStore) id() uint {
	m.nextID++
	return m.nextID
}

func (m *memStore) addContact(c models.Contact) *models.Contact {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.id()
	}
	m.contacts[c.ID] = &c
	return &c
}

func (m *memStore) addCampaign(c models.Campaign) *models.Campaign {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == 0 {
		c.ID = m.id()
	}
	m.campaigns[c.ID] = &c
	return &c
}

func (m *memStore) addDefinition(d models.SequenceDefinition) *models.SequenceDefinition {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d.ID == 0 {
		d.ID = m.id()
	}
	m.definitions[d.ID] = &d
	return &d
}

func (m *memStore) addTemplate(t models.Template) *models.Template {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.ID == 0 {
		t.ID = m.id()
	}
	m.templates[t.ID] = &t
	return &t
}

func (m *memStore) addMessage(msg models.Message) *models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.ID == 0 {
		msg.ID = m.id()
	}
	m.messages[msg.ID] = &msg
	return &msg
}

// ContactStore

func (m *memStore) GetContact(id uint) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) GetContactByEmail(email string) (*models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.contacts {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (m *memStore) MarkBounced(id uint, bounceType string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return errNotFound
	}
	if c.BouncedAt == nil {
		c.BouncedAt = &at
		c.BounceType = bounceType
	}
	return nil
}

func (m *memStore) MarkComplained(id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return errNotFound
	}
	if c.ComplainedAt == nil {
		c.ComplainedAt = &at
	}
	return nil
}

func (m *memStore) MarkResponded(id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return errNotFound
	}
	if c.RespondedAt == nil {
		c.RespondedAt = &at
	}
	return nil
}

func (m *memStore) MarkContacted(id uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return errNotFound
	}
	c.LastContacted = &at
	return nil
}

func (m *memStore) AddOpen(id uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return 0, errNotFound
	}
	c.TotalOpens++
	return c.TotalOpens, nil
}

func (m *memStore) AddClick(id uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contacts[id]
	if !ok {
		return 0, errNotFound
	}
	c.TotalClicks++
	return c.TotalClicks, nil
}

func (m *memStore) FindEnrollable(campaignID uint, limit int) ([]models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	enrolled := make(map[uint]bool)
	for _, e := range m.enrollments {
		if e.CampaignID == campaignID {
			enrolled[e.ContactID] = true
		}
	}
	var out []models.Contact
	for _, c := range m.contacts {
		if !c.IsActive || c.Unsubscribed || c.BouncedAt != nil || c.ComplainedAt != nil {
			continue
		}
		if enrolled[c.ID] {
			continue
		}
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CampaignStore

func (m *memStore) GetCampaign(id uint) (*models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memStore) AddEnrolled(id uint, n int) error {
	return m.bumpCampaign(id, func(c *models.Campaign) { c.TotalEnrolled += n })
}

func (m *memStore) AddSent(id uint, n int) error {
	return m.bumpCampaign(id, func(c *models.Campaign) { c.SentCount += n })
}

func (m *memStore) AddReplies(id uint, n int) error {
	return m.bumpCampaign(id, func(c *models.Campaign) { c.ReplyCount += n })
}

func (m *memStore) AddBounces(id uint, n int) error {
	return m.bumpCampaign(id, func(c *models.Campaign) { c.BounceCount += n })
}

func (m *memStore) bumpCampaign(id uint, fn func(*models.Campaign)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.campaigns[id]
	if !ok {
		return errNotFound
	}
	fn(c)
	return nil
}

func (m *memStore) FindAutoEnrollCampaigns() ([]models.Campaign, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Campaign
	for _, c := range m.campaigns {
		if c.AutoEnroll && (c.Status == models.CampaignStatusActive || c.Status == models.CampaignStatusDraft) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// SequenceStore

func (m *memStore) GetDefinition(id uint) (*models.SequenceDefinition, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.definitions[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *d
	cp.Steps = append([]models.SequenceStep(nil), d.Steps...)
	sort.Slice(cp.Steps, func(i, j int) bool {
		return cp.Steps[i].StepNumber < cp.Steps[j].StepNumber
	})
	return &cp, nil
}

// TemplateStore

func (m *memStore) GetTemplate(id uint) (*models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.templates[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memStore) FindActive(segment string, stepNumber int) ([]models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Template
	for _, t := range m.templates {
		if t.Active && t.Segment == segment && t.StepNumber == stepNumber {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) FindAnyActive(stepNumber int) ([]models.Template, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Template
	for _, t := range m.templates {
		if t.Active && t.StepNumber == stepNumber {
			out = append(out, *t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) AddUsage(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.templates[id]; ok {
		t.UsageCount++
	}
	return nil
}

// EnrollmentStore

func (m *memStore) GetEnrollment(id uint) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memStore) FindEnrollment(contactID, campaignID uint) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.enrollments {
		if e.ContactID == contactID && e.CampaignID == campaignID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateEnrollment(e *models.Enrollment, sends []models.Send) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.enrollments {
		if existing.ContactID == e.ContactID && existing.CampaignID == e.CampaignID {
			return 0, ErrAlreadyEnrolled
		}
	}
	e.ID = m.id()
	cp := *e
	m.enrollments[e.ID] = &cp

	created := 0
	for i := range sends {
		if m.sendExistsLocked(sends[i].ContactID, sends[i].CampaignID, sends[i].StepNumber) {
			continue
		}
		sends[i].ID = m.id()
		sends[i].EnrollmentID = e.ID
		sc := sends[i]
		m.sends[sc.ID] = &sc
		created++
	}
	return created, nil
}

func (m *memStore) sendExistsLocked(contactID, campaignID uint, step int) bool {
	for _, s := range m.sends {
		if s.ContactID == contactID && s.CampaignID == campaignID && s.StepNumber == step {
			return true
		}
	}
	return false
}

func (m *memStore) DeleteEnrollment(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.enrollments[id]; !ok {
		return errNotFound
	}
	delete(m.enrollments, id)
	for sid, s := range m.sends {
		if s.EnrollmentID == id {
			delete(m.sends, sid)
		}
	}
	return nil
}

func (m *memStore) GetSend(id uint) (*models.Send, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sends[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memStore) FindDueSends(asOf time.Time, limit int) ([]models.Send, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Send
	for _, s := range m.sends {
		if s.Status == models.SendStatusScheduled && !s.ScheduledAt.After(asOf) {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memStore) FindScheduledSends(enrollmentID uint) ([]models.Send, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Send
	for _, s := range m.sends {
		if s.EnrollmentID == enrollmentID && s.Status == models.SendStatusScheduled {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StepNumber < out[j].StepNumber })
	return out, nil
}

func (m *memStore) MaxStepNumber(enrollmentID uint) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, s := range m.sends {
		if s.EnrollmentID == enrollmentID && s.StepNumber > max {
			max = s.StepNumber
		}
	}
	return max, nil
}

func (m *memStore) ClaimSend(id uint, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sends[id]
	if !ok || s.Status != models.SendStatusScheduled {
		return false, nil
	}
	s.Status = models.SendStatusProcessing
	s.ClaimedAt = &at
	return true, nil
}

func (m *memStore) ReleaseSend(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sends[id]
	if ok && s.Status == models.SendStatusProcessing {
		s.Status = models.SendStatusScheduled
		s.ClaimedAt = nil
	}
	return nil
}

func (m *memStore) MarkSendSent(id uint, messageID uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sends[id]
	if !ok {
		return errNotFound
	}
	if s.Status == models.SendStatusProcessing {
		s.Status = models.SendStatusSent
		s.SentAt = &at
		s.MessageID = &messageID
	}
	return nil
}

func (m *memStore) MarkSendFailed(id uint, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sends[id]
	if !ok {
		return errNotFound
	}
	s.Status = models.SendStatusFailed
	s.ErrorMessage = reason
	return nil
}

func (m *memStore) MarkSendSkipped(id uint, status models.SendStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sends[id]
	if !ok {
		return errNotFound
	}
	if s.Status == models.SendStatusScheduled {
		s.Status = status
	}
	return nil
}

func (m *memStore) SkipScheduled(enrollmentID uint, status models.SendStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sends {
		if s.EnrollmentID == enrollmentID && s.Status == models.SendStatusScheduled {
			s.Status = status
			n++
		}
	}
	return n, nil
}

func (m *memStore) ReclaimStuck(cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.sends {
		if s.Status == models.SendStatusProcessing && s.ClaimedAt != nil && s.ClaimedAt.Before(cutoff) {
			s.Status = models.SendStatusScheduled
			s.ClaimedAt = nil
			n++
		}
	}
	return n, nil
}

func (m *memStore) SetRepliedAt(enrollmentID uint, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[enrollmentID]
	if !ok {
		return false, errNotFound
	}
	if e.RepliedAt != nil {
		return false, nil
	}
	e.RepliedAt = &at
	return true, nil
}

func (m *memStore) SetCurrentStep(enrollmentID uint, step int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[enrollmentID]
	if !ok {
		return errNotFound
	}
	if step > e.CurrentStep {
		e.CurrentStep = step
	}
	return nil
}

func (m *memStore) SetCompletedAt(enrollmentID uint, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[enrollmentID]
	if !ok {
		return errNotFound
	}
	if e.SequenceCompletedAt == nil {
		e.SequenceCompletedAt = &at
	}
	return nil
}

// MessageStore

func (m *memStore) CreateMessage(msg *models.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg.ID = m.id()
	cp := *msg
	m.messages[msg.ID] = &cp
	return nil
}

func (m *memStore) GetMessage(id uint) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return nil, errNotFound
	}
	cp := *msg
	return &cp, nil
}

func (m *memStore) GetMessageByProviderID(providerMessageID string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.ProviderMessageID == providerMessageID {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (m *memStore) GetMessageByTrackingID(trackingID string) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, msg := range m.messages {
		if msg.TrackingID == trackingID {
			cp := *msg
			return &cp, nil
		}
	}
	return nil, errNotFound
}

func (m *memStore) LatestMessageForContact(contactID uint) (*models.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *models.Message
	for _, msg := range m.messages {
		if msg.ContactID != contactID {
			continue
		}
		if latest == nil || msg.SentAt.After(latest.SentAt) {
			latest = msg
		}
	}
	if latest == nil {
		return nil, errNotFound
	}
	cp := *latest
	return &cp, nil
}

func (m *memStore) SetDeliveredAt(id uint, at time.Time) (bool, error) {
	return m.setMessageTime(id, at, func(msg *models.Message) **time.Time { return &msg.DeliveredAt })
}

func (m *memStore) SetOpenedAt(id uint, at time.Time) (bool, error) {
	return m.setMessageTime(id, at, func(msg *models.Message) **time.Time { return &msg.OpenedAt })
}

func (m *memStore) SetClickedAt(id uint, at time.Time) (bool, error) {
	return m.setMessageTime(id, at, func(msg *models.Message) **time.Time { return &msg.ClickedAt })
}

func (m *memStore) SetBouncedAt(id uint, bounceType string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return false, errNotFound
	}
	if msg.BouncedAt != nil {
		return false, nil
	}
	msg.BouncedAt = &at
	msg.BounceType = bounceType
	return true, nil
}

func (m *memStore) SetComplainedAt(id uint, at time.Time) (bool, error) {
	return m.setMessageTime(id, at, func(msg *models.Message) **time.Time { return &msg.ComplainedAt })
}

func (m *memStore) setMessageTime(id uint, at time.Time, field func(*models.Message) **time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[id]
	if !ok {
		return false, errNotFound
	}
	slot := field(msg)
	if *slot != nil {
		return false, nil
	}
	*slot = &at
	return true, nil
}

func (m *memStore) AddOpenCount(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.messages[id]; ok {
		msg.OpenCount++
	}
	return nil
}

func (m *memStore) AddClickCount(id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg, ok := m.messages[id]; ok {
		msg.ClickCount++
	}
	return nil
}

func (m *memStore) CreateEvent(ev *models.WebhookEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

// memMessages narrows memStore to the message store. The SetRepliedAt
// override targets messages; the promoted method on memStore targets
// enrollments.
type memMessages struct{ *memStore }

func (m memMessages) SetRepliedAt(id uint, at time.Time) (bool, error) {
	return m.setMessageTime(id, at, func(msg *models.Message) **time.Time { return &msg.RepliedAt })
}
