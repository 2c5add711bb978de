package sequence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

func TestResolvePrefersContactSegment(t *testing.T) {
	ms := newMemStore()
	ms.addTemplate(models.Template{Name: "generic intro", Segment: models.TemplateSegmentGeneric, StepNumber: 0, Subject: "g", Body: "g", Active: true})
	want := ms.addTemplate(models.Template{Name: "high-risk intro", Segment: "high-risk", StepNumber: 0, Subject: "h", Body: "h", Active: true})

	r := NewTemplateResolver(ms, testLogger())
	tpl, err := r.Resolve("high-risk", 0)
	require.NoError(t, err)
	assert.Equal(t, want.ID, tpl.ID)
}

func TestResolveFallsBackToGeneric(t *testing.T) {
	ms := newMemStore()
	want := ms.addTemplate(models.Template{Name: "generic followup", Segment: models.TemplateSegmentGeneric, StepNumber: 1, Subject: "g", Body: "g", Active: true})

	r := NewTemplateResolver(ms, testLogger())
	tpl, err := r.Resolve("low-risk", 1)
	require.NoError(t, err)
	assert.Equal(t, want.ID, tpl.ID)
}

func TestResolveFallsBackToAnyActiveOldestFirst(t *testing.T) {
	ms := newMemStore()
	first := ms.addTemplate(models.Template{Name: "enterprise", Segment: "enterprise", StepNumber: 2, Subject: "e", Body: "e", Active: true})
	ms.addTemplate(models.Template{Name: "smb", Segment: "smb", StepNumber: 2, Subject: "s", Body: "s", Active: true})

	r := NewTemplateResolver(ms, testLogger())
	tpl, err := r.Resolve("high-risk", 2)
	require.NoError(t, err)
	assert.Equal(t, first.ID, tpl.ID)
}

func TestResolveIgnoresInactiveTemplates(t *testing.T) {
	ms := newMemStore()
	ms.addTemplate(models.Template{Name: "retired", Segment: "high-risk", StepNumber: 0, Subject: "x", Body: "x", Active: false})

	r := NewTemplateResolver(ms, testLogger())
	_, err := r.Resolve("high-risk", 0)
	assert.ErrorIs(t, err, ErrNoTemplateAvailable)
}

func TestResolveNoTemplateAnywhere(t *testing.T) {
	ms := newMemStore()

	r := NewTemplateResolver(ms, testLogger())
	_, err := r.Resolve("low-risk", 5)
	assert.ErrorIs(t, err, ErrNoTemplateAvailable)
}

func TestResolveEmptySegmentTreatedAsUnclassified(t *testing.T) {
	ms := newMemStore()
	want := ms.addTemplate(models.Template{Name: "unclassified intro", Segment: models.ClassificationUnclassified, StepNumber: 0, Subject: "u", Body: "u", Active: true})

	r := NewTemplateResolver(ms, testLogger())
	tpl, err := r.Resolve("", 0)
	require.NoError(t, err)
	assert.Equal(t, want.ID, tpl.ID)
}

func TestPickVariantWeighted(t *testing.T) {
	ms := newMemStore()
	a := ms.addTemplate(models.Template{Name: "A", Segment: "g", StepNumber: 0, Subject: "a", Body: "a", Active: true, Weight: 70})
	b := ms.addTemplate(models.Template{Name: "B", Segment: "g", StepNumber: 0, Subject: "b", Body: "b", Active: true, Weight: 30})

	r := NewTemplateResolver(ms, testLogger())

	// Roll inside the first variant's weight band.
	r.rng = func(n int) int {
		assert.Equal(t, 100, n)
		return 69
	}
	tpl, err := r.Resolve("g", 0)
	require.NoError(t, err)
	assert.Equal(t, a.ID, tpl.ID)

	// Roll past it lands on the second variant.
	r.rng = func(n int) int { return 70 }
	tpl, err = r.Resolve("g", 0)
	require.NoError(t, err)
	assert.Equal(t, b.ID, tpl.ID)
}

func TestPickVariantZeroWeightCountsAsOne(t *testing.T) {
	ms := newMemStore()
	ms.addTemplate(models.Template{Name: "A", Segment: "g", StepNumber: 0, Subject: "a", Body: "a", Active: true, Weight: 0})
	b := ms.addTemplate(models.Template{Name: "B", Segment: "g", StepNumber: 0, Subject: "b", Body: "b", Active: true, Weight: 0})

	r := NewTemplateResolver(ms, testLogger())
	r.rng = func(n int) int {
		assert.Equal(t, 2, n)
		return 1
	}
	tpl, err := r.Resolve("g", 0)
	require.NoError(t, err)
	assert.Equal(t, b.ID, tpl.ID)
}

func TestRenderSubstitution(t *testing.T) {
	tpl := &models.Template{
		Subject: "Quick question for {{first_name}} at {company}",
		Body:    "Hi {{first_name}}, I noticed {{company}} uses {domain}.",
	}
	contact := &models.Contact{
		Email:     "jane@acme.io",
		FirstName: "Jane",
		Company:   "Acme",
	}

	subject, body := Render(tpl, contact, nil)
	assert.Equal(t, "Quick question for Jane at Acme", subject)
	assert.Equal(t, "Hi Jane, I noticed Acme uses acme.io.", body)
}

func TestRenderDefaults(t *testing.T) {
	tpl := &models.Template{Subject: "Hi {{first_name}}", Body: "About {{company}}"}
	contact := &models.Contact{Email: "x@y.com"}

	subject, body := Render(tpl, contact, nil)
	assert.Equal(t, "Hi there", subject)
	assert.Equal(t, "About your company", body)
}

func TestRenderPrefersHTMLBody(t *testing.T) {
	tpl := &models.Template{Subject: "s", Body: "plain", BodyHTML: "<p>{{first_name}}</p>"}
	contact := &models.Contact{Email: "x@y.com", FirstName: "Sam"}

	_, body := Render(tpl, contact, nil)
	assert.Equal(t, "<p>Sam</p>", body)
}

func TestRenderUnknownPlaceholderLeftVisible(t *testing.T) {
	tpl := &models.Template{Subject: "s", Body: "Hello {{nonexistent}}"}
	contact := &models.Contact{Email: "x@y.com"}

	_, body := Render(tpl, contact, nil)
	assert.Equal(t, "Hello {{nonexistent}}", body)
}

func TestRenderExtraVarsOverride(t *testing.T) {
	tpl := &models.Template{Subject: "s", Body: "{{company}} / {{promo}}"}
	contact := &models.Contact{Email: "x@y.com", Company: "Acme"}

	_, body := Render(tpl, contact, map[string]string{"company": "ACME Corp", "promo": "spring"})
	assert.Equal(t, "ACME Corp / spring", body)
}
