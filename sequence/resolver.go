package sequence

import (
	"log"
	"math/rand"
	"strings"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// TemplateResolver picks the template for a (segment, step) slot with a
// two-level fallback: the contact's segment first, then "generic", then any
// active template for the step. Multiple active variants in a slot are A/B
// tested by weight.
type TemplateResolver struct {
	Templates TemplateStore
	Logger    *log.Logger

	// rng returns a value in [0, n). Swapped out in tests.
	rng func(n int) int
}

// NewTemplateResolver creates a resolver backed by the template store.
func NewTemplateResolver(templates TemplateStore, logger *log.Logger) *TemplateResolver {
	return &TemplateResolver{
		Templates: templates,
		Logger:    logger,
		rng:       rand.Intn,
	}
}

// Resolve returns the template to use for the segment and step, or
// ErrNoTemplateAvailable when nothing active exists anywhere for the step.
func (r *TemplateResolver) Resolve(segment string, stepNumber int) (*models.Template, error) {
	if segment == "" {
		segment = models.ClassificationUnclassified
	}

	candidates, err := r.Templates.FindActive(segment, stepNumber)
	if err != nil {
		return nil, err
	}
	if len(candidates) > 0 {
		return r.pickVariant(candidates), nil
	}

	if segment != models.TemplateSegmentGeneric {
		candidates, err = r.Templates.FindActive(models.TemplateSegmentGeneric, stepNumber)
		if err != nil {
			return nil, err
		}
		if len(candidates) > 0 {
			return r.pickVariant(candidates), nil
		}
	}

	// Last resort: any active template for the step, oldest row wins.
	any, err := r.Templates.FindAnyActive(stepNumber)
	if err != nil {
		return nil, err
	}
	if len(any) == 0 {
		return nil, ErrNoTemplateAvailable
	}
	if r.Logger != nil {
		r.Logger.Printf("no template for segment %q step %d, falling back to %q", segment, stepNumber, any[0].Segment)
	}
	return &any[0], nil
}

// pickVariant does a weighted pick across active variants. Zero or negative
// weights count as 1 so a misconfigured row still gets some traffic.
func (r *TemplateResolver) pickVariant(candidates []models.Template) *models.Template {
	if len(candidates) == 1 {
		return &candidates[0]
	}

	total := 0
	for i := range candidates {
		w := candidates[i].Weight
		if w <= 0 {
			w = 1
		}
		total += w
	}

	roll := r.rng(total)
	for i := range candidates {
		w := candidates[i].Weight
		if w <= 0 {
			w = 1
		}
		if roll < w {
			return &candidates[i]
		}
		roll -= w
	}
	return &candidates[len(candidates)-1]
}

// Render fills a template's subject and body with contact fields. Unknown
// placeholders are left in place so a broken template is visible in the
// outgoing mail rather than silently blanked.
func Render(tpl *models.Template, contact *models.Contact, extra map[string]string) (subject, htmlBody string) {
	vars := templateVars(contact)
	for k, v := range extra {
		vars[k] = v
	}
	return substitute(tpl.Subject, vars), substitute(tpl.HTMLBody(), vars)
}

// substitute replaces {{key}} and {key} placeholders.
func substitute(text string, vars map[string]string) string {
	for k, v := range vars {
		text = strings.ReplaceAll(text, "{{"+k+"}}", v)
		text = strings.ReplaceAll(text, "{"+k+"}", v)
	}
	return text
}

func templateVars(c *models.Contact) map[string]string {
	firstName := c.FirstName
	if firstName == "" {
		firstName = "there"
	}
	company := c.Company
	if company == "" {
		company = "your company"
	}
	return map[string]string{
		"first_name": firstName,
		"last_name":  c.LastName,
		"full_name":  strings.TrimSpace(c.FirstName + " " + c.LastName),
		"company":    company,
		"domain":     c.EmailDomain(),
		"title":      c.Title,
		"industry":   c.Industry,
		"email":      c.Email,
	}
}
