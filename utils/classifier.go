package utils

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"

	"github.com/AnasElkhodary-69/sales-master-sub001/models"
)

// RiskClassifier calls the external classification API to label a contact.
// It satisfies the sequence.Classifier interface.
type RiskClassifier struct {
	APIURL  string
	APIKey  string
	Timeout time.Duration
	client  *fasthttp.Client
}

// NewRiskClassifier creates a classifier client
func NewRiskClassifier(apiURL, apiKey string) *RiskClassifier {
	return &RiskClassifier{
		APIURL:  apiURL,
		APIKey:  apiKey,
		Timeout: 5 * time.Second,
		client:  &fasthttp.Client{},
	}
}

type classifyRequest struct {
	Email    string `json:"email"`
	Company  string `json:"company,omitempty"`
	Domain   string `json:"domain,omitempty"`
	Industry string `json:"industry,omitempty"`
}

type classifyResponse struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Classify asks the API for the contact's risk label.
func (c *RiskClassifier) Classify(contact *models.Contact) (string, float64, error) {
	body, err := json.Marshal(classifyRequest{
		Email:    contact.Email,
		Company:  contact.Company,
		Domain:   contact.EmailDomain(),
		Industry: contact.Industry,
	})
	if err != nil {
		return "", 0, err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.APIURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	req.SetBody(body)

	if err := c.client.DoTimeout(req, resp, c.Timeout); err != nil {
		return "", 0, fmt.Errorf("classifier request failed: %w", err)
	}
	if resp.StatusCode() != fasthttp.StatusOK {
		return "", 0, fmt.Errorf("classifier returned status %d", resp.StatusCode())
	}

	var out classifyResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return "", 0, fmt.Errorf("classifier returned invalid JSON: %w", err)
	}
	if out.Label == "" {
		out.Label = models.ClassificationUnclassified
	}
	return out.Label, out.Confidence, nil
}
