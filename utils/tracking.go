package utils

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Tracker builds open-pixel and click-tracking URLs and injects them into
// outgoing HTML. Tokens are a deterministic HMAC-like hash over the message
// id so the tracking endpoints can verify them without storing anything.
type Tracker struct {
	BaseURL string
	Secret  string
}

// NewTracker creates a tracker
func NewTracker(baseURL, secret string) *Tracker {
	return &Tracker{BaseURL: strings.TrimRight(baseURL, "/"), Secret: secret}
}

// PixelURL generates a tracking pixel URL for email opens
func (t *Tracker) PixelURL(messageID string) string {
	return fmt.Sprintf("%s/track/open/%s/%s", t.BaseURL, messageID, t.Token(messageID))
}

// ClickURL generates a tracked URL for a link
func (t *Tracker) ClickURL(messageID, originalURL string) string {
	return fmt.Sprintf("%s/track/click/%s/%s?url=%s", t.BaseURL, messageID, t.Token(messageID), url.QueryEscape(originalURL))
}

// Token derives the verification token for a message id.
func (t *Tracker) Token(messageID string) string {
	hash := sha256.Sum256([]byte(t.Secret + "|" + messageID))
	return base64.URLEncoding.EncodeToString(hash[:])[:20]
}

// VerifyToken checks a token presented to a tracking endpoint.
func (t *Tracker) VerifyToken(messageID, token string) bool {
	return token == t.Token(messageID)
}

// Inject adds the open pixel and rewrites links for click tracking.
func (t *Tracker) Inject(htmlContent, messageID string) string {
	pixel := fmt.Sprintf(`<img src="%s" alt="" width="1" height="1" style="display:none">`, t.PixelURL(messageID))
	return t.injectClickTracking(htmlContent, messageID) + pixel
}

func (t *Tracker) injectClickTracking(html, messageID string) string {
	// Simplified rewriting; an HTML parser is overkill for the template
	// bodies we generate ourselves.
	startTag := "<a href=\""
	endTag := "\""
	offset := 0

	for {
		startIdx := strings.Index(html[offset:], startTag)
		if startIdx == -1 {
			break
		}
		startIdx += offset + len(startTag)

		endIdx := strings.Index(html[startIdx:], endTag)
		if endIdx == -1 {
			break
		}
		endIdx += startIdx

		originalURL := html[startIdx:endIdx]
		trackedURL := t.ClickURL(messageID, originalURL)

		html = html[:startIdx] + trackedURL + html[endIdx:]
		offset = startIdx + len(trackedURL)
	}

	return html
}
