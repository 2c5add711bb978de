package worker

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"github.com/AnasElkhodary-69/sales-master-sub001/config"
	"github.com/AnasElkhodary-69/sales-master-sub001/sequence"
	"github.com/AnasElkhodary-69/sales-master-sub001/utils"
)

// ReplyWorker polls the sender inbox over IMAP and turns unseen replies
// into reply events. Matching happens through the In-Reply-To header, which
// carries the Message-ID we stamped on the outgoing mail.
type ReplyWorker struct {
	cfg      config.IMAPConfig
	reactor  *sequence.Reactor
	interval time.Duration
	logger   *log.Logger
}

func NewReplyWorker(cfg config.IMAPConfig, reactor *sequence.Reactor, interval time.Duration, logger *log.Logger) *ReplyWorker {
	return &ReplyWorker{
		cfg:      cfg,
		reactor:  reactor,
		interval: interval,
		logger:   logger,
	}
}

func (rw *ReplyWorker) Start(ctx context.Context) {
	rw.logger.Println("Starting reply worker...")
	ticker := time.NewTicker(rw.interval)

	for {
		select {
		case <-ticker.C:
			if err := rw.fetchReplies(); err != nil {
				utils.LogError(err, "reply fetch failed", map[string]interface{}{
					"imap_host": rw.cfg.Host,
				})
			}
		case <-ctx.Done():
			rw.logger.Println("Stopping reply worker...")
			ticker.Stop()
			return
		}
	}
}

func (rw *ReplyWorker) fetchReplies() error {
	imapAddr := fmt.Sprintf("%s:%s", rw.cfg.Host, rw.cfg.Port)

	var imapClient *client.Client
	var err error
	if rw.cfg.UseTLS {
		imapClient, err = client.DialTLS(imapAddr, &tls.Config{ServerName: rw.cfg.Host})
	} else {
		imapClient, err = client.Dial(imapAddr)
	}
	if err != nil {
		return fmt.Errorf("failed to connect to IMAP server: %v", err)
	}
	defer imapClient.Logout()

	if err := imapClient.Login(rw.cfg.Username, rw.cfg.Password); err != nil {
		return fmt.Errorf("failed to login to IMAP server: %v", err)
	}

	if _, err := imapClient.Select("INBOX", false); err != nil {
		return fmt.Errorf("failed to select mailbox: %v", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{"\\Seen"}
	ids, err := imapClient.Search(criteria)
	if err != nil {
		return fmt.Errorf("failed to search messages: %v", err)
	}
	if len(ids) == 0 {
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- imapClient.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchItem("BODY.PEEK[]")}, messages)
	}()

	processed := new(imap.SeqSet)
	for msg := range messages {
		if err := rw.processMessage(msg); err != nil {
			rw.logger.Printf("Failed to process message %d: %v", msg.SeqNum, err)
			continue
		}
		processed.AddNum(msg.SeqNum)
	}

	if err := <-done; err != nil {
		return fmt.Errorf("error during fetch: %v", err)
	}

	// Mark processed messages seen so the next poll skips them.
	if !processed.Empty() {
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := imapClient.Store(processed, item, []interface{}{imap.SeenFlag}, nil); err != nil {
			rw.logger.Printf("Failed to mark messages seen: %v", err)
		}
	}

	return nil
}

func (rw *ReplyWorker) processMessage(msg *imap.Message) error {
	if msg.Envelope == nil {
		return fmt.Errorf("message has no envelope")
	}

	// Auto-replies (out of office, delivery notices) must not count as
	// engagement.
	if rw.isAutoReply(msg) {
		rw.logger.Printf("skipping auto-reply %q", msg.Envelope.Subject)
		return nil
	}

	var fromEmail string
	if len(msg.Envelope.From) > 0 {
		fromEmail = msg.Envelope.From[0].Address()
	}

	inReplyTo := strings.Trim(msg.Envelope.InReplyTo, "<> ")

	ts := msg.Envelope.Date
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	result, err := rw.reactor.ApplyEvent(&sequence.Event{
		Type:              sequence.EventReplied,
		ProviderMessageID: inReplyTo,
		RecipientEmail:    fromEmail,
		Timestamp:         ts.UTC(),
	})
	if err != nil {
		if err == sequence.ErrMessageNotFound {
			// Unrelated inbound mail, not a reply to anything we sent.
			return nil
		}
		return err
	}

	rw.logger.Printf("reply from %s recorded, %d scheduled sends halted", fromEmail, result.Halted)
	return nil
}

// isAutoReply checks the message headers for auto-submitted markers.
func (rw *ReplyWorker) isAutoReply(msg *imap.Message) bool {
	// GetBody matches section values; msg.Body is keyed by the pointer the
	// client created while parsing the fetch response, so indexing the map
	// with a fresh BodySectionName never hits.
	literal := msg.GetBody(&imap.BodySectionName{})
	if literal == nil {
		return false
	}
	mr, err := mail.CreateReader(literal)
	if err != nil {
		return false
	}

	header := mr.Header
	if v := header.Get("Auto-Submitted"); v != "" && !strings.EqualFold(v, "no") {
		return true
	}
	if header.Get("X-Autoreply") != "" || header.Get("X-Autorespond") != "" {
		return true
	}

	// Drain the parts so the connection state stays clean.
	for {
		if _, err := mr.NextPart(); err == io.EOF || err != nil {
			break
		}
	}
	return false
}
