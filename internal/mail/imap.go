package mail

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	gomail "github.com/emersion/go-message/mail"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/classify"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

// imapProvider dials a fresh connection per call; plain IMAP servers rarely
// tolerate long-lived idle sessions across poll cycles.
type imapProvider struct {
	logger *slog.Logger
}

func (p *imapProvider) connect(acct *entity.EmailAccount) (*client.Client, error) {
	cfg := acct.IMAPConfig
	if cfg == nil {
		return nil, fmt.Errorf("account %s has no imap configuration", acct.Email)
	}
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var c *client.Client
	var err error
	if cfg.UseTLS {
		c, err = client.DialTLS(addr, nil)
	} else {
		c, err = client.Dial(addr)
	}
	if err != nil {
		return nil, fmt.Errorf("dial imap %s: %w", addr, err)
	}
	if err := c.Login(cfg.Username, cfg.Password); err != nil {
		c.Logout()
		return nil, fmt.Errorf("imap login %s: %w", acct.Email, ErrUnauthorized)
	}
	return c, nil
}

func (p *imapProvider) FetchCandidates(ctx context.Context, acct *entity.EmailAccount, window time.Duration, maxMessages int) ([]entity.EmailMessage, error) {
	c, err := p.connect(acct)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return nil, fmt.Errorf("select inbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = time.Now().Add(-window)
	criteria.WithoutFlags = []string{imap.SeenFlag}
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("imap search: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	if len(uids) > maxMessages {
		uids = uids[len(uids)-maxMessages:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchUid, section.FetchItem()}

	ch := make(chan *imap.Message, len(uids))
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, ch)
	}()

	var messages []entity.EmailMessage
	for raw := range ch {
		msg, err := p.parseMessage(raw, section)
		if err != nil {
			p.logger.Warn("mail.imap.parse_failed", "uid", raw.Uid, "error", err)
			continue
		}
		if len(msg.Attachments) == 0 && !classify.MatchesKeywords(msg.Subject) {
			continue
		}
		messages = append(messages, *msg)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("imap fetch: %w", err)
	}
	return messages, nil
}

func (p *imapProvider) parseMessage(raw *imap.Message, section *imap.BodySectionName) (*entity.EmailMessage, error) {
	msg := &entity.EmailMessage{
		ProviderID: strconv.FormatUint(uint64(raw.Uid), 10),
		ReceivedAt: time.Now(),
	}
	if raw.Envelope != nil {
		msg.Subject = raw.Envelope.Subject
		msg.ReceivedAt = raw.Envelope.Date
		if len(raw.Envelope.From) > 0 {
			msg.From = raw.Envelope.From[0].Address()
		}
	}

	body := raw.GetBody(section)
	if body == nil {
		return msg, nil
	}
	mr, err := gomail.CreateReader(body)
	if err != nil {
		return nil, fmt.Errorf("create message reader: %w", err)
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read message part: %w", err)
		}
		switch h := part.Header.(type) {
		case *gomail.InlineHeader:
			if ct, _, _ := h.ContentType(); ct == "text/plain" {
				if data, err := io.ReadAll(part.Body); err == nil {
					msg.Body += string(data)
				}
			}
		case *gomail.AttachmentHeader:
			filename, _ := h.Filename()
			ct, _, _ := h.ContentType()
			data, err := io.ReadAll(part.Body)
			if err != nil {
				p.logger.Warn("mail.imap.attachment_read_failed", "filename", filename, "error", err)
				continue
			}
			msg.Attachments = append(msg.Attachments, entity.Attachment{
				Filename:    filename,
				ContentType: ct,
				Data:        data,
			})
		}
	}
	return msg, nil
}

func (p *imapProvider) MarkProcessed(ctx context.Context, acct *entity.EmailAccount, msg *entity.EmailMessage) error {
	uid, err := strconv.ParseUint(msg.ProviderID, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid imap uid %q: %w", msg.ProviderID, err)
	}

	c, err := p.connect(acct)
	if err != nil {
		return err
	}
	defer c.Logout()

	if _, err := c.Select("INBOX", false); err != nil {
		return fmt.Errorf("select inbox: %w", err)
	}
	seqset := new(imap.SeqSet)
	seqset.AddNum(uint32(uid))
	item := imap.FormatFlagsOp(imap.AddFlags, true)
	if err := c.UidStore(seqset, item, []interface{}{imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("mark imap message seen: %w", err)
	}
	return nil
}
