package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

const gmailBaseURL = "https://gmail.googleapis.com/gmail/v1/users/me"

type gmailProvider struct {
	client *http.Client
	logger *slog.Logger
}

type gmailListResponse struct {
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

type gmailMessage struct {
	ID      string    `json:"id"`
	Payload gmailPart `json:"payload"`
}

type gmailPart struct {
	MimeType string `json:"mimeType"`
	Filename string `json:"filename"`
	Headers  []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"headers"`
	Body struct {
		AttachmentID string `json:"attachmentId"`
		Data         string `json:"data"`
	} `json:"body"`
	Parts []gmailPart `json:"parts"`
}

func (g *gmailProvider) FetchCandidates(ctx context.Context, acct *entity.EmailAccount, window time.Duration, maxMessages int) ([]entity.EmailMessage, error) {
	days := int(window.Hours() / 24)
	if days < 1 {
		days = 1
	}
	query := fmt.Sprintf(`newer_than:%dd is:unread (has:attachment OR subject:PO OR subject:"purchase order" OR subject:order)`, days)

	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", fmt.Sprintf("%d", maxMessages))

	var list gmailListResponse
	if err := g.get(ctx, acct, gmailBaseURL+"/messages?"+params.Encode(), &list); err != nil {
		return nil, fmt.Errorf("list gmail messages: %w", err)
	}

	messages := make([]entity.EmailMessage, 0, len(list.Messages))
	for _, ref := range list.Messages {
		msg, err := g.fetchMessage(ctx, acct, ref.ID)
		if err != nil {
			g.logger.Warn("mail.gmail.fetch_failed", "message_id", ref.ID, "error", err)
			continue
		}
		messages = append(messages, *msg)
	}
	return messages, nil
}

func (g *gmailProvider) fetchMessage(ctx context.Context, acct *entity.EmailAccount, id string) (*entity.EmailMessage, error) {
	var raw gmailMessage
	if err := g.get(ctx, acct, gmailBaseURL+"/messages/"+id+"?format=full", &raw); err != nil {
		return nil, err
	}

	msg := &entity.EmailMessage{
		ProviderID: raw.ID,
		ReceivedAt: time.Now(),
	}
	for _, h := range raw.Payload.Headers {
		switch h.Name {
		case "Subject":
			msg.Subject = h.Value
		case "From":
			msg.From = h.Value
		case "Date":
			if t, err := time.Parse(time.RFC1123Z, h.Value); err == nil {
				msg.ReceivedAt = t
			}
		}
	}
	if err := g.collectParts(ctx, acct, raw.ID, raw.Payload, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// collectParts walks the MIME tree, accumulating text bodies and downloading
// file attachments.
func (g *gmailProvider) collectParts(ctx context.Context, acct *entity.EmailAccount, msgID string, part gmailPart, msg *entity.EmailMessage) error {
	if part.Filename != "" && part.Body.AttachmentID != "" {
		data, err := g.fetchAttachment(ctx, acct, msgID, part.Body.AttachmentID)
		if err != nil {
			return fmt.Errorf("fetch attachment %s: %w", part.Filename, err)
		}
		msg.Attachments = append(msg.Attachments, entity.Attachment{
			Filename:    part.Filename,
			ContentType: part.MimeType,
			Data:        data,
		})
		return nil
	}
	if part.MimeType == "text/plain" && part.Body.Data != "" {
		if data, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(part.Body.Data); err == nil {
			msg.Body += string(data)
		}
	}
	for _, child := range part.Parts {
		if err := g.collectParts(ctx, acct, msgID, child, msg); err != nil {
			return err
		}
	}
	return nil
}

func (g *gmailProvider) fetchAttachment(ctx context.Context, acct *entity.EmailAccount, msgID, attachmentID string) ([]byte, error) {
	var out struct {
		Data string `json:"data"`
	}
	if err := g.get(ctx, acct, gmailBaseURL+"/messages/"+msgID+"/attachments/"+attachmentID, &out); err != nil {
		return nil, err
	}
	return base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(out.Data)
}

func (g *gmailProvider) MarkProcessed(ctx context.Context, acct *entity.EmailAccount, msg *entity.EmailMessage) error {
	body, _ := json.Marshal(map[string]any{"removeLabelIds": []string{"UNREAD"}})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, gmailBaseURL+"/messages/"+msg.ProviderID+"/modify", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+acct.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("mark gmail message read: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return statusError(resp.StatusCode, b)
	}
	return nil
}

func (g *gmailProvider) get(ctx context.Context, acct *entity.EmailAccount, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+acct.AccessToken)

	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 300 {
		return statusError(resp.StatusCode, b)
	}
	return json.Unmarshal(b, out)
}
