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
	"strings"
	"time"

	"github.com/chavannishanthrao/AutoPOProcessor/internal/classify"
	"github.com/chavannishanthrao/AutoPOProcessor/internal/entity"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

type outlookProvider struct {
	client *http.Client
	logger *slog.Logger
}

type graphMessage struct {
	ID      string `json:"id"`
	Subject string `json:"subject"`
	From    struct {
		EmailAddress struct {
			Address string `json:"address"`
		} `json:"emailAddress"`
	} `json:"from"`
	ReceivedDateTime time.Time `json:"receivedDateTime"`
	HasAttachments   bool      `json:"hasAttachments"`
	BodyPreview      string    `json:"bodyPreview"`
}

type graphAttachment struct {
	ODataType    string `json:"@odata.type"`
	Name         string `json:"name"`
	ContentType  string `json:"contentType"`
	ContentBytes string `json:"contentBytes"`
}

func (o *outlookProvider) FetchCandidates(ctx context.Context, acct *entity.EmailAccount, window time.Duration, maxMessages int) ([]entity.EmailMessage, error) {
	since := time.Now().Add(-window).UTC().Format(time.RFC3339)

	params := url.Values{}
	params.Set("$filter", fmt.Sprintf("receivedDateTime ge %s and isRead eq false", since))
	params.Set("$top", fmt.Sprintf("%d", maxMessages))
	params.Set("$select", "id,subject,from,receivedDateTime,hasAttachments,bodyPreview")
	params.Set("$orderby", "receivedDateTime desc")

	var list struct {
		Value []graphMessage `json:"value"`
	}
	if err := o.get(ctx, acct, graphBaseURL+"/me/messages?"+params.Encode(), &list); err != nil {
		return nil, fmt.Errorf("list outlook messages: %w", err)
	}

	var messages []entity.EmailMessage
	for _, raw := range list.Value {
		if !raw.HasAttachments && !classify.MatchesKeywords(raw.Subject) {
			continue
		}
		msg := entity.EmailMessage{
			ProviderID: raw.ID,
			Subject:    raw.Subject,
			From:       raw.From.EmailAddress.Address,
			Body:       raw.BodyPreview,
			ReceivedAt: raw.ReceivedDateTime,
		}
		if raw.HasAttachments {
			attachments, err := o.fetchAttachments(ctx, acct, raw.ID)
			if err != nil {
				o.logger.Warn("mail.outlook.attachments_failed", "message_id", raw.ID, "error", err)
				continue
			}
			msg.Attachments = attachments
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

func (o *outlookProvider) fetchAttachments(ctx context.Context, acct *entity.EmailAccount, msgID string) ([]entity.Attachment, error) {
	var list struct {
		Value []graphAttachment `json:"value"`
	}
	if err := o.get(ctx, acct, graphBaseURL+"/me/messages/"+msgID+"/attachments", &list); err != nil {
		return nil, err
	}

	var attachments []entity.Attachment
	for _, raw := range list.Value {
		if !strings.HasSuffix(raw.ODataType, "fileAttachment") || raw.ContentBytes == "" {
			continue
		}
		data, err := base64.StdEncoding.DecodeString(raw.ContentBytes)
		if err != nil {
			o.logger.Warn("mail.outlook.attachment_decode_failed", "name", raw.Name, "error", err)
			continue
		}
		attachments = append(attachments, entity.Attachment{
			Filename:    raw.Name,
			ContentType: raw.ContentType,
			Data:        data,
		})
	}
	return attachments, nil
}

func (o *outlookProvider) MarkProcessed(ctx context.Context, acct *entity.EmailAccount, msg *entity.EmailMessage) error {
	body, _ := json.Marshal(map[string]any{"isRead": true})
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, graphBaseURL+"/me/messages/"+msg.ProviderID, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+acct.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("mark outlook message read: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return statusError(resp.StatusCode, b)
	}
	return nil
}

func (o *outlookProvider) get(ctx context.Context, acct *entity.EmailAccount, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+acct.AccessToken)

	resp, err := o.client.Do(req)
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
