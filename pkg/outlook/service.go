package outlook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"mailsub-backend/internal/scan"
	userdomain "mailsub-backend/internal/user/domain"
)

const defaultBaseURL = "https://graph.microsoft.com/v1.0"

// deltaQuery is the first-pass inbox listing; later passes use the
// delta link Graph returned, which is a complete URL.
const deltaQuery = "/me/mailFolders/inbox/messages/delta?$select=sender,subject,receivedDateTime,internetMessageHeaders&$top=100"

// Service is the Outlook-shaped provider adapter over the Microsoft
// Graph delta API. The resume token is the @odata.deltaLink from the
// previous completed pass.
type Service struct {
	baseURL    string
	httpClient *http.Client
}

func NewService() *Service {
	return &Service{
		baseURL:    defaultBaseURL,
		httpClient: http.DefaultClient,
	}
}

// NewServiceWithBaseURL is used by tests to point the adapter at a
// local server.
func NewServiceWithBaseURL(baseURL string, client *http.Client) *Service {
	if client == nil {
		client = http.DefaultClient
	}
	return &Service{baseURL: baseURL, httpClient: client}
}

func (s *Service) Name() string { return userdomain.AccountOutlook }

type graphEmailAddress struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type graphMessage struct {
	Subject          string `json:"subject"`
	ReceivedDateTime string `json:"receivedDateTime"`
	Sender           struct {
		EmailAddress graphEmailAddress `json:"emailAddress"`
	} `json:"sender"`
	InternetMessageHeaders []struct {
		Name  string `json:"name"`
		Value string `json:"value"`
	} `json:"internetMessageHeaders"`
}

type deltaPage struct {
	Value     []graphMessage `json:"value"`
	NextLink  string         `json:"@odata.nextLink"`
	DeltaLink string         `json:"@odata.deltaLink"`
}

// ListMessages pages through the delta listing. Graph ends every walk
// with a deltaLink; that link is the resume token for the next pass and
// is only surfaced after all pages were consumed without error.
func (s *Service) ListMessages(ctx context.Context, accessToken, resumeToken string, handle func(scan.HeaderRecord) error) (string, error) {
	next := resumeToken
	if next == "" {
		next = s.baseURL + deltaQuery
	}

	deltaLink := ""
	for next != "" {
		page, err := s.fetchPage(ctx, accessToken, next)
		if err != nil {
			return "", err
		}
		for _, msg := range page.Value {
			if err := handle(toHeaderRecord(msg)); err != nil {
				return "", err
			}
		}
		if page.DeltaLink != "" {
			deltaLink = page.DeltaLink
		}
		next = page.NextLink
	}
	return deltaLink, nil
}

func (s *Service) fetchPage(ctx context.Context, accessToken, url string) (*deltaPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &scan.TransportError{Provider: s.Name(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, &scan.TransportError{Provider: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &scan.TransportError{Provider: s.Name(), Err: err}
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("outlook: %w", scan.ErrRateLimited)
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &scan.AuthError{Provider: s.Name(), Err: fmt.Errorf("graph API status %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return nil, &scan.TransportError{Provider: s.Name(), Err: fmt.Errorf("graph API status %d: %s", resp.StatusCode, string(body))}
	}

	var page deltaPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, &scan.TransportError{Provider: s.Name(), Err: fmt.Errorf("malformed delta page: %w", err)}
	}
	return &page, nil
}

// toHeaderRecord normalizes a Graph message to the provider-neutral
// header shape; the sender is recomposed into RFC 5322 form so the
// extractor treats both providers identically.
func toHeaderRecord(msg graphMessage) scan.HeaderRecord {
	record := scan.HeaderRecord{
		Subject: msg.Subject,
		Date:    msg.ReceivedDateTime,
	}

	addr := msg.Sender.EmailAddress
	if addr.Address != "" {
		if addr.Name != "" {
			record.From = fmt.Sprintf("%s <%s>", addr.Name, addr.Address)
		} else {
			record.From = addr.Address
		}
	}

	for _, h := range msg.InternetMessageHeaders {
		switch strings.ToLower(h.Name) {
		case "list-unsubscribe":
			record.ListUnsubscribe = h.Value
		case "list-unsubscribe-post":
			record.ListUnsubscribePost = h.Value
		}
	}
	return record
}

// SendUnsubscribeMail sends a plain-text unsubscribe request from the
// user's Outlook account via Graph sendMail.
func (s *Service) SendUnsubscribeMail(ctx context.Context, accessToken, from, to string) error {
	payload := map[string]interface{}{
		"message": map[string]interface{}{
			"subject": "Unsubscribe",
			"body": map[string]string{
				"contentType": "Text",
				"content":     "Please unsubscribe me from this mailing list.",
			},
			"toRecipients": []map[string]interface{}{
				{"emailAddress": map[string]string{"address": to}},
			},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/me/sendMail", bytes.NewReader(body))
	if err != nil {
		return &scan.TransportError{Provider: s.Name(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return &scan.TransportError{Provider: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &scan.TransportError{Provider: s.Name(), Err: fmt.Errorf("sendMail status %d: %s", resp.StatusCode, string(respBody))}
	}
	return nil
}
