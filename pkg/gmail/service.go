package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"mailsub-backend/internal/scan"
	userdomain "mailsub-backend/internal/user/domain"

	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// candidateQuery restricts listing to the folders bulk mail lands in;
// spam, trash and sent are never subscription candidates.
const candidateQuery = "in:inbox -in:spam -in:trash -in:sent"

const listPageSize = 100

var metadataHeaders = []string{"From", "Subject", "Date", "List-Unsubscribe", "List-Unsubscribe-Post"}

// Service is the Gmail-shaped provider adapter. The resume token is
// the mailbox history id captured at the start of a pass; incremental
// passes replay history from the previous one.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) Name() string { return userdomain.AccountGmail }

func (s *Service) client(ctx context.Context, accessToken string) (*gmail.Service, error) {
	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	srv, err := gmail.NewService(ctx, option.WithTokenSource(src))
	if err != nil {
		return nil, &scan.TransportError{Provider: s.Name(), Err: err}
	}
	return srv, nil
}

// ListMessages walks candidate messages and fetches their headers. The
// new resume token (the profile history id read before listing) is
// only returned once the entire walk succeeds, so a crash mid-pass can
// never skip unseen messages on resume.
func (s *Service) ListMessages(ctx context.Context, accessToken, resumeToken string, handle func(scan.HeaderRecord) error) (string, error) {
	srv, err := s.client(ctx, accessToken)
	if err != nil {
		return "", err
	}

	profile, err := srv.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return "", s.wrapAPIError(err)
	}
	newToken := strconv.FormatUint(profile.HistoryId, 10)

	var ids []string
	if resumeToken == "" {
		ids, err = s.listAll(ctx, srv)
	} else {
		ids, err = s.listHistory(ctx, srv, resumeToken)
		if isHistoryExpired(err) {
			// History window expired; fall back to a full pass. The fresh
			// token still dates from before the listing, so nothing is lost.
			log.Printf("[Gmail] history id %s expired, falling back to full scan", resumeToken)
			ids, err = s.listAll(ctx, srv)
		}
	}
	if err != nil {
		return "", err
	}

	for _, id := range ids {
		record, ok, err := s.fetchHeaders(ctx, srv, id)
		if err != nil {
			return "", err
		}
		if !ok {
			continue
		}
		if err := handle(record); err != nil {
			return "", err
		}
	}
	return newToken, nil
}

func (s *Service) listAll(ctx context.Context, srv *gmail.Service) ([]string, error) {
	var ids []string
	pageToken := ""
	for {
		call := srv.Users.Messages.List("me").
			Q(candidateQuery).
			MaxResults(listPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, s.wrapAPIError(err)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (s *Service) listHistory(ctx context.Context, srv *gmail.Service, startHistoryID string) ([]string, error) {
	start, err := strconv.ParseUint(startHistoryID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed gmail history id %q: %w", startHistoryID, err)
	}

	seen := make(map[string]bool)
	var ids []string
	pageToken := ""
	for {
		call := srv.Users.History.List("me").
			StartHistoryId(start).
			HistoryTypes("messageAdded").
			LabelId("INBOX").
			MaxResults(listPageSize).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, s.wrapAPIError(err)
		}
		for _, h := range resp.History {
			for _, added := range h.MessagesAdded {
				if added.Message == nil || seen[added.Message.Id] {
					continue
				}
				seen[added.Message.Id] = true
				ids = append(ids, added.Message.Id)
			}
		}
		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

// fetchHeaders returns false without error when the message no longer
// exists; a message deleted between listing and fetch should not abort
// the whole pass.
func (s *Service) fetchHeaders(ctx context.Context, srv *gmail.Service, id string) (scan.HeaderRecord, bool, error) {
	call := srv.Users.Messages.Get("me", id).Format("metadata").Context(ctx)
	for _, h := range metadataHeaders {
		call = call.MetadataHeaders(h)
	}
	msg, err := call.Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return scan.HeaderRecord{}, false, nil
		}
		return scan.HeaderRecord{}, false, s.wrapAPIError(err)
	}
	if msg.Payload == nil {
		return scan.HeaderRecord{}, false, nil
	}

	var record scan.HeaderRecord
	for _, h := range msg.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			record.From = h.Value
		case "subject":
			record.Subject = h.Value
		case "date":
			record.Date = h.Value
		case "list-unsubscribe":
			record.ListUnsubscribe = h.Value
		case "list-unsubscribe-post":
			record.ListUnsubscribePost = h.Value
		}
	}
	return record, true, nil
}

// SendUnsubscribeMail sends a plain-text unsubscribe request from the
// user's own Gmail account to the sender's mailto address.
func (s *Service) SendUnsubscribeMail(ctx context.Context, accessToken, from, to string) error {
	srv, err := s.client(ctx, accessToken)
	if err != nil {
		return err
	}

	raw := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Unsubscribe\r\n\r\nPlease unsubscribe me from this mailing list.", from, to)
	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString([]byte(raw)),
	}
	if _, err := srv.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return s.wrapAPIError(err)
	}
	return nil
}

func (s *Service) wrapAPIError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusTooManyRequests:
			return fmt.Errorf("gmail: %w", scan.ErrRateLimited)
		case http.StatusUnauthorized, http.StatusForbidden:
			return &scan.AuthError{Provider: s.Name(), Err: err}
		}
	}
	return &scan.TransportError{Provider: s.Name(), Err: err}
}

func isHistoryExpired(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
