package usecase

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"mailsub-backend/internal/scan"
	subdomain "mailsub-backend/internal/subscription/domain"
	subrepo "mailsub-backend/internal/subscription/repository"
	userrepo "mailsub-backend/internal/user/repository"
)

// MailSender sends the unsubscribe request mail through the provider
// the subscription was detected on. Implemented by pkg/gmail and
// pkg/outlook.
type MailSender interface {
	SendUnsubscribeMail(ctx context.Context, accessToken, from, to string) error
}

// UnsubscribeResult tells the caller what happened and, for manual
// unsubscribes, where to go.
type UnsubscribeResult struct {
	Method    string `json:"method"`               // one-click, mailto, manual
	Status    string `json:"status"`               // unsubscribed, pending
	ManualURL string `json:"manual_url,omitempty"` // set only for manual
}

// UnsubscribeUsecase executes unsubscribe requests using the best
// method extracted for the sender: RFC 8058 one-click POST first, then
// mailto through the user's own account, then handing the link back
// for a manual visit.
type UnsubscribeUsecase struct {
	subs       subrepo.SubscriptionRepository
	users      userrepo.UserRepository
	creds      scan.CredentialProvider
	senders    map[string]MailSender
	httpClient *http.Client
}

func NewUnsubscribeUsecase(
	subs subrepo.SubscriptionRepository,
	users userrepo.UserRepository,
	creds scan.CredentialProvider,
	senders map[string]MailSender,
) *UnsubscribeUsecase {
	return &UnsubscribeUsecase{
		subs:       subs,
		users:      users,
		creds:      creds,
		senders:    senders,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Unsubscribe runs the unsubscribe flow for one subscription.
func (u *UnsubscribeUsecase) Unsubscribe(ctx context.Context, userID, subscriptionID string) (*UnsubscribeResult, error) {
	sub, err := u.subs.FindByID(subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, fmt.Errorf("subscription %s not found", subscriptionID)
	}
	if sub.UserID != userID {
		return nil, fmt.Errorf("subscription %s does not belong to user %s", subscriptionID, userID)
	}
	if sub.Status == subdomain.StatusUnsubscribed {
		return &UnsubscribeResult{Method: string(sub.UnsubscribeType), Status: string(subdomain.StatusUnsubscribed)}, nil
	}
	if !sub.HasUnsubscribeMethod() {
		return nil, fmt.Errorf("sender %s offers no unsubscribe method", sub.SenderEmail)
	}

	switch sub.UnsubscribeType {
	case subdomain.UnsubscribeOneClick:
		if err := u.postOneClick(ctx, sub.UnsubscribeLink); err != nil {
			return nil, err
		}
		if err := u.markUnsubscribed(sub); err != nil {
			return nil, err
		}
		return &UnsubscribeResult{Method: "one-click", Status: string(subdomain.StatusUnsubscribed)}, nil

	case subdomain.UnsubscribeMailto:
		if err := u.sendMailto(ctx, sub); err != nil {
			return nil, err
		}
		if err := u.markUnsubscribed(sub); err != nil {
			return nil, err
		}
		return &UnsubscribeResult{Method: "mailto", Status: string(subdomain.StatusUnsubscribed)}, nil

	default:
		// A plain link cannot be confirmed server-side; the user has to
		// visit it themselves. Pending until they report back.
		sub.Status = subdomain.StatusPending
		if err := u.subs.Update(sub); err != nil {
			return nil, err
		}
		return &UnsubscribeResult{
			Method:    "manual",
			Status:    string(subdomain.StatusPending),
			ManualURL: sub.UnsubscribeLink,
		}, nil
	}
}

// ConfirmManual marks a pending manual unsubscribe as completed after
// the user visited the link.
func (u *UnsubscribeUsecase) ConfirmManual(userID, subscriptionID string) error {
	sub, err := u.subs.FindByID(subscriptionID)
	if err != nil {
		return err
	}
	if sub == nil {
		return fmt.Errorf("subscription %s not found", subscriptionID)
	}
	if sub.UserID != userID {
		return fmt.Errorf("subscription %s does not belong to user %s", subscriptionID, userID)
	}
	return u.markUnsubscribed(sub)
}

// postOneClick performs the RFC 8058 one-click POST. The body and
// content type are mandated by the RFC.
func (u *UnsubscribeUsecase) postOneClick(ctx context.Context, link string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, link, strings.NewReader("List-Unsubscribe=One-Click"))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("one-click unsubscribe request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("one-click unsubscribe returned status %d", resp.StatusCode)
	}
	log.Printf("[Unsubscribe] one-click POST to %s returned %d", link, resp.StatusCode)
	return nil
}

func (u *UnsubscribeUsecase) sendMailto(ctx context.Context, sub *subdomain.Subscription) error {
	sender, ok := u.senders[sub.AccountType]
	if !ok {
		return fmt.Errorf("no mail sender for account type %s", sub.AccountType)
	}

	user, err := u.users.FindByID(sub.UserID)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %s not found", sub.UserID)
	}

	accessToken, err := u.creds.ValidAccessToken(ctx, user, sub.AccountType)
	if err != nil {
		return err
	}

	if err := sender.SendUnsubscribeMail(ctx, accessToken, user.Email, sub.UnsubscribeMailto); err != nil {
		return fmt.Errorf("mailto unsubscribe failed: %w", err)
	}
	log.Printf("[Unsubscribe] sent unsubscribe mail to %s for user %s", sub.UnsubscribeMailto, sub.UserID)
	return nil
}

func (u *UnsubscribeUsecase) markUnsubscribed(sub *subdomain.Subscription) error {
	now := time.Now()
	sub.Status = subdomain.StatusUnsubscribed
	sub.UnsubscribedAt = &now
	return u.subs.Update(sub)
}
