package usecase

import (
	"fmt"
	"log"

	subdomain "mailsub-backend/internal/subscription/domain"
	subrepo "mailsub-backend/internal/subscription/repository"
)

// SubscriptionView is the per-subscription row returned to the dashboard
type SubscriptionView struct {
	ID               string  `json:"id"`
	SenderEmail      string  `json:"sender_email"`
	SenderName       string  `json:"sender_name"`
	AccountType      string  `json:"account_type"`
	Category         string  `json:"category"`
	Status           string  `json:"status"`
	EmailCount30Days int     `json:"email_count_30days"`
	TotalEmailCount  int     `json:"total_email_count"`
	Frequency        string  `json:"frequency"`
	UnsubscribeType  string  `json:"unsubscribe_type,omitempty"`
	HasUnsubscribe   bool    `json:"has_unsubscribe"`
	LastEmailAt      *string `json:"last_email_at,omitempty"`
	UnsubscribedAt   *string `json:"unsubscribed_at,omitempty"`
}

// Dashboard groups a user's subscriptions by effective category
type Dashboard struct {
	Categories        map[string][]SubscriptionView `json:"categories"`
	TotalSenders      int                           `json:"total_senders"`
	TotalActive       int                           `json:"total_active"`
	TotalUnsubscribed int                           `json:"total_unsubscribed"`
}

// SubscriptionUsecase serves the review surface and runs the
// correction/consensus flow.
type SubscriptionUsecase struct {
	subs        subrepo.SubscriptionRepository
	senders     subrepo.CommunitySenderRepository
	corrections subrepo.CorrectionRepository
}

func NewSubscriptionUsecase(
	subs subrepo.SubscriptionRepository,
	senders subrepo.CommunitySenderRepository,
	corrections subrepo.CorrectionRepository,
) *SubscriptionUsecase {
	return &SubscriptionUsecase{
		subs:        subs,
		senders:     senders,
		corrections: corrections,
	}
}

// GetDashboard returns the user's subscriptions grouped by effective
// category, in the fixed category display order.
func (u *SubscriptionUsecase) GetDashboard(userID string) (*Dashboard, error) {
	subs, err := u.subs.FindByUserID(userID)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{
		Categories:   make(map[string][]SubscriptionView),
		TotalSenders: len(subs),
	}
	for _, sub := range subs {
		category := sub.EffectiveCategory()
		dash.Categories[category] = append(dash.Categories[category], toView(sub))
		switch sub.Status {
		case subdomain.StatusActive:
			dash.TotalActive++
		case subdomain.StatusUnsubscribed:
			dash.TotalUnsubscribed++
		}
	}
	return dash, nil
}

// GetByCategory returns the user's subscriptions whose effective
// category matches.
func (u *SubscriptionUsecase) GetByCategory(userID, category string) ([]SubscriptionView, error) {
	subs, err := u.subs.FindByUserID(userID)
	if err != nil {
		return nil, err
	}
	views := make([]SubscriptionView, 0)
	for _, sub := range subs {
		if sub.EffectiveCategory() == category {
			views = append(views, toView(sub))
		}
	}
	return views, nil
}

// CorrectCategory records a user's category override. The override
// always governs that user's own view; if the subscription is linked to
// a community entry, the correction also feeds the consensus, which may
// overwrite the shared category once enough users agree.
func (u *SubscriptionUsecase) CorrectCategory(userID, subscriptionID, newCategory string) error {
	if !subdomain.IsValidCategory(newCategory) {
		return fmt.Errorf("unknown category: %s", newCategory)
	}
	newCategory = subdomain.NormalizeCategory(newCategory)

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

	originalCategory := sub.EffectiveCategory()
	sub.CustomCategory = newCategory
	if err := u.subs.Update(sub); err != nil {
		return err
	}

	// Corrections against domains with no community entry are not
	// aggregated; there is nothing for a consensus to overwrite.
	if sub.CommunitySenderID == nil {
		return nil
	}

	correction := &subdomain.UserCorrection{
		UserID:            userID,
		CommunitySenderID: *sub.CommunitySenderID,
		OriginalCategory:  originalCategory,
		CorrectedCategory: newCategory,
	}
	if err := u.corrections.Create(correction); err != nil {
		return err
	}
	return u.recomputeConsensus(*sub.CommunitySenderID)
}

// recomputeConsensus overwrites the community category once the quorum
// and agreement thresholds are met. Ties on the top count break to the
// lexicographically smallest category, which CountByCategory's ordering
// guarantees.
func (u *SubscriptionUsecase) recomputeConsensus(communitySenderID string) error {
	total, err := u.corrections.CountBySender(communitySenderID)
	if err != nil {
		return err
	}
	if total < subdomain.CorrectionQuorum {
		return nil
	}

	counts, err := u.corrections.CountByCategory(communitySenderID)
	if err != nil {
		return err
	}
	if len(counts) == 0 {
		return nil
	}

	top := counts[0]
	agreement := float64(top.Count) / float64(total)
	if agreement < subdomain.ConsensusAgreement {
		return nil
	}

	sender, err := u.senders.FindByID(communitySenderID)
	if err != nil {
		return err
	}
	if sender == nil {
		return nil
	}

	sender.Category = top.Category
	sender.ConfidenceScore = agreement * 100
	sender.CorrectionCount = int(total)
	if err := u.senders.Update(sender); err != nil {
		return err
	}
	log.Printf("[Consensus] community registry updated: %s -> %s (%.0f%% of %d corrections)",
		sender.Domain, top.Category, agreement*100, total)
	return nil
}

func toView(sub *subdomain.Subscription) SubscriptionView {
	view := SubscriptionView{
		ID:               sub.ID,
		SenderEmail:      sub.SenderEmail,
		SenderName:       sub.SenderName,
		AccountType:      sub.AccountType,
		Category:         sub.EffectiveCategory(),
		Status:           string(sub.Status),
		EmailCount30Days: sub.EmailCount30Days,
		TotalEmailCount:  sub.TotalEmailCount,
		Frequency:        frequencyLabel(sub.EmailCount30Days),
		UnsubscribeType:  string(sub.UnsubscribeType),
		HasUnsubscribe:   sub.HasUnsubscribeMethod(),
	}
	if sub.LastEmailAt != nil {
		s := sub.LastEmailAt.Format("2006-01-02T15:04:05Z07:00")
		view.LastEmailAt = &s
	}
	if sub.UnsubscribedAt != nil {
		s := sub.UnsubscribedAt.Format("2006-01-02T15:04:05Z07:00")
		view.UnsubscribedAt = &s
	}
	return view
}

func frequencyLabel(count int) string {
	switch {
	case count > 20:
		return "20+ emails recently"
	case count >= 10:
		return "10-20 emails recently"
	default:
		return "10 or fewer emails recently"
	}
}
