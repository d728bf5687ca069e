package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	subdomain "mailsub-backend/internal/subscription/domain"
)

func linkedSubscription(userID string, sender *subdomain.CommunitySender) *subdomain.Subscription {
	return &subdomain.Subscription{
		UserID:            userID,
		SenderEmail:       "mail@" + sender.Domain,
		AccountType:       "gmail",
		SenderName:        sender.SenderName,
		CommunitySenderID: &sender.ID,
		CommunitySender:   sender,
		Status:            subdomain.StatusActive,
	}
}

func TestGetDashboardGroupsByEffectiveCategory(t *testing.T) {
	news := &subdomain.CommunitySender{ID: "cs-1", Domain: "news.com", SenderName: "News", Category: "News"}
	shop := &subdomain.CommunitySender{ID: "cs-2", Domain: "shop.com", SenderName: "Shop", Category: "Shopping"}

	newsSub := linkedSubscription("user-1", news)
	newsSub.EmailCount30Days = 25

	shopSub := linkedSubscription("user-1", shop)
	shopSub.CustomCategory = "Finance" // user override wins over community
	shopSub.Status = subdomain.StatusUnsubscribed
	shopSub.EmailCount30Days = 4

	unlinked := &subdomain.Subscription{
		UserID:      "user-1",
		SenderEmail: "hello@unknown.com",
		AccountType: "gmail",
		Status:      subdomain.StatusActive,
	}

	otherUsers := linkedSubscription("user-2", news)

	subs := newMemSubRepo(newsSub, shopSub, unlinked, otherUsers)
	uc := NewSubscriptionUsecase(subs, newMemSenderRepo(news, shop), &memCorrectionRepo{})

	dash, err := uc.GetDashboard("user-1")
	require.NoError(t, err)

	assert.Equal(t, 3, dash.TotalSenders)
	assert.Equal(t, 2, dash.TotalActive)
	assert.Equal(t, 1, dash.TotalUnsubscribed)

	require.Len(t, dash.Categories["News"], 1)
	require.Len(t, dash.Categories["Finance"], 1)
	require.Len(t, dash.Categories["Other"], 1, "unlinked senders fall back to Other")
	assert.Empty(t, dash.Categories["Shopping"], "override removes the community grouping")

	assert.Equal(t, "20+ emails recently", dash.Categories["News"][0].Frequency)
	assert.Equal(t, "10 or fewer emails recently", dash.Categories["Finance"][0].Frequency)
}

func TestGetByCategoryFiltersOnEffectiveCategory(t *testing.T) {
	news := &subdomain.CommunitySender{ID: "cs-1", Domain: "news.com", SenderName: "News", Category: "News"}
	sub := linkedSubscription("user-1", news)

	uc := NewSubscriptionUsecase(newMemSubRepo(sub), newMemSenderRepo(news), &memCorrectionRepo{})

	views, err := uc.GetByCategory("user-1", "News")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "mail@news.com", views[0].SenderEmail)

	views, err = uc.GetByCategory("user-1", "Travel")
	require.NoError(t, err)
	assert.Empty(t, views)
}

func TestCorrectCategoryValidatesInput(t *testing.T) {
	news := &subdomain.CommunitySender{ID: "cs-1", Domain: "news.com", SenderName: "News", Category: "News"}
	sub := linkedSubscription("user-1", news)
	uc := NewSubscriptionUsecase(newMemSubRepo(sub), newMemSenderRepo(news), &memCorrectionRepo{})

	assert.Error(t, uc.CorrectCategory("user-1", sub.ID, "Discounts"), "unknown category")
	assert.Error(t, uc.CorrectCategory("user-2", sub.ID, "Finance"), "wrong owner")
	assert.Error(t, uc.CorrectCategory("user-1", "missing", "Finance"), "unknown subscription")
}

func TestCorrectCategorySetsOverrideAndLogsCorrection(t *testing.T) {
	news := &subdomain.CommunitySender{ID: "cs-1", Domain: "news.com", SenderName: "News", Category: "News"}
	sub := linkedSubscription("user-1", news)
	corrections := &memCorrectionRepo{}
	uc := NewSubscriptionUsecase(newMemSubRepo(sub), newMemSenderRepo(news), corrections)

	require.NoError(t, uc.CorrectCategory("user-1", sub.ID, "finance"))

	assert.Equal(t, "Finance", sub.CustomCategory, "category is normalized to canonical casing")
	assert.Equal(t, "Finance", sub.EffectiveCategory())

	require.Len(t, corrections.corrections, 1)
	assert.Equal(t, "News", corrections.corrections[0].OriginalCategory)
	assert.Equal(t, "Finance", corrections.corrections[0].CorrectedCategory)
}

func TestCorrectCategoryUnlinkedSubscriptionSkipsConsensus(t *testing.T) {
	sub := &subdomain.Subscription{
		UserID:      "user-1",
		SenderEmail: "hello@unknown.com",
		AccountType: "gmail",
		Status:      subdomain.StatusActive,
	}
	corrections := &memCorrectionRepo{}
	uc := NewSubscriptionUsecase(newMemSubRepo(sub), newMemSenderRepo(), corrections)

	require.NoError(t, uc.CorrectCategory("user-1", sub.ID, "Finance"))
	assert.Equal(t, "Finance", sub.CustomCategory)
	assert.Empty(t, corrections.corrections)
}

// Ten corrections with eight agreeing crosses both the quorum and the
// 70% agreement bar, so the community entry is rewritten.
func TestConsensusOverwritesCommunityCategory(t *testing.T) {
	news := &subdomain.CommunitySender{ID: "cs-1", Domain: "news.com", SenderName: "News", Category: "News", ConfidenceScore: 70}
	senders := newMemSenderRepo(news)
	corrections := &memCorrectionRepo{}

	subs := newMemSubRepo()
	var created []*subdomain.Subscription
	for i := 0; i < 10; i++ {
		sub := linkedSubscription(string(rune('a'+i)), news)
		require.NoError(t, subs.Create(sub))
		created = append(created, sub)
	}
	uc := NewSubscriptionUsecase(subs, senders, corrections)

	for i, sub := range created {
		category := "Finance"
		if i >= 8 {
			category = "Travel"
		}
		require.NoError(t, uc.CorrectCategory(sub.UserID, sub.ID, category))
	}

	assert.Equal(t, "Finance", news.Category)
	assert.Equal(t, float64(80), news.ConfidenceScore, "confidence is the agreement ratio as a percentage")
	assert.Equal(t, 10, news.CorrectionCount)
}

// Six of ten is above quorum but under the 70% agreement bar; the
// community entry stays untouched.
func TestConsensusBelowAgreementLeavesCategory(t *testing.T) {
	news := &subdomain.CommunitySender{ID: "cs-1", Domain: "news.com", SenderName: "News", Category: "News", ConfidenceScore: 70}
	senders := newMemSenderRepo(news)
	corrections := &memCorrectionRepo{}

	subs := newMemSubRepo()
	var created []*subdomain.Subscription
	for i := 0; i < 10; i++ {
		sub := linkedSubscription(string(rune('a'+i)), news)
		require.NoError(t, subs.Create(sub))
		created = append(created, sub)
	}
	uc := NewSubscriptionUsecase(subs, senders, corrections)

	for i, sub := range created {
		category := "Finance"
		if i >= 6 {
			category = "Travel"
		}
		require.NoError(t, uc.CorrectCategory(sub.UserID, sub.ID, category))
	}

	assert.Equal(t, "News", news.Category)
	assert.Equal(t, float64(70), news.ConfidenceScore)
}

// Below quorum nothing is recomputed regardless of agreement.
func TestConsensusBelowQuorumIsInert(t *testing.T) {
	news := &subdomain.CommunitySender{ID: "cs-1", Domain: "news.com", SenderName: "News", Category: "News"}
	senders := newMemSenderRepo(news)
	subs := newMemSubRepo()
	var created []*subdomain.Subscription
	for i := 0; i < 9; i++ {
		sub := linkedSubscription(string(rune('a'+i)), news)
		require.NoError(t, subs.Create(sub))
		created = append(created, sub)
	}
	uc := NewSubscriptionUsecase(subs, senders, &memCorrectionRepo{})

	for _, sub := range created {
		require.NoError(t, uc.CorrectCategory(sub.UserID, sub.ID, "Finance"))
	}

	assert.Equal(t, "News", news.Category)
}
