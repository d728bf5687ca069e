package scan

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	subdomain "mailsub-backend/internal/subscription/domain"
	subrepo "mailsub-backend/internal/subscription/repository"
	userdomain "mailsub-backend/internal/user/domain"
	userrepo "mailsub-backend/internal/user/repository"
)

const maxSampleSubjects = 3

// Engine drives one provider through a full or incremental pass and
// merges the result into the subscription store. A pass is
// all-or-nothing: nothing is written and the resume token is untouched
// unless the whole provider walk succeeds.
type Engine struct {
	users     userrepo.UserRepository
	subs      subrepo.SubscriptionRepository
	senders   subrepo.CommunitySenderRepository
	queue     subrepo.QueueRepository
	syncLogs  subrepo.SyncLogRepository
	creds     CredentialProvider
	providers map[string]Provider
}

// NewEngine creates a sync engine over the given providers, keyed by
// account type ("gmail", "outlook").
func NewEngine(
	users userrepo.UserRepository,
	subs subrepo.SubscriptionRepository,
	senders subrepo.CommunitySenderRepository,
	queue subrepo.QueueRepository,
	syncLogs subrepo.SyncLogRepository,
	creds CredentialProvider,
	providers map[string]Provider,
) *Engine {
	return &Engine{
		users:     users,
		subs:      subs,
		senders:   senders,
		queue:     queue,
		syncLogs:  syncLogs,
		creds:     creds,
		providers: providers,
	}
}

// RunPass executes one scan pass for a user's account and returns the
// persisted scan report. The returned error is the pass failure, if
// any; a report row is written either way.
func (e *Engine) RunPass(ctx context.Context, userID, accountType string) (*subdomain.SyncLog, error) {
	user, err := e.users.FindByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, fmt.Errorf("user %s not found", userID)
	}

	provider, ok := e.providers[accountType]
	if !ok {
		return nil, fmt.Errorf("no provider registered for account type %s", accountType)
	}

	resumeToken, err := e.resumeToken(user, accountType)
	if err != nil {
		return nil, err
	}

	syncType := "incremental"
	if resumeToken == "" {
		syncType = "full"
	}

	syncLog := &subdomain.SyncLog{
		UserID:      userID,
		AccountType: accountType,
		SyncType:    syncType,
		Status:      subdomain.SyncRunning,
	}
	if err := e.syncLogs.Create(syncLog); err != nil {
		return nil, err
	}
	started := time.Now()

	newSenders, scanned, err := e.runPass(ctx, user, provider, accountType, resumeToken)
	completed := time.Now()
	syncLog.EmailsScanned = scanned
	syncLog.DurationMs = completed.Sub(started).Milliseconds()
	syncLog.CompletedAt = &completed

	if err != nil {
		log.Printf("[Sync] %s pass failed for user %s: %v", accountType, userID, err)
		syncLog.Status = subdomain.SyncFailed
		syncLog.ErrorMessage = err.Error()
		if updErr := e.syncLogs.Update(syncLog); updErr != nil {
			log.Printf("[Sync] failed to persist failure report: %v", updErr)
		}
		return syncLog, err
	}

	syncLog.Status = subdomain.SyncSuccess
	syncLog.NewSendersFound = newSenders
	if err := e.syncLogs.Update(syncLog); err != nil {
		log.Printf("[Sync] failed to persist scan report: %v", err)
	}
	log.Printf("[Sync] %s %s pass for user %s: %d scanned, %d new senders",
		accountType, syncType, userID, scanned, newSenders)
	return syncLog, nil
}

// runPass does the provider walk and, only once it fully succeeds, the
// merge and the sync-state commit.
func (e *Engine) runPass(ctx context.Context, user *userdomain.User, provider Provider, accountType, resumeToken string) (newSenders, scanned int, err error) {
	accessToken, err := e.creds.ValidAccessToken(ctx, user, accountType)
	if err != nil {
		return 0, 0, err
	}

	var extracted []*ExtractedMessage
	newToken, err := provider.ListMessages(ctx, accessToken, resumeToken, func(h HeaderRecord) error {
		scanned++
		if msg, ok := Extract(h); ok {
			extracted = append(extracted, msg)
		}
		return nil
	})
	if err != nil {
		// The per-pass aggregate is discarded; the previous resume token
		// stays in place so the next run re-covers this ground.
		return 0, scanned, err
	}

	aggregates := Aggregate(extracted)
	for _, agg := range sortedAggregates(aggregates) {
		created, err := e.mergeSender(user.ID, accountType, agg)
		if err != nil {
			return newSenders, scanned, err
		}
		if created {
			newSenders++
		}
	}

	// The last-sync timestamp is always committed on success so the
	// scheduler's staleness check sees the pass; a provider that returns
	// no new token keeps the previous one.
	token := newToken
	if token == "" {
		token = resumeToken
	}
	if err := e.users.SaveSyncState(user.ID, accountType, token, time.Now()); err != nil {
		return newSenders, scanned, err
	}
	return newSenders, scanned, nil
}

// mergeSender upserts the subscription record for one aggregated sender
// and links it to the community registry, queueing the domain for
// classification when no entry exists yet. Returns true when the
// subscription was newly created.
func (e *Engine) mergeSender(userID, accountType string, agg *SenderAggregate) (bool, error) {
	sub, err := e.subs.FindByUserSenderAccount(userID, agg.SenderEmail, accountType)
	if err != nil {
		return false, err
	}

	now := time.Now()
	lastSeen := agg.LastSeen
	if lastSeen.IsZero() {
		lastSeen = now
	}

	created := false
	if sub == nil {
		sub = &subdomain.Subscription{
			UserID:          userID,
			SenderEmail:     agg.SenderEmail,
			AccountType:     accountType,
			TotalEmailCount: agg.Count,
			FirstEmailAt:    &now,
			Status:          subdomain.StatusActive,
		}
		created = true
	} else {
		sub.TotalEmailCount += agg.Count
	}
	sub.SenderName = agg.SenderName
	sub.EmailCount30Days = agg.Count
	sub.UnsubscribeLink = agg.UnsubscribeLink
	sub.UnsubscribeMailto = agg.UnsubscribeMailto
	sub.UnsubscribeType = agg.UnsubscribeType
	sub.LastEmailAt = &lastSeen

	sender, err := e.senders.FindByDomain(agg.Domain)
	if err != nil {
		return false, err
	}
	if sender != nil {
		sub.CommunitySenderID = &sender.ID
	} else if err := e.enqueueDomain(agg); err != nil {
		return false, err
	}

	if created {
		err = e.subs.Create(sub)
	} else {
		err = e.subs.Update(sub)
	}
	return created, err
}

func (e *Engine) enqueueDomain(agg *SenderAggregate) error {
	subjects := agg.Subjects
	if len(subjects) > maxSampleSubjects {
		subjects = subjects[:maxSampleSubjects]
	}
	encoded, err := json.Marshal(subjects)
	if err != nil {
		return err
	}

	queued, err := e.queue.EnqueueIfAbsent(&subdomain.CategorizationQueueItem{
		Domain:         agg.Domain,
		SenderName:     agg.SenderName,
		SenderEmail:    agg.SenderEmail,
		SampleSubjects: string(encoded),
	})
	if err != nil {
		return err
	}
	if queued {
		log.Printf("[Sync] queued %s for categorization", agg.Domain)
	}
	return nil
}

func (e *Engine) resumeToken(user *userdomain.User, accountType string) (string, error) {
	switch accountType {
	case userdomain.AccountGmail:
		if !user.GmailConnected {
			return "", fmt.Errorf("gmail not connected for user %s", user.ID)
		}
		return user.GmailSyncToken, nil
	case userdomain.AccountOutlook:
		if !user.OutlookConnected {
			return "", fmt.Errorf("outlook not connected for user %s", user.ID)
		}
		return user.OutlookDeltaToken, nil
	default:
		return "", fmt.Errorf("unknown account type: %s", accountType)
	}
}

// sortedAggregates yields a stable merge order so re-running a pass
// over the same mailbox touches rows in the same sequence.
func sortedAggregates(m map[string]*SenderAggregate) []*SenderAggregate {
	out := make([]*SenderAggregate, 0, len(m))
	for _, agg := range m {
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SenderEmail < out[j].SenderEmail })
	return out
}
