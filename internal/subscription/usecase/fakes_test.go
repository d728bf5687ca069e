package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	subdomain "mailsub-backend/internal/subscription/domain"
	subrepo "mailsub-backend/internal/subscription/repository"
	userdomain "mailsub-backend/internal/user/domain"
)

type memSubRepo struct {
	subs    map[string]*subdomain.Subscription
	updated int
}

func newMemSubRepo(subs ...*subdomain.Subscription) *memSubRepo {
	r := &memSubRepo{subs: make(map[string]*subdomain.Subscription)}
	for _, s := range subs {
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		r.subs[s.ID] = s
	}
	return r
}

func (r *memSubRepo) Create(s *subdomain.Subscription) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	r.subs[s.ID] = s
	return nil
}
func (r *memSubRepo) Update(s *subdomain.Subscription) error {
	r.updated++
	r.subs[s.ID] = s
	return nil
}
func (r *memSubRepo) FindByID(id string) (*subdomain.Subscription, error) {
	return r.subs[id], nil
}
func (r *memSubRepo) FindByUserSenderAccount(userID, senderEmail, accountType string) (*subdomain.Subscription, error) {
	for _, s := range r.subs {
		if s.UserID == userID && s.SenderEmail == senderEmail && s.AccountType == accountType {
			return s, nil
		}
	}
	return nil, nil
}
func (r *memSubRepo) FindByUserID(userID string) ([]*subdomain.Subscription, error) {
	var out []*subdomain.Subscription
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memSenderRepo struct {
	senders map[string]*subdomain.CommunitySender // by domain
}

func newMemSenderRepo(senders ...*subdomain.CommunitySender) *memSenderRepo {
	r := &memSenderRepo{senders: make(map[string]*subdomain.CommunitySender)}
	for _, s := range senders {
		if s.ID == "" {
			s.ID = uuid.New().String()
		}
		r.senders[s.Domain] = s
	}
	return r
}

func (r *memSenderRepo) FindByID(id string) (*subdomain.CommunitySender, error) {
	for _, s := range r.senders {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}
func (r *memSenderRepo) FindByDomain(domain string) (*subdomain.CommunitySender, error) {
	return r.senders[domain], nil
}
func (r *memSenderRepo) ExistsByDomain(domain string) (bool, error) {
	_, ok := r.senders[domain]
	return ok, nil
}
func (r *memSenderRepo) CreateIfAbsent(s *subdomain.CommunitySender) (bool, error) {
	if _, ok := r.senders[s.Domain]; ok {
		return false, nil
	}
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	r.senders[s.Domain] = s
	return true, nil
}
func (r *memSenderRepo) Update(s *subdomain.CommunitySender) error {
	r.senders[s.Domain] = s
	return nil
}

type memQueueRepo struct {
	items []*subdomain.CategorizationQueueItem
}

func (r *memQueueRepo) EnqueueIfAbsent(item *subdomain.CategorizationQueueItem) (bool, error) {
	for _, existing := range r.items {
		if existing.Domain == item.Domain && existing.Status != subdomain.QueueFailed {
			return false, nil
		}
	}
	item.ID = uuid.New().String()
	item.Status = subdomain.QueuePending
	if item.MaxAttempts == 0 {
		item.MaxAttempts = subdomain.DefaultMaxAttempts
	}
	r.items = append(r.items, item)
	return true, nil
}
func (r *memQueueRepo) NextPending() (*subdomain.CategorizationQueueItem, error) {
	for _, item := range r.items {
		if item.Status == subdomain.QueuePending && item.Attempts < item.MaxAttempts {
			return item, nil
		}
	}
	return nil, nil
}
func (r *memQueueRepo) Update(item *subdomain.CategorizationQueueItem) error { return nil }

// memCorrectionRepo tallies corrections in memory, mirroring the SQL
// ordering of the real repository.
type memCorrectionRepo struct {
	corrections []*subdomain.UserCorrection
}

func (r *memCorrectionRepo) Create(c *subdomain.UserCorrection) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	r.corrections = append(r.corrections, c)
	return nil
}
func (r *memCorrectionRepo) CountBySender(communitySenderID string) (int64, error) {
	var n int64
	for _, c := range r.corrections {
		if c.CommunitySenderID == communitySenderID {
			n++
		}
	}
	return n, nil
}
func (r *memCorrectionRepo) CountByCategory(communitySenderID string) ([]subrepo.CategoryCount, error) {
	tally := make(map[string]int64)
	for _, c := range r.corrections {
		if c.CommunitySenderID == communitySenderID {
			tally[c.CorrectedCategory]++
		}
	}
	var out []subrepo.CategoryCount
	for category, count := range tally {
		out = append(out, subrepo.CategoryCount{Category: category, Count: count})
	}
	// count desc, category asc
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Count > out[i].Count ||
				(out[j].Count == out[i].Count && out[j].Category < out[i].Category) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

type memSyncLogRepo struct {
	logs []*subdomain.SyncLog
}

func (r *memSyncLogRepo) Create(l *subdomain.SyncLog) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	r.logs = append(r.logs, l)
	return nil
}
func (r *memSyncLogRepo) Update(l *subdomain.SyncLog) error { return nil }
func (r *memSyncLogRepo) FindByUserID(userID string, limit int) ([]*subdomain.SyncLog, error) {
	var out []*subdomain.SyncLog
	for _, l := range r.logs {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

type memUserRepo struct {
	users map[string]*userdomain.User
}

func newMemUserRepo(users ...*userdomain.User) *memUserRepo {
	r := &memUserRepo{users: make(map[string]*userdomain.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memUserRepo) Create(u *userdomain.User) error                { r.users[u.ID] = u; return nil }
func (r *memUserRepo) FindByID(id string) (*userdomain.User, error)   { return r.users[id], nil }
func (r *memUserRepo) FindByEmail(e string) (*userdomain.User, error) { return nil, nil }
func (r *memUserRepo) Update(u *userdomain.User) error                { r.users[u.ID] = u; return nil }
func (r *memUserRepo) FindAll() ([]*userdomain.User, error) {
	var out []*userdomain.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}
func (r *memUserRepo) SaveSyncState(userID, accountType, resumeToken string, syncedAt time.Time) error {
	u, ok := r.users[userID]
	if !ok {
		return fmt.Errorf("user %s not found", userID)
	}
	switch accountType {
	case userdomain.AccountGmail:
		u.GmailSyncToken = resumeToken
		u.GmailLastSync = &syncedAt
	case userdomain.AccountOutlook:
		u.OutlookDeltaToken = resumeToken
		u.OutlookLastSync = &syncedAt
	}
	return nil
}

type stubCreds struct {
	token string
	err   error
}

func (c *stubCreds) ValidAccessToken(ctx context.Context, user *userdomain.User, accountType string) (string, error) {
	return c.token, c.err
}

// stubClassifier returns a scripted sequence of answers, one per call.
type stubClassifier struct {
	name    string
	answers []string
	errs    []error
	calls   int
}

func (c *stubClassifier) Name() string { return c.name }

func (c *stubClassifier) Classify(ctx context.Context, prompt string) (string, error) {
	i := c.calls
	c.calls++
	if i < len(c.errs) && c.errs[i] != nil {
		return "", c.errs[i]
	}
	if i < len(c.answers) {
		return c.answers[i], nil
	}
	return "", fmt.Errorf("no scripted answer for call %d", i)
}
