package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	subdomain "mailsub-backend/internal/subscription/domain"
	subrepo "mailsub-backend/internal/subscription/repository"
	"mailsub-backend/pkg/classifier"
)

var nonLetterPattern = regexp.MustCompile(`[^a-zA-Z]`)

// CategorizationWorker drains the classification queue. Each tick
// processes exactly one item to stay inside third-party rate limits;
// throughput comes from tick cadence, not batch size.
type CategorizationWorker struct {
	queue   subrepo.QueueRepository
	senders subrepo.CommunitySenderRepository
	chain   []classifier.Classifier
}

func NewCategorizationWorker(
	queue subrepo.QueueRepository,
	senders subrepo.CommunitySenderRepository,
	chain []classifier.Classifier,
) *CategorizationWorker {
	return &CategorizationWorker{
		queue:   queue,
		senders: senders,
		chain:   chain,
	}
}

// Tick dequeues and processes at most one item. Returns nil when the
// queue is empty.
func (w *CategorizationWorker) Tick(ctx context.Context) error {
	item, err := w.queue.NextPending()
	if err != nil {
		return err
	}
	if item == nil {
		return nil
	}
	return w.processItem(ctx, item)
}

func (w *CategorizationWorker) processItem(ctx context.Context, item *subdomain.CategorizationQueueItem) error {
	// Persist the attempt before calling out so a crash mid-call cannot
	// silently re-process with a stale counter.
	item.Status = subdomain.QueueProcessing
	item.Attempts++
	if err := w.queue.Update(item); err != nil {
		return err
	}

	prompt := buildPrompt(item)
	category, provider := w.classify(ctx, item.Domain, prompt)

	now := time.Now()
	if category != "" {
		if err := w.saveToCommunity(item, category, provider); err != nil {
			return err
		}
		item.Status = subdomain.QueueDone
		item.AssignedCategory = category
		item.AIProvider = provider
		item.ErrorMessage = ""
		item.ProcessedAt = &now
	} else if item.Attempts >= item.MaxAttempts {
		// Out of attempts: force-resolve so the domain is never retried
		// forever and still gets a community entry.
		if err := w.saveToCommunity(item, subdomain.CategoryOther, "fallback"); err != nil {
			return err
		}
		item.Status = subdomain.QueueFailed
		item.AssignedCategory = subdomain.CategoryOther
		item.AIProvider = "fallback"
		item.ErrorMessage = "all classifier providers failed or returned an invalid category"
		item.ProcessedAt = &now
	} else {
		item.Status = subdomain.QueuePending
		item.ErrorMessage = "all classifier providers failed or returned an invalid category"
	}

	return w.queue.Update(item)
}

// classify walks the provider chain until one returns a valid label.
// Provider failures are logged and skipped; they never abort the item.
func (w *CategorizationWorker) classify(ctx context.Context, domain, prompt string) (category, provider string) {
	for _, c := range w.chain {
		raw, err := c.Classify(ctx, prompt)
		if err != nil {
			log.Printf("[Categorizer] %s failed for %s: %v", c.Name(), domain, err)
			continue
		}
		label := cleanLabel(raw)
		if !subdomain.IsValidCategory(label) {
			log.Printf("[Categorizer] %s returned invalid label %q for %s", c.Name(), label, domain)
			continue
		}
		category = subdomain.NormalizeCategory(label)
		log.Printf("[Categorizer] %s categorized %s as %s", c.Name(), domain, category)
		return category, c.Name()
	}
	return "", ""
}

func (w *CategorizationWorker) saveToCommunity(item *subdomain.CategorizationQueueItem, category, provider string) error {
	senderName := item.SenderName
	if senderName == "" {
		senderName = item.Domain
	}
	created, err := w.senders.CreateIfAbsent(&subdomain.CommunitySender{
		Domain:          item.Domain,
		SenderName:      senderName,
		Category:        category,
		ConfidenceScore: 70,
		CategorizedBy:   provider,
	})
	if err != nil {
		return err
	}
	if created {
		log.Printf("[Categorizer] saved %s -> %s to community registry", item.Domain, category)
	}
	return nil
}

func buildPrompt(item *subdomain.CategorizationQueueItem) string {
	subjects := "Not available"
	var parsed []string
	if item.SampleSubjects != "" && json.Unmarshal([]byte(item.SampleSubjects), &parsed) == nil && len(parsed) > 0 {
		subjects = strings.Join(parsed, "; ")
	}

	return fmt.Sprintf(
		"Categorize this email sender into exactly one category.\n\n"+
			"Sender Name: %s\n"+
			"Domain: %s\n"+
			"Recent Email Subjects: %s\n\n"+
			"Available categories: %s\n\n"+
			"Reply with ONLY the category name, nothing else.",
		item.SenderName, item.Domain, subjects,
		strings.Join(subdomain.Categories, ", "))
}

// cleanLabel strips everything but letters so answers like "News." or
// "**Finance**" still validate.
func cleanLabel(raw string) string {
	return nonLetterPattern.ReplaceAllString(strings.TrimSpace(raw), "")
}
