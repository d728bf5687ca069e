package scan

import (
	"net/mail"
	"regexp"
	"sort"
	"strings"
	"time"

	subdomain "mailsub-backend/internal/subscription/domain"
)

var (
	unsubscribeURLPattern    = regexp.MustCompile(`(?i)<(https?://[^>]+)>`)
	unsubscribeMailtoPattern = regexp.MustCompile(`(?i)<mailto:([^>]+)>`)
	angleAddrPattern         = regexp.MustCompile(`<([^>]+@[^>]+)>`)
)

// ExtractedMessage is one subscription-candidate message reduced to the
// fields the pipeline cares about.
type ExtractedMessage struct {
	SenderEmail       string
	SenderName        string
	Domain            string
	Subject           string
	Date              time.Time
	UnsubscribeLink   string
	UnsubscribeMailto string
	UnsubscribeType   subdomain.UnsubscribeType
}

// Extract parses one header record into a subscription candidate.
// Messages without a List-Unsubscribe header or without a resolvable
// sender address are not candidates and return false.
func Extract(h HeaderRecord) (*ExtractedMessage, bool) {
	if strings.TrimSpace(h.ListUnsubscribe) == "" {
		return nil, false
	}

	senderEmail := extractEmail(h.From)
	if senderEmail == "" {
		return nil, false
	}
	at := strings.LastIndex(senderEmail, "@")
	if at < 0 || at == len(senderEmail)-1 {
		return nil, false
	}

	link := ""
	if m := unsubscribeURLPattern.FindStringSubmatch(h.ListUnsubscribe); m != nil {
		link = m[1]
	}
	mailto := ""
	if m := unsubscribeMailtoPattern.FindStringSubmatch(h.ListUnsubscribe); m != nil {
		mailto = m[1]
	}

	return &ExtractedMessage{
		SenderEmail:       senderEmail,
		SenderName:        extractName(h.From),
		Domain:            strings.ToLower(senderEmail[at+1:]),
		Subject:           strings.TrimSpace(h.Subject),
		Date:              parseDate(h.Date),
		UnsubscribeLink:   link,
		UnsubscribeMailto: mailto,
		UnsubscribeType:   classifyUnsubscribe(h.ListUnsubscribePost, link, mailto),
	}, true
}

// classifyUnsubscribe: one-click needs both the RFC 8058 post header
// and a URL to post to; a URL without the header is a plain link even
// when a mailto is also present. A header that yields neither a URL
// nor a mailto gets no type at all.
func classifyUnsubscribe(postHeader, link, mailto string) subdomain.UnsubscribeType {
	switch {
	case link != "" && strings.Contains(postHeader, "One-Click"):
		return subdomain.UnsubscribeOneClick
	case link != "":
		return subdomain.UnsubscribeLink
	case mailto != "":
		return subdomain.UnsubscribeMailto
	default:
		return ""
	}
}

func extractEmail(from string) string {
	if m := angleAddrPattern.FindStringSubmatch(from); m != nil {
		return strings.ToLower(strings.TrimSpace(m[1]))
	}
	trimmed := strings.TrimSpace(from)
	if strings.Contains(trimmed, "@") {
		return strings.ToLower(trimmed)
	}
	return ""
}

func extractName(from string) string {
	if i := strings.Index(from, "<"); i >= 0 {
		name := strings.TrimSpace(from[:i])
		return strings.Trim(name, `"'`)
	}
	return strings.TrimSpace(from)
}

func parseDate(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	if t, err := mail.ParseDate(raw); err == nil {
		return t
	}
	// Graph timestamps are RFC 3339
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Time{}
}

// SenderAggregate is the per-sender fold of one scan pass.
type SenderAggregate struct {
	SenderEmail       string
	SenderName        string
	Domain            string
	Count             int
	Subjects          []string // order-preserving, deduplicated
	UnsubscribeLink   string
	UnsubscribeMailto string
	UnsubscribeType   subdomain.UnsubscribeType
	LastSeen          time.Time
}

// Aggregate folds extracted messages into per-sender aggregates. The
// messages are sorted ascending by date first so the newest message's
// unsubscribe descriptor wins regardless of the provider's iteration
// order; messages with unparsable dates are treated as oldest.
func Aggregate(msgs []*ExtractedMessage) map[string]*SenderAggregate {
	sorted := make([]*ExtractedMessage, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	out := make(map[string]*SenderAggregate)
	for _, m := range sorted {
		agg, ok := out[m.SenderEmail]
		if !ok {
			agg = &SenderAggregate{
				SenderEmail: m.SenderEmail,
				Domain:      m.Domain,
			}
			out[m.SenderEmail] = agg
		}
		agg.Count++
		if m.SenderName != "" {
			agg.SenderName = m.SenderName
		}
		agg.UnsubscribeLink = m.UnsubscribeLink
		agg.UnsubscribeMailto = m.UnsubscribeMailto
		agg.UnsubscribeType = m.UnsubscribeType
		if m.Date.After(agg.LastSeen) {
			agg.LastSeen = m.Date
		}
		if m.Subject != "" && !containsString(agg.Subjects, m.Subject) {
			agg.Subjects = append(agg.Subjects, m.Subject)
		}
	}
	return out
}

func containsString(ss []string, v string) bool {
	for _, s := range ss {
		if s == v {
			return true
		}
	}
	return false
}
