package scan

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	subdomain "mailsub-backend/internal/subscription/domain"
)

func TestExtractSkipsNonCandidates(t *testing.T) {
	tests := []struct {
		name   string
		header HeaderRecord
	}{
		{
			name:   "no list-unsubscribe header",
			header: HeaderRecord{From: "News <news@example.com>", Subject: "Hello"},
		},
		{
			name: "unresolvable sender",
			header: HeaderRecord{
				From:            "not an address",
				ListUnsubscribe: "<https://example.com/unsub>",
			},
		},
		{
			name: "blank list-unsubscribe value",
			header: HeaderRecord{
				From:            "news@example.com",
				ListUnsubscribe: "   ",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Extract(tt.header)
			assert.False(t, ok)
		})
	}
}

func TestExtractParsesSenderAndDomain(t *testing.T) {
	msg, ok := Extract(HeaderRecord{
		From:            `"Acme Deals" <Deals@Mail.Acme.COM>`,
		Subject:         "  Weekly offers  ",
		Date:            "Mon, 02 Jan 2006 15:04:05 -0700",
		ListUnsubscribe: "<https://acme.com/unsub?u=1>",
	})
	require.True(t, ok)

	assert.Equal(t, "deals@mail.acme.com", msg.SenderEmail)
	assert.Equal(t, "Acme Deals", msg.SenderName)
	assert.Equal(t, "mail.acme.com", msg.Domain)
	assert.Equal(t, "Weekly offers", msg.Subject)
	assert.Equal(t, "https://acme.com/unsub?u=1", msg.UnsubscribeLink)
	assert.False(t, msg.Date.IsZero())
}

func TestClassifyUnsubscribe(t *testing.T) {
	tests := []struct {
		name            string
		listUnsubscribe string
		postHeader      string
		wantType        subdomain.UnsubscribeType
		wantLink        string
		wantMailto      string
	}{
		{
			name:            "one-click when post header present",
			listUnsubscribe: "<https://example.com/unsub>",
			postHeader:      "List-Unsubscribe=One-Click",
			wantType:        subdomain.UnsubscribeOneClick,
			wantLink:        "https://example.com/unsub",
		},
		{
			name:            "plain link without post header",
			listUnsubscribe: "<https://example.com/unsub>",
			wantType:        subdomain.UnsubscribeLink,
			wantLink:        "https://example.com/unsub",
		},
		{
			name:            "mailto only",
			listUnsubscribe: "<mailto:unsub@example.com>",
			wantType:        subdomain.UnsubscribeMailto,
			wantMailto:      "unsub@example.com",
		},
		{
			name:            "link wins over mailto when both present and no post header",
			listUnsubscribe: "<mailto:unsub@example.com>, <https://example.com/unsub>",
			wantType:        subdomain.UnsubscribeLink,
			wantLink:        "https://example.com/unsub",
			wantMailto:      "unsub@example.com",
		},
		{
			name:            "one-click wins when both present with post header",
			listUnsubscribe: "<mailto:unsub@example.com>, <https://example.com/unsub>",
			postHeader:      "List-Unsubscribe=One-Click",
			wantType:        subdomain.UnsubscribeOneClick,
			wantLink:        "https://example.com/unsub",
			wantMailto:      "unsub@example.com",
		},
		{
			name:            "post header without a URL cannot be one-click",
			listUnsubscribe: "<mailto:unsub@example.com>",
			postHeader:      "List-Unsubscribe=One-Click",
			wantType:        subdomain.UnsubscribeMailto,
			wantMailto:      "unsub@example.com",
		},
		{
			name:            "neither URL nor mailto yields no type",
			listUnsubscribe: "see the footer of any newsletter",
			wantType:        "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, ok := Extract(HeaderRecord{
				From:                "sender@example.com",
				ListUnsubscribe:     tt.listUnsubscribe,
				ListUnsubscribePost: tt.postHeader,
			})
			require.True(t, ok)
			assert.Equal(t, tt.wantType, msg.UnsubscribeType)
			assert.Equal(t, tt.wantLink, msg.UnsubscribeLink)
			assert.Equal(t, tt.wantMailto, msg.UnsubscribeMailto)
		})
	}
}

func TestAggregateCountsAndDedupesSubjects(t *testing.T) {
	msgs := []*ExtractedMessage{
		{SenderEmail: "a@x.com", Domain: "x.com", Subject: "One"},
		{SenderEmail: "a@x.com", Domain: "x.com", Subject: "Two"},
		{SenderEmail: "a@x.com", Domain: "x.com", Subject: "One"},
		{SenderEmail: "b@y.com", Domain: "y.com", Subject: "Other"},
	}

	aggs := Aggregate(msgs)
	require.Len(t, aggs, 2)

	a := aggs["a@x.com"]
	require.NotNil(t, a)
	assert.Equal(t, 3, a.Count)
	assert.Equal(t, []string{"One", "Two"}, a.Subjects)

	b := aggs["b@y.com"]
	require.NotNil(t, b)
	assert.Equal(t, 1, b.Count)
}

func TestAggregateNewestDescriptorWins(t *testing.T) {
	older := &ExtractedMessage{
		SenderEmail:     "a@x.com",
		Domain:          "x.com",
		Date:            mustDate(t, "Mon, 01 Jan 2024 10:00:00 +0000"),
		UnsubscribeLink: "https://x.com/old",
		UnsubscribeType: subdomain.UnsubscribeLink,
	}
	newer := &ExtractedMessage{
		SenderEmail:       "a@x.com",
		Domain:            "x.com",
		Date:              mustDate(t, "Mon, 08 Jan 2024 10:00:00 +0000"),
		UnsubscribeLink:   "https://x.com/new",
		UnsubscribeMailto: "unsub@x.com",
		UnsubscribeType:   subdomain.UnsubscribeOneClick,
	}

	// Newest-first input order: the fold must still prefer the newer
	// descriptor after sorting by date.
	aggs := Aggregate([]*ExtractedMessage{newer, older})
	a := aggs["a@x.com"]
	require.NotNil(t, a)

	assert.Equal(t, "https://x.com/new", a.UnsubscribeLink)
	assert.Equal(t, "unsub@x.com", a.UnsubscribeMailto)
	assert.Equal(t, subdomain.UnsubscribeOneClick, a.UnsubscribeType)
	assert.Equal(t, newer.Date, a.LastSeen)
}

func TestAggregateUnparsableDatesTreatedAsOldest(t *testing.T) {
	undated := &ExtractedMessage{
		SenderEmail:     "a@x.com",
		Domain:          "x.com",
		UnsubscribeLink: "https://x.com/undated",
	}
	dated := &ExtractedMessage{
		SenderEmail:     "a@x.com",
		Domain:          "x.com",
		Date:            mustDate(t, "Mon, 01 Jan 2024 10:00:00 +0000"),
		UnsubscribeLink: "https://x.com/dated",
	}

	aggs := Aggregate([]*ExtractedMessage{undated, dated})
	assert.Equal(t, "https://x.com/dated", aggs["a@x.com"].UnsubscribeLink)
}

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	parsed := parseDate(raw)
	require.False(t, parsed.IsZero())
	return parsed
}
