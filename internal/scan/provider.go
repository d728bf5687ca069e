package scan

import (
	"context"
	"errors"
	"fmt"

	userdomain "mailsub-backend/internal/user/domain"
)

// HeaderRecord is the provider-neutral view of one message's headers,
// the only thing the pipeline ever reads from a mailbox.
type HeaderRecord struct {
	From                string
	Subject             string
	Date                string
	ListUnsubscribe     string
	ListUnsubscribePost string
}

// Provider lists candidate messages from a mail account. ListMessages
// walks the provider's paginated listing API starting from resumeToken
// (empty means full scan) and invokes handle once per candidate
// message. The returned token resumes the next pass; it is only valid
// when the walk completed without error, so callers must not persist it
// on failure. A non-nil error from handle aborts the walk.
type Provider interface {
	Name() string
	ListMessages(ctx context.Context, accessToken, resumeToken string, handle func(HeaderRecord) error) (newToken string, err error)
}

// CredentialProvider resolves a currently valid access token for one of
// a user's mail accounts, refreshing and persisting it when it is about
// to expire. Refresh failures surface as *AuthError.
type CredentialProvider interface {
	ValidAccessToken(ctx context.Context, user *userdomain.User, accountType string) (string, error)
}

// AuthError means a credential could not be resolved or was rejected.
// The pass aborts and sync state is preserved.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s auth failed: %v", e.Provider, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// TransportError is a network or HTTP failure from a provider API. The
// pass aborts without state mutation and the next scheduled run retries.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s transport error: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ErrRateLimited marks provider throttling. Handled like a transport
// failure, but the scheduler may choose to back off before retrying.
var ErrRateLimited = errors.New("rate limited by provider")
