package classifier

import (
	"context"
	"errors"
)

// ErrInvalidResponse means the provider answered but the payload could
// not be reduced to a label. Recoverable by falling through to the next
// provider in the chain.
var ErrInvalidResponse = errors.New("classifier returned an unparsable response")

// Classifier is a single-shot prompt-completion provider. Classify
// sends the prompt and returns the provider's raw text answer; callers
// validate the label against the category set themselves.
type Classifier interface {
	Name() string
	Classify(ctx context.Context, prompt string) (string, error)
}
