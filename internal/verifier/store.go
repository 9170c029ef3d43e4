// Package verifier persists PKCE code verifiers between the start of an
// authorization attempt and the provider callback. Every attempt gets its
// own slot keyed by the attempt id embedded in the signed state, so
// concurrent logins never observe each other's verifier.
package verifier

import (
	"context"

	"fitsync/internal/model"
)

// Store implementations return model.ErrVerifierNotFound for unknown or
// expired attempts and a *model.PersistenceError when the backend fails.
type Store interface {
	Save(ctx context.Context, attempt model.AuthAttempt) error
	Load(ctx context.Context, attemptID string) (model.AuthAttempt, error)
}
