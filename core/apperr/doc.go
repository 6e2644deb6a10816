// Package apperr defines the error kinds shared by every feature.
//
// Errors are plain Go errors wrapped around one of the sentinel kinds below, so
// callers classify them with errors.Is regardless of how much context was added
// on the way up.
//
// # Kinds
//
//   - ErrValidation: malformed or mismatched input, illegal state transition.
//   - ErrConflict: duplicate content for a product.
//   - ErrNotFound: unknown product or item.
//   - ErrIntegrity: a sealed payload failed authentication.
//   - ErrConfiguration: missing or malformed process configuration.
//   - ErrRetryable: transient contention (lock wait timeout, deadlock).
//
// # Usage
//
//	return apperr.Validationf("item %s is %s, not reserved", id, status)
//
//	if errors.Is(err, apperr.ErrConflict) { ... }
//	c.Status(apperr.HTTPStatus(err))
package apperr
