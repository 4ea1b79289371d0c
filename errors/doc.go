// Package errors provides structured error types for kvhost.
//
// Errors are categorized by Phase (where the error occurred) and Kind (the
// outcome a caller observes). Kinds mirror the boundary taxonomy: not_found,
// failure, out_of_memory, handle_closed and invalid_cursor, plus
// invalid_input for rejected arguments.
//
// Use the Builder for structured error construction:
//
//	err := errors.New(errors.PhaseWrite, errors.KindFailure).
//		Detail("Failed to delete").
//		Cause(engineErr).
//		Build()
//
// Or use convenience constructors for common patterns:
//
//	err := errors.NotFound(errors.PhaseRead)
//	err := errors.HandleClosed(errors.PhaseIterate, "Iterator")
//
// StatusOf converts any error into the numeric Status reported to guests.
// Kind-only sentinels (ErrNotFound, ErrHandleClosed, ...) match through
// errors.Is regardless of phase.
package errors
