// Package enginerrors defines the sentinel error values shared across the
// ad decision engine. The engine never panics across a host boundary; every
// failure is a plain error value the caller can compare against one of
// these.
package enginerrors

import "errors"

var (
	// ErrCatalogParse is returned when the catalog JSON document cannot be
	// decoded at all.
	ErrCatalogParse = errors.New("catalog: parse error")
	// ErrCatalogVersion is returned when the catalog's version field is not 1.
	ErrCatalogVersion = errors.New("catalog: unsupported version")
	// ErrCatalogExecution is returned when a creative set names an execution
	// mode other than "per_click".
	ErrCatalogExecution = errors.New("catalog: unknown execution mode")
	// ErrCatalogCreativeType is returned when a creative names a type other
	// than "notification".
	ErrCatalogCreativeType = errors.New("catalog: unknown creative type")
	// ErrCatalogNoSegments is returned when a creative set has zero segments.
	ErrCatalogNoSegments = errors.New("catalog: creative set has no segments")

	// The sentinels below name engine and host failure cases; no function in
	// this module returns them. The engine reports drops through logging,
	// metrics and reporting events rather than error values.

	// ErrBundleEmpty names the case of an operation needing a bundle with at
	// least one category when none is present.
	ErrBundleEmpty = errors.New("bundle: no categories available")

	// ErrNilStore names a host storage dependency that was not wired in.
	ErrNilStore = errors.New("host: storage not configured")
	// ErrNilHost names a component used before its host dependency was set.
	ErrNilHost = errors.New("host: not configured")

	// ErrPreconditionNotReady names a serve request made while the engine is
	// not in the Ready state.
	ErrPreconditionNotReady = errors.New("engine: not ready")
	// ErrDropped is a generic drop reason for precondition failures that are
	// not user visible (frequency cap, foreground, media playing, no ad).
	ErrDropped = errors.New("engine: dropped")
	// ErrNoUnseenAd names the case where no valid candidate ad remains in a
	// category.
	ErrNoUnseenAd = errors.New("engine: no unseen ad available")

	// ErrTimerFailed names a host set_timer callout that returned a zero
	// (invalid) handle.
	ErrTimerFailed = errors.New("host: set_timer failed")
)
