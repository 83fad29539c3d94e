package models

import "github.com/pkg/errors"

var (
	// ErrDuplicateEntry — (pool_type, symbol) already present.
	ErrDuplicateEntry = errors.New("duplicate pool entry")

	// ErrInsufficientHistory — fewer bars than the longest lookback window.
	ErrInsufficientHistory = errors.New("insufficient bar history")

	// ErrDataFetch — per-symbol market data failure, non-fatal to a batch.
	ErrDataFetch = errors.New("market data fetch failed")

	// ErrGatewayRejected / ErrGatewayTimeout — terminal execution failures;
	// the gateway's cause is recorded verbatim on the trade record.
	ErrGatewayRejected = errors.New("gateway rejected order")
	ErrGatewayTimeout  = errors.New("gateway timeout")

	// ErrConfigMismatch — a written configuration field did not read back.
	// Fatal to the update that observed it, never ignored.
	ErrConfigMismatch = errors.New("run config persistence mismatch")

	ErrNotFound          = errors.New("not found")
	ErrInvalidTransition = errors.New("invalid trade status transition")
)
