package domain

import "errors"

var (
	// ErrSourceUnavailable indicates the portal could not be reached or
	// driven (login, navigation, download). Fatal for the run.
	ErrSourceUnavailable = errors.New("comprobantes source unavailable")

	// ErrFormat indicates the downloaded archive or export body did not
	// have the expected shape. Fatal for the run, nothing is persisted.
	ErrFormat = errors.New("unexpected export format")

	// ErrStorage wraps store query/insert failures. Surfaced unrecovered.
	ErrStorage = errors.New("storage failure")

	// ErrNotification indicates the report could not be delivered. The
	// run's persistence side effect stands; the process still exits
	// non-zero.
	ErrNotification = errors.New("notification failure")
)
