package ports

import "context"

// FleetSource supplies a default fleet reference payload when the caller
// uploads none. Implementations decide where the bytes come from; the
// reconciler only sees payload plus filename plus preferred sheet.
type FleetSource interface {
	// Fetch returns the reference payload, its filename (for format
	// detection) and the sheet to read for workbook payloads.
	Fetch(ctx context.Context) (data []byte, filename string, sheet string, err error)
}
