package bill

import "errors"

// Per-document failures. Each aborts the current document only; batch
// processing logs the failure and continues with the next file.
var (
	// ErrVendorDeclined is returned when the operator (or the configured
	// policy) declined to create an unmatched vendor.
	ErrVendorDeclined = errors.New("vendor creation declined")

	// ErrVendorCreateFailed is returned when the remote vendor-creation
	// call was rejected.
	ErrVendorCreateFailed = errors.New("vendor creation failed")

	// ErrRemoteWrite is returned when bill creation or the attachment
	// upload failed. There is no automatic retry.
	ErrRemoteWrite = errors.New("remote write failed")
)
