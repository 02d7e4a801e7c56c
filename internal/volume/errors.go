package volume

import "errors"

// Error kinds surfaced by the lifecycle core. Backends wrap their failures
// with one of these so the command layer can pick an exit status with
// errors.Is without parsing messages.
var (
	// ErrBackendUnavailable means the disk-image or archive tooling cannot
	// be invoked at all (binary missing, subsystem down).
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrBackendRejected means the backend refused the request: bad size,
	// password or name.
	ErrBackendRejected = errors.New("backend rejected request")

	// ErrAttach means an image was created or opened but no usable mount
	// point came out of it.
	ErrAttach = errors.New("attach failed")

	// ErrExtractionFailed means the archive could not be unpacked into an
	// already mounted volume. The volume and its image are left in place.
	ErrExtractionFailed = errors.New("archive extraction failed")

	// ErrWrongPassword is returned by archivers when the archive password
	// does not match. It is always reported wrapped in ErrExtractionFailed.
	ErrWrongPassword = errors.New("wrong archive password")

	// ErrPartialBatch means at least one volume in an eject batch failed
	// to detach. Per-volume detail lives in the Report.
	ErrPartialBatch = errors.New("one or more volumes failed to eject")
)
