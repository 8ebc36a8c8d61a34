package images

import "fmt"

// UploadValidationError marks malformed upload input, for example a base64
// payload without its data-URI delimiter or bytes that fail the format
// sniff. No partial state exists when it is returned.
type UploadValidationError struct {
	Reason string
}

func (e *UploadValidationError) Error() string {
	return fmt.Sprintf("invalid image upload: %s", e.Reason)
}

// StorageWriteError marks a rejected storage put. No image record is
// created when it is returned from ingest.
type StorageWriteError struct {
	Path string
	Err  error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("image data could not be written to %s: %v", e.Path, e.Err)
}

func (e *StorageWriteError) Unwrap() error {
	return e.Err
}

// DerivationError marks source bytes the codec rejected as unsupported or
// corrupt, distinct from plain I/O failures so callers can report that a
// thumbnail cannot be created for this file.
type DerivationError struct {
	Path string
	Err  error
}

func (e *DerivationError) Error() string {
	return fmt.Sprintf("cannot create thumbnail for %s: %v", e.Path, e.Err)
}

func (e *DerivationError) Unwrap() error {
	return e.Err
}

// RemoteFetchError marks a failed download of a remote image, covering both
// transport errors and non-success status codes.
type RemoteFetchError struct {
	URL string
	Err error
}

func (e *RemoteFetchError) Error() string {
	return fmt.Sprintf("cannot fetch image from %s: %v", e.URL, e.Err)
}

func (e *RemoteFetchError) Unwrap() error {
	return e.Err
}
