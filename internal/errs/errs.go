// Package errs provides the typed and sentinel errors that make up this
// system's error taxonomy, so callers can use errors.Is/errors.As instead of
// matching on message text.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel errors for conditions that carry no extra context beyond their
// kind. Use errors.Is(err, errs.ErrTooManyCovers) etc.
var (
	ErrTooManyCovers             = errors.New("too many cover files")
	ErrEncryptedPayloadNoPassword = errors.New("the payload hidden in these files is encrypted; a password is required")
	ErrInconsistentEncryption    = errors.New("cover files don't match: some store encrypted data, others don't")
	ErrInconsistentTotalParts    = errors.New("cover files don't match: total_parts differs across them")
	ErrTooManyParts              = errors.New("more cover files were supplied than the payload has parts")
	ErrDuplicateParts            = errors.New("the supplied cover files contain duplicated parts")
)

// CoverError reports a failure reading or writing a single cover file:
// IOError, CoverTooLarge, NotACover, InvalidTrailer, or ChunkReadFailed.
type CoverError struct {
	Op   string // "parse", "read", "append"
	Path string
	Err  error
}

func (e *CoverError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s %s failed", e.Op, e.Path)
}

func (e *CoverError) Unwrap() error { return e.Err }

// NewCoverError wraps err with the cover file path and the operation that
// was being attempted.
func NewCoverError(op, path string, err error) *CoverError {
	return &CoverError{Op: op, Path: path, Err: err}
}

// NotACover builds the CoverError surfaced by Cover.Parse failures. The
// message intentionally does not say whether the file was too short, had an
// I/O error, or failed the trailer's semantic checks.
func NotACover(path string) *CoverError {
	return &CoverError{
		Op:   "parse",
		Path: path,
		Err:  errors.New("this file most likely doesn't have a payload hidden in it"),
	}
}

// CoverTooLarge builds the CoverError for a cover that would exceed the PE
// 2 GiB loader ceiling if the payload were appended.
func CoverTooLarge(path string) *CoverError {
	return &CoverError{
		Op:   "append",
		Path: path,
		Err:  errors.New("cannot hide data without breaking the PE file; PE files are limited to 2 GiB"),
	}
}

// CryptoError reports an EncryptFailed or DecryptFailed condition. The
// underlying cause is preserved via Unwrap for logging, but Error() for a
// decrypt failure is deliberately generic: it must not let a caller tell a
// wrong password apart from corrupted ciphertext.
type CryptoError struct {
	Op  string // "encrypt" or "decrypt"
	Err error
}

func (e *CryptoError) Error() string {
	if e.Op == "decrypt" {
		return "the password is invalid, or the data is corrupted"
	}
	if e.Err != nil {
		return fmt.Sprintf("failed to encrypt data with the provided password: %v", e.Err)
	}
	return "failed to encrypt data with the provided password"
}

func (e *CryptoError) Unwrap() error { return e.Err }

// EncryptFailed wraps a failure during encrypt_file.
func EncryptFailed(err error) *CryptoError { return &CryptoError{Op: "encrypt", Err: err} }

// DecryptFailed wraps a failure during decrypt_file. Its Error() text stays
// ambiguous regardless of err's content.
func DecryptFailed(err error) *CryptoError { return &CryptoError{Op: "decrypt", Err: err} }

// ArchiveError reports an ArchiveCorrupt or PathTraversal condition while
// creating or extracting the archive blob.
type ArchiveError struct {
	Op   string // "create" or "extract"
	Path string // blob path, or the offending entry name
	Err  error
}

func (e *ArchiveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("archive %s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("archive %s %s failed", e.Op, e.Path)
}

func (e *ArchiveError) Unwrap() error { return e.Err }

// NewArchiveError wraps err with the archive operation and path involved.
func NewArchiveError(op, path string, err error) *ArchiveError {
	return &ArchiveError{Op: op, Path: path, Err: err}
}

// PathTraversal builds the ArchiveError for an entry name that would escape
// the extraction directory.
func PathTraversal(entryName string) *ArchiveError {
	return &ArchiveError{
		Op:   "extract",
		Path: entryName,
		Err:  errors.New("entry name escapes the destination directory"),
	}
}

// MissingPartsError reports the MissingParts condition, naming the specific
// part numbers (ascending) that were not present in the supplied cover set.
type MissingPartsError struct {
	TotalParts uint16
	Have       int
	Parts      []uint16
}

func (e *MissingPartsError) Error() string {
	return fmt.Sprintf(
		"there are %d total parts; you only supplied %d; missing parts: %s",
		e.TotalParts, e.Have, joinParts(e.Parts),
	)
}

func joinParts(parts []uint16) string {
	s := ""
	for i, p := range parts {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%d", p)
	}
	return s
}

// Is reports whether err matches target, delegating to errors.Is.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain matching target, delegating to
// errors.As.
func As(err error, target any) bool { return errors.As(err, target) }
