package notesafe

import (
	"errors"
	"fmt"

	"southwinds.dev/notesafe/internal/misc"
)

// ErrAccessDenied is returned when the configured gate refuses an
// operation. It is the caller's signal to re-run its access check, not
// a storage or crypto failure.
var ErrAccessDenied = errors.New("access denied")

// CorruptKeyError means the stored key blob did not decode to exactly
// 32 bytes. This is fatal for the session: the engine never regenerates
// a key on its own, because a fresh key would silently make every
// previously stored note undecryptable.
type CorruptKeyError struct {
	// Length is the decoded length in bytes, or -1 when the blob was
	// not valid base64 at all.
	Length int
	Err    error
}

func (e *CorruptKeyError) Error() string {
	if e.Length < 0 {
		return "stored key is not valid base64"
	}
	return fmt.Sprintf("stored key decodes to %d bytes, expected %d", e.Length, misc.KeySize)
}

func (e *CorruptKeyError) Unwrap() error {
	return e.Err
}

// MalformedRecordError means the stored note value does not match the
// two-field base64(ciphertext):base64(iv) format.
type MalformedRecordError struct {
	Reason string
	Err    error
}

func (e *MalformedRecordError) Error() string {
	return fmt.Sprintf("malformed note record: %s", e.Reason)
}

func (e *MalformedRecordError) Unwrap() error {
	return e.Err
}

// DecryptionError means the record parsed but could not be decrypted:
// wrong key, tampered ciphertext, or tampered IV. Retrying with the
// same inputs cannot succeed.
type DecryptionError struct {
	Reason string
	Err    error
}

func (e *DecryptionError) Error() string {
	return fmt.Sprintf("failed to decrypt note: %s", e.Reason)
}

func (e *DecryptionError) Unwrap() error {
	return e.Err
}
