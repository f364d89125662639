package notesafe

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// recordSeparator joins the two base64 fields of a serialized record.
// ":" is not in the standard base64 alphabet, so it can never collide
// with field content.
const recordSeparator = ":"

// EncryptedRecord is the durable form of one encrypted note: the CBC
// ciphertext and the IV it was produced with. The IV is non-secret but
// bound to this ciphertext; it is never reused across records.
type EncryptedRecord struct {
	Ciphertext []byte
	IV         []byte
}

// Encode serializes the record to its single-string storage form:
// base64(ciphertext) + ":" + base64(iv).
func (r EncryptedRecord) Encode() string {
	return base64.StdEncoding.EncodeToString(r.Ciphertext) +
		recordSeparator +
		base64.StdEncoding.EncodeToString(r.IV)
}

// DecodeRecord parses a stored note value back into an EncryptedRecord.
// Anything that is not exactly two valid base64 fields yields a
// *MalformedRecordError.
func DecodeRecord(value string) (EncryptedRecord, error) {
	parts := strings.Split(value, recordSeparator)
	if len(parts) != 2 {
		return EncryptedRecord{}, &MalformedRecordError{
			Reason: fmt.Sprintf("expected 2 fields, found %d", len(parts)),
		}
	}

	ciphertext, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return EncryptedRecord{}, &MalformedRecordError{Reason: "ciphertext is not valid base64", Err: err}
	}

	iv, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return EncryptedRecord{}, &MalformedRecordError{Reason: "iv is not valid base64", Err: err}
	}

	return EncryptedRecord{Ciphertext: ciphertext, IV: iv}, nil
}
