package record

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// encodeChunkSize bounds how much of the payload is fed to the base64
// encoder per write. Large images are streamed through the encoder in
// segments instead of one monolithic call.
const encodeChunkSize = 32 * 1024

// DecodeError marks a stored value that cannot be read back as a Record.
// Gallery listing treats it as "record unreadable, skip".
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode record: %s: %v", e.Reason, e.Err)
	}
	return "decode record: " + e.Reason
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Encode serializes raw image bytes and metadata into the stored value
// format. Metadata.Size is set to the payload length.
func Encode(raw []byte, meta Metadata) ([]byte, error) {
	meta.Size = int64(len(raw))

	var sb strings.Builder
	sb.Grow(base64.StdEncoding.EncodedLen(len(raw)))
	enc := base64.NewEncoder(base64.StdEncoding, &sb)
	for off := 0; off < len(raw); off += encodeChunkSize {
		end := min(off+encodeChunkSize, len(raw))
		if _, err := enc.Write(raw[off:end]); err != nil {
			return nil, fmt.Errorf("encode payload: %w", err)
		}
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	value, err := json.Marshal(Record{Data: sb.String(), Metadata: meta})
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return value, nil
}

// Decode parses a stored value back into a Record. All failure modes
// return a *DecodeError so callers can isolate unreadable records.
func Decode(value []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(value, &r); err != nil {
		return nil, &DecodeError{Reason: "malformed JSON", Err: err}
	}
	if r.Data == "" {
		return nil, &DecodeError{Reason: "empty payload"}
	}
	return &r, nil
}

// Payload returns the decoded image bytes.
func (r *Record) Payload() ([]byte, error) {
	b, err := base64.StdEncoding.DecodeString(r.Data)
	if err != nil {
		return nil, &DecodeError{Reason: "undecodable payload", Err: err}
	}
	return b, nil
}
