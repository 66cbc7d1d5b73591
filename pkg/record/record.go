// Package record defines the stored image record, its JSON/base64 codec
// and the storage key generator.
package record

import "time"

// Metadata describes a stored image. UploadTime is kept as the raw
// ISO-8601 string it was persisted with; old or foreign records may carry
// anything here, so it is parsed leniently on read.
type Metadata struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	Size       int64  `json:"size"`
	UploadTime string `json:"uploadTime,omitempty"`
	Source     string `json:"source,omitempty"`
}

// Record is the unit of storage: a base64 payload plus its metadata.
type Record struct {
	Data     string   `json:"data"`
	Metadata Metadata `json:"metadata"`
}

// SourceTelegram tags records ingested through the bot webhook.
const SourceTelegram = "telegram"

// Timestamp formats t the way records store upload times.
func Timestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// UploadedAt parses the record's upload time. Absent or malformed
// timestamps yield the zero time, which sorts after everything else in
// gallery listings.
func (r *Record) UploadedAt() time.Time {
	if r.Metadata.UploadTime == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, r.Metadata.UploadTime)
	if err != nil {
		return time.Time{}
	}
	return t
}
