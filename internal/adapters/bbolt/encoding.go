// Key and value encoding for mapping records.
//
// Keys are the 16 raw bytes of the record's UUIDv7, so a bucket cursor walks
// records in creation order. Values are the JSON form of ports.MappingRecord
// without the tenant, which is implied by the bucket.
package bbolt

import (
	"encoding/json"
	"fmt"

	"github.com/corey/colrecon/internal/ports"
	"github.com/google/uuid"
)

// keySize is the byte size of an encoded record key.
const keySize = 16

// encodeKey converts a UUID string key to its 16-byte form.
func encodeKey(key string) ([]byte, error) {
	id, err := uuid.Parse(key)
	if err != nil {
		return nil, fmt.Errorf("record key %q: %w", key, err)
	}
	b := make([]byte, keySize)
	copy(b, id[:])
	return b, nil
}

// decodeKey converts a stored 16-byte key back to its string form.
func decodeKey(b []byte) (string, error) {
	id, err := uuid.FromBytes(b)
	if err != nil {
		return "", fmt.Errorf("stored key: %w", err)
	}
	return id.String(), nil
}

// storedRecord is the persisted value. Key and tenant live in the bbolt
// key and bucket name.
type storedRecord struct {
	NormalizedHeader string  `json:"normalized_header"`
	OriginalHeader   string  `json:"original_header"`
	Field            string  `json:"field"`
	Confidence       float64 `json:"confidence"`
	Source           string  `json:"source"`
	CreatedAt        int64   `json:"created_at"` // unix nanoseconds, UTC
}

func encodeRecord(rec ports.MappingRecord) ([]byte, error) {
	data, err := json.Marshal(storedRecord{
		NormalizedHeader: rec.NormalizedHeader,
		OriginalHeader:   rec.OriginalHeader,
		Field:            rec.Field,
		Confidence:       rec.Confidence,
		Source:           rec.Source,
		CreatedAt:        rec.CreatedAt.UnixNano(),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal record: %w", err)
	}
	return data, nil
}

func decodeRecord(tenant string, k, v []byte) (ports.MappingRecord, error) {
	key, err := decodeKey(k)
	if err != nil {
		return ports.MappingRecord{}, err
	}
	var sr storedRecord
	if err := json.Unmarshal(v, &sr); err != nil {
		return ports.MappingRecord{}, fmt.Errorf("unmarshal record %s: %w", key, err)
	}
	return ports.MappingRecord{
		Key:              key,
		Tenant:           tenant,
		NormalizedHeader: sr.NormalizedHeader,
		OriginalHeader:   sr.OriginalHeader,
		Field:            sr.Field,
		Confidence:       sr.Confidence,
		Source:           sr.Source,
		CreatedAt:        unixNanoUTC(sr.CreatedAt),
	}, nil
}
