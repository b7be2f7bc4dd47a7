package domain

import "strconv"

// Unknown is stored for any descriptive field missing from a source record.
const Unknown = "Unknown"

// Metadata keys attached to every indexed chunk.
const (
	KeyComplaintID     = "complaint_id"
	KeyProductCategory = "product_category"
	KeyProduct         = "product"
	KeyIssue           = "issue"
	KeyCompany         = "company"
	KeyState           = "state"
	KeyDateReceived    = "date_received"
	KeyChunkIndex      = "chunk_index"
	KeyTotalChunks     = "total_chunks"
	KeyOriginalRow     = "original_row"
)

// MetadataKeys lists the full metadata schema in a stable order.
var MetadataKeys = []string{
	KeyComplaintID,
	KeyProductCategory,
	KeyProduct,
	KeyIssue,
	KeyCompany,
	KeyState,
	KeyDateReceived,
	KeyChunkIndex,
	KeyTotalChunks,
	KeyOriginalRow,
}

// Metadata describes the source complaint of a chunk.
type Metadata map[string]string

// Get returns the value for key, or Unknown when it is missing or blank.
func (m Metadata) Get(key string) string {
	if v, ok := m[key]; ok && v != "" {
		return v
	}
	return Unknown
}

// Clone returns a copy of m.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Normalized returns a copy of m in which every schema key is present.
func (m Metadata) Normalized() Metadata {
	out := m.Clone()
	for _, k := range MetadataKeys {
		if out[k] == "" {
			out[k] = Unknown
		}
	}
	return out
}

// WithPosition returns a copy of m carrying chunk position information.
func (m Metadata) WithPosition(index, total int) Metadata {
	out := m.Clone()
	out[KeyChunkIndex] = strconv.Itoa(index)
	out[KeyTotalChunks] = strconv.Itoa(total)
	return out
}
