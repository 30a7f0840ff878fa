// Package distribution holds the per-client retailer distribution data uploaded for a
// product scenario.
package distribution

import (
	"encoding/json"
	"math"
)

const (
	// Width is the number of distribution values carried by every record.
	Width = 12
	// FieldsPerRow is the exact field count a source row needs: the client id plus Width values.
	FieldsPerRow = Width + 1
)

// ClientRecord is one row of uploaded distribution data.
type ClientRecord struct {
	ClientID     string    `json:"clientId"`
	Distribution []float64 `json:"distribution"`
}

// ClientDataset is an ordered collection of records in source row order.
// Duplicate client ids are kept.
type ClientDataset []ClientRecord

// Len returns the number of records
func (d ClientDataset) Len() int { return len(d) }

// ClientIDs returns the client ids in dataset order
func (d ClientDataset) ClientIDs() []string {
	ids := make([]string, len(d))
	for i, r := range d {
		ids[i] = r.ClientID
	}
	return ids
}

// Equal compares two datasets element-wise. NaN values compare equal to NaN so that
// two parses of the same content are equal.
func (d ClientDataset) Equal(other ClientDataset) bool {
	if len(d) != len(other) {
		return false
	}
	for i := range d {
		if !d[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Equal compares two records, treating NaN as equal to NaN.
func (r ClientRecord) Equal(other ClientRecord) bool {
	if r.ClientID != other.ClientID || len(r.Distribution) != len(other.Distribution) {
		return false
	}
	for i, v := range r.Distribution {
		w := other.Distribution[i]
		if math.IsNaN(v) && math.IsNaN(w) {
			continue
		}
		if v != w {
			return false
		}
	}
	return true
}

// MarshalJSON writes non-finite distribution values as null, since JSON has no NaN.
func (r ClientRecord) MarshalJSON() ([]byte, error) {
	values := make([]*float64, len(r.Distribution))
	for i := range r.Distribution {
		v := r.Distribution[i]
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		values[i] = &v
	}
	return json.Marshal(struct {
		ClientID     string     `json:"clientId"`
		Distribution []*float64 `json:"distribution"`
	}{r.ClientID, values})
}
