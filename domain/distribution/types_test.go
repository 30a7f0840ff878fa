package distribution

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientDatasetEqualTreatsNaNAsEqual(t *testing.T) {
	a := ClientDataset{{ClientID: "C", Distribution: []float64{math.NaN(), 2}}}
	b := ClientDataset{{ClientID: "C", Distribution: []float64{math.NaN(), 2}}}
	assert.True(t, a.Equal(b))

	b[0].Distribution[1] = 3
	assert.False(t, a.Equal(b))
	assert.False(t, a.Equal(nil))
}

func TestClientRecordMarshalJSONNullsNonFinite(t *testing.T) {
	r := ClientRecord{ClientID: "A", Distribution: []float64{1.5, math.NaN(), math.Inf(1)}}

	raw, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"clientId":"A","distribution":[1.5,null,null]}`, string(raw))
}

func TestClientIDsKeepsOrderAndDuplicates(t *testing.T) {
	d := ClientDataset{{ClientID: "B"}, {ClientID: "A"}, {ClientID: "B"}}
	assert.Equal(t, []string{"B", "A", "B"}, d.ClientIDs())
	assert.Equal(t, 3, d.Len())
}
