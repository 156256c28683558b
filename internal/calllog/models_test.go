package calllog

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseQueryFilter(t *testing.T) {
	f, err := ParseQueryFilter(map[string]string{
		ArgDateFrom:     "100",
		ArgDurationFrom: " 30 ",
		ArgNumber:       "555",
		ArgType:         "3",
	})
	require.NoError(t, err)
	require.NotNil(t, f.DateFrom)
	assert.Equal(t, int64(100), *f.DateFrom)
	assert.Equal(t, int64(30), *f.DurationFrom)
	assert.Equal(t, "555", *f.Number)
	assert.Equal(t, CallTypeMissed, *f.Type)
	assert.Nil(t, f.DateTo)
	assert.Nil(t, f.DurationTo)
	assert.Nil(t, f.Name)
}

func TestParseQueryFilter_EmptyArgsIsEmptyFilter(t *testing.T) {
	f, err := ParseQueryFilter(nil)
	require.NoError(t, err)
	assert.True(t, f.IsEmpty())
}

func TestParseQueryFilter_EmptyStringIsAConstraint(t *testing.T) {
	f, err := ParseQueryFilter(map[string]string{ArgName: ""})
	require.NoError(t, err)
	require.NotNil(t, f.Name)
	assert.False(t, f.IsEmpty())
}

func TestParseQueryFilter_RejectsNonIntegers(t *testing.T) {
	_, err := ParseQueryFilter(map[string]string{ArgDateFrom: "abc", ArgType: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), ArgDateFrom)
	assert.Contains(t, err.Error(), ArgType)
}

func TestEnrichedCallEntry_NoMatchKeepsContactKeys(t *testing.T) {
	e := EnrichedCallEntry{CallRecord: CallRecord{Number: "555-1234", CallType: CallTypeIncoming, Timestamp: 5, Duration: 45}}

	raw, err := json.Marshal(e)
	require.NoError(t, err)
	var got map[string]any
	require.NoError(t, json.Unmarshal(raw, &got))

	for _, k := range []string{"contactRawId", "contactName", "contactId", "contactPhoto", "contactThumbPhoto", "name", "cachedNumberLabel"} {
		v, ok := got[k]
		assert.True(t, ok, "key %s missing", k)
		assert.Nil(t, v, "key %s", k)
	}
	assert.Equal(t, "555-1234", got["number"])
	assert.Equal(t, float64(1), got["callType"])

	m := e.Map()
	assert.Len(t, m, 13)
	assert.Contains(t, m, "contactName")
	assert.Nil(t, m["contactName"])
}

func TestEnrichedCallEntry_MatchFillsContactKeys(t *testing.T) {
	e := EnrichedCallEntry{
		CallRecord: CallRecord{Number: "555"},
		Contact: &ContactMatch{
			RawContactID: ptr("r1"),
			DisplayName:  ptr("Ann"),
			ContactID:    ptr[int64](7),
			PhotoURI:     ptr("content://photo/7"),
		},
	}
	m := e.Map()
	assert.Equal(t, "r1", m["contactRawId"])
	assert.Equal(t, "Ann", m["contactName"])
	assert.Equal(t, int64(7), m["contactId"])
	assert.Equal(t, "content://photo/7", m["contactPhoto"])
	assert.Nil(t, m["contactThumbPhoto"])
}

func TestCallType_String(t *testing.T) {
	assert.Equal(t, "missed", CallTypeMissed.String())
	assert.Equal(t, "unknown(42)", CallType(42).String())
}

func TestErrorKinds(t *testing.T) {
	err := internalError(assert.AnError)
	assert.ErrorIs(t, err, ErrInternal)
	assert.NotErrorIs(t, err, ErrAlreadyRunning)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, KindInternal, KindOf(err))
	assert.Same(t, err, internalError(err))
	assert.Equal(t, Kind(""), KindOf(assert.AnError))
}
