package calllog

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// CallType mirrors the integer codes used by the call log store.
type CallType int

const (
	CallTypeIncoming           CallType = 1
	CallTypeOutgoing           CallType = 2
	CallTypeMissed             CallType = 3
	CallTypeVoicemail          CallType = 4
	CallTypeRejected           CallType = 5
	CallTypeBlocked            CallType = 6
	CallTypeAnsweredExternally CallType = 7
)

func (t CallType) String() string {
	switch t {
	case CallTypeIncoming:
		return "incoming"
	case CallTypeOutgoing:
		return "outgoing"
	case CallTypeMissed:
		return "missed"
	case CallTypeVoicemail:
		return "voicemail"
	case CallTypeRejected:
		return "rejected"
	case CallTypeBlocked:
		return "blocked"
	case CallTypeAnsweredExternally:
		return "answered_externally"
	default:
		return "unknown(" + strconv.Itoa(int(t)) + ")"
	}
}

// CallRecord is one raw row from the call log store.
//
// Records are immutable once produced; the enrichment step owns them.
type CallRecord struct {
	FormattedNumber string
	Number          string
	CallType        CallType

	// Timestamp is epoch milliseconds.
	Timestamp int64
	// Duration is in seconds.
	Duration int64

	CachedName        *string
	CachedNumberType  int
	CachedNumberLabel *int
}

// ContactMatch is a directory entry whose stored number plausibly belongs to a call.
//
// NormalizedNumber and LastContacted are only used to pick between several matches
// and are never serialized.
type ContactMatch struct {
	RawContactID      *string
	DisplayName       *string
	ContactID         *int64
	PhotoURI          *string
	ThumbnailPhotoURI *string

	NormalizedNumber string
	// LastContacted is epoch milliseconds, 0 when unknown.
	LastContacted int64
}

// EnrichedCallEntry is the unit returned to callers: one per CallRecord.
// Contact is nil when the directory had no match.
type EnrichedCallEntry struct {
	CallRecord
	Contact *ContactMatch
}

// wireEntry is the flat serialized shape. Contact keys carry no omitempty:
// they are emitted as null when there is no match.
type wireEntry struct {
	FormattedNumber   string  `json:"formattedNumber"`
	Number            string  `json:"number"`
	CallType          int     `json:"callType"`
	Timestamp         int64   `json:"timestamp"`
	Duration          int64   `json:"duration"`
	Name              *string `json:"name"`
	CachedNumberType  int     `json:"cachedNumberType"`
	CachedNumberLabel *int    `json:"cachedNumberLabel"`
	ContactRawID      *string `json:"contactRawId"`
	ContactName       *string `json:"contactName"`
	ContactID         *int64  `json:"contactId"`
	ContactPhoto      *string `json:"contactPhoto"`
	ContactThumbPhoto *string `json:"contactThumbPhoto"`
}

func (e EnrichedCallEntry) wire() wireEntry {
	w := wireEntry{
		FormattedNumber:   e.FormattedNumber,
		Number:            e.Number,
		CallType:          int(e.CallType),
		Timestamp:         e.Timestamp,
		Duration:          e.Duration,
		Name:              e.CachedName,
		CachedNumberType:  e.CachedNumberType,
		CachedNumberLabel: e.CachedNumberLabel,
	}
	if c := e.Contact; c != nil {
		w.ContactRawID = c.RawContactID
		w.ContactName = c.DisplayName
		w.ContactID = c.ContactID
		w.ContactPhoto = c.PhotoURI
		w.ContactThumbPhoto = c.ThumbnailPhotoURI
	}
	return w
}

func (e EnrichedCallEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.wire())
}

// Map returns the flat key/value form of the entry. Every key is present;
// absent optional values are nil.
func (e EnrichedCallEntry) Map() map[string]any {
	w := e.wire()
	return map[string]any{
		"formattedNumber":   w.FormattedNumber,
		"number":            w.Number,
		"callType":          w.CallType,
		"timestamp":         w.Timestamp,
		"duration":          w.Duration,
		"name":              derefOrNil(w.Name),
		"cachedNumberType":  w.CachedNumberType,
		"cachedNumberLabel": derefOrNil(w.CachedNumberLabel),
		"contactRawId":      derefOrNil(w.ContactRawID),
		"contactName":       derefOrNil(w.ContactName),
		"contactId":         derefOrNil(w.ContactID),
		"contactPhoto":      derefOrNil(w.ContactPhoto),
		"contactThumbPhoto": derefOrNil(w.ContactThumbPhoto),
	}
}

func derefOrNil[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// QueryFilter holds the optional bounds of a query request.
// A nil field imposes no constraint. Bounds are exclusive.
type QueryFilter struct {
	DateFrom     *int64
	DateTo       *int64
	DurationFrom *int64
	DurationTo   *int64
	Name         *string
	Number       *string
	Type         *CallType
}

// IsEmpty reports whether no field is set.
func (f QueryFilter) IsEmpty() bool {
	return f.DateFrom == nil && f.DateTo == nil &&
		f.DurationFrom == nil && f.DurationTo == nil &&
		f.Name == nil && f.Number == nil && f.Type == nil
}

// Argument keys accepted by the query method.
const (
	ArgDateFrom     = "dateFrom"
	ArgDateTo       = "dateTo"
	ArgDurationFrom = "durationFrom"
	ArgDurationTo   = "durationTo"
	ArgName         = "name"
	ArgNumber       = "number"
	ArgType         = "type"
)

// ParseQueryFilter decodes the string-encoded query arguments.
// Absent keys stay nil; integer arguments must parse as base-10 integers.
func ParseQueryFilter(args map[string]string) (QueryFilter, error) {
	var f QueryFilter
	var errs []string

	ints := []struct {
		key string
		dst **int64
	}{
		{ArgDateFrom, &f.DateFrom},
		{ArgDateTo, &f.DateTo},
		{ArgDurationFrom, &f.DurationFrom},
		{ArgDurationTo, &f.DurationTo},
	}
	for _, it := range ints {
		v, ok := args[it.key]
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be an integer, got %q", it.key, v))
			continue
		}
		*it.dst = &n
	}

	if v, ok := args[ArgName]; ok {
		f.Name = &v
	}
	if v, ok := args[ArgNumber]; ok {
		f.Number = &v
	}
	if v, ok := args[ArgType]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s must be an integer, got %q", ArgType, v))
		} else {
			t := CallType(n)
			f.Type = &t
		}
	}

	if len(errs) > 0 {
		return QueryFilter{}, fmt.Errorf("calllog: invalid arguments: %s", strings.Join(errs, "; "))
	}
	return f, nil
}
