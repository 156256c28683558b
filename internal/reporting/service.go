package reporting

import (
	"cmp"
	"slices"
	"time"

	"callhistory/internal/calllog"
)

// DefaultTopContacts bounds CallsSummary.TopContacts.
const DefaultTopContacts = 5

// Summarize aggregates entries. top bounds the contact ranking; zero or less
// uses DefaultTopContacts.
func Summarize(entries []calllog.EnrichedCallEntry, top int) CallsSummary {
	if top <= 0 {
		top = DefaultTopContacts
	}
	out := CallsSummary{TopContacts: []ContactCount{}}
	if len(entries) == 0 {
		return out
	}

	minTS, maxTS := entries[0].Timestamp, entries[0].Timestamp
	byContact := make(map[string]*ContactCount)
	for _, e := range entries {
		out.TotalCalls++
		out.TotalDurationSeconds += e.Duration
		minTS = min(minTS, e.Timestamp)
		maxTS = max(maxTS, e.Timestamp)

		switch e.CallType {
		case calllog.CallTypeIncoming:
			out.IncomingCalls++
		case calllog.CallTypeOutgoing:
			out.OutgoingCalls++
		case calllog.CallTypeMissed:
			out.MissedCalls++
		case calllog.CallTypeVoicemail:
			out.VoicemailCalls++
		case calllog.CallTypeRejected:
			out.RejectedCalls++
		case calllog.CallTypeBlocked:
			out.BlockedCalls++
		default:
			out.OtherCalls++
		}

		if e.Contact == nil || e.Contact.DisplayName == nil {
			continue
		}
		out.KnownCallers++
		name := *e.Contact.DisplayName
		cc, ok := byContact[name]
		if !ok {
			cc = &ContactCount{Name: name}
			byContact[name] = cc
		}
		cc.Calls++
		cc.TotalDurationSeconds += e.Duration
	}

	out.AverageDurationSeconds = out.TotalDurationSeconds / int64(out.TotalCalls)
	out.Range = TimeRange{From: time.UnixMilli(minTS).UTC(), To: time.UnixMilli(maxTS).UTC()}

	for _, cc := range byContact {
		out.TopContacts = append(out.TopContacts, *cc)
	}
	// Most calls first, then longest talk time, then name.
	slices.SortFunc(out.TopContacts, func(a, b ContactCount) int {
		if c := cmp.Compare(b.Calls, a.Calls); c != 0 {
			return c
		}
		if c := cmp.Compare(b.TotalDurationSeconds, a.TotalDurationSeconds); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
	if len(out.TopContacts) > top {
		out.TopContacts = out.TopContacts[:top]
	}
	return out
}
