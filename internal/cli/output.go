package cli

import (
	"encoding/json"
	"io"
	"time"

	"callhistory/internal/calllog"
	"callhistory/internal/reporting"

	"github.com/jedib0t/go-pretty/v6/table"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderEntries(w io.Writer, entries []calllog.EnrichedCallEntry) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Date", "Type", "Number", "Duration", "Contact"})
	for _, e := range entries {
		tw.AppendRow(table.Row{
			time.UnixMilli(e.Timestamp).UTC().Format(time.RFC3339),
			e.CallType.String(),
			displayNumber(e),
			(time.Duration(e.Duration) * time.Second).String(),
			displayName(e),
		})
	}
	tw.AppendFooter(table.Row{"", "", "", "Total", len(entries)})
	tw.Render()
}

func displayNumber(e calllog.EnrichedCallEntry) string {
	if e.FormattedNumber != "" {
		return e.FormattedNumber
	}
	return e.Number
}

// displayName prefers the directory match over the name cached on the call.
func displayName(e calllog.EnrichedCallEntry) string {
	if e.Contact != nil && e.Contact.DisplayName != nil {
		return *e.Contact.DisplayName
	}
	if e.CachedName != nil {
		return *e.CachedName
	}
	return ""
}

func renderSummary(w io.Writer, s reporting.CallsSummary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRows([]table.Row{
		{"calls", s.TotalCalls},
		{"incoming", s.IncomingCalls},
		{"outgoing", s.OutgoingCalls},
		{"missed", s.MissedCalls},
		{"voicemail", s.VoicemailCalls},
		{"rejected", s.RejectedCalls},
		{"blocked", s.BlockedCalls},
		{"other", s.OtherCalls},
		{"talk time", (time.Duration(s.TotalDurationSeconds) * time.Second).String()},
		{"average", (time.Duration(s.AverageDurationSeconds) * time.Second).String()},
		{"known callers", s.KnownCallers},
	})
	tw.Render()

	if len(s.TopContacts) == 0 {
		return
	}
	top := table.NewWriter()
	top.SetOutputMirror(w)
	top.AppendHeader(table.Row{"Contact", "Calls", "Talk time"})
	for _, c := range s.TopContacts {
		top.AppendRow(table.Row{c.Name, c.Calls, (time.Duration(c.TotalDurationSeconds) * time.Second).String()})
	}
	top.Render()
}
