package calllog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Directory finds contacts whose stored normalized number contains a substring.
type Directory interface {
	FindByNormalizedNumber(ctx context.Context, substring string) ([]ContactMatch, error)
}

// Normalizer canonicalizes a raw number for a region.
type Normalizer interface {
	Normalize(raw, region string) string
}

// MinLookupDigits is the fewest digits a canonical number needs before it is
// looked up. Shorter numbers, such as "1" from a withheld "-1", would
// substring-match most of the directory.
const MinLookupDigits = 3

// DefaultEnrichConcurrency bounds parallel directory lookups when Pipeline.Concurrency is unset.
const DefaultEnrichConcurrency = 4

// Pipeline joins call records with contact directory matches.
type Pipeline struct {
	Directory   Directory
	Normalizer  Normalizer
	Concurrency int
}

// Enrich returns one entry per record, in record order. Lookups run in parallel;
// the first failure aborts the batch and nothing is returned.
func (p *Pipeline) Enrich(ctx context.Context, records []CallRecord, region string) ([]EnrichedCallEntry, error) {
	out := make([]EnrichedCallEntry, len(records))
	if len(records) == 0 {
		return out, nil
	}

	limit := p.Concurrency
	if limit <= 0 {
		limit = DefaultEnrichConcurrency
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i := range records {
		g.Go(func() error {
			r := records[i]
			canonical := r.Number
			if p.Normalizer != nil {
				canonical = p.Normalizer.Normalize(r.Number, region)
			}
			out[i] = EnrichedCallEntry{CallRecord: r}
			if countDigits(canonical) < MinLookupDigits || p.Directory == nil {
				return nil
			}
			matches, err := p.Directory.FindByNormalizedNumber(gctx, canonical)
			if err != nil {
				return fmt.Errorf("calllog: lookup contact for record %d: %w", i, err)
			}
			out[i].Contact = selectContact(matches, canonical)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}

// selectContact picks one of several directory matches. An exact normalized
// number beats a substring hit, then the most recently contacted wins, then the
// lowest contact id. Remaining ties keep directory order.
func selectContact(matches []ContactMatch, canonical string) *ContactMatch {
	if len(matches) == 0 {
		return nil
	}
	best := 0
	for i := 1; i < len(matches); i++ {
		if betterMatch(matches[i], matches[best], canonical) {
			best = i
		}
	}
	m := matches[best]
	return &m
}

func betterMatch(a, b ContactMatch, canonical string) bool {
	aExact, bExact := a.NormalizedNumber == canonical, b.NormalizedNumber == canonical
	if aExact != bExact {
		return aExact
	}
	if a.LastContacted != b.LastContacted {
		return a.LastContacted > b.LastContacted
	}
	switch {
	case a.ContactID == nil || b.ContactID == nil:
		// A known id sorts before an unknown one.
		return a.ContactID != nil && b.ContactID == nil
	default:
		return *a.ContactID < *b.ContactID
	}
}
