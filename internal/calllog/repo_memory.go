package calllog

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore is an in-memory call log useful for tests and local runs.
// Ties on the sort field fall back to insertion order in the requested direction,
// the same as SQLStore's id tiebreaker.
type MemoryStore struct {
	mu      sync.Mutex
	records []CallRecord

	// Err, when set, is returned by every Query.
	Err error
}

func NewMemoryStore(records ...CallRecord) *MemoryStore {
	return &MemoryStore{records: append([]CallRecord(nil), records...)}
}

func (s *MemoryStore) Add(r CallRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

func (s *MemoryStore) Query(ctx context.Context, p *Predicate, order Sort) ([]CallRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	type row struct {
		seq int
		rec CallRecord
	}
	rows := make([]row, 0, len(s.records))
	for i, r := range s.records {
		if p.Match(r) {
			rows = append(rows, row{seq: i, rec: r})
		}
	}

	key := func(r CallRecord) int64 {
		switch order.Field {
		case FieldDuration:
			return r.Duration
		case FieldType:
			return int64(r.CallType)
		default:
			return r.Timestamp
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		ka, kb := key(a.rec), key(b.rec)
		if ka == kb {
			ka, kb = int64(a.seq), int64(b.seq)
		}
		if order.Descending {
			return ka > kb
		}
		return ka < kb
	})

	out := make([]CallRecord, len(rows))
	for i, r := range rows {
		out[i] = r.rec
	}
	return out, nil
}
