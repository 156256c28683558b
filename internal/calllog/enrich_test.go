package calllog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDirectory answers substring lookups over a fixed contact list.
type fakeDirectory struct {
	mu       sync.Mutex
	contacts []ContactMatch
	calls    []string
	failOn   string
	delay    func(substring string) time.Duration
}

func (d *fakeDirectory) FindByNormalizedNumber(ctx context.Context, substring string) ([]ContactMatch, error) {
	d.mu.Lock()
	d.calls = append(d.calls, substring)
	d.mu.Unlock()

	if d.delay != nil {
		select {
		case <-time.After(d.delay(substring)):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if d.failOn != "" && substring == d.failOn {
		return nil, errors.New("directory unavailable")
	}
	var out []ContactMatch
	for _, c := range d.contacts {
		if strings.Contains(c.NormalizedNumber, substring) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (d *fakeDirectory) lookups() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.calls...)
}

// digitsOnly keeps digits, standing in for the phone normalizer.
type digitsOnly struct{}

func (digitsOnly) Normalize(raw, _ string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func contact(id int64, name, normalized string, lastContacted int64) ContactMatch {
	return ContactMatch{
		RawContactID:     ptr("raw-" + name),
		DisplayName:      ptr(name),
		ContactID:        ptr(id),
		NormalizedNumber: normalized,
		LastContacted:    lastContacted,
	}
}

func TestEnrich_PreservesInputOrder(t *testing.T) {
	dir := &fakeDirectory{
		contacts: []ContactMatch{contact(1, "one", "111", 0), contact(2, "two", "222", 0), contact(3, "three", "333", 0)},
		// Earlier records answer last.
		delay: func(s string) time.Duration {
			switch s {
			case "111":
				return 30 * time.Millisecond
			case "222":
				return 15 * time.Millisecond
			default:
				return 0
			}
		},
	}
	p := &Pipeline{Directory: dir, Normalizer: digitsOnly{}, Concurrency: 3}

	recs := []CallRecord{{Number: "111"}, {Number: "222"}, {Number: "333"}}
	got, err := p.Enrich(context.Background(), recs, "US")
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, want := range []string{"one", "two", "three"} {
		assert.Equal(t, recs[i], got[i].CallRecord)
		require.NotNil(t, got[i].Contact)
		assert.Equal(t, want, *got[i].Contact.DisplayName)
	}
}

func TestEnrich_NoMatchLeavesContactEmpty(t *testing.T) {
	p := &Pipeline{Directory: &fakeDirectory{}, Normalizer: digitsOnly{}}

	got, err := p.Enrich(context.Background(), []CallRecord{{Number: "555-1234"}}, "US")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Contact)

	m := got[0].Map()
	for _, k := range []string{"contactRawId", "contactName", "contactId", "contactPhoto", "contactThumbPhoto"} {
		assert.Contains(t, m, k)
		assert.Nil(t, m[k])
	}
}

func TestEnrich_EmptyCanonicalNumberSkipsLookup(t *testing.T) {
	dir := &fakeDirectory{contacts: []ContactMatch{contact(1, "everyone", "123", 0)}}
	p := &Pipeline{Directory: dir, Normalizer: digitsOnly{}}

	got, err := p.Enrich(context.Background(), []CallRecord{{Number: "private"}}, "US")
	require.NoError(t, err)
	assert.Nil(t, got[0].Contact)
	assert.Empty(t, dir.lookups())
}

func TestEnrich_ShortCanonicalNumberSkipsLookup(t *testing.T) {
	dir := &fakeDirectory{contacts: []ContactMatch{contact(1, "everyone", "+15551234", 0)}}
	p := &Pipeline{Directory: dir, Normalizer: digitsOnly{}}

	got, err := p.Enrich(context.Background(), []CallRecord{{Number: "-1"}, {Number: "12"}, {Number: "123"}}, "US")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Nil(t, got[0].Contact)
	assert.Nil(t, got[1].Contact)
	require.NotNil(t, got[2].Contact)
	assert.Equal(t, []string{"123"}, dir.lookups())
}

func TestEnrich_LooksUpCanonicalNumber(t *testing.T) {
	dir := &fakeDirectory{contacts: []ContactMatch{contact(1, "ann", "+15551234", 0)}}
	p := &Pipeline{Directory: dir, Normalizer: digitsOnly{}}

	got, err := p.Enrich(context.Background(), []CallRecord{{Number: "(555) 1234"}}, "US")
	require.NoError(t, err)
	assert.Equal(t, []string{"5551234"}, dir.lookups())
	require.NotNil(t, got[0].Contact)
	assert.Equal(t, "ann", *got[0].Contact.DisplayName)
}

func TestEnrich_WithoutNormalizerUsesRawNumber(t *testing.T) {
	dir := &fakeDirectory{}
	p := &Pipeline{Directory: dir}

	_, err := p.Enrich(context.Background(), []CallRecord{{Number: "555-1234"}}, "US")
	require.NoError(t, err)
	assert.Equal(t, []string{"555-1234"}, dir.lookups())
}

func TestEnrich_FailureAbortsBatch(t *testing.T) {
	dir := &fakeDirectory{failOn: "222"}
	p := &Pipeline{Directory: dir, Normalizer: digitsOnly{}, Concurrency: 1}

	got, err := p.Enrich(context.Background(), []CallRecord{{Number: "111"}, {Number: "222"}, {Number: "333"}}, "US")
	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "directory unavailable")
}

func TestEnrich_EmptyInput(t *testing.T) {
	got, err := (&Pipeline{}).Enrich(context.Background(), nil, "US")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSelectContact_TieBreak(t *testing.T) {
	tests := []struct {
		name    string
		matches []ContactMatch
		want    string
	}{
		{
			name:    "exact number beats substring",
			matches: []ContactMatch{contact(1, "substring", "155512345", 900), contact(2, "exact", "5551234", 1)},
			want:    "exact",
		},
		{
			name:    "most recently contacted",
			matches: []ContactMatch{contact(1, "old", "15551234", 10), contact(2, "recent", "15551234", 20)},
			want:    "recent",
		},
		{
			name:    "lowest contact id",
			matches: []ContactMatch{contact(9, "nine", "15551234", 0), contact(4, "four", "15551234", 0)},
			want:    "four",
		},
		{
			name: "known id before unknown",
			matches: []ContactMatch{
				{DisplayName: ptr("anon"), NormalizedNumber: "15551234"},
				contact(7, "seven", "15551234", 0),
			},
			want: "seven",
		},
		{
			name: "directory order last",
			matches: []ContactMatch{
				{DisplayName: ptr("first"), NormalizedNumber: "15551234"},
				{DisplayName: ptr("second"), NormalizedNumber: "15551234"},
			},
			want: "first",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectContact(tt.matches, "5551234")
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got.DisplayName)
		})
	}
	assert.Nil(t, selectContact(nil, "5551234"))
}
