// Package contacts is the read side of the contact directory: lookups of
// contacts by a substring of their stored normalized phone number.
package contacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"callhistory/internal/calllog"
)

// NOTE: SQLDirectory reads one row per (contact, phone number):
//
//	contact_phones(id, raw_contact_id, display_name, contact_id, photo_uri,
//	               photo_thumb_uri, normalized_number, last_time_contacted)
//
// Rows come back in id order so the directory order is stable.

var ErrNotConfigured = errors.New("contacts: directory not configured")

// SQLDirectory looks contacts up over database/sql.
type SQLDirectory struct {
	db      *sql.DB
	dialect calllog.Dialect
}

func NewSQLDirectory(db *sql.DB, dialect calllog.Dialect) *SQLDirectory {
	return &SQLDirectory{db: db, dialect: dialect}
}

func (d *SQLDirectory) FindByNormalizedNumber(ctx context.Context, substring string) ([]calllog.ContactMatch, error) {
	if d.db == nil {
		return nil, ErrNotConfigured
	}
	ph := "?"
	if d.dialect == calllog.DialectPostgres {
		ph = "$1"
	}
	q := `
SELECT raw_contact_id, display_name, contact_id, photo_uri, photo_thumb_uri, normalized_number, last_time_contacted
FROM contact_phones
WHERE normalized_number LIKE ` + ph + ` ESCAPE '\'
ORDER BY id ASC`

	rows, err := d.db.QueryContext(ctx, q, "%"+calllog.EscapeLike(substring)+"%")
	if err != nil {
		return nil, fmt.Errorf("contacts: query directory: %w", err)
	}
	defer rows.Close()

	var out []calllog.ContactMatch
	for rows.Next() {
		var (
			m          calllog.ContactMatch
			rawID      sql.NullString
			name       sql.NullString
			contactID  sql.NullInt64
			photo      sql.NullString
			thumb      sql.NullString
			normalized sql.NullString
			last       sql.NullInt64
		)
		if err := rows.Scan(&rawID, &name, &contactID, &photo, &thumb, &normalized, &last); err != nil {
			return nil, fmt.Errorf("contacts: scan directory row: %w", err)
		}
		m.RawContactID = nullString(rawID)
		m.DisplayName = nullString(name)
		if contactID.Valid {
			v := contactID.Int64
			m.ContactID = &v
		}
		m.PhotoURI = nullString(photo)
		m.ThumbnailPhotoURI = nullString(thumb)
		m.NormalizedNumber = normalized.String
		m.LastContacted = last.Int64
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("contacts: read directory rows: %w", err)
	}
	return out, nil
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

// MemoryDirectory is an in-memory directory useful for tests and local runs.
// Matches keep insertion order.
type MemoryDirectory struct {
	mu       sync.RWMutex
	contacts []calllog.ContactMatch
}

func NewMemoryDirectory(contacts ...calllog.ContactMatch) *MemoryDirectory {
	return &MemoryDirectory{contacts: append([]calllog.ContactMatch(nil), contacts...)}
}

func (d *MemoryDirectory) Add(m calllog.ContactMatch) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.contacts = append(d.contacts, m)
}

func (d *MemoryDirectory) FindByNormalizedNumber(ctx context.Context, substring string) ([]calllog.ContactMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []calllog.ContactMatch
	for _, c := range d.contacts {
		if strings.Contains(c.NormalizedNumber, substring) {
			out = append(out, c)
		}
	}
	return out, nil
}
