package contacts

// SQLiteSchema creates the contact_phones table SQLDirectory reads.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS contact_phones (
	id                  INTEGER PRIMARY KEY AUTOINCREMENT,
	raw_contact_id      TEXT,
	display_name        TEXT,
	contact_id          INTEGER,
	photo_uri           TEXT,
	photo_thumb_uri     TEXT,
	normalized_number   TEXT NOT NULL,
	last_time_contacted INTEGER
);`
