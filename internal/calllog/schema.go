package calllog

// SQLiteSchema creates the calls table SQLStore reads. The service opens its
// database read-only; this is for seeding local and test databases.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS calls (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	formatted_number TEXT,
	number           TEXT NOT NULL,
	type             INTEGER NOT NULL,
	date             INTEGER NOT NULL,
	duration         INTEGER NOT NULL,
	name             TEXT,
	numbertype       INTEGER,
	numberlabel      INTEGER
);
CREATE INDEX IF NOT EXISTS calls_date_idx ON calls (date);`
