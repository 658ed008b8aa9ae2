package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations. Column types are the
// common subset SQLite and Postgres both accept.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS leads (
	id                          TEXT PRIMARY KEY,
	name                        TEXT NOT NULL DEFAULT '',
	first_name                  TEXT NOT NULL DEFAULT '',
	last_name                   TEXT NOT NULL DEFAULT '',
	email                       TEXT NOT NULL DEFAULT '',
	phone                       TEXT NOT NULL DEFAULT '',
	source                      TEXT NOT NULL,
	vehicle_interest            TEXT NOT NULL DEFAULT '',
	trade_vehicle               TEXT NOT NULL DEFAULT '',
	created_at                  TIMESTAMP NOT NULL,
	last_lead_response_at       TIMESTAMP,
	last_lead_response_channel  TEXT NOT NULL DEFAULT '',
	last_staff_response_at      TIMESTAMP,
	last_staff_response_channel TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_leads_email ON leads(email);
CREATE INDEX IF NOT EXISTS idx_leads_last_name ON leads(last_name);
CREATE INDEX IF NOT EXISTS idx_leads_phone ON leads(phone);
CREATE INDEX IF NOT EXISTS idx_leads_created_at ON leads(created_at);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_leads_source ON leads(source);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
