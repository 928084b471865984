package postgres

const schema = `
-- Monitors pair a watched subject with a topic and track the last run
CREATE TABLE IF NOT EXISTS monitors (
    id TEXT PRIMARY KEY,
    subject_id TEXT NOT NULL,
    subject TEXT NOT NULL,
    aliases TEXT NOT NULL DEFAULT '[]',
    topic_id TEXT NOT NULL,
    topic TEXT NOT NULL,
    keywords TEXT NOT NULL DEFAULT '[]',
    last_run_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_monitors_subject ON monitors(subject_id);
CREATE INDEX IF NOT EXISTS idx_monitors_last_run ON monitors(last_run_at);

-- Events are deduplicated by fingerprint; the unique constraint is the
-- actual dedup guarantee under concurrent writers
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    subject_id TEXT NOT NULL,
    topic_id TEXT NOT NULL,
    title TEXT NOT NULL,
    summary TEXT NOT NULL DEFAULT '',
    event_date TIMESTAMPTZ NOT NULL,
    event_type TEXT NOT NULL,
    fingerprint TEXT NOT NULL UNIQUE,
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_subject ON events(subject_id, event_date);
CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date);

-- Sources are deduplicated store-wide by URL; the first citing event owns
-- the row
CREATE TABLE IF NOT EXISTS sources (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    url TEXT NOT NULL UNIQUE,
    headline TEXT NOT NULL DEFAULT '',
    publisher TEXT NOT NULL DEFAULT '',
    published_at TIMESTAMPTZ NOT NULL,
    source_type TEXT NOT NULL,
    content_fingerprint TEXT NOT NULL,
    key_quotes TEXT NOT NULL DEFAULT '[]',
    created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sources_event ON sources(event_id);
`
