package sqlite

const schema = `
CREATE TABLE IF NOT EXISTS monitors (
    id TEXT PRIMARY KEY,
    subject_id TEXT NOT NULL,
    subject TEXT NOT NULL,
    aliases TEXT NOT NULL DEFAULT '[]',
    topic_id TEXT NOT NULL,
    topic TEXT NOT NULL,
    keywords TEXT NOT NULL DEFAULT '[]',
    last_run_at DATETIME,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_monitors_subject ON monitors(subject_id);
CREATE INDEX IF NOT EXISTS idx_monitors_last_run ON monitors(last_run_at);

CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    subject_id TEXT NOT NULL,
    topic_id TEXT NOT NULL,
    title TEXT NOT NULL,
    summary TEXT NOT NULL DEFAULT '',
    event_date DATETIME NOT NULL,
    event_type TEXT NOT NULL,
    fingerprint TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_events_subject ON events(subject_id, event_date);
CREATE INDEX IF NOT EXISTS idx_events_date ON events(event_date);

CREATE TABLE IF NOT EXISTS sources (
    id TEXT PRIMARY KEY,
    event_id TEXT NOT NULL REFERENCES events(id) ON DELETE CASCADE,
    url TEXT NOT NULL UNIQUE,
    headline TEXT NOT NULL DEFAULT '',
    publisher TEXT NOT NULL DEFAULT '',
    published_at DATETIME NOT NULL,
    source_type TEXT NOT NULL,
    content_fingerprint TEXT NOT NULL,
    key_quotes TEXT NOT NULL DEFAULT '[]',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_sources_event ON sources(event_id);
`
