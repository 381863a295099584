package sqlite

// Schema DDL for the record tables. Tags and dimensions are stored as JSON
// text; the JSONL files remain the source of truth.
const (
	createNotes = `CREATE TABLE notes (
    id TEXT PRIMARY KEY,
    url TEXT NOT NULL,
    title TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    content TEXT NOT NULL,
    tags TEXT
);`

	createScreenshots = `CREATE TABLE screenshots (
    id TEXT PRIMARY KEY,
    url TEXT NOT NULL,
    title TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    data_url TEXT NOT NULL,
    type TEXT NOT NULL,
    dimensions TEXT
);`

	createTranscriptions = `CREATE TABLE transcriptions (
    id TEXT PRIMARY KEY,
    url TEXT NOT NULL,
    title TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    text TEXT NOT NULL,
    is_live INTEGER NOT NULL
);`

	createSummaries = `CREATE TABLE summaries (
    id TEXT PRIMARY KEY,
    url TEXT NOT NULL,
    title TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    summary TEXT NOT NULL
);`
)

// Index DDL for the recency, url and capture-type queries.
const (
	idxNotesTimestamp          = `CREATE INDEX idx_notes_timestamp ON notes(timestamp);`
	idxNotesURL                = `CREATE INDEX idx_notes_url ON notes(url);`
	idxScreenshotsTimestamp    = `CREATE INDEX idx_screenshots_timestamp ON screenshots(timestamp);`
	idxScreenshotsURL          = `CREATE INDEX idx_screenshots_url ON screenshots(url);`
	idxScreenshotsType         = `CREATE INDEX idx_screenshots_type ON screenshots(type);`
	idxTranscriptionsTimestamp = `CREATE INDEX idx_transcriptions_timestamp ON transcriptions(timestamp);`
	idxTranscriptionsURL       = `CREATE INDEX idx_transcriptions_url ON transcriptions(url);`
	idxSummariesTimestamp      = `CREATE INDEX idx_summaries_timestamp ON summaries(timestamp);`
	idxSummariesURL            = `CREATE INDEX idx_summaries_url ON summaries(url);`
)

// schemaDDL lists all CREATE TABLE statements.
var schemaDDL = []string{
	createNotes,
	createScreenshots,
	createTranscriptions,
	createSummaries,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxNotesTimestamp,
	idxNotesURL,
	idxScreenshotsTimestamp,
	idxScreenshotsURL,
	idxScreenshotsType,
	idxTranscriptionsTimestamp,
	idxTranscriptionsURL,
	idxSummariesTimestamp,
	idxSummariesURL,
}
