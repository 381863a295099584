package types

// Standard table names for Store.GetTable. The names double as the section
// keys of the export document.
const (
	NotesTable          = "notes"
	ScreenshotsTable    = "screenshots"
	TranscriptionsTable = "transcriptions"
	SummariesTable      = "summaries"
)

// StandardTableNames lists all standard table names in export order.
var StandardTableNames = []string{
	NotesTable,
	ScreenshotsTable,
	TranscriptionsTable,
	SummariesTable,
}
