package sqlite

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a file path or connection string, e.g. "file:clean.db?cache=shared".
	DSN string

	// Table is the destination table. "main.salaries" is accepted.
	Table string

	// Columns is the ordered destination column list.
	Columns []string
}
