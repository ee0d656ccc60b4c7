package reporting

import "context"

// ReportMetadata identifies a rendered report for a ReportSink write.
type ReportMetadata struct {
	Owner     string
	Name      string
	ReportID  string
	WindowEnd string // ISO date (YYYY-MM-DD)
}

// ReportSink is the port (hexagonal architecture) for writing rendered
// Markdown reports to storage: filesystem, object store, git repository,
// or remote API.
type ReportSink interface {
	WriteReport(ctx context.Context, markdown string, metadata ReportMetadata) error
}
