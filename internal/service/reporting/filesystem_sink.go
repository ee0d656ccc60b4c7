package reporting

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// FilesystemReportSink writes rendered reports under
// {basePath}/{owner}/{name}/latest.md (overwritten each run) and
// {basePath}/{owner}/{name}/{window_end}-{report_id}.md (append-only
// archive).
type FilesystemReportSink struct {
	basePath string
}

// NewFilesystemReportSink builds a FilesystemReportSink rooted at basePath.
func NewFilesystemReportSink(basePath string) *FilesystemReportSink {
	return &FilesystemReportSink{basePath: basePath}
}

var _ ReportSink = (*FilesystemReportSink)(nil)

func (s *FilesystemReportSink) WriteReport(_ context.Context, markdown string, metadata ReportMetadata) error {
	repoDir := filepath.Join(s.basePath, metadata.Owner, metadata.Name)
	if err := os.MkdirAll(repoDir, 0o755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	latestPath := filepath.Join(repoDir, "latest.md")
	if err := os.WriteFile(latestPath, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("write latest report: %w", err)
	}

	datedPath := filepath.Join(repoDir, fmt.Sprintf("%s-%s.md", metadata.WindowEnd, metadata.ReportID))
	if err := os.WriteFile(datedPath, []byte(markdown), 0o644); err != nil {
		return fmt.Errorf("write dated report archive: %w", err)
	}
	return nil
}
