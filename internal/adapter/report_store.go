package adapter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bytedance/sonic"

	m "gooze.dev/pkg/mutexec/internal/model"
)

// ReportFileName is the report written into the output directory.
const ReportFileName = "report.json"

// ReportStore persists engine reports.
type ReportStore interface {
	SaveReport(dir m.Path, report m.Report) (m.Path, error)
	LoadReport(path m.Path) (m.Report, error)
}

type reportStore struct{}

// NewReportStore returns the JSON file backed ReportStore.
func NewReportStore() ReportStore {
	return &reportStore{}
}

// SaveReport writes report to dir/report.json and returns the file path.
func (s *reportStore) SaveReport(dir m.Path, report m.Report) (m.Path, error) {
	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		slog.Error("Failed to create report directory", "dir", dir, "error", err)
		return "", fmt.Errorf("create report directory: %w", err)
	}

	data, err := sonic.ConfigStd.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}

	path := filepath.Join(string(dir), ReportFileName)

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		slog.Error("Failed to write report", "path", tmp, "error", err)
		return "", fmt.Errorf("write report: %w", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("move report into place: %w", err)
	}

	return m.Path(path), nil
}

// LoadReport reads a report file, or dir/report.json when path is a directory.
func (s *reportStore) LoadReport(path m.Path) (m.Report, error) {
	target := string(path)
	if info, err := os.Stat(target); err == nil && info.IsDir() {
		target = filepath.Join(target, ReportFileName)
	}

	data, err := os.ReadFile(target)
	if err != nil {
		slog.Error("Failed to read report", "path", target, "error", err)
		return m.Report{}, fmt.Errorf("read report: %w", err)
	}

	var report m.Report
	if err := sonic.Unmarshal(data, &report); err != nil {
		return m.Report{}, fmt.Errorf("decode report %s: %w", target, err)
	}

	return report, nil
}
