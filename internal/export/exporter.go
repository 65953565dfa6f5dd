package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"calsched/internal/domain"
)

// Source is a calendar that can be exported.
type Source interface {
	All() []domain.Event
	Location() *time.Location
}

// Exporter writes calendars to files under a base directory.
type Exporter struct {
	dir    string
	format Format
	now    func() time.Time
}

// NewExporter returns an exporter rooted at dir. An empty format selects the
// format per file from its extension.
func NewExporter(dir string, format Format) *Exporter {
	if dir == "" {
		dir = "."
	}
	return &Exporter{dir: dir, format: format, now: time.Now}
}

// Export writes every event of src to fileName in the exporter's format and
// returns the absolute path of the written file.
func (e *Exporter) Export(fileName, calendarName string, src Source) (string, error) {
	return e.ExportAs(e.format, fileName, calendarName, src)
}

// ExportAs is Export with an explicit format. An empty format is chosen from
// the file extension. The file is closed on every path; a failed write leaves
// a partial file behind.
func (e *Exporter) ExportAs(format Format, fileName, calendarName string, src Source) (path string, err error) {
	if fileName == "" {
		return "", fmt.Errorf("%w: file name is required", domain.ErrInvalidValue)
	}
	if format == "" {
		format = FormatForFile(fileName)
	}
	if format != FormatCSV && format != FormatICal {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	path, err = filepath.Abs(e.resolve(fileName))
	if err != nil {
		return "", fmt.Errorf("resolve export path: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare export directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create export file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			path, err = "", fmt.Errorf("close export file: %w", cerr)
		}
	}()

	events := src.All()
	switch format {
	case FormatCSV:
		err = WriteCSV(file, events, src.Location())
	default:
		err = WriteICal(file, calendarName, events, src.Location(), e.now())
	}
	if err != nil {
		return "", err
	}
	return path, nil
}

func (e *Exporter) resolve(fileName string) string {
	if filepath.IsAbs(fileName) {
		return fileName
	}
	return filepath.Join(e.dir, fileName)
}
