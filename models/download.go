package models

import "fmt"

// DownloadFormat selects the representation fetched from the download endpoint.
type DownloadFormat string

const (
	FormatCSV DownloadFormat = "csv"
	FormatTXT DownloadFormat = "txt"
)

// DownloadFormats lists the supported formats in display order.
var DownloadFormats = []DownloadFormat{FormatCSV, FormatTXT}

// ParseDownloadFormat validates a user-supplied format name.
func ParseDownloadFormat(s string) (DownloadFormat, error) {
	switch DownloadFormat(s) {
	case FormatCSV, FormatTXT:
		return DownloadFormat(s), nil
	}
	return "", NewAPIError(ErrCodeInvalidInput, fmt.Sprintf("unsupported download format %q", s), nil)
}

// Filename is the fixed name the file is saved under.
func (f DownloadFormat) Filename() string {
	return "emails." + string(f)
}

// ContentType is used when the upstream response does not declare one.
func (f DownloadFormat) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "text/plain; charset=utf-8"
}

// Blob is a file payload fetched from the download endpoint.
type Blob struct {
	Format      DownloadFormat
	ContentType string
	Data        []byte
}

// Filename is the name the blob is saved under.
func (b *Blob) Filename() string {
	return b.Format.Filename()
}
