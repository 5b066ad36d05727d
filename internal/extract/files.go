package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	"telegram-email-bot/internal/domain"
)

// FromFileBytes dispatches by file extension. name is used both for the
// dispatch and as the source-ref prefix of the resulting hits.
func FromFileBytes(name string, data []byte, opt Options) (Result, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return fromPDF(name, data, opt)
	case ".xlsx", ".xlsm":
		return fromXLSX(name, data, opt)
	case ".docx":
		return fromDOCX(name, data, opt)
	case ".csv", ".txt":
		return FromText(string(data), name, opt), nil
	case ".zip":
		return fromZip(name, data, opt)
	default:
		return Result{}, fmt.Errorf("%w: %s", domain.ErrUnsupportedFile, name)
	}
}

// Supported reports whether the extension can be parsed.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".xlsx", ".xlsm", ".docx", ".csv", ".txt", ".zip":
		return true
	}
	return false
}

// Extensions lists the file extensions FromFileBytes understands.
func Extensions() []string {
	return []string{".pdf", ".xlsx", ".xlsm", ".docx", ".csv", ".txt", ".zip"}
}
