package extract

import (
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/jwaldner/litsync/internal/events"
)

// Service converts PDF attachments to plain text. It is strictly
// best-effort: any failure yields an empty string, never an error.
type Service struct {
	logger *events.Logger
}

// NewService creates an extraction service.
func NewService(logger *events.Logger) *Service {
	return &Service{
		logger: logger.WithField("service", "extract"),
	}
}

// Text extracts plain text from the PDF at path, concatenating pages in
// order. Corrupt or unreadable files yield "".
func (s *Service) Text(path string) (text string) {
	// The parser panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			s.logger.WithFields(map[string]interface{}{
				"path":  path,
				"panic": r,
			}).Debug("Extraction panicked")
			text = ""
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		s.logger.WithError(err).WithField("path", path).Debug("Failed to open PDF")
		return ""
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			s.logger.WithError(err).WithFields(map[string]interface{}{
				"path": path,
				"page": i,
			}).Debug("Failed to extract page")
			continue
		}

		sb.WriteString(pageText)
	}

	return sb.String()
}
