package testutil

import (
	"fmt"

	"github.com/jwaldner/litsync/internal/models"
)

// PaperRecord builds a journal article record.
func PaperRecord(key, title, date string, version int, authors ...[2]string) models.RemoteRecord {
	creators := make([]models.Creator, 0, len(authors))
	for _, a := range authors {
		creators = append(creators, models.Creator{
			CreatorType: "author",
			FirstName:   a[0],
			LastName:    a[1],
		})
	}

	return models.RemoteRecord{
		Key:     key,
		Version: version,
		Data: models.RecordData{
			ItemType: "journalArticle",
			Title:    title,
			Date:     date,
			Creators: creators,
		},
	}
}

// PDFRecord builds a stored PDF attachment record.
func PDFRecord(key string, version int) models.RemoteRecord {
	return models.RemoteRecord{
		Key:     key,
		Version: version,
		Data: models.RecordData{
			ItemType:    models.ItemTypeAttachment,
			ContentType: models.ContentTypePDF,
			LinkMode:    "imported_file",
			Filename:    fmt.Sprintf("%s.pdf", key),
		},
	}
}

// FakePDF returns bytes with a PDF header, good enough for download
// paths but not parseable.
func FakePDF(body string) []byte {
	return []byte("%PDF-1.7\n" + body)
}
