package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jwaldner/litsync/internal/models"
)

func TestParseYear(t *testing.T) {
	tests := []struct {
		name     string
		date     string
		want     int
		wantOK   bool
	}{
		{"iso date", "2024-03-15", 2024, true},
		{"month name", "March 2024", 2024, true},
		{"empty", "", 0, false},
		{"no digits", "no digits here", 0, false},
		{"short run", "vol. 12, no. 3", 0, false},
		{"year embedded", "published in 1998 (reprint)", 1998, true},
		{"first run wins", "1999/2005", 1999, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := models.ParseYear(tt.date)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthorNames(t *testing.T) {
	creators := []models.Creator{
		{CreatorType: "author", LastName: "Doe", FirstName: "Jane"},
		{CreatorType: "editor", LastName: "Smith", FirstName: "Bob"},
		{CreatorType: "author", Name: "World Health Organization"},
		{CreatorType: "author"},
		{CreatorType: "author", LastName: "Okonkwo"},
	}

	names := models.AuthorNames(creators)

	assert.Equal(t, []string{
		"Doe, Jane",
		"World Health Organization",
		"Unknown",
		"Okonkwo",
	}, names)
}

func TestAuthorNamesEmpty(t *testing.T) {
	assert.Nil(t, models.AuthorNames(nil))
	assert.Nil(t, models.AuthorNames([]models.Creator{
		{CreatorType: "editor", LastName: "Smith"},
	}))
}

func TestIsPaper(t *testing.T) {
	tests := []struct {
		itemType string
		want     bool
	}{
		{"journalArticle", true},
		{"book", true},
		{"preprint", true},
		{"attachment", false},
		{"note", false},
		{"annotation", false},
	}

	for _, tt := range tests {
		t.Run(tt.itemType, func(t *testing.T) {
			rec := models.RemoteRecord{Data: models.RecordData{ItemType: tt.itemType}}
			assert.Equal(t, tt.want, rec.IsPaper())
		})
	}
}

func TestIsStoredPDF(t *testing.T) {
	pdf := models.RemoteRecord{Data: models.RecordData{
		ItemType:    models.ItemTypeAttachment,
		ContentType: models.ContentTypePDF,
		LinkMode:    "imported_file",
	}}
	assert.True(t, pdf.IsStoredPDF())

	linked := pdf
	linked.Data.LinkMode = models.LinkModeLinkedURL
	assert.False(t, linked.IsStoredPDF())

	snapshot := pdf
	snapshot.Data.ContentType = "text/html"
	assert.False(t, snapshot.IsStoredPDF())
}
