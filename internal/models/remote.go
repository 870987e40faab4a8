package models

// Remote item types that are never upserted as papers.
const (
	ItemTypeAttachment = "attachment"
	ItemTypeNote       = "note"
	ItemTypeAnnotation = "annotation"
)

// LinkModeLinkedURL marks attachments that are links, not stored files.
const LinkModeLinkedURL = "linked_url"

// ContentTypePDF is the attachment content type worth downloading.
const ContentTypePDF = "application/pdf"

// RemoteRecord is one item from the remote library API.
type RemoteRecord struct {
	Key     string     `json:"key"`
	Version int        `json:"version"`
	Data    RecordData `json:"data"`
}

// RecordData is the metadata payload of a remote record.
type RecordData struct {
	ItemType         string    `json:"itemType"`
	Title            string    `json:"title"`
	Date             string    `json:"date"`
	DOI              string    `json:"DOI"`
	PublicationTitle string    `json:"publicationTitle"`
	AbstractNote     string    `json:"abstractNote"`
	Creators         []Creator `json:"creators"`

	// Attachment-only fields
	ContentType string `json:"contentType"`
	LinkMode    string `json:"linkMode"`
	Filename    string `json:"filename"`
}

// Creator is one entry of a record's creator list.
type Creator struct {
	CreatorType string `json:"creatorType"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	Name        string `json:"name"` // Single-field name (institutions)
}

// IsPaper reports whether the record should be upserted as a paper.
// Attachments, notes, and item-level annotations are skipped.
func (r *RemoteRecord) IsPaper() bool {
	switch r.Data.ItemType {
	case ItemTypeAttachment, ItemTypeNote, ItemTypeAnnotation:
		return false
	}
	return true
}

// IsStoredPDF reports whether the record is a downloadable PDF attachment.
func (r *RemoteRecord) IsStoredPDF() bool {
	return r.Data.ItemType == ItemTypeAttachment &&
		r.Data.ContentType == ContentTypePDF &&
		r.Data.LinkMode != LinkModeLinkedURL
}

// KeyStatus is the outcome of a credential check. Auth failure is encoded
// here, never raised.
type KeyStatus struct {
	Valid      bool   `json:"valid"`
	TotalItems int    `json:"total_items"`
	Err        string `json:"error,omitempty"`
}
