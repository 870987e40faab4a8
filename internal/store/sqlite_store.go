package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jwaldner/litsync/internal/events"
	"github.com/jwaldner/litsync/internal/models"
)

// SQLiteStore implements the papers library on SQLite with an FTS5
// full-text index maintained by triggers.
type SQLiteStore struct {
	db     *sql.DB
	logger *events.Logger
}

// NewSQLiteStore opens (and if needed creates) the library database.
func NewSQLiteStore(dbPath string, logger *events.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal=WAL&_timeout=5000&_fk=1")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &SQLiteStore{
		db:     db,
		logger: logger.WithField("component", "sqlite_store"),
	}

	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return store, nil
}

// initialize creates tables, the FTS index, and its triggers.
func (s *SQLiteStore) initialize() error {
	schema := `
    CREATE TABLE IF NOT EXISTS papers (
        id TEXT PRIMARY KEY,
        external_key TEXT UNIQUE,
        title TEXT NOT NULL DEFAULT '',
        year INTEGER,
        doi TEXT NOT NULL DEFAULT '',
        venue TEXT NOT NULL DEFAULT '',
        abstract TEXT NOT NULL DEFAULT '',
        attachment_file TEXT,
        full_text TEXT,
        remote_version INTEGER NOT NULL DEFAULT 0,
        created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
    );

    CREATE TABLE IF NOT EXISTS paper_authors (
        paper_id TEXT NOT NULL,
        position INTEGER NOT NULL,
        name TEXT NOT NULL,
        PRIMARY KEY (paper_id, position),
        FOREIGN KEY (paper_id) REFERENCES papers(id) ON DELETE CASCADE
    );

    CREATE TABLE IF NOT EXISTS sync_state (
        id INTEGER PRIMARY KEY CHECK (id = 1),
        version INTEGER NOT NULL DEFAULT 0,
        last_sync_time TIMESTAMP
    );

    INSERT OR IGNORE INTO sync_state (id, version) VALUES (1, 0);

    CREATE VIRTUAL TABLE IF NOT EXISTS papers_fts USING fts5(
        title, abstract, full_text,
        content='papers', content_rowid='rowid'
    );

    CREATE TRIGGER IF NOT EXISTS papers_fts_ai AFTER INSERT ON papers BEGIN
        INSERT INTO papers_fts(rowid, title, abstract, full_text)
        VALUES (new.rowid, new.title, new.abstract, coalesce(new.full_text, ''));
    END;

    CREATE TRIGGER IF NOT EXISTS papers_fts_ad AFTER DELETE ON papers BEGIN
        INSERT INTO papers_fts(papers_fts, rowid, title, abstract, full_text)
        VALUES ('delete', old.rowid, old.title, old.abstract, coalesce(old.full_text, ''));
    END;

    CREATE TRIGGER IF NOT EXISTS papers_fts_au AFTER UPDATE ON papers BEGIN
        INSERT INTO papers_fts(papers_fts, rowid, title, abstract, full_text)
        VALUES ('delete', old.rowid, old.title, old.abstract, coalesce(old.full_text, ''));
        INSERT INTO papers_fts(rowid, title, abstract, full_text)
        VALUES (new.rowid, new.title, new.abstract, coalesce(new.full_text, ''));
    END;
    `

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return nil
}

// Upsert inserts or updates a paper by external key inside one
// transaction, replacing its author list.
func (s *SQLiteStore) Upsert(externalKey string, meta models.PaperMeta, authors []string, remoteVersion int) (string, bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return "", false, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id string
	err = tx.QueryRow(`SELECT id FROM papers WHERE external_key = ?`, externalKey).Scan(&id)

	inserted := false
	switch {
	case err == sql.ErrNoRows:
		id = uuid.NewString()
		inserted = true
		_, err = tx.Exec(`
            INSERT INTO papers (id, external_key, title, year, doi, venue, abstract, remote_version)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)
        `, id, externalKey, meta.Title, nullYear(meta.Year), meta.DOI, meta.Venue, meta.Abstract, remoteVersion)
		if err != nil {
			return "", false, fmt.Errorf("insert paper: %w", err)
		}

	case err != nil:
		return "", false, fmt.Errorf("query paper: %w", err)

	default:
		_, err = tx.Exec(`
            UPDATE papers
            SET title = ?, year = ?, doi = ?, venue = ?, abstract = ?,
                remote_version = ?, updated_at = CURRENT_TIMESTAMP
            WHERE id = ?
        `, meta.Title, nullYear(meta.Year), meta.DOI, meta.Venue, meta.Abstract, remoteVersion, id)
		if err != nil {
			return "", false, fmt.Errorf("update paper: %w", err)
		}
	}

	if _, err := tx.Exec(`DELETE FROM paper_authors WHERE paper_id = ?`, id); err != nil {
		return "", false, fmt.Errorf("clear authors: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO paper_authors (paper_id, position, name) VALUES (?, ?, ?)`)
	if err != nil {
		return "", false, fmt.Errorf("prepare authors: %w", err)
	}
	defer stmt.Close()

	for i, name := range authors {
		if _, err := stmt.Exec(id, i, name); err != nil {
			return "", false, fmt.Errorf("insert author %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", false, fmt.Errorf("commit: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"paper_id":     id,
		"external_key": externalKey,
		"inserted":     inserted,
	}).Debug("Upserted paper")

	return id, inserted, nil
}

// Paper retrieves one paper with its author list.
func (s *SQLiteStore) Paper(id string) (*models.Paper, error) {
	return s.queryOne(`WHERE p.id = ?`, id)
}

// PaperByKey retrieves a paper by its external key.
func (s *SQLiteStore) PaperByKey(externalKey string) (*models.Paper, error) {
	return s.queryOne(`WHERE p.external_key = ?`, externalKey)
}

const paperColumns = `
    p.id, p.external_key, p.title, p.year, p.doi, p.venue, p.abstract,
    p.attachment_file, p.full_text, p.remote_version, p.created_at, p.updated_at
`

func (s *SQLiteStore) queryOne(where string, arg interface{}) (*models.Paper, error) {
	row := s.db.QueryRow(`SELECT `+paperColumns+` FROM papers p `+where, arg)

	paper, err := scanPaper(row)
	if err == sql.ErrNoRows {
		return nil, models.ErrPaperNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query paper: %w", err)
	}

	if err := s.loadAuthors(paper); err != nil {
		return nil, err
	}

	return paper, nil
}

// List returns papers ordered by last update, newest first.
func (s *SQLiteStore) List(limit int) ([]*models.Paper, error) {
	rows, err := s.db.Query(`
        SELECT `+paperColumns+`
        FROM papers p
        ORDER BY p.updated_at DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, fmt.Errorf("query papers: %w", err)
	}

	return s.collect(rows)
}

// Search runs an FTS5 MATCH query, best matches first.
func (s *SQLiteStore) Search(query string, limit int) ([]*models.Paper, error) {
	rows, err := s.db.Query(`
        SELECT `+paperColumns+`
        FROM papers_fts f
        JOIN papers p ON p.rowid = f.rowid
        WHERE papers_fts MATCH ?
        ORDER BY f.rank
        LIMIT ?
    `, query, limit)
	if err != nil {
		return nil, fmt.Errorf("search papers: %w", err)
	}

	return s.collect(rows)
}

// SetAttachment records the downloaded attachment filename.
func (s *SQLiteStore) SetAttachment(id, filename string) error {
	res, err := s.db.Exec(`
        UPDATE papers SET attachment_file = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
    `, filename, id)
	if err != nil {
		return fmt.Errorf("set attachment: %w", err)
	}

	return s.requireRow(res)
}

// AttachmentFile returns the recorded attachment filename, or "".
func (s *SQLiteStore) AttachmentFile(id string) (string, error) {
	var filename sql.NullString
	err := s.db.QueryRow(`SELECT attachment_file FROM papers WHERE id = ?`, id).Scan(&filename)
	if err == sql.ErrNoRows {
		return "", models.ErrPaperNotFound
	}
	if err != nil {
		return "", fmt.Errorf("query attachment: %w", err)
	}

	return filename.String, nil
}

// PapersMissingText lists papers with an attachment but no extracted
// text.
func (s *SQLiteStore) PapersMissingText() ([]*models.Paper, error) {
	rows, err := s.db.Query(`
        SELECT ` + paperColumns + `
        FROM papers p
        WHERE p.attachment_file IS NOT NULL AND p.attachment_file != ''
          AND (p.full_text IS NULL OR p.full_text = '')
        ORDER BY p.updated_at DESC
    `)
	if err != nil {
		return nil, fmt.Errorf("query papers missing text: %w", err)
	}

	return s.collect(rows)
}

// UpdateFullText stores extracted text for a paper.
func (s *SQLiteStore) UpdateFullText(id, text string) error {
	res, err := s.db.Exec(`
        UPDATE papers SET full_text = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
    `, text, id)
	if err != nil {
		return fmt.Errorf("update full text: %w", err)
	}

	return s.requireRow(res)
}

// Cursor reads the persisted sync position.
func (s *SQLiteStore) Cursor() (models.SyncCursor, error) {
	var cursor models.SyncCursor
	var lastSync sql.NullTime

	err := s.db.QueryRow(`SELECT version, last_sync_time FROM sync_state WHERE id = 1`).
		Scan(&cursor.Version, &lastSync)
	if err != nil {
		return models.SyncCursor{}, fmt.Errorf("query cursor: %w", err)
	}

	if lastSync.Valid {
		cursor.LastSyncTime = lastSync.Time
	}

	return cursor, nil
}

// SetCursor persists the sync position.
func (s *SQLiteStore) SetCursor(version int, at time.Time) error {
	_, err := s.db.Exec(`
        UPDATE sync_state SET version = ?, last_sync_time = ? WHERE id = 1
    `, version, at)
	if err != nil {
		return fmt.Errorf("set cursor: %w", err)
	}

	return nil
}

// Stats summarizes the library.
func (s *SQLiteStore) Stats() (*models.LibraryStats, error) {
	stats := &models.LibraryStats{}

	err := s.db.QueryRow(`
        SELECT COUNT(*),
               COUNT(CASE WHEN attachment_file IS NOT NULL AND attachment_file != '' THEN 1 END),
               COUNT(CASE WHEN full_text IS NOT NULL AND full_text != '' THEN 1 END)
        FROM papers
    `).Scan(&stats.Papers, &stats.WithAttachment, &stats.WithFullText)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}

	cursor, err := s.Cursor()
	if err != nil {
		return nil, err
	}
	stats.CursorVersion = cursor.Version
	stats.LastSyncTime = cursor.LastSyncTime

	return stats, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) collect(rows *sql.Rows) ([]*models.Paper, error) {
	defer rows.Close()

	var papers []*models.Paper
	for rows.Next() {
		paper, err := scanPaper(rows)
		if err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		papers = append(papers, paper)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate papers: %w", err)
	}

	for _, paper := range papers {
		if err := s.loadAuthors(paper); err != nil {
			return nil, err
		}
	}

	return papers, nil
}

func (s *SQLiteStore) loadAuthors(paper *models.Paper) error {
	rows, err := s.db.Query(`
        SELECT name FROM paper_authors WHERE paper_id = ? ORDER BY position
    `, paper.ID)
	if err != nil {
		return fmt.Errorf("query authors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scan author: %w", err)
		}
		paper.Authors = append(paper.Authors, name)
	}

	return rows.Err()
}

func (s *SQLiteStore) requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrPaperNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPaper(row rowScanner) (*models.Paper, error) {
	var paper models.Paper
	var externalKey, attachment, fullText sql.NullString
	var year sql.NullInt64

	err := row.Scan(
		&paper.ID, &externalKey, &paper.Title, &year, &paper.DOI, &paper.Venue,
		&paper.Abstract, &attachment, &fullText, &paper.RemoteVersion,
		&paper.CreatedAt, &paper.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	paper.ExternalKey = externalKey.String
	paper.AttachmentFile = attachment.String
	paper.FullText = fullText.String
	paper.Year = int(year.Int64)

	return &paper, nil
}

func nullYear(year int) interface{} {
	if year == 0 {
		return nil
	}
	return year
}
