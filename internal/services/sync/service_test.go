package sync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/litsync/internal/creds"
	"github.com/jwaldner/litsync/internal/events"
	"github.com/jwaldner/litsync/internal/models"
	"github.com/jwaldner/litsync/internal/store"
)

type testEnv struct {
	library     *MockLibrary
	store       *store.MockStore
	attachments *MockAttachments
	extractor   *MockExtractor
	creds       *creds.MemoryStore
	service     *Service
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()

	env := &testEnv{
		library:     NewMockLibrary(),
		store:       store.NewMockStore(),
		attachments: NewMockAttachments(),
		extractor:   NewMockExtractor(),
		creds: creds.NewMemoryStore(&models.Credentials{
			APIKey: "test-key",
			UserID: "12345",
		}),
	}
	env.service = NewService(
		env.library,
		env.store,
		env.attachments,
		env.extractor,
		env.creds,
		opts,
		events.NewTestLogger(events.DebugLevel, "text", nil),
	)
	return env
}

func paperRecord(key, title, date string, version int, creators ...models.Creator) models.RemoteRecord {
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

func pdfChild(key string) models.RemoteRecord {
	return models.RemoteRecord{
		Key: key,
		Data: models.RecordData{
			ItemType:    models.ItemTypeAttachment,
			ContentType: models.ContentTypePDF,
			LinkMode:    "imported_file",
			Filename:    "upstream.pdf",
		},
	}
}

func author(first, last string) models.Creator {
	return models.Creator{CreatorType: "author", FirstName: first, LastName: last}
}

func TestRunNoCredentials(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.creds = creds.NewMemoryStore(nil)
	env.service.creds = env.creds

	result := env.service.Run(context.Background())

	require.True(t, result.Failed())
	assert.Contains(t, result.Errors[0], "no stored credentials")
	assert.Empty(t, env.library.FetchCalls, "remote must not be contacted without credentials")
}

func TestRunFullCycle(t *testing.T) {
	env := newTestEnv(t, Options{DownloadAttachments: true})
	env.library.Records[0] = []models.RemoteRecord{
		paperRecord("AAAA1111", "Consensus in Asynchronous Systems", "2024-03-15", 10,
			author("Jane", "Smith")),
		paperRecord("BBBB2222", "Untyped Lambda Calculi", "1998", 11),
	}
	env.library.LatestVersion = 11
	env.library.Children["AAAA1111"] = []models.RemoteRecord{pdfChild("PDF11111")}
	env.library.Attachments["PDF11111"] = []byte("%PDF-1.7 fake")

	result := env.service.Run(context.Background())

	require.False(t, result.Failed(), "errors: %v", result.Errors)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.PDFsDownloaded)
	assert.Equal(t, 11, result.LibraryVersion)

	require.NotNil(t, env.library.Credentials)
	assert.Equal(t, "test-key", env.library.Credentials.APIKey)

	cursor, err := env.store.Cursor()
	require.NoError(t, err)
	assert.Equal(t, 11, cursor.Version)

	assert.True(t, env.attachments.Exists("Smith2024.pdf"))

	paper, err := env.store.PaperByKey("AAAA1111")
	require.NoError(t, err)
	assert.Equal(t, "Smith2024.pdf", paper.AttachmentFile)
	assert.Equal(t, 2024, paper.Year)
	assert.Equal(t, []string{"Smith, Jane"}, paper.Authors)
}

func TestRunIdempotentResync(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.library.Records[0] = []models.RemoteRecord{
		paperRecord("AAAA1111", "Paper One", "2020", 5, author("A", "Lee")),
	}
	env.library.LatestVersion = 5

	first := env.service.Run(context.Background())
	require.False(t, first.Failed())
	require.Equal(t, 1, first.Imported)

	// No changes since version 5: the remote returns an empty page.
	second := env.service.Run(context.Background())

	require.False(t, second.Failed())
	assert.Equal(t, 0, second.Imported)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 5, second.LibraryVersion)
	assert.Equal(t, []int{0, 5}, env.library.FetchCalls)
	assert.Equal(t, 1, env.store.PaperCount())
}

func TestRunFetchFailureKeepsCursor(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.store.SetCursor(42, time.Now()))
	env.library.FetchErr = assert.AnError

	result := env.service.Run(context.Background())

	require.True(t, result.Failed())
	assert.Equal(t, 42, result.LibraryVersion, "version reported unchanged on total fetch failure")

	cursor, err := env.store.Cursor()
	require.NoError(t, err)
	assert.Equal(t, 42, cursor.Version, "cursor must not move when the fetch fails")
}

func TestRunPartialFailure(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.library.Records[0] = []models.RemoteRecord{
		paperRecord("GOOD0001", "First", "2021", 1, author("A", "One")),
		paperRecord("BAD00002", "Broken Record", "2022", 2, author("B", "Two")),
		paperRecord("GOOD0003", "Third", "2023", 3, author("C", "Three")),
	}
	env.library.LatestVersion = 3
	env.store.FailExternalKey = "BAD00002"

	result := env.service.Run(context.Background())

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Failed to import 'Broken Record'")
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, env.store.PaperCount())

	// One bad record never blocks cursor advancement.
	cursor, err := env.store.Cursor()
	require.NoError(t, err)
	assert.Equal(t, 3, cursor.Version)
}

func TestRunRejectsConcurrentCycle(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.library.FetchGate = make(chan struct{})
	env.library.Records[0] = []models.RemoteRecord{
		paperRecord("AAAA1111", "Paper", "2020", 1, author("A", "Lee")),
	}
	env.library.LatestVersion = 1

	done := make(chan *models.SyncResult, 1)
	go func() {
		done <- env.service.Run(context.Background())
	}()

	// Wait until the first cycle is inside the remote fetch.
	require.Eventually(t, func() bool {
		env.library.mu.Lock()
		defer env.library.mu.Unlock()
		return len(env.library.FetchCalls) == 1
	}, time.Second, 5*time.Millisecond)

	second := env.service.Run(context.Background())
	require.True(t, second.Failed())
	assert.Contains(t, second.Errors[0], "sync already in progress")
	assert.Equal(t, 0, env.store.PaperCount(), "rejected cycle must not touch the store")

	close(env.library.FetchGate)
	first := <-done
	require.False(t, first.Failed())
	assert.Equal(t, 1, first.Imported)
}

func TestRunSkipsNonPaperRecords(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.library.Records[0] = []models.RemoteRecord{
		paperRecord("AAAA1111", "Real Paper", "2020", 1, author("A", "Lee")),
		{Key: "NOTE0001", Version: 2, Data: models.RecordData{ItemType: models.ItemTypeNote}},
		{Key: "ATT00001", Version: 3, Data: models.RecordData{ItemType: models.ItemTypeAttachment}},
	}
	env.library.LatestVersion = 3

	result := env.service.Run(context.Background())

	require.False(t, result.Failed())
	assert.Equal(t, 1, result.Imported)
	assert.Equal(t, 1, env.store.PaperCount())
	assert.Equal(t, 3, result.LibraryVersion)
}

func TestRunSkipsExistingAttachment(t *testing.T) {
	env := newTestEnv(t, Options{DownloadAttachments: true})

	rec := paperRecord("AAAA1111", "Already Here", "2019", 1, author("J", "Smith"))
	env.library.Records[0] = []models.RemoteRecord{rec}
	env.library.LatestVersion = 1
	env.library.Children["AAAA1111"] = []models.RemoteRecord{pdfChild("PDF11111")}
	env.library.Attachments["PDF11111"] = []byte("pdf")

	first := env.service.Run(context.Background())
	require.Equal(t, 1, first.PDFsDownloaded)

	// Same record changed again upstream.
	env.library.mu.Lock()
	env.library.Records[1] = []models.RemoteRecord{rec}
	env.library.LatestVersion = 2
	env.library.mu.Unlock()

	second := env.service.Run(context.Background())

	require.False(t, second.Failed())
	assert.Equal(t, 1, second.Updated)
	assert.Equal(t, 0, second.PDFsDownloaded)
	assert.Len(t, env.library.DownloadCalls, 1, "existing file on disk must not be re-downloaded")
}

func TestRunNoPDFChild(t *testing.T) {
	env := newTestEnv(t, Options{DownloadAttachments: true})
	env.library.Records[0] = []models.RemoteRecord{
		paperRecord("AAAA1111", "Link Only", "2020", 1, author("A", "Lee")),
	}
	env.library.LatestVersion = 1
	env.library.Children["AAAA1111"] = []models.RemoteRecord{
		{Key: "LNK00001", Data: models.RecordData{
			ItemType:    models.ItemTypeAttachment,
			ContentType: models.ContentTypePDF,
			LinkMode:    models.LinkModeLinkedURL,
		}},
	}

	result := env.service.Run(context.Background())

	// A record without a stored PDF is not an error.
	require.False(t, result.Failed())
	assert.Equal(t, 0, result.PDFsDownloaded)
	assert.Empty(t, env.library.DownloadCalls)
}

func TestRunExtraction(t *testing.T) {
	env := newTestEnv(t, Options{DownloadAttachments: true, ExtractText: true})
	env.library.Records[0] = []models.RemoteRecord{
		paperRecord("AAAA1111", "Extractable", "2024", 1, author("Jane", "Smith")),
	}
	env.library.LatestVersion = 1
	env.library.Children["AAAA1111"] = []models.RemoteRecord{pdfChild("PDF11111")}
	env.library.Attachments["PDF11111"] = []byte("pdf")
	env.extractor.Texts["/attachments/Smith2024.pdf"] = "extracted body text"

	result := env.service.Run(context.Background())

	require.False(t, result.Failed())
	paper, err := env.store.PaperByKey("AAAA1111")
	require.NoError(t, err)
	assert.Equal(t, "extracted body text", paper.FullText)
}

func TestRunExtractionFailureStaysSilent(t *testing.T) {
	env := newTestEnv(t, Options{DownloadAttachments: true, ExtractText: true})
	env.library.Records[0] = []models.RemoteRecord{
		paperRecord("AAAA1111", "Scanned Only", "2024", 1, author("Jane", "Smith")),
	}
	env.library.LatestVersion = 1
	env.library.Children["AAAA1111"] = []models.RemoteRecord{pdfChild("PDF11111")}
	env.library.Attachments["PDF11111"] = []byte("pdf")
	// Extractor returns "" for every path: nothing to store, no error either.

	result := env.service.Run(context.Background())

	require.False(t, result.Failed())
	assert.Empty(t, result.Errors)
	assert.NotEmpty(t, env.extractor.Calls)

	paper, err := env.store.PaperByKey("AAAA1111")
	require.NoError(t, err)
	assert.Empty(t, paper.FullText)
}

func TestRunSetCursorError(t *testing.T) {
	env := newTestEnv(t, Options{})
	require.NoError(t, env.store.SetCursor(4, time.Now()))
	env.library.Records[4] = []models.RemoteRecord{
		paperRecord("AAAA1111", "Paper", "2020", 7, author("A", "Lee")),
	}
	env.library.LatestVersion = 7
	env.store.SetCursorErr = assert.AnError

	result := env.service.Run(context.Background())

	assert.Equal(t, 1, result.Imported)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "Failed to persist sync cursor")
	assert.Equal(t, 4, result.LibraryVersion, "reported version stays at the persisted cursor")
}

func TestRunEmitsEvents(t *testing.T) {
	env := newTestEnv(t, Options{DownloadAttachments: true})
	env.library.Records[0] = []models.RemoteRecord{
		paperRecord("AAAA1111", "Paper", "2024", 1, author("Jane", "Smith")),
	}
	env.library.LatestVersion = 1
	env.library.Children["AAAA1111"] = []models.RemoteRecord{pdfChild("PDF11111")}
	env.library.Attachments["PDF11111"] = []byte("pdf")

	ch := env.service.Events()
	result := env.service.Run(context.Background())
	require.False(t, result.Failed())

	phases := map[Phase]int{}
	for ev := range ch {
		phases[ev.Phase]++
	}

	assert.Equal(t, 1, phases[PhaseMetadata])
	assert.Equal(t, 1, phases[PhaseDownloading])
	assert.Equal(t, 1, phases[PhaseComplete])
	assert.Zero(t, phases[PhaseError])
}

func TestEventsChannelReopensAfterCycle(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.library.LatestVersion = 1

	first := env.service.Events()
	env.service.Run(context.Background())
	for range first {
		// Drain; the range ends because the cycle closed the channel.
	}

	// A listener registering between cycles gets the live channel, not
	// the closed one from the finished cycle.
	second := env.service.Events()
	env.library.mu.Lock()
	env.library.Records[1] = []models.RemoteRecord{
		paperRecord("AAAA1111", "Second Cycle Paper", "2021", 2, author("A", "Lee")),
	}
	env.library.LatestVersion = 2
	env.library.mu.Unlock()

	result := env.service.Run(context.Background())
	require.False(t, result.Failed())
	require.Equal(t, 1, result.Imported)

	count := 0
	for range second {
		count++
	}
	assert.Positive(t, count, "listener registered before Run must see the cycle's events")
}
