package library_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwaldner/litsync/internal/events"
	"github.com/jwaldner/litsync/internal/models"
	"github.com/jwaldner/litsync/internal/services/library"
	"github.com/jwaldner/litsync/internal/transport"
)

func newService(t *testing.T) (*library.Service, *transport.MockTransport) {
	t.Helper()

	var buf bytes.Buffer
	logger := events.NewTestLogger(events.DebugLevel, "json", &buf)

	mock := transport.NewMockTransport()
	svc := library.NewService(mock, logger)
	svc.SetCredentials(&models.Credentials{APIKey: "key", UserID: "12345"})
	return svc, mock
}

func recordsJSON(t *testing.T, recs []models.RemoteRecord) []byte {
	t.Helper()
	data, err := json.Marshal(recs)
	require.NoError(t, err)
	return data
}

func makeRecords(n, startVersion int) []models.RemoteRecord {
	recs := make([]models.RemoteRecord, n)
	for i := range recs {
		recs[i] = models.RemoteRecord{
			Key:     fmt.Sprintf("KEY%04d", startVersion+i),
			Version: startVersion + i,
			Data:    models.RecordData{ItemType: "journalArticle", Title: fmt.Sprintf("Paper %d", i)},
		}
	}
	return recs
}

func TestValidateKey(t *testing.T) {
	svc, mock := newService(t)

	mock.AddJSONResponse("/users/12345/items/top", &transport.APIResponse{
		Body:         []byte("[]"),
		StatusCode:   200,
		TotalResults: 321,
	})

	status := svc.ValidateKey(context.Background())
	assert.True(t, status.Valid)
	assert.Equal(t, 321, status.TotalItems)
	assert.Empty(t, status.Err)
}

func TestValidateKeyFailureEncoded(t *testing.T) {
	svc, mock := newService(t)

	mock.JSONErrors["/users/12345/items/top"] = &models.APIError{StatusCode: 403, Body: "forbidden"}

	status := svc.ValidateKey(context.Background())
	assert.False(t, status.Valid)
	assert.Contains(t, status.Err, "403")
}

func TestFetchChangedRecordsSinglePage(t *testing.T) {
	svc, mock := newService(t)

	recs := makeRecords(3, 10)
	mock.AddJSONResponse("/users/12345/items", &transport.APIResponse{
		Body:         recordsJSON(t, recs),
		StatusCode:   200,
		Version:      12,
		TotalResults: 3,
	})

	got, version, err := svc.FetchChangedRecords(context.Background(), 0)
	require.NoError(t, err)

	assert.Len(t, got, 3)
	assert.Equal(t, 12, version)

	// Full fetch omits the since filter
	require.Len(t, mock.JSONRequests, 1)
	assert.Empty(t, mock.JSONRequests[0].Query.Get("since"))
	assert.Equal(t, "100", mock.JSONRequests[0].Query.Get("limit"))
}

func TestFetchChangedRecordsPaginates(t *testing.T) {
	svc, mock := newService(t)

	// Two full pages plus a short one: 100 + 100 + 30
	mock.AddJSONResponse("/users/12345/items", &transport.APIResponse{
		Body: recordsJSON(t, makeRecords(100, 0)), StatusCode: 200, Version: 230, TotalResults: 230,
	})
	mock.AddJSONResponse("/users/12345/items", &transport.APIResponse{
		Body: recordsJSON(t, makeRecords(100, 100)), StatusCode: 200, Version: 230, TotalResults: 230,
	})
	mock.AddJSONResponse("/users/12345/items", &transport.APIResponse{
		Body: recordsJSON(t, makeRecords(30, 200)), StatusCode: 200, Version: 230, TotalResults: 230,
	})

	got, version, err := svc.FetchChangedRecords(context.Background(), 5)
	require.NoError(t, err)

	assert.Len(t, got, 230)
	assert.Equal(t, 230, version)
	require.Len(t, mock.JSONRequests, 3)

	assert.Equal(t, "0", mock.JSONRequests[0].Query.Get("start"))
	assert.Equal(t, "100", mock.JSONRequests[1].Query.Get("start"))
	assert.Equal(t, "200", mock.JSONRequests[2].Query.Get("start"))

	for _, req := range mock.JSONRequests {
		assert.Equal(t, "5", req.Query.Get("since"))
		assert.Equal(t, "dateModified", req.Query.Get("sort"))
		assert.Equal(t, "desc", req.Query.Get("direction"))
	}
}

func TestFetchChangedRecordsStopsAtTotal(t *testing.T) {
	svc, mock := newService(t)

	// A full page that already covers the reported total
	mock.AddJSONResponse("/users/12345/items", &transport.APIResponse{
		Body: recordsJSON(t, makeRecords(100, 0)), StatusCode: 200, Version: 100, TotalResults: 100,
	})

	got, _, err := svc.FetchChangedRecords(context.Background(), 0)
	require.NoError(t, err)

	assert.Len(t, got, 100)
	assert.Len(t, mock.JSONRequests, 1)
}

func TestFetchChangedRecordsTransportError(t *testing.T) {
	svc, mock := newService(t)

	mock.JSONErrors["/users/12345/items"] = errors.New("connection refused")

	_, _, err := svc.FetchChangedRecords(context.Background(), 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch records page")
}

func TestFetchChildren(t *testing.T) {
	svc, mock := newService(t)

	children := []models.RemoteRecord{
		{Key: "CHILD1", Data: models.RecordData{
			ItemType: "attachment", ContentType: "application/pdf", LinkMode: "imported_file",
		}},
	}
	mock.AddJSONResponse("/users/12345/items/PARENT/children", &transport.APIResponse{
		Body: recordsJSON(t, children), StatusCode: 200,
	})

	got, err := svc.FetchChildren(context.Background(), "PARENT")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsStoredPDF())
}

func TestDownloadAttachment(t *testing.T) {
	svc, mock := newService(t)

	mock.DownloadData["/users/12345/items/ATT1/file"] = []byte("%PDF-1.7")

	data, err := svc.DownloadAttachment(context.Background(), "ATT1")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), data)
}
