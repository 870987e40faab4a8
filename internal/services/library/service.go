package library

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/jwaldner/litsync/internal/events"
	"github.com/jwaldner/litsync/internal/models"
	"github.com/jwaldner/litsync/internal/transport"
)

// PageSize is the fixed page size for collection requests.
const PageSize = 100

// Service fetches records and attachments from the remote library.
type Service struct {
	transport transport.Transport
	userID    string
	logger    *events.Logger
}

// NewService creates a remote library client.
func NewService(t transport.Transport, logger *events.Logger) *Service {
	return &Service{
		transport: t,
		logger:    logger.WithField("service", "library"),
	}
}

// SetCredentials configures the account the client operates on.
func (s *Service) SetCredentials(creds *models.Credentials) {
	s.userID = creds.UserID
	s.transport.SetAPIKey(creds.APIKey)
}

// ValidateKey issues one minimal-cost request and encodes the outcome in
// the return value. Auth failures never surface as errors.
func (s *Service) ValidateKey(ctx context.Context) models.KeyStatus {
	query := url.Values{}
	query.Set("limit", "1")

	resp, err := s.transport.GetJSON(ctx, s.itemsPath()+"/top", query)
	if err != nil {
		return models.KeyStatus{Valid: false, Err: err.Error()}
	}

	return models.KeyStatus{Valid: true, TotalItems: resp.TotalResults}
}

// FetchChangedRecords retrieves all records modified since the given
// library version, page by page, and returns them together with the
// latest library version observed in response headers. A sinceVersion of
// 0 fetches the full library. Records arrive server-sorted by
// modification time, newest first; the client does not re-sort.
func (s *Service) FetchChangedRecords(ctx context.Context, sinceVersion int) ([]models.RemoteRecord, int, error) {
	var all []models.RemoteRecord
	latest := 0
	start := 0

	for {
		query := url.Values{}
		query.Set("limit", strconv.Itoa(PageSize))
		query.Set("start", strconv.Itoa(start))
		query.Set("sort", "dateModified")
		query.Set("direction", "desc")
		if sinceVersion > 0 {
			query.Set("since", strconv.Itoa(sinceVersion))
		}

		resp, err := s.transport.GetJSON(ctx, s.itemsPath(), query)
		if err != nil {
			return nil, 0, fmt.Errorf("fetch records page at %d: %w", start, err)
		}

		var page []models.RemoteRecord
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			return nil, 0, fmt.Errorf("parse records page at %d: %w", start, err)
		}

		all = append(all, page...)
		if resp.Version > latest {
			latest = resp.Version
		}
		start += len(page)

		s.logger.WithFields(map[string]interface{}{
			"sync_id":   events.GetSyncID(ctx),
			"page_size": len(page),
			"fetched":   start,
			"total":     resp.TotalResults,
			"version":   resp.Version,
		}).Debug("Fetched records page")

		if len(page) < PageSize {
			break
		}
		if resp.TotalResults > 0 && start >= resp.TotalResults {
			break
		}
	}

	return all, latest, nil
}

// FetchChildren retrieves the child records of a parent record. Used to
// discover the attachments of an article.
func (s *Service) FetchChildren(ctx context.Context, parentKey string) ([]models.RemoteRecord, error) {
	resp, err := s.transport.GetJSON(ctx, s.itemsPath()+"/"+parentKey+"/children", nil)
	if err != nil {
		return nil, fmt.Errorf("fetch children of %s: %w", parentKey, err)
	}

	var children []models.RemoteRecord
	if err := json.Unmarshal(resp.Body, &children); err != nil {
		return nil, fmt.Errorf("parse children of %s: %w", parentKey, err)
	}

	return children, nil
}

// DownloadAttachment fetches the binary content of one attachment record.
func (s *Service) DownloadAttachment(ctx context.Context, key string) ([]byte, error) {
	data, err := s.transport.Download(ctx, s.itemsPath()+"/"+key+"/file")
	if err != nil {
		return nil, fmt.Errorf("download attachment %s: %w", key, err)
	}

	s.logger.WithFields(map[string]interface{}{
		"record_key": events.GetRecordKey(ctx),
		"attachment": key,
		"bytes":      len(data),
	}).Debug("Downloaded attachment")

	return data, nil
}

func (s *Service) itemsPath() string {
	return "/users/" + s.userID + "/items"
}
