package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Dosada05/knockout-live/models"
	"github.com/Dosada05/knockout-live/storage"
)

// ArchiveService uploads finished match reports to object storage so full
// commentary and statistics survive bracket resets.
type ArchiveService struct {
	uploader storage.FileUploader
}

func NewArchiveService(uploader storage.FileUploader) *ArchiveService {
	return &ArchiveService{uploader: uploader}
}

// ArchiveMatchReport serializes the match document and stores it under
// reports/<year>/<matchID>.json. Callers treat failures as non-fatal.
func (s *ArchiveService) ArchiveMatchReport(ctx context.Context, match *models.Match) error {
	payload, err := json.MarshalIndent(match, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize report for match %s: %w", match.ID, err)
	}

	key := fmt.Sprintf("reports/%d/%s.json", time.Now().Year(), match.ID)
	if _, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(payload)); err != nil {
		return err
	}
	return nil
}

// ReportURL returns the public location of a previously archived report.
func (s *ArchiveService) ReportURL(matchID string, year int) string {
	return s.uploader.GetPublicURL(fmt.Sprintf("reports/%d/%s.json", year, matchID))
}
