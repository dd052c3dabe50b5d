package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"pyquest/internal/logx"
	"pyquest/internal/models"
	"pyquest/internal/repository"
)

// BackupVersion is written into every export
const BackupVersion = "1.0"

// BackupData is the file format of one profile's backup
type BackupData struct {
	Version    string          `json:"version"`
	ExportedAt time.Time       `json:"exported_at"`
	ProfileID  string          `json:"profile_id"`
	Store      json.RawMessage `json:"store"`
}

// BackupService moves a profile's store between the backend and a file
type BackupService struct {
	registry *LedgerRegistry
}

// NewBackupService creates a new backup service
func NewBackupService(registry *LedgerRegistry) *BackupService {
	return &BackupService{registry: registry}
}

// Export writes the profile's store to outputPath
func (s *BackupService) Export(ctx context.Context, profileID, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, profileID, file); err != nil {
		return err
	}
	logx.Info("Profile exported", "profile", profileID, "file", outputPath)
	return nil
}

// ExportToWriter writes the profile's store as an indented backup document
func (s *BackupService) ExportToWriter(ctx context.Context, profileID string, w io.Writer) error {
	var store *models.Store
	err := s.registry.For(profileID).view(ctx, func(st *models.Store) error {
		store = st
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to export store: %w", err)
	}

	raw, err := json.Marshal(store)
	if err != nil {
		return fmt.Errorf("failed to encode store: %w", err)
	}
	backup := BackupData{
		Version:    BackupVersion,
		ExportedAt: time.Now(),
		ProfileID:  profileID,
		Store:      raw,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}
	logx.Debug("Exported users", "profile", profileID, "count", len(store.Users))
	return nil
}

// Import replaces the profile's store with the one in inputPath
func (s *BackupService) Import(ctx context.Context, profileID, inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, profileID, file)
}

// ImportFromReader validates a backup document and replaces the profile's store with it
func (s *BackupService) ImportFromReader(ctx context.Context, profileID string, r io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	if len(backup.Store) == 0 {
		return fmt.Errorf("backup has no store")
	}

	imported, err := repository.DecodeStore(backup.Store)
	if err != nil {
		return fmt.Errorf("invalid store in backup: %w", err)
	}
	if err := s.checkStore(imported); err != nil {
		return err
	}

	logx.Info("Importing profile", "profile", profileID, "version", backup.Version,
		"exported_at", backup.ExportedAt, "users", len(imported.Users))

	return s.registry.For(profileID).update(ctx, func(st *models.Store) (bool, error) {
		*st = *imported
		return true, nil
	})
}

// checkStore enforces the ledger's own invariants on imported data
func (s *BackupService) checkStore(store *models.Store) error {
	if limit := s.registry.cfg.MaxUsers; len(store.Users) > limit {
		return fmt.Errorf("backup holds %d users, more than the limit of %d", len(store.Users), limit)
	}

	ids := make(map[string]bool, len(store.Users))
	names := make(map[string]bool, len(store.Users))
	for _, u := range store.Users {
		if ids[u.ID] {
			return fmt.Errorf("duplicate user id %q", u.ID)
		}
		key := models.NormalizeUsername(u.Username)
		if names[key] {
			return fmt.Errorf("duplicate username %q", u.Username)
		}
		ids[u.ID] = true
		names[key] = true

		seen := make(map[int]bool, len(u.Progress.CompletedLevels))
		for _, cl := range u.Progress.CompletedLevels {
			if seen[cl.Level] {
				return fmt.Errorf("user %q has level %d recorded twice", u.Username, cl.Level)
			}
			seen[cl.Level] = true
		}
		if u.Progress.Lives != models.ClampLives(u.Progress.Lives) {
			return fmt.Errorf("user %q has %d lives", u.Username, u.Progress.Lives)
		}
	}
	return nil
}
