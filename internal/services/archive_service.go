package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ayoubbns/document-control-api/internal/models"
	"github.com/ayoubbns/document-control-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrFolderNotFound     = errors.New("folder not found")
	ErrAlreadyArchived    = errors.New("item is already archived")
	ErrNotArchived        = errors.New("item is not archived")
	ErrInvalidArchiveMode = errors.New("archive mode must be 'permanent' or 'until'")
	ErrRetentionRequired  = errors.New("a retention date is required for 'until' mode")
	ErrArchivedTarget     = errors.New("target folder or an ancestor is archived")
)

// Archive retention modes.
const (
	ArchiveModePermanent = "permanent"
	ArchiveModeUntil     = "until"
)

// ArchiveListing is the result of browsing the archive tree.
type ArchiveListing struct {
	Folders   []models.Folder   `json:"folders"`
	Documents []models.Document `json:"documents"`
}

// ArchiveService moves documents and folder subtrees between active and
// archived state, keeps the DocumentArchive history, and auto-restores items
// whose retention deadline has passed. Folder operations cascade over the
// whole subtree in one transaction.
type ArchiveService struct {
	db        *gorm.DB
	folders   repository.FolderRepository
	documents repository.DocumentRepository
	archives  repository.ArchiveRepository
	audit     repository.ActionLogRepository
	logger    *zap.Logger
}

// NewArchiveService creates a new ArchiveService
func NewArchiveService(
	db *gorm.DB,
	folders repository.FolderRepository,
	documents repository.DocumentRepository,
	archives repository.ArchiveRepository,
	audit repository.ActionLogRepository,
	logger *zap.Logger,
) *ArchiveService {
	return &ArchiveService{
		db:        db,
		folders:   folders,
		documents: documents,
		archives:  archives,
		audit:     audit,
		logger:    logger,
	}
}

// resolveRetention validates the mode pair and returns the deadline, nil for
// indefinite retention.
func resolveRetention(mode string, until *time.Time) (*time.Time, error) {
	switch mode {
	case ArchiveModePermanent:
		return nil, nil
	case ArchiveModeUntil:
		if until == nil {
			return nil, ErrRetentionRequired
		}
		return until, nil
	default:
		return nil, ErrInvalidArchiveMode
	}
}

// ArchiveFolder archives a folder and its entire subtree, creating one
// ACTIVE history row per newly archived document.
func (s *ArchiveService) ArchiveFolder(folderID uint64, actor *models.User, mode string, until *time.Time, note string) error {
	if !actor.IsElevated() {
		return ErrAdminOnly
	}
	retentionUntil, err := resolveRetention(mode, until)
	if err != nil {
		return err
	}
	folder, err := s.folders.FindByID(folderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFolderNotFound
		}
		return fmt.Errorf("failed to find folder: %w", err)
	}
	if folder.IsArchived {
		return ErrAlreadyArchived
	}

	now := time.Now()
	archiveFields := map[string]interface{}{
		"is_archived":    true,
		"archived_at":    now,
		"archived_until": retentionUntil,
		"archived_by_id": actor.ID,
		"archive_note":   note,
	}

	var folderCount, documentCount int
	err = s.db.Transaction(func(tx *gorm.DB) error {
		folderRepo := s.folders.WithTx(tx)
		folderIDs, err := folderRepo.DescendantIDs(folderID)
		if err != nil {
			return fmt.Errorf("failed to collect subtree: %w", err)
		}
		if err := folderRepo.BulkSetArchiveState(folderIDs, archiveFields); err != nil {
			return err
		}

		docRepo := s.documents.WithTx(tx)
		documents, err := docRepo.ListByFolders(folderIDs, false)
		if err != nil {
			return err
		}
		if len(documents) > 0 {
			entries := make([]models.DocumentArchive, 0, len(documents))
			docIDs := make([]uint64, 0, len(documents))
			for _, doc := range documents {
				docIDs = append(docIDs, doc.ID)
				entries = append(entries, models.DocumentArchive{
					DocumentID:     doc.ID,
					ArchivedByID:   &actor.ID,
					ArchivedAt:     now,
					RetentionUntil: retentionUntil,
					Status:         models.ArchiveStatusActive,
				})
			}
			if err := s.archives.WithTx(tx).BulkCreate(entries); err != nil {
				return err
			}
			if err := docRepo.BulkSetArchiveState(docIDs, archiveFields); err != nil {
				return err
			}
		}

		folderCount = len(folderIDs)
		documentCount = len(documents)
		return s.logArchiveAction(tx, actor.ID, "archive_folder", "folder", folderID, map[string]interface{}{
			"mode":            mode,
			"retention_until": retentionUntil,
			"folders":         folderCount,
			"documents":       documentCount,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("folder subtree archived",
		zap.Uint64("folder_id", folderID),
		zap.Int("folders", folderCount),
		zap.Int("documents", documentCount),
		zap.String("mode", mode))

	return nil
}

// RestoreFolder restores a folder subtree: clears archive fields everywhere
// and closes the documents' ACTIVE history rows as RESTORED.
func (s *ArchiveService) RestoreFolder(folderID uint64, actor *models.User) error {
	if !actor.IsElevated() {
		return ErrAdminOnly
	}
	if _, err := s.folders.FindByID(folderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFolderNotFound
		}
		return fmt.Errorf("failed to find folder: %w", err)
	}

	now := time.Now()
	var folderCount, documentCount int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		folderRepo := s.folders.WithTx(tx)
		folderIDs, err := folderRepo.DescendantIDs(folderID)
		if err != nil {
			return fmt.Errorf("failed to collect subtree: %w", err)
		}
		if err := folderRepo.BulkSetArchiveState(folderIDs, clearArchiveFields()); err != nil {
			return err
		}

		docRepo := s.documents.WithTx(tx)
		documents, err := docRepo.ListByFolders(folderIDs, true)
		if err != nil {
			return err
		}
		if len(documents) > 0 {
			docIDs := make([]uint64, 0, len(documents))
			for _, doc := range documents {
				docIDs = append(docIDs, doc.ID)
			}
			if err := docRepo.BulkSetArchiveState(docIDs, clearArchiveFields()); err != nil {
				return err
			}
			if err := s.archives.WithTx(tx).CloseActive(docIDs, models.ArchiveStatusRestored, &now); err != nil {
				return err
			}
		}

		folderCount = len(folderIDs)
		documentCount = len(documents)
		return s.logArchiveAction(tx, actor.ID, "restore_folder", "folder", folderID, map[string]interface{}{
			"folders":   folderCount,
			"documents": documentCount,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("folder subtree restored",
		zap.Uint64("folder_id", folderID),
		zap.Int("folders", folderCount),
		zap.Int("documents", documentCount))

	return nil
}

// ArchiveDocument archives a single document with a fresh ACTIVE history row.
// Any stale ACTIVE row is expired first so the one-ACTIVE-row invariant holds.
func (s *ArchiveService) ArchiveDocument(documentID uint64, actor *models.User, mode string, until *time.Time, note string) error {
	if !actor.IsElevated() {
		return ErrAdminOnly
	}
	retentionUntil, err := resolveRetention(mode, until)
	if err != nil {
		return err
	}
	document, err := s.documents.FindByID(documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to find document: %w", err)
	}
	if document.IsArchived {
		return ErrAlreadyArchived
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		archiveRepo := s.archives.WithTx(tx)
		if err := archiveRepo.CloseActive([]uint64{documentID}, models.ArchiveStatusExpired, nil); err != nil {
			return err
		}
		if err := archiveRepo.Create(&models.DocumentArchive{
			DocumentID:     documentID,
			ArchivedByID:   &actor.ID,
			ArchivedAt:     now,
			RetentionUntil: retentionUntil,
			Status:         models.ArchiveStatusActive,
		}); err != nil {
			return err
		}
		if err := s.documents.WithTx(tx).BulkSetArchiveState([]uint64{documentID}, map[string]interface{}{
			"is_archived":    true,
			"archived_at":    now,
			"archived_until": retentionUntil,
			"archived_by_id": actor.ID,
			"archive_note":   note,
		}); err != nil {
			return err
		}
		return s.logArchiveAction(tx, actor.ID, "archive_document", "document", documentID, map[string]interface{}{
			"mode":            mode,
			"retention_until": retentionUntil,
		})
	})
	if err != nil {
		return err
	}

	s.logger.Info("document archived",
		zap.Uint64("document_id", documentID),
		zap.String("mode", mode))

	return nil
}

// RestoreDocument restores a single archived document.
func (s *ArchiveService) RestoreDocument(documentID uint64, actor *models.User) error {
	if !actor.IsElevated() {
		return ErrAdminOnly
	}
	document, err := s.documents.FindByID(documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return fmt.Errorf("failed to find document: %w", err)
	}
	if !document.IsArchived {
		return ErrNotArchived
	}

	now := time.Now()
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.documents.WithTx(tx).BulkSetArchiveState([]uint64{documentID}, clearArchiveFields()); err != nil {
			return err
		}
		if err := s.archives.WithTx(tx).CloseActive([]uint64{documentID}, models.ArchiveStatusRestored, &now); err != nil {
			return err
		}
		return s.logArchiveAction(tx, actor.ID, "restore_document", "document", documentID, nil)
	})
	if err != nil {
		return err
	}

	s.logger.Info("document restored", zap.Uint64("document_id", documentID))

	return nil
}

// ExpireRetention restores every archived folder and document whose retention
// deadline has passed. It is idempotent: redundant calls find nothing to do.
// Called both by the periodic sweep worker and lazily from archive reads.
func (s *ArchiveService) ExpireRetention() error {
	now := time.Now()
	var restoredFolders, restoredDocuments int
	err := s.db.Transaction(func(tx *gorm.DB) error {
		folderRepo := s.folders.WithTx(tx)
		docRepo := s.documents.WithTx(tx)
		archiveRepo := s.archives.WithTx(tx)

		expiredFolders, err := folderRepo.ListExpiredRetention(now)
		if err != nil {
			return err
		}
		for _, folder := range expiredFolders {
			folderIDs, err := folderRepo.DescendantIDs(folder.ID)
			if err != nil {
				return err
			}
			if err := folderRepo.BulkSetArchiveState(folderIDs, clearArchiveFields()); err != nil {
				return err
			}
			documents, err := docRepo.ListByFolders(folderIDs, true)
			if err != nil {
				return err
			}
			if len(documents) > 0 {
				docIDs := make([]uint64, 0, len(documents))
				for _, doc := range documents {
					docIDs = append(docIDs, doc.ID)
				}
				if err := docRepo.BulkSetArchiveState(docIDs, clearArchiveFields()); err != nil {
					return err
				}
				if err := archiveRepo.CloseActive(docIDs, models.ArchiveStatusRestored, &now); err != nil {
					return err
				}
				restoredDocuments += len(docIDs)
			}
			restoredFolders++
		}

		// Documents archived standalone, or whose deadline differs from their
		// folder's, expire independently.
		expiredDocuments, err := docRepo.ListExpiredRetention(now)
		if err != nil {
			return err
		}
		if len(expiredDocuments) > 0 {
			docIDs := make([]uint64, 0, len(expiredDocuments))
			for _, doc := range expiredDocuments {
				docIDs = append(docIDs, doc.ID)
			}
			if err := docRepo.BulkSetArchiveState(docIDs, clearArchiveFields()); err != nil {
				return err
			}
			if err := archiveRepo.CloseActive(docIDs, models.ArchiveStatusRestored, &now); err != nil {
				return err
			}
			restoredDocuments += len(docIDs)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if restoredFolders > 0 || restoredDocuments > 0 {
		s.logger.Info("retention sweep restored expired items",
			zap.Int("folders", restoredFolders),
			zap.Int("documents", restoredDocuments))
	}
	return nil
}

// Navigate browses the archive. Without a folder id it returns the roots of
// archived subtrees (items whose immediate parent is not archived); with one,
// the direct archived children. Expired retention is swept lazily first.
func (s *ArchiveService) Navigate(folderID *uint64, actor *models.User) (*ArchiveListing, error) {
	if !actor.IsElevated() {
		return nil, ErrFolderNotFound
	}
	if err := s.ExpireRetention(); err != nil {
		return nil, err
	}

	listing := &ArchiveListing{}
	var err error
	if folderID == nil {
		listing.Folders, err = s.folders.ListArchivedRoots()
		if err != nil {
			return nil, err
		}
		listing.Documents, err = s.documents.ListArchivedRoots()
		if err != nil {
			return nil, err
		}
		return listing, nil
	}

	if _, err := s.folders.FindByID(*folderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrFolderNotFound
		}
		return nil, fmt.Errorf("failed to find folder: %w", err)
	}
	listing.Folders, err = s.folders.ListArchivedChildren(*folderID)
	if err != nil {
		return nil, err
	}
	listing.Documents, err = s.documents.ListByFolders([]uint64{*folderID}, true)
	if err != nil {
		return nil, err
	}
	return listing, nil
}

// History returns the full archive history of a document, admin-only.
func (s *ArchiveService) History(documentID uint64, actor *models.User) ([]models.DocumentArchive, error) {
	if !actor.IsElevated() {
		return nil, ErrDocumentNotFound
	}
	if _, err := s.documents.FindByID(documentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	return s.archives.ListByDocument(documentID)
}

// IsArchivedAnywhere walks the ancestor chain and reports whether the folder
// or any ancestor is archived. Creation and move operations use it to refuse
// writes into frozen subtrees.
func (s *ArchiveService) IsArchivedAnywhere(folderID uint64) (bool, error) {
	current := &folderID
	for current != nil {
		folder, err := s.folders.FindByID(*current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return false, ErrFolderNotFound
			}
			return false, fmt.Errorf("failed to find folder: %w", err)
		}
		if folder.IsArchived {
			return true, nil
		}
		current = folder.ParentFolderID
	}
	return false, nil
}

func clearArchiveFields() map[string]interface{} {
	return map[string]interface{}{
		"is_archived":    false,
		"archived_at":    nil,
		"archived_until": nil,
		"archived_by_id": nil,
		"archive_note":   "",
	}
}

func (s *ArchiveService) logArchiveAction(tx *gorm.DB, userID uint64, action, objectType string, objectID uint64, extra map[string]interface{}) error {
	info := "{}"
	if extra != nil {
		encoded, err := json.Marshal(extra)
		if err != nil {
			return fmt.Errorf("failed to encode audit info: %w", err)
		}
		info = string(encoded)
	}
	return s.audit.WithTx(tx).Create(&models.UserActionLog{
		UserID:     &userID,
		Action:     action,
		ObjectType: objectType,
		ObjectID:   objectID,
		ExtraInfo:  info,
	})
}
