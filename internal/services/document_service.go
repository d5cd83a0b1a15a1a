package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayoubbns/document-control-api/internal/models"
	"github.com/ayoubbns/document-control-api/internal/repository"
	"github.com/ayoubbns/document-control-api/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrImmutableOriginal = errors.New("published original documents cannot be modified")

// DocumentService manages document metadata and content. Content lives in the
// object store under a generated key; the archive manager's ancestor guard is
// consulted before any write into a folder.
type DocumentService struct {
	db        *gorm.DB
	documents repository.DocumentRepository
	folders   repository.FolderRepository
	archive   *ArchiveService
	store     storage.Storage
	logger    *zap.Logger
}

// NewDocumentService creates a new DocumentService
func NewDocumentService(
	db *gorm.DB,
	documents repository.DocumentRepository,
	folders repository.FolderRepository,
	archive *ArchiveService,
	store storage.Storage,
	logger *zap.Logger,
) *DocumentService {
	return &DocumentService{
		db:        db,
		documents: documents,
		folders:   folders,
		archive:   archive,
		store:     store,
		logger:    logger,
	}
}

// UploadInput carries a new document's metadata and content.
type UploadInput struct {
	Title          string
	Description    string
	ParentFolderID *uint64
	FileName       string
	ContentType    string
	Size           int64
	Content        io.Reader
}

// Upload stores document content and creates the metadata row. Uploads into
// an archived folder (or under an archived ancestor) are refused.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput, actor *models.User) (*models.Document, error) {
	if input.ParentFolderID != nil {
		frozen, err := s.archive.IsArchivedAnywhere(*input.ParentFolderID)
		if err != nil {
			return nil, err
		}
		if frozen {
			return nil, ErrArchivedTarget
		}
	}

	format := strings.TrimPrefix(filepath.Ext(input.FileName), ".")
	objectKey := fmt.Sprintf("%s/%s", time.Now().UTC().Format("2006/01"), uuid.NewString())
	if format != "" {
		objectKey = objectKey + "." + format
	}

	if err := s.store.Save(ctx, objectKey, input.Content, input.Size, input.ContentType); err != nil {
		return nil, fmt.Errorf("failed to store document content: %w", err)
	}

	document := &models.Document{
		Title:          input.Title,
		Path:           objectKey,
		Format:         format,
		Size:           input.Size,
		Description:    input.Description,
		DocStatus:      models.DocumentStatusDraft,
		OwnerID:        actor.ID,
		ParentFolderID: input.ParentFolderID,
	}
	if err := s.documents.Create(document); err != nil {
		// Orphaned content is cheaper than a metadata row pointing nowhere.
		if cleanupErr := s.store.Delete(ctx, objectKey); cleanupErr != nil {
			s.logger.Warn("failed to clean up orphaned object",
				zap.String("object_key", objectKey),
				zap.Error(cleanupErr))
		}
		return nil, fmt.Errorf("failed to create document: %w", err)
	}

	s.logger.Info("document uploaded",
		zap.Uint64("document_id", document.ID),
		zap.String("object_key", objectKey),
		zap.Uint64("owner_id", actor.ID))

	return document, nil
}

// Get returns a document. Archived documents are hidden from non-admins.
func (s *DocumentService) Get(documentID uint64, actor *models.User) (*models.Document, error) {
	document, err := s.documents.FindByID(documentID, "Owner", "ParentFolder")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, fmt.Errorf("failed to find document: %w", err)
	}
	if document.IsArchived && !actor.IsElevated() {
		return nil, ErrDocumentNotFound
	}
	return document, nil
}

// Download streams a document's content from the object store.
func (s *DocumentService) Download(ctx context.Context, documentID uint64, actor *models.User) (*models.Document, io.ReadCloser, error) {
	document, err := s.Get(documentID, actor)
	if err != nil {
		return nil, nil, err
	}
	reader, err := s.store.Open(ctx, document.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open document content: %w", err)
	}
	return document, reader, nil
}

// DownloadURL returns a short-lived presigned URL for direct download.
func (s *DocumentService) DownloadURL(ctx context.Context, documentID uint64, actor *models.User, expirySeconds int64) (string, error) {
	document, err := s.Get(documentID, actor)
	if err != nil {
		return "", err
	}
	return s.store.PresignURL(ctx, document.Path, expirySeconds)
}

// UpdateInput carries partial metadata changes.
type UpdateInput struct {
	Title       *string
	Description *string
}

// Update changes document metadata. Published originals are immutable and
// archived documents are frozen.
func (s *DocumentService) Update(documentID uint64, input UpdateInput, actor *models.User) (*models.Document, error) {
	document, err := s.Get(documentID, actor)
	if err != nil {
		return nil, err
	}
	if document.DocStatusType == models.DocStatusTypeOriginal {
		return nil, ErrImmutableOriginal
	}
	if document.IsArchived {
		return nil, ErrArchivedTarget
	}

	if input.Title != nil {
		document.Title = *input.Title
	}
	if input.Description != nil {
		document.Description = *input.Description
	}
	if err := s.documents.Update(document); err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}
	return document, nil
}

// Move relocates a document to another folder, refusing archived targets.
func (s *DocumentService) Move(documentID uint64, targetFolderID *uint64, actor *models.User) (*models.Document, error) {
	document, err := s.Get(documentID, actor)
	if err != nil {
		return nil, err
	}
	if document.IsArchived {
		return nil, ErrArchivedTarget
	}
	if targetFolderID != nil {
		frozen, err := s.archive.IsArchivedAnywhere(*targetFolderID)
		if err != nil {
			return nil, err
		}
		if frozen {
			return nil, ErrArchivedTarget
		}
	}

	document.ParentFolderID = targetFolderID
	if err := s.documents.Update(document); err != nil {
		return nil, fmt.Errorf("failed to move document: %w", err)
	}
	return document, nil
}

// CreateFolderInput carries a new folder's attributes.
type CreateFolderInput struct {
	Name           string
	ParentFolderID *uint64
}

// CreateFolder adds a folder node, refusing archived parents.
func (s *DocumentService) CreateFolder(ctx context.Context, input CreateFolderInput, actor *models.User) (*models.Folder, error) {
	if input.ParentFolderID != nil {
		frozen, err := s.archive.IsArchivedAnywhere(*input.ParentFolderID)
		if err != nil {
			return nil, err
		}
		if frozen {
			return nil, ErrArchivedTarget
		}
	}

	folder := &models.Folder{
		Name:           input.Name,
		ParentFolderID: input.ParentFolderID,
		CreatedByID:    &actor.ID,
	}
	if err := s.folders.Create(folder); err != nil {
		return nil, fmt.Errorf("failed to create folder: %w", err)
	}

	// Empty folders have no objects of their own; a zero-byte placeholder
	// keeps the prefix visible in the bucket. Failure here is not fatal.
	keepKey := fmt.Sprintf("folders/%d/.keep", folder.ID)
	if err := s.store.Save(ctx, keepKey, strings.NewReader(""), 0, "application/octet-stream"); err != nil {
		s.logger.Warn("failed to write folder placeholder object",
			zap.Uint64("folder_id", folder.ID),
			zap.Error(err))
	}

	return folder, nil
}

// BrowseFolder lists the active (non-archived) contents of a folder; a nil id
// means the root level.
type FolderListing struct {
	Folder     *models.Folder    `json:"folder,omitempty"`
	Path       string            `json:"path,omitempty"`
	Subfolders []models.Folder   `json:"subfolders"`
	Documents  []models.Document `json:"documents"`
}

func (s *DocumentService) BrowseFolder(folderID *uint64, actor *models.User) (*FolderListing, error) {
	listing := &FolderListing{}
	if folderID != nil {
		folder, err := s.folders.FindByID(*folderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrFolderNotFound
			}
			return nil, fmt.Errorf("failed to find folder: %w", err)
		}
		if folder.IsArchived && !actor.IsElevated() {
			return nil, ErrFolderNotFound
		}
		listing.Folder = folder
		listing.Path, err = s.folders.Path(folder.ID)
		if err != nil {
			return nil, err
		}
	}

	children, err := s.folders.ListChildren(folderID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		if child.IsArchived {
			continue
		}
		listing.Subfolders = append(listing.Subfolders, child)
	}

	if folderID != nil {
		listing.Documents, err = s.documents.ListByFolders([]uint64{*folderID}, false)
		if err != nil {
			return nil, err
		}
	}
	return listing, nil
}
