package dto

import (
	"time"

	"github.com/ayoubbns/document-control-api/internal/models"
)

// FolderDTO represents a folder in API responses
type FolderDTO struct {
	ID             uint64     `json:"id"`
	Name           string     `json:"name"`
	ParentFolderID *uint64    `json:"parent_folder_id"`
	IsArchived     bool       `json:"is_archived"`
	ArchivedAt     *time.Time `json:"archived_at,omitempty"`
	ArchivedUntil  *time.Time `json:"archived_until,omitempty"`
	ArchiveNote    string     `json:"archive_note,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ArchiveEntryDTO represents one archive history row in API responses
type ArchiveEntryDTO struct {
	ID             uint64               `json:"id"`
	DocumentID     uint64               `json:"document_id"`
	ArchivedBy     *UserDTO             `json:"archived_by,omitempty"`
	ArchivedAt     time.Time            `json:"archived_at"`
	RetentionUntil *time.Time           `json:"retention_until"`
	RestoredAt     *time.Time           `json:"restored_at"`
	Status         models.ArchiveStatus `json:"status"`
}

// ArchiveListingResponse represents an archive browse result
type ArchiveListingResponse struct {
	Folders   []FolderDTO   `json:"folders"`
	Documents []DocumentDTO `json:"documents"`
}

// ToFolderDTO converts a Folder model to FolderDTO
func ToFolderDTO(folder models.Folder) FolderDTO {
	return FolderDTO{
		ID:             folder.ID,
		Name:           folder.Name,
		ParentFolderID: folder.ParentFolderID,
		IsArchived:     folder.IsArchived,
		ArchivedAt:     folder.ArchivedAt,
		ArchivedUntil:  folder.ArchivedUntil,
		ArchiveNote:    folder.ArchiveNote,
		CreatedAt:      folder.CreatedAt,
	}
}

// ToArchiveEntryDTO converts a DocumentArchive model to ArchiveEntryDTO
func ToArchiveEntryDTO(entry models.DocumentArchive) ArchiveEntryDTO {
	dto := ArchiveEntryDTO{
		ID:             entry.ID,
		DocumentID:     entry.DocumentID,
		ArchivedAt:     entry.ArchivedAt,
		RetentionUntil: entry.RetentionUntil,
		RestoredAt:     entry.RestoredAt,
		Status:         entry.Status,
	}
	if entry.ArchivedBy != nil {
		archivedBy := ToUserDTO(*entry.ArchivedBy)
		dto.ArchivedBy = &archivedBy
	}
	return dto
}

// ToArchiveListingResponse converts folder/document slices to a browse result
func ToArchiveListingResponse(folders []models.Folder, documents []models.Document) ArchiveListingResponse {
	resp := ArchiveListingResponse{
		Folders:   make([]FolderDTO, len(folders)),
		Documents: make([]DocumentDTO, len(documents)),
	}
	for i, folder := range folders {
		resp.Folders[i] = ToFolderDTO(folder)
	}
	for i, doc := range documents {
		resp.Documents[i] = ToDocumentDTO(doc)
	}
	return resp
}
