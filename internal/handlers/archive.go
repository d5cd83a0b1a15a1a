package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ayoubbns/document-control-api/internal/dto"
	apierrors "github.com/ayoubbns/document-control-api/internal/errors"
	"github.com/ayoubbns/document-control-api/internal/middleware"
	"github.com/ayoubbns/document-control-api/internal/models"
	"github.com/ayoubbns/document-control-api/internal/services"
)

// ArchiveHandler coordinates archive and retention HTTP handlers. All routes
// are admin-only and mounted behind RequireAdmin.
type ArchiveHandler struct {
	archiveService *services.ArchiveService
}

// NewArchiveHandler creates a new ArchiveHandler.
func NewArchiveHandler(archiveService *services.ArchiveService) *ArchiveHandler {
	return &ArchiveHandler{
		archiveService: archiveService,
	}
}

// ArchiveRequest carries the retention mode for archive operations.
type ArchiveRequest struct {
	Mode  string     `json:"mode" binding:"required"`
	Until *time.Time `json:"until"`
	Note  string     `json:"note"`
}

// ArchiveFolder archives a folder subtree.
func (h *ArchiveHandler) ArchiveFolder(c *gin.Context) {
	folderID, actor, ok := archiveRequest(c)
	if !ok {
		return
	}

	var req ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.archiveService.ArchiveFolder(folderID, actor, req.Mode, req.Until, req.Note); err != nil {
		respondArchiveError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Folder archived"})
}

// RestoreFolder restores a folder subtree.
func (h *ArchiveHandler) RestoreFolder(c *gin.Context) {
	folderID, actor, ok := archiveRequest(c)
	if !ok {
		return
	}

	if err := h.archiveService.RestoreFolder(folderID, actor); err != nil {
		respondArchiveError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Folder restored"})
}

// ArchiveDocument archives a single document.
func (h *ArchiveHandler) ArchiveDocument(c *gin.Context) {
	documentID, actor, ok := archiveRequest(c)
	if !ok {
		return
	}

	var req ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.archiveService.ArchiveDocument(documentID, actor, req.Mode, req.Until, req.Note); err != nil {
		respondArchiveError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document archived"})
}

// RestoreDocument restores a single document.
func (h *ArchiveHandler) RestoreDocument(c *gin.Context) {
	documentID, actor, ok := archiveRequest(c)
	if !ok {
		return
	}

	if err := h.archiveService.RestoreDocument(documentID, actor); err != nil {
		respondArchiveError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document restored"})
}

// Navigate browses archived folders and documents. Without a folder query
// parameter it returns the roots of archived subtrees.
func (h *ArchiveHandler) Navigate(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var folderID *uint64
	if raw := c.Query("folder"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid folder ID")
			return
		}
		folderID = &parsed
	}

	listing, err := h.archiveService.Navigate(folderID, actor)
	if err != nil {
		respondArchiveError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToArchiveListingResponse(listing.Folders, listing.Documents))
}

// History returns the archive history of a document.
func (h *ArchiveHandler) History(c *gin.Context) {
	documentID, actor, ok := archiveRequest(c)
	if !ok {
		return
	}

	entries, err := h.archiveService.History(documentID, actor)
	if err != nil {
		respondArchiveError(c, err)
		return
	}

	items := make([]dto.ArchiveEntryDTO, len(entries))
	for i, entry := range entries {
		items[i] = dto.ToArchiveEntryDTO(entry)
	}
	c.JSON(http.StatusOK, gin.H{"history": items})
}

func archiveRequest(c *gin.Context) (uint64, *models.User, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid ID")
		return 0, nil, false
	}
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return 0, nil, false
	}
	return id, actor, true
}

func respondArchiveError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrFolderNotFound),
		errors.Is(err, services.ErrDocumentNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrAlreadyArchived):
		apierrors.RespondWithError(c, http.StatusConflict,
			apierrors.NewAPIError(apierrors.ErrCodeAlreadyArchived, err.Error()))
	case errors.Is(err, services.ErrNotArchived):
		apierrors.RespondWithError(c, http.StatusBadRequest,
			apierrors.NewAPIError(apierrors.ErrCodeNotArchived, err.Error()))
	case errors.Is(err, services.ErrArchivedTarget):
		apierrors.RespondWithError(c, http.StatusConflict,
			apierrors.NewAPIError(apierrors.ErrCodeArchivedTarget, err.Error()))
	case errors.Is(err, services.ErrInvalidArchiveMode),
		errors.Is(err, services.ErrRetentionRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrAdminOnly):
		apierrors.Forbidden(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
