package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ayoubbns/document-control-api/internal/dto"
	apierrors "github.com/ayoubbns/document-control-api/internal/errors"
	"github.com/ayoubbns/document-control-api/internal/middleware"
	"github.com/ayoubbns/document-control-api/internal/models"
	"github.com/ayoubbns/document-control-api/internal/services"
)

// DocumentHandler coordinates document and folder HTTP handlers.
type DocumentHandler struct {
	documentService *services.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{
		documentService: documentService,
	}
}

// Upload stores a new document with its content.
func (h *DocumentHandler) Upload(c *gin.Context) {
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	file, err := c.FormFile("file")
	if err != nil {
		apierrors.BadRequest(c, "A file is required")
		return
	}

	title := c.PostForm("title")
	if title == "" {
		title = file.Filename
	}

	var parentFolderID *uint64
	if raw := c.PostForm("parent_folder_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid parent folder ID")
			return
		}
		parentFolderID = &parsed
	}

	content, err := file.Open()
	if err != nil {
		apierrors.InternalError(c, "Failed to read uploaded file")
		return
	}
	defer content.Close()

	document, err := h.documentService.Upload(c.Request.Context(), services.UploadInput{
		Title:          title,
		Description:    c.PostForm("description"),
		ParentFolderID: parentFolderID,
		FileName:       file.Filename,
		ContentType:    file.Header.Get("Content-Type"),
		Size:           file.Size,
		Content:        content,
	}, actor)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToDocumentDTO(*document))
}

// Get returns document metadata.
func (h *DocumentHandler) Get(c *gin.Context) {
	documentID, actor, ok := documentRequest(c)
	if !ok {
		return
	}

	document, err := h.documentService.Get(documentID, actor)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDocumentDTO(*document))
}

// Download streams the document content.
func (h *DocumentHandler) Download(c *gin.Context) {
	documentID, actor, ok := documentRequest(c)
	if !ok {
		return
	}

	document, reader, err := h.documentService.Download(c.Request.Context(), documentID, actor)
	if err != nil {
		respondDocumentError(c, err)
		return
	}
	defer reader.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", document.Title))
	c.DataFromReader(http.StatusOK, document.Size, "application/octet-stream", reader, nil)
}

// DownloadURL returns a short-lived presigned download link.
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	documentID, actor, ok := documentRequest(c)
	if !ok {
		return
	}

	url, err := h.documentService.DownloadURL(c.Request.Context(), documentID, actor, 300)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// Update changes document metadata.
func (h *DocumentHandler) Update(c *gin.Context) {
	type UpdateRequest struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}

	documentID, actor, ok := documentRequest(c)
	if !ok {
		return
	}

	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	document, err := h.documentService.Update(documentID, services.UpdateInput{
		Title:       req.Title,
		Description: req.Description,
	}, actor)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDocumentDTO(*document))
}

// Move relocates a document to another folder.
func (h *DocumentHandler) Move(c *gin.Context) {
	type MoveRequest struct {
		TargetFolderID *uint64 `json:"target_folder_id"`
	}

	documentID, actor, ok := documentRequest(c)
	if !ok {
		return
	}

	var req MoveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	document, err := h.documentService.Move(documentID, req.TargetFolderID, actor)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDocumentDTO(*document))
}

// CreateFolder adds a folder node.
func (h *DocumentHandler) CreateFolder(c *gin.Context) {
	type CreateFolderRequest struct {
		Name           string  `json:"name" binding:"required,max=255"`
		ParentFolderID *uint64 `json:"parent_folder_id"`
	}

	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return
	}

	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	folder, err := h.documentService.CreateFolder(c.Request.Context(), services.CreateFolderInput{
		Name:           req.Name,
		ParentFolderID: req.ParentFolderID,
	}, actor)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToFolderDTO(*folder))
}

// BrowseFolder lists the active contents of a folder.
func (h *DocumentHandler) BrowseFolder(c *gin.Context) {
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

	listing, err := h.documentService.BrowseFolder(folderID, actor)
	if err != nil {
		respondDocumentError(c, err)
		return
	}

	resp := gin.H{
		"subfolders": toFolderDTOs(listing.Subfolders),
		"documents":  toDocumentDTOs(listing.Documents),
	}
	if listing.Folder != nil {
		folder := dto.ToFolderDTO(*listing.Folder)
		resp["folder"] = folder
		resp["path"] = listing.Path
	}
	c.JSON(http.StatusOK, resp)
}

func toFolderDTOs(folders []models.Folder) []dto.FolderDTO {
	items := make([]dto.FolderDTO, len(folders))
	for i, folder := range folders {
		items[i] = dto.ToFolderDTO(folder)
	}
	return items
}

func toDocumentDTOs(documents []models.Document) []dto.DocumentDTO {
	items := make([]dto.DocumentDTO, len(documents))
	for i, doc := range documents {
		items[i] = dto.ToDocumentDTO(doc)
	}
	return items
}

func documentRequest(c *gin.Context) (uint64, *models.User, bool) {
	documentID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid document ID")
		return 0, nil, false
	}
	actor, ok := middleware.CurrentUser(c)
	if !ok {
		apierrors.Unauthorized(c, "")
		return 0, nil, false
	}
	return documentID, actor, true
}

func respondDocumentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDocumentNotFound),
		errors.Is(err, services.ErrFolderNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrArchivedTarget):
		apierrors.RespondWithError(c, http.StatusConflict,
			apierrors.NewAPIError(apierrors.ErrCodeArchivedTarget, err.Error()))
	case errors.Is(err, services.ErrImmutableOriginal):
		apierrors.RespondWithError(c, http.StatusConflict,
			apierrors.NewAPIError(apierrors.ErrCodeConflict, err.Error()))
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
