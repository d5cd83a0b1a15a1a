package repository

import (
	"strings"
	"time"

	"github.com/ayoubbns/document-control-api/internal/models"
	"gorm.io/gorm"
)

// GormFolderRepository is a GORM implementation of FolderRepository
type GormFolderRepository struct {
	db *gorm.DB
}

// NewFolderRepository creates a new FolderRepository
func NewFolderRepository(db *gorm.DB) FolderRepository {
	return &GormFolderRepository{db: db}
}

func (r *GormFolderRepository) WithTx(tx *gorm.DB) FolderRepository {
	return &GormFolderRepository{db: tx}
}

func (r *GormFolderRepository) Create(folder *models.Folder) error {
	return r.db.Create(folder).Error
}

func (r *GormFolderRepository) FindByID(id uint64, preload ...string) (*models.Folder, error) {
	var folder models.Folder
	query := r.db
	for _, p := range preload {
		query = query.Preload(p)
	}
	if err := query.First(&folder, id).Error; err != nil {
		return nil, err
	}
	return &folder, nil
}

func (r *GormFolderRepository) ListChildren(parentID *uint64) ([]models.Folder, error) {
	var folders []models.Folder
	query := r.db.Order("name ASC")
	if parentID == nil {
		query = query.Where("parent_folder_id IS NULL")
	} else {
		query = query.Where("parent_folder_id = ?", *parentID)
	}
	if err := query.Find(&folders).Error; err != nil {
		return nil, err
	}
	return folders, nil
}

// DescendantIDs walks the tree iteratively, one query per level, collecting
// the target folder and every folder below it.
func (r *GormFolderRepository) DescendantIDs(rootID uint64) ([]uint64, error) {
	ids := []uint64{rootID}
	frontier := []uint64{rootID}

	for len(frontier) > 0 {
		var children []uint64
		err := r.db.Model(&models.Folder{}).
			Where("parent_folder_id IN ?", frontier).
			Pluck("id", &children).Error
		if err != nil {
			return nil, err
		}
		ids = append(ids, children...)
		frontier = children
	}
	return ids, nil
}

func (r *GormFolderRepository) BulkSetArchiveState(ids []uint64, fields map[string]interface{}) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Folder{}).Where("id IN ?", ids).Updates(fields).Error
}

func (r *GormFolderRepository) ListExpiredRetention(now time.Time) ([]models.Folder, error) {
	var folders []models.Folder
	err := r.db.
		Where("is_archived = ? AND archived_until IS NOT NULL AND archived_until <= ?", true, now).
		Find(&folders).Error
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// ListArchivedRoots returns archived folders whose parent is not archived,
// the roots of archived subtrees.
func (r *GormFolderRepository) ListArchivedRoots() ([]models.Folder, error) {
	var folders []models.Folder
	err := r.db.
		Joins("LEFT JOIN folders AS parents ON parents.id = folders.parent_folder_id").
		Where("folders.is_archived = ?", true).
		Where("folders.parent_folder_id IS NULL OR parents.is_archived = ?", false).
		Find(&folders).Error
	if err != nil {
		return nil, err
	}
	return folders, nil
}

func (r *GormFolderRepository) ListArchivedChildren(folderID uint64) ([]models.Folder, error) {
	var folders []models.Folder
	err := r.db.
		Where("parent_folder_id = ? AND is_archived = ?", folderID, true).
		Find(&folders).Error
	if err != nil {
		return nil, err
	}
	return folders, nil
}

// Path derives the display path by walking parent references upward. Paths
// are never denormalized into a column, so renames cannot leave stale paths.
func (r *GormFolderRepository) Path(id uint64) (string, error) {
	segments := []string{}
	current := &id
	for current != nil {
		var folder models.Folder
		if err := r.db.Select("id", "name", "parent_folder_id").First(&folder, *current).Error; err != nil {
			return "", err
		}
		segments = append([]string{folder.Name}, segments...)
		current = folder.ParentFolderID
	}
	return strings.Join(segments, "/"), nil
}
