package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"report-ledger-api/models"
	"report-ledger-api/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var allowedAttachmentExt = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".csv":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
}

// UploadInput is one file uploaded against a (module, period) pair.
type UploadInput struct {
	ModuleID int
	Period   string
	UserID   int
	Filename string
	MimeType string
	Size     int64
	Content  io.Reader
}

// AttachmentService stores supporting files next to submissions. Uploading
// needs the same write grant as submitting; listing needs read.
type AttachmentService struct {
	db       *gorm.DB
	registry *ModuleRegistry
	perms    Authorizer
	root     string
	maxBytes int64
}

func NewAttachmentService(db *gorm.DB, registry *ModuleRegistry, perms Authorizer, root string, maxBytes int64) *AttachmentService {
	return &AttachmentService{db: db, registry: registry, perms: perms, root: root, maxBytes: maxBytes}
}

func (s *AttachmentService) Upload(ctx context.Context, in UploadInput) (*models.Attachment, error) {
	if !utils.ValidatePeriod(in.Period) {
		return nil, invalidPeriod(in.Period)
	}
	if in.UserID <= 0 {
		return nil, invalidInput("user_id is required")
	}
	if in.Content == nil {
		return nil, invalidInput("file is required")
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, invalidInput("file exceeds %d MB limit", s.maxBytes/(1024*1024))
	}
	ext := strings.ToLower(filepath.Ext(in.Filename))
	if !allowedAttachmentExt[ext] {
		return nil, invalidInput("file type %q is not allowed", ext)
	}

	module, err := s.registry.Get(ctx, in.ModuleID)
	if err != nil {
		return nil, err
	}
	allowed, err := s.perms.CanWrite(ctx, in.UserID, module.ModuleID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, permissionDenied("user %d has no write permission for module %s", in.UserID, module.Key)
	}

	dir := filepath.Join(s.root, "forms", in.Period, module.Key)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, storeFailure("create attachment directory", err)
	}
	storedPath := filepath.Join(dir, uuid.NewString()+ext)

	written, err := writeFile(storedPath, in.Content, s.maxBytes)
	if err != nil {
		_ = os.Remove(storedPath)
		return nil, err
	}

	attachment := models.Attachment{
		ModuleID:     module.ModuleID,
		Period:       in.Period,
		OriginalName: filepath.Base(utils.SanitizeInput(in.Filename)),
		StoredPath:   storedPath,
		FileSize:     written,
		MimeType:     in.MimeType,
		UploadedBy:   in.UserID,
		CreatedAt:    time.Now(),
	}
	if err := s.db.WithContext(ctx).Create(&attachment).Error; err != nil {
		_ = os.Remove(storedPath)
		return nil, storeFailure("save attachment", err)
	}
	return &attachment, nil
}

func writeFile(path string, content io.Reader, limit int64) (int64, error) {
	out, err := os.Create(path)
	if err != nil {
		return 0, storeFailure("create attachment file", err)
	}
	defer out.Close()

	reader := content
	if limit > 0 {
		reader = io.LimitReader(content, limit+1)
	}
	written, err := io.Copy(out, reader)
	if err != nil {
		return 0, storeFailure("write attachment file", err)
	}
	if limit > 0 && written > limit {
		return 0, invalidInput("file exceeds %d MB limit", limit/(1024*1024))
	}
	return written, nil
}

// List returns the attachments of (module, period), oldest first. When
// userID is set the user must be able to read the module.
func (s *AttachmentService) List(ctx context.Context, moduleID int, period string, userID *int) ([]models.Attachment, error) {
	if !utils.ValidatePeriod(period) {
		return nil, invalidPeriod(period)
	}
	if _, err := s.registry.Get(ctx, moduleID); err != nil {
		return nil, err
	}
	if userID != nil {
		allowed, err := s.perms.CanRead(ctx, *userID, moduleID)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, permissionDenied("user %d has no read permission for module %d", *userID, moduleID)
		}
	}

	var attachments []models.Attachment
	if err := s.db.WithContext(ctx).
		Where("module_id = ? AND period = ?", moduleID, period).
		Order("attachment_id ASC").
		Find(&attachments).Error; err != nil {
		return nil, storeFailure(fmt.Sprintf("list attachments for module %d", moduleID), err)
	}
	return attachments, nil
}
