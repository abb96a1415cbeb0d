package controllers

import (
	"net/http"

	"report-ledger-api/middleware"
	"report-ledger-api/services"

	"github.com/gin-gonic/gin"
)

type AttachmentsController struct {
	attachments *services.AttachmentService
}

func NewAttachmentsController(attachments *services.AttachmentService) *AttachmentsController {
	return &AttachmentsController{attachments: attachments}
}

// UploadAttachment stores a supporting file for a module and period
func (ac *AttachmentsController) UploadAttachment(c *gin.Context) {
	moduleID, err := pathInt(c, "moduleId")
	if err != nil {
		respondError(c, err)
		return
	}
	userID, _ := middleware.ActingUserID(c)

	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, badRequest("No file uploaded"))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondError(c, badRequest("Unable to read uploaded file"))
		return
	}
	defer file.Close()

	attachment, err := ac.attachments.Upload(c.Request.Context(), services.UploadInput{
		ModuleID: moduleID,
		Period:   c.Param("period"),
		UserID:   userID,
		Filename: header.Filename,
		MimeType: header.Header.Get("Content-Type"),
		Size:     header.Size,
		Content:  file,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "File uploaded successfully",
		"data":    attachment,
	})
}

func (ac *AttachmentsController) ListAttachments(c *gin.Context) {
	moduleID, err := pathInt(c, "moduleId")
	if err != nil {
		respondError(c, err)
		return
	}
	userID, err := optionalUserID(c)
	if err != nil {
		respondError(c, err)
		return
	}

	attachments, err := ac.attachments.List(c.Request.Context(), moduleID, c.Param("period"), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    attachments,
		"total":   len(attachments),
	})
}
