package handlers

import (
	"net/http"
	"path/filepath"
	"strings"

	"chatx/models"
	"chatx/store"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/gin-gonic/gin"
)

const maxUploadSize = 10 << 20 // 10MB

var allowedUploadExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".pdf": true, ".doc": true, ".docx": true, ".txt": true,
}

// UploadAttachment stores a file in Cloudinary and returns the attachment
// record that send-message expects. The blob is durable before the
// message referencing it ever exists.
func (h *Handlers) UploadAttachment(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file uploaded"})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds the 10MB limit"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedUploadExtensions[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file type. Only images, PDFs, and documents are allowed"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read file"})
		return
	}
	defer file.Close()

	cld, err := cloudinary.NewFromURL(h.Cfg.CloudinaryURL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload service unavailable"})
		return
	}

	result, err := cld.Upload.Upload(c.Request.Context(), file, uploader.UploadParams{
		Folder:       "chatx/attachments",
		ResourceType: "auto",
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload file"})
		return
	}

	attachment := models.Attachment{
		URL:      result.SecureURL,
		Filename: fileHeader.Filename,
		FileType: store.ClassifyFileType(fileHeader.Filename),
		FileSize: fileHeader.Size,
	}

	c.JSON(http.StatusCreated, gin.H{"attachment": attachment})
}
