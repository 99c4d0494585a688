package handler

import (
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/svanhaverbeke/offerbuilder/docx"
	"github.com/svanhaverbeke/offerbuilder/service"
)

const maxExtractUploadSize = 10 << 20

type ExtractHandler struct {
	geminiService *service.GeminiService
}

func NewExtractHandler(geminiSvc *service.GeminiService) *ExtractHandler {
	return &ExtractHandler{geminiService: geminiSvc}
}

// Document extracts structured training data from an uploaded .docx or
// .txt file.
func (h *ExtractHandler) Document(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if header.Size > maxExtractUploadSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File exceeds 10 MB limit"})
		return
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))

	var content string
	switch ext {
	case ".docx":
		doc, err := docx.OpenReader(file, header.Size)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read docx: " + err.Error()})
			return
		}
		content = doc.ExtractText()
	case ".txt":
		data, err := io.ReadAll(file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
			return
		}
		content = string(data)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Only .docx and .txt files are supported"})
		return
	}

	if strings.TrimSpace(content) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document contains no text"})
		return
	}

	training, err := h.geminiService.ExtractTrainingData(content, strings.TrimPrefix(ext, "."))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Extraction failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"training_data": training,
		"source":        header.Filename,
	})
}
