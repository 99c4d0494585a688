package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/svanhaverbeke/offerbuilder/middleware"
	"github.com/svanhaverbeke/offerbuilder/model"
	"github.com/svanhaverbeke/offerbuilder/service"
)

type OfferHandler struct {
	docxService     *service.DocxService
	geminiService   *service.GeminiService
	templateService *service.TemplateService
	archiveService  *service.ArchiveService
	store           *service.OfferStore
}

// NewOfferHandler wires the offer endpoints. archiveSvc may be nil when
// MinIO is not configured.
func NewOfferHandler(docxSvc *service.DocxService, geminiSvc *service.GeminiService, templateSvc *service.TemplateService, archiveSvc *service.ArchiveService) *OfferHandler {
	return &OfferHandler{
		docxService:     docxSvc,
		geminiService:   geminiSvc,
		templateService: templateSvc,
		archiveService:  archiveSvc,
		store:           service.GetOfferStore(),
	}
}

// GenerateContent produces the six narrative sections for an offer. A
// generation failure falls back to the fixed section set so the client
// always receives usable content.
func (h *OfferHandler) GenerateContent(c *gin.Context) {
	var req model.GenerateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	content, err := h.geminiService.GenerateOfferContent(&req.CRMData, &req.TrainingData, &req.IntakeData)
	fallback := false
	if err != nil {
		slog.Warn("offer content generation failed, using fallback",
			"error", err,
			"client", req.CRMData.PotentieleKlant,
		)
		content = service.FallbackOfferContent(&req.CRMData, &req.TrainingData, &req.IntakeData)
		fallback = true
	}

	c.JSON(http.StatusOK, gin.H{
		"content":  content,
		"fallback": fallback,
	})
}

// Create renders an offer document from the submitted data. The optional
// template_id query parameter selects an uploaded template; the default
// template is used otherwise, and a missing default triggers a scratch
// build.
func (h *OfferHandler) Create(c *gin.Context) {
	var req model.CreateOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	templateID := c.DefaultQuery("template_id", "default")
	templatePath, err := h.templateService.Path(templateID)
	if err != nil {
		if errors.Is(err, service.ErrTemplateNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Template not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve template: " + err.Error()})
		return
	}

	offer, err := h.docxService.CreateOffer(templatePath, &req.OfferData, &req.CRMData, &req.TrainingData, &req.IntakeData)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create offer: " + err.Error()})
		return
	}
	offer.CreatedBy = middleware.GetUsername(c)

	if h.archiveService != nil {
		ctx := c.Request.Context()
		if err := h.archiveService.ArchiveOffer(ctx, offer.Filename, offer.Path); err != nil {
			slog.Warn("failed to archive offer", "offer_id", offer.ID, "error", err)
		} else if url, err := h.archiveService.PresignedDownloadURL(ctx, offer.Filename); err == nil {
			offer.ArchiveURL = url
		}
	}

	h.store.Save(offer)

	slog.Info("offer created",
		"offer_id", offer.ID,
		"reference", offer.ReferenceNumber,
		"client", offer.ClientName,
		"template_id", templateID,
		"scratch", templatePath == "",
	)

	c.JSON(http.StatusOK, offer)
}

// List returns the generated offers, newest first
func (h *OfferHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"offers": h.store.List()})
}

// Download streams a generated offer document
func (h *OfferHandler) Download(c *gin.Context) {
	id := c.Param("id")

	offer := h.store.Get(id)
	if offer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Offer not found"})
		return
	}

	c.FileAttachment(offer.Path, offer.Filename)
}
