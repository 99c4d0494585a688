package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/svanhaverbeke/offerbuilder/config"
	"github.com/svanhaverbeke/offerbuilder/model"
	"github.com/svanhaverbeke/offerbuilder/service"
)

// offerTestEnv wires an offer handler against temp dirs and a fake
// Gemini endpoint.
func offerTestEnv(t *testing.T, gemini http.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	server := httptest.NewServer(gemini)
	t.Cleanup(server.Close)

	docxSvc, err := service.NewDocxService(t.TempDir())
	if err != nil {
		t.Fatalf("NewDocxService failed: %v", err)
	}
	templateSvc, err := service.NewTemplateService(t.TempDir())
	if err != nil {
		t.Fatalf("NewTemplateService failed: %v", err)
	}
	geminiSvc := service.NewGeminiService(&config.Gemini{
		APIKey:   "test-key",
		Model:    "gemini-2.5-flash",
		Endpoint: server.URL,
	})

	h := NewOfferHandler(docxSvc, geminiSvc, templateSvc, nil)

	router := gin.New()
	router.POST("/api/offers/content", h.GenerateContent)
	router.POST("/api/offers", h.Create)
	router.GET("/api/offers", h.List)
	router.GET("/api/offers/:id/download", h.Download)
	return router
}

func geminiOK(text string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := map[string]any{
			"candidates": []map[string]any{
				{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
			},
		}
		json.NewEncoder(w).Encode(reply)
	}
}

func geminiDown(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusServiceUnavailable)
	w.Write([]byte(`{"error":{"code":503,"message":"overloaded"}}`))
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const createBody = `{
	"offer_data": {
		"introduction": "Beste Acme,",
		"training_objectives": "- Doel een",
		"program_overview": "Programma",
		"practical_arrangements": "Regeling",
		"investment": "**€ 1500** per dag",
		"next_steps": "Contact"
	},
	"crm_data": {"potentiele_klant": "Acme", "datum_offerte": "15/03/2026"},
	"training_data": {"title": "Leidinggeven", "duration": "3 dagen"},
	"intake_data": {"number_of_participants": 10}
}`

func TestGenerateContent(t *testing.T) {
	content := `{"introduction":"Beste Acme","training_objectives":"Doelen","program_overview":"P","practical_arrangements":"R","investment":"I","next_steps":"N"}`
	router := offerTestEnv(t, geminiOK(content))

	w := postJSON(router, "/api/offers/content",
		`{"crm_data":{"potentiele_klant":"Acme"},"training_data":{"title":"Leidinggeven"},"intake_data":{}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var resp struct {
		Content  model.OfferContent `json:"content"`
		Fallback bool               `json:"fallback"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Fallback {
		t.Error("Expected fallback false")
	}
	if resp.Content.Introduction != "Beste Acme" {
		t.Errorf("introduction = %q", resp.Content.Introduction)
	}
}

func TestGenerateContentFallback(t *testing.T) {
	router := offerTestEnv(t, geminiDown)

	w := postJSON(router, "/api/offers/content",
		`{"crm_data":{"potentiele_klant":"Acme"},"training_data":{},"intake_data":{}}`)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d", http.StatusOK, w.Code)
	}

	var resp struct {
		Content  model.OfferContent `json:"content"`
		Fallback bool               `json:"fallback"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if !resp.Fallback {
		t.Error("Expected fallback true when generation fails")
	}
	if !strings.Contains(resp.Content.Introduction, "Acme") {
		t.Error("Fallback content missing client name")
	}
}

func TestCreateOfferScratchPath(t *testing.T) {
	// No default template installed, so the offer is built from scratch
	router := offerTestEnv(t, geminiDown)

	w := postJSON(router, "/api/offers", createBody)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status %d, got %d: %s", http.StatusOK, w.Code, w.Body.String())
	}

	var offer model.Offer
	if err := json.Unmarshal(w.Body.Bytes(), &offer); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if offer.ReferenceNumber == "" {
		t.Error("Expected reference number")
	}
	if offer.ClientName != "Acme" {
		t.Errorf("client = %q", offer.ClientName)
	}
	if !strings.HasSuffix(offer.Filename, ".docx") {
		t.Errorf("filename = %q", offer.Filename)
	}
}

func TestCreateOfferUnknownTemplate(t *testing.T) {
	router := offerTestEnv(t, geminiDown)

	w := postJSON(router, "/api/offers?template_id=no-such-template", createBody)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestCreateOfferInvalidBody(t *testing.T) {
	router := offerTestEnv(t, geminiDown)

	w := postJSON(router, "/api/offers", `{broken`)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestListAndDownload(t *testing.T) {
	router := offerTestEnv(t, geminiDown)

	w := postJSON(router, "/api/offers", createBody)
	if w.Code != http.StatusOK {
		t.Fatalf("Create failed: %d %s", w.Code, w.Body.String())
	}
	var offer model.Offer
	if err := json.Unmarshal(w.Body.Bytes(), &offer); err != nil {
		t.Fatalf("Failed to parse create response: %v", err)
	}

	// Listed
	req := httptest.NewRequest("GET", "/api/offers", nil)
	lw := httptest.NewRecorder()
	router.ServeHTTP(lw, req)
	if lw.Code != http.StatusOK {
		t.Fatalf("List failed: %d", lw.Code)
	}
	if !strings.Contains(lw.Body.String(), offer.ID) {
		t.Error("Created offer missing from list")
	}

	// Downloadable; the id may contain spaces from the client name
	req = httptest.NewRequest("GET", "/api/offers/"+url.PathEscape(offer.ID)+"/download", nil)
	dw := httptest.NewRecorder()
	router.ServeHTTP(dw, req)
	if dw.Code != http.StatusOK {
		t.Fatalf("Download failed: %d", dw.Code)
	}
	if dw.Body.Len() == 0 {
		t.Error("Download returned empty body")
	}
	if !strings.Contains(dw.Header().Get("Content-Disposition"), ".docx") {
		t.Errorf("Content-Disposition = %q", dw.Header().Get("Content-Disposition"))
	}
}

func TestDownloadUnknownOffer(t *testing.T) {
	router := offerTestEnv(t, geminiDown)

	req := httptest.NewRequest("GET", "/api/offers/niet-bestaand.docx/download", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}
