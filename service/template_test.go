package service

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func uploadHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	part.Write(content)
	writer.Close()

	req, err := http.NewRequest("POST", "/", &buf)
	if err != nil {
		t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	if err := req.ParseMultipartForm(32 << 20); err != nil {
		t.Fatalf("ParseMultipartForm failed: %v", err)
	}
	return req.MultipartForm.File["file"][0]
}

func TestTemplateSaveAndResolve(t *testing.T) {
	svc, err := NewTemplateService(t.TempDir())
	if err != nil {
		t.Fatalf("NewTemplateService failed: %v", err)
	}

	info, err := svc.Save(uploadHeader(t, "offerte.docx", []byte("fake docx bytes")))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if info.ID == "" {
		t.Error("expected non-empty template id")
	}
	if info.Name != "offerte.docx" {
		t.Errorf("name = %q, want offerte.docx", info.Name)
	}

	path, err := svc.Path(info.ID)
	if err != nil {
		t.Fatalf("Path failed: %v", err)
	}
	if path != info.Path {
		t.Errorf("Path = %q, want %q", path, info.Path)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("saved template not on disk: %v", err)
	}
}

func TestTemplateSaveRejectsNonDocx(t *testing.T) {
	svc, err := NewTemplateService(t.TempDir())
	if err != nil {
		t.Fatalf("NewTemplateService failed: %v", err)
	}

	if _, err := svc.Save(uploadHeader(t, "virus.exe", []byte("nope"))); err == nil {
		t.Error("expected error for non-docx upload")
	}
}

func TestTemplatePathDefault(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewTemplateService(dir)
	if err != nil {
		t.Fatalf("NewTemplateService failed: %v", err)
	}

	// Missing default resolves to an empty path, meaning scratch build
	path, err := svc.Path("default")
	if err != nil {
		t.Fatalf("Path(default) failed: %v", err)
	}
	if path != "" {
		t.Errorf("expected empty path for missing default, got %q", path)
	}

	// Installed default resolves to its file
	defaultPath := filepath.Join(dir, "default.docx")
	if err := os.WriteFile(defaultPath, []byte("template"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	path, err = svc.Path("default")
	if err != nil {
		t.Fatalf("Path(default) failed: %v", err)
	}
	if path != defaultPath {
		t.Errorf("Path(default) = %q, want %q", path, defaultPath)
	}
}

func TestTemplatePathUnknown(t *testing.T) {
	svc, err := NewTemplateService(t.TempDir())
	if err != nil {
		t.Fatalf("NewTemplateService failed: %v", err)
	}

	if _, err := svc.Path("no-such-id"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound, got %v", err)
	}
}

func TestTemplateList(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewTemplateService(dir)
	if err != nil {
		t.Fatalf("NewTemplateService failed: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "default.docx"), []byte("x"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	saved, err := svc.Save(uploadHeader(t, "custom.docx", []byte("y")))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	templates, err := svc.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(templates) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(templates))
	}
	if templates[0].ID != "default" {
		t.Errorf("expected default first, got %q", templates[0].ID)
	}
	if templates[1].ID != saved.ID || templates[1].Name != "custom.docx" {
		t.Errorf("unexpected upload entry: %+v", templates[1])
	}
}

func TestTemplateDelete(t *testing.T) {
	svc, err := NewTemplateService(t.TempDir())
	if err != nil {
		t.Fatalf("NewTemplateService failed: %v", err)
	}

	saved, err := svc.Save(uploadHeader(t, "custom.docx", []byte("y")))
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	if err := svc.Delete(saved.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(saved.Path); !os.IsNotExist(err) {
		t.Error("template file still on disk after delete")
	}
	if err := svc.Delete(saved.ID); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound on second delete, got %v", err)
	}
}

func TestTemplateDeleteDefaultRefused(t *testing.T) {
	svc, err := NewTemplateService(t.TempDir())
	if err != nil {
		t.Fatalf("NewTemplateService failed: %v", err)
	}

	if err := svc.Delete("default"); err == nil {
		t.Error("expected refusal to delete default template")
	}
}
