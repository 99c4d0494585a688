package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/svanhaverbeke/offerbuilder/model"
)

// ErrTemplateNotFound is returned when a template id does not resolve.
var ErrTemplateNotFound = errors.New("template not found")

const (
	defaultTemplateID   = "default"
	defaultTemplateName = "default.docx"
	uploadsSubdir       = "user_uploads"
	maxTemplateSize     = 5 << 20
)

// TemplateService manages offer templates on the filesystem. The default
// template lives at the root of the templates dir; uploads get a uuid
// prefix under user_uploads.
type TemplateService struct {
	templatesDir string
}

func NewTemplateService(templatesDir string) (*TemplateService, error) {
	if err := os.MkdirAll(filepath.Join(templatesDir, uploadsSubdir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create templates dir: %w", err)
	}
	return &TemplateService{templatesDir: templatesDir}, nil
}

// Save stores an uploaded template and returns its info.
func (s *TemplateService) Save(fileHeader *multipart.FileHeader) (*model.TemplateInfo, error) {
	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".docx") {
		return nil, fmt.Errorf("only .docx templates are supported")
	}
	if fileHeader.Size > maxTemplateSize {
		return nil, fmt.Errorf("template exceeds %d MB limit", maxTemplateSize>>20)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	id := uuid.New().String()
	name := filepath.Base(fileHeader.Filename)
	path := filepath.Join(s.templatesDir, uploadsSubdir, id+"_"+name)

	dst, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create template file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to write template: %w", err)
	}

	return &model.TemplateInfo{ID: id, Name: name, Path: path}, nil
}

// Path resolves a template id to a file path. The default id resolves to
// an empty path when no default template is installed, which callers
// treat as "build from scratch". Unknown ids return ErrTemplateNotFound.
func (s *TemplateService) Path(id string) (string, error) {
	if id == "" || id == defaultTemplateID {
		path := filepath.Join(s.templatesDir, defaultTemplateName)
		if _, err := os.Stat(path); err != nil {
			return "", nil
		}
		return path, nil
	}

	matches, err := filepath.Glob(filepath.Join(s.templatesDir, uploadsSubdir, id+"_*"))
	if err != nil || len(matches) == 0 {
		return "", ErrTemplateNotFound
	}
	return matches[0], nil
}

// List returns the installed templates, the default first when present.
func (s *TemplateService) List() ([]*model.TemplateInfo, error) {
	var templates []*model.TemplateInfo

	defaultPath := filepath.Join(s.templatesDir, defaultTemplateName)
	if _, err := os.Stat(defaultPath); err == nil {
		templates = append(templates, &model.TemplateInfo{
			ID:   defaultTemplateID,
			Name: defaultTemplateName,
			Path: defaultPath,
		})
	}

	entries, err := os.ReadDir(filepath.Join(s.templatesDir, uploadsSubdir))
	if err != nil {
		if os.IsNotExist(err) {
			return templates, nil
		}
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		id, name, ok := strings.Cut(entry.Name(), "_")
		if !ok {
			continue
		}
		templates = append(templates, &model.TemplateInfo{
			ID:   id,
			Name: name,
			Path: filepath.Join(s.templatesDir, uploadsSubdir, entry.Name()),
		})
	}

	return templates, nil
}

// Delete removes an uploaded template. The default template is not
// deletable.
func (s *TemplateService) Delete(id string) error {
	if id == "" || id == defaultTemplateID {
		return fmt.Errorf("default template cannot be deleted")
	}

	matches, err := filepath.Glob(filepath.Join(s.templatesDir, uploadsSubdir, id+"_*"))
	if err != nil || len(matches) == 0 {
		return ErrTemplateNotFound
	}

	return os.Remove(matches[0])
}
