package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/talentline/apiserver/internal/logging"
	"github.com/talentline/apiserver/internal/storage"
	"github.com/talentline/apiserver/types"
)

// ResumeStore defines persistence operations for resume metadata.
type ResumeStore interface {
	Create(ctx context.Context, resume types.Resume) (types.Resume, error)
	Get(ctx context.Context, id string) (types.Resume, error)
	ListByUser(ctx context.Context, userID string) ([]types.Resume, error)
	SetPrimary(ctx context.Context, userID, id string) error
	Delete(ctx context.Context, id string) error
}

// ObjectStore holds resume file contents. *storage.Storage satisfies it.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

var resumeContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

// ResumeUpload describes an incoming file.
type ResumeUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ResumeService stores resumes in object storage and tracks them per user.
type ResumeService struct {
	resumes  ResumeStore
	objects  ObjectStore
	maxBytes int64
	newID    func() string
	now      func() time.Time
}

// NewResumeService builds the service. With a nil objects store every
// operation fails with ErrUnavailable.
func NewResumeService(resumes ResumeStore, objects ObjectStore, maxBytes int64) *ResumeService {
	return &ResumeService{
		resumes:  resumes,
		objects:  objects,
		maxBytes: maxBytes,
		newID:    uuid.NewString,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Upload stores a resume for userID. A user's first resume becomes primary.
func (s *ResumeService) Upload(ctx context.Context, userID string, in ResumeUpload) (types.Resume, error) {
	if s.objects == nil {
		return types.Resume{}, ErrUnavailable
	}

	filename := path.Base(filepath.ToSlash(strings.TrimSpace(in.Filename)))
	ext := strings.ToLower(path.Ext(filename))
	defaultType, ok := resumeContentTypes[ext]
	if !ok || filename == "." || filename == "/" {
		return types.Resume{}, fmt.Errorf("%w: resume must be a pdf, doc, docx or txt file", ErrValidation)
	}
	if in.Size <= 0 {
		return types.Resume{}, fmt.Errorf("%w: resume file is empty", ErrValidation)
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return types.Resume{}, fmt.Errorf("%w: resume exceeds %d bytes", ErrValidation, s.maxBytes)
	}
	contentType := strings.TrimSpace(in.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = defaultType
	}

	existing, err := s.resumes.ListByUser(ctx, userID)
	if err != nil {
		return types.Resume{}, storeError(ctx, "resumes.list", err)
	}

	id := s.newID()
	resume := types.Resume{
		ID:          id,
		UserID:      userID,
		Filename:    filename,
		ObjectKey:   fmt.Sprintf("resumes/%s/%s%s", userID, id, ext),
		FileSize:    in.Size,
		ContentType: contentType,
		IsPrimary:   len(existing) == 0,
		UploadedAt:  s.now(),
	}

	if err := s.objects.Put(ctx, resume.ObjectKey, in.Body, in.Size, contentType); err != nil {
		logging.FromContext(ctx).Error("failed to upload resume", "key", resume.ObjectKey, "error", err)
		return types.Resume{}, ErrStore
	}

	created, err := s.resumes.Create(ctx, resume)
	if err != nil {
		s.removeObject(ctx, resume.ObjectKey)
		return types.Resume{}, storeError(ctx, "resumes.create", err)
	}
	return created, nil
}

func (s *ResumeService) List(ctx context.Context, userID string) ([]types.Resume, error) {
	resumes, err := s.resumes.ListByUser(ctx, userID)
	if err != nil {
		return nil, storeError(ctx, "resumes.list", err)
	}
	return resumes, nil
}

// Get returns a resume owned by userID. Other users' resumes are reported
// as not found.
func (s *ResumeService) Get(ctx context.Context, userID, id string) (types.Resume, error) {
	resume, err := s.resumes.Get(ctx, id)
	if err != nil {
		return types.Resume{}, storeError(ctx, "resumes.get", err)
	}
	if resume.UserID != userID {
		return types.Resume{}, ErrNotFound
	}
	return resume, nil
}

// Open returns the resume metadata and a reader for its contents. The
// caller closes the reader.
func (s *ResumeService) Open(ctx context.Context, userID, id string) (types.Resume, io.ReadCloser, error) {
	if s.objects == nil {
		return types.Resume{}, nil, ErrUnavailable
	}
	resume, err := s.Get(ctx, userID, id)
	if err != nil {
		return types.Resume{}, nil, err
	}
	body, err := s.objects.Get(ctx, resume.ObjectKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return types.Resume{}, nil, ErrNotFound
		}
		logging.FromContext(ctx).Error("failed to open resume", "key", resume.ObjectKey, "error", err)
		return types.Resume{}, nil, ErrStore
	}
	return resume, body, nil
}

func (s *ResumeService) SetPrimary(ctx context.Context, userID, id string) (types.Resume, error) {
	if _, err := s.Get(ctx, userID, id); err != nil {
		return types.Resume{}, err
	}
	if err := s.resumes.SetPrimary(ctx, userID, id); err != nil {
		return types.Resume{}, storeError(ctx, "resumes.set_primary", err)
	}
	return s.Get(ctx, userID, id)
}

// Delete removes a resume. When the primary resume is deleted the most
// recent remaining one is promoted.
func (s *ResumeService) Delete(ctx context.Context, userID, id string) error {
	if s.objects == nil {
		return ErrUnavailable
	}
	resume, err := s.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.resumes.Delete(ctx, id); err != nil {
		return storeError(ctx, "resumes.delete", err)
	}
	s.removeObject(ctx, resume.ObjectKey)

	if !resume.IsPrimary {
		return nil
	}
	remaining, err := s.resumes.ListByUser(ctx, userID)
	if err != nil {
		logging.FromContext(ctx).Warn("failed to list resumes for promotion", "user_id", userID, "error", err)
		return nil
	}
	if len(remaining) == 0 {
		return nil
	}
	latest := remaining[0]
	for _, r := range remaining[1:] {
		if r.UploadedAt.After(latest.UploadedAt) {
			latest = r
		}
	}
	if err := s.resumes.SetPrimary(ctx, userID, latest.ID); err != nil {
		logging.FromContext(ctx).Warn("failed to promote resume", "resume_id", latest.ID, "error", err)
	}
	return nil
}

func (s *ResumeService) removeObject(ctx context.Context, key string) {
	if err := s.objects.Delete(ctx, key); err != nil {
		logging.FromContext(ctx).Warn("failed to delete resume object", "key", key, "error", err)
	}
}
