package lab

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/nutriflow/nutriflow/internal/platform/auth"
	"github.com/nutriflow/nutriflow/internal/platform/blobstore"
	"github.com/nutriflow/nutriflow/internal/platform/db"
)

// Upload is a lab document received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func reportKey(clientID, reportID uuid.UUID, fileName string) string {
	return fmt.Sprintf("clients/%s/lab-reports/%s/%s", clientID, reportID, fileName)
}

// UploadReport stores the document and records its metadata. The blob is
// removed again when the metadata cannot be saved.
func (s *Service) UploadReport(ctx context.Context, user auth.AuthUser, clientID uuid.UUID, up Upload) (*LabReport, error) {
	if err := s.authorize(ctx, user, clientID); err != nil {
		return nil, err
	}
	if s.blobs == nil {
		return nil, ErrReportsDisabled
	}

	name := blobstore.SafeFileName(up.FileName)
	if err := blobstore.ValidateUpload(name, up.ContentType, up.Size, s.maxUpload); err != nil {
		return nil, invalid("%s", err.Error())
	}
	uploader, err := uuid.Parse(user.ID)
	if err != nil {
		return nil, fmt.Errorf("uploader id: %w", err)
	}

	rep := &LabReport{
		ID:          uuid.New(),
		ClientID:    clientID,
		FileName:    name,
		ContentType: blobstore.NormalizeContentType(up.ContentType),
		UploadedBy:  uploader,
	}
	rep.BlobKey = reportKey(clientID, rep.ID, name)

	hash := sha256.New()
	info, err := s.blobs.Put(ctx, rep.BlobKey, io.TeeReader(up.Body, hash), rep.ContentType)
	if err != nil {
		return nil, fmt.Errorf("store lab report: %w", err)
	}
	rep.Size = info.Size
	rep.SHA256 = hex.EncodeToString(hash.Sum(nil))

	if err := s.reports.Create(ctx, rep); err != nil {
		if delErr := s.blobs.Delete(ctx, rep.BlobKey); delErr != nil {
			return nil, errors.Join(err, fmt.Errorf("remove orphaned blob: %w", delErr))
		}
		return nil, err
	}

	s.metrics.ObserveLabReport()
	return rep, nil
}

func (s *Service) ListReports(ctx context.Context, user auth.AuthUser, clientID uuid.UUID) ([]*LabReport, error) {
	if err := s.authorize(ctx, user, clientID); err != nil {
		return nil, err
	}
	return s.reports.ListByClient(ctx, clientID)
}

// OpenReport returns the metadata and content of a report. The caller closes
// the reader.
func (s *Service) OpenReport(ctx context.Context, user auth.AuthUser, clientID, reportID uuid.UUID) (*LabReport, io.ReadCloser, error) {
	if err := s.authorize(ctx, user, clientID); err != nil {
		return nil, nil, err
	}
	if s.blobs == nil {
		return nil, nil, ErrReportsDisabled
	}

	rep, err := s.reports.Get(ctx, clientID, reportID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, nil, ErrReportNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	_, body, err := s.blobs.Get(ctx, rep.BlobKey)
	if errors.Is(err, blobstore.ErrBlobNotFound) {
		return nil, nil, ErrReportNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("open lab report: %w", err)
	}
	return rep, body, nil
}
