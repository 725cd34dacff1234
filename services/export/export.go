// Package export writes point-in-time backups of the club's records to
// object storage.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"basavo/apperr"
	"basavo/authz"
	"basavo/clients/gcp"
	"basavo/services/ledger"
	"basavo/services/member"
)

// Backup is the serialized snapshot written to storage.
type Backup struct {
	TakenAt time.Time       `json:"takenAt"`
	TakenBy string          `json:"takenBy"`
	Members []member.Member `json:"members"`
	Kas     []ledger.Entry  `json:"kas"`
}

// Uploader writes one object to the backup bucket.
type Uploader func(ctx context.Context, r io.Reader, bucket, object string) error

// Downloader reads one object back from the backup bucket.
type Downloader func(ctx context.Context, w io.Writer, bucket, object string) error

// Service produces and retrieves admin-triggered backups.
type Service interface {
	// Run snapshots the roster and the ledger into one JSON object and
	// returns the object name it wrote.
	Run(ctx context.Context, actor authz.Actor) (string, error)
	// Fetch streams a previously written backup object to w.
	Fetch(ctx context.Context, actor authz.Actor, object string, w io.Writer) error
}

type service struct {
	members  member.Store
	entries  ledger.Store
	bucket   string
	upload   Uploader
	download Downloader
	now      func() time.Time
}

var _ Service = (*service)(nil)

func NewService(members member.Store, entries ledger.Store, bucket string) Service {
	return &service{
		members:  members,
		entries:  entries,
		bucket:   bucket,
		upload:   gcp.UploadObject,
		download: gcp.DownloadObject,
		now:      time.Now,
	}
}

func (s *service) Run(ctx context.Context, actor authz.Actor) (string, error) {
	if !authz.Can(actor.Role, authz.ActionManageUsers) {
		return "", apperr.Authorization(string(authz.ActionManageUsers))
	}

	members, err := s.members.List(ctx)
	if err != nil {
		return "", err
	}
	entries, err := s.entries.List(ctx)
	if err != nil {
		return "", err
	}

	backup := Backup{
		TakenAt: s.now(),
		TakenBy: actor.Email,
		Members: members,
		Kas:     entries,
	}
	data, err := json.MarshalIndent(backup, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal backup: %w", err)
	}

	object := fmt.Sprintf("backup-%s.json", backup.TakenAt.UTC().Format("20060102-150405"))
	if err := s.upload(ctx, bytes.NewReader(data), s.bucket, object); err != nil {
		return "", apperr.Remote("upload backup", err)
	}

	slog.With("object", object).Info("backup written")
	return object, nil
}

func (s *service) Fetch(ctx context.Context, actor authz.Actor, object string, w io.Writer) error {
	if !authz.Can(actor.Role, authz.ActionManageUsers) {
		return apperr.Authorization(string(authz.ActionManageUsers))
	}
	// Only names Run produces; anything else never reaches storage.
	if !strings.HasPrefix(object, "backup-") || !strings.HasSuffix(object, ".json") {
		return apperr.Validation("object", "not a backup object name")
	}
	if err := s.download(ctx, w, s.bucket, object); err != nil {
		return apperr.Remote("download backup", err)
	}
	return nil
}
