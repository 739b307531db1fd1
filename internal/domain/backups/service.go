package backups

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"sos-expat/backend/internal/store"
)

const (
	objectPrefix   = "backups/"
	maxLineBytes   = 10 << 20
	downloadURLTTL = 15 * time.Minute
	maxListLimit   = 100
)

// URLSigner issues V4 signed URLs.
type URLSigner interface {
	SignedURL(ctx context.Context, bucket, object, method, contentType string, ttl time.Duration) (string, time.Time, error)
}

type Service struct {
	fs      *firestore.Client
	storage *storage.Client
	bucket  string
	signer  URLSigner
	now     func() time.Time
}

func NewService(fs *firestore.Client, sc *storage.Client, bucket string, signer URLSigner) *Service {
	return &Service{fs: fs, storage: sc, bucket: bucket, signer: signer, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) records() *firestore.CollectionRef {
	return s.fs.Collection(store.ColBackups)
}

// Create exports the selected collections to the backup bucket, one NDJSON
// object per collection, and tracks progress in backups/{id}.
func (s *Service) Create(ctx context.Context, adminUID string, in CreateInput) (*Backup, error) {
	if s.bucket == "" {
		return nil, fmt.Errorf("%w: no backup bucket configured", ErrPrecondition)
	}
	cols, err := ResolveCollections(in.Collections, DefaultCollections)
	if err != nil {
		return nil, err
	}

	now := s.now()
	id := NewID(now, uuid.NewString())
	b := Backup{
		ID:          id,
		Status:      StatusRunning,
		Bucket:      s.bucket,
		Prefix:      objectPrefix + id + "/",
		Collections: cols,
		Counts:      map[string]int64{},
		CreatedBy:   adminUID,
		StartedAt:   now,
	}
	if _, err := s.records().Doc(id).Set(ctx, b); err != nil {
		return nil, fmt.Errorf("failed to create backup record: %w", err)
	}
	log.Printf("backup: started id=%s collections=%s by=%s", id, strings.Join(cols, ","), adminUID)

	for _, col := range cols {
		n, size, err := s.exportCollection(ctx, b, col)
		if err != nil {
			b.Status = StatusFailed
			b.Error = fmt.Sprintf("%s: %v", col, err)
			log.Printf("backup: failed id=%s: %s", id, b.Error)
			break
		}
		b.Counts[col] = n
		b.Bytes += size
	}
	if b.Status == StatusRunning {
		b.Status = StatusCompleted
	}
	finished := s.now()
	b.FinishedAt = &finished

	// the export context may be gone; the record must still be closed
	if _, err := s.records().Doc(id).Set(context.WithoutCancel(ctx), b); err != nil {
		return nil, fmt.Errorf("failed to update backup record: %w", err)
	}
	log.Printf("backup: %s id=%s bytes=%d", b.Status, id, b.Bytes)
	return &b, nil
}

func (s *Service) exportCollection(ctx context.Context, b Backup, col string) (int64, int64, error) {
	w := s.storage.Bucket(b.Bucket).Object(b.ObjectName(col)).NewWriter(ctx)
	w.ContentType = "application/x-ndjson"
	w.Metadata = map[string]string{"backupId": b.ID, "collection": col}

	iter := s.fs.Collection(col).Documents(ctx)
	defer iter.Stop()

	var count, size int64
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			w.Close()
			return 0, 0, err
		}
		line, err := EncodeLine(doc.Ref.ID, doc.Data())
		if err != nil {
			w.Close()
			return 0, 0, err
		}
		line = append(line, '\n')
		if _, err := w.Write(line); err != nil {
			w.Close()
			return 0, 0, err
		}
		count++
		size += int64(len(line))
	}
	if err := w.Close(); err != nil {
		return 0, 0, err
	}
	return count, size, nil
}

// List returns backup records, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Backup, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	docs, err := s.records().OrderBy("startedAt", firestore.Desc).Limit(limit).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to list backups: %w", err)
	}
	out := []Backup{}
	for _, doc := range docs {
		var b Backup
		if err := doc.DataTo(&b); err != nil {
			log.Printf("backup: skip undecodable record id=%s: %v", doc.Ref.ID, err)
			continue
		}
		b.ID = doc.Ref.ID
		out = append(out, b)
	}
	return out, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Backup, error) {
	id = strings.TrimSpace(id)
	if id == "" || strings.Contains(id, "/") {
		return nil, fmt.Errorf("%w: invalid backup id", ErrBadRequest)
	}
	doc, err := s.records().Doc(id).Get(ctx)
	if err != nil {
		if store.IsNotFound(err) {
			return nil, fmt.Errorf("%w: backup not found", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get backup: %w", err)
	}
	var b Backup
	if err := doc.DataTo(&b); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	b.ID = doc.Ref.ID
	return &b, nil
}

// Delete removes the backup objects and then its record.
func (s *Service) Delete(ctx context.Context, adminUID, id string) error {
	b, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if b.Status == StatusRunning {
		return fmt.Errorf("%w: backup is still running", ErrPrecondition)
	}

	bucket := s.storage.Bucket(b.Bucket)
	it := bucket.Objects(ctx, &storage.Query{Prefix: b.Prefix})
	deleted := 0
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to list backup objects: %w", err)
		}
		if err := bucket.Object(attrs.Name).Delete(ctx); err != nil && err != storage.ErrObjectNotExist {
			return fmt.Errorf("failed to delete %s: %w", attrs.Name, err)
		}
		deleted++
	}
	if _, err := s.records().Doc(b.ID).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete backup record: %w", err)
	}
	log.Printf("backup: deleted id=%s objects=%d by=%s", b.ID, deleted, adminUID)
	return nil
}

// DownloadURL signs a short-lived GET URL for one collection file.
func (s *Service) DownloadURL(ctx context.Context, id, collection string) (*DownloadURL, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: backup is %s", ErrPrecondition, b.Status)
	}
	if !b.Has(collection) {
		return nil, fmt.Errorf("%w: collection %q is not in this backup", ErrNotFound, collection)
	}
	if s.signer == nil {
		return nil, fmt.Errorf("%w: URL signing is not configured", ErrPrecondition)
	}
	url, exp, err := s.signer.SignedURL(ctx, b.Bucket, b.ObjectName(collection), "GET", "", downloadURLTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign download URL: %w", err)
	}
	return &DownloadURL{URL: url, ExpiresAt: exp}, nil
}

// Restore writes the documents of a completed backup back into Firestore,
// overwriting documents with the same id. Documents created after the
// backup are left untouched.
func (s *Service) Restore(ctx context.Context, adminUID, id string, in RestoreInput) (*RestoreResult, error) {
	b, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Status != StatusCompleted {
		return nil, fmt.Errorf("%w: only completed backups can be restored", ErrPrecondition)
	}
	cols, err := ResolveCollections(in.Collections, b.Collections)
	if err != nil {
		return nil, err
	}

	res := &RestoreResult{BackupID: b.ID, Restored: map[string]int64{}}
	for _, col := range cols {
		n, failed, err := s.restoreCollection(ctx, b, col)
		if err != nil {
			return nil, fmt.Errorf("failed to restore %s: %w", col, err)
		}
		res.Restored[col] = n
		res.Failed += failed
	}
	log.Printf("backup: restored id=%s collections=%s failed=%d by=%s", b.ID, strings.Join(cols, ","), res.Failed, adminUID)
	return res, nil
}

func (s *Service) restoreCollection(ctx context.Context, b *Backup, col string) (int64, int64, error) {
	r, err := s.storage.Bucket(b.Bucket).Object(b.ObjectName(col)).NewReader(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer r.Close()

	bw := s.fs.BulkWriter(ctx)
	target := s.fs.Collection(col)
	var jobs []*firestore.BulkWriterJob

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		line, err := DecodeLine(sc.Bytes(), s.fs.Doc)
		if err != nil {
			bw.End()
			return 0, 0, err
		}
		job, err := bw.Set(target.Doc(line.ID), line.Data)
		if err != nil {
			bw.End()
			return 0, 0, err
		}
		jobs = append(jobs, job)
	}
	if err := sc.Err(); err != nil {
		bw.End()
		return 0, 0, err
	}
	bw.End()

	var ok, failed int64
	for _, j := range jobs {
		if _, err := j.Results(); err != nil {
			failed++
			continue
		}
		ok++
	}
	return ok, failed, nil
}
