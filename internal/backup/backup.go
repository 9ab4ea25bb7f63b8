// Package backup takes encrypted snapshots of the SQLite database and keeps
// them in S3-compatible object storage.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/johiruljahid/nsultan/internal/metrics"
	"github.com/johiruljahid/nsultan/internal/model"
	"github.com/johiruljahid/nsultan/internal/store"
	_ "modernc.org/sqlite"
)

var (
	ErrRunning  = errors.New("backup already running")
	ErrNotFound = errors.New("backup not found")
)

type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StateError   State = "error"
)

type Status struct {
	State      State      `json:"state"`
	LastBackup *time.Time `json:"last_backup,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// s3Client is an interface for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, input *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type Config struct {
	Endpoint  string
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string

	Prefix     string
	Passphrase string
	// Interval between scheduled runs. Zero disables the schedule.
	Interval time.Duration
	// Keep is how many completed backups survive pruning.
	Keep int
}

type Manager struct {
	db      *sql.DB
	backups *store.BackupStore
	client  s3Client
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time

	runMu  sync.Mutex
	mu     sync.RWMutex
	status Status
	cancel context.CancelFunc
	done   chan struct{}
}

func New(cfg Config, db *sql.DB, bs *store.BackupStore, m *metrics.Metrics, logger *slog.Logger) *Manager {
	opts := s3.Options{
		Region:       cfg.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		UsePathStyle: true,
	}
	if opts.Region == "" {
		opts.Region = "auto"
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return newManager(s3.New(opts), cfg, db, bs, m, logger)
}

func newManager(client s3Client, cfg Config, db *sql.DB, bs *store.BackupStore, m *metrics.Metrics, logger *slog.Logger) *Manager {
	if cfg.Keep < 1 {
		cfg.Keep = 1
	}
	return &Manager{
		db:      db,
		backups: bs,
		client:  client,
		cfg:     cfg,
		metrics: m,
		logger:  logger,
		now:     time.Now,
		status:  Status{State: StateIdle},
	}
}

// Start runs a backup every cfg.Interval until ctx is cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	if m.cfg.Interval <= 0 {
		return
	}
	m.mu.Lock()
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := m.Run(ctx); err != nil {
					m.logger.Error("scheduled backup failed", "error", err)
				}
			}
		}
	}()
}

// Stop cancels the schedule and waits for an in-flight run to finish.
func (m *Manager) Stop() {
	m.mu.RLock()
	cancel, done := m.cancel, m.done
	m.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Manager) setStatus(s Status) {
	m.mu.Lock()
	if s.LastBackup == nil {
		s.LastBackup = m.status.LastBackup
	}
	m.status = s
	m.mu.Unlock()
}

// Run snapshots the database, encrypts it and uploads it, then prunes old
// backups. Only one run happens at a time; a concurrent call gets ErrRunning.
func (m *Manager) Run(ctx context.Context) (*model.Backup, error) {
	if !m.runMu.TryLock() {
		return nil, ErrRunning
	}
	defer m.runMu.Unlock()

	m.setStatus(Status{State: StateRunning})
	record, err := m.run(ctx)
	m.metrics.BackupRun(err)
	if err != nil {
		m.setStatus(Status{State: StateError, Error: err.Error()})
		return record, err
	}

	now := m.now().UTC()
	m.setStatus(Status{State: StateIdle, LastBackup: &now})
	m.logger.Info("backup completed", "id", record.ID, "key", record.Key, "size", record.SizeBytes)

	if err := m.Prune(ctx); err != nil {
		m.logger.Warn("prune backups", "error", err)
	}
	return record, nil
}

func (m *Manager) run(ctx context.Context) (*model.Backup, error) {
	name := fmt.Sprintf("nsultan-%s-%s.db.enc", m.now().UTC().Format("20060102T150405Z"), uuid.NewString()[:8])
	record, err := m.backups.Create(path.Join(m.cfg.Prefix, name))
	if err != nil {
		return nil, err
	}

	fail := func(err error) (*model.Backup, error) {
		if uerr := m.backups.UpdateStatus(record.ID, model.BackupStatusFailed, err.Error()); uerr != nil {
			m.logger.Error("record backup failure", "id", record.ID, "error", uerr)
		}
		record.Status = model.BackupStatusFailed
		record.ErrorMessage = err.Error()
		return record, err
	}

	plaintext, err := m.snapshot(ctx)
	if err != nil {
		return fail(err)
	}
	sealed, err := Seal(plaintext, m.cfg.Passphrase)
	if err != nil {
		return fail(fmt.Errorf("encrypt snapshot: %w", err))
	}

	if err := m.backups.UpdateStatus(record.ID, model.BackupStatusUploading, ""); err != nil {
		return fail(err)
	}
	_, err = m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(m.cfg.Bucket),
		Key:           aws.String(record.Key),
		Body:          bytes.NewReader(sealed),
		ContentLength: aws.Int64(int64(len(sealed))),
		ContentType:   aws.String("application/octet-stream"),
	})
	if err != nil {
		return fail(fmt.Errorf("upload backup: %w", err))
	}

	size := int64(len(sealed))
	if err := m.backups.Complete(record.ID, size); err != nil {
		return record, err
	}
	completed := m.now().UTC()
	record.Status = model.BackupStatusCompleted
	record.SizeBytes = size
	record.CompletedAt = &completed
	return record, nil
}

// snapshot returns a consistent copy of the live database file.
func (m *Manager) snapshot(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "nsultan-backup-*")
	if err != nil {
		return nil, fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	dst := filepath.Join(dir, "snapshot.db")
	if _, err := m.db.ExecContext(ctx, "VACUUM INTO ?", dst); err != nil {
		return nil, fmt.Errorf("snapshot database: %w", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

// Prune removes completed backups beyond the newest cfg.Keep. A record is
// only forgotten once its object is gone from the bucket.
func (m *Manager) Prune(ctx context.Context) error {
	expired, err := m.backups.Expired(m.cfg.Keep)
	if err != nil {
		return err
	}
	for _, b := range expired {
		if _, err := m.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(m.cfg.Bucket),
			Key:    aws.String(b.Key),
		}); err != nil {
			m.logger.Warn("delete backup object", "key", b.Key, "error", err)
			continue
		}
		if err := m.backups.Delete(b.ID); err != nil {
			return err
		}
		m.logger.Info("backup pruned", "id", b.ID, "key", b.Key)
	}
	return nil
}

// Restore downloads backup id, decrypts it and writes a verified database
// file to dst. The live database is never touched; swap files while the
// server is stopped.
func (m *Manager) Restore(ctx context.Context, id int64, dst string) error {
	if _, err := os.Stat(dst); err == nil {
		return fmt.Errorf("restore target %s already exists", dst)
	}

	record, err := m.backups.GetByID(id)
	if err != nil {
		return err
	}
	if record == nil || record.Status != model.BackupStatusCompleted {
		return ErrNotFound
	}

	obj, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.cfg.Bucket),
		Key:    aws.String(record.Key),
	})
	if err != nil {
		return fmt.Errorf("download backup: %w", err)
	}
	defer obj.Body.Close()

	sealed, err := io.ReadAll(obj.Body)
	if err != nil {
		return fmt.Errorf("read backup: %w", err)
	}
	plaintext, err := Open(sealed, m.cfg.Passphrase)
	if err != nil {
		return err
	}

	tmp := dst + ".partial"
	if err := os.WriteFile(tmp, plaintext, 0o600); err != nil {
		return fmt.Errorf("write restored database: %w", err)
	}
	if err := checkIntegrity(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("move restored database: %w", err)
	}
	m.logger.Info("backup restored", "id", id, "path", dst)
	return nil
}

func checkIntegrity(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open restored database: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
