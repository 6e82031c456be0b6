// Package snapshot implements the Snapshot Manager (C7): tar+gzip
// archives of a chain's data directory, indexed in a persistent
// bbolt key/value store, per spec §4.7.
package snapshot

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"

	"github.com/chaind/chain-manager/internal/domain"
)

var indexBucket = []byte("snapshots")

// Manager implements C7 against an on-disk archive directory and a
// bbolt-backed index.
type Manager struct {
	archiveDir string
	db         *bbolt.DB
	log        *slog.Logger
}

// Open opens (creating if absent) the bbolt index at dbPath and
// ensures archiveDir exists, then runs the startup repair scan spec
// §3's invariant requires: indexed entries whose archive file is
// missing are dropped.
func Open(dbPath, archiveDir string, log *slog.Logger) (*Manager, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: creating index dir: %w", err)
	}
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot: creating archive dir: %w", err)
	}

	db, err := bbolt.Open(dbPath, 0o600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("snapshot: opening index: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(indexBucket)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("snapshot: initializing bucket: %w", err)
	}

	m := &Manager{archiveDir: archiveDir, db: db, log: log}
	m.repair()
	return m, nil
}

func (m *Manager) Close() error {
	return m.db.Close()
}

// repair drops index entries whose archive file no longer exists on
// disk, per spec §3's "repair scan on startup".
func (m *Manager) repair() {
	var stale [][]byte
	_ = m.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(indexBucket)
		return b.ForEach(func(k, v []byte) error {
			var details domain.SnapshotDetails
			if err := json.Unmarshal(v, &details); err != nil {
				stale = append(stale, append([]byte(nil), k...))
				return nil
			}
			if _, err := os.Stat(details.Path); err != nil {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
	})
	if len(stale) == 0 {
		return
	}
	_ = m.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(indexBucket)
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if m.log != nil {
		for _, k := range stale {
			m.log.Warn("snapshot repair: dropped stale index entry", "snapshot_id", string(k))
		}
	}
}

// newSnapshotID generates a 64-bit random decimal string, per spec
// §9's "a 64-bit random integer rendered as a decimal string is used
// as both chain ID and snapshot ID".
func newSnapshotID() (string, error) {
	n, err := rand.Int(rand.Reader, new(big.Int).SetUint64(1<<63-1))
	if err != nil {
		return "", err
	}
	return n.String(), nil
}

// Take tars+gzips dbPath into a fresh archive, per spec §4.7. If
// description is non-empty, the resulting SnapshotDetails is inserted
// into the index; if empty, the snapshot is transient (archive kept,
// no index row), per spec §3.
func (m *Manager) Take(ctx context.Context, chainType domain.EVMType, dbPath, description string) (domain.SnapshotDetails, error) {
	id, err := newSnapshotID()
	if err != nil {
		return domain.SnapshotDetails{}, fmt.Errorf("snapshot: generating id: %w", err)
	}
	archivePath := filepath.Join(m.archiveDir, id+".tgz")

	if err := archiveDir(ctx, dbPath, archivePath); err != nil {
		return domain.SnapshotDetails{}, fmt.Errorf("snapshot: archiving: %w", err)
	}

	details := domain.SnapshotDetails{
		ID:          id,
		ChainType:   chainType,
		Description: description,
		Path:        archivePath,
		CreatedAt:   time.Now(),
	}

	if description != "" {
		if err := m.insert(details); err != nil {
			return domain.SnapshotDetails{}, fmt.Errorf("snapshot: indexing: %w", err)
		}
	}

	return details, nil
}

// Restore extracts details.Path over dbPath, per spec §4.7, after the
// caller has already cleared dbPath (the Worker owns that ordering
// per spec §4.4's revert sequence).
func (m *Manager) Restore(ctx context.Context, details domain.SnapshotDetails, dbPath string) error {
	if _, err := os.Stat(details.Path); err != nil {
		return fmt.Errorf("snapshot: %w: %s", domain.ErrMissingArchive, details.Path)
	}
	if err := extractArchive(ctx, details.Path, dbPath); err != nil {
		return fmt.Errorf("snapshot: extracting: %w", err)
	}
	return nil
}

func (m *Manager) insert(details domain.SnapshotDetails) error {
	buf, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return m.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(indexBucket).Put([]byte(details.ID), buf)
	})
}

// ByID returns the indexed SnapshotDetails for id, domain.ErrNotFound
// if absent, or domain.ErrMissingArchive if indexed but the archive
// file is gone, per spec §4.7.
func (m *Manager) ByID(id string) (domain.SnapshotDetails, error) {
	var details domain.SnapshotDetails
	var found bool
	_ = m.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(indexBucket).Get([]byte(id))
		if v == nil {
			return nil
		}
		found = true
		return json.Unmarshal(v, &details)
	})
	if !found {
		return domain.SnapshotDetails{}, domain.ErrNotFound
	}
	if _, err := os.Stat(details.Path); err != nil {
		return details, domain.ErrMissingArchive
	}
	return details, nil
}

// ByChain lists indexed snapshots for chainType.
func (m *Manager) ByChain(chainType domain.EVMType) ([]domain.SnapshotDetails, error) {
	all, err := m.List()
	if err != nil {
		return nil, err
	}
	out := make([]domain.SnapshotDetails, 0, len(all))
	for _, d := range all {
		if d.ChainType == chainType {
			out = append(out, d)
		}
	}
	return out, nil
}

// List returns every indexed SnapshotDetails.
func (m *Manager) List() ([]domain.SnapshotDetails, error) {
	var out []domain.SnapshotDetails
	err := m.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(indexBucket).ForEach(func(k, v []byte) error {
			var d domain.SnapshotDetails
			if err := json.Unmarshal(v, &d); err != nil {
				return nil
			}
			out = append(out, d)
			return nil
		})
	})
	return out, err
}

// Remove deletes both the archive file and the index entry for id,
// file first then index, per spec §3's ordering invariant (tolerating
// a stale index entry if the process dies between the two, to be
// cleaned up by the next repair scan).
func (m *Manager) Remove(id string) error {
	details, err := m.ByID(id)
	if err != nil && err != domain.ErrMissingArchive {
		return err
	}
	if details.Path != "" {
		if rmErr := os.Remove(details.Path); rmErr != nil && !os.IsNotExist(rmErr) {
			return fmt.Errorf("snapshot: removing archive: %w", rmErr)
		}
	}
	return m.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(indexBucket).Delete([]byte(id))
	})
}

func archiveDir(ctx context.Context, srcDir, destTgz string) error {
	out, err := os.Create(destTgz)
	if err != nil {
		return err
	}
	defer out.Close()

	gz := gzip.NewWriter(out)
	defer gz.Close()
	tw := tar.NewWriter(gz)
	defer tw.Close()

	return filepath.Walk(srcDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = rel

		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		_, err = io.Copy(tw, f)
		return err
	})
}

func extractArchive(ctx context.Context, srcTgz, destDir string) error {
	if err := os.RemoveAll(destDir); err != nil {
		return err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}

	f, err := os.Open(srcTgz)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return err
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		target := filepath.Join(destDir, hdr.Name)
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode)); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, os.FileMode(hdr.Mode))
			if err != nil {
				return err
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return err
			}
			out.Close()
		}
	}
}
