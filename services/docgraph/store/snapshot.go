// Copyright (C) 2025 Tidewater Labs (oss@tidewaterhq.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package store persists resolved reflection graphs as snapshots in
// BadgerDB, gzip-compressed, keyed by project and snapshot id.
package store

import (
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/tidewaterhq/docgraph/services/docgraph/model"
	"github.com/tidewaterhq/docgraph/services/docgraph/serialize"
)

// BadgerDB key prefixes for graph snapshots.
const (
	keyPrefixSnap      = "docs:snap:"
	keyPrefixSnapIndex = "docs:snap:index:"
	keySuffixData      = ":data"
	keySuffixMeta      = ":meta"
	keySuffixLatest    = ":latest"
)

// ErrSnapshotNotFound is returned when no snapshot matches the id.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// SnapshotMetadata describes one stored snapshot.
type SnapshotMetadata struct {
	// SnapshotID uniquely identifies the snapshot.
	SnapshotID string `json:"snapshot_id"`

	// ProjectHash is the key-prefix hash of the project root.
	ProjectHash string `json:"project_hash"`

	// ProjectName is the documented project's display name.
	ProjectName string `json:"project_name"`

	// Label is the caller-supplied description, may be empty.
	Label string `json:"label,omitempty"`

	// GraphHash is the content hash of the serialized graph.
	GraphHash string `json:"graph_hash"`

	// Reflections is the reflection count at save time.
	Reflections int `json:"reflections"`

	// CreatedAt is the save time in Unix milliseconds UTC.
	CreatedAt int64 `json:"created_at_ms"`

	// UncompressedSize is the JSON payload size in bytes.
	UncompressedSize int `json:"uncompressed_size"`

	// CompressedSize is the stored gzip payload size in bytes.
	CompressedSize int `json:"compressed_size"`
}

// SnapshotStore reads and writes graph snapshots.
//
// Thread Safety:
//
//	SnapshotStore is safe for concurrent use; BadgerDB transactions
//	provide isolation.
type SnapshotStore struct {
	db     *badger.DB
	logger *slog.Logger
}

// NewSnapshotStore creates a store over an open BadgerDB handle. The
// store does not own the handle; the caller closes it.
func NewSnapshotStore(db *badger.DB, logger *slog.Logger) (*SnapshotStore, error) {
	if db == nil {
		return nil, errors.New("snapshot store requires a badger db")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SnapshotStore{db: db, logger: logger}, nil
}

// Save serializes and stores a resolved project.
//
// Description:
//
//	Serializes the project to JSON, gzip-compresses it and writes
//	data, metadata, latest pointer and a snapshot-id index entry in
//	one transaction:
//
//	docs:snap:{projectHash}:{snapshotID}:data → gzip(JSON)
//	docs:snap:{projectHash}:{snapshotID}:meta → JSON(SnapshotMetadata)
//	docs:snap:{projectHash}:latest            → snapshotID
//	docs:snap:index:{snapshotID}              → projectHash
func (s *SnapshotStore) Save(ctx context.Context, project *model.Project, diagnostics []model.Diagnostic, label string) (*SnapshotMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	payload, err := serialize.Encode(project, diagnostics)
	if err != nil {
		return nil, fmt.Errorf("serializing project: %w", err)
	}

	var compressed bytes.Buffer
	gw, err := gzip.NewWriterLevel(&compressed, gzip.BestCompression)
	if err != nil {
		return nil, fmt.Errorf("creating gzip writer: %w", err)
	}
	if _, err := gw.Write(payload); err != nil {
		return nil, fmt.Errorf("compressing snapshot: %w", err)
	}
	if err := gw.Close(); err != nil {
		return nil, fmt.Errorf("closing gzip writer: %w", err)
	}

	var doc serialize.SerializedProject
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("re-reading serialized project: %w", err)
	}

	meta := &SnapshotMetadata{
		SnapshotID:       uuid.NewString(),
		ProjectHash:      ProjectHash(project.ProjectRoot),
		ProjectName:      project.Name,
		Label:            label,
		GraphHash:        doc.GraphHash,
		Reflections:      len(doc.Reflections),
		CreatedAt:        time.Now().UnixMilli(),
		UncompressedSize: len(payload),
		CompressedSize:   compressed.Len(),
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}

	dataKey := keyPrefixSnap + meta.ProjectHash + ":" + meta.SnapshotID + keySuffixData
	metaKey := keyPrefixSnap + meta.ProjectHash + ":" + meta.SnapshotID + keySuffixMeta
	latestKey := keyPrefixSnap + meta.ProjectHash + keySuffixLatest
	indexKey := keyPrefixSnapIndex + meta.SnapshotID

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(dataKey), compressed.Bytes()); err != nil {
			return err
		}
		if err := txn.Set([]byte(metaKey), metaJSON); err != nil {
			return err
		}
		if err := txn.Set([]byte(latestKey), []byte(meta.SnapshotID)); err != nil {
			return err
		}
		return txn.Set([]byte(indexKey), []byte(meta.ProjectHash))
	})
	if err != nil {
		return nil, fmt.Errorf("writing snapshot: %w", err)
	}

	s.logger.Info("snapshot saved",
		slog.String("snapshot_id", meta.SnapshotID),
		slog.String("project", project.Name),
		slog.Int("reflections", meta.Reflections),
		slog.Int("compressed_bytes", meta.CompressedSize))

	return meta, nil
}

// Load rebuilds the project stored under a snapshot id.
func (s *SnapshotStore) Load(ctx context.Context, snapshotID string) (*model.Project, *SnapshotMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	projectHash, err := s.projectHashFor(snapshotID)
	if err != nil {
		return nil, nil, err
	}
	return s.loadByKeys(projectHash, snapshotID)
}

// LoadLatest rebuilds the most recently saved snapshot of a project.
func (s *SnapshotStore) LoadLatest(ctx context.Context, projectHash string) (*model.Project, *SnapshotMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var snapshotID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefixSnap + projectHash + keySuffixLatest))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			snapshotID = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading latest pointer: %w", err)
	}
	return s.loadByKeys(projectHash, snapshotID)
}

// List returns snapshot metadata, newest first. An empty projectHash
// lists every project's snapshots.
func (s *SnapshotStore) List(ctx context.Context, projectHash string, limit int) ([]*SnapshotMetadata, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix := keyPrefixSnap
	if projectHash != "" {
		prefix = keyPrefixSnap + projectHash + ":"
	}

	var out []*SnapshotMetadata
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek([]byte(prefix)); it.Valid(); it.Next() {
			item := it.Item()
			if !bytes.HasSuffix(item.Key(), []byte(keySuffixMeta)) {
				continue
			}
			err := item.Value(func(val []byte) error {
				var meta SnapshotMetadata
				if err := json.Unmarshal(val, &meta); err != nil {
					return err
				}
				out = append(out, &meta)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt > out[j].CreatedAt })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Delete removes a snapshot and its index entry. Deleting the latest
// snapshot leaves the latest pointer dangling; LoadLatest then falls
// back to ErrSnapshotNotFound on the missing data key.
func (s *SnapshotStore) Delete(ctx context.Context, snapshotID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	projectHash, err := s.projectHashFor(snapshotID)
	if err != nil {
		return err
	}

	dataKey := keyPrefixSnap + projectHash + ":" + snapshotID + keySuffixData
	metaKey := keyPrefixSnap + projectHash + ":" + snapshotID + keySuffixMeta
	indexKey := keyPrefixSnapIndex + snapshotID

	err = s.db.Update(func(txn *badger.Txn) error {
		for _, key := range []string{dataKey, metaKey, indexKey} {
			if err := txn.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}

	s.logger.Info("snapshot deleted", slog.String("snapshot_id", snapshotID))
	return nil
}

func (s *SnapshotStore) loadByKeys(projectHash, snapshotID string) (*model.Project, *SnapshotMetadata, error) {
	dataKey := keyPrefixSnap + projectHash + ":" + snapshotID + keySuffixData
	metaKey := keyPrefixSnap + projectHash + ":" + snapshotID + keySuffixMeta

	var compressed []byte
	var meta SnapshotMetadata
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(dataKey))
		if err != nil {
			return err
		}
		compressed, err = item.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err = txn.Get([]byte(metaKey))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &meta)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading snapshot: %w", err)
	}

	gr, err := gzip.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return nil, nil, fmt.Errorf("opening gzip reader: %w", err)
	}
	payload, err := io.ReadAll(gr)
	if err != nil {
		return nil, nil, fmt.Errorf("decompressing snapshot: %w", err)
	}
	if err := gr.Close(); err != nil {
		return nil, nil, fmt.Errorf("closing gzip reader: %w", err)
	}

	project, _, err := serialize.Decode(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("rebuilding project: %w", err)
	}
	return project, &meta, nil
}

func (s *SnapshotStore) projectHashFor(snapshotID string) (string, error) {
	var projectHash string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(keyPrefixSnapIndex + snapshotID))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			projectHash = string(val)
			return nil
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", ErrSnapshotNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading snapshot index: %w", err)
	}
	return projectHash, nil
}

// ProjectHash returns SHA256(projectRoot) truncated to 16 hex chars,
// used as the per-project key prefix.
func ProjectHash(projectRoot string) string {
	h := sha256.Sum256([]byte(projectRoot))
	return hex.EncodeToString(h[:])[:16]
}
