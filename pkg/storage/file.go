package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/cooketh/flow/pkg/errors"
)

const indexFile = ".index.json"

// FileStore is a file-based store for CLI use. Each document is a JSON
// file named after its ID; .index.json holds the listing metadata so List
// does not have to decode every graph.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file store rooted at baseDir.
// If baseDir is empty, defaults to ~/.config/flow/maps/
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home dir: %w", err)
		}
		baseDir = filepath.Join(home, ".config", "flow", "maps")
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create map dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func (s *FileStore) docPath(id string) string {
	return filepath.Join(s.baseDir, id+".json")
}

func (s *FileStore) Save(_ context.Context, doc Document) (Document, error) {
	doc, err := prepare(doc)
	if err != nil {
		return Document{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return Document{}, fmt.Errorf("marshal map: %w", err)
	}
	if err := writeAtomic(s.docPath(doc.ID), data); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeStorage, err, "write map %s", doc.ID)
	}

	index, err := s.readIndex()
	if err != nil {
		return Document{}, err
	}
	index[doc.ID] = doc.Meta()
	if err := s.writeIndex(index); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (s *FileStore) Load(_ context.Context, id string) (Document, error) {
	if err := errors.ValidateDocumentID(id); err != nil {
		return Document{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.docPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, notFound(id)
		}
		return Document{}, errors.Wrap(errors.ErrCodeStorage, err, "read map %s", id)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, errors.Wrap(errors.ErrCodeStorage, err, "parse map %s", id)
	}
	return doc, nil
}

func (s *FileStore) List(context.Context) ([]Meta, error) {
	s.mu.RLock()
	index, err := s.readIndex()
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}
	out := make([]Meta, 0, len(index))
	for _, m := range index {
		out = append(out, m)
	}
	sortMetas(out)
	return out, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	if err := errors.ValidateDocumentID(id); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.docPath(id)); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeStorage, err, "remove map %s", id)
	}
	index, err := s.readIndex()
	if err != nil {
		return err
	}
	if _, ok := index[id]; !ok {
		return nil
	}
	delete(index, id)
	return s.writeIndex(index)
}

func (s *FileStore) Close() error { return nil }

// Path returns the base directory for map files.
func (s *FileStore) Path() string {
	return s.baseDir
}

// readIndex must be called with s.mu held. A missing index is empty.
func (s *FileStore) readIndex() (map[string]Meta, error) {
	index := make(map[string]Meta)
	data, err := os.ReadFile(filepath.Join(s.baseDir, indexFile))
	if err != nil {
		if os.IsNotExist(err) {
			return index, nil
		}
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "read index")
	}
	var list []Meta
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "parse index")
	}
	for _, m := range list {
		index[m.ID] = m
	}
	return index, nil
}

// writeIndex must be called with s.mu held.
func (s *FileStore) writeIndex(index map[string]Meta) error {
	list := make([]Meta, 0, len(index))
	for _, m := range index {
		list = append(list, m)
	}
	sortMetas(list)
	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.baseDir, indexFile), data); err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "write index")
	}
	return nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

var _ Store = (*FileStore)(nil)
