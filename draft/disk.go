package draft

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jsphweid/chordpad/model"
)

// DiskStore keeps one JSON file per draft.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) *DiskStore {
	return &DiskStore{dir: dir}
}

// path rejects ids that are not uuids so a request can never address a file
// outside dir.
func (s *DiskStore) path(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("draft %q: %w", id, ErrNotFound)
	}
	return filepath.Join(s.dir, id+".json"), nil
}

func (s *DiskStore) Save(ctx context.Context, d model.Draft) error {
	path, err := s.path(d.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("create draft dir: %w", err)
	}

	// write then rename so a crash never leaves half a draft behind
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write draft file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename draft file: %w", err)
	}
	return nil
}

func (s *DiskStore) Get(ctx context.Context, id string) (model.Draft, error) {
	var d model.Draft
	path, err := s.path(id)
	if err != nil {
		return d, err
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return d, fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return d, fmt.Errorf("read draft file: %w", err)
	}
	if err := json.Unmarshal(data, &d); err != nil {
		return d, fmt.Errorf("unmarshal draft %s: %w", id, err)
	}
	return d, nil
}

func (s *DiskStore) Delete(ctx context.Context, id string) error {
	path, err := s.path(id)
	if err != nil {
		return err
	}
	err = os.Remove(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("draft %s: %w", id, ErrNotFound)
	}
	return err
}

// List returns summaries newest first.
func (s *DiskStore) List(ctx context.Context) ([]model.DraftSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return []model.DraftSummary{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read draft dir: %w", err)
	}

	res := make([]model.DraftSummary, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := strings.TrimSuffix(name, ".json")
		if _, err := uuid.Parse(id); err != nil {
			continue
		}
		d, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		res = append(res, d.Summary())
	}
	sortSummaries(res)
	return res, nil
}

func sortSummaries(s []model.DraftSummary) {
	sort.Slice(s, func(i, j int) bool {
		if !s[i].UpdatedAt.Equal(s[j].UpdatedAt) {
			return s[i].UpdatedAt.After(s[j].UpdatedAt)
		}
		return s[i].ID < s[j].ID
	})
}
