package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// DiskStore writes snapshots as <name>.html files with a JSON sidecar.
type DiskStore struct {
	dir string
	mu  sync.Mutex
}

type diskMeta struct {
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	Mutations uint64    `json:"mutations"`
	Size      int       `json:"size"`
	TakenAt   time.Time `json:"taken_at"`
}

// NewDiskStore creates a DiskStore, creating dir if needed.
func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir}, nil
}

// Dir returns the store directory.
func (s *DiskStore) Dir() string { return s.dir }

// Save writes the snapshot atomically and returns its path.
func (s *DiskStore) Save(ctx context.Context, snap *Snapshot) (string, error) {
	if err := ValidateName(snap.Name); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, snap.Name+".html")
	if err := writeAtomic(path, snap.HTML); err != nil {
		return "", err
	}
	meta, err := json.MarshalIndent(diskMeta{
		Name:      snap.Name,
		Nodes:     snap.Nodes,
		Mutations: snap.Mutations,
		Size:      len(snap.HTML),
		TakenAt:   snap.TakenAt,
	}, "", "  ")
	if err != nil {
		return "", err
	}
	if err := writeAtomic(filepath.Join(s.dir, snap.Name+".json"), meta); err != nil {
		return "", err
	}
	return path, nil
}

// Load reads a saved snapshot.
func (s *DiskStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.dir, name+".html"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
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
