package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DiskStore stores snapshots as <name>.html files with a <name>.meta JSON
// sidecar.
type DiskStore struct {
	dir     string
	maxSize int64
}

const (
	htmlExt = ".html"
	metaExt = ".meta"
)

// NewDiskStore creates a DiskStore rooted at dir, creating it if needed.
// maxSize limits snapshot size in bytes (0 = no limit).
func NewDiskStore(dir string, maxSize int64) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	return &DiskStore{dir: dir, maxSize: maxSize}, nil
}

// Dir returns the store directory.
func (s *DiskStore) Dir() string {
	return s.dir
}

// Save writes the snapshot atomically via a temp file and rename.
func (s *DiskStore) Save(ctx context.Context, name string, r io.Reader) (*Info, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := readLimited(r, s.maxSize)
	if err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(s.dir, ".tmp-"+name+"-*")
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(tmp, bytes.NewReader(data)); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}
	if err := os.Rename(tmp.Name(), s.htmlPath(name)); err != nil {
		os.Remove(tmp.Name())
		return nil, err
	}

	info := &Info{Name: name, Size: int64(len(data)), CreatedAt: time.Now().UTC()}
	if err := s.saveMeta(info); err != nil {
		return nil, err
	}
	return info, nil
}

// Load opens the named snapshot.
func (s *DiskStore) Load(ctx context.Context, name string) (io.ReadCloser, *Info, error) {
	if err := ValidateName(name); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(s.htmlPath(name))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, err
	}
	info, err := s.loadMeta(name)
	if err != nil {
		// Metadata is advisory; fall back to the file itself.
		st, statErr := f.Stat()
		if statErr != nil {
			f.Close()
			return nil, nil, statErr
		}
		info = &Info{Name: name, Size: st.Size(), CreatedAt: st.ModTime().UTC()}
	}
	return f, info, nil
}

// List returns the snapshots in the store directory.
func (s *DiskStore) List(ctx context.Context) ([]Info, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var infos []Info
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), htmlExt) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), htmlExt)
		if ValidateName(name) != nil {
			continue
		}
		info, err := s.loadMeta(name)
		if err != nil {
			st, err := entry.Info()
			if err != nil {
				continue
			}
			info = &Info{Name: name, Size: st.Size(), CreatedAt: st.ModTime().UTC()}
		}
		infos = append(infos, *info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Cleanup removes snapshots older than maxAge.
func (s *DiskStore) Cleanup(maxAge time.Duration) error {
	infos, err := s.List(context.Background())
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-maxAge)
	for _, info := range infos {
		if info.CreatedAt.Before(cutoff) {
			os.Remove(s.htmlPath(info.Name))
			os.Remove(s.metaPath(info.Name))
		}
	}
	return nil
}

func (s *DiskStore) htmlPath(name string) string {
	return filepath.Join(s.dir, name+htmlExt)
}

func (s *DiskStore) metaPath(name string) string {
	return filepath.Join(s.dir, name+metaExt)
}

func (s *DiskStore) saveMeta(info *Info) error {
	data, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return os.WriteFile(s.metaPath(info.Name), data, 0644)
}

func (s *DiskStore) loadMeta(name string) (*Info, error) {
	data, err := os.ReadFile(s.metaPath(name))
	if err != nil {
		return nil, err
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}
