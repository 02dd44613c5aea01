package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// File stores one JSON document per owner under dir/profiles.
type File struct {
	dir string
	mu  sync.Mutex
}

// NewFile prepares the profiles directory under dir.
func NewFile(dir string) (*File, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("storage directory is required")
	}
	profileDir := filepath.Join(filepath.Clean(dir), "profiles")
	if err := os.MkdirAll(profileDir, 0o755); err != nil {
		return nil, fmt.Errorf("create profiles directory: %w", err)
	}
	return &File{dir: profileDir}, nil
}

func (f *File) Scope(owner string) (KV, error) {
	path, err := f.securePath(owner)
	if err != nil {
		return nil, err
	}
	return &fileKV{f: f, path: path}, nil
}

func (f *File) Close() error {
	return nil
}

// securePath maps owner to its document, refusing anything that could escape the directory.
func (f *File) securePath(owner string) (string, error) {
	if err := checkOwner(owner); err != nil {
		return "", err
	}
	path := filepath.Join(f.dir, owner+".json")
	absDir, err := filepath.Abs(f.dir)
	if err != nil {
		return "", fmt.Errorf("resolve profiles directory: %w", err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve profile path: %w", err)
	}
	if filepath.Dir(absPath) != filepath.Clean(absDir) {
		return "", fmt.Errorf("%w: %q", ErrInvalidOwner, owner)
	}
	return path, nil
}

// load reads a document. Corrupted documents are removed and read as empty.
func (f *File) load(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	values := map[string]string{}
	if err := json.Unmarshal(data, &values); err != nil {
		log.Printf("[WARN] Profile file %s is corrupted, removing: %v", path, err)
		_ = os.Remove(path)
		return map[string]string{}, nil
	}
	return values, nil
}

// save writes through a temp file so a crash never leaves half a document behind.
func (f *File) save(path string, values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write profile %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace profile %s: %w", path, err)
	}
	return nil
}

// Sweep removes profile documents last modified before cutoff.
func (f *File) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read profiles directory: %w", err)
	}

	removed, failed := 0, 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			log.Printf("[WARN] Failed to get info for profile file %s: %v", entry.Name(), err)
			failed++
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(f.dir, entry.Name())
		if err := os.Remove(path); err != nil {
			log.Printf("[WARN] Failed to remove old profile file %s: %v", path, err)
			failed++
			continue
		}
		removed++
	}
	log.Printf("[INFO] Profile sweep completed: removed %d files, %d errors", removed, failed)
	return removed, nil
}

type fileKV struct {
	f    *File
	path string
}

func (kv *fileKV) Get(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	kv.f.mu.Lock()
	defer kv.f.mu.Unlock()
	values, err := kv.f.load(kv.path)
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (kv *fileKV) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkKey(key); err != nil {
		return err
	}
	kv.f.mu.Lock()
	defer kv.f.mu.Unlock()
	values, err := kv.f.load(kv.path)
	if err != nil {
		return err
	}
	values[key] = value
	return kv.f.save(kv.path, values)
}

func (kv *fileKV) Clear(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	kv.f.mu.Lock()
	defer kv.f.mu.Unlock()
	values, err := kv.f.load(kv.path)
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return kv.f.save(kv.path, values)
}
