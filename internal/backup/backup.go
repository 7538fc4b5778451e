package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gutterguard/inventory/internal/domain"
	"github.com/gutterguard/inventory/internal/repository"
	"github.com/gutterguard/inventory/internal/storage"
)

// Prefix starts every backup name.
const Prefix = "stocktake_"

const timestampLayout = "20060102_150405"

// Locker serialises a restore with stock mutations.
type Locker interface {
	Lock()
	Unlock()
}

// Info describes one stored backup.
type Info struct {
	Name      string    `json:"name"`
	Files     int       `json:"files"`
	Timestamp string    `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// Manager snapshots every collection of the document store into object
// storage, one object per collection under the backup name.
type Manager struct {
	docs    repository.DocumentStore
	objects storage.ObjectStorage
	lock    Locker
	now     func() time.Time

	// mu keeps two Creates in the same second from interleaving their uploads.
	mu sync.Mutex
}

func NewManager(docs repository.DocumentStore, objects storage.ObjectStorage, lock Locker, now func() time.Time) *Manager {
	if now == nil {
		now = time.Now
	}
	return &Manager{docs: docs, objects: objects, lock: lock, now: now}
}

func objectKey(name string, c repository.Collection) string {
	return path.Join(name, string(c)+".json")
}

// Create copies the collections that exist and returns the new backup.
func (m *Manager) Create(ctx context.Context) (Info, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ts := m.now()
	name := Prefix + ts.Format(timestampLayout)
	info := Info{Name: name, Timestamp: ts.Format(timestampLayout), CreatedAt: ts}

	for _, c := range repository.Collections() {
		var raw json.RawMessage
		ok, err := m.docs.Load(ctx, c, &raw)
		if err != nil {
			return Info{}, fmt.Errorf("backup %s: load %s: %w", name, c, err)
		}
		if !ok {
			continue
		}
		if err := m.objects.UploadObject(ctx, objectKey(name, c), raw); err != nil {
			return Info{}, fmt.Errorf("backup %s: %w", name, err)
		}
		info.Files++
	}

	log.Info().Str("backup", name).Int("files", info.Files).Msg("backup: created")
	return info, nil
}

// List returns stored backups, newest first.
func (m *Manager) List(ctx context.Context) ([]Info, error) {
	objects, err := m.objects.ListObjects(ctx, Prefix)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]*Info)
	for _, obj := range objects {
		name, file, ok := strings.Cut(obj.Key, "/")
		if !ok || !strings.HasSuffix(file, ".json") {
			continue
		}
		info, ok := byName[name]
		if !ok {
			stamp := strings.TrimPrefix(name, Prefix)
			info = &Info{Name: name, Timestamp: stamp}
			if t, err := time.Parse(timestampLayout, stamp); err == nil {
				info.CreatedAt = t
			}
			byName[name] = info
		}
		info.Files++
	}

	out := make([]Info, 0, len(byName))
	for _, info := range byName {
		out = append(out, *info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// Restore writes every collection found in the backup back to the store.
// Collections missing from the backup are left as they are.
func (m *Manager) Restore(ctx context.Context, name string) (int, error) {
	if !strings.HasPrefix(name, Prefix) || strings.Contains(name, "/") {
		return 0, fmt.Errorf("backup %q: %w", name, domain.ErrInvalidInput)
	}

	payloads := make(map[repository.Collection]json.RawMessage)
	for _, c := range repository.Collections() {
		data, err := m.objects.GetObject(ctx, objectKey(name, c))
		if errors.Is(err, storage.ErrObjectNotFound) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("restore %s: %w", name, err)
		}
		if !json.Valid(data) {
			return 0, fmt.Errorf("restore %s: %s is not valid json", name, c)
		}
		payloads[c] = data
	}
	if len(payloads) == 0 {
		return 0, fmt.Errorf("backup %q: %w", name, domain.ErrNotFound)
	}

	if m.lock != nil {
		m.lock.Lock()
		defer m.lock.Unlock()
	}
	for _, c := range repository.Collections() {
		raw, ok := payloads[c]
		if !ok {
			continue
		}
		if err := m.docs.Save(ctx, c, raw); err != nil {
			return 0, fmt.Errorf("restore %s: save %s: %w", name, c, err)
		}
	}

	log.Info().Str("backup", name).Int("files", len(payloads)).Msg("backup: restored")
	return len(payloads), nil
}
