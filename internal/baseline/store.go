package baseline

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"fbd/internal/baseline/interfaces"
	"fbd/internal/models"
	"fbd/internal/providers"
	"fbd/internal/structures"
)

// StoreInterface is the identity-scoped local cache. Reads validate as
// strictly as remote reads: a stored value that fails validation is
// reported absent, never surfaced. Malformed identities make every
// operation a no-op. The store is owned exclusively by the engine.
type StoreInterface interface {
	Get(identity string) *models.Baseline
	Set(identity string, b *models.Baseline)
	Clear(identity string)
	Raw(identity string) []byte
	Identities() []string
	Restore() error
	Flush() error
}

const storeFileExt = ".dat"

// Store layers a freecache hot cache over per-identity zstd-compressed
// JSON files. Disk writes are atomic (tmp+fsync+rename); a failed write
// leaves the entry dirty for the scheduler to retry.
type Store struct {
	mu         sync.Mutex
	conf       *structures.Config
	hot        providers.CacheProviderInterface
	compressor interfaces.CompressorInterface
	metrics    providers.MetricsProviderInterface
	logger     providers.Logger
	index      map[string]struct{}
	dirty      map[string]*models.Baseline
}

func NewStore(conf *structures.Config, hot providers.CacheProviderInterface, compressor interfaces.CompressorInterface, metrics providers.MetricsProviderInterface, logger providers.Logger) StoreInterface {
	return &Store{
		conf:       conf,
		hot:        hot,
		compressor: compressor,
		metrics:    metrics,
		logger:     logger,
		index:      make(map[string]struct{}),
		dirty:      make(map[string]*models.Baseline),
	}
}

func (s *Store) key(identity string) string {
	return s.conf.Baseline.Namespace + "-" + identity
}

func (s *Store) path(identity string) string {
	return filepath.Join(s.conf.Baseline.StorageDir, s.key(identity)+storeFileExt)
}

func (s *Store) Get(identity string) *models.Baseline {
	if !models.ValidIdentity(identity) {
		return nil
	}

	key := s.key(identity)
	if data, ok := s.hot.Get(key); ok {
		var b models.Baseline
		if err := json.Unmarshal(data, &b); err == nil && b.Validate() == nil {
			return &b
		}
		s.hot.Del(key)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readFileLocked(identity)
}

// readFileLocked loads, decompresses and validates the durable copy.
// Any failure is absorbed: the value is reported absent.
func (s *Store) readFileLocked(identity string) *models.Baseline {
	data, err := os.ReadFile(s.path(identity))
	if err != nil {
		return nil
	}
	plain, err := s.compressor.Decompress(data)
	if err != nil {
		s.logger.Warnf(providers.TypeApp, "Unreadable store file for %s: %s", identity, err)
		return nil
	}
	var b models.Baseline
	if err := json.Unmarshal(plain, &b); err != nil {
		s.metrics.IncPayloadRejects("local-decode")
		return nil
	}
	if err := b.Validate(); err != nil {
		s.metrics.IncPayloadRejects("local-validate")
		s.logger.Warnf(providers.TypeApp, "Invalid local baseline for %s: %s", identity, err)
		return nil
	}
	s.hot.Set(s.key(identity), plain)
	s.index[identity] = struct{}{}
	return &b
}

func (s *Store) Set(identity string, b *models.Baseline) {
	if !models.ValidIdentity(identity) || b == nil {
		return
	}
	data, err := json.Marshal(b)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.hot.Set(s.key(identity), data)
	s.index[identity] = struct{}{}

	if err := s.writeFileLocked(identity, data); err != nil {
		s.logger.Errorf(providers.TypeApp, "Error persisting baseline for %s: %s", identity, err)
		s.dirty[identity] = b.Clone()
		return
	}
	delete(s.dirty, identity)
}

func (s *Store) writeFileLocked(identity string, data []byte) error {
	compressed, err := s.compressor.Compress(data)
	if err != nil {
		return err
	}

	fileName := s.path(identity)
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(compressed); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}
	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}
	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}
	return os.Rename(tmpFile, fileName)
}

func (s *Store) Clear(identity string) {
	if !models.ValidIdentity(identity) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hot.Del(s.key(identity))
	delete(s.dirty, identity)
	delete(s.index, identity)
	_ = os.Remove(s.path(identity))
}

// Raw returns the stored plaintext JSON without validation. Debug only.
func (s *Store) Raw(identity string) []byte {
	if !models.ValidIdentity(identity) {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path(identity))
	if err != nil {
		return nil
	}
	plain, err := s.compressor.Decompress(data)
	if err != nil {
		return nil
	}
	return plain
}

func (s *Store) Identities() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, 0, len(s.index))
	for id := range s.index {
		out = append(out, id)
	}
	return out
}

// Restore rebuilds the identity index from the storage directory.
func (s *Store) Restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.conf.Baseline.StorageDir, 0o755); err != nil {
		return err
	}
	entries, err := os.ReadDir(s.conf.Baseline.StorageDir)
	if err != nil {
		return err
	}

	prefix := s.conf.Baseline.Namespace + "-"
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, storeFileExt) {
			continue
		}
		identity := strings.TrimSuffix(strings.TrimPrefix(name, prefix), storeFileExt)
		if models.ValidIdentity(identity) {
			s.index[identity] = struct{}{}
		}
	}
	return nil
}

// Flush retries the disk write for entries whose last write failed.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var lastErr error
	for identity, b := range s.dirty {
		data, err := json.Marshal(b)
		if err != nil {
			continue
		}
		if err := s.writeFileLocked(identity, data); err != nil {
			lastErr = err
			continue
		}
		delete(s.dirty, identity)
	}
	return lastErr
}
