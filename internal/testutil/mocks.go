package testutil

import (
	"bytes"
	"context"
	"sync"
	"time"

	"fbd/internal/models"
	"fbd/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

func (m *MockCache) Del(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, key)
}

// MockCompressor passes data through unchanged.
type MockCompressor struct{}

func (m *MockCompressor) Compress(val []byte) ([]byte, error)   { return val, nil }
func (m *MockCompressor) Decompress(val []byte) ([]byte, error) { return val, nil }
func (m *MockCompressor) Close()                                {}

// MockMetrics implements providers.MetricsProviderInterface and counts calls.
type MockMetrics struct {
	mu             sync.Mutex
	Syncs          int
	NewFollowers   int
	Repairs        int
	LedgerFailures map[string]int
	PayloadRejects map[string]int
	CacheHits      int
	CacheMisses    int
	Identities     int
}

func (m *MockMetrics) IncRequestsTotal(string, int)                 {}
func (m *MockMetrics) ObserveRequestDuration(string, time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                { m.mu.Lock(); m.CacheHits++; m.mu.Unlock() }
func (m *MockMetrics) IncCacheMisses()                              { m.mu.Lock(); m.CacheMisses++; m.mu.Unlock() }
func (m *MockMetrics) IncSyncsTotal()                               { m.mu.Lock(); m.Syncs++; m.mu.Unlock() }
func (m *MockMetrics) ObserveSyncDuration(time.Duration)            {}
func (m *MockMetrics) AddNewFollowers(count int) {
	m.mu.Lock()
	m.NewFollowers += count
	m.mu.Unlock()
}
func (m *MockMetrics) IncRepairsTotal() { m.mu.Lock(); m.Repairs++; m.mu.Unlock() }
func (m *MockMetrics) IncLedgerFailures(op string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.LedgerFailures == nil {
		m.LedgerFailures = make(map[string]int)
	}
	m.LedgerFailures[op]++
}
func (m *MockMetrics) IncPayloadRejects(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PayloadRejects == nil {
		m.PayloadRejects = make(map[string]int)
	}
	m.PayloadRejects[reason]++
}
func (m *MockMetrics) SetIdentitiesTotal(count int) { m.mu.Lock(); m.Identities = count; m.mu.Unlock() }

// MockLedger implements providers.LedgerProviderInterface backed by a map.
type MockLedger struct {
	mu         sync.Mutex
	Records    map[string]*providers.LedgerRecord
	Published  []*providers.LedgerRecord
	QueryErr   error
	PublishErr error
}

func NewMockLedger() *MockLedger {
	return &MockLedger{Records: make(map[string]*providers.LedgerRecord)}
}

func (m *MockLedger) Query(_ context.Context, identity string) (*providers.LedgerRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.QueryErr != nil {
		return nil, m.QueryErr
	}
	record, ok := m.Records[identity]
	if !ok {
		return nil, providers.ErrNoRecord
	}
	return record, nil
}

func (m *MockLedger) Publish(_ context.Context, record *providers.LedgerRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PublishErr != nil {
		return m.PublishErr
	}
	m.Records[record.Author] = record
	m.Published = append(m.Published, record)
	return nil
}

// MockEncryption implements providers.EncryptionProviderInterface with a
// visible identity-bound prefix instead of real crypto.
type MockEncryption struct {
	Unavailable bool
	FailDecrypt bool
}

func (m *MockEncryption) prefix(identity string) []byte {
	return []byte("enc:" + identity + ":")
}

func (m *MockEncryption) EncryptSelf(identity string, plaintext []byte) ([]byte, error) {
	if m.Unavailable {
		return nil, providers.ErrEncryptionUnavailable
	}
	return append(m.prefix(identity), plaintext...), nil
}

func (m *MockEncryption) DecryptSelf(identity string, ciphertext []byte) ([]byte, error) {
	if m.Unavailable {
		return nil, providers.ErrEncryptionUnavailable
	}
	if m.FailDecrypt || !bytes.HasPrefix(ciphertext, m.prefix(identity)) {
		return nil, providers.ErrDecryptionFailed
	}
	return ciphertext[len(m.prefix(identity)):], nil
}

// MockStore implements baseline.StoreInterface backed by a map.
type MockStore struct {
	mu           sync.Mutex
	Data         map[string]*models.Baseline
	RawData      map[string][]byte
	Cleared      []string
	RestoreErr   error
	FlushErr     error
	RestoreCalls int
	FlushCalls   int
}

func NewMockStore() *MockStore {
	return &MockStore{
		Data:    make(map[string]*models.Baseline),
		RawData: make(map[string][]byte),
	}
}

func (m *MockStore) Get(identity string) *models.Baseline {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Data[identity].Clone()
}

func (m *MockStore) Set(identity string, b *models.Baseline) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[identity] = b.Clone()
}

func (m *MockStore) Clear(identity string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Data, identity)
	m.Cleared = append(m.Cleared, identity)
}

func (m *MockStore) Raw(identity string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RawData[identity]
}

func (m *MockStore) Identities() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.Data))
	for id := range m.Data {
		out = append(out, id)
	}
	return out
}

func (m *MockStore) Restore() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RestoreCalls++
	return m.RestoreErr
}

func (m *MockStore) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FlushCalls++
	return m.FlushErr
}

func (m *MockStore) FlushCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.FlushCalls
}

// MockEngine implements baseline.EngineInterface with canned results.
type MockEngine struct {
	mu             sync.Mutex
	FetchResult    *models.Baseline
	SaveResult     bool
	ProcessResult  *models.Classification
	ProcessErr     error
	ResetResult    *models.Classification
	ResetErr       error
	CountResult    int
	ContainsResult bool
	RefreshCalls   int
}

func (m *MockEngine) FetchBaseline(_ context.Context, _ string) *models.Baseline {
	return m.FetchResult
}

func (m *MockEngine) SaveBaseline(_ context.Context, _ string, _ *models.Baseline) bool {
	return m.SaveResult
}

func (m *MockEngine) ProcessFollowers(_ context.Context, _ string, _ []string) (*models.Classification, error) {
	return m.ProcessResult, m.ProcessErr
}

func (m *MockEngine) Reset(_ context.Context, _ string, _ []string) (*models.Classification, error) {
	return m.ResetResult, m.ResetErr
}

func (m *MockEngine) Count(_ string) int               { return m.CountResult }
func (m *MockEngine) Contains(_ string, _ string) bool { return m.ContainsResult }

func (m *MockEngine) RefreshAll(_ context.Context) {
	m.mu.Lock()
	m.RefreshCalls++
	m.mu.Unlock()
}

func (m *MockEngine) RefreshCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.RefreshCalls
}
