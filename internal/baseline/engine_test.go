package baseline

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fbd/internal/models"
	"fbd/internal/providers"
	"fbd/internal/structures"
	"fbd/internal/testutil"
)

const (
	testNow      = int64(1_700_000_000)
	backdateSecs = int64(30 * 24 * 3600)
	windowSecs   = int64(7 * 24 * 3600)
)

func identity(n int) string {
	return fmt.Sprintf("%064x", n)
}

func engineConfig() *structures.Config {
	return &structures.Config{
		Baseline: structures.BaselineConfig{
			Namespace:          "baseline",
			NotificationWindow: 7 * 24 * time.Hour,
			BackdateOffset:     30 * 24 * time.Hour,
		},
		Ledger: structures.LedgerConfig{Tag: "follower-baseline"},
	}
}

type engineFixture struct {
	engine  *Engine
	store   *testutil.MockStore
	ledger  *testutil.MockLedger
	enc     *testutil.MockEncryption
	metrics *testutil.MockMetrics
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()
	f := &engineFixture{
		store:   testutil.NewMockStore(),
		ledger:  testutil.NewMockLedger(),
		enc:     &testutil.MockEncryption{},
		metrics: &testutil.MockMetrics{},
	}
	f.engine = NewEngine(engineConfig(), &testutil.MockLogger{}, f.store, f.ledger, f.enc, f.metrics).(*Engine)
	f.engine.now = func() int64 { return testNow }
	return f
}

func (f *engineFixture) putRemote(t *testing.T, identity string, b *models.Baseline) {
	t.Helper()
	data, err := json.Marshal(b)
	require.NoError(t, err)
	payload, err := f.enc.EncryptSelf(identity, data)
	require.NoError(t, err)
	f.ledger.Records[identity] = &providers.LedgerRecord{
		Author:    identity,
		Tag:       "follower-baseline",
		CreatedAt: testNow,
		Payload:   payload,
	}
}

func TestFetchBaseline_RemoteOverwritesLocal(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)

	local := models.NewBaseline([]string{identity(2)}, testNow-1000, backdateSecs)
	f.store.Set(id, local)

	remote := models.NewBaseline([]string{identity(2), identity(3)}, testNow, backdateSecs)
	f.putRemote(t, id, remote)

	got := f.engine.FetchBaseline(context.Background(), id)
	require.NotNil(t, got)
	assert.Equal(t, 2, got.Len())
	assert.Equal(t, 2, f.store.Get(id).Len())
}

func TestFetchBaseline_NoRemoteRecord(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)

	local := models.NewBaseline([]string{identity(2)}, testNow, backdateSecs)
	f.store.Set(id, local)

	got := f.engine.FetchBaseline(context.Background(), id)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Len())
}

func TestFetchBaseline_TransportErrorFallsBack(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)

	local := models.NewBaseline([]string{identity(2)}, testNow, backdateSecs)
	f.store.Set(id, local)
	f.ledger.QueryErr = providers.ErrLedgerUnavailable

	got := f.engine.FetchBaseline(context.Background(), id)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Len())
	assert.Equal(t, 1, f.metrics.LedgerFailures["query"])
}

func TestFetchBaseline_DecryptFailureFallsBack(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)

	local := models.NewBaseline([]string{identity(2)}, testNow, backdateSecs)
	f.store.Set(id, local)
	f.ledger.Records[id] = &providers.LedgerRecord{Author: id, Payload: []byte("garbage")}

	got := f.engine.FetchBaseline(context.Background(), id)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Len())
	assert.Equal(t, 1, f.metrics.PayloadRejects["decrypt"])
}

func TestFetchBaseline_ReservedKeyPayloadRejected(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)

	// Remote payload smuggling a reserved property name must be treated
	// as absent, not merged.
	data := []byte(`{"version":1,"created":100,"lastUpdated":200,"followers":{"__proto__":123}}`)
	payload, err := f.enc.EncryptSelf(id, data)
	require.NoError(t, err)
	f.ledger.Records[id] = &providers.LedgerRecord{Author: id, Payload: payload}

	got := f.engine.FetchBaseline(context.Background(), id)
	assert.Nil(t, got)
	assert.Equal(t, 1, f.metrics.PayloadRejects["validate"])
}

func TestFetchBaseline_NothingAnywhere(t *testing.T) {
	f := newEngineFixture(t)
	assert.Nil(t, f.engine.FetchBaseline(context.Background(), identity(1)))
}

func TestSaveBaseline_Success(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)
	b := models.NewBaseline([]string{identity(2)}, testNow, backdateSecs)

	ok := f.engine.SaveBaseline(context.Background(), id, b)
	require.True(t, ok)

	require.Len(t, f.ledger.Published, 1)
	record := f.ledger.Published[0]
	assert.Equal(t, id, record.Author)
	assert.Equal(t, "follower-baseline", record.Tag)
	assert.Equal(t, testNow, record.CreatedAt)
	assert.NotEmpty(t, record.ID)

	plain, err := f.enc.DecryptSelf(id, record.Payload)
	require.NoError(t, err)
	var published models.Baseline
	require.NoError(t, json.Unmarshal(plain, &published))
	assert.Equal(t, b.Followers, published.Followers)
}

func TestSaveBaseline_PublishFailureKeepsLocal(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)
	f.ledger.PublishErr = providers.ErrLedgerUnavailable

	b := models.NewBaseline([]string{identity(2)}, testNow, backdateSecs)
	ok := f.engine.SaveBaseline(context.Background(), id, b)

	assert.False(t, ok)
	// The local write is not rolled back: local-first durability.
	require.NotNil(t, f.store.Get(id))
	assert.Equal(t, 1, f.metrics.LedgerFailures["publish"])
}

func TestSaveBaseline_EncryptionUnavailable(t *testing.T) {
	f := newEngineFixture(t)
	f.enc.Unavailable = true
	id := identity(1)

	b := models.NewBaseline([]string{identity(2)}, testNow, backdateSecs)
	ok := f.engine.SaveBaseline(context.Background(), id, b)

	assert.False(t, ok)
	assert.NotNil(t, f.store.Get(id))
	assert.Empty(t, f.ledger.Published)
}

func TestProcessFollowers_BadIdentity(t *testing.T) {
	f := newEngineFixture(t)
	_, err := f.engine.ProcessFollowers(context.Background(), "nope", nil)
	assert.ErrorIs(t, err, ErrBadIdentity)
}

func TestProcessFollowers_RoundTrip(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)
	a, b, c := identity(10), identity(11), identity(12)

	// First sync: both followers back-dated, nothing announced.
	cls, err := f.engine.ProcessFollowers(context.Background(), id, []string{a, b})
	require.NoError(t, err)
	assert.True(t, cls.IsFirstTime)
	assert.Empty(t, cls.NewFollowers)
	assert.Empty(t, cls.RecentFollowers)
	require.NotNil(t, cls.Baseline)
	assert.Equal(t, testNow-backdateSecs, cls.Baseline.Followers[a])
	assert.Equal(t, testNow-backdateSecs, cls.Baseline.Followers[b])

	persisted := f.store.Get(id)
	require.NotNil(t, persisted)
	assert.Equal(t, 2, persisted.Len())

	// Second sync discovers c.
	cls, err = f.engine.ProcessFollowers(context.Background(), id, []string{a, b, c})
	require.NoError(t, err)
	assert.False(t, cls.IsFirstTime)
	require.Len(t, cls.NewFollowers, 1)
	assert.Equal(t, c, cls.NewFollowers[0].Identity)
	assert.Equal(t, testNow, cls.NewFollowers[0].FirstSeen)
	assert.Empty(t, cls.RecentFollowers)
	require.Len(t, cls.ExistingFollowers, 2)
	assert.Equal(t, 3, f.store.Get(id).Len())

	// Third sync: no change, c is still inside the notification window.
	cls, err = f.engine.ProcessFollowers(context.Background(), id, []string{a, b, c})
	require.NoError(t, err)
	assert.Empty(t, cls.NewFollowers)
	require.Len(t, cls.RecentFollowers, 1)
	assert.Equal(t, c, cls.RecentFollowers[0].Identity)
	assert.Equal(t, testNow, cls.RecentFollowers[0].FirstSeen)
	require.Len(t, cls.ExistingFollowers, 2)
}

func TestProcessFollowers_MergePersistsToLedger(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)

	_, err := f.engine.ProcessFollowers(context.Background(), id, []string{identity(10)})
	require.NoError(t, err)
	require.Len(t, f.ledger.Published, 1)

	_, err = f.engine.ProcessFollowers(context.Background(), id, []string{identity(10), identity(11)})
	require.NoError(t, err)
	require.Len(t, f.ledger.Published, 2)
	assert.Equal(t, 2, f.metrics.Syncs)
	assert.Equal(t, 1, f.metrics.NewFollowers)
}

func TestProcessFollowers_DeduplicatesObserved(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)
	a := identity(10)

	cls, err := f.engine.ProcessFollowers(context.Background(), id, []string{a, a, a})
	require.NoError(t, err)
	assert.Equal(t, 1, cls.Baseline.Len())
}

func TestProcessFollowers_CorruptedBaselineRepaired(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)

	// 6 followers all stamped within minutes of now: the classic bug
	// signature the heuristic exists for.
	corrupted := &models.Baseline{Version: models.BaselineVersion, Created: testNow - 100, LastUpdated: testNow, Followers: map[string]int64{}}
	observed := make([]string, 0, 6)
	for i := 0; i < 6; i++ {
		corrupted.Followers[identity(20+i)] = testNow - int64(i*60)
		observed = append(observed, identity(20+i))
	}
	f.store.Set(id, corrupted)

	cls, err := f.engine.ProcessFollowers(context.Background(), id, observed)
	require.NoError(t, err)
	assert.True(t, cls.IsFirstTime)
	assert.Empty(t, cls.NewFollowers)
	assert.Empty(t, cls.RecentFollowers)
	assert.Equal(t, 1, f.metrics.Repairs)

	repaired := f.store.Get(id)
	require.NotNil(t, repaired)
	for _, firstSeen := range repaired.Followers {
		assert.Equal(t, testNow-backdateSecs, firstSeen)
	}
}

func TestProcessFollowers_TotalFailureActsAsFirstTime(t *testing.T) {
	f := newEngineFixture(t)
	f.enc.Unavailable = true
	f.ledger.QueryErr = providers.ErrLedgerUnavailable
	id := identity(1)

	cls, err := f.engine.ProcessFollowers(context.Background(), id, []string{identity(10)})
	require.NoError(t, err)
	assert.True(t, cls.IsFirstTime)
	assert.Empty(t, cls.NewFollowers)
	require.NotNil(t, cls.Baseline)
}

func TestReset_RebuildsBackdated(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)

	_, err := f.engine.ProcessFollowers(context.Background(), id, []string{identity(10), identity(11)})
	require.NoError(t, err)

	cls, err := f.engine.Reset(context.Background(), id, []string{identity(12)})
	require.NoError(t, err)
	assert.True(t, cls.IsFirstTime)
	assert.Contains(t, f.store.Cleared, id)

	b := f.store.Get(id)
	require.NotNil(t, b)
	assert.Equal(t, 1, b.Len())
	assert.Equal(t, testNow-backdateSecs, b.Followers[identity(12)])
}

func TestCountAndContains(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)

	assert.Equal(t, 0, f.engine.Count(id))
	assert.False(t, f.engine.Contains(id, identity(10)))

	_, err := f.engine.ProcessFollowers(context.Background(), id, []string{identity(10), identity(11)})
	require.NoError(t, err)

	assert.Equal(t, 2, f.engine.Count(id))
	assert.True(t, f.engine.Contains(id, identity(10)))
	assert.False(t, f.engine.Contains(id, identity(12)))
}

func TestRefreshAll_PullsRemoteForTrackedIdentities(t *testing.T) {
	f := newEngineFixture(t)
	id := identity(1)

	f.store.Set(id, models.NewBaseline([]string{identity(10)}, testNow-1000, backdateSecs))
	remote := models.NewBaseline([]string{identity(10), identity(11)}, testNow, backdateSecs)
	f.putRemote(t, id, remote)

	f.engine.RefreshAll(context.Background())
	assert.Equal(t, 2, f.store.Get(id).Len())
}

func TestFetchBaseline_ErrorsNeverPropagate(t *testing.T) {
	f := newEngineFixture(t)
	f.ledger.QueryErr = errors.New("boom")
	assert.NotPanics(t, func() {
		assert.Nil(t, f.engine.FetchBaseline(context.Background(), identity(1)))
	})
}
