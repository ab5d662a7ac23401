package baseline

import (
	"context"
	"errors"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"

	"fbd/internal/models"
	"fbd/internal/providers"
	"fbd/internal/structures"
)

// ErrBadIdentity is returned for identities that do not match the
// fixed-length hex format. It is the only error the engine surfaces:
// everything else degrades to "no baseline" per the recovery rules.
var ErrBadIdentity = errors.New("malformed identity")

// EngineInterface owns the baseline lifecycle for any number of
// identities: fetch, validate, repair, compare, merge, persist.
type EngineInterface interface {
	FetchBaseline(ctx context.Context, identity string) *models.Baseline
	SaveBaseline(ctx context.Context, identity string, b *models.Baseline) bool
	ProcessFollowers(ctx context.Context, identity string, observed []string) (*models.Classification, error)
	Reset(ctx context.Context, identity string, observed []string) (*models.Classification, error)
	Count(identity string) int
	Contains(identity, follower string) bool
	RefreshAll(ctx context.Context)
}

type Engine struct {
	conf    *structures.Config
	logger  providers.Logger
	store   StoreInterface
	ledger  providers.LedgerProviderInterface
	enc     providers.EncryptionProviderInterface
	metrics providers.MetricsProviderInterface
	now     func() int64
	locks   sync.Map
}

func NewEngine(conf *structures.Config, logger providers.Logger, store StoreInterface, ledger providers.LedgerProviderInterface, enc providers.EncryptionProviderInterface, metrics providers.MetricsProviderInterface) EngineInterface {
	return &Engine{
		conf:    conf,
		logger:  logger,
		store:   store,
		ledger:  ledger,
		enc:     enc,
		metrics: metrics,
		now:     func() int64 { return time.Now().Unix() },
	}
}

// entryLock serializes top-level operations per identity. Two overlapping
// ProcessFollowers calls for one identity would otherwise race on the
// read-merge-write cycle and drop one call's additions.
func (e *Engine) entryLock(identity string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(identity, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// FetchBaseline prefers the remote record and falls back to the local
// store on any failure. Transport errors never reach the caller.
func (e *Engine) FetchBaseline(ctx context.Context, identity string) *models.Baseline {
	if !models.ValidIdentity(identity) {
		return nil
	}
	local := e.store.Get(identity)

	record, err := e.ledger.Query(ctx, identity)
	if err != nil {
		if !errors.Is(err, providers.ErrNoRecord) {
			e.metrics.IncLedgerFailures("query")
			e.logger.Warnf(providers.TypeApp, "Ledger query failed for %s, using local copy: %s", identity, err)
		}
		return local
	}

	plain, err := e.enc.DecryptSelf(identity, record.Payload)
	if err != nil {
		e.metrics.IncPayloadRejects("decrypt")
		e.logger.Warnf(providers.TypeApp, "Cannot decrypt remote baseline for %s: %s", identity, err)
		return local
	}

	var b models.Baseline
	if err := json.Unmarshal(plain, &b); err != nil {
		e.metrics.IncPayloadRejects("decode")
		return local
	}
	if err := b.Validate(); err != nil {
		e.metrics.IncPayloadRejects("validate")
		e.logger.Warnf(providers.TypeApp, "Rejected remote baseline for %s: %s", identity, err)
		return local
	}

	e.store.Set(identity, &b)
	return &b
}

// SaveBaseline writes locally first, then encrypts and publishes. A
// failed publish is reported as false but the local write stands: the
// local cache keeps the newer value on purpose.
func (e *Engine) SaveBaseline(ctx context.Context, identity string, b *models.Baseline) bool {
	if !models.ValidIdentity(identity) || b == nil {
		return false
	}
	e.store.Set(identity, b)

	data, err := json.Marshal(b)
	if err != nil {
		return false
	}
	payload, err := e.enc.EncryptSelf(identity, data)
	if err != nil {
		e.logger.Warnf(providers.TypeApp, "Cannot encrypt baseline for %s: %s", identity, err)
		return false
	}

	record := &providers.LedgerRecord{
		ID:        uuid.NewString(),
		Author:    identity,
		Tag:       e.conf.Ledger.Tag,
		CreatedAt: e.now(),
		Payload:   payload,
	}
	if err := e.ledger.Publish(ctx, record); err != nil {
		e.metrics.IncLedgerFailures("publish")
		e.logger.Warnf(providers.TypeApp, "Ledger publish failed for %s: %s", identity, err)
		return false
	}
	return true
}

// ProcessFollowers runs the full pipeline for one observed follower set.
func (e *Engine) ProcessFollowers(ctx context.Context, identity string, observed []string) (*models.Classification, error) {
	if !models.ValidIdentity(identity) {
		return nil, ErrBadIdentity
	}

	mu := e.entryLock(identity)
	mu.Lock()
	defer mu.Unlock()

	start := time.Now()
	defer func() {
		e.metrics.IncSyncsTotal()
		e.metrics.ObserveSyncDuration(time.Since(start))
	}()

	now := e.now()
	observed = models.Dedup(observed)

	b := e.FetchBaseline(ctx, identity)
	if b != nil && b.IsCorrupted(now) {
		e.metrics.IncRepairsTotal()
		e.logger.Warnf(providers.TypeApp, "Corrupted baseline for %s (%d followers in a tight recent cluster), rebuilding", identity, b.Len())
		b = nil
	}

	// No usable baseline: build a back-dated one and report a clean
	// slate, so neither a first sync nor a repair spams notifications.
	if b == nil {
		b = models.NewBaseline(observed, now, int64(e.conf.Baseline.BackdateOffset.Seconds()))
		e.SaveBaseline(ctx, identity, b)
		return firstTimeResult(b), nil
	}

	cls := models.Compare(observed, b, int64(e.conf.Baseline.NotificationWindow.Seconds()), now)
	if len(cls.NewFollowers) > 0 {
		ids := make([]string, 0, len(cls.NewFollowers))
		for _, f := range cls.NewFollowers {
			ids = append(ids, f.Identity)
		}
		b.Merge(ids, now)
		e.metrics.AddNewFollowers(len(ids))
		e.SaveBaseline(ctx, identity, b)
		cls.Baseline = b
	}
	return cls, nil
}

// Reset drops the identity's record and recreates it from the observed
// set, as if syncing for the first time. User-triggered only.
func (e *Engine) Reset(ctx context.Context, identity string, observed []string) (*models.Classification, error) {
	if !models.ValidIdentity(identity) {
		return nil, ErrBadIdentity
	}

	mu := e.entryLock(identity)
	mu.Lock()
	defer mu.Unlock()

	e.store.Clear(identity)
	b := models.NewBaseline(models.Dedup(observed), e.now(), int64(e.conf.Baseline.BackdateOffset.Seconds()))
	e.SaveBaseline(ctx, identity, b)
	return firstTimeResult(b), nil
}

func (e *Engine) Count(identity string) int {
	b := e.store.Get(identity)
	if b == nil {
		return 0
	}
	return b.Len()
}

func (e *Engine) Contains(identity, follower string) bool {
	b := e.store.Get(identity)
	return b != nil && b.Contains(follower)
}

// RefreshAll re-fetches the remote record for every tracked identity.
func (e *Engine) RefreshAll(ctx context.Context) {
	for _, identity := range e.store.Identities() {
		e.FetchBaseline(ctx, identity)
	}
}

func firstTimeResult(b *models.Baseline) *models.Classification {
	return &models.Classification{
		NewFollowers:      []models.FollowerEntry{},
		RecentFollowers:   []models.FollowerEntry{},
		ExistingFollowers: []models.FollowerEntry{},
		Baseline:          b,
		IsFirstTime:       true,
	}
}
