package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	json "github.com/goccy/go-json"

	"fbd/internal/structures"
)

var (
	// ErrNoRecord means the ledger holds no record for the tag/author pair.
	ErrNoRecord = errors.New("no ledger record")
	// ErrLedgerUnavailable covers transport failures on query or publish.
	ErrLedgerUnavailable = errors.New("ledger unavailable")
)

// LedgerRecord is the replaceable remote record: the latest record
// published for a tag/author pair supersedes all earlier ones for query
// purposes. Payload carries the encrypted baseline.
type LedgerRecord struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Tag       string `json:"tag"`
	CreatedAt int64  `json:"created_at"`
	Payload   []byte `json:"payload"`
}

// LedgerProviderInterface queries and publishes the single logical record
// per identity. Publish acknowledgement does not guarantee an immediately
// following query observes the new value (propagation delay is tolerated).
type LedgerProviderInterface interface {
	Query(ctx context.Context, identity string) (*LedgerRecord, error)
	Publish(ctx context.Context, record *LedgerRecord) error
}

type LedgerProvider struct {
	baseURL      string
	tag          string
	queryTimeout time.Duration
	client       *http.Client
	logger       Logger
}

func NewLedgerProvider(conf *structures.Config, logger Logger) LedgerProviderInterface {
	return &LedgerProvider{
		baseURL:      conf.Ledger.URL,
		tag:          conf.Ledger.Tag,
		queryTimeout: conf.Ledger.QueryTimeout,
		logger:       logger,
		client: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        20,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     30 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   2 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
	}
}

func (lp *LedgerProvider) Query(ctx context.Context, identity string) (*LedgerRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, lp.queryTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("tag", lp.tag)
	q.Set("author", identity)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lp.baseURL+"/records?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	resp, err := lp.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, ErrNoRecord
	default:
		return nil, fmt.Errorf("%w: query status %d", ErrLedgerUnavailable, resp.StatusCode)
	}

	var record LedgerRecord
	if err := json.NewDecoder(resp.Body).Decode(&record); err != nil {
		return nil, fmt.Errorf("%w: malformed record: %v", ErrLedgerUnavailable, err)
	}
	return &record, nil
}

func (lp *LedgerProvider) Publish(ctx context.Context, record *LedgerRecord) error {
	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, lp.baseURL+"/records", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := lp.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%w: publish status %d", ErrLedgerUnavailable, resp.StatusCode)
	}
	return nil
}
