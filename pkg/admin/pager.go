// Package admin implements entity enumeration for a Service Bus namespace.
// One generic skip/take pager drives every entity kind (queues, topics,
// subscriptions, rules); the per-kind variation is only a base path and a
// decoder.
package admin

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"net/http"
	"net/url"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/queueworks/sb-admin-client/pkg/atom"
	"github.com/queueworks/sb-admin-client/pkg/client"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Prometheus metrics for entity listing.
var (
	sbListPagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sb_list_pages_total",
		Help: "Total list pages fetched by entity kind",
	}, []string{"entity_kind"})

	sbListItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sb_list_items_total",
		Help: "Total entities yielded by entity kind",
	}, []string{"entity_kind"})

	sbListDroppedEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sb_list_dropped_entries_total",
		Help: "Total undecodable feed entries dropped by entity kind",
	}, []string{"entity_kind"})
)

// Common errors returned while paging.
var (
	// ErrInvalidContinuationToken is returned when a caller-supplied token is
	// not a non-negative integer string. Raised before any network call.
	ErrInvalidContinuationToken = errors.New("invalid continuation token")

	// ErrNoMorePages is returned by NextPage after the scan is exhausted.
	ErrNoMorePages = errors.New("no more pages")
)

// Requester is the transport consumed by listers. Satisfied by
// *client.Client.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values) (*client.Response, error)
}

// Decoder converts one feed entry into a typed entity. Returning false
// signals "skip this malformed record"; the page continues without it.
type Decoder[T any] func(entry atom.Entry) (T, bool)

// EntitiesResponse is one page of a scan. It is transient: consumed by the
// caller immediately and never retained by the lister.
type EntitiesResponse[T any] struct {
	// Items are the page's decoded entities, in feed order.
	Items []T

	// ContinuationToken resumes the scan at the next page.
	// Empty when the scan is exhausted.
	ContinuationToken string

	// StatusCode and Header expose the raw transport response.
	StatusCode int
	Header     http.Header
}

// Lister enumerates one entity kind under a namespace. Listing always
// round-trips to the server; no results are cached client-side.
type Lister[T any] struct {
	transport Requester
	kind      string
	basePath  string
	decode    Decoder[T]
	logger    zerolog.Logger
}

// NewLister creates a lister for one entity kind.
func NewLister[T any](transport Requester, kind, basePath string, decode Decoder[T]) *Lister[T] {
	return &Lister[T]{
		transport: transport,
		kind:      kind,
		basePath:  basePath,
		decode:    decode,
		logger: log.With().
			Str("component", "entity-lister").
			Str("entity_kind", kind).
			Logger(),
	}
}

// parseMarker validates a continuation token and converts it to a skip value.
// The empty token starts a fresh scan at skip 0.
func parseMarker(marker string) (int, error) {
	if marker == "" {
		return 0, nil
	}
	skip, err := strconv.Atoi(marker)
	if err != nil || skip < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidContinuationToken, marker)
	}
	return skip, nil
}

// ListPage issues a single list request at the given marker.
// Undecodable entries are dropped without aborting the page; a malformed
// envelope or next link is fatal for the call. Transport errors propagate
// unchanged.
func (l *Lister[T]) ListPage(ctx context.Context, marker string, pageSize int) (*EntitiesResponse[T], error) {
	skip, err := parseMarker(marker)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("$skip", strconv.Itoa(skip))
	if pageSize > 0 {
		query.Set("$top", strconv.Itoa(pageSize))
	}

	resp, err := l.transport.Get(ctx, l.basePath, query)
	if err != nil {
		return nil, err
	}

	feed, err := atom.ParseFeed(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", l.kind, err)
	}

	token, _, err := feed.NextSkip()
	if err != nil {
		return nil, fmt.Errorf("parse %s page: %w", l.kind, err)
	}

	items := make([]T, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		item, ok := l.decode(entry)
		if !ok {
			sbListDroppedEntriesTotal.WithLabelValues(l.kind).Inc()
			l.logger.Debug().
				Str("entry", entry.Title).
				Msg("Dropping undecodable feed entry")
			continue
		}
		items = append(items, item)
	}

	sbListPagesTotal.WithLabelValues(l.kind).Inc()
	sbListItemsTotal.WithLabelValues(l.kind).Add(float64(len(items)))

	l.logger.Debug().
		Int("skip", skip).
		Int("items", len(items)).
		Str("continuation_token", token).
		Msg("Fetched list page")

	return &EntitiesResponse[T]{
		Items:             items,
		ContinuationToken: token,
		StatusCode:        resp.StatusCode,
		Header:            resp.Header,
	}, nil
}

// ByPage returns a pager that yields whole pages, resuming from the given
// continuation token ("" starts a fresh scan). The token is validated here,
// before any network call.
func (l *Lister[T]) ByPage(marker string, pageSize int) (*Pager[T], error) {
	if _, err := parseMarker(marker); err != nil {
		return nil, err
	}
	return &Pager[T]{
		lister:   l,
		marker:   marker,
		pageSize: pageSize,
		more:     true,
	}, nil
}

// Pager is a pull-based page iterator over one scan.
type Pager[T any] struct {
	lister   *Lister[T]
	marker   string
	pageSize int
	more     bool
}

// More reports whether another page may exist.
func (p *Pager[T]) More() bool {
	return p.more
}

// NextPage fetches the next page and advances the cursor.
// A failed fetch does not advance the cursor, so the call may be repeated.
func (p *Pager[T]) NextPage(ctx context.Context) (*EntitiesResponse[T], error) {
	if !p.more {
		return nil, ErrNoMorePages
	}

	page, err := p.lister.ListPage(ctx, p.marker, p.pageSize)
	if err != nil {
		return nil, err
	}

	p.marker = page.ContinuationToken
	p.more = page.ContinuationToken != ""
	return page, nil
}

// All returns a lazy sequence over every entity of this kind. Each
// invocation starts a fresh scan; pages are fetched on demand and items are
// yielded only after a page is fully fetched and decoded.
func (l *Lister[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		marker := ""
		for {
			page, err := l.ListPage(ctx, marker, 0)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range page.Items {
				if !yield(item, nil) {
					return
				}
			}
			if page.ContinuationToken == "" {
				return
			}
			marker = page.ContinuationToken
		}
	}
}
