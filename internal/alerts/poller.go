package alerts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/time/rate"

	"github.com/soaringjerry/Scamwatch/internal/logging"
	"github.com/soaringjerry/Scamwatch/internal/services"
)

type Store interface {
	HasAlert(id string) (bool, error)
	InsertAlert(a *services.Alert) error
	HasOfficialSource(identifier string) (bool, error)
	services.OfficialSourceStore
}

type Poller struct {
	store   Store
	sources []Source
	client  *http.Client
	limiter *rate.Limiter
	now     func() time.Time
}

func NewPoller(store Store, sources []Source) *Poller {
	return &Poller{
		store:   store,
		sources: sources,
		client:  &http.Client{Timeout: 20 * time.Second},
		limiter: rate.NewLimiter(rate.Every(2*time.Second), 1),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Fetch downloads and parses one feed.
func (p *Poller) Fetch(ctx context.Context, src Source) ([]*services.Alert, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("alerts: build request: %w", err)
	}
	req.Header.Set("User-Agent", "Scamwatch/1.0 (+alerts)")
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("alerts: fetch %s: %w", src.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("alerts: fetch %s: HTTP %d", src.Name, resp.StatusCode)
	}
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("alerts: parse %s: %w", src.Name, err)
	}
	return convertFeed(feed, src, p.now()), nil
}

func convertFeed(feed *gofeed.Feed, src Source, now time.Time) []*services.Alert {
	out := make([]*services.Alert, 0, len(feed.Items))
	for _, it := range feed.Items {
		published := now
		if it.PublishedParsed != nil {
			published = it.PublishedParsed.UTC()
		} else if it.UpdatedParsed != nil {
			published = it.UpdatedParsed.UTC()
		}
		summary := it.Description
		if summary == "" {
			summary = it.Content
		}
		out = append(out, &services.Alert{
			ID:          alertID(it),
			Source:      src.Name,
			Title:       stripHTML(it.Title),
			Summary:     truncate(stripHTML(summary), maxSummaryLen),
			Link:        it.Link,
			Official:    src.Official,
			PublishedAt: published,
			FetchedAt:   now,
		})
	}
	return out
}

// alertID hashes the item link, falling back to GUID and then title, so
// the same story is recognised across polls.
func alertID(it *gofeed.Item) string {
	key := it.Link
	if key == "" {
		key = it.GUID
	}
	if key == "" {
		key = it.Title
	}
	return hashKey(key)
}

func hashKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:16])
}

// Ingest stores alerts not seen before and registers phone numbers named in
// official ones. It returns the number of new alerts.
func (p *Poller) Ingest(alerts []*services.Alert) (int, error) {
	added := 0
	for _, a := range alerts {
		seen, err := p.store.HasAlert(a.ID)
		if err != nil {
			return added, err
		}
		if seen {
			continue
		}
		// Stored last: a failed registration leaves the alert unseen.
		if a.Official {
			for _, phone := range extractPhones(a.Title + " " + a.Summary) {
				if err := p.registerPhone(a, phone); err != nil {
					return added, err
				}
			}
		}
		if err := p.store.InsertAlert(a); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

func (p *Poller) registerPhone(a *services.Alert, phone string) error {
	known, err := p.store.HasOfficialSource(phone)
	if err != nil || known {
		return err
	}
	src := &services.OfficialSource{
		ID:         "o" + hashKey(a.ID + "|" + phone)[:11],
		Identifier: phone,
		Source:     a.Source + ": " + a.Title,
		URL:        a.Link,
		AddedBy:    "alerts",
		CreatedAt:  p.now(),
	}
	n, err := services.RegisterOfficialSource(p.store, src)
	if err != nil {
		return err
	}
	logging.Info("official source from alert", "identifier", phone, "source", a.Source, "promoted", n)
	return nil
}

// PollOnce fetches every source. A failing feed is logged and skipped; the
// joined errors are returned after all sources were tried.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	total := 0
	var errs []error
	for _, src := range p.sources {
		alerts, err := p.Fetch(ctx, src)
		if err != nil {
			if ctx.Err() != nil {
				return total, ctx.Err()
			}
			logging.Warn("alert feed failed", "source", src.Name, "err", err)
			errs = append(errs, err)
			continue
		}
		n, err := p.Ingest(alerts)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// Run polls immediately and then every interval until ctx is done.
func (p *Poller) Run(ctx context.Context, interval time.Duration) {
	if len(p.sources) == 0 {
		return
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		if n, _ := p.PollOnce(ctx); n > 0 {
			logging.Info("alerts polled", "new", n)
		}
		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
