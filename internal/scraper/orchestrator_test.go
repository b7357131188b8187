package scraper_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dveridom/backend/internal/cache"
	"github.com/dveridom/backend/internal/catalog"
	"github.com/dveridom/backend/internal/config"
	"github.com/dveridom/backend/internal/scraper"
)

type mockDoorStore struct {
	countFn  func(ctx context.Context) (int, error)
	createFn func(ctx context.Context, door *catalog.Door) error
	existsFn func(ctx context.Context, externalID string) (bool, error)
}

func (m *mockDoorStore) Count(ctx context.Context) (int, error) {
	return m.countFn(ctx)
}

func (m *mockDoorStore) Create(ctx context.Context, door *catalog.Door) error {
	return m.createFn(ctx, door)
}

func (m *mockDoorStore) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	return m.existsFn(ctx, externalID)
}

type mockCrawler struct {
	crawlFn func(ctx context.Context, category string) ([]*catalog.Door, error)
}

func (m *mockCrawler) CrawlCategory(ctx context.Context, category string) ([]*catalog.Door, error) {
	return m.crawlFn(ctx, category)
}

// mockMirrorCache - кэш в памяти с той же семантикой Keys/Get/Del, что у
// обёртки Redis.
type mockMirrorCache struct {
	mu      sync.Mutex
	data    map[string]string
	deleted []string
}

func newMockMirrorCache(data map[string]string) *mockMirrorCache {
	if data == nil {
		data = map[string]string{}
	}
	return &mockMirrorCache{data: data}
}

func (m *mockMirrorCache) Enabled() bool { return true }

func (m *mockMirrorCache) Keys(ctx context.Context, pattern string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (m *mockMirrorCache) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.data[key]
	if !ok {
		return "", cache.ErrNotFound
	}
	return val, nil
}

func (m *mockMirrorCache) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockMirrorCache) Del(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
		m.deleted = append(m.deleted, key)
	}
	return nil
}

func disabledCache(t *testing.T) *cache.Client {
	t.Helper()
	c, err := cache.New(context.Background(), config.RedisConfig{Enabled: false})
	require.NoError(t, err)
	return c
}

func draftDoor(title string, price int) *catalog.Door {
	return &catalog.Door{
		Title:     title,
		Price:     price,
		Category:  "reks",
		URL:       "https://www.farniture.ru/catalog/vkhodnye/reks/" + title + "/",
		ImageURLs: []string{"https://www.farniture.ru/upload/door.jpg"},
	}
}

func TestEvaluatePopulatedCatalog(t *testing.T) {
	store := &mockDoorStore{
		countFn: func(ctx context.Context) (int, error) { return 42, nil },
	}
	crawler := &mockCrawler{
		crawlFn: func(ctx context.Context, category string) ([]*catalog.Door, error) {
			t.Fatal("crawl must not run when catalog is populated")
			return nil, nil
		},
	}

	o := scraper.NewOrchestrator(store, disabledCache(t), crawler, scraper.OrchestratorConfig{})
	require.NoError(t, o.Evaluate(context.Background()))
}

func TestEvaluateEmptyCatalogCrawls(t *testing.T) {
	var created []*catalog.Door
	store := &mockDoorStore{
		countFn:  func(ctx context.Context) (int, error) { return 0, nil },
		createFn: func(ctx context.Context, door *catalog.Door) error { created = append(created, door); return nil },
		existsFn: func(ctx context.Context, externalID string) (bool, error) { return false, nil },
	}
	crawler := &mockCrawler{
		crawlFn: func(ctx context.Context, category string) ([]*catalog.Door, error) {
			if category != "reks" {
				return nil, nil
			}
			return []*catalog.Door{draftDoor("dver-1", 20000)}, nil
		},
	}

	o := scraper.NewOrchestrator(store, disabledCache(t), crawler, scraper.OrchestratorConfig{
		Categories: []string{"reks", "asd"},
	})
	require.NoError(t, o.Evaluate(context.Background()))
	require.Len(t, created, 1)
	assert.NotEmpty(t, created[0].ExternalID, "external id must be assigned before save")
}

func TestCrawlStats(t *testing.T) {
	store := &mockDoorStore{
		countFn: func(ctx context.Context) (int, error) { return 0, nil },
		createFn: func(ctx context.Context, door *catalog.Door) error {
			if door.Title == "duplicate" {
				return catalog.ErrDuplicateExternalID
			}
			if door.Title == "broken" {
				return assert.AnError
			}
			return nil
		},
	}
	crawler := &mockCrawler{
		crawlFn: func(ctx context.Context, category string) ([]*catalog.Door, error) {
			return []*catalog.Door{
				draftDoor("dver-1", 20000),
				draftDoor("duplicate", 21000),
				draftDoor("broken", 22000),
				draftDoor("dver-2", 23000),
			}, nil
		},
	}

	o := scraper.NewOrchestrator(store, disabledCache(t), crawler, scraper.OrchestratorConfig{
		Categories: []string{"reks"},
		BatchSize:  2,
	})

	stats, err := o.Crawl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Parsed)
	assert.Equal(t, 2, stats.Saved)
	assert.Equal(t, 1, stats.Skipped)
	assert.Equal(t, 1, stats.Failed)
	assert.False(t, o.Running())
}

func TestCrawlInvalidDraftCounted(t *testing.T) {
	store := &mockDoorStore{
		countFn:  func(ctx context.Context) (int, error) { return 0, nil },
		createFn: func(ctx context.Context, door *catalog.Door) error { return nil },
	}
	noImages := draftDoor("dver-1", 20000)
	noImages.ImageURLs = nil
	crawler := &mockCrawler{
		crawlFn: func(ctx context.Context, category string) ([]*catalog.Door, error) {
			return []*catalog.Door{noImages}, nil
		},
	}

	o := scraper.NewOrchestrator(store, disabledCache(t), crawler, scraper.OrchestratorConfig{
		Categories: []string{"reks"},
	})

	stats, err := o.Crawl(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Failed)
	assert.Zero(t, stats.Saved)
}

func mirrorJSON(t *testing.T, door *catalog.Door) string {
	t.Helper()
	data, err := json.Marshal(door.MirrorEntry())
	require.NoError(t, err)
	return string(data)
}

func TestRestoreFromCacheSkipsBadEntries(t *testing.T) {
	noImages := draftDoor("dver-3", 22000)
	noImages.ImageURLs = nil

	mirror := newMockMirrorCache(map[string]string{
		"door:ext-1": mirrorJSON(t, draftDoor("dver-1", 20000)),
		"door:ext-2": `{broken json`,
		"door:ext-3": mirrorJSON(t, noImages),
		"door:ext-4": mirrorJSON(t, draftDoor("dver-4", 23000)),
	})

	var created []*catalog.Door
	store := &mockDoorStore{
		countFn:  func(ctx context.Context) (int, error) { return 0, nil },
		createFn: func(ctx context.Context, door *catalog.Door) error { created = append(created, door); return nil },
		existsFn: func(ctx context.Context, externalID string) (bool, error) { return externalID == "ext-4", nil },
	}

	o := scraper.NewOrchestrator(store, mirror, &mockCrawler{}, scraper.OrchestratorConfig{})

	restored, err := o.RestoreFromCache(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, restored, "only the valid new entry must be restored")

	require.Len(t, created, 1)
	assert.Equal(t, "ext-1", created[0].ExternalID, "external id must come from the mirror key")
	assert.Equal(t, "dver-1", created[0].Title)
	assert.Equal(t, 20000, created[0].Price)
}

func TestEvaluateEmptyCatalogPrefersCacheRestore(t *testing.T) {
	mirror := newMockMirrorCache(map[string]string{
		"door:ext-1": mirrorJSON(t, draftDoor("dver-1", 20000)),
	})

	store := &mockDoorStore{
		countFn:  func(ctx context.Context) (int, error) { return 0, nil },
		createFn: func(ctx context.Context, door *catalog.Door) error { return nil },
		existsFn: func(ctx context.Context, externalID string) (bool, error) { return false, nil },
	}
	crawler := &mockCrawler{
		crawlFn: func(ctx context.Context, category string) ([]*catalog.Door, error) {
			t.Fatal("crawl must not run when the mirror restores the catalog")
			return nil, nil
		},
	}

	o := scraper.NewOrchestrator(store, mirror, crawler, scraper.OrchestratorConfig{})
	require.NoError(t, o.Evaluate(context.Background()))
}

func TestCrawlInvalidatesListCache(t *testing.T) {
	mirror := newMockMirrorCache(map[string]string{
		"doors:list:1:10:{}": `{"doors":[],"total":0,"totalPages":0}`,
	})

	store := &mockDoorStore{
		countFn:  func(ctx context.Context) (int, error) { return 0, nil },
		createFn: func(ctx context.Context, door *catalog.Door) error { return nil },
	}
	crawler := &mockCrawler{
		crawlFn: func(ctx context.Context, category string) ([]*catalog.Door, error) {
			return []*catalog.Door{draftDoor("dver-1", 20000)}, nil
		},
	}

	o := scraper.NewOrchestrator(store, mirror, crawler, scraper.OrchestratorConfig{
		Categories: []string{"reks"},
	})

	stats, err := o.Crawl(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, stats.Saved)

	assert.NotEmpty(t, mirror.deleted, "stale list cache must be dropped after the crawl")
	for _, key := range mirror.deleted {
		assert.True(t, strings.HasPrefix(key, "doors:list:"), "only list keys may be invalidated, got %s", key)
	}
	keys, err := mirror.Keys(context.Background(), "door:*")
	require.NoError(t, err)
	assert.Len(t, keys, 1, "saved door must be mirrored")
}

func TestStopCancelsScheduledCrawl(t *testing.T) {
	started := make(chan struct{})
	var evals int32

	store := &mockDoorStore{
		// Первая оценка видит наполненный каталог и не ходит в сеть,
		// плановая перепроверка застаёт его пустым и запускает обход.
		countFn: func(ctx context.Context) (int, error) {
			if atomic.AddInt32(&evals, 1) == 1 {
				return 1, nil
			}
			return 0, nil
		},
		createFn: func(ctx context.Context, door *catalog.Door) error { return nil },
	}
	crawler := &mockCrawler{
		crawlFn: func(ctx context.Context, category string) ([]*catalog.Door, error) {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	o := scraper.NewOrchestrator(store, disabledCache(t), crawler, scraper.OrchestratorConfig{
		Categories:      []string{"reks"},
		RecheckInterval: 20 * time.Millisecond,
	})
	o.Start(context.Background())

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled crawl did not start")
	}

	stopped := make(chan struct{})
	go func() {
		o.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not interrupt the in-flight scheduled crawl")
	}
	assert.False(t, o.Running())
}

func TestCrawlInProgress(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	store := &mockDoorStore{
		countFn:  func(ctx context.Context) (int, error) { return 0, nil },
		createFn: func(ctx context.Context, door *catalog.Door) error { return nil },
	}
	crawler := &mockCrawler{
		crawlFn: func(ctx context.Context, category string) ([]*catalog.Door, error) {
			close(started)
			<-release
			return nil, nil
		},
	}

	o := scraper.NewOrchestrator(store, disabledCache(t), crawler, scraper.OrchestratorConfig{
		Categories: []string{"reks"},
	})

	errCh := make(chan error, 1)
	go func() {
		_, err := o.Crawl(context.Background())
		errCh <- err
	}()

	<-started
	assert.True(t, o.Running())

	_, err := o.Crawl(context.Background())
	assert.ErrorIs(t, err, scraper.ErrCrawlInProgress)

	close(release)
	require.NoError(t, <-errCh)
	assert.False(t, o.Running())
}
