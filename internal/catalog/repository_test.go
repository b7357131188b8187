package catalog_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dveridom/backend/internal/catalog"
)

var testDB *pgxpool.Pool

// Интеграционные тесты требуют мигрированного Postgres. Без DB_HOST_TEST
// весь файл пропускается.
func TestMain(m *testing.M) {
	if os.Getenv("DB_HOST_TEST") == "" {
		os.Exit(m.Run())
	}

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		envDefault("DB_USER_TEST", "postgres"),
		envDefault("DB_PASSWORD_TEST", "postgres"),
		os.Getenv("DB_HOST_TEST"),
		envDefault("DB_PORT_TEST", "5432"),
		envDefault("DB_NAME_TEST", "dveridom_test"),
		envDefault("DB_SSLMODE_TEST", "disable"),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := pgxpool.New(ctx, dsn)
	if err == nil {
		err = pool.Ping(ctx)
	}
	cancel()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to test database")
	}
	testDB = pool

	code := m.Run()
	pool.Close()
	os.Exit(code)
}

func envDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newTestRepository(tb testing.TB) catalog.Repository {
	tb.Helper()
	if testDB == nil {
		tb.Skip("DB_HOST_TEST is not set")
	}
	tb.Cleanup(func() {
		_, err := testDB.Exec(context.Background(), "TRUNCATE TABLE doors")
		require.NoError(tb, err, "failed to truncate doors table")
	})
	return catalog.NewRepository(testDB)
}

func seedDoor(tb testing.TB, repo catalog.Repository, title, category string, price int, inStock bool) *catalog.Door {
	tb.Helper()
	door := &catalog.Door{
		ExternalID: title,
		Title:      title,
		Price:      price,
		Category:   category,
		URL:        "https://www.farniture.ru/catalog/vkhodnye/" + category + "/" + title + "/",
		ImageURLs:  []string{"https://www.farniture.ru/upload/" + title + ".jpg"},
		InStock:    inStock,
	}
	require.NoError(tb, repo.Create(context.Background(), door))
	return door
}

func TestDoorRepository_CreateAndGetByID(t *testing.T) {
	repo := newTestRepository(t)

	oldPrice := 30000
	unit := "₽"
	thickness := 1.5
	warranty := "5 лет"
	width, height := 960, 2050
	door := &catalog.Door{
		ExternalID:  "ext-rex-premium",
		Title:       "Дверь Рекс Премиум",
		Price:       25990,
		OldPrice:    &oldPrice,
		PriceUnit:   &unit,
		Category:    "reks",
		ImageURLs:   []string{"https://www.farniture.ru/upload/a.jpg", "https://www.farniture.ru/upload/b.jpg"},
		InStock:     true,
		Description: "Входная дверь с терморазрывом",
		Specifications: map[string]string{
			"толщина металла": "1.5 мм",
			"гарантия":        "5 лет",
		},
		URL:            "https://www.farniture.ru/catalog/vkhodnye/reks/premium/",
		Dimensions:     &catalog.Dimensions{Width: &width, Height: &height},
		MetalThickness: &thickness,
		Warranty:       &warranty,
		Equipment:      []string{"глазок", "ручка"},
	}
	require.NoError(t, repo.Create(context.Background(), door))
	require.NotEqual(t, uuid.Nil, door.ID)

	found, err := repo.GetByID(context.Background(), door.ID)
	require.NoError(t, err)
	assert.Equal(t, door.ExternalID, found.ExternalID)
	assert.Equal(t, door.Title, found.Title)
	assert.Equal(t, door.Price, found.Price)
	require.NotNil(t, found.OldPrice)
	assert.Equal(t, oldPrice, *found.OldPrice)
	assert.Equal(t, door.ImageURLs, found.ImageURLs)
	assert.True(t, found.InStock)
	assert.Equal(t, door.Description, found.Description)
	assert.Equal(t, door.Specifications, found.Specifications)
	require.NotNil(t, found.Dimensions)
	require.NotNil(t, found.Dimensions.Width)
	assert.Equal(t, width, *found.Dimensions.Width)
	require.NotNil(t, found.MetalThickness)
	assert.Equal(t, thickness, *found.MetalThickness)
	assert.Equal(t, door.Equipment, found.Equipment)
	assert.False(t, found.CreatedAt.IsZero())
	assert.False(t, found.UpdatedAt.IsZero())
}

func TestDoorRepository_Create_DuplicateExternalID(t *testing.T) {
	repo := newTestRepository(t)
	seedDoor(t, repo, "dver-1", "reks", 20000, true)

	dup := &catalog.Door{
		ExternalID: "dver-1",
		Title:      "Другая дверь",
		Price:      21000,
		Category:   "reks",
		URL:        "https://www.farniture.ru/catalog/vkhodnye/reks/drugaya/",
		ImageURLs:  []string{"https://www.farniture.ru/upload/x.jpg"},
	}
	err := repo.Create(context.Background(), dup)
	require.ErrorIs(t, err, catalog.ErrDuplicateExternalID)
}

func TestDoorRepository_GetByID_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	id, _ := uuid.NewV4()
	_, err := repo.GetByID(context.Background(), id)
	require.ErrorIs(t, err, catalog.ErrDoorNotFound)
}

func TestDoorRepository_Update(t *testing.T) {
	repo := newTestRepository(t)
	door := seedDoor(t, repo, "dver-1", "reks", 20000, true)

	door.Title = "Дверь Рекс Обновлённая"
	door.Price = 24500
	door.InStock = false
	require.NoError(t, repo.Update(context.Background(), door))

	found, err := repo.GetByID(context.Background(), door.ID)
	require.NoError(t, err)
	assert.Equal(t, "Дверь Рекс Обновлённая", found.Title)
	assert.Equal(t, 24500, found.Price)
	assert.False(t, found.InStock)
}

func TestDoorRepository_Update_NotFound(t *testing.T) {
	repo := newTestRepository(t)

	id, _ := uuid.NewV4()
	ghost := &catalog.Door{
		ID:        id,
		Title:     "Призрак",
		Price:     100,
		Category:  "reks",
		URL:       "https://www.farniture.ru/catalog/vkhodnye/reks/ghost/",
		ImageURLs: []string{"https://www.farniture.ru/upload/g.jpg"},
	}
	require.ErrorIs(t, repo.Update(context.Background(), ghost), catalog.ErrDoorNotFound)
}

func TestDoorRepository_List_Filters(t *testing.T) {
	repo := newTestRepository(t)
	seedDoor(t, repo, "Дверь Рекс 1", "reks", 20000, true)
	seedDoor(t, repo, "Дверь Рекс 2", "reks", 30000, false)
	seedDoor(t, repo, "Дверь АСД", "asd", 25000, true)

	doors, total, err := repo.List(context.Background(), catalog.ListFilter{Category: "rek"})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Len(t, doors, 2)

	priceMin, priceMax := 22000, 28000
	doors, total, err = repo.List(context.Background(), catalog.ListFilter{PriceMin: &priceMin, PriceMax: &priceMax})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, doors, 1)
	assert.Equal(t, "Дверь АСД", doors[0].Title)

	inStock := true
	doors, total, err = repo.List(context.Background(), catalog.ListFilter{InStock: &inStock})
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	doors, total, err = repo.List(context.Background(), catalog.ListFilter{Search: "асд"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, doors, 1)
	assert.Equal(t, "Дверь АСД", doors[0].Title)
}

func TestDoorRepository_List_Pagination(t *testing.T) {
	repo := newTestRepository(t)
	for i := 1; i <= 5; i++ {
		seedDoor(t, repo, fmt.Sprintf("dver-%d", i), "reks", 20000+i*1000, true)
	}

	doors, total, err := repo.List(context.Background(), catalog.ListFilter{
		Sort:  catalog.SortPriceAsc,
		Page:  2,
		Limit: 2,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, total, "total must count all matches, not the page")
	require.Len(t, doors, 2)
	assert.Equal(t, "dver-3", doors[0].Title)
	assert.Equal(t, "dver-4", doors[1].Title)

	doors, _, err = repo.List(context.Background(), catalog.ListFilter{
		Sort:  catalog.SortPriceDesc,
		Page:  1,
		Limit: 1,
	})
	require.NoError(t, err)
	require.Len(t, doors, 1)
	assert.Equal(t, "dver-5", doors[0].Title)
}

func TestDoorRepository_Similar(t *testing.T) {
	repo := newTestRepository(t)
	target := seedDoor(t, repo, "dver-target", "reks", 25000, true)
	seedDoor(t, repo, "dver-close", "reks", 26000, true)
	seedDoor(t, repo, "dver-far", "reks", 40000, true)
	seedDoor(t, repo, "dver-other", "asd", 25000, true)

	similar, err := repo.Similar(context.Background(), target.ID, 2)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, "dver-close", similar[0].Title, "nearest price must come first")
	for _, d := range similar {
		assert.Equal(t, "reks", d.Category)
		assert.NotEqual(t, target.ID, d.ID, "the door itself must be excluded")
	}
}

func TestDoorRepository_IncrementViews(t *testing.T) {
	repo := newTestRepository(t)
	door := seedDoor(t, repo, "dver-1", "reks", 20000, true)

	require.NoError(t, repo.IncrementViews(context.Background(), door.ID))
	require.NoError(t, repo.IncrementViews(context.Background(), door.ID))

	found, err := repo.GetByID(context.Background(), door.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, found.Views)

	ghost, _ := uuid.NewV4()
	require.ErrorIs(t, repo.IncrementViews(context.Background(), ghost), catalog.ErrDoorNotFound)
}

func TestDoorRepository_CountAndExists(t *testing.T) {
	repo := newTestRepository(t)

	count, err := repo.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	seedDoor(t, repo, "dver-1", "reks", 20000, true)

	count, err = repo.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	exists, err := repo.ExistsByExternalID(context.Background(), "dver-1")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByExternalID(context.Background(), "dver-2")
	require.NoError(t, err)
	assert.False(t, exists)
}
