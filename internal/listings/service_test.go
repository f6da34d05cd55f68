package listings

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/pixelfair/pixelfair-backend/pkg/db/models"
	apperrors "github.com/pixelfair/pixelfair-backend/pkg/errors"
	"github.com/pixelfair/pixelfair-backend/pkg/pagination"
)

func setupListingsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:listings_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&models.Listing{}, &models.ListingTag{}))
	return db
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

type seedOpts struct {
	name        string
	description string
	tags        []string
	public      bool
	available   bool
	deleted     bool
	owner       uuid.UUID
	discount    float64
	inventory   int
	createdAt   time.Time
}

func seedListing(t *testing.T, db *gorm.DB, opts seedOpts) *models.Listing {
	t.Helper()

	if opts.createdAt.IsZero() {
		opts.createdAt = time.Now()
	}
	tags := make([]models.ListingTag, 0, len(opts.tags))
	for _, tag := range opts.tags {
		tags = append(tags, models.ListingTag{Tag: tag})
	}
	listing := &models.Listing{
		ID:          uuid.New(),
		Name:        opts.name,
		Description: opts.description,
		Tags:        tags,
		Public:      opts.public,
		OwnerID:     opts.owner,
		Discount:    opts.discount,
		Inventory:   opts.inventory,
		IsAvailable: opts.available,
		IsDeleted:   opts.deleted,
		CreatedAt:   opts.createdAt,
	}
	require.NoError(t, db.Create(listing).Error)
	return listing
}

func TestGetVisibilityRules(t *testing.T) {
	db := setupListingsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	owner := uuid.New()
	stranger := uuid.New()

	private := seedListing(t, db, seedOpts{name: "private", owner: owner, available: true})
	deleted := seedListing(t, db, seedOpts{name: "gone", owner: owner, public: true, available: true, deleted: true})
	public := seedListing(t, db, seedOpts{name: "public", owner: owner, public: true, available: true})

	got, err := svc.Get(ctx, stranger, public.ID)
	require.NoError(t, err)
	assert.Equal(t, public.ID, got.ID)

	got, err = svc.Get(ctx, owner, private.ID)
	require.NoError(t, err)
	assert.Equal(t, private.ID, got.ID)

	_, err = svc.Get(ctx, stranger, private.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = svc.Get(ctx, owner, deleted.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDeleted))

	_, err = svc.Get(ctx, owner, uuid.New())
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	// a stranger probing a private tombstone must not learn it was deleted
	privateGone := seedListing(t, db, seedOpts{name: "private gone", owner: owner, available: true, deleted: true})
	_, err = svc.Get(ctx, stranger, privateGone.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	_, err = svc.Get(ctx, owner, privateGone.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDeleted))
}

func TestSearchCombinesFiltersWithAnd(t *testing.T) {
	db := setupListingsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	owner := uuid.New()
	seedListing(t, db, seedOpts{name: "sunset print", tags: []string{"nature", "warm"}, public: true, available: true, owner: owner})
	seedListing(t, db, seedOpts{name: "sunset poster", tags: []string{"city"}, public: true, available: true, owner: owner})
	seedListing(t, db, seedOpts{name: "mountain print", tags: []string{"nature"}, public: true, available: true, owner: owner})

	results, err := svc.Search(ctx, uuid.New(), SearchParams{
		Filters: SearchFilters{Name: "Sunset", Tag: "nat"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "sunset print", results[0].Name)
}

func TestSearchThresholdFilters(t *testing.T) {
	db := setupListingsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	owner := uuid.New()
	seedListing(t, db, seedOpts{name: "cheap", description: "limited edition run", public: true, available: true, owner: owner, discount: 5, inventory: 2})
	match := seedListing(t, db, seedOpts{name: "deal", description: "limited edition run", public: true, available: true, owner: owner, discount: 20, inventory: 10})
	seedListing(t, db, seedOpts{name: "plain", description: "standard run", public: true, available: true, owner: owner, discount: 30, inventory: 10})

	minDiscount := 10.0
	minInventory := 5
	results, err := svc.Search(ctx, uuid.New(), SearchParams{
		Filters: SearchFilters{
			Description:  "Limited",
			MinDiscount:  &minDiscount,
			MinInventory: &minInventory,
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, match.ID, results[0].ID)
}

func TestSearchExcludesHiddenListings(t *testing.T) {
	db := setupListingsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	owner := uuid.New()
	stranger := uuid.New()

	visible := seedListing(t, db, seedOpts{name: "visible", public: true, available: true, owner: owner})
	mine := seedListing(t, db, seedOpts{name: "mine", public: false, available: true, owner: owner})
	hidden := seedListing(t, db, seedOpts{name: "unavailable", public: true, available: false, owner: owner})
	seedListing(t, db, seedOpts{name: "deleted", public: true, available: true, deleted: true, owner: owner})

	// the false must survive the insert, or the row leaks into results below
	stored, err := NewRepository(db).FindByID(ctx, hidden.ID)
	require.NoError(t, err)
	require.False(t, stored.IsAvailable)

	results, err := svc.Search(ctx, stranger, SearchParams{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, visible.ID, results[0].ID)

	results, err = svc.Search(ctx, owner, SearchParams{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	ids := []uuid.UUID{results[0].ID, results[1].ID}
	assert.Contains(t, ids, mine.ID)
}

func TestSearchPagination(t *testing.T) {
	db := setupListingsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	owner := uuid.New()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	first := seedListing(t, db, seedOpts{name: "oldest", public: true, available: true, owner: owner, createdAt: base})
	second := seedListing(t, db, seedOpts{name: "middle", public: true, available: true, owner: owner, createdAt: base.Add(time.Hour)})
	third := seedListing(t, db, seedOpts{name: "newest", public: true, available: true, owner: owner, createdAt: base.Add(2 * time.Hour)})

	page1, err := svc.Search(ctx, owner, SearchParams{Page: pagination.Params{Limit: 1, Page: 1}})
	require.NoError(t, err)
	require.Len(t, page1, 1)
	assert.Equal(t, third.ID, page1[0].ID)

	page2, err := svc.Search(ctx, owner, SearchParams{Page: pagination.Params{Limit: 1, Page: 2}})
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, second.ID, page2[0].ID)

	page3, err := svc.Search(ctx, owner, SearchParams{Page: pagination.Params{Limit: 1, Page: 3}})
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, first.ID, page3[0].ID)
}

func TestCreateAndUpdate(t *testing.T) {
	db := setupListingsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	owner := uuid.New()
	listing, err := svc.Create(ctx, owner, CreateListingDTO{
		Name:      "city skyline",
		Tags:      []string{"city", "night"},
		Public:    true,
		Inventory: 5,
	})
	require.NoError(t, err)
	assert.True(t, listing.IsAvailable)
	assert.ElementsMatch(t, []string{"city", "night"}, listing.TagStrings())

	newName := "city skyline at dusk"
	newTags := []string{"city", "dusk"}
	updated, err := svc.Update(ctx, owner, listing.ID, UpdateListingDTO{
		Name: &newName,
		Tags: &newTags,
	})
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
	assert.ElementsMatch(t, newTags, updated.TagStrings())
	assert.Equal(t, 5, updated.Inventory)

	_, err = svc.Update(ctx, uuid.New(), listing.ID, UpdateListingDTO{Name: &newName})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))
}

func TestSoftDelete(t *testing.T) {
	db := setupListingsTestDB(t)
	svc := newTestService(t, db)
	ctx := context.Background()

	owner := uuid.New()
	listing := seedListing(t, db, seedOpts{name: "ephemeral", public: true, available: true, owner: owner})

	err := svc.SoftDelete(ctx, uuid.New(), listing.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	require.NoError(t, svc.SoftDelete(ctx, owner, listing.ID))

	_, err = svc.Get(ctx, owner, listing.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeDeleted))

	var raw models.Listing
	require.NoError(t, db.First(&raw, "id = ?", listing.ID).Error)
	assert.True(t, raw.IsDeleted)
}

func TestRepositoryInventoryGuards(t *testing.T) {
	db := setupListingsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	listing := seedListing(t, db, seedOpts{name: "stocked", public: true, available: true, owner: uuid.New(), inventory: 3})

	rows, err := repo.DecrementInventory(ctx, listing.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.DecrementInventory(ctx, listing.ID, 2)
	require.NoError(t, err)
	assert.Zero(t, rows)

	require.NoError(t, repo.IncrementInventory(ctx, listing.ID, 2))

	reloaded, err := repo.FindByID(ctx, listing.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Inventory)

	paused := seedListing(t, db, seedOpts{name: "paused", public: true, available: false, owner: uuid.New(), inventory: 3})
	rows, err = repo.DecrementInventory(ctx, paused.ID, 1)
	require.NoError(t, err)
	assert.Zero(t, rows)
}
