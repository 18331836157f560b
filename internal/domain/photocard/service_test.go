package photocard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photocard/photocard-api/internal/pkg/pagination"
)

const creator int64 = 5

var errSupplyCheck = errors.New("total_supply check violated")

func setup(t *testing.T) (*Service, *memRepository, *time.Time) {
	t.Helper()
	now := time.Date(2026, 5, 20, 10, 0, 0, 0, time.UTC)
	repo := newMemRepository(func() time.Time { return now })
	repo.users[creator] = true
	repo.users[creator+1] = true
	svc := NewService(repo, nil, 3)
	svc.loc = time.UTC
	svc.now = func() time.Time { return now }
	return svc, repo, &now
}

func validCreate(name string, supply int) CreateRequest {
	return CreateRequest{
		Name:        name,
		Genre:       "앨범",
		Grade:       "RARE",
		MinPrice:    100,
		TotalSupply: supply,
		ImageURL:    "https://cdn.example.com/public/users/5/photocards/a.png",
	}
}

func TestCreateCreditsCreator(t *testing.T) {
	svc, repo, _ := setup(t)

	res, err := svc.Create(context.Background(), creator, validCreate("  Winter  ", 4))
	require.NoError(t, err)
	assert.Equal(t, "/public/users/5/photocards/a.png", res.ImageURL)
	assert.Equal(t, 4, res.TotalSupply)

	card := repo.cards[res.PhotoCardID]
	assert.Equal(t, "Winter", card.Name)
	assert.Equal(t, "rare", card.Grade)
	assert.Equal(t, 4, card.TotalSupply)
	require.Len(t, repo.userCards, 1)
	assert.Equal(t, 4, repo.userCards[0].quantity)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := setup(t)

	tests := []struct {
		name  string
		edit  func(*CreateRequest)
		field string
	}{
		{name: "blank name", edit: func(r *CreateRequest) { r.Name = "   " }, field: "name"},
		{name: "unknown genre", edit: func(r *CreateRequest) { r.Genre = "poster" }, field: "genre"},
		{name: "unknown grade", edit: func(r *CreateRequest) { r.Grade = "mythic" }, field: "grade"},
		{name: "zero supply", edit: func(r *CreateRequest) { r.TotalSupply = 0 }, field: "total_supply"},
		{name: "supply over ten", edit: func(r *CreateRequest) { r.TotalSupply = 11 }, field: "total_supply"},
		{name: "negative price", edit: func(r *CreateRequest) { r.MinPrice = -1 }, field: "min_price"},
		{name: "foreign image", edit: func(r *CreateRequest) { r.ImageURL = "/public/users/6/photocards/a.png" }, field: "image_url"},
		{name: "image traversal", edit: func(r *CreateRequest) { r.ImageURL = "/public/users/5/photocards/../../6/a.png" }, field: "image_url"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validCreate("Card", 1)
			tt.edit(&req)
			_, err := svc.Create(context.Background(), creator, req)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}

func TestCreateReusesIdenticalDesign(t *testing.T) {
	svc, repo, _ := setup(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, creator, validCreate("Same", 6))
	require.NoError(t, err)
	second, err := svc.Create(ctx, creator, validCreate("Same", 4))
	require.NoError(t, err)

	assert.Equal(t, first.PhotoCardID, second.PhotoCardID)
	assert.Equal(t, first.UserCardID, second.UserCardID)
	assert.Equal(t, 10, repo.cards[first.PhotoCardID].TotalSupply)
	assert.Len(t, repo.cards, 1)

	_, err = svc.Create(ctx, creator, validCreate("Same", 1))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields["total_supply"], "current: 10")
	assert.Equal(t, 10, repo.cards[first.PhotoCardID].TotalSupply)
}

func TestCreateMonthlyLimit(t *testing.T) {
	svc, _, now := setup(t)
	ctx := context.Background()

	for i, name := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, creator, validCreate(name, 1))
		require.NoError(t, err, "card %d", i)
	}

	_, err := svc.Create(ctx, creator, validCreate("d", 1))
	var limitErr *MonthlyLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, 3, limitErr.Limit)
	assert.Equal(t, 3, limitErr.Used)

	// other users keep their own quota
	other := validCreate("d", 1)
	other.ImageURL = "/public/users/6/photocards/d.png"
	_, err = svc.Create(ctx, creator+1, other)
	require.NoError(t, err)

	*now = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	_, err = svc.Create(ctx, creator, validCreate("d", 1))
	assert.NoError(t, err, "the quota resets with the month")
}

func TestCreateChecksUploadedImage(t *testing.T) {
	svc, _, _ := setup(t)
	store := &fakeStorage{objects: map[string]bool{"public/users/5/photocards/a.png": true}}
	svc.store = store

	_, err := svc.Create(context.Background(), creator, validCreate("x", 1))
	require.NoError(t, err)

	req := validCreate("y", 1)
	req.ImageURL = "/public/users/5/photocards/missing.png"
	_, err = svc.Create(context.Background(), creator, req)
	assert.ErrorIs(t, err, ErrImageNotFound)
}

func TestPresignImage(t *testing.T) {
	svc, _, _ := setup(t)

	_, err := svc.PresignImage(context.Background(), creator, "image/png")
	assert.ErrorIs(t, err, ErrStorageDisabled)

	svc.store = &fakeStorage{}
	up, err := svc.PresignImage(context.Background(), creator, "image/png")
	require.NoError(t, err)
	assert.Regexp(t, `^/public/users/5/photocards/[0-9a-f-]{36}\.png$`, up.ImageURL)
	assert.Equal(t, up.ImageURL[1:], up.Key)

	_, err = svc.PresignImage(context.Background(), creator, "text/html")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestListCursor(t *testing.T) {
	svc, repo, _ := setup(t)
	svc.monthlyLimit = 100
	ctx := context.Background()
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		_, err := svc.Create(ctx, creator, validCreate(name, 1))
		require.NoError(t, err)
	}
	require.Len(t, repo.cards, 5)

	page, err := svc.List(ctx, 2, nil)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, int64(5), page.Items[0].ID)
	assert.True(t, page.HasMore)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, int64(4), *page.NextCursor)

	page, err = svc.List(ctx, 10, page.NextCursor)
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextCursor)

	bad := int64(0)
	_, err = svc.List(ctx, 10, &bad)
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.List(ctx, -1, nil)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUpdate(t *testing.T) {
	svc, _, _ := setup(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, creator, validCreate("Old", 1))
	require.NoError(t, err)

	name := " New "
	desc := "signed"
	card, err := svc.Update(ctx, created.PhotoCardID, creator, UpdateRequest{Name: &name, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "New", card.Name)
	require.NotNil(t, card.Description)
	assert.Equal(t, "signed", *card.Description)

	empty := ""
	card, err = svc.Update(ctx, created.PhotoCardID, creator, UpdateRequest{Description: &empty})
	require.NoError(t, err)
	assert.Nil(t, card.Description)

	_, err = svc.Update(ctx, created.PhotoCardID, creator+1, UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Update(ctx, 999, creator, UpdateRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Update(ctx, created.PhotoCardID, creator, UpdateRequest{})
	assert.ErrorIs(t, err, ErrInvalidInput)

	grade := "Legendary"
	card, err = svc.Update(ctx, created.PhotoCardID, creator, UpdateRequest{Grade: &grade})
	require.NoError(t, err)
	assert.Equal(t, "legendary", card.Grade)
}

func TestGallery(t *testing.T) {
	svc, _, _ := setup(t)
	svc.monthlyLimit = 100
	ctx := context.Background()

	create := func(name, grade string, supply int) {
		req := validCreate(name, supply)
		req.Grade = grade
		_, err := svc.Create(ctx, creator, req)
		require.NoError(t, err)
	}
	create("Spring", "common", 2)
	create("Summer", "rare", 1)
	create("Autumn", "epic", 3)
	create("Winter", "legendary", 1)

	offset := pagination.Offset{Page: 1, PageSize: 2}
	res, err := svc.Gallery(ctx, creator, GalleryQuery{Page: offset})
	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, GradeCounts{Total: 7, Common: 2, Rare: 1, SuperRare: 3, Legendary: 1}, res.Counts)
	assert.Equal(t, PageInfo{Page: 1, PageSize: 2, TotalItems: 4, TotalPages: 2}, res.PageInfo)

	res, err = svc.Gallery(ctx, creator, GalleryQuery{Page: offset, Grade: "super_rare"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Autumn", res.Items[0].Name)
	assert.Equal(t, 7, res.Counts.Total, "counts ignore filters")

	res, err = svc.Gallery(ctx, creator, GalleryQuery{Page: offset, Search: "wint", Grade: "ALL", Genre: "ALL"})
	require.NoError(t, err)
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Winter", res.Items[0].Name)

	res, err = svc.Gallery(ctx, creator+1, GalleryQuery{Page: offset})
	require.NoError(t, err)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.Equal(t, 1, res.PageInfo.TotalPages)

	_, err = svc.Gallery(ctx, creator, GalleryQuery{Page: offset, Grade: "mythic"})
	assert.ErrorIs(t, err, ErrInvalidInput)
}
