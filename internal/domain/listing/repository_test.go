package listing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photocard/photocard-api/internal/domain/listing"
	"github.com/photocard/photocard-api/internal/pkg/database/testutil"
)

func TestRepositoryListingLifecycle(t *testing.T) {
	db := testutil.SetupTestDatabase(t)
	svc := listing.NewService(listing.NewRepository(db))
	ctx := context.Background()

	seller := testutil.CreateUser(t, db, 0)
	other := testutil.CreateUser(t, db, 0)

	var cardID, userCardID int64
	require.NoError(t, db.QueryRowx(`
		INSERT INTO photo_cards (creator_user_id, name, genre, grade, total_supply, image_url)
		VALUES ($1, 'Stage', '콘서트', 'epic', 4, '/img.png')
		RETURNING id
	`, seller).Scan(&cardID))
	require.NoError(t, db.QueryRowx(`
		INSERT INTO user_cards (user_id, photo_card_id, quantity) VALUES ($1, $2, 4) RETURNING id
	`, seller, cardID).Scan(&userCardID))

	first, err := svc.Create(ctx, seller, listing.CreateRequest{UserCardID: userCardID, Quantity: 3, PricePerUnit: 500})
	require.NoError(t, err)
	assert.Equal(t, "epic", first.PhotoCard.Grade)
	assert.Equal(t, "Stage", first.PhotoCard.Name)

	_, err = svc.Create(ctx, seller, listing.CreateRequest{UserCardID: userCardID, Quantity: 2})
	assert.ErrorIs(t, err, listing.ErrInsufficientQuantity)

	_, err = svc.Create(ctx, other, listing.CreateRequest{UserCardID: userCardID, Quantity: 1})
	assert.ErrorIs(t, err, listing.ErrForbidden)

	price := int64(650)
	updated, err := svc.Update(ctx, first.ID, seller, listing.UpdateRequest{PricePerUnit: &price})
	require.NoError(t, err)
	assert.Equal(t, int64(650), updated.PricePerUnit)

	second, err := svc.Create(ctx, seller, listing.CreateRequest{UserCardID: userCardID, Quantity: 1})
	require.NoError(t, err)

	page, err := svc.List(ctx, listing.ListQuery{Grade: "super_rare", Limit: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second.ID, page.Items[0].ID)
	assert.True(t, page.HasMore)

	_, err = svc.Cancel(ctx, first.ID, seller)
	require.NoError(t, err)

	page, err = svc.List(ctx, listing.ListQuery{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, second.ID, page.Items[0].ID)

	page, err = svc.List(ctx, listing.ListQuery{Status: "CANCELED", Genre: "콘서트"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, first.ID, page.Items[0].ID)

	_, err = svc.Create(ctx, seller, listing.CreateRequest{UserCardID: userCardID, Quantity: 3})
	assert.NoError(t, err)
}
