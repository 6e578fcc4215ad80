package repository

import (
	"context"
	"purchase-options-demo/internal/model"
	"purchase-options-demo/internal/testdb"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const contactKey = model.SubscriptionPhoneMetaKey

func newOrderRepos(t *testing.T) map[string]OrderRepository {
	t.Helper()
	repos := map[string]OrderRepository{}
	for _, layout := range []string{OrderStorageHPOS, OrderStorageLegacy} {
		repo, err := NewOrderRepository(testdb.Open(t), layout)
		require.NoError(t, err)
		repos[layout] = repo
	}
	return repos
}

func TestNewOrderRepository_UnknownLayout(t *testing.T) {
	repo, err := NewOrderRepository(nil, "custom")

	assert.Nil(t, repo)
	assert.ErrorIs(t, err, ErrUnknownOrderStorage)
}

func TestOrderRepository_CreateAndFind(t *testing.T) {
	for layout, repo := range newOrderRepos(t) {
		t.Run(layout, func(t *testing.T) {
			ctx := context.Background()
			createdAt := time.Date(2024, time.May, 4, 8, 30, 0, 0, time.UTC)
			order := &model.Order{
				Status:    model.OrderStatusProcessing,
				Currency:  "USD",
				Total:     decimal.RequireFromString("34.00"),
				Billing:   model.Billing{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Phone: "555-0100"},
				CreatedAt: createdAt,
				Meta:      map[string]string{contactKey: "555-0100"},
				Items: []*model.OrderItem{{
					ProductID: "oat_milk",
					Name:      "Oat Milk 6-pack",
					Quantity:  1,
					Subtotal:  decimal.NewFromInt(40),
					Total:     decimal.NewFromInt(34),
					Meta:      []model.MetaEntry{{Key: "Purchase Type", Value: "Subscription"}},
				}},
			}

			require.NoError(t, repo.Create(ctx, nil, order))
			require.NotZero(t, order.ID)

			found, err := repo.FindByID(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, model.OrderStatusProcessing, found.Status)
			assert.Equal(t, "USD", found.Currency)
			assert.True(t, found.Total.Equal(decimal.NewFromInt(34)))
			assert.Equal(t, order.Billing, found.Billing)
			assert.True(t, found.CreatedAt.Equal(createdAt))
			assert.Equal(t, "555-0100", found.GetMeta(contactKey))
			require.Len(t, found.Items, 1)
			assert.Equal(t, "oat_milk", found.Items[0].ProductID)
			assert.Equal(t, int32(1), found.Items[0].Quantity)
			assert.True(t, found.Items[0].Subtotal.Equal(decimal.NewFromInt(40)))
			assert.Equal(t, []model.MetaEntry{{Key: "Purchase Type", Value: "Subscription"}}, found.Items[0].Meta)

			_, err = repo.FindByID(ctx, order.ID+100)
			assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
		})
	}
}

func TestOrderRepository_Meta(t *testing.T) {
	for layout, repo := range newOrderRepos(t) {
		t.Run(layout, func(t *testing.T) {
			ctx := context.Background()
			order := &model.Order{Billing: model.Billing{FirstName: "Ada"}}
			require.NoError(t, repo.Create(ctx, nil, order))
			assert.Equal(t, model.OrderStatusPending, order.Status)

			value, err := repo.GetMeta(ctx, order.ID, contactKey)
			require.NoError(t, err)
			assert.Empty(t, value)

			require.NoError(t, repo.UpdateMeta(ctx, order.ID, contactKey, "555-0100"))
			require.NoError(t, repo.UpdateMeta(ctx, order.ID, contactKey, "555-0100"))
			require.NoError(t, repo.UpdateMeta(ctx, order.ID, contactKey, "555-0199"))

			value, err = repo.GetMeta(ctx, order.ID, contactKey)
			require.NoError(t, err)
			assert.Equal(t, "555-0199", value)

			_, total, err := repo.FindWithMeta(ctx, model.OrderMetaQuery{MetaKey: contactKey})
			require.NoError(t, err)
			assert.Equal(t, int64(1), total)
		})
	}
}

func TestOrderRepository_FindWithMeta(t *testing.T) {
	base := time.Date(2024, time.January, 10, 12, 0, 0, 0, time.UTC)

	// created out of date order; two share a timestamp
	fixtures := []struct {
		status  string
		created time.Time
		phone   *string
	}{
		{status: model.OrderStatusProcessing, created: base.Add(48 * time.Hour), phone: ptr("555-0001")},
		{status: model.OrderStatusCompleted, created: base, phone: ptr("555-0002")},
		{status: model.OrderStatusOnHold, created: base.Add(24 * time.Hour), phone: ptr("555-0003")},
		{status: model.OrderStatusRefunded, created: base.Add(24 * time.Hour), phone: ptr("555-0004")},
		{status: model.OrderStatusProcessing, created: base.Add(72 * time.Hour), phone: nil},
		{status: model.OrderStatusProcessing, created: base.Add(96 * time.Hour), phone: ptr("")},
		{status: "checkout-draft", created: base.Add(120 * time.Hour), phone: ptr("555-0007")},
	}

	for layout, repo := range newOrderRepos(t) {
		t.Run(layout, func(t *testing.T) {
			ctx := context.Background()

			ids := make([]uint, len(fixtures))
			for i, f := range fixtures {
				order := &model.Order{Status: f.status, CreatedAt: f.created}
				if f.phone != nil {
					order.Meta = map[string]string{contactKey: *f.phone}
				}
				require.NoError(t, repo.Create(ctx, nil, order))
				ids[i] = order.ID
			}

			tests := []struct {
				name  string
				query model.OrderMetaQuery
				want  []uint
			}{
				{
					name:  "date descending, ties by id descending",
					query: model.OrderMetaQuery{MetaKey: contactKey, OrderBy: model.OrderSortByDate, Descending: true},
					want:  []uint{ids[0], ids[3], ids[2], ids[1]},
				},
				{
					name:  "date ascending, ties by id ascending",
					query: model.OrderMetaQuery{MetaKey: contactKey, OrderBy: model.OrderSortByDate},
					want:  []uint{ids[1], ids[2], ids[3], ids[0]},
				},
				{
					name:  "id ascending",
					query: model.OrderMetaQuery{MetaKey: contactKey, OrderBy: model.OrderSortByID},
					want:  []uint{ids[0], ids[1], ids[2], ids[3]},
				},
				{
					name:  "second page",
					query: model.OrderMetaQuery{MetaKey: contactKey, OrderBy: model.OrderSortByDate, Descending: true, Page: 2, PerPage: 3},
					want:  []uint{ids[1]},
				},
				{
					name:  "page past the end",
					query: model.OrderMetaQuery{MetaKey: contactKey, OrderBy: model.OrderSortByID, Page: 5, PerPage: 3},
					want:  []uint{},
				},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					orders, total, err := repo.FindWithMeta(ctx, tt.query)
					require.NoError(t, err)
					assert.Equal(t, int64(4), total)

					got := make([]uint, 0, len(orders))
					for _, o := range orders {
						got = append(got, o.ID)
					}
					assert.Equal(t, tt.want, got)
				})
			}
		})
	}
}

func TestOrderRepository_CreateInTransaction(t *testing.T) {
	db := testdb.Open(t)
	repo := NewHPOSOrderRepository(db)
	ctx := context.Background()

	order := &model.Order{Meta: map[string]string{contactKey: "555-0100"}}
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := repo.Create(ctx, tx, order); err != nil {
			return err
		}
		return gorm.ErrInvalidTransaction
	})
	require.ErrorIs(t, err, gorm.ErrInvalidTransaction)

	_, total, err := repo.FindWithMeta(ctx, model.OrderMetaQuery{MetaKey: contactKey})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestOrderRepository_FindWithMetaUnboundedAcrossBatches(t *testing.T) {
	previous := loadBatchSize
	loadBatchSize = 2
	t.Cleanup(func() { loadBatchSize = previous })

	for layout, repo := range newOrderRepos(t) {
		t.Run(layout, func(t *testing.T) {
			ctx := context.Background()

			want := make([]uint, 0, 5)
			for i := 0; i < 5; i++ {
				order := &model.Order{
					Status: model.OrderStatusProcessing,
					Meta:   map[string]string{contactKey: "555-010" + strconv.Itoa(i)},
					Items: []*model.OrderItem{{
						ProductID: "green_tea",
						Name:      "Green Tea",
						Quantity:  int32(i + 1),
						Total:     decimal.NewFromInt(12),
					}},
				}
				require.NoError(t, repo.Create(ctx, nil, order))
				want = append(want, order.ID)
			}

			orders, total, err := repo.FindWithMeta(ctx, model.OrderMetaQuery{MetaKey: contactKey, OrderBy: model.OrderSortByID})
			require.NoError(t, err)
			assert.Equal(t, int64(5), total)
			require.Len(t, orders, 5)

			for i, o := range orders {
				assert.Equal(t, want[i], o.ID)
				assert.Equal(t, "555-010"+strconv.Itoa(i), o.GetMeta(contactKey))
				require.Len(t, o.Items, 1)
				assert.Equal(t, int32(i+1), o.Items[0].Quantity)
				assert.Equal(t, "green_tea", o.Items[0].ProductID)
			}
		})
	}
}

func TestOrderRepository_DuplicateMetaFirstRowWins(t *testing.T) {
	tests := []struct {
		layout    string
		duplicate func(orderID uint, key, value string) any
	}{
		{
			layout: OrderStorageHPOS,
			duplicate: func(orderID uint, key, value string) any {
				return &model.OrderMeta{OrderID: orderID, MetaKey: key, MetaValue: value}
			},
		},
		{
			layout: OrderStorageLegacy,
			duplicate: func(orderID uint, key, value string) any {
				return &model.PostMeta{PostID: orderID, MetaKey: key, MetaValue: value}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.layout, func(t *testing.T) {
			db := testdb.Open(t)
			repo, err := NewOrderRepository(db, tt.layout)
			require.NoError(t, err)
			ctx := context.Background()

			order := &model.Order{Meta: map[string]string{contactKey: "555-0100"}}
			require.NoError(t, repo.Create(ctx, nil, order))
			require.NoError(t, db.Create(tt.duplicate(order.ID, contactKey, "555-0199")).Error)

			value, err := repo.GetMeta(ctx, order.ID, contactKey)
			require.NoError(t, err)
			assert.Equal(t, "555-0100", value)

			found, err := repo.FindByID(ctx, order.ID)
			require.NoError(t, err)
			assert.Equal(t, value, found.GetMeta(contactKey))
		})
	}
}

func ptr(s string) *string {
	return &s
}
