package catalog_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/calepa/shoptill/internal/catalog"
)

func seededReconciler(t *testing.T, remote *catalog.MockRemoteCatalog, products []catalog.Product) *catalog.Reconciler {
	t.Helper()

	remote.EXPECT().List(gomock.Any()).Return(products)

	r := catalog.NewReconciler(remote)
	r.Load(context.Background())

	return r
}

func TestReconciler_Load_DiscardsMalformedRecords(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := catalog.NewMockRemoteCatalog(ctrl)
	r := seededReconciler(t, remote, []catalog.Product{
		{Index: "SN-1", Name: "Quantum Laptop Pro", BillingRate: 500},
		{Index: "", Name: "Missing Index"},
		{Index: "SN-3", Name: ""},
		{Index: "SN-4", Name: "Aurora Smart Watch", BillingRate: 120},
	})

	assert.Equal(t, 2, r.Len())

	_, ok := r.FindByIndex("SN-1")
	assert.True(t, ok)

	_, ok = r.FindByIndex("SN-3")
	assert.False(t, ok)
}

func TestReconciler_IsDuplicateIndex(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := catalog.NewMockRemoteCatalog(ctrl)
	r := seededReconciler(t, remote, []catalog.Product{
		{Index: "SN-1", Name: "Quantum Laptop Pro"},
		{Index: "SN-2", Name: "Nebula Smartphone X"},
	})

	assert.True(t, r.IsDuplicateIndex("sn-1", ""), "case-insensitive collision")
	assert.True(t, r.IsDuplicateIndex(" SN-1 ", ""), "whitespace-insensitive collision")
	assert.False(t, r.IsDuplicateIndex("sn-1", "SN-1"), "the entry under edit is excluded")
	assert.True(t, r.IsDuplicateIndex("SN-2", "SN-1"), "other entries still collide during edit")
	assert.False(t, r.IsDuplicateIndex("SN-9", ""))
	assert.False(t, r.IsDuplicateIndex("", ""))
}

func TestReconciler_Add(t *testing.T) {
	type testCase struct {
		name      string
		draft     catalog.EntryDraft
		setupMock func(m *catalog.MockRemoteCatalog)
		wantErr   error
		wantLen   int
	}

	tests := []testCase{
		{
			name: "Success",
			draft: catalog.EntryDraft{
				Index:         "SN-9",
				Name:          "Pulse Wireless Earbuds",
				InventoryRate: "40",
				BillingRate:   "50",
				Quantity:      "20",
			},
			setupMock: func(m *catalog.MockRemoteCatalog) {
				m.EXPECT().
					Create(gomock.Any(), catalog.Draft{
						Index:         "SN-9",
						Name:          "Pulse Wireless Earbuds",
						Category:      "General",
						IsActive:      true,
						InventoryRate: 40,
						BillingRate:   50,
						Quantity:      20,
					}).
					Return(catalog.Product{ID: "srv-1", Index: "SN-9", Name: "Pulse Wireless Earbuds"}, nil)
			},
			wantLen: 2,
		},
		{
			name: "MissingIndexNeverReachesNetwork",
			draft: catalog.EntryDraft{
				Name:          "Pulse Wireless Earbuds",
				InventoryRate: "40",
				BillingRate:   "50",
			},
			wantErr: &catalog.ValidationError{},
			wantLen: 1,
		},
		{
			name: "NonNumericRateNeverReachesNetwork",
			draft: catalog.EntryDraft{
				Index:         "SN-9",
				Name:          "Pulse Wireless Earbuds",
				InventoryRate: "forty",
				BillingRate:   "50",
			},
			wantErr: &catalog.ValidationError{},
			wantLen: 1,
		},
		{
			name: "DuplicateIndexNeverReachesNetwork",
			draft: catalog.EntryDraft{
				Index:         "sn-1",
				Name:          "Another Laptop",
				InventoryRate: "40",
				BillingRate:   "50",
			},
			wantErr: catalog.ErrDuplicateIndex,
			wantLen: 1,
		},
		{
			name: "RemoteFailureLeavesStateUntouched",
			draft: catalog.EntryDraft{
				Index:         "SN-9",
				Name:          "Pulse Wireless Earbuds",
				InventoryRate: "40",
				BillingRate:   "50",
			},
			setupMock: func(m *catalog.MockRemoteCatalog) {
				m.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(catalog.Product{}, errors.New("server rejected"))
			},
			wantErr: errors.New("server rejected"),
			wantLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			remote := catalog.NewMockRemoteCatalog(ctrl)
			r := seededReconciler(t, remote, []catalog.Product{
				{Index: "SN-1", Name: "Quantum Laptop Pro"},
			})

			if tt.setupMock != nil {
				tt.setupMock(remote)
			}

			err := r.Add(context.Background(), tt.draft)

			if tt.wantErr != nil {
				require.Error(t, err)

				var validationErr *catalog.ValidationError
				if errors.As(tt.wantErr, &validationErr) {
					assert.ErrorAs(t, err, &validationErr)
				}
			} else {
				require.NoError(t, err)

				// New products are prepended and adopt the server id.
				added, ok := r.FindByIndex("SN-9")
				require.True(t, ok)
				assert.Equal(t, "srv-1", added.ID)
			}

			assert.Equal(t, tt.wantLen, r.Len())
		})
	}
}

func TestReconciler_Update_ZeroQuantityDeletes(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := catalog.NewMockRemoteCatalog(ctrl)
	r := seededReconciler(t, remote, []catalog.Product{
		{ID: "srv-1", Index: "SN-1", Name: "Quantum Laptop Pro", Quantity: 5},
	})

	// A quantity of exactly 0 must issue a delete, never an update.
	remote.EXPECT().
		Delete(gomock.Any(), catalog.Key{ID: "srv-1", Index: "SN-1"}).
		Return(nil)

	err := r.Update(context.Background(), "SN-1", catalog.EntryDraft{
		Index:         "SN-1",
		Name:          "Quantum Laptop Pro",
		InventoryRate: "500",
		BillingRate:   "500",
		Quantity:      "0",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, r.Len())
}

func TestReconciler_Update_ReplacesInPlace(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := catalog.NewMockRemoteCatalog(ctrl)
	r := seededReconciler(t, remote, []catalog.Product{
		{ID: "srv-1", Index: "SN-1", Name: "Quantum Laptop Pro", Quantity: 5},
	})

	remote.EXPECT().
		Update(gomock.Any(), catalog.Key{ID: "srv-1", Index: "SN-1"}, gomock.Any()).
		Return(catalog.Product{}, nil)

	err := r.Update(context.Background(), "SN-1", catalog.EntryDraft{
		Index:         "SN-1",
		Name:          "Quantum Laptop Pro Max",
		InventoryRate: "550",
		BillingRate:   "600",
		Quantity:      "4",
	})
	require.NoError(t, err)

	updated, ok := r.FindByIndex("SN-1")
	require.True(t, ok)
	assert.Equal(t, "Quantum Laptop Pro Max", updated.Name)
	assert.Equal(t, 4, updated.Quantity)
	assert.Equal(t, "srv-1", updated.ID, "server id survives the edit")
}

func TestReconciler_Update_RemoteFailureLeavesStateUntouched(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := catalog.NewMockRemoteCatalog(ctrl)
	r := seededReconciler(t, remote, []catalog.Product{
		{ID: "srv-1", Index: "SN-1", Name: "Quantum Laptop Pro", Quantity: 5},
	})

	remote.EXPECT().
		Update(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(catalog.Product{}, errors.New("boom"))

	err := r.Update(context.Background(), "SN-1", catalog.EntryDraft{
		Index:         "SN-1",
		Name:          "Renamed",
		InventoryRate: "1",
		BillingRate:   "1",
		Quantity:      "1",
	})
	require.Error(t, err)

	unchanged, ok := r.FindByIndex("SN-1")
	require.True(t, ok)
	assert.Equal(t, "Quantum Laptop Pro", unchanged.Name)
	assert.Equal(t, 5, unchanged.Quantity)
}

func TestReconciler_Remove(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := catalog.NewMockRemoteCatalog(ctrl)
	r := seededReconciler(t, remote, []catalog.Product{
		{ID: "srv-1", Index: "SN-1", Name: "Quantum Laptop Pro"},
		{ID: "srv-2", Index: "SN-2", Name: "Nebula Smartphone X"},
	})

	remote.EXPECT().
		Delete(gomock.Any(), catalog.Key{ID: "srv-2", Index: "SN-2"}).
		Return(nil)

	require.NoError(t, r.Remove(context.Background(), "SN-2"))
	assert.Equal(t, 1, r.Len())

	remote.EXPECT().
		Delete(gomock.Any(), gomock.Any()).
		Return(errors.New("boom"))

	require.Error(t, r.Remove(context.Background(), "SN-1"))
	assert.Equal(t, 1, r.Len(), "failed delete keeps the local entry")

	assert.ErrorIs(t, r.Remove(context.Background(), "SN-404"), catalog.ErrNotFound)
}

func TestReconciler_SortedView(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := catalog.NewMockRemoteCatalog(ctrl)
	r := seededReconciler(t, remote, []catalog.Product{
		{Index: "SN-3", Name: "galaxy tablet 8"},
		{Index: "SN-1", Name: "Aurora Smart Watch"},
		{Index: "SN-2", Name: "Galaxy Tablet 10"},
	})

	view := r.SortedView()
	require.Len(t, view, 3)

	assert.Equal(t, "Aurora Smart Watch", view[0].Name)
	assert.Equal(t, "Galaxy Tablet 10", view[1].Name)
	assert.Equal(t, "galaxy tablet 8", view[2].Name)
}

func TestReconciler_Suggestions(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	remote := catalog.NewMockRemoteCatalog(ctrl)
	r := seededReconciler(t, remote, []catalog.Product{
		{Index: "SN-1001", Name: "Quantum Laptop Pro"},
		{Index: "SN-1002", Name: "Quantum Laptop Air"},
		{Index: "SN-2001", Name: "Nebula Smartphone X"},
	})

	assert.Equal(t, []string{"Quantum Laptop Air", "Quantum Laptop Pro"}, r.SuggestNames("laptop"))
	assert.Equal(t, []string{"SN-1001", "SN-1002"}, r.SuggestIndexes("sn-10"))
	assert.Empty(t, r.SuggestNames(""))
}
