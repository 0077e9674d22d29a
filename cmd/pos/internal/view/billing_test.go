package view

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/calepa/shoptill/internal/billing"
	"github.com/calepa/shoptill/internal/catalog"
	"github.com/calepa/shoptill/internal/draft"
)

func testDraftStore(t *testing.T) *draft.Store {
	t.Helper()

	return draft.NewStore(filepath.Join(t.TempDir(), "draft.json"))
}

func offlineRemote() *catalog.Client {
	return catalog.NewClient("http://127.0.0.1:1", time.Second)
}

func TestNewBillingModel_RestoresEditCursor(t *testing.T) {
	store := testDraftStore(t)

	line := billing.LineItem{
		CustomerName: "Asha Rao",
		MobileNumber: "9123456780",
		ProductIndex: "SN-1",
		ProductName:  "Quantum Laptop Pro",
		Rate:         500,
		Quantity:     2,
		Total:        1000,
	}
	require.NoError(t, store.Save(draft.FormDraft{
		CustomerName: "Asha Rao",
		MobileNumber: "9123456780",
		Quantity:     "2",
		Lines:        []billing.LineItem{line},
		EditKey:      "SN-1",
	}))

	remote := offlineRemote()
	recon := catalog.NewReconciler(remote)
	comp := billing.NewComposer(recon)

	m := NewBillingModel(recon, remote, comp, catalog.NewDebouncer(0, 0), store)

	assert.Equal(t, "SN-1", comp.Editing(), "the edit cursor survives the reload")
	assert.Equal(t, "SN-1", m.picked.Index)
	assert.Equal(t, "Quantum Laptop Pro", m.picked.Name)
	assert.Equal(t, 500.0, m.picked.BillingRate, "the edited line's frozen rate, not the live catalog's")
}

func TestNewBillingModel_EditCursorForVanishedLineStaysDisarmed(t *testing.T) {
	store := testDraftStore(t)

	require.NoError(t, store.Save(draft.FormDraft{
		CustomerName: "Asha Rao",
		EditKey:      "SN-1",
	}))

	remote := offlineRemote()
	recon := catalog.NewReconciler(remote)
	comp := billing.NewComposer(recon)

	NewBillingModel(recon, remote, comp, catalog.NewDebouncer(0, 0), store)

	assert.Empty(t, comp.Editing())
}

func TestNewBillingModel_RestoresChosenProduct(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := testDraftStore(t)

	require.NoError(t, store.Save(draft.FormDraft{
		CustomerName: "Asha Rao",
		MobileNumber: "9123456780",
		ProductIndex: "SN-1",
		ProductName:  "Quantum Laptop Pro",
		Quantity:     "2",
	}))

	remote := catalog.NewMockRemoteCatalog(ctrl)
	recon := catalog.NewReconciler(remote)
	comp := billing.NewComposer(recon)

	m := NewBillingModel(recon, remote, comp, catalog.NewDebouncer(0, 0), store)

	// The pick is carried even though the catalog has not loaded yet.
	assert.Equal(t, "SN-1", m.picked.Index)
	assert.Equal(t, "Quantum Laptop Pro", m.picked.Name)

	remote.EXPECT().List(gomock.Any()).Return([]catalog.Product{
		{ID: "srv-1", Index: "SN-1", Name: "Quantum Laptop Pro", BillingRate: 500, Quantity: 7},
	})
	recon.Load(context.Background())

	// Committing after the load picks up the live rate.
	model, _ := m.commitLine()
	got := model.(BillingModel)
	assert.Equal(t, bilStateLines, got.state)

	lines := comp.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 500.0, lines[0].Rate)
	assert.Equal(t, 1000.0, lines[0].Total)
}
