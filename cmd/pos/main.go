package main

import (
	"context"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/calepa/shoptill/cmd/pos/internal/view"
	"github.com/calepa/shoptill/internal/billing"
	"github.com/calepa/shoptill/internal/catalog"
	"github.com/calepa/shoptill/internal/config"
	"github.com/calepa/shoptill/internal/draft"
)

type model struct {
	recon    *catalog.Reconciler
	remote   catalog.RemoteCatalog
	composer *billing.Composer
	debounce *catalog.Debouncer
	drafts   *draft.Store

	currentView View

	billingView   view.BillingModel
	inventoryView view.InventoryModel
}

type View int

const (
	ViewMenu      View = 0
	ViewBilling   View = 1
	ViewInventory View = 2
)

func initialModel() model {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	draftPath := cfg.Draft.Path
	if draftPath == "" {
		draftPath, err = draft.DefaultPath()
		if err != nil {
			slog.Error("failed to resolve draft path", "error", err)
			os.Exit(1)
		}
	}

	client := catalog.NewClient(cfg.API.BaseURL, cfg.API.Timeout)
	recon := catalog.NewReconciler(client)
	composer := billing.NewComposer(recon)
	debounce := catalog.NewDebouncer(cfg.Search.Debounce, cfg.Search.MinChars)
	drafts := draft.NewStore(draftPath)

	return model{
		recon:       recon,
		remote:      client,
		composer:    composer,
		debounce:    debounce,
		drafts:      drafts,
		currentView: ViewMenu,
		billingView: view.NewBillingModel(recon, client, composer, debounce, drafts),
	}
}

type catalogLoadedMsg struct{}

func (m model) Init() tea.Cmd {
	// Load the catalog once at start; both screens filter the mirror
	// locally afterwards.
	recon := m.recon

	return func() tea.Msg {
		ctx := context.Background()
		recon.Load(ctx)

		return catalogLoadedMsg{}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case catalogLoadedMsg:
		return m, nil

	case tea.KeyMsg:
		if m.currentView == ViewMenu {
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "1":
				m.currentView = ViewBilling
				m.billingView = view.NewBillingModel(m.recon, m.remote, m.composer, m.debounce, m.drafts)

				return m, m.billingView.Init()
			case "2":
				m.currentView = ViewInventory
				m.inventoryView = view.NewInventoryModel(m.recon)

				return m, m.inventoryView.Init()
			}
		}
	case view.BackMsg:
		m.currentView = ViewMenu
		return m, nil
	}

	switch m.currentView {
	case ViewBilling:
		var newModel tea.Model
		newModel, cmd = m.billingView.Update(msg)
		m.billingView = newModel.(view.BillingModel)
	case ViewInventory:
		var newModel tea.Model
		newModel, cmd = m.inventoryView.Update(msg)
		m.inventoryView = newModel.(view.InventoryModel)
	}

	return m, cmd
}

func (m model) View() string {
	switch m.currentView {
	case ViewMenu:
		return lipgloss.NewStyle().Padding(2).Render(
			"Shoptill\n\n" +
				"1. Customer Billing\n" +
				"2. Inventory\n\n" +
				"q. Quit",
		)
	case ViewBilling:
		return m.billingView.View()
	case ViewInventory:
		return m.inventoryView.View()
	}

	return "Unknown View"
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		slog.Error("failed to run TUI", "error", err)
		os.Exit(1)
	}
}
