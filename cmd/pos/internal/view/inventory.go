package view

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/calepa/shoptill/internal/catalog"
)

type invState int

const (
	invStateBrowse invState = iota
	invStatePick
	invStateForm
	invStateConfirmDelete
)

type InventoryModel struct {
	CommonModel
	recon *catalog.Reconciler

	state   invState
	table   table.Model
	view    []catalog.Product
	form    *huh.Form
	loading bool
	status  string

	pickInput   textinput.Model
	suggestions []string
	suggestIdx  int

	// editing is the index of the product under edit; empty means the form
	// is adding a new product.
	editing      string
	deleteTarget string

	// Form field bindings
	formIndex    string
	formName     string
	formInvRate  string
	formBillRate string
	formQty      string
	confirmed    bool
}

func NewInventoryModel(recon *catalog.Reconciler) InventoryModel {
	columns := []table.Column{
		{Title: "ID", Width: 12},
		{Title: "Product", Width: 32},
		{Title: "Inv Rate", Width: 10},
		{Title: "Bill Rate", Width: 10},
		{Title: "Qty", Width: 6},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	in := textinput.New()
	in.Placeholder = "Product id or name"
	in.CharLimit = 64
	in.Width = 40

	return InventoryModel{
		recon:     recon,
		table:     t,
		pickInput: in,
		loading:   true,
	}
}

func (m InventoryModel) Title() string { return "Inventory" }

func (m InventoryModel) ShortHelp() string {
	switch m.state {
	case invStateBrowse:
		return "Esc: back | a: add | e: edit | d: delete | r: reload"
	case invStatePick:
		return "Esc: cancel | Up/Down: suggestions | Enter: select"
	case invStateForm:
		return "Esc: cancel | Enter/Tab: navigate form"
	case invStateConfirmDelete:
		return "Confirm deletion"
	}

	return ""
}

func (m InventoryModel) Init() tea.Cmd {
	return m.loadCmd()
}

func (m InventoryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case invLoadedMsg:
		m.loading = false
		m.refreshTable()

		if len(m.view) == 0 {
			m.status = "Catalog is empty."
		}

		return m, nil

	case invSavedMsg:
		m.state = invStateBrowse
		m.form = nil
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.status = "Saved."
		m.refreshTable()

		return m, nil

	case invDeletedMsg:
		m.state = invStateBrowse
		m.table.Focus()

		if msg.err != nil {
			m.status = fmt.Sprintf("Error: %v", msg.err)
			return m, nil
		}

		m.status = "Deleted."
		m.refreshTable()

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 10)
		return m, nil
	}

	switch m.state {
	case invStateBrowse:
		return m.updateBrowse(msg)
	case invStatePick:
		return m.updatePick(msg)
	case invStateForm:
		return m.updateForm(msg)
	case invStateConfirmDelete:
		return m.updateConfirmDelete(msg)
	}

	return m, nil
}

func (m InventoryModel) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "r":
			m.loading = true
			return m, m.loadCmd()
		case "a":
			return m.enterPick()
		case "e":
			if p, ok := m.selectedProduct(); ok {
				return m.enterForm(p.Index, "")
			}
		case "d":
			if p, ok := m.selectedProduct(); ok {
				return m.enterConfirmDelete(p)
			}
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m InventoryModel) selectedProduct() (catalog.Product, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.view) {
		return catalog.Product{}, false
	}

	return m.view[idx], true
}

func (m InventoryModel) enterPick() (tea.Model, tea.Cmd) {
	m.pickInput.SetValue("")
	m.pickInput.Focus()
	m.suggestions = nil
	m.suggestIdx = -1
	m.state = invStatePick
	m.table.Blur()

	return m, textinput.Blink
}

func (m InventoryModel) updatePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = invStateBrowse
			m.pickInput.Blur()
			m.table.Focus()

			return m, nil
		case "up":
			if len(m.suggestions) > 0 && m.suggestIdx > 0 {
				m.suggestIdx--
			}

			return m, nil
		case "down":
			if m.suggestIdx < len(m.suggestions)-1 {
				m.suggestIdx++
			}

			return m, nil
		case "enter":
			choice := strings.TrimSpace(m.pickInput.Value())
			if m.suggestIdx >= 0 && m.suggestIdx < len(m.suggestions) {
				choice = m.suggestions[m.suggestIdx]
			}

			m.pickInput.Blur()

			return m.choosePick(choice)
		}
	}

	var cmd tea.Cmd
	m.pickInput, cmd = m.pickInput.Update(msg)
	m.suggestIdx = -1
	m.suggestions = localSuggestions(m.recon, m.pickInput.Value())

	return m, cmd
}

// choosePick opens the product form from the typed id or name. An exact
// match auto-fills every field from the existing product and the save runs
// as an update; anything else seeds a blank add form with the typed id.
func (m InventoryModel) choosePick(choice string) (tea.Model, tea.Cmd) {
	if choice != "" {
		if p, ok := m.recon.FindByIndex(choice); ok {
			return m.enterForm(p.Index, "")
		}

		if p, ok := m.recon.FindByName(choice); ok {
			return m.enterForm(p.Index, "")
		}
	}

	return m.enterForm("", choice)
}

func (m InventoryModel) enterForm(editing, seedIndex string) (tea.Model, tea.Cmd) {
	m.editing = editing
	m.formIndex = seedIndex
	m.formName = ""
	m.formInvRate = ""
	m.formBillRate = ""
	m.formQty = ""

	if editing != "" {
		if p, ok := m.recon.FindByIndex(editing); ok {
			m.formIndex = p.Index
			m.formName = p.Name
			m.formInvRate = FormatMoney(p.InventoryRate)
			m.formBillRate = FormatMoney(p.BillingRate)
			m.formQty = strconv.Itoa(p.Quantity)
		}
	}

	recon := m.recon

	qtyTitle := "Quantity"
	if editing != "" {
		qtyTitle = "Quantity (0 deletes the product)"
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("index").
				Title("Product Id").
				Value(&m.formIndex).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("id cannot be empty")
					}
					if recon.IsDuplicateIndex(s, editing) {
						return fmt.Errorf("id already exists")
					}
					return nil
				}),

			huh.NewInput().
				Key("name").
				Title("Product Name").
				Value(&m.formName).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("name cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("inventory_rate").
				Title("Inventory Rate").
				Value(&m.formInvRate).
				Validate(validateNumber(false)),

			huh.NewInput().
				Key("billing_rate").
				Title("Billing Rate").
				Value(&m.formBillRate).
				Validate(validateNumber(false)),

			huh.NewInput().
				Key("quantity").
				Title(qtyTitle).
				Placeholder("10").
				Value(&m.formQty).
				Validate(validateQuantity),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = invStateForm
	m.table.Blur()

	return m, m.form.Init()
}

func (m InventoryModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = invStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	return m, m.saveCmd()
}

func (m InventoryModel) enterConfirmDelete(p catalog.Product) (tea.Model, tea.Cmd) {
	m.deleteTarget = p.Index
	m.confirmed = false

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Key("confirm").
				Title(fmt.Sprintf("Delete %q (%s)?", p.Name, p.Index)).
				Affirmative("Delete").
				Negative("Keep").
				Value(&m.confirmed),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = invStateConfirmDelete
	m.table.Blur()

	return m, m.form.Init()
}

func (m InventoryModel) updateConfirmDelete(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.state = invStateBrowse
			m.form = nil
			m.table.Focus()

			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State != huh.StateCompleted {
		return m, cmd
	}

	m.form = nil

	if !m.confirmed {
		m.state = invStateBrowse
		m.table.Focus()

		return m, nil
	}

	return m, m.deleteCmd()
}

func (m InventoryModel) View() string {
	if m.loading {
		return lipgloss.NewStyle().Padding(2).Render("Loading catalog...")
	}

	if m.state == invStatePick {
		prompt := "Add or update product\n\n" + m.pickInput.View()

		if len(m.suggestions) > 0 {
			var b strings.Builder

			for i, s := range m.suggestions {
				if i == m.suggestIdx {
					b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("205")).Bold(true).Render("> "+s) + "\n")
					continue
				}

				b.WriteString("  " + s + "\n")
			}

			prompt += "\n\n" + b.String()
		}

		return lipgloss.NewStyle().Padding(1).Render(prompt)
	}

	statusLine := ""
	if m.status != "" {
		statusLine = lipgloss.NewStyle().Faint(true).Render(m.status) + "\n"
	}

	tableView := lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		Render(m.table.View())

	content := statusLine + tableView

	if (m.state == invStateForm || m.state == invStateConfirmDelete) && m.form != nil {
		title := "Add Product"
		if m.state == invStateConfirmDelete {
			title = "Delete Product"
		} else if m.editing != "" {
			title = "Update Product"
		}

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(fmt.Sprintf("%s\n\n%s", title, m.form.View()))

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m *InventoryModel) refreshTable() {
	m.view = m.recon.SortedView()

	rows := make([]table.Row, 0, len(m.view))
	for _, p := range m.view {
		rows = append(rows, table.Row{
			p.Index,
			p.Name,
			FormatMoney(p.InventoryRate),
			FormatMoney(p.BillingRate),
			strconv.Itoa(p.Quantity),
		})
	}

	m.table.SetRows(rows)
}

func validateNumber(allowEmpty bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if allowEmpty {
				return nil
			}

			return fmt.Errorf("required")
		}

		if _, err := strconv.ParseFloat(s, 64); err != nil {
			return fmt.Errorf("must be a number")
		}

		return nil
	}
}

func validateQuantity(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil // defaults to 10
	}

	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative integer")
	}

	return nil
}

// Messages

type invLoadedMsg struct{}

func (m InventoryModel) loadCmd() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		m.recon.Load(ctx)

		return invLoadedMsg{}
	}
}

type invSavedMsg struct {
	err error
}

func (m InventoryModel) saveCmd() tea.Cmd {
	editing := m.editing
	draft := catalog.EntryDraft{
		Index:         m.formIndex,
		Name:          m.formName,
		InventoryRate: m.formInvRate,
		BillingRate:   m.formBillRate,
		Quantity:      m.formQty,
	}
	recon := m.recon

	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		if editing == "" {
			return invSavedMsg{err: recon.Add(ctx, draft)}
		}

		return invSavedMsg{err: recon.Update(ctx, editing, draft)}
	}
}

type invDeletedMsg struct {
	err error
}

func (m InventoryModel) deleteCmd() tea.Cmd {
	target := m.deleteTarget
	recon := m.recon

	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		return invDeletedMsg{err: recon.Remove(ctx, target)}
	}
}
