package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/calepa/shoptill/internal/billing"
	"github.com/calepa/shoptill/internal/catalog"
	"github.com/calepa/shoptill/internal/draft"
)

type bilState int

const (
	bilStateLines bilState = iota
	bilStatePick
	bilStateForm
	bilStateInvoice
)

const maxSuggestions = 8

type BillingModel struct {
	CommonModel
	recon    *catalog.Reconciler
	remote   catalog.RemoteCatalog
	composer *billing.Composer
	debounce *catalog.Debouncer
	drafts   *draft.Store

	state bilState
	table table.Model
	lines []billing.LineItem
	form  *huh.Form

	pickInput   textinput.Model
	suggestions []string
	suggestIdx  int

	picked  catalog.Product
	printed bool
	status  string
	invoice string

	// Form field bindings
	formCustomer string
	formMobile   string
	formQty      string
	formDiscount string
}

func NewBillingModel(
	recon *catalog.Reconciler,
	remote catalog.RemoteCatalog,
	composer *billing.Composer,
	debounce *catalog.Debouncer,
	drafts *draft.Store,
) BillingModel {
	columns := []table.Column{
		{Title: "ID", Width: 12},
		{Title: "Product", Width: 30},
		{Title: "Qty", Width: 6},
		{Title: "Rate", Width: 10},
		{Title: "Total", Width: 12},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
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
	in.Placeholder = "Product name or id"
	in.CharLimit = 64
	in.Width = 40

	m := BillingModel{
		recon:     recon,
		remote:    remote,
		composer:  composer,
		debounce:  debounce,
		drafts:    drafts,
		table:     t,
		pickInput: in,
	}

	// Resume the saved draft so a restarted session picks up the bill
	// where it left off.
	d := drafts.Restore()
	m.formCustomer = d.CustomerName
	m.formMobile = d.MobileNumber
	m.formQty = d.Quantity
	m.formDiscount = d.DiscountPercent
	m.printed = d.Printed
	composer.SetLines(d.Lines)

	// The edit cursor and the chosen product survive the reload too.
	// SetLines disarms any edit, so re-arm it from the saved key; a key
	// whose line no longer exists stays disarmed.
	if d.EditKey != "" {
		if line, ok := composer.BeginEdit(d.EditKey); ok {
			m.picked = catalog.Product{
				Index:       line.ProductIndex,
				Name:        line.ProductName,
				BillingRate: line.Rate,
			}
		}
	} else if d.ProductIndex != "" || d.ProductName != "" {
		if res, ok := composer.Resolve(d.ProductName, d.ProductIndex); ok {
			m.picked = res.Product
		} else {
			// The catalog has not loaded yet; carry the identifying fields
			// and let commitLine re-resolve the rate.
			m.picked = catalog.Product{Index: d.ProductIndex, Name: d.ProductName}
		}
	}

	m.refreshTable()

	return m
}

func (m BillingModel) Title() string { return "Customer Billing" }

func (m BillingModel) ShortHelp() string {
	switch m.state {
	case bilStateLines:
		help := "Esc: back | a: add item | e: edit | x: remove | p: print"
		if m.printed {
			help += " | c: clear"
		}

		return help
	case bilStatePick:
		return "Esc: cancel | Up/Down: suggestions | Enter: select"
	case bilStateForm:
		return "Esc: cancel | Enter/Tab: navigate form"
	case bilStateInvoice:
		return "Any key: back to bill"
	}

	return ""
}

func (m BillingModel) Init() tea.Cmd {
	return nil
}

func (m BillingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case searchTickMsg:
		// Only the latest keystroke's timer fires a request; earlier
		// timers land with a stale generation and die here.
		if m.state == bilStatePick && m.debounce.Current(msg.gen) {
			return m, m.searchCmd(msg.gen, msg.query)
		}

		return m, nil

	case searchResultMsg:
		if m.state == bilStatePick && m.debounce.Current(msg.gen) {
			m.mergeSuggestions(msg.products)
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.table.SetHeight(msg.Height - 14)
		return m, nil
	}

	switch m.state {
	case bilStateLines:
		return m.updateLines(msg)
	case bilStatePick:
		return m.updatePick(msg)
	case bilStateForm:
		return m.updateForm(msg)
	case bilStateInvoice:
		if _, ok := msg.(tea.KeyMsg); ok {
			m.state = bilStateLines
		}

		return m, nil
	}

	return m, nil
}

func (m BillingModel) updateLines(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			return m, Back
		case "a":
			return m.enterPick()
		case "e":
			if line, ok := m.selectedLine(); ok {
				return m.beginEdit(line)
			}
		case "x":
			if line, ok := m.selectedLine(); ok {
				m.composer.RemoveLine(line.ProductIndex)
				m.refreshTable()
				m.saveDraft()
			}

			return m, nil
		case "p":
			if len(m.lines) == 0 {
				m.status = "Nothing to print."
				return m, nil
			}

			m.invoice = m.renderInvoice()
			m.printed = true
			m.state = bilStateInvoice
			m.saveDraft()

			return m, nil
		case "c":
			if !m.printed {
				m.status = "Print the bill before clearing it."
				return m, nil
			}

			return m.clearBill()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)

	return m, cmd
}

func (m BillingModel) selectedLine() (billing.LineItem, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.lines) {
		return billing.LineItem{}, false
	}

	return m.lines[idx], true
}

func (m BillingModel) enterPick() (tea.Model, tea.Cmd) {
	m.composer.CancelEdit()
	m.pickInput.SetValue("")
	m.pickInput.Focus()
	m.suggestions = nil
	m.suggestIdx = -1
	m.state = bilStatePick
	m.table.Blur()

	return m, textinput.Blink
}

func (m BillingModel) updatePick(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "esc":
			m.state = bilStateLines
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

			return m.choose(choice)
		}
	}

	var cmd tea.Cmd

	before := m.pickInput.Value()
	m.pickInput, cmd = m.pickInput.Update(msg)
	query := m.pickInput.Value()

	if query == before {
		return m, cmd
	}

	m.suggestIdx = -1
	m.suggestions = localSuggestions(m.recon, query)

	gen, ok := m.debounce.Note(query)
	if !ok {
		return m, cmd
	}

	tick := tea.Tick(m.debounce.Delay(), func(time.Time) tea.Msg {
		return searchTickMsg{gen: gen, query: query}
	})

	return m, tea.Batch(cmd, tick)
}

func localSuggestions(recon *catalog.Reconciler, query string) []string {
	if strings.TrimSpace(query) == "" {
		return nil
	}

	merged := recon.SuggestIndexes(query)
	merged = append(merged, recon.SuggestNames(query)...)

	if len(merged) > maxSuggestions {
		merged = merged[:maxSuggestions]
	}

	return merged
}

func (m *BillingModel) mergeSuggestions(products []catalog.Product) {
	for _, p := range products {
		if p.Name == "" {
			continue
		}

		exists := false

		for _, s := range m.suggestions {
			if strings.EqualFold(s, p.Name) || strings.EqualFold(s, p.Index) {
				exists = true
				break
			}
		}

		if !exists && len(m.suggestions) < maxSuggestions {
			m.suggestions = append(m.suggestions, p.Name)
		}
	}
}

func (m BillingModel) choose(choice string) (tea.Model, tea.Cmd) {
	if choice == "" {
		return m, nil
	}

	res, ok := m.composer.Resolve(choice, choice)
	if !ok {
		m.status = fmt.Sprintf("No product matches %q exactly.", choice)
		return m, nil
	}

	m.picked = res.Product
	m.status = ""

	if strings.TrimSpace(m.formQty) == "" {
		m.formQty = strconv.Itoa(res.Quantity)
	}

	m.pickInput.Blur()

	return m.enterForm()
}

func (m BillingModel) beginEdit(line billing.LineItem) (tea.Model, tea.Cmd) {
	if _, ok := m.composer.BeginEdit(line.ProductIndex); !ok {
		return m, nil
	}

	// The rate stays frozen at what the line was added with, so the edit
	// form works against the line's own snapshot, not the live catalog.
	m.picked = catalog.Product{
		Index:       line.ProductIndex,
		Name:        line.ProductName,
		BillingRate: line.Rate,
	}
	m.formCustomer = line.CustomerName
	m.formMobile = line.MobileNumber
	m.formQty = strconv.Itoa(line.Quantity)
	m.saveDraft()

	return m.enterForm()
}

func (m BillingModel) enterForm() (tea.Model, tea.Cmd) {
	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("customer").
				Title("Customer Name").
				Value(&m.formCustomer).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return fmt.Errorf("customer name cannot be empty")
					}
					return nil
				}),

			huh.NewInput().
				Key("mobile").
				Title("Mobile Number").
				Placeholder("9876543210").
				Value(&m.formMobile).
				Validate(func(s string) error {
					if !billing.ValidMobile(billing.NormalizeMobile(s)) {
						return fmt.Errorf("must be 10 digits starting 6-9")
					}
					return nil
				}),

			huh.NewInput().
				Key("quantity").
				Title("Product Quantity").
				Value(&m.formQty).
				Validate(func(s string) error {
					n, err := strconv.Atoi(strings.TrimSpace(s))
					if err != nil || n <= 0 {
						return fmt.Errorf("must be a positive integer")
					}
					return nil
				}),

			huh.NewInput().
				Key("discount").
				Title("Discount % (0-100)").
				Value(&m.formDiscount).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return nil
					}
					if _, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
						return fmt.Errorf("must be a number")
					}
					return nil
				}),
		),
	).WithWidth(50).WithShowHelp(false)

	m.state = bilStateForm

	return m, m.form.Init()
}

func (m BillingModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.Type == tea.KeyEsc {
			m.composer.CancelEdit()
			m.state = bilStateLines
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

	return m.commitLine()
}

// commitLine runs synchronously: lines are session-local, so there is no
// network call to suspend on.
func (m BillingModel) commitLine() (tea.Model, tea.Cmd) {
	quantity, _ := strconv.Atoi(strings.TrimSpace(m.formQty))

	// A pick restored from a draft carries no rate until the catalog has
	// loaded; re-resolve it now that it has.
	picked := m.picked
	if picked.BillingRate == 0 {
		if res, ok := m.composer.Resolve(picked.Name, picked.Index); ok {
			picked = res.Product
		}
	}

	err := m.composer.AddLine(billing.LineParams{
		CustomerName: m.formCustomer,
		MobileNumber: billing.NormalizeMobile(m.formMobile),
		Product:      picked,
		Quantity:     quantity,
	})
	if err != nil {
		m.status = fmt.Sprintf("Error: %v", err)
	} else {
		m.status = ""
		m.formQty = ""
		m.picked = catalog.Product{}
	}

	m.state = bilStateLines
	m.table.Focus()
	m.refreshTable()
	m.saveDraft()

	return m, nil
}

func (m BillingModel) clearBill() (tea.Model, tea.Cmd) {
	m.composer.Clear()
	m.formCustomer = ""
	m.formMobile = ""
	m.formQty = ""
	m.formDiscount = ""
	m.picked = catalog.Product{}
	m.printed = false
	m.invoice = ""
	m.status = "Bill cleared."
	m.refreshTable()

	if err := m.drafts.Clear(); err != nil {
		m.status = fmt.Sprintf("Error clearing draft: %v", err)
	}

	return m, nil
}

func (m BillingModel) View() string {
	switch m.state {
	case bilStateInvoice:
		return lipgloss.NewStyle().Padding(1).Render(m.invoice)

	case bilStatePick:
		prompt := "Add item\n\n" + m.pickInput.View()

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

		if m.status != "" {
			prompt += "\n" + lipgloss.NewStyle().Faint(true).Render(m.status)
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

	content := statusLine + tableView + "\n" + m.totalsView()

	if m.state == bilStateForm && m.form != nil {
		info := fmt.Sprintf("Product: %s (%s)  Rate: %s",
			m.picked.Name, m.picked.Index, FormatMoney(m.picked.BillingRate))

		panel := lipgloss.NewStyle().
			Padding(1, 2).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Width(54).
			Render(info + "\n\n" + m.form.View())

		content = lipgloss.JoinHorizontal(lipgloss.Top, content, panel)
	}

	return lipgloss.NewStyle().Padding(1).Render(content)
}

func (m BillingModel) totalsView() string {
	totals := m.composer.Totals(m.discountValue())

	return fmt.Sprintf(
		"Grand Total: %s   Discount: %s%%   Final Total: %s",
		FormatDecimal(totals.Grand),
		FormatMoney(billing.ClampDiscount(m.discountValue())),
		FormatDecimal(totals.Final),
	)
}

func (m BillingModel) discountValue() float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(m.formDiscount), 64)
	if err != nil {
		return 0
	}

	return v
}

func (m BillingModel) renderInvoice() string {
	totals := m.composer.Totals(m.discountValue())

	var b strings.Builder

	b.WriteString("INVOICE\n\n")

	if len(m.lines) > 0 {
		b.WriteString(fmt.Sprintf("Customer: %s   Mobile: %s\n\n",
			m.lines[0].CustomerName, m.lines[0].MobileNumber))
	}

	for _, l := range m.lines {
		b.WriteString(fmt.Sprintf("%-12s %-30s x%-4d %10s %12s\n",
			l.ProductIndex, l.ProductName, l.Quantity,
			FormatMoney(l.Rate), FormatMoney(l.Total)))
	}

	b.WriteString(fmt.Sprintf("\nGrand Total: %s\n", FormatDecimal(totals.Grand)))
	b.WriteString(fmt.Sprintf("Discount:    %s%%\n", FormatMoney(billing.ClampDiscount(m.discountValue()))))
	b.WriteString(fmt.Sprintf("Final Total: %s\n", FormatDecimal(totals.Final)))
	b.WriteString("\nPress any key to return. Press c on the bill to clear it.")

	return lipgloss.NewStyle().
		Padding(1, 2).
		BorderStyle(lipgloss.DoubleBorder()).
		Render(b.String())
}

func (m *BillingModel) refreshTable() {
	m.lines = m.composer.Lines()

	rows := make([]table.Row, 0, len(m.lines))
	for _, l := range m.lines {
		rows = append(rows, table.Row{
			l.ProductIndex,
			l.ProductName,
			strconv.Itoa(l.Quantity),
			FormatMoney(l.Rate),
			FormatMoney(l.Total),
		})
	}

	m.table.SetRows(rows)
}

func (m *BillingModel) saveDraft() {
	d := draft.FormDraft{
		CustomerName:    m.formCustomer,
		MobileNumber:    m.formMobile,
		ProductIndex:    m.picked.Index,
		ProductName:     m.picked.Name,
		Quantity:        m.formQty,
		DiscountPercent: m.formDiscount,
		Lines:           m.composer.Lines(),
		EditKey:         m.composer.Editing(),
		Printed:         m.printed,
	}

	if err := m.drafts.Save(d); err != nil {
		m.status = fmt.Sprintf("Error saving draft: %v", err)
	}
}

// Messages

type searchTickMsg struct {
	gen   uint64
	query string
}

type searchResultMsg struct {
	gen      uint64
	products []catalog.Product
}

func (m BillingModel) searchCmd(gen uint64, query string) tea.Cmd {
	remote := m.remote

	return func() tea.Msg {
		ctx, cancel := ApiCtx()
		defer cancel()

		return searchResultMsg{gen: gen, products: remote.Search(ctx, query)}
	}
}
