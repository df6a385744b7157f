package mapping

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateSelectHeader state = iota
	stateSelectField
	stateConfirm
)

// UIConfig represents UI configuration settings
type UIConfig struct {
	ColumnsPerRow int
	RowsPerPage   int
}

type model struct {
	headers  []string
	fields   []string
	mappings map[string]string // header -> field
	ignored  map[string]bool
	sources  map[string]string // header -> source of its current entry

	state  state
	saved  bool
	cursor int

	colsPerRow   int
	itemsPerPage int

	fieldCursor int

	width int

	titleStyle    lipgloss.Style
	selectedStyle lipgloss.Style
	normalStyle   lipgloss.Style
	helpStyle     lipgloss.Style
	progressStyle lipgloss.Style
	mappedStyle   lipgloss.Style
	suggestStyle  lipgloss.Style
	ignoredStyle  lipgloss.Style
}

func newModel(headers, fields []string, uiConfig UIConfig) model {
	cols := max(uiConfig.ColumnsPerRow, 1)
	rows := max(uiConfig.RowsPerPage, 1)
	return model{
		headers:      headers,
		fields:       fields,
		mappings:     make(map[string]string),
		ignored:      make(map[string]bool),
		sources:      make(map[string]string),
		state:        stateSelectHeader,
		colsPerRow:   cols,
		itemsPerPage: cols * rows,
		width:        80,

		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")),
		selectedStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			Background(lipgloss.Color("235")).
			Padding(0, 1),
		normalStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1),
		helpStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
		progressStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true),
		mappedStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("40")).
			Padding(0, 1),
		suggestStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Padding(0, 1),
		ignoredStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Strikethrough(true).
			Padding(0, 1),
	}
}

// load applies an existing mapping file to the model
func (m *model) load(mc *MappingConfig) {
	for _, entry := range mc.Mappings {
		switch {
		case entry.IsIgnored:
			m.ignored[entry.ScannedColumn] = true
		case entry.TargetColumn != "":
			m.mappings[entry.ScannedColumn] = entry.TargetColumn
		default:
			continue
		}
		m.sources[entry.ScannedColumn] = entry.Source
	}
}

// result converts the model back into a mapping file. Entries not touched
// in this session keep their source
func (m model) result() *MappingConfig {
	mc := &MappingConfig{}
	for header, field := range m.mappings {
		mc.Mappings = append(mc.Mappings, ColumnMapping{
			ScannedColumn: header,
			TargetColumn:  field,
			Source:        m.sourceOf(header),
		})
	}
	for header := range m.ignored {
		mc.Mappings = append(mc.Mappings, ColumnMapping{
			ScannedColumn: header,
			IsIgnored:     true,
			Source:        m.sourceOf(header),
		})
	}
	return mc
}

func (m model) sourceOf(header string) string {
	if s := m.sources[header]; s != "" {
		return s
	}
	return SourceManual
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case tea.KeyMsg:
		switch m.state {
		case stateSelectHeader:
			return m.updateSelectHeader(msg)
		case stateSelectField:
			return m.updateSelectField(msg)
		case stateConfirm:
			return m.updateConfirm(msg)
		}
	}
	return m, nil
}

func (m model) updateSelectHeader(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(m.headers)
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "left", "h":
		if m.cursor > 0 {
			m.cursor--
		}
	case "right", "l":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "up", "k":
		if m.cursor-m.colsPerRow >= 0 {
			m.cursor -= m.colsPerRow
		}
	case "down", "j":
		if m.cursor+m.colsPerRow < n {
			m.cursor += m.colsPerRow
		}
	case "pgdown":
		m.cursor = min(m.cursor+m.itemsPerPage, max(n-1, 0))
	case "pgup":
		m.cursor = max(m.cursor-m.itemsPerPage, 0)
	case "enter":
		if m.cursor < n {
			m.state = stateSelectField
			m.fieldCursor = 0
			if current, ok := m.mappings[m.headers[m.cursor]]; ok {
				for i, f := range m.fields {
					if f == current {
						m.fieldCursor = i
					}
				}
			}
		}
	case "i":
		if m.cursor < n {
			header := m.headers[m.cursor]
			if m.ignored[header] {
				delete(m.ignored, header)
			} else {
				m.ignored[header] = true
				delete(m.mappings, header)
			}
			m.sources[header] = SourceManual
		}
	case "c":
		if m.cursor < n {
			header := m.headers[m.cursor]
			delete(m.mappings, header)
			delete(m.ignored, header)
			delete(m.sources, header)
		}
	case "n":
		m.moveToNextUnmapped()
	case "s":
		m.state = stateConfirm
	}
	return m, nil
}

func (m model) updateSelectField(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "esc":
		m.state = stateSelectHeader
	case "up", "k":
		if m.fieldCursor > 0 {
			m.fieldCursor--
		}
	case "down", "j":
		if m.fieldCursor < len(m.fields)-1 {
			m.fieldCursor++
		}
	case "enter":
		if m.fieldCursor < len(m.fields) {
			header := m.headers[m.cursor]
			m.mappings[header] = m.fields[m.fieldCursor]
			delete(m.ignored, header)
			m.sources[header] = SourceManual
			m.state = stateSelectHeader
			m.moveToNextUnmapped()
		}
	}
	return m, nil
}

func (m model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y":
		m.saved = true
		return m, tea.Quit
	case "ctrl+c", "q", "n":
		return m, tea.Quit
	case "esc":
		m.state = stateSelectHeader
	}
	return m, nil
}

func (m model) isOpen(header string) bool {
	_, mapped := m.mappings[header]
	return !mapped && !m.ignored[header]
}

// moveToNextUnmapped moves the cursor to the next header with no entry,
// wrapping around; it stays put when every header is handled
func (m *model) moveToNextUnmapped() {
	n := len(m.headers)
	for step := 1; step < n; step++ {
		i := (m.cursor + step) % n
		if m.isOpen(m.headers[i]) {
			m.cursor = i
			return
		}
	}
}

func (m model) View() string {
	switch m.state {
	case stateSelectHeader:
		return m.viewSelectHeader()
	case stateSelectField:
		return m.viewSelectField()
	case stateConfirm:
		return m.viewConfirm()
	}
	return ""
}

func (m model) viewSelectHeader() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Render("Header Mapping"))
	b.WriteString("\n\n")

	progress := fmt.Sprintf("Progress: %d/%d mapped (%d ignored)", len(m.mappings), len(m.headers), len(m.ignored))
	b.WriteString(m.progressStyle.Render(progress))
	b.WriteString("\n")

	pages := max((len(m.headers)+m.itemsPerPage-1)/m.itemsPerPage, 1)
	page := m.cursor / m.itemsPerPage
	b.WriteString(m.helpStyle.Render(fmt.Sprintf("Page %d/%d", page+1, pages)))
	b.WriteString("\n\n")

	cellWidth := max((m.width-4)/m.colsPerRow, 12)
	start := page * m.itemsPerPage
	end := min(start+m.itemsPerPage, len(m.headers))

	var row []string
	for i := start; i < end; i++ {
		header := m.headers[i]
		text, style := header, m.normalStyle
		if field, ok := m.mappings[header]; ok {
			text = fmt.Sprintf("%s → %s", header, field)
			style = m.mappedStyle
			if m.sources[header] == SourceAI {
				style = m.suggestStyle
			}
		} else if m.ignored[header] {
			text = header + " (ignored)"
			style = m.ignoredStyle
		}
		if i == m.cursor {
			style = m.selectedStyle
		}

		if r := []rune(text); len(r) > cellWidth-2 {
			text = string(r[:cellWidth-5]) + "..."
		}
		row = append(row, style.Render(fmt.Sprintf("%-*s", cellWidth-2, text)))

		if len(row) == m.colsPerRow || i == end-1 {
			b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, row...))
			b.WriteString("\n")
			row = nil
		}
	}

	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render("↑↓←→: navigate | PgUp/PgDn: page | Enter: map | i: ignore | c: clear | n: next open | s: save | q: quit"))
	return b.String()
}

func (m model) viewSelectField() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Render(fmt.Sprintf("Map '%s' to field:", m.headers[m.cursor])))
	b.WriteString("\n\n")

	for i, field := range m.fields {
		if i == m.fieldCursor {
			b.WriteString(m.selectedStyle.Render("> " + field))
		} else {
			b.WriteString(m.normalStyle.Render("  " + field))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render("↑↓: navigate | Enter: select | Esc: back | q: quit"))
	return b.String()
}

func (m model) viewConfirm() string {
	var b strings.Builder

	b.WriteString(m.titleStyle.Render("Save Header Mapping?"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Headers:  %d\n", len(m.headers))
	fmt.Fprintf(&b, "Mapped:   %d\n", len(m.mappings))
	fmt.Fprintf(&b, "Ignored:  %d\n", len(m.ignored))
	fmt.Fprintf(&b, "Open:     %d\n", len(m.headers)-len(m.mappings)-len(m.ignored))
	b.WriteString("\n")
	b.WriteString(m.helpStyle.Render("y: save and quit | n: quit without saving | Esc: back"))
	return b.String()
}

// RunMappingTUI starts the interactive mapping interface over the headers
// in scannedColumnsFile and the fields in targetColumnsFile, saving to
// outputMappingFile when the user confirms
func RunMappingTUI(scannedColumnsFile, targetColumnsFile, outputMappingFile string, uiConfig UIConfig) error {
	headers, err := ReadColumnsFromFile(scannedColumnsFile)
	if err != nil {
		return fmt.Errorf("failed to read scanned columns: %w", err)
	}
	if len(headers) == 0 {
		return fmt.Errorf("no scanned columns found in %s", scannedColumnsFile)
	}

	fields, err := ReadColumnsFromFile(targetColumnsFile)
	if err != nil {
		return fmt.Errorf("failed to read target columns: %w", err)
	}
	if len(fields) == 0 {
		return fmt.Errorf("no target columns found in %s", targetColumnsFile)
	}

	m := newModel(headers, fields, uiConfig)
	if existing, err := LoadFromFile(outputMappingFile); err == nil {
		m.load(existing)
		fmt.Printf("📂 Loaded %d existing mappings from %s\n", len(existing.Mappings), outputMappingFile)
		if !m.isOpen(headers[0]) {
			m.moveToNextUnmapped()
		}
	}

	finalModel, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	final := finalModel.(model)
	if !final.saved {
		fmt.Println("Mapping not saved")
		return nil
	}

	if err := final.result().SaveToFile(outputMappingFile); err != nil {
		return fmt.Errorf("failed to save mapping configuration: %w", err)
	}
	fmt.Printf("✓ Mapping configuration saved to: %s\n", outputMappingFile)
	fmt.Printf("✓ Mapped %d headers, ignored %d headers\n", len(final.mappings), len(final.ignored))
	return nil
}
