package main

import (
	"fmt"
	"log/slog"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/textland/pkg/actor"
	"github.com/jwebster45206/textland/pkg/engine"
	"github.com/jwebster45206/textland/pkg/scene"
	"github.com/jwebster45206/textland/pkg/storage"
)

const PlaceHolderText = "What do you do?"

// Roles for chat history entries.
const (
	roleUser   = "user"
	roleGame   = "game"
	roleSystem = "system"
	roleError  = "error"
)

type creationStep int

const (
	stepNone creationStep = iota
	stepName
	stepSpecies
	stepClass
)

type entry struct {
	role string
	text string
}

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	engine       *engine.Engine
	store        storage.SaveStore
	logger       *slog.Logger
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	history  []entry
	scene    *scene.Scene
	mapLines []string

	// Character selection state
	showCharacterModal bool
	characters         []storage.CharacterSummary
	selectedCharacter  int // 0 is "new character"
	loadingCharacters  bool

	// Character creation state
	creating   creationStep
	pending    engine.CharacterRequest
	speciesIDs []string
	classIDs   []string

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type progressTickMsg struct{}

var (
	chatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

// speakerLine matches dialogue such as `Merchant Sarah says: "..."`.
var speakerLine = regexp.MustCompile(`^([A-Z][\w' -]{0,30} says:)(.*)$`)

func NewConsoleUI(e *engine.Engine, store storage.SaveStore, logger *slog.Logger) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 200
	ta.SetWidth(50)
	ta.SetHeight(1)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		engine:             e,
		store:              store,
		logger:             logger,
		textarea:           ta,
		chatViewport:       chatVp,
		metaViewport:       metaVp,
		showCharacterModal: true,
		loadingCharacters:  true,
	}
}

func writeMetadata(sc *scene.Scene, mapLines []string) string {
	var content strings.Builder
	content.WriteString(titleStyle.Render("CHARACTER") + "\n\n")

	if sc == nil || !sc.Active {
		content.WriteString("No active game.\n")
		return content.String()
	}

	pv := sc.Player
	fmt.Fprintf(&content, "%s\n", pv.Name)
	fmt.Fprintf(&content, "%s %s, level %d\n\n", pv.Species, pv.Class, pv.Level)
	fmt.Fprintf(&content, "HP:    %d/%d\n", pv.HP, pv.MaxHP)
	fmt.Fprintf(&content, "ATK:   %d\n", pv.AttackPower)
	fmt.Fprintf(&content, "XP:    %d/%d\n", pv.XP, pv.XPToNextLevel)
	fmt.Fprintf(&content, "Coins: %d\n\n", pv.Coins)

	content.WriteString("Equipped:\n")
	equipped := 0
	for _, slot := range actor.EquipmentSlots {
		if name := pv.Equipment[slot]; name != "" {
			fmt.Fprintf(&content, "• %s: %s\n", slot, name)
			equipped++
		}
	}
	if equipped == 0 {
		content.WriteString("Nothing\n")
	}

	content.WriteString("\nInventory:\n")
	if len(pv.Inventory) == 0 {
		content.WriteString("Empty\n")
	}
	for _, it := range pv.Inventory {
		if it.Count > 1 {
			fmt.Fprintf(&content, "• %s (x%d)\n", it.Name, it.Count)
		} else {
			fmt.Fprintf(&content, "• %s\n", it.Name)
		}
	}

	if len(pv.SpecialMoves) > 0 {
		content.WriteString("\nSpecials:\n")
		for _, mv := range pv.SpecialMoves {
			if mv.Cooldown > 0 {
				fmt.Fprintf(&content, "• %s (%d)\n", mv.Name, mv.Cooldown)
			} else {
				fmt.Fprintf(&content, "• %s\n", mv.Name)
			}
		}
	}

	content.WriteString("\nLocation:\n")
	if sc.City != nil {
		fmt.Fprintf(&content, "%s (%d,%d)\n", sc.City.Name, sc.City.X, sc.City.Y)
	} else {
		fmt.Fprintf(&content, "%s\n", sc.LocationName)
	}
	if sc.CanSave {
		content.WriteString(promptStyle.Render("You can save here.") + "\n")
	}

	if len(mapLines) > 0 {
		content.WriteString("\n" + titleStyle.Render("MAP") + "\n")
		content.WriteString(strings.Join(mapLines, "\n") + "\n")
	}

	content.WriteString("\n")
	content.WriteString("Commands:\n")
	content.WriteString("• Esc: Quit\n")
	content.WriteString("• help: Game help\n")
	content.WriteString("• /clear: Clear log\n")

	return content.String()
}

// layout sizes the panels for the current window.
func (m *ConsoleUI) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6

	m.chatViewport.Width = chatWidth - 2
	m.chatViewport.Height = m.height - 7
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(chatWidth - 4)
}

// writeChatContent rebuilds the log for the current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding
	if chatWidth < 20 {
		chatWidth = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("TEXTLAND") + "\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", chatWidth)) + "\n\n")

	for _, e := range m.history {
		switch e.role {
		case roleUser:
			content.WriteString(userStyle.Render("> ") + wordwrap.String(e.text, chatWidth-2) + "\n\n")
		case roleGame:
			content.WriteString(formatGameOutput(e.text, chatWidth) + "\n\n")
		case roleError:
			content.WriteString(errorStyle.Render(wordwrap.String(e.text, chatWidth)) + "\n\n")
		default:
			content.WriteString(loadingStyle.Render(wordwrap.String(e.text, chatWidth)) + "\n\n")
		}
	}

	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m *ConsoleUI) refresh() {
	m.writeChatContent()
	m.metaViewport.SetContent(writeMetadata(m.scene, m.mapLines))
}

func (m *ConsoleUI) say(role, format string, args ...any) {
	text := format
	if len(args) > 0 {
		text = fmt.Sprintf(format, args...)
	}
	m.history = append(m.history, entry{role: role, text: text})
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadCharacters()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle character modal first
	if m.showCharacterModal {
		return m.updateCharacterModal(msg)
	}

	// Handle quit modal second
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		m.ready = true
		m.refresh()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}

			if m.creating != stepNone {
				return m.handleCreationInput(input)
			}
			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.say(roleUser, "%s", input)
			m.loading = true
			m.progressTick = 0
			m.writeChatContent()
			return m, tea.Batch(m.runCommand(input), progressTick())
		}

	case commandResultMsg:
		m.loading = false
		m.scene = msg.scene
		if msg.result.Message != "" {
			m.say(roleGame, "%s", msg.result.Message)
		}
		if len(msg.result.MapLines) > 0 {
			m.mapLines = msg.result.MapLines
		}
		m.refresh()
		if msg.result.Quit {
			m.showQuitModal = true
		}
		return m, nil

	case gameStartedMsg:
		m.loading = false
		if msg.err != nil {
			m.say(roleError, "%s", msg.err.Error())
			if msg.created {
				m.beginCreation()
			}
			m.refresh()
			return m, nil
		}
		m.creating = stepNone
		m.scene = msg.scene
		m.say(roleGame, "%s", msg.message)
		m.refresh()
		return m, nil

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

// formatGameOutput wraps engine output and highlights speakers and banners.
func formatGameOutput(text string, width int) string {
	lines := strings.Split(wordwrap.String(text, width), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
		case strings.HasPrefix(trimmed, "---"), strings.HasPrefix(trimmed, "***"), strings.HasPrefix(trimmed, "=="):
			lines[i] = titleStyle.Render(line)
		case speakerLine.MatchString(line):
			parts := speakerLine.FindStringSubmatch(line)
			lines[i] = speakerStyle.Render(parts[1]) + narratorStyle.Render(parts[2])
		default:
			lines[i] = narratorStyle.Render(line)
		}
	}
	return strings.Join(lines, "\n")
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(input) {
	case "/clear":
		m.history = nil
	case "/help":
		m.say(roleSystem, "Type game commands such as 'look', 'north' or 'take key'. Type 'help' for the full list. /clear empties the log.")
	default:
		m.say(roleError, "Unknown console command %s", input)
	}
	m.writeChatContent()
	return m, nil
}

// beginCreation starts the new character prompts.
func (m *ConsoleUI) beginCreation() {
	m.creating = stepName
	m.pending = engine.CharacterRequest{}
	m.speciesIDs, m.classIDs = m.engine.CharacterChoices()
	m.say(roleSystem, "What is your character's name?")
}

func (m ConsoleUI) handleCreationInput(input string) (tea.Model, tea.Cmd) {
	world := m.engine.World()

	switch m.creating {
	case stepName:
		m.say(roleUser, "%s", input)
		if err := actor.ValidateName(input); err != nil {
			m.say(roleError, "%s Try another name.", err)
			break
		}
		m.pending.Name = input
		m.creating = stepSpecies
		m.say(roleSystem, "%s", choiceList("Choose a species:", m.speciesIDs, world.SpeciesName))

	case stepSpecies:
		m.say(roleUser, "%s", input)
		id, ok := pickChoice(input, m.speciesIDs, world.SpeciesName)
		if !ok {
			m.say(roleError, "Pick a species by number or name.")
			break
		}
		m.pending.Species = id
		m.creating = stepClass
		m.say(roleSystem, "%s", choiceList("Choose a class:", m.classIDs, world.ClassName))

	case stepClass:
		m.say(roleUser, "%s", input)
		id, ok := pickChoice(input, m.classIDs, world.ClassName)
		if !ok {
			m.say(roleError, "Pick a class by number or name.")
			break
		}
		m.pending.Class = id
		m.loading = true
		m.writeChatContent()
		return m, tea.Batch(m.createCharacter(m.pending), progressTick())
	}

	m.writeChatContent()
	return m, nil
}

func choiceList(title string, ids []string, name func(string) string) string {
	var b strings.Builder
	b.WriteString(title)
	for i, id := range ids {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, name(id))
	}
	return b.String()
}

// pickChoice resolves a 1-based number, ID or display name.
func pickChoice(input string, ids []string, name func(string) string) (string, bool) {
	if n, err := strconv.Atoi(input); err == nil {
		if n >= 1 && n <= len(ids) {
			return ids[n-1], true
		}
		return "", false
	}
	input = strings.ToLower(input)
	i := slices.IndexFunc(ids, func(id string) bool {
		return id == input || strings.ToLower(name(id)) == input
	})
	if i < 0 {
		return "", false
	}
	return ids[i], true
}

func (m ConsoleUI) updateCharacterModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case charactersLoadedMsg:
		m.loadingCharacters = false
		if msg.err != nil {
			m.logger.Warn("Failed to list characters", "error", msg.err)
			m.err = msg.err
		} else {
			m.characters = msg.characters
		}

	case gameStartedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.closeCharacterModal()
		m.scene = msg.scene
		m.say(roleGame, "%s", msg.message)
		m.refresh()
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingCharacters || m.loading {
			if msg.Type == tea.KeyCtrlC {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showCharacterModal = false
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedCharacter > 0 {
				m.selectedCharacter--
			}
		case tea.KeyDown:
			if m.selectedCharacter < len(m.characters) {
				m.selectedCharacter++
			}
		case tea.KeyEnter:
			m.err = nil
			if m.selectedCharacter == 0 {
				m.closeCharacterModal()
				m.beginCreation()
				m.refresh()
				return m, textarea.Blink
			}
			m.loading = true
			return m, m.loadCharacter(m.characters[m.selectedCharacter-1].Name)
		}
	}

	return m, nil
}

func (m *ConsoleUI) closeCharacterModal() {
	m.showCharacterModal = false
	m.layout()
	m.ready = true
	m.textarea.Focus()
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if !m.ready {
					// Quit was asked from character selection
					m.showCharacterModal = true
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Unsaved progress since your last save in a city will be lost.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderCharacterModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingCharacters:
		content.WriteString(modalTitleStyle.Render("Loading Characters..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we find your saved games..."))
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Loading Game..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting up your adventure..."))
	default:
		content.WriteString(modalTitleStyle.Render("Choose a Character"))
		content.WriteString("\n\n")

		options := []string{"+ New character"}
		world := m.engine.World()
		for _, c := range m.characters {
			options = append(options, fmt.Sprintf("%s (%s %s, level %d)",
				c.Name, world.SpeciesName(c.Species), world.ClassName(c.Class), c.Level))
		}
		for i, opt := range options {
			if i == m.selectedCharacter {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + opt))
			} else {
				content.WriteString(modalItemStyle.Render("  " + opt))
			}
			content.WriteString("\n")
		}

		if m.err != nil {
			content.WriteString("\n")
			content.WriteString(errorStyle.Render(m.err.Error()))
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Esc to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showCharacterModal {
		return m.renderCharacterModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", chatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓") // Blinking effect at the progress point
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
