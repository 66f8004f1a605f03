package main

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/textland/pkg/engine"
	"github.com/jwebster45206/textland/pkg/scene"
	"github.com/jwebster45206/textland/pkg/storage"
)

type charactersLoadedMsg struct {
	characters []storage.CharacterSummary
	err        error
}

// gameStartedMsg reports a created or loaded character.
type gameStartedMsg struct {
	message string
	scene   *scene.Scene
	created bool
	err     error
}

type commandResultMsg struct {
	result *engine.Result
	scene  *scene.Scene
}

func (m ConsoleUI) loadCharacters() tea.Cmd {
	return func() tea.Msg {
		list, err := m.store.ListCharacters(context.Background())
		return charactersLoadedMsg{list, err}
	}
}

func (m ConsoleUI) createCharacter(req engine.CharacterRequest) tea.Cmd {
	return func() tea.Msg {
		msg, err := m.engine.NewCharacter(context.Background(), req)
		return gameStartedMsg{message: msg, scene: m.engine.Scene(), created: true, err: err}
	}
}

func (m ConsoleUI) loadCharacter(name string) tea.Cmd {
	return func() tea.Msg {
		msg, err := m.engine.LoadCharacter(context.Background(), name)
		return gameStartedMsg{message: msg, scene: m.engine.Scene(), err: err}
	}
}

func (m ConsoleUI) runCommand(input string) tea.Cmd {
	return func() tea.Msg {
		res := m.engine.Execute(context.Background(), input)
		return commandResultMsg{result: res, scene: m.engine.Scene()}
	}
}
