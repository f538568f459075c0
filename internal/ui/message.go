package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/learnx/internal/gate"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgGateChanged MsgKind = iota
	MsgBootstrapped
	MsgSignedIn
	MsgSignedOut
	MsgOpened
)

// gateChangedMsg is the constructor for [MsgGateChanged]
func gateChangedMsg(t gate.Transition) Msg {
	return Msg{kind: MsgGateChanged, data: t}
}

// resultMsg builds a message whose only payload is the outcome of an operation.
func resultMsg(kind MsgKind, err error) Msg {
	return Msg{kind: kind, data: err}
}

func (m Msg) err() error {
	err, _ := m.data.(error)
	return err
}
