package bootstrap

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/hashicorp/go-hclog"

	collabinadapter "peerpad/internal/modules/collab/adapter/in"
	collaboutadapter "peerpad/internal/modules/collab/adapter/out"
	collabout "peerpad/internal/modules/collab/port/out"
	collabservice "peerpad/internal/modules/collab/service"
	collabusecase "peerpad/internal/modules/collab/usecase"
	"peerpad/internal/platform/clock"
	"peerpad/internal/platform/config"
	"peerpad/internal/platform/id"
	"peerpad/internal/ui/chatview"
)

const eventQueueSize = 256

type App struct {
	CollabCLI collabinadapter.CLIHandler

	log      hclog.Logger
	activity *collaboutadapter.SQLiteActivityStore
	events   chan tea.Msg
}

// New wires one collaboration node: config, logger, the activity journal and
// the network service behind its usecase. Live network events flow into a
// bounded channel the chat view drains; the network loop never blocks on the
// UI, so a full channel drops the event.
func New(cfg config.Config) (*App, error) {
	log := hclog.New(&hclog.LoggerOptions{
		Name:  "peerpad",
		Level: hclog.LevelFromString(cfg.LogLevel),
	})

	activity, err := collaboutadapter.NewSQLiteActivityStore(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new activity store: %w", err)
	}

	events := make(chan tea.Msg, eventQueueSize)
	svc := collabservice.NewNetworkService(
		cfg,
		log,
		clock.SystemClock{},
		id.RandomHex{},
		bridgeEvents(events),
		activity,
	)
	uc := collabusecase.NewInteractor(svc)

	return &App{
		CollabCLI: collabinadapter.NewCLIHandler(uc),
		log:       log,
		activity:  activity,
		events:    events,
	}, nil
}

func (a *App) Close() error {
	return a.activity.Close()
}

// RunChat starts the network loop and hands the terminal to the chat view.
// The loop owns the event channel and closes it on exit, which is what tells
// the view to quit.
func RunChat(ctx context.Context, app *App) error {
	runErr := make(chan error, 1)
	go func() {
		runErr <- app.CollabCLI.Run(ctx)
	}()

	model := chatview.New(app.CollabCLI, app.events)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return err
	}
	return <-runErr
}

// RunHeadless starts the network loop without a terminal attached, for nodes
// that only relay and journal.
func RunHeadless(ctx context.Context, app *App) error {
	err := app.CollabCLI.Run(ctx)
	go drainEvents(app.events)
	return err
}

// bridgeEvents adapts the network loop's callback surface to chat view
// messages. Sends are non-blocking: when the UI falls behind, events are
// dropped rather than stalling packet processing.
func bridgeEvents(events chan tea.Msg) collabout.Events {
	push := func(msg tea.Msg) {
		select {
		case events <- msg:
		default:
		}
	}
	now := func() time.Time { return time.Now() }

	return collabout.Events{
		OnUserJoined: func(project, username string) {
			push(chatview.EventMsg{Project: project, Actor: username, Kind: "join", At: now()})
		},
		OnUserLeft: func(project, username string) {
			push(chatview.EventMsg{Project: project, Actor: username, Kind: "leave", At: now()})
		},
		OnUsernameChanged: func(project, oldName, newName string) {
			push(chatview.EventMsg{Project: project, Actor: oldName, Kind: "rename", Text: newName, At: now()})
		},
		OnChatReceived: func(project, username, text string) {
			push(chatview.EventMsg{Project: project, Actor: username, Kind: "chat", Text: text, At: now()})
		},
		OnError: func(message string) {
			push(chatview.EventMsg{Kind: "error", Text: message, At: now()})
		},
		OnQuitComplete: func() {
			close(events)
		},
	}
}

func drainEvents(events <-chan tea.Msg) {
	for range events {
	}
}
