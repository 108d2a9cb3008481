package ui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/spotlight/internal/playback"
	"github.com/dgnsrekt/spotlight/internal/ttypes"
)

const statusMessageTimeout = time.Second * 3

type (
	// eventMsg carries one playback event into the update loop.
	eventMsg struct{ event playback.Event }

	fileChangedMsg struct{}

	documentMsg struct {
		doc *ttypes.Document
		err error
	}

	statusMessageTimeoutMsg struct{ id int }
)

// listenEvents waits for the next playback event. It is re-issued after
// every event so the channel is drained for the life of the program.
func listenEvents(ch <-chan playback.Event) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg{ev}
	}
}

// waitForChange blocks until the watched file changes.
func waitForChange(ctx context.Context, w Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		if err := w.Wait(ctx); err != nil {
			if !errors.Is(err, context.Canceled) {
				log.Debug("stopped watching document", "error", err)
			}
			return nil
		}
		return fileChangedMsg{}
	}
}

// reloadDocument reads the document again.
func reloadDocument(ctx context.Context, reload func(context.Context) (*ttypes.Document, error)) tea.Cmd {
	if reload == nil {
		return nil
	}
	return func() tea.Msg {
		doc, err := reload(ctx)
		return documentMsg{doc: doc, err: err}
	}
}

func statusMessageExpiry(id int) tea.Cmd {
	return tea.Tick(statusMessageTimeout, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{id: id}
	})
}
