package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/chaind/chain-manager/internal/domain"
)

var (
	watchTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	watchTypeStyles = map[domain.EventType]lipgloss.Style{
		domain.EventStarted: lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
		domain.EventError:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
		domain.EventStopped: lipgloss.NewStyle().Foreground(lipgloss.Color("8")),
		domain.EventLag:     lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	}
	watchDefaultStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// watchMsg wraps one Notification Bus event for bubbletea's message
// loop.
type watchMsg domain.Event

// watchModel renders a scrolling feed of api-topic events, following
// the teacher's multiSelectModel shape (tea.Model over a plain struct,
// color via lipgloss).
type watchModel struct {
	events []domain.Event
	sub    *notifySub
	max    int
}

// notifySub is the minimal view of a notify.Subscription watchModel
// needs, kept narrow so it can be faked in tests.
type notifySub struct {
	c <-chan domain.Event
}

func waitForEvent(sub *notifySub) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-sub.c
		if !ok {
			return tea.Quit()
		}
		return watchMsg(evt)
	}
}

func (m watchModel) Init() tea.Cmd {
	return waitForEvent(m.sub)
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}
	case watchMsg:
		m.events = append(m.events, domain.Event(msg))
		if len(m.events) > m.max {
			m.events = m.events[len(m.events)-m.max:]
		}
		return m, waitForEvent(m.sub)
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(watchTitleStyle.Render("watching chain events (q to quit)"))
	b.WriteString("\n\n")
	for _, evt := range m.events {
		ts := evt.At.Format("15:04:05")
		style, ok := watchTypeStyles[evt.Type]
		if !ok {
			style = watchDefaultStyle
		}
		b.WriteString(fmt.Sprintf("%s  %-8s  %s\n", ts, style.Render(string(evt.Type)), evt.ChainID))
	}
	return b.String()
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stream live chain lifecycle events",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}
			sub := app.Bus.Subscribe(domain.APITopic)
			defer app.Bus.Unsubscribe(sub)

			model := watchModel{sub: &notifySub{c: sub.C}, max: 200}
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}
}
