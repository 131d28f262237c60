// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 Kelpie Robotics

package cmd

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/kelpie-robotics/uplink/pkg/messages"
	"github.com/kelpie-robotics/uplink/pkg/robot"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

	connectedStyle = lipgloss.NewStyle().Bold(true).
			Foreground(lipgloss.Color("0")).Background(lipgloss.Color("10")).Padding(0, 1)
	disconnectedStyle = lipgloss.NewStyle().Bold(true).
				Foreground(lipgloss.Color("15")).Background(lipgloss.Color("9")).Padding(0, 1)

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type statusTickMsg time.Time

func statusTick() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return statusTickMsg(t)
	})
}

// statusModel renders the engine's connection state and telemetry counters.
type statusModel struct {
	controlled *robot.ControlledRobot
	table      table.Model
	lastPerm   string
}

func newStatusModel(controlled *robot.ControlledRobot) statusModel {
	columns := []table.Column{
		{Title: "Kind", Width: 26},
		{Title: "Messages", Width: 10},
		{Title: "Bytes", Width: 12},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(12),
		table.WithFocused(true),
	)
	return statusModel{controlled: controlled, table: t}
}

func (m statusModel) Init() tea.Cmd {
	return statusTick()
}

func (m statusModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "p":
			req := &messages.PermissionRequest{
				Description: "operator attention",
				RequestUID:  uuid.NewString(),
			}
			m.controlled.RequestPermission(req)
			m.lastPerm = req.RequestUID
		}
	case statusTickMsg:
		rows := make([]table.Row, 0)
		for _, stat := range m.controlled.Statistics().Snapshot() {
			rows = append(rows, table.Row{
				stat.Kind.String(),
				fmt.Sprintf("%d", stat.Stats.Messages),
				fmt.Sprintf("%d", stat.Stats.BytesSent),
			})
		}
		m.table.SetRows(rows)
		return m, statusTick()
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m statusModel) View() string {
	badge := disconnectedStyle.Render("DISCONNECTED")
	if m.controlled.IsConnected() {
		badge = connectedStyle.Render("CONNECTED")
	}
	hb := m.controlled.LastHeartbeat()
	global := m.controlled.Statistics().Global()

	header := titleStyle.Render("uplink status") + "  " + badge
	info := fmt.Sprintf("heartbeat period: %.2fs   log level: %d   total sent: %d msgs / %d bytes",
		hb.Duration, m.controlled.LogLevel(), global.Messages, global.BytesSent)
	if m.lastPerm != "" {
		info += "\npermission requested: " + m.lastPerm
	}

	return header + "\n" + info + "\n\n" + m.table.View() + "\n" +
		helpStyle.Render("p: request permission  q: quit")
}

// runStatusTUI blocks in the dashboard until the operator quits.
func runStatusTUI(controlled *robot.ControlledRobot) error {
	_, err := tea.NewProgram(newStatusModel(controlled), tea.WithAltScreen()).Run()
	return err
}
