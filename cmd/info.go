/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"errors"
	"fmt"
	"os"
	"time"

	rfc2217 "github.com/allbin/go-rfc2217"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
	"github.com/spf13/cobra"
)

const (
	columnKeyProperty = "property"
	columnKeyValue    = "value"
)

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:   "info <host:port>",
	Short: "Display information about a remote serial port",
	Long: `Open a remote serial port and display what is known about it.

Shows the port name, the transport description, the negotiated line
settings and the last modem and line state the access server reported.

Examples:
  rfc2217 info ts1.example.net:4001
  rfc2217 info 10.0.0.7:2217 --baud 115200 --flow-control rts/cts`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		settle, _ := cmd.Flags().GetDuration("settle")

		conn, err := openPort(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer conn.Close()

		if err := conn.MonitorSignals(rfc2217.SignalAll); err != nil {
			fmt.Fprintf(os.Stderr, "Error enabling modem state notifications: %v\n", err)
			os.Exit(1)
		}
		if _, _, err := conn.WaitForSignalChange(rfc2217.SignalAll, settle); err != nil && !errors.Is(err, rfc2217.ErrSignalTimeout) {
			fmt.Fprintf(os.Stderr, "Error reading modem signals: %v\n", err)
			os.Exit(1)
		}

		fmt.Println(renderInfoTable(conn).View())
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().Duration("settle", 500*time.Millisecond, "How long to wait for the first modem state report")
}

func renderInfoTable(conn *session) table.Model {
	signals := conn.ModemSignals()

	high := lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
	low := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	signalCell := func(state bool) table.StyledCell {
		if state {
			return table.NewStyledCell(formatSignalState(state), high)
		}
		return table.NewStyledCell(formatSignalState(state), low)
	}

	row := func(property string, value any) table.Row {
		return table.NewRow(table.RowData{
			columnKeyProperty: property,
			columnKeyValue:    value,
		})
	}

	rows := []table.Row{
		row("Port", conn.Name()),
		row("Transport", conn.Description()),
		row("State", conn.port.State().String()),
		row("Baud rate", conn.settings.BaudRate()),
		row("Data bits", conn.settings.DataBits().String()),
		row("Parity", conn.settings.Parity().String()),
		row("Stop bits", conn.settings.StopBits().String()),
		row("Flow control", conn.settings.FlowControl().String()),
		row("Negotiation timeout", conn.port.NegotiationTimeout().String()),
		row("CTS", signalCell(signals.CTS)),
		row("DSR", signalCell(signals.DSR)),
		row("RI", signalCell(signals.RI)),
		row("DCD", signalCell(signals.DCD)),
		row("RTS", signalCell(signals.RTS)),
		row("DTR", signalCell(signals.DTR)),
		row("Line state", conn.LineState().String()),
	}

	return table.New([]table.Column{
		table.NewColumn(columnKeyProperty, "Property", 22),
		table.NewColumn(columnKeyValue, "Value", 44),
	}).
		WithRows(rows).
		BorderRounded().
		WithBaseStyle(lipgloss.NewStyle().Align(lipgloss.Left))
}
