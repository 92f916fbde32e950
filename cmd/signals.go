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
	"github.com/spf13/cobra"
)

var (
	signalsWatch   bool
	signalsNames   []string
	signalsTimeout time.Duration
	signalsSettle  time.Duration
)

// signalsCmd represents the signals command
var signalsCmd = &cobra.Command{
	Use:     "signals <host:port>",
	Aliases: []string{"monitor"},
	Short:   "Display modem signal states",
	Long: `Display the modem control signals of a remote serial port.

CTS, DSR, RI and DCD are whatever the access server last reported with
NOTIFY-MODEMSTATE. RTS and DTR are what this client last requested.

With --watch the command keeps running and prints every change of the
selected signals until interrupted (Ctrl+C).

Examples:
  rfc2217 signals ts1.example.net:4001
  rfc2217 signals ts1.example.net:4001 --watch
  rfc2217 signals ts1.example.net:4001 --watch --signals dcd --timeout 30s

Signal meanings:
  CTS - Clear To Send (input)
  DSR - Data Set Ready (input)
  RI  - Ring Indicator (input)
  DCD - Data Carrier Detect (input)
  RTS - Request To Send (output)
  DTR - Data Terminal Ready (output)`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mask, err := parseSignalMask(signalsNames)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing signals: %v\n", err)
			os.Exit(1)
		}

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

		// give the server a moment to report the current lines
		if _, _, err := conn.WaitForSignalChange(rfc2217.SignalAll, signalsSettle); err != nil && !errors.Is(err, rfc2217.ErrSignalTimeout) {
			fmt.Fprintf(os.Stderr, "Error reading modem signals: %v\n", err)
			os.Exit(1)
		}

		if !signalsWatch {
			printAllSignals(conn.Name(), conn.ModemSignals())
			return
		}

		if err := watchSignals(conn.Connection, mask, signalsTimeout); err != nil {
			fmt.Fprintf(os.Stderr, "Error waiting for signal change: %v\n", err)
			os.Exit(1)
		}
	},
}

func printAllSignals(name string, signals rfc2217.ModemSignals) {
	fmt.Printf("Modem Signals for %s:\n\n", name)
	fmt.Printf("  CTS (Clear To Send):       %s\n", formatSignalState(signals.CTS))
	fmt.Printf("  DSR (Data Set Ready):      %s\n", formatSignalState(signals.DSR))
	fmt.Printf("  RI  (Ring Indicator):      %s\n", formatSignalState(signals.RI))
	fmt.Printf("  DCD (Data Carrier Detect): %s\n", formatSignalState(signals.DCD))
	fmt.Printf("  RTS (Request To Send):     %s\n", formatSignalState(signals.RTS))
	fmt.Printf("  DTR (Data Terminal Ready): %s\n", formatSignalState(signals.DTR))
}

func formatSignalState(state bool) string {
	if state {
		return "HIGH"
	}
	return "LOW"
}

func init() {
	rootCmd.AddCommand(signalsCmd)

	signalsCmd.Flags().BoolVarP(&signalsWatch, "watch", "w", false, "Keep running and report signal changes")
	signalsCmd.Flags().StringSliceVarP(&signalsNames, "signals", "s", []string{"cts", "dsr", "ri", "dcd"},
		"Signals to watch (comma-separated: cts,dsr,ri,dcd)")
	signalsCmd.Flags().DurationVarP(&signalsTimeout, "timeout", "t", 0,
		"Timeout for each wait operation (0 = no timeout)")
	signalsCmd.Flags().DurationVar(&signalsSettle, "settle", 500*time.Millisecond,
		"How long to wait for the first modem state report")
}
