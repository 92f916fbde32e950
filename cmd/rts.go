/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// rtsCmd represents the rts command
var rtsCmd = &cobra.Command{
	Use:   "rts <host:port> <state>",
	Short: "Control RTS (Request To Send) signal",
	Long: `Ask the access server to set the RTS (Request To Send) line.

The request is sent as a COM-PORT-OPTION SET-CONTROL command. Setting RTS
while hardware flow control is active is up to the access server.

Examples:
  rfc2217 rts ts1.example.net:4001 high
  rfc2217 rts ts1.example.net:4001 off

Valid states: high, low, on, off, true, false, 1, 0`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		addr := args[0]

		state, err := parseSignalState(args[1])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		conn, err := openPort(addr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer conn.Close()

		if err := conn.SetRTS(state); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting RTS: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("RTS set to %s on %s\n", formatSignalState(conn.ModemSignals().RTS), conn.Name())
	},
}

func parseSignalState(state string) (bool, error) {
	switch strings.ToLower(state) {
	case "high", "on", "true", "1":
		return true, nil
	case "low", "off", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid state: %s (valid: high, low, on, off, true, false, 1, 0)", state)
	}
}

func init() {
	rootCmd.AddCommand(rtsCmd)
}
