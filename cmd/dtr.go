/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// dtrCmd represents the dtr command
var dtrCmd = &cobra.Command{
	Use:   "dtr <host:port> <state>",
	Short: "Control DTR (Data Terminal Ready) signal",
	Long: `Ask the access server to set the DTR (Data Terminal Ready) line.

Many devices treat a DTR drop as a reset or hang-up request.

Examples:
  rfc2217 dtr ts1.example.net:4001 high
  rfc2217 dtr 10.0.0.7:2217 low

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

		if err := conn.SetDTR(state); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting DTR: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("DTR set to %s on %s\n", formatSignalState(conn.ModemSignals().DTR), conn.Name())
	},
}

func init() {
	rootCmd.AddCommand(dtrCmd)
}
