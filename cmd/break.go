/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// breakCmd represents the break command
var breakCmd = &cobra.Command{
	Use:   "break <host:port>",
	Short: "Send a line break",
	Long: `Hold the line in the break condition for a while, then release it.

Examples:
  rfc2217 break ts1.example.net:4001
  rfc2217 break ts1.example.net:4001 --duration 750ms`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		duration, _ := cmd.Flags().GetDuration("duration")

		conn, err := openPort(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error opening port: %v\n", err)
			os.Exit(1)
		}
		defer conn.Close()

		if err := conn.SetBreak(true); err != nil {
			fmt.Fprintf(os.Stderr, "Error setting break: %v\n", err)
			os.Exit(1)
		}
		time.Sleep(duration)
		if err := conn.SetBreak(false); err != nil {
			fmt.Fprintf(os.Stderr, "Error clearing break: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("Sent %v break on %s\n", duration, conn.Name())
	},
}

func init() {
	rootCmd.AddCommand(breakCmd)

	breakCmd.Flags().DurationP("duration", "d", 250*time.Millisecond, "How long to hold the break condition")
}
