/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/allbin/go-rfc2217/internal/tui/components"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// sendCmd represents the send command
var sendCmd = &cobra.Command{
	Use:   "send [data] <host:port>",
	Short: "Send data to a remote serial port",
	Long: `Open a remote serial port, write data to it and close it again.

Data can be provided as:
- Command line argument: send "Hello World" ts1.example.net:4001
- From stdin (pipe): echo "test data" | rfc2217 send ts1.example.net:4001
- Interactive mode: rfc2217 send ts1.example.net:4001 (prompts for input)

Bytes equal to 0xFF are escaped on the wire, so binary data is sent as is.

Example usage:
  rfc2217 send "AT+GMR" ts1.example.net:4001 --newline
  rfc2217 send "48 65 6c 6c 6f" 10.0.0.7:2217 --hex
  rfc2217 send "ATI" ts1.example.net:4001 -n --response 2s
  echo "test" | rfc2217 send ts1.example.net:4001`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var data string
		var addr string

		// Parse arguments: either "send data addr" or "send addr"
		if len(args) == 1 {
			addr = args[0]
			stat, err := os.Stdin.Stat()
			if err != nil || (stat.Mode()&os.ModeCharDevice) != 0 {
				data = promptForData()
			} else {
				stdinData, err := io.ReadAll(os.Stdin)
				if err != nil {
					fmt.Fprintf(os.Stderr, "Error reading from stdin: %v\n", err)
					os.Exit(1)
				}
				data = strings.TrimRight(string(stdinData), "\r\n")
			}
		} else {
			data = args[0]
			addr = args[1]
		}

		addNewline, _ := cmd.Flags().GetBool("newline")
		hexMode, _ := cmd.Flags().GetBool("hex")
		response, _ := cmd.Flags().GetDuration("response")

		if hexMode {
			raw, err := components.ParseHex(data)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Invalid hex data: %v\n", err)
				os.Exit(1)
			}
			data = string(raw)
		}

		if addNewline && !hexMode {
			data += "\n"
		}

		if err := sendData(addr, data, response); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sendCmd)

	sendCmd.Flags().BoolP("newline", "n", false, "Add newline character to the end of data")
	sendCmd.Flags().BoolP("hex", "x", false, "Interpret data as hexadecimal (e.g., '48656c6c6f' for 'Hello')")
	sendCmd.Flags().DurationP("response", "r", 0, "Print whatever arrives within this long after sending")
}

func promptForData() string {
	promptStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99"))

	fmt.Print(promptStyle.Render("Enter data to send: "))

	scanner := bufio.NewScanner(os.Stdin)
	if scanner.Scan() {
		return scanner.Text()
	}
	return ""
}

func sendData(addr, data string, response time.Duration) error {
	infoStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("99")).
		Bold(true)

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("40")).
		Bold(true)

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	fmt.Printf("%s Opening %s...\n", infoStyle.Render("⚡"), addr)

	conn, err := openPort(addr)
	if err != nil {
		return fmt.Errorf("%s %v", errorStyle.Render("✗"), err)
	}
	defer conn.Close()

	fmt.Printf("%s Connected to %s (%s)\n", successStyle.Render("✓"), conn.Name(), conn.settings)

	fmt.Printf("%s Sending %d bytes...\n", infoStyle.Render("📤"), len(data))

	n, err := conn.Write([]byte(data))
	if err != nil {
		return fmt.Errorf("%s failed to send data: %v", errorStyle.Render("✗"), err)
	}

	fmt.Printf("%s Successfully sent %d bytes\n", successStyle.Render("✓"), n)
	fmt.Printf("%s Data: %s\n", infoStyle.Render("📋"), previewData(data, 50))

	if response <= 0 {
		return nil
	}

	reply := collectResponse(conn, response)
	fmt.Printf("%s Received %d bytes\n", infoStyle.Render("📥"), len(reply))
	if len(reply) > 0 {
		fmt.Printf("%s Data: %s\n", infoStyle.Render("📋"), previewData(string(reply), 200))
	}
	return nil
}

// collectResponse gathers data until window elapses or the connection
// ends. Closing the session afterwards unblocks the reader goroutine.
func collectResponse(conn *session, window time.Duration) []byte {
	chunks := make(chan []byte)
	go func() {
		defer close(chunks)
		for {
			data, err := conn.ReadAvailable()
			if len(data) > 0 {
				chunks <- data
			}
			if err != nil {
				return
			}
		}
	}()

	var reply []byte
	deadline := time.After(window)
	for {
		select {
		case data, ok := <-chunks:
			if !ok {
				return reply
			}
			reply = append(reply, data...)
		case <-deadline:
			// drain so the reader can exit once the session closes
			go func() {
				for range chunks {
				}
			}()
			return reply
		}
	}
}

// previewData shortens s and replaces non-printable bytes for display.
func previewData(s string, limit int) string {
	if len(s) > limit {
		s = s[:limit] + "..."
	}
	return strings.Map(func(r rune) rune {
		if r < 32 || r > 126 {
			return '·'
		}
		return r
	}, s)
}
