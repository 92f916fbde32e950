/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	rfc2217 "github.com/allbin/go-rfc2217"
	"github.com/spf13/cobra"
)

type listenOptions struct {
	hex        bool
	timestamps bool
	output     string
	console    bool
}

// listenCmd represents the listen command
var listenCmd = &cobra.Command{
	Use:   "listen <host:port>",
	Short: "Stream data received from a remote serial port",
	Long: `Stream incoming data from a remote serial port to stdout.

Raw mode (the default) writes received bytes unchanged, so the output can
be piped into other tools. Hex mode prints one dump line per chunk.

With --output the data is appended to a file instead; the file is opened
in append mode so captures can be resumed. Runs until interrupted (Ctrl+C)
or the access server hangs up.

Example usage:
  rfc2217 listen ts1.example.net:4001
  rfc2217 listen ts1.example.net:4001 --hex --timestamps
  rfc2217 listen 10.0.0.7:2217 --baud 115200 --output capture.log --console`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var opts listenOptions
		opts.hex, _ = cmd.Flags().GetBool("hex")
		opts.timestamps, _ = cmd.Flags().GetBool("timestamps")
		opts.output, _ = cmd.Flags().GetString("output")
		opts.console, _ = cmd.Flags().GetBool("console")

		if err := runListen(args[0], opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(listenCmd)

	listenCmd.Flags().BoolP("hex", "x", false, "Print received data as hex dump lines")
	listenCmd.Flags().BoolP("timestamps", "t", false, "Prefix hex dump lines with a timestamp")
	listenCmd.Flags().StringP("output", "o", "", "Append received data to this file instead of stdout")
	listenCmd.Flags().BoolP("console", "c", false, "Also show data on stdout while writing to --output")
}

func runListen(addr string, opts listenOptions) error {
	conn, err := openPort(addr)
	if err != nil {
		return fmt.Errorf("failed to open port: %w", err)
	}
	defer conn.Close()

	var sink io.Writer = os.Stdout
	if opts.output != "" {
		file, err := os.OpenFile(opts.output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open output file: %w", err)
		}
		defer file.Close()
		sink = file
		if opts.console {
			sink = io.MultiWriter(file, os.Stdout)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		// unblocks the pending read
		conn.Close()
	}()

	fmt.Fprintf(os.Stderr, "Listening on %s (%s)\n", conn.Name(), conn.settings)
	fmt.Fprintf(os.Stderr, "Press Ctrl+C to stop\n\n")

	received, err := streamData(conn.Connection, sink, opts)
	duration := time.Since(conn.started)
	fmt.Fprintf(os.Stderr, "\nReceived %d bytes in %v\n", received, duration.Round(time.Millisecond))

	var closed *rfc2217.ClosedError
	if err == nil || errors.Is(err, io.EOF) || (errors.As(err, &closed) && ctx.Err() != nil) {
		return nil
	}
	return fmt.Errorf("read error: %w", err)
}

// streamData copies everything read from conn to w until a read fails.
func streamData(conn *rfc2217.Connection, w io.Writer, opts listenOptions) (int64, error) {
	var total int64
	for {
		data, err := conn.ReadAvailable()
		if len(data) > 0 {
			total += int64(len(data))
			if werr := writeChunk(w, data, opts); werr != nil {
				return total, fmt.Errorf("write error: %w", werr)
			}
		}
		if err != nil {
			return total, err
		}
	}
}

func writeChunk(w io.Writer, data []byte, opts listenOptions) error {
	if !opts.hex {
		_, err := w.Write(data)
		return err
	}

	prefix := ""
	if opts.timestamps {
		prefix = time.Now().Format("15:04:05.000") + "  "
	}
	_, err := fmt.Fprintf(w, "%s%-48s  %s\n", prefix, fmt.Sprintf("% x", data), previewData(string(data), len(data)))
	return err
}
