/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	rfc2217 "github.com/allbin/go-rfc2217"
)

// watchSignals prints changes of the signals in mask until interrupted or
// the connection drops.
func watchSignals(conn *rfc2217.Connection, mask rfc2217.SignalMask, timeout time.Duration) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	fmt.Printf("Monitoring signals on %s (signals: %s)\n", conn.Name(), mask)
	fmt.Println("Press Ctrl+C to stop")

	printSignalState("Initial", conn.ModemSignals(), mask)

	for {
		waitCtx, waitCancel := ctx, context.CancelFunc(func() {})
		if timeout > 0 {
			waitCtx, waitCancel = context.WithTimeout(ctx, timeout)
		}
		signals, changed, err := conn.WaitForSignalChangeContext(waitCtx, mask)
		waitCancel()

		switch {
		case err == nil:
			printSignalChange(signals, changed)
		case ctx.Err() != nil:
			fmt.Println("\nStopping monitor...")
			return nil
		case errors.Is(err, context.DeadlineExceeded):
			fmt.Printf("[%s] Timeout - no signal changes\n", time.Now().Format("15:04:05"))
		default:
			return err
		}
	}
}

func parseSignalMask(signalNames []string) (rfc2217.SignalMask, error) {
	if len(signalNames) == 0 {
		return rfc2217.SignalAll, nil
	}

	var mask rfc2217.SignalMask
	for _, name := range signalNames {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "cts":
			mask |= rfc2217.SignalCTS
		case "dsr":
			mask |= rfc2217.SignalDSR
		case "ri":
			mask |= rfc2217.SignalRI
		case "dcd":
			mask |= rfc2217.SignalDCD
		default:
			return 0, fmt.Errorf("unknown signal: %s (valid: cts, dsr, ri, dcd)", name)
		}
	}
	return mask, nil
}

func printSignalState(prefix string, signals rfc2217.ModemSignals, mask rfc2217.SignalMask) {
	timestamp := time.Now().Format("15:04:05")
	fmt.Printf("[%s] %s state:\n", timestamp, prefix)
	printSignalLines(signals, mask)
}

func printSignalChange(signals rfc2217.ModemSignals, changed rfc2217.SignalMask) {
	timestamp := time.Now().Format("15:04:05")
	fmt.Printf("[%s] Signal change detected:\n", timestamp)
	printSignalLines(signals, changed)
}

func printSignalLines(signals rfc2217.ModemSignals, mask rfc2217.SignalMask) {
	if mask&rfc2217.SignalCTS != 0 {
		fmt.Printf("  CTS: %s\n", formatSignalState(signals.CTS))
	}
	if mask&rfc2217.SignalDSR != 0 {
		fmt.Printf("  DSR: %s\n", formatSignalState(signals.DSR))
	}
	if mask&rfc2217.SignalRI != 0 {
		fmt.Printf("  RI:  %s\n", formatSignalState(signals.RI))
	}
	if mask&rfc2217.SignalDCD != 0 {
		fmt.Printf("  DCD: %s\n", formatSignalState(signals.DCD))
	}
	fmt.Println()
}
