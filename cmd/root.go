/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rfc2217",
	Short: "Talk to remote serial ports over Telnet COM-PORT-OPTION",
	Long: `rfc2217 opens serial ports exported by terminal servers and ser2net
style access servers using the Telnet COM-PORT-OPTION (RFC 2217).

Every command takes the access server as <host:port>. Line settings come
from flags, the RFC2217_* environment or a config file:

  # ~/.rfc2217.yaml
  serial:
    baud: 115200
    parity: none
    flow_control: rts/cts
  negotiation_timeout: 2s
  log:
    level: debug
    output: /var/log/rfc2217.log

Examples:
  rfc2217 connect ts1.example.net:4001
  rfc2217 send "AT" ts1.example.net:4001 --newline
  RFC2217_SERIAL_BAUD=9600 rfc2217 listen 10.0.0.7:2217 --hex`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig()
	},
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default $HOME/.rfc2217.yaml)")

	flags.IntP("baud", "b", 9600, "Baud rate")
	flags.Int("data-bits", 8, "Data bits: 5, 6, 7 or 8")
	flags.StringP("parity", "p", "none", "Parity: none, odd, even, mark, space")
	flags.String("stop-bits", "1", "Stop bits: 1, 1.5 or 2")
	flags.StringP("flow-control", "f", "none", "Flow control: none, xon/xoff, hardware, rts/cts, dtr/dsr")
	flags.Duration("negotiation-timeout", defaultConfig().NegotiationTimeout, "Time to wait for COM-PORT-OPTION negotiation")

	flags.String("log-level", "warn", "Log level: debug, info, warn, error")
	flags.String("log-format", "console", "Log format: console or json")
	flags.String("log-output", "stderr", "Log output: stdout, stderr or a file path")

	for key, flag := range map[string]string{
		"serial.baud":         "baud",
		"serial.data_bits":    "data-bits",
		"serial.parity":       "parity",
		"serial.stop_bits":    "stop-bits",
		"serial.flow_control": "flow-control",
		"negotiation_timeout": "negotiation-timeout",
		"log.level":           "log-level",
		"log.format":          "log-format",
		"log.output":          "log-output",
	} {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(err)
		}
	}
}

func loadConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigName(".rfc2217")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("RFC2217")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}
