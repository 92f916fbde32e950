/*
Copyright © 2025 Mathias Djärv <mathias.djarv@allbinary.se>
*/
package cmd

import (
	"fmt"
	"strings"
	"time"

	rfc2217 "github.com/allbin/go-rfc2217"
	"github.com/allbin/go-rfc2217/internal/logging"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// cliConfig is the merged view of flags, environment and config file.
type cliConfig struct {
	Serial             serialConfig   `mapstructure:"serial"`
	NegotiationTimeout time.Duration  `mapstructure:"negotiation_timeout"`
	Log                logging.Config `mapstructure:"log"`
}

type serialConfig struct {
	Baud        int    `mapstructure:"baud"`
	DataBits    int    `mapstructure:"data_bits"`
	Parity      string `mapstructure:"parity"`
	StopBits    string `mapstructure:"stop_bits"`
	FlowControl string `mapstructure:"flow_control"`
}

func defaultConfig() cliConfig {
	return cliConfig{
		Serial: serialConfig{
			Baud:        9600,
			DataBits:    8,
			Parity:      "none",
			StopBits:    "1",
			FlowControl: "none",
		},
		NegotiationTimeout: time.Second,
		Log:                logging.DefaultConfig(),
	}
}

// configFrom decodes v over the defaults, so keys absent from every source
// keep their default value.
func configFrom(v *viper.Viper) (cliConfig, error) {
	cfg := defaultConfig()
	if err := v.Unmarshal(&cfg); err != nil {
		return cliConfig{}, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// settings turns the serial section into validated port settings.
func (c serialConfig) settings() (*rfc2217.PortSettings, error) {
	parity, err := parseParity(c.Parity)
	if err != nil {
		return nil, err
	}
	stopBits, err := parseStopBits(c.StopBits)
	if err != nil {
		return nil, err
	}
	flow, err := parseFlowControl(c.FlowControl)
	if err != nil {
		return nil, err
	}

	return rfc2217.NewPortSettings(
		rfc2217.WithBaudRate(c.Baud),
		rfc2217.WithDataBits(rfc2217.DataBits(c.DataBits)),
		rfc2217.WithParity(parity),
		rfc2217.WithStopBits(stopBits),
		rfc2217.WithFlowControl(flow),
	)
}

func parseParity(s string) (rfc2217.Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "n", "":
		return rfc2217.ParityNone, nil
	case "odd", "o":
		return rfc2217.ParityOdd, nil
	case "even", "e":
		return rfc2217.ParityEven, nil
	case "mark", "m":
		return rfc2217.ParityMark, nil
	case "space", "s":
		return rfc2217.ParitySpace, nil
	}
	return 0, fmt.Errorf("unknown parity %q (use none, odd, even, mark or space)", s)
}

func parseStopBits(s string) (rfc2217.StopBits, error) {
	switch strings.TrimSpace(s) {
	case "1", "":
		return rfc2217.StopBits1, nil
	case "1.5":
		return rfc2217.StopBits1Half, nil
	case "2":
		return rfc2217.StopBits2, nil
	}
	return 0, fmt.Errorf("unknown stop bits %q (use 1, 1.5 or 2)", s)
}

func parseFlowControl(s string) (rfc2217.FlowControl, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return rfc2217.FlowControlNone, nil
	case "xon/xoff", "xonxoff", "software":
		return rfc2217.FlowControlSoftware, nil
	case "hardware":
		return rfc2217.FlowControlHardware, nil
	case "rts/cts", "rtscts", "cts":
		return rfc2217.FlowControlRTSCTS, nil
	case "dtr/dsr", "dtrdsr", "dsr":
		return rfc2217.FlowControlDTRDSR, nil
	}
	return 0, fmt.Errorf("unknown flow control %q (use none, xon/xoff, hardware, rts/cts or dtr/dsr)", s)
}

// session is an open connection plus what was needed to open it.
type session struct {
	*rfc2217.Connection
	port     *rfc2217.Port
	settings *rfc2217.PortSettings
	logger   *zap.Logger
	started  time.Time
}

// Close closes the connection and flushes the logger.
func (s *session) Close() error {
	err := s.Connection.Close()
	_ = s.logger.Sync()
	return err
}

// preparePort resolves the access server and the configured settings
// without connecting. Interactive commands own the terminal, so console
// logging is turned off for them.
func preparePort(addr string, interactive bool) (*rfc2217.Port, *rfc2217.PortSettings, *zap.Logger, error) {
	cfg, err := configFrom(viper.GetViper())
	if err != nil {
		return nil, nil, nil, err
	}

	server, err := rfc2217.ParseAccessServer(addr)
	if err != nil {
		return nil, nil, nil, err
	}

	settings, err := cfg.Serial.settings()
	if err != nil {
		return nil, nil, nil, err
	}

	logger := zap.NewNop()
	if !interactive || !logging.IsConsole(cfg.Log) {
		if logger, err = logging.New(cfg.Log); err != nil {
			return nil, nil, nil, err
		}
	}

	port, err := rfc2217.NewPort(server,
		rfc2217.WithLogger(logger.Named("rfc2217")),
		rfc2217.WithNegotiationTimeout(cfg.NegotiationTimeout),
	)
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, err
	}
	return port, settings, logger, nil
}

// openPort connects to addr with the configured settings.
func openPort(addr string) (*session, error) {
	port, settings, logger, err := preparePort(addr, false)
	if err != nil {
		return nil, err
	}

	conn, err := port.Open(settings)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return &session{Connection: conn, port: port, settings: settings, logger: logger, started: time.Now()}, nil
}
