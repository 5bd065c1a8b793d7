package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/dariash95/MCU1/host/monitor"
	"github.com/dariash95/MCU1/host/serial"
)

var (
	watchOpts = struct {
		config   string
		device   string
		baud     int
		logLevel string
	}{}

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Log trace events from a board",
		Long:  "Open the board's serial port and log every trace event until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(watchOpts.config)
			if err != nil {
				return err
			}

			// Flags override the configuration file
			if cmd.Flags().Changed("device") {
				cfg.Device = watchOpts.device
			}
			if cmd.Flags().Changed("baud") {
				cfg.Baud = watchOpts.baud
			}
			if cmd.Flags().Changed("log-level") {
				cfg.LogLevel = watchOpts.logLevel
			}

			level, err := parseLevel(cfg.LogLevel)
			if err != nil {
				return err
			}
			logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

			port, err := serial.Open(&cfg.Config)
			if err != nil {
				return err
			}
			defer port.Close()
			if err := port.Flush(); err != nil {
				logger.Warn("flush failed", "err", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			logger.Info("watching", "device", cfg.Device, "baud", cfg.Baud)
			m := monitor.New(port, logger)
			m.Follow = true
			err = m.Run(ctx)

			s := m.Stats()
			logger.Info("stopped",
				"events", s.Events,
				"malformed", s.Malformed,
				"lost", s.Lost,
				"resyncs", s.Resyncs,
				"discarded", s.Discarded,
			)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
)

func init() {
	watchCmd.Flags().StringVarP(&watchOpts.config, "config", "c", "", "YAML configuration file")
	watchCmd.Flags().StringVarP(&watchOpts.device, "device", "d", "/dev/ttyUSB0", "Serial device path")
	watchCmd.Flags().IntVarP(&watchOpts.baud, "baud", "b", serial.DefaultBaud, "Baud rate")
	watchCmd.Flags().StringVarP(&watchOpts.logLevel, "log-level", "l", "info", "Log level (debug, info, warn, error)")
}
