// Command f1trace follows the driver trace a Blue Pill board writes to its
// UART and logs each event.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "f1trace",
	Short: "Driver trace tools for STM32F1 boards",
	Long:  "f1trace reads the framed driver trace written by the firmware and logs it on the host.",
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
