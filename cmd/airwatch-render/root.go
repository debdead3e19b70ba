package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

func newRootCmd() *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "airwatch-render",
		Short: "Renders simulated air quality frames to PNG",
		Long: `airwatch-render runs the station simulator at a location and draws the
station map or the AQI trend chart with the same engine the server uses.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v)
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.airwatch-render.yaml)")
	rootCmd.PersistentFlags().Int64("seed", 42, "Random seed for the simulator")
	rootCmd.PersistentFlags().Float64("lat", 37.7749, "Latitude of the current location")
	rootCmd.PersistentFlags().Float64("lng", -122.4194, "Longitude of the current location")
	rootCmd.PersistentFlags().Int("width", 800, "Frame width in pixels")
	rootCmd.PersistentFlags().Int("height", 400, "Frame height in pixels")
	rootCmd.PersistentFlags().StringP("out", "o", "", "Output PNG path (required)")

	_ = v.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newMapCmd(v), newTrendCmd(v))
	return rootCmd
}

func initConfig(v *viper.Viper) error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigType("yaml")
		v.SetConfigName(".airwatch-render")
	}

	v.SetEnvPrefix("AIRWATCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", v.ConfigFileUsed())
	} else if cfgFile != "" {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
