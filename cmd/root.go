package main

import (
	"log"

	"github.com/hilthontt/burnchat/infrastructure/config"
	"github.com/spf13/cobra"
)

var (
	configFile string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "burnchat",
	Short: "Self-destructing two-person chat rooms",
	// Running the bare binary serves the API.
	RunE: runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err.Error())
	}
}

func init() {
	// Deferred so the --config flag is parsed first.
	cobra.OnInitialize(func() {
		cfg = config.GetConfig(configFile)
	})

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (defaults to config/config-$APP_ENV.yml)")
}
