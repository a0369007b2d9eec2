// Package cli implements the ecoscan command line tool.
package cli

import (
	"fmt"

	"github.com/franckalain/ecoscan/internal/config"
	"github.com/franckalain/ecoscan/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const longDescription = "EcoScan estimates the carbon footprint of the object in a photo and suggests an eco-friendly alternative."

// NewRootCmd builds the ecoscan command tree around its own viper instance
func NewRootCmd() *cobra.Command {
	v := config.NewViper()
	v.SetDefault("logging.level", "warn")
	var cfgFile string

	root := &cobra.Command{
		Use:           "ecoscan",
		Short:         "Carbon footprint from photos",
		Long:          longDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := initConfig(cmd, v, cfgFile); err != nil {
				return err
			}
			logging.InitLogger(config.LoggingConfig{
				Level:  v.GetString("logging.level"),
				Format: v.GetString("logging.format"),
				Output: "stderr",
			})
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $ECOSCAN_CONFIG, ./config/config.yaml or ./config.yaml)")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	_ = v.BindPFlag("logging.level", root.PersistentFlags().Lookup("log-level"))

	root.AddCommand(newAnalyzeCmd(v), newCatalogCmd())
	return root
}

// Execute runs the root command and reports its error
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintln(root.ErrOrStderr(), errorStyle.Render("Error: "+err.Error()))
	}
	return err
}

// initConfig reads the config file named by --config, else the one config.GetConfigPath
// finds. Without either, defaults and environment apply.
func initConfig(cmd *cobra.Command, v *viper.Viper, cfgFile string) error {
	path := cfgFile
	if path == "" {
		path = config.GetConfigPath()
	}
	if path == "" {
		return nil
	}

	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	fmt.Fprintln(cmd.ErrOrStderr(), dimStyle.Render("Using config file: "+v.ConfigFileUsed()))
	return nil
}
