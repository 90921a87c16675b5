package cmd

import (
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/suspension-sim/suspension-sim/sim"
)

// configCmd prints the effective configuration
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the default or loaded configuration as YAML",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := sim.DefaultConfig()
		if configPath != "" {
			var err error
			if cfg, err = sim.LoadConfig(configPath); err != nil {
				logrus.Fatalf("%v", err)
			}
		}
		if err := writeConfig(cmd.OutOrStdout(), cfg); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

func writeConfig(w io.Writer, cfg sim.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return enc.Close()
}

func init() {
	addConfigFlag(configCmd)
}
