// sketchgen config
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sketchgen-build/sketchgen/internal/config"
	"github.com/sketchgen-build/sketchgen/internal/msg"
)

func doConfig(cmd *cobra.Command, args []string) {
	cwd, err := os.Getwd()
	if err != nil {
		msg.Fatal("could not get current directory: %v", err)
	}

	cfg, err := config.Load(flagConfigs, cwd)
	if err != nil {
		msg.Fatal("%v", err)
	}

	fmt.Println(cfg)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the merged configuration",
	Long:  `Load the given configuration files, expand their includes and print the merged result without generating anything.`,
	Run:   doConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().StringArrayVar(&flagConfigs, "config", nil, "Configuration file path, may be passed multiple times")
	configCmd.MarkFlagRequired("config")
}
