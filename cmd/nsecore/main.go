// Command nsecore is a small administrative CLI over the runtime
// core: it boots a Runtime, runs one diagnostic query against it, and
// prints the result. It is not the language's reader/evaluator/REPL —
// those remain out of this module's scope — only a way to poke
// at the module registry and type lattice from a shell.
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nielssp/nsecore/config"
	"github.com/nielssp/nsecore/runtime"
)

var (
	configPath string
	verbose    bool
	rt         *runtime.Runtime
)

func main() {
	root := &cobra.Command{
		Use:   "nsecore",
		Short: "Inspect the nsecore runtime's module registry and type lattice",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if verbose {
				cfg.Trace = true
			}
			r, err := runtime.New(cfg)
			if err != nil {
				return fmt.Errorf("starting runtime: %w", err)
			}
			rt = r
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable trace logging")

	root.AddCommand(newModulesCmd())
	root.AddCommand(newInternCmd())
	root.AddCommand(newTypesCmd())

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Error("nsecore: command failed")
		os.Exit(1)
	}
}
