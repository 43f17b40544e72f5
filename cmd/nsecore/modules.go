package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

func newModulesCmd() *cobra.Command {
	var showExternal bool
	cmd := &cobra.Command{
		Use:   "modules",
		Short: "List registered modules and their symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			modules := rt.Modules()
			names := make([]string, 0, len(modules))
			byName := make(map[string]int)
			for i, m := range modules {
				names = append(names, m.Name)
				byName[m.Name] = i
			}
			sort.Strings(names)
			for _, name := range names {
				m := modules[byName[name]]
				fmt.Printf("%s\n", m.Name)
				syms := m.Symbols()
				if showExternal {
					syms = m.ExternalSymbols()
				}
				names := make([]string, len(syms))
				for i, s := range syms {
					names[i] = s.Name()
				}
				sort.Strings(names)
				for _, n := range names {
					fmt.Printf("  %s\n", n)
				}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showExternal, "external", false, "show only exported symbols")
	return cmd
}
