package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInternCmd() *cobra.Command {
	var export bool
	cmd := &cobra.Command{
		Use:   "intern <module> <name>",
		Short: "Intern (optionally export) a symbol in a module, creating the module if needed",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			moduleName, name := args[0], args[1]
			m, ok := rt.FindModule(moduleName)
			if !ok {
				var err error
				m, err = rt.CreateModule(moduleName)
				if err != nil {
					return err
				}
			}
			if export {
				s, err := rt.Extern(m, name)
				if err != nil {
					return err
				}
				fmt.Printf("%s\n", s.QualifiedName())
				return nil
			}
			s, err := rt.Intern(m, name)
			if err != nil {
				return err
			}
			fmt.Printf("%s\n", s.QualifiedName())
			return nil
		},
	}
	cmd.Flags().BoolVar(&export, "export", false, "also export the symbol")
	return cmd
}
