package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nielssp/nsecore/nse"
)

func newTypesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "types",
		Short: "Inspect the built-in type lattice",
	}
	cmd.AddCommand(newTypesListCmd())
	cmd.AddCommand(newTypesSubtypeCmd())
	cmd.AddCommand(newTypesUnifyCmd())
	return cmd
}

func newTypesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every type the `lang` module defines",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, sym := range rt.LangModule.Symbols() {
				if _, ok := rt.LangModule.GetType(sym); ok {
					fmt.Println(sym.Name())
				}
			}
			return nil
		},
	}
}

func lookupType(name string) (*nse.Type, error) {
	sym, ok := rt.LangModule.FindInternal(name)
	if !ok {
		return nil, fmt.Errorf("no such built-in: %s", name)
	}
	t, ok := rt.LangModule.GetType(sym)
	if !ok {
		return nil, fmt.Errorf("%s is a symbol but not a type", name)
	}
	return t, nil
}

func newTypesSubtypeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "is-subtype <a> <b>",
		Short: "Report whether built-in type a is a subtype of built-in type b",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := lookupType(args[0])
			if err != nil {
				return err
			}
			b, err := lookupType(args[1])
			if err != nil {
				return err
			}
			fmt.Println(nse.IsSubtypeOf(a, b))
			return nil
		},
	}
}

func newTypesUnifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unify <a> <b>",
		Short: "Print the most specific common ancestor of two built-in types",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := lookupType(args[0])
			if err != nil {
				return err
			}
			b, err := lookupType(args[1])
			if err != nil {
				return err
			}
			u := nse.UnifyTypes(a, b, rt.AnyType)
			if u.Name != nil {
				fmt.Println(u.Name.Name())
			} else {
				fmt.Println("<anonymous>")
			}
			return nil
		},
	}
}
