package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucmq/go-baselet/baselet"
)

func newHashCmd(a *app) *cobra.Command {
	hash := &cobra.Command{
		Use:   "hash",
		Short: "Work with a HashBase",
	}
	open := func(name string) (*baselet.HashBase[any], error) {
		db, err := baselet.OpenHashBase[any](a.store, name, a.opts...)
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		return db, nil
	}

	insert := &cobra.Command{
		Use:   "insert [name] [hash] [value] [[hash] [value]...]",
		Short: "Store values under their hashes",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) < 3 || len(args)%2 != 1 {
				return fmt.Errorf("usage: %s", cmd.Use)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open(args[0])
			if err != nil {
				return err
			}
			for i := 1; i < len(args); i += 2 {
				if err = db.Insert(a.cfg.Partition, args[i], parseValue(args[i+1])); err != nil {
					return fmt.Errorf("insert %s: %w", args[i], err)
				}
			}
			printOK(cmd)
			return nil
		},
	}

	query := &cobra.Command{
		Use:   "query [name] [hash...]",
		Short: "Print the values stored under the hashes",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open(args[0])
			if err != nil {
				return err
			}
			values, err := db.Query(a.cfg.Partition, args[1:])
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			return printAll(cmd.OutOrStdout(), values)
		},
	}

	del := &cobra.Command{
		Use:   "delete [name] [hash...]",
		Short: "Delete the values stored under the hashes and print them",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open(args[0])
			if err != nil {
				return err
			}
			values, err := db.Delete(a.cfg.Partition, args[1:])
			if err != nil {
				return fmt.Errorf("delete: %w", err)
			}
			return printAll(cmd.OutOrStdout(), values)
		},
	}

	hash.AddCommand(insert, query, del)
	return hash
}
