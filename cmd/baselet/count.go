package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucmq/go-baselet/baselet"
)

func newCountCmd(a *app) *cobra.Command {
	count := &cobra.Command{
		Use:   "count",
		Short: "Work with a CountBase",
	}
	open := func(name string) (*baselet.CountBase[any], error) {
		db, err := baselet.OpenCountBase[any](a.store, name, a.opts...)
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		return db, nil
	}

	insert := &cobra.Command{
		Use:   "insert [name] [value...]",
		Short: "Append values, or overwrite the value at --index",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open(args[0])
			if err != nil {
				return err
			}
			index, _ := cmd.Flags().GetInt("index")
			for _, arg := range args[1:] {
				i := index
				if i < 0 {
					i = db.Length(a.cfg.Partition)
				}
				if err = db.Insert(a.cfg.Partition, i, parseValue(arg)); err != nil {
					return fmt.Errorf("insert at %d: %w", i, err)
				}
				if index >= 0 {
					index++
				}
			}
			printOK(cmd)
			return nil
		},
	}
	insert.Flags().Int("index", -1, "index of the first value, -1 to append")

	query := &cobra.Command{
		Use:   "query [name] [start] [end]",
		Short: "Print the values with an index in [start, end]",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseInt("start", args[1])
			if err != nil {
				return err
			}
			end, err := parseInt("end", args[2])
			if err != nil {
				return err
			}
			db, err := open(args[0])
			if err != nil {
				return err
			}
			values, err := db.Query(a.cfg.Partition, start, end)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			return printAll(cmd.OutOrStdout(), values)
		},
	}

	length := &cobra.Command{
		Use:   "length [name]",
		Short: "Print the next free index of the partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open(args[0])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), db.Length(a.cfg.Partition))
			return err
		},
	}

	count.AddCommand(insert, query, length)
	return count
}
