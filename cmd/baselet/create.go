package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucmq/go-baselet/baselet"
)

func newCreateCmd(a *app) *cobra.Command {
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a database",
	}

	count := &cobra.Command{
		Use:   "count [name]",
		Short: "Create a CountBase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucketSize, _ := cmd.Flags().GetInt("bucket-size")
			if _, err := baselet.CreateCountBase[any](a.store, args[0], bucketSize, a.opts...); err != nil {
				return fmt.Errorf("create: %w", err)
			}
			printOK(cmd)
			return nil
		},
	}
	count.Flags().Int("bucket-size", 100, "values per bucket")

	hash := &cobra.Command{
		Use:   "hash [name]",
		Short: "Create a HashBase",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefixSize, _ := cmd.Flags().GetInt("prefix-size")
			if _, err := baselet.CreateHashBase[any](a.store, args[0], prefixSize, a.opts...); err != nil {
				return fmt.Errorf("create: %w", err)
			}
			printOK(cmd)
			return nil
		},
	}
	hash.Flags().Int("prefix-size", 2, "hash prefix length used to pick a bucket")

	rng := &cobra.Command{
		Use:   "range [name]",
		Short: "Create a RangeBase and its id index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bucketSize, _ := cmd.Flags().GetInt("bucket-size")
			rangeKey, _ := cmd.Flags().GetString("range-key")
			idKey, _ := cmd.Flags().GetString("id-key")
			idPrefix, _ := cmd.Flags().GetInt("id-prefix")
			_, err := baselet.CreateRangeBase[baselet.Doc](
				a.store, args[0], bucketSize, rangeKey, idKey, idPrefix, a.opts...,
			)
			if err != nil {
				return fmt.Errorf("create: %w", err)
			}
			printOK(cmd)
			return nil
		},
	}
	rng.Flags().Int("bucket-size", 100, "width of the range covered by a bucket")
	rng.Flags().String("range-key", "timestamp", "numeric field that orders the records")
	rng.Flags().String("id-key", "id", "string field that identifies a record")
	rng.Flags().Int("id-prefix", 2, "id prefix length used by the id index")

	create.AddCommand(count, hash, rng)
	return create
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info [name]",
		Short: "Print the descriptor of a database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := baselet.OpenBase(a.store, args[0], a.opts...)
			if err != nil {
				return fmt.Errorf("open: %w", err)
			}
			var config any
			switch db := db.(type) {
			case *baselet.CountBase[any]:
				config, err = db.Config()
			case *baselet.HashBase[any]:
				config, err = db.Config()
			case *baselet.RangeBase[baselet.Doc]:
				config, err = db.Config()
			}
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			return printIndented(cmd.OutOrStdout(), config)
		},
	}
}

func newDumpCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [name]",
		Short: "Print the descriptor and every value of a partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := baselet.OpenBase(a.store, args[0], a.opts...)
			if err != nil {
				return fmt.Errorf("open: %w", err)
			}
			var dump any
			switch db := db.(type) {
			case *baselet.CountBase[any]:
				dump, err = db.Dump(a.cfg.Partition)
			case *baselet.HashBase[any]:
				dump, err = db.Dump(a.cfg.Partition)
			case *baselet.RangeBase[baselet.Doc]:
				dump, err = db.Dump(a.cfg.Partition)
			}
			if err != nil {
				return fmt.Errorf("dump: %w", err)
			}
			return printIndented(cmd.OutOrStdout(), dump)
		},
	}
}
