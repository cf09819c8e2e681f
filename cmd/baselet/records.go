package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lucmq/go-baselet/baselet"
)

func newRangeCmd(a *app) *cobra.Command {
	rng := &cobra.Command{
		Use:   "range",
		Short: "Work with a RangeBase",
	}
	open := func(name string) (*baselet.RangeBase[baselet.Doc], error) {
		db, err := baselet.OpenRangeBase[baselet.Doc](a.store, name, a.opts...)
		if err != nil {
			return nil, fmt.Errorf("open: %w", err)
		}
		return db, nil
	}
	printRecord := func(cmd *cobra.Command, doc baselet.Doc, ok bool) error {
		if !ok {
			return printJSON(cmd.OutOrStdout(), nil)
		}
		return printJSON(cmd.OutOrStdout(), doc)
	}
	printRecords := func(cmd *cobra.Command, docs []baselet.Doc) error {
		for _, doc := range docs {
			if err := printJSON(cmd.OutOrStdout(), doc); err != nil {
				return err
			}
		}
		return nil
	}

	insert := &cobra.Command{
		Use:   "insert [name] [record...]",
		Short: "Insert JSON records",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open(args[0])
			if err != nil {
				return err
			}
			for _, arg := range args[1:] {
				doc, err := parseDoc(arg)
				if err != nil {
					return err
				}
				if err = db.Insert(a.cfg.Partition, doc); err != nil {
					return fmt.Errorf("insert: %w", err)
				}
			}
			printOK(cmd)
			return nil
		},
	}

	query := &cobra.Command{
		Use:   "query [name] [start] [end]",
		Short: "Print the records with a range value in [start, end]",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			start, err := parseFloat("start", args[1])
			if err != nil {
				return err
			}
			end, err := parseFloat("end", args[2])
			if err != nil {
				return err
			}
			db, err := open(args[0])
			if err != nil {
				return err
			}
			docs, err := db.Query(a.cfg.Partition, start, end)
			if err != nil {
				return fmt.Errorf("query: %w", err)
			}
			return printRecords(cmd, docs)
		},
	}

	get := &cobra.Command{
		Use:   "get [name] [id]",
		Short: "Print the record with an id",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open(args[0])
			if err != nil {
				return err
			}
			doc, ok, err := db.QueryByID(a.cfg.Partition, args[1])
			if err != nil {
				return fmt.Errorf("get: %w", err)
			}
			return printRecord(cmd, doc, ok)
		},
	}

	find := &cobra.Command{
		Use:   "find [name] [range] [id]",
		Short: "Print the record with a range value and an id",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			rangeValue, err := parseFloat("range", args[1])
			if err != nil {
				return err
			}
			db, err := open(args[0])
			if err != nil {
				return err
			}
			doc, ok, err := db.Find(a.cfg.Partition, rangeValue, args[2])
			if err != nil {
				return fmt.Errorf("find: %w", err)
			}
			return printRecord(cmd, doc, ok)
		},
	}

	latest := &cobra.Command{
		Use:   "latest [name] [count]",
		Short: "Print the records with the largest range values, newest first",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := parseInt("count", args[1])
			if err != nil {
				return err
			}
			offset, _ := cmd.Flags().GetInt("offset")
			db, err := open(args[0])
			if err != nil {
				return err
			}
			docs, err := db.QueryByCount(a.cfg.Partition, count, offset)
			if err != nil {
				return fmt.Errorf("latest: %w", err)
			}
			return printRecords(cmd, docs)
		},
	}
	latest.Flags().Int("offset", 0, "number of newest records to skip")

	del := &cobra.Command{
		Use:   "delete [name] [id]",
		Short: "Delete the record with an id and print it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open(args[0])
			if err != nil {
				return err
			}
			doc, ok, err := db.DeleteByID(a.cfg.Partition, args[1])
			if err != nil {
				return fmt.Errorf("delete: %w", err)
			}
			return printRecord(cmd, doc, ok)
		},
	}

	update := &cobra.Command{
		Use:   "update [name] [old-range] [record]",
		Short: "Replace the record stored at old-range with the same id",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			oldRange, err := parseFloat("old-range", args[1])
			if err != nil {
				return err
			}
			doc, err := parseDoc(args[2])
			if err != nil {
				return err
			}
			db, err := open(args[0])
			if err != nil {
				return err
			}
			if err = db.Update(a.cfg.Partition, oldRange, doc); err != nil {
				return fmt.Errorf("update: %w", err)
			}
			printOK(cmd)
			return nil
		},
	}

	stats := &cobra.Command{
		Use:   "stats [name]",
		Short: "Print the size and range limits of the partition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := open(args[0])
			if err != nil {
				return err
			}
			out := map[string]any{"size": db.Size(a.cfg.Partition)}
			if v, ok := db.Min(a.cfg.Partition); ok {
				out["min"] = v
			}
			if v, ok := db.Max(a.cfg.Partition); ok {
				out["max"] = v
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}

	rng.AddCommand(insert, query, get, find, latest, del, update, stats)
	return rng
}
