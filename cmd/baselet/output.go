package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/lucmq/go-baselet/baselet"
)

// printJSON writes v as one line of JSON.
func printJSON(w io.Writer, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printIndented writes v as indented JSON.
func printIndented(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printAll writes one JSON line per value. Missing values print as null.
func printAll[V any](w io.Writer, values []*V) error {
	for _, v := range values {
		if err := printJSON(w, v); err != nil {
			return err
		}
	}
	return nil
}

// parseValue reads a command line value as JSON. Text that is not valid
// JSON is taken as a string.
func parseValue(arg string) any {
	var v any
	if err := json.Unmarshal([]byte(arg), &v); err != nil {
		return arg
	}
	return v
}

// parseDoc reads a command line JSON object as a record.
func parseDoc(arg string) (baselet.Doc, error) {
	var doc baselet.Doc
	if err := json.Unmarshal([]byte(arg), &doc); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("parse record: expected a JSON object")
	}
	return doc, nil
}

func parseInt(name, arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", name, err)
	}
	return n, nil
}

func parseFloat(name, arg string) (float64, error) {
	f, err := strconv.ParseFloat(arg, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number: %w", name, err)
	}
	return f, nil
}

func printOK(cmd *cobra.Command) {
	_, _ = fmt.Fprintln(cmd.OutOrStdout(), "OK")
}
