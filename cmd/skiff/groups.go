package main

import (
	"github.com/NerdMeNot/skiff"
	"github.com/spf13/cobra"
)

func newGroupsCmd(a *app) *cobra.Command {
	var (
		by     []string
		keepNA bool
		format string
	)
	cmd := &cobra.Command{
		Use:   "groups FILE",
		Short: "List groups and their row counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			df, err := readTable(args[0], a.cfg)
			if err != nil {
				return err
			}
			opts := skiff.DefaultGroupOptions()
			opts.DropNA = !keepNA
			keys := make([]skiff.By, len(by))
			for i, k := range by {
				keys[i] = skiff.ByColumn(k)
			}
			sizes, err := df.GroupByWith(opts, keys...).Size()
			if err != nil {
				return err
			}
			return writeTable(cmd.OutOrStdout(), sizes.ToFrame(), format)
		},
	}
	cmd.Flags().StringSliceVar(&by, "by", nil, "Key columns (comma separated)")
	cmd.Flags().BoolVar(&keepNA, "keep-na", false, "Keep rows with a missing key as their own group")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, csv or json")
	_ = cmd.MarkFlagRequired("by")
	return cmd
}
