package main

import (
	"github.com/NerdMeNot/skiff/internal/config"
	"github.com/NerdMeNot/skiff/internal/logging"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// app holds the state shared by all subcommands
type app struct {
	verbosity int
	cfgFile   string
	cfg       *config.Config
}

// NewRootCmd builds the command tree. Each call returns fresh state, so tests
// can execute commands side by side.
func NewRootCmd() *cobra.Command {
	a := &app{cfg: config.Default()}

	rootCmd := &cobra.Command{
		Use:   "skiff",
		Short: "Group and aggregate tabular files",
		Long: `skiff splits CSV, JSON and Parquet tables into groups by key columns
and aggregates, counts or inspects each group.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfgFile != "" {
				cfg, err := config.Load(a.cfgFile)
				if err != nil {
					return err
				}
				a.cfg = cfg
			}
			logging.SetupLogger(a.verbosity, a.cfg.Log.JSON)
			a.cfg.Apply()
			log.Debug().Str("command", cmd.Name()).Str("config", a.cfgFile).Msg("Command started")
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")
	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "YAML settings file")

	rootCmd.AddCommand(newVersionCmd())
	rootCmd.AddCommand(newAggCmd(a))
	rootCmd.AddCommand(newGroupsCmd(a))
	return rootCmd
}
