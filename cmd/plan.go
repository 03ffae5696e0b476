package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridshift/hpwhctl/config"
	"github.com/gridshift/hpwhctl/core/cta2045"
	"github.com/gridshift/hpwhctl/core/planner"
	"github.com/gridshift/hpwhctl/forecast"
)

var (
	planForecastPath string
	planAlgorithm    string
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Compute a schedule for a forecast file and print it",
	RunE:  runPlan,
}

func init() {
	planCmd.Flags().StringVarP(&planForecastPath, "forecast", "f", "", "forecast JSON file")
	planCmd.Flags().StringVarP(&planAlgorithm, "algorithm", "a", "", "override planner algorithm (lp|heuristic)")
	if err := planCmd.MarkFlagRequired("forecast"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if planAlgorithm != "" {
		cfg.Planner.Algorithm = planAlgorithm
		if err := cfg.Planner.Validate(); err != nil {
			return err
		}
	}

	f, err := forecast.LoadFile(planForecastPath)
	if err != nil {
		return err
	}
	params, err := f.Parameters(cfg.Device.Spec())
	if err != nil {
		return err
	}

	sched, err := cfg.Planner.Build().Plan(params)
	if err != nil {
		return err
	}

	cmds := cta2045.FromSchedule(sched, params)
	fmt.Fprintln(cmd.OutOrStdout(), cta2045.FormatTable(cmds, params.Price, sched.Control))
	fmt.Fprintf(cmd.OutOrStdout(), "total cost: $%.4f  converged: %v\n", sched.TotalCost(), sched.Converged)

	soc := planner.SimulateSOC(sched.Control, params)
	fmt.Fprintf(cmd.OutOrStdout(), "soc trace: %.2f\n", soc)
	return nil
}
