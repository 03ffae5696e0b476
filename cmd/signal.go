package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridshift/hpwhctl/core/cta2045"
	"github.com/gridshift/hpwhctl/forecast"
)

var (
	signalForecastPath string
	signalThresholds   = cta2045.DefaultThresholds()
)

var signalCmd = &cobra.Command{
	Use:   "signal",
	Short: "Map raw prices to demand-response commands, bypassing the scheduler",
	RunE:  runSignal,
}

func init() {
	signalCmd.Flags().StringVarP(&signalForecastPath, "forecast", "f", "", "forecast JSON file")
	signalCmd.Flags().Float64Var(&signalThresholds.ShedAbove, "shed-above", signalThresholds.ShedAbove, "shed above this price percentile")
	signalCmd.Flags().Float64Var(&signalThresholds.NormalAbove, "normal-above", signalThresholds.NormalAbove, "normal above this price percentile")
	signalCmd.Flags().Float64Var(&signalThresholds.LoadUpAbove, "load-up-above", signalThresholds.LoadUpAbove, "load up above this price percentile")
	if err := signalCmd.MarkFlagRequired("forecast"); err != nil {
		panic(err)
	}
	rootCmd.AddCommand(signalCmd)
}

func runSignal(cmd *cobra.Command, args []string) error {
	f, err := forecast.LoadFile(signalForecastPath)
	if err != nil {
		return err
	}
	cmds, cuts, err := cta2045.FromPrices(f.Prices, signalThresholds)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), cta2045.FormatTable(cmds, f.Prices, nil))
	fmt.Fprintf(cmd.OutOrStdout(), "price cuts: shed>=%.5f normal>=%.5f loadup>=%.5f\n", cuts.Shed, cuts.Normal, cuts.LoadUp)
	return nil
}
