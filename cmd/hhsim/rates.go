package main

import (
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/neurodyn/hh"
	"github.com/spf13/cobra"
)

func newRatesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Tabulate the gate rates and steady states over a voltage range",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, _ := cmd.Flags().GetFloat64("from")
			to, _ := cmd.Flags().GetFloat64("to")
			step, _ := cmd.Flags().GetFloat64("step")
			name, _ := cmd.Flags().GetString("policy")
			if name == "" {
				name = hh.Limit.String()
			}
			policy, err := hh.ParsePolicy(name)
			if err != nil {
				return err
			}
			if !(step > 0) || to < from {
				return fmt.Errorf("invalid range [%g, %g] with step %g", from, to, step)
			}
			return writeRates(csv.NewWriter(cmd.OutOrStdout()), policy, from, to, step)
		},
	}
	cmd.Flags().Float64("from", -100, "first voltage (mV)")
	cmd.Flags().Float64("to", 50, "last voltage (mV)")
	cmd.Flags().Float64("step", 1, "voltage increment (mV)")
	return cmd
}

func writeRates(w *csv.Writer, policy hh.SingularityPolicy, from, to, step float64) error {
	w.Write([]string{"v", "alpha_n", "beta_n", "alpha_m", "beta_m", "alpha_h", "beta_h", "n_inf", "m_inf", "h_inf"})
	format := func(f float64) string { return strconv.FormatFloat(f, 'g', 8, 64) }
	// Stepping by index avoids accumulating the increment.
	for i := 0; ; i++ {
		v := from + float64(i)*step
		if v > to+step*1e-9 {
			break
		}
		r := policy.Rates(v)
		nInf, mInf, hInf := r.SteadyState()
		w.Write([]string{
			format(v),
			format(r.AlphaN), format(r.BetaN),
			format(r.AlphaM), format(r.BetaM),
			format(r.AlphaH), format(r.BetaH),
			format(nInf), format(mInf), format(hInf),
		})
	}
	w.Flush()
	return w.Error()
}
