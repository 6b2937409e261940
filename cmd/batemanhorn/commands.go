package main

import (
	"github.com/spf13/cobra"
)

func newShieldingCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shielding",
		Short: "Prove by residue scans that Q has no root modulo p < 283",
		Long: `Scan every residue modulo each prime below 283 and confirm Q has no
root, classify each prime as Fermat-rigid or inert, and confirm that every
prime p ≡ 1 (mod 47) up to shielding.scan_bound splits completely.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.pipe.VerifyShielding(cmd.Context())
			return err
		},
	}
}

func newConstantCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "constant",
		Short: "Compute C_Q as a truncated Euler product",
		Long: `Sieve primes up to constant.prime_limit, compute each local factor
(p − ω(p))/(p − 1) and accumulate the product, reporting the value and
relative change at every checkpoint. Writes local_factors.csv and
convergence.csv unless --no-write is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.pipe.ComputeConstant(cmd.Context())
			return err
		},
	}
}

func newPredictionCmd(a *app) *cobra.Command {
	var constant float64
	cmd := &cobra.Command{
		Use:   "prediction",
		Short: "Compare π_Q(x) with (C_Q/46)·Li(x)",
		Long: `Test Q(n) for primality for every n up to prediction.limit and compare
the running count with the Bateman–Horn prediction at each checkpoint.
The constant comes from --constant, or prediction.constant when unset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.pipe.VerifyPrediction(cmd.Context(), constant)
			return err
		},
	}
	cmd.Flags().Float64Var(&constant, "constant", 0, "value of C_Q to use (default: prediction.constant)")
	return cmd
}

func newReplayCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "replay",
		Short: "Recompute C_Q from local_factors.csv",
		Long: `Read local_factors.csv from the data directory and multiply the stored
factors without recomputing ω. When the rows up to the last checkpoint of
convergence.csv cover every prime below it, their product must match the
recorded value within 1e-6.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := a.pipe.Replay(cmd.Context())
			return err
		},
	}
}
