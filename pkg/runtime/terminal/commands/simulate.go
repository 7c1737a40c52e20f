package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/open-solucoes/gtia/pkg/models/domain"
	"github.com/open-solucoes/gtia/pkg/runtime/terminal/export"
	"github.com/open-solucoes/gtia/pkg/services/tax"
)

type SimulateCmd struct {
	revenue string
	payroll string
	costs   string

	engine   *tax.Engine
	reporter *export.Reporter
}

func NewSimulateCmd(engine *tax.Engine, reporter *export.Reporter) *cobra.Command {
	sc := &SimulateCmd{engine: engine, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Compare the monthly tax load under each regime",
		RunE:  sc.run,
	}

	cmd.Flags().StringVar(&sc.revenue, "revenue", "", "Monthly revenue (e.g. 100000.00)")
	cmd.Flags().StringVar(&sc.payroll, "payroll", "0", "Monthly payroll")
	cmd.Flags().StringVar(&sc.costs, "costs", "0", "Aggregated monthly costs")

	_ = cmd.MarkFlagRequired("revenue")

	return cmd
}

func (sc *SimulateCmd) run(_ *cobra.Command, _ []string) error {
	revenue, err := decimal.NewFromString(sc.revenue)
	if err != nil {
		return fmt.Errorf("invalid revenue %q: %w", sc.revenue, err)
	}
	payroll, err := decimal.NewFromString(sc.payroll)
	if err != nil {
		return fmt.Errorf("invalid payroll %q: %w", sc.payroll, err)
	}
	costs, err := decimal.NewFromString(sc.costs)
	if err != nil {
		return fmt.Errorf("invalid costs %q: %w", sc.costs, err)
	}

	sim := sc.engine.SimulateRegimes(revenue, payroll, domain.Costs{Aggregate: costs})
	return sc.reporter.HandleSimulation(&sim)
}
