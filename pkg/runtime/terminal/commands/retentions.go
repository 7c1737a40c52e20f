package commands

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/open-solucoes/gtia/pkg/runtime/terminal/export"
	"github.com/open-solucoes/gtia/pkg/services/tax"
)

type RetentionsCmd struct {
	value       string
	regime      string
	cityISSRate string

	engine   *tax.Engine
	reporter *export.Reporter
}

func NewRetentionsCmd(engine *tax.Engine, reporter *export.Reporter) *cobra.Command {
	rc := &RetentionsCmd{engine: engine, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "retentions",
		Short: "Compute the withholdings due on a service invoice",
		RunE:  rc.run,
	}

	cmd.Flags().StringVar(&rc.value, "value", "", "Invoice service value (e.g. 10000.00)")
	cmd.Flags().StringVar(&rc.regime, "regime", "", "Provider tax regime (e.g. 'Lucro Presumido')")
	cmd.Flags().StringVar(&rc.cityISSRate, "iss-rate", "", "Municipal ISS rate in percent (defaults to the configured rate)")

	_ = cmd.MarkFlagRequired("value")
	_ = cmd.MarkFlagRequired("regime")

	return cmd
}

func (rc *RetentionsCmd) run(_ *cobra.Command, _ []string) error {
	value, err := decimal.NewFromString(rc.value)
	if err != nil {
		return fmt.Errorf("invalid value %q: %w", rc.value, err)
	}

	cityRate := rc.engine.CityISSRate()
	if rc.cityISSRate != "" {
		cityRate, err = decimal.NewFromString(rc.cityISSRate)
		if err != nil {
			return fmt.Errorf("invalid iss-rate %q: %w", rc.cityISSRate, err)
		}
	}

	stmt := rc.engine.RetentionsOnInvoice(value, rc.regime, cityRate)
	return rc.reporter.HandleRetentions(&stmt)
}
