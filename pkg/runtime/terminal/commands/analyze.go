package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-solucoes/gtia/pkg/models/domain"
	"github.com/open-solucoes/gtia/pkg/runtime/terminal/export"
	"github.com/open-solucoes/gtia/pkg/services/ingest"
	"github.com/open-solucoes/gtia/pkg/services/recovery"
)

type AnalyzeCmd struct {
	filePath string
	regime   string

	analyzer *recovery.Analyzer
	reporter *export.Reporter
}

func NewAnalyzeCmd(analyzer *recovery.Analyzer, reporter *export.Reporter) *cobra.Command {
	ac := &AnalyzeCmd{analyzer: analyzer, reporter: reporter}
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Detect recovery opportunities in a fiscal history CSV",
		RunE:  ac.run,
	}

	cmd.Flags().StringVar(&ac.filePath, "file", "", "Path to the fiscal history CSV")
	cmd.Flags().StringVar(&ac.regime, "regime", "", "Regime used for rows without one (e.g. 'Lucro Presumido')")

	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (ac *AnalyzeCmd) run(_ *cobra.Command, _ []string) error {
	file, err := os.Open(ac.filePath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", ac.filePath, err)
	}
	defer file.Close()

	history, err := ingest.ParseHistory(file, domain.ParseRegime(ac.regime))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", ac.filePath, err)
	}

	result, err := ac.analyzer.Analyze(history)
	if err != nil {
		return err
	}

	return ac.reporter.HandleAnalysis(&result)
}
