package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-solucoes/gtia/pkg/services/ingest"
)

type TemplateCmd struct {
	outputPath string
}

func NewTemplateCmd() *cobra.Command {
	tc := &TemplateCmd{}
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write the fiscal history CSV template",
		RunE:  tc.run,
	}

	cmd.Flags().StringVar(&tc.outputPath, "output", "modelo_dados_fiscais.csv", "Destination file")

	return cmd
}

func (tc *TemplateCmd) run(cmd *cobra.Command, _ []string) error {
	if err := os.WriteFile(tc.outputPath, ingest.Template(), 0o644); err != nil {
		return fmt.Errorf("failed to write template: %w", err)
	}
	cmd.Printf("Template written to %s\n", tc.outputPath)
	return nil
}
