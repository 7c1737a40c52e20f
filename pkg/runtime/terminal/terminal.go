package terminal

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/open-solucoes/gtia/pkg/runtime/terminal/commands"
	"github.com/open-solucoes/gtia/pkg/runtime/terminal/export"
	"github.com/open-solucoes/gtia/pkg/services/recovery"
	"github.com/open-solucoes/gtia/pkg/services/tax"
)

// CLI represents the command-line interface
type CLI struct {
	engine   *tax.Engine
	analyzer *recovery.Analyzer
	reporter *export.Reporter
	rootCmd  *cobra.Command
}

// Options contain configuration for the CLI
type Options struct {
	Engine   *tax.Engine
	Analyzer *recovery.Analyzer
	Output   io.Writer
}

// NewCLI creates a new CLI instance
func NewCLI(opts Options) *CLI {
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	cli := &CLI{
		engine:   opts.Engine,
		analyzer: opts.Analyzer,
		reporter: export.NewReporter(opts.Output),
	}

	cli.rootCmd = cli.newRootCmd()
	return cli
}

func (cli *CLI) Execute() error {
	return cli.rootCmd.Execute()
}

func (cli *CLI) newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gtia",
		Short: "Brazilian corporate tax analysis tool",
	}

	cmd.AddCommand(commands.NewSimulateCmd(cli.engine, cli.reporter))
	cmd.AddCommand(commands.NewRetentionsCmd(cli.engine, cli.reporter))
	cmd.AddCommand(commands.NewAnalyzeCmd(cli.analyzer, cli.reporter))
	cmd.AddCommand(commands.NewTemplateCmd())

	return cmd
}
