package main

import (
	"fmt"
	"os"

	"github.com/open-solucoes/gtia/pkg/runtime/terminal"
	"github.com/open-solucoes/gtia/pkg/services/recovery"
	"github.com/open-solucoes/gtia/pkg/services/tax"
)

func main() {
	engine := tax.NewEngine(tax.DefaultSettings())

	cli := terminal.NewCLI(terminal.Options{
		Engine:   engine,
		Analyzer: recovery.NewAnalyzer(engine, recovery.DefaultSettings()),
		Output:   os.Stdout,
	})

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
