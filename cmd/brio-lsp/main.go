// Brio language server - speaks LSP over stdio.
package main

import (
	"fmt"
	"os"

	"brio/pkg/lsp"
)

func main() {
	if err := lsp.NewServer().Run(); err != nil {
		fmt.Fprintln(os.Stderr, "brio-lsp:", err)
		os.Exit(1)
	}
}
