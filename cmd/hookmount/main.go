package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/hookmount/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "hookmount:", err)
		os.Exit(1)
	}
}
