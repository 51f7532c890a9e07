package main

import (
	"context"
	"fmt"
	"os"

	"github.com/amirhossein-jamali/unit-allocator/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
