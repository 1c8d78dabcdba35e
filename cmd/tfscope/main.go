// Command tfscope maintains a coordinate frame tree from transform messages
// and answers frame-to-frame queries.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/roach88/tfscope/internal/cli"
)

func main() {
	os.Exit(run())
}

func run() int {
	err := cli.NewRootCommand().ExecuteContext(context.Background())
	if err == nil {
		return cli.ExitSuccess
	}

	// Commands report their own failures; anything else is a usage error
	// raised by cobra before a command ran.
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	return cli.ExitCommandError
}
