// Command forksync synchronizes this grammar fork with its upstream source
// using the stored patch series.
package main

import (
	"os"

	"github.com/vkalnins/forksync/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
