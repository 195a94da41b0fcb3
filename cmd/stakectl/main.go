package main

import (
	"github.com/pairwise-games/stakeroom/internal/cli"
)

func main() {
	cli.Execute()
}
