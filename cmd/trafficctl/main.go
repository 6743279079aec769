package main

import (
	"os"

	"github.com/vyvo/trafficlight/cmd/trafficctl/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
