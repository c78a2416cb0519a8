package main

import (
	"log"
	"os"

	"github.com/ivlev/svgmotion/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		log.Printf("[-] Error: %v", err)
		os.Exit(1)
	}
}
