package main

import (
	"flag"
	"log"

	"fbd/internal/di"
	"fbd/internal/structures"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the yaml config file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "expose debug endpoints")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		log.Fatalf("fbd: %s", err)
	}
}
