package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"github.com/waferstrat/sampler/pkg/rpc"
)

const version = "1.0.0"

var (
	configPath = flag.String("config", "", "Path to YAML engine configuration file (optional, defaults applied otherwise)")
	addr       = flag.String("addr", ":8080", "Listen address for the HTTP façade")
	versionF   = flag.Bool("version", false, "Print version and exit")
	help       = flag.Bool("help", false, "Show help message")
)

func main() {
	flag.Parse()

	if *versionF {
		fmt.Printf("samplerctl version %s\n", version)
		os.Exit(0)
	}
	if *help {
		printHelp()
		os.Exit(0)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := rpc.DefaultConfig()
	if *configPath != "" {
		loaded, err := rpc.LoadConfig(*configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = *loaded
	}

	facade := rpc.NewFacade(cfg)
	srv := rpc.NewHTTPServer(*addr, facade)

	log.Printf("starting wafer sampling strategy engine on %s", *addr)
	log.Printf("rule plugins: %v", facade.GetRuleTypes(context.Background()))
	log.Printf("vendor emitters: %v", facade.GetVendors(context.Background()))

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}

func printHelp() {
	fmt.Println("samplerctl - wafer sampling strategy engine")
	fmt.Println()
	fmt.Println("Usage: samplerctl [flags]")
	fmt.Println()
	flag.PrintDefaults()
}
