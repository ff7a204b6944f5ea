package main

import (
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	config "github.com/drummonds/pdfpanel/config"
)

// Logger is global since we will need it everywhere
var Logger = slog.Default()

func main() {
	port := flag.String("port", "3000", "Port to run frontend server on")
	apiURL := flag.String("api", "", "Backend API URL (overrides config)")
	flag.Parse()

	fmt.Println("\n" + strings.Repeat("=", 50))
	fmt.Println("pdfpanel Frontend Server")
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println("• Serves the viewer panel (WASM)")
	fmt.Println("• Forwards /api/* and documents to the backend")
	fmt.Println(strings.Repeat("=", 50) + "\n")

	frontendConfig, logger := config.SetupFrontend()
	Logger = logger
	if *apiURL != "" {
		frontendConfig.ServerAPIURL = *apiURL
	}

	e, err := newFrontend(frontendConfig)
	if err != nil {
		Logger.Error("Unable to set up frontend", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%s", *port)
	Logger.Info("Starting Frontend Server", "address", addr, "backend", frontendConfig.ServerAPIURL, "document", frontendConfig.PDFURL)
	fmt.Printf("\nOpen http://localhost:%s in your browser\n\n", *port)

	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		Logger.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}
