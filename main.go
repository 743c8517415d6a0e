package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ankurkotwal/remoshock/rsk"
)

func main() {
	debugMode, configFile := parseCliArgs(os.Args[1:])
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	router, port, done := rsk.GetServer(ctx, debugMode, configFile)
	server := &http.Server{Addr: port, Handler: router}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown %s", err)
		}
	}()
	err := server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
	<-done
}

func parseCliArgs(args []string) (bool, string) {
	flags := flag.NewFlagSet(filepath.Base(os.Args[0]), flag.ExitOnError)
	flags.Usage = func() {
		fmt.Printf("Usage: %s [-d] [-c config.yaml]\n\n", flags.Name())
		flags.PrintDefaults()
	}
	var debugMode bool
	flags.BoolVar(&debugMode, "d", false, "Enable debug mode & deploy test handlers.")
	var configFile string
	flags.StringVar(&configFile, "c", "config/config.yaml", "Configuration file.")
	flags.Parse(args)
	return debugMode, configFile
}
