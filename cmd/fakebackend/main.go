// Command fakebackend serves an in-memory backend with demo data for running
// the client locally.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fragmede/ativo/internal/fakebackend"
	"github.com/fragmede/ativo/internal/logging"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:54321", "listen address")
	anonKey := flag.String("anon-key", "local-anon-key", "project key clients must send")
	secret := flag.String("jwt-secret", "local-jwt-secret", "HS256 signing secret")
	ttl := flag.Duration("token-ttl", time.Hour, "access token lifetime")
	confirm := flag.Bool("require-confirmation", false, "sign-up waits for email confirmation")
	latency := flag.Duration("latency", 0, "artificial delay per request")
	level := flag.String("log-level", "info", "log level")
	flag.Parse()

	closeLog, err := logging.Configure(logging.Config{Output: "stderr", Level: *level})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	log := logging.GetLogger("fakebackend")

	srv := fakebackend.New(fakebackend.Options{
		AnonKey:             *anonKey,
		JWTSecret:           []byte(*secret),
		TokenTTL:            *ttl,
		RequireConfirmation: *confirm,
		Latency:             *latency,
		Logger:              log,
	})
	if err := fakebackend.SeedDemo(srv); err != nil {
		log.Error("seeding", "err", err)
		os.Exit(1)
	}

	hs := &http.Server{Addr: *addr, Handler: srv, ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		hs.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", *addr, "demo_user", fakebackend.DemoEmail, "demo_password", fakebackend.DemoPassword)
	if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("serving", "err", err)
		os.Exit(1)
	}
}
