package main_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	main "github.com/fwojciec/harvest/cmd/harvest"
	"github.com/fwojciec/harvest/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServeCmd_Run(t *testing.T) {
	t.Parallel()

	t.Run("stops server and scheduler on cancel", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		started := make(chan struct{})
		deps := &main.Dependencies{
			Ctx:    ctx,
			Stdout: &bytes.Buffer{},
			Stderr: &bytes.Buffer{},
			Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
			Scheduler: &scheduler{
				ScrapeService: &mock.ScrapeService{},
				RunFn: func(ctx context.Context) error {
					close(started)
					<-ctx.Done()
					return nil
				},
			},
		}

		done := make(chan error, 1)
		go func() { done <- (&main.ServeCmd{Addr: "127.0.0.1:0"}).Run(deps) }()

		<-started
		cancel()
		select {
		case err := <-done:
			require.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("serve did not stop")
		}
	})

	t.Run("stops server when scheduler fails", func(t *testing.T) {
		t.Parallel()

		deps := &main.Dependencies{
			Ctx:    context.Background(),
			Stdout: &bytes.Buffer{},
			Stderr: &bytes.Buffer{},
			Logger: slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)),
			Scheduler: &scheduler{
				ScrapeService: &mock.ScrapeService{},
				RunFn: func(ctx context.Context) error {
					return errors.New("scheduler broke")
				},
			},
		}

		done := make(chan error, 1)
		go func() { done <- (&main.ServeCmd{Addr: "127.0.0.1:0"}).Run(deps) }()

		select {
		case err := <-done:
			assert.EqualError(t, err, "scheduler broke")
		case <-time.After(5 * time.Second):
			t.Fatal("serve did not stop")
		}
	})
}
