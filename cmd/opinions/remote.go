package main

import (
	"context"
	stderrors "errors"
	"net/http"
	"sync"

	"github.com/spf13/cobra"

	"github.com/vango-dev/opinions/internal/errors"
	"github.com/vango-dev/opinions/pkg/client"
	"github.com/vango-dev/opinions/pkg/reactive"
)

// dial loads the configuration and returns a client for the server.
func (g *globals) dial(cmd *cobra.Command) (*client.Client, error) {
	cfg, err := g.load()
	if err != nil {
		return nil, err
	}
	c, err := client.New(cfg.Remote, client.WithLogger(newLogger(cmd, cfg)))
	if err != nil {
		return nil, errors.New("E501").Wrap(err).
			WithSuggestion("Pass --remote http://host:port or set OPINIONS_REMOTE")
	}
	return c, nil
}

// remoteError converts a client error into a CLI error.
func remoteError(err error) error {
	var re *client.RemoteError
	switch {
	case err == nil:
		return nil
	case stderrors.As(err, &re):
		e := errors.New("E301").WithMessages(re.Messages...)
		switch re.Status {
		case http.StatusNotFound:
			e = errors.New("E201")
		case http.StatusConflict:
			e = errors.New("E202")
		case http.StatusUnprocessableEntity:
			e = errors.New("E400").WithMessages(re.Messages...)
		}
		return e
	case stderrors.Is(err, context.Canceled):
		return err
	default:
		return errors.New("E300").Wrap(err).
			WithSuggestion("Start one with \"opinions serve\" or check --remote")
	}
}

// startLoop runs an event loop until the returned stop func is called.
func startLoop() (*reactive.Loop, func()) {
	loop := reactive.NewLoop()
	go loop.Run(context.Background())
	return loop, func() {
		loop.Stop()
		<-loop.Done()
	}
}

// await runs start as one loop turn, then waits until done reports true.
// done is evaluated on the loop after start and after every change
// announced through subscribe.
func await(ctx context.Context, loop *reactive.Loop, subscribe func(func()) func(), start func(), done func() bool) error {
	finished := make(chan struct{})
	var once sync.Once
	check := func() {
		if done() {
			once.Do(func() { close(finished) })
		}
	}

	var unsubscribe func()
	err := loop.Call(ctx, func() {
		unsubscribe = subscribe(check)
		start()
		check()
	})
	if err != nil {
		return err
	}
	defer loop.Dispatch(unsubscribe)

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
