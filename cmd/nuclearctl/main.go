// Command nuclearctl boots a PowerPlant with a couple of demonstration
// reactors, for manual smoke-testing of the runtime end to end.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	nuclear "github.com/Fastcode/nuclear-go"
	"github.com/Fastcode/nuclear-go/dsl"
)

// Ticker emits a Tick every second.
type Ticker struct {
	nuclear.BaseReactor
}

// Tick is emitted once a second by Ticker.
type Tick struct{ At time.Time }

func newTicker(env *nuclear.Environment) nuclear.Reactor {
	t := &Ticker{BaseReactor: nuclear.BaseReactor{Environment: env}}
	t.On(func(ctx context.Context) {
		t.EmitLocal(Tick{At: time.Now()})
	}, dsl.Every(time.Second))
	return t
}

// Counter reacts to Tick and logs progress.
type Counter struct {
	nuclear.BaseReactor
	count int
}

func newCounter(env *nuclear.Environment) nuclear.Reactor {
	c := &Counter{BaseReactor: nuclear.BaseReactor{Environment: env}}
	tick := dsl.Trigger[Tick]()
	c.On(func(ctx context.Context) {
		if _, ok := tick.Get(ctx); ok {
			c.count++
			c.Log("info", fmt.Sprintf("tick %d", c.count))
		}
	}, tick, dsl.Single())
	return c
}

func main() {
	cfg := nuclear.LoadConfig()
	pp := nuclear.New(cfg, nil, os.Args[1:])

	pp.Install("Ticker", newTicker)
	pp.Install("Counter", newCounter)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		fmt.Println("shutting down")

		drained := make(chan struct{})
		go func() {
			pp.Shutdown()
			close(drained)
		}()

		select {
		case <-drained:
		case <-time.After(cfg.ShutdownGrace):
			fmt.Println("shutdown grace period elapsed, forcing")
			pp.ForceShutdown()
			<-drained
		}
	}()

	if err := pp.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
