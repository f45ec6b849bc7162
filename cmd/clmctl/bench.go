package main

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/cml-go/cml"
	"github.com/cml-go/cml/internal/config"
)

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Drive a fleet of concurrent clients against one channel and report throughput",
	RunE:  runBench,
}

func init() {
	benchCmd.Flags().Int("clients", 100, "number of concurrent external clients")
	benchCmd.Flags().Duration("duration", 3*time.Second, "how long to drive the fleet")
}

// runBench exercises the scenario of many outside-the-scheduler clients
// (ordinary goroutines, coordinated with an errgroup) racing to
// rendezvous with a small pool of in-scheduler server jobs. It reports
// rendezvous/sec once the duration elapses.
func runBench(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	workers, _ := cmd.Flags().GetInt("workers")
	if workers > 0 {
		cfg.Workers = workers
	}
	clients, _ := cmd.Flags().GetInt("clients")
	dur, _ := cmd.Flags().GetDuration("duration")

	rec, closeTrace := openTrace(cfg)
	defer closeTrace()

	sched := cml.NewScheduler(cml.Config{
		Workers: cfg.Workers,
		Fuzz:    cfg.Fuzz,
		Seed:    cfg.Seed,
		Trace:   rec,
	})
	sched.Start()
	defer sched.Stop()

	work := cml.NewChannel[int]()
	for i := 0; i < cfg.Workers; i++ {
		cml.Spawn(sched, cml.Job[struct{}](serverLoop(work)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), dur)
	defer cancel()

	var g errgroup.Group
	counts := make([]int64, clients)
	for i := 0; i < clients; i++ {
		i := i
		g.Go(func() error {
			for n := 0; ; n++ {
				select {
				case <-ctx.Done():
					counts[i] = int64(n)
					return nil
				default:
				}
				if _, err := cml.Run(sched, cml.Job[struct{}](giveOnce(work, n))); err != nil {
					return err
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var total int64
	for _, c := range counts {
		total += c
	}
	rate := float64(total) / dur.Seconds()

	p := message.NewPrinter(language.English)
	color.New(color.FgCyan, color.Bold).Fprintf(cmd.OutOrStdout(), "%d clients", clients)
	fmt.Fprint(cmd.OutOrStdout(), " ")
	p.Fprintf(cmd.OutOrStdout(), "%d rendezvous in %s  (%.0f/sec)\n", total, dur, rate)
	return nil
}

func serverLoop(ch *cml.Channel[int]) cml.Job[struct{}] {
	var loop cml.Job[struct{}]
	loop = func(w *cml.Worker, _ cml.Continuation[struct{}]) {
		cml.Pick(w, ch.Take(), cml.ContinuationFunc(
			func(w *cml.Worker, _ int) { loop(w, nil) },
			func(w *cml.Worker, err error) { w.Fail(err) },
		))
	}
	return loop
}

func giveOnce(ch *cml.Channel[int], v int) cml.Job[struct{}] {
	return func(w *cml.Worker, k cml.Continuation[struct{}]) {
		cml.Pick(w, ch.Give(v), k)
	}
}
