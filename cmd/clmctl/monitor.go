package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/cml-go/cml"
	"github.com/cml-go/cml/internal/config"
	"github.com/cml-go/cml/internal/monitor"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run a synthetic workload and watch scheduler metrics live",
	RunE:  runMonitor,
}

func init() {
	monitorCmd.Flags().Int("clients", 200, "number of background clients generating load")
}

// runMonitor starts a scheduler plus a steady background workload, then
// hands its metrics to the bubbletea dashboard if stdout is a terminal,
// or otherwise prints a plain summary line once a second for ten seconds
// and returns.
func runMonitor(cmd *cobra.Command, args []string) error {
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

	load := cml.NewChannel[int]()
	for i := 0; i < cfg.Workers; i++ {
		cml.Spawn(sched, cml.Job[struct{}](serverLoop(load)))
	}
	for i := 0; i < clients; i++ {
		i := i
		cml.Spawn(sched, cml.Job[struct{}](clientLoop(load, i)))
	}

	if isTerminal(os.Stdout) {
		return monitor.Run(sched.Metrics(), cfg.MonitorHz)
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for i := 0; i < 10; i++ {
		<-ticker.C
		fmt.Fprintln(cmd.OutOrStdout(), monitor.PlainSummary(sched.Metrics().Snapshot()))
	}
	return nil
}

func clientLoop(ch *cml.Channel[int], seed int) cml.Job[struct{}] {
	var loop cml.Job[struct{}]
	loop = func(w *cml.Worker, _ cml.Continuation[struct{}]) {
		cml.Pick(w, ch.Give(seed), cml.ContinuationFunc(
			func(w *cml.Worker, _ struct{}) { loop(w, nil) },
			func(w *cml.Worker, err error) { w.Fail(err) },
		))
	}
	return loop
}
