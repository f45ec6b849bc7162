package main

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/cml-go/cml"
	"github.com/cml-go/cml/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a small cell-server demo workload to completion",
	RunE:  runRun,
}

func init() {
	runCmd.Flags().Int("cells", 8, "number of cell servers to run")
	runCmd.Flags().Int("clients", 100, "number of clients per cell")
}

// runRun wires up the cell-server scenario: each cell is a job looping
// over choose(take(set), give(get, state)) against its own pair of channels,
// with clients racing to set and get through it.
func runRun(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	workers, _ := cmd.Flags().GetInt("workers")
	if workers > 0 {
		cfg.Workers = workers
	}
	cells, _ := cmd.Flags().GetInt("cells")
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

	start := time.Now()
	total := 0
	for i := 0; i < cells; i++ {
		n := runOneCell(sched, clients)
		total += n
	}
	elapsed := time.Since(start)

	color.New(color.FgGreen, color.Bold).Fprintf(cmd.OutOrStdout(), "ok")
	fmt.Fprintf(cmd.OutOrStdout(), "  %d rendezvous across %d cells in %s\n", total, cells, elapsed)
	return nil
}

// runOneCell spawns a cell server job plus its clients and blocks until
// every client has completed one set/get round trip, returning the
// number of rendezvous observed.
func runOneCell(sched *cml.Scheduler, clients int) int {
	set := cml.NewChannel[int]()
	get := cml.NewChannel[int]()
	done := make(chan struct{}, clients)

	cml.Spawn(sched, cml.Job[struct{}](func(w *cml.Worker, _ cml.Continuation[struct{}]) {
		state := 0
		var loop func(w *cml.Worker)
		onTick := func(w *cml.Worker, _ struct{}) { loop(w) }
		onFail := func(w *cml.Worker, err error) { w.Fail(err) }
		loop = func(w *cml.Worker) {
			branch := cml.Choose[struct{}](
				cml.Wrap(set.Take(), func(v int) struct{} { state = v; return struct{}{} }),
				cml.Wrap(get.Give(state), func(_ struct{}) struct{} { return struct{}{} }),
			)
			cml.Pick(w, branch, cml.ContinuationFunc(onTick, onFail))
		}
		loop(w)
	}))

	for i := 0; i < clients; i++ {
		i := i
		cml.Spawn(sched, cml.Job[struct{}](func(w *cml.Worker, _ cml.Continuation[struct{}]) {
			onGiveFail := func(w *cml.Worker, err error) { w.Fail(err) }
			onTakeFail := func(w *cml.Worker, err error) { w.Fail(err) }
			onTake := func(w *cml.Worker, _ int) { done <- struct{}{} }
			onGive := func(w *cml.Worker, _ struct{}) {
				cml.Pick(w, get.Take(), cml.ContinuationFunc(onTake, onTakeFail))
			}
			cml.Pick(w, set.Give(i), cml.ContinuationFunc(onGive, onGiveFail))
		}))
	}

	for i := 0; i < clients; i++ {
		<-done
	}
	return 2 * clients
}
