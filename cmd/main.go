// Command engineblock loads a scenario of activities and runs each on its
// own pool of Motors over an unbounded cycle input until the process
// receives SIGINT or SIGTERM or the dashboard is quit.
package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/jshook/engineblock/pkg/activity"
	"github.com/jshook/engineblock/pkg/apiserver"
	"github.com/jshook/engineblock/pkg/ctime"
	"github.com/jshook/engineblock/pkg/cycle"
	"github.com/jshook/engineblock/pkg/dashboard"
	"github.com/jshook/engineblock/pkg/gc"
	"github.com/jshook/engineblock/pkg/health"
	enginemetrics "github.com/jshook/engineblock/pkg/metrics"
	"github.com/jshook/engineblock/pkg/motor"
	"github.com/jshook/engineblock/pkg/output"
	"github.com/jshook/engineblock/pkg/progress"
	"github.com/jshook/engineblock/pkg/ratelimit"
	"github.com/jshook/engineblock/pkg/scenario"
	"github.com/jshook/engineblock/pkg/shutdown"
	"github.com/jshook/engineblock/pkg/tracker"
)

const (
	scenarioPathLocal = "scenario.local.yaml"
	scenarioPathDef   = "scenario.yaml"

	gcInterval         = 30 * time.Second
	freeOSMemInterval  = 5 * time.Minute
	apiAddr            = ":9090"
	healthProbeSample  = time.Second
	progressReportRate = 4 // snapshots/sec, independent of any activity's cyclerate

	dashboardEnvVar    = "ENGINEBLOCK_DASHBOARD"
	dashboardInterval  = time.Second
	dashboardMaxWindow = 10 * time.Minute

	ctimeResolution = 10 * time.Millisecond
)

func setMaxProcs() {
	if _, err := maxprocs.Set(); err != nil {
		log.Err(err).Msg("[main] setting up GOMAXPROCS value failed")
		panic(err)
	}
	log.Info().Msgf("[main] optimized GOMAXPROCS=%d was set up", runtime.GOMAXPROCS(0))
}

// loadScenario tries a local override file before the default scenario
// file, logging whichever one was actually used.
func loadScenario() ([]*activity.ActivityDef, error) {
	if _, err := os.Stat(scenarioPathLocal); err == nil {
		defs, err := scenario.LoadFrom(scenarioPathLocal)
		if err != nil {
			return nil, err
		}
		log.Info().Msgf("[scenario] loaded from '%s'", scenarioPathLocal)
		return defs, nil
	}
	defs, err := scenario.LoadFrom(scenarioPathDef)
	if err != nil {
		return nil, err
	}
	log.Info().Msgf("[scenario] loaded from '%s'", scenarioPathDef)
	return defs, nil
}

// engineHealth reports the process alive as long as at least one motor
// slot hasn't reached a terminal state, satisfying health.Service.
type engineHealth struct {
	states []*activity.SlotStateTracker
}

func (h *engineHealth) IsAlive(ctx context.Context) bool {
	if len(h.states) == 0 {
		return true
	}
	for _, s := range h.states {
		if !s.IsTerminal() {
			return true
		}
	}
	return false
}

// echoAction is the built-in reference SyncAction: it does no real I/O, just
// marks every cycle a success. Real activities supply their own Action.
type echoAction struct{}

func (echoAction) RunCycle(cycle int64) (int32, error) { return 0, nil }

// discardOutput is the built-in reference Output: it drops every result.
// Real activities supply their own Output (a file writer, a database sink).
type discardOutput struct{}

func (discardOutput) OnCycleResult(output.CycleResult)                 {}
func (discardOutput) OnCycleResultSegment(*tracker.CycleResultsSegment) {}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	stopClock := ctime.Start(ctimeResolution)
	defer stopClock()

	setMaxProcs()

	defs, err := loadScenario()
	if err != nil {
		log.Err(err).Msg("[main] failed to load scenario")
		return
	}
	if len(defs) == 0 {
		log.Warn().Msg("[main] scenario has no activities, nothing to run")
		return
	}

	graceful := shutdown.NewGraceful(ctx, cancel)
	graceful.SetGracefulTimeout(5 * time.Minute)

	var allStates []*activity.SlotStateTracker
	metricSets := make(map[string]*enginemetrics.Set, len(defs))
	var reporters []*progress.Reporter

	for _, def := range defs {
		states, m := runActivity(ctx, graceful, def)
		allStates = append(allStates, states...)
		metricSets[def.Alias()] = m

		r := progress.NewReporter(ctx, progressReportRate, def.Alias(), states, m)
		reporters = append(reporters, r)
		go r.Run()
	}
	defer func() {
		for _, r := range reporters {
			r.Stop()
		}
	}()

	probe := health.NewProbe(healthProbeSample)
	probe.Watch(&engineHealth{states: allStates})
	defer probe.Stop()

	api := apiserver.New(apiAddr, metricSets, probe)
	graceful.Add(1)
	go func() {
		defer graceful.Done()
		if err := api.ListenAndServe(); err != nil {
			log.Err(err).Msg("[main] api server stopped")
		}
	}()
	go func() {
		<-ctx.Done()
		_ = api.Shutdown()
	}()

	gcCtx, gcCancel := context.WithCancel(context.Background())
	defer gcCancel()
	gc.Run(gcCtx, gcInterval, freeOSMemInterval)

	runDashboardIfRequested(ctx, cancel, metricSets)

	if err := graceful.ListenCancelAndAwait(); err != nil {
		log.Err(err).Msg("[main] failed to gracefully shut down engine")
	}
}

// runDashboardIfRequested launches a live terminal view of one activity's
// metrics when ENGINEBLOCK_DASHBOARD names a running activity's alias.
// Quitting the dashboard (q) cancels the whole engine run.
func runDashboardIfRequested(ctx context.Context, cancel context.CancelFunc, metricSets map[string]*enginemetrics.Set) {
	alias := os.Getenv(dashboardEnvVar)
	if alias == "" {
		return
	}
	set, ok := metricSets[alias]
	if !ok {
		log.Warn().Str("alias", alias).Msg("[main] dashboard requested for unknown activity alias")
		return
	}

	db := dashboard.NewDashboard(ctx, set, dashboardInterval, dashboardMaxWindow)
	db.AddCODelayMetric(alias)

	go func() {
		if err := db.Run(); err != nil {
			log.Err(err).Msg("[main] dashboard exited with an error")
		}
		cancel()
	}()
}

// runActivity builds one activity's input, metrics set, and Motor pool and
// launches every Motor in its own goroutine registered with graceful.
func runActivity(ctx context.Context, graceful *shutdown.Graceful, def *activity.ActivityDef) ([]*activity.SlotStateTracker, *enginemetrics.Set) {
	threads := def.Threads()
	if threads <= 0 {
		threads = 1
	}

	m := enginemetrics.NewSet()
	in := cycle.NewUnboundedInput(0)
	out := discardOutput{}

	var cycleRate, strideRate, phaseRate ratelimit.RateLimiter
	if def.CycleRate() != nil {
		if l, err := ratelimit.NewAverageRateLimiter(*def.CycleRate()); err != nil {
			log.Err(err).Str("activity", def.Alias()).Msg("[main] invalid cyclerate, running unthrottled")
		} else {
			cycleRate = l
			m.CODelayGauge(def.Alias(), func() float64 {
				return float64(l.GetTotalSchedulingDelay())
			})
		}
	}
	if def.StrideRate() != nil {
		if l, err := ratelimit.NewAverageRateLimiter(*def.StrideRate()); err != nil {
			log.Err(err).Str("activity", def.Alias()).Msg("[main] invalid striderate, running unthrottled")
		} else {
			strideRate = l
		}
	}
	if def.PhaseRate() != nil {
		if l, err := ratelimit.NewAverageRateLimiter(*def.PhaseRate()); err != nil {
			log.Err(err).Str("activity", def.Alias()).Msg("[main] invalid phaserate, running unthrottled")
		} else {
			phaseRate = l
		}
	}

	states := make([]*activity.SlotStateTracker, 0, threads)
	for slot := 0; slot < threads; slot++ {
		mo := motor.New(motor.Config{
			SlotID:     slot,
			Alias:      def.Alias(),
			Input:      in,
			Output:     out,
			CycleRate:  cycleRate,
			StrideRate: strideRate,
			PhaseRate:  phaseRate,
			SyncAction: echoAction{},
			Stride:     def.Stride(),
			Metrics:    m,
		})
		states = append(states, mo.State())

		graceful.Add(1)
		go func(mo *motor.Motor) {
			defer graceful.Done()
			mo.Run()
		}(mo)
	}

	go func() {
		<-ctx.Done()
		in.RequestStop()
	}()

	log.Info().Msgf("[main] activity %q started with %d threads", def.Alias(), threads)
	return states, m
}
