package dashboard

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	ui "github.com/gizak/termui/v3"

	enginemetrics "github.com/jshook/engineblock/pkg/metrics"
)

// DashboardState holds the interactive view state toggled by key events.
type DashboardState struct {
	currentWindow time.Duration
	helpVisible   bool
}

// Dashboard is a live termui view of a running engine's metrics.Set,
// re-scraped on a fixed interval via its own WritePrometheus output so it
// sees exactly what an external Prometheus scraper would.
type Dashboard struct {
	ctx    context.Context
	cancel context.CancelFunc

	metricsSet *enginemetrics.Set
	interval   time.Duration
	maxWindow  time.Duration

	series map[string]*Series
	panels []Panel
	state  DashboardState
}

// NewDashboard builds a dashboard that scrapes set every interval, keeping
// up to maxWindow of history per metric.
func NewDashboard(ctx context.Context, set *enginemetrics.Set, interval, maxWindow time.Duration) *Dashboard {
	if maxWindow < time.Minute {
		maxWindow = time.Minute
	}
	ctx, cancel := context.WithCancel(ctx)
	return &Dashboard{
		ctx:        ctx,
		cancel:     cancel,
		metricsSet: set,
		interval:   interval,
		maxWindow:  maxWindow,
		series:     make(map[string]*Series),
		state: DashboardState{
			currentWindow: maxWindow,
		},
		panels: []Panel{
			NewInfoPanel([]string{
				enginemetrics.NameCycles + "_count",
				enginemetrics.NamePhases + "_count",
				enginemetrics.NameStrides + "_count",
				enginemetrics.NameReadInput + "_count",
			}),
			NewPlotPanel("Cycle latency (ns)", enginemetrics.NameCycles),
			NewPlotPanel("Stride latency (ns)", enginemetrics.NameStrides),
			NewLegendPanel(),
			NewHelpPanel(),
		},
	}
}

// AddCODelayMetric folds one activity's coordinated-omission delay gauge
// into the "CO Delay" overlay plot. Call once per activity before Run.
func (d *Dashboard) AddCODelayMetric(label string) {
	name := "cco-delay-" + label
	for _, p := range d.panels {
		if mp, ok := p.(*MultiPlotPanel); ok && mp.title == "CO Delay (ms)" {
			mp.keys = append(mp.keys, name)
			return
		}
	}
	d.panels = append(d.panels, NewMultiPlotPanel("CO Delay (ms)", []string{name}))
}

// Run blocks, driving the terminal UI until the bound context is canceled
// or the user quits.
func (d *Dashboard) Run() error {
	if err := ui.Init(); err != nil {
		return fmt.Errorf("dashboard: termui init failed: %w", err)
	}
	defer func() {
		ui.Clear()
		ui.Close()
	}()

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	events := ui.PollEvents()

	for {
		select {
		case <-d.ctx.Done():
			return nil
		case e := <-events:
			d.handleEvent(e)
		case now := <-ticker.C:
			d.scrape(now)
			d.render()
		}
	}
}

// Stop cancels the dashboard's run loop.
func (d *Dashboard) Stop() {
	d.cancel()
}

func (d *Dashboard) handleEvent(e ui.Event) {
	switch e.Type {
	case ui.KeyboardEvent:
		switch e.ID {
		case "q", "Q", "<C-c>":
			d.Stop()
		case "h":
			d.state.helpVisible = !d.state.helpVisible
			for _, p := range d.panels {
				if hp, ok := p.(*HelpPanel); ok {
					hp.SetVisible(d.state.helpVisible)
				}
			}
		case "+":
			d.state.currentWindow *= 2
			if d.state.currentWindow > d.maxWindow {
				d.state.currentWindow = d.maxWindow
			}
		case "-":
			d.state.currentWindow /= 2
			if d.state.currentWindow < time.Second {
				d.state.currentWindow = time.Second
			}
		}
	case ui.ResizeEvent:
		ui.Clear()
		d.render()
	}
}

// scrape walks the engine metrics.Set's own Prometheus text exposition and
// folds every numeric sample into its named Series. This is the same text
// an external Prometheus server would scrape over HTTP; the dashboard just
// reads it in-process.
func (d *Dashboard) scrape(now time.Time) {
	var buf bytes.Buffer
	d.metricsSet.WritePrometheus(&buf)

	s := bufio.NewScanner(&buf)
	for s.Scan() {
		line := s.Text()
		if strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		name := fields[0]
		if idx := strings.IndexByte(name, '{'); idx >= 0 {
			name = name[:idx]
		}
		val, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			continue
		}
		d.seriesFor(name).Append(now, val, d.state.currentWindow)
	}
}

func (d *Dashboard) seriesFor(name string) *Series {
	s, ok := d.series[name]
	if !ok {
		s = &Series{}
		d.series[name] = s
	}
	return s
}

func (d *Dashboard) render() {
	w, h := ui.TerminalDimensions()
	grid := ui.NewGrid()
	grid.SetRect(0, 0, w, h)

	var top, bottom []interface{}

	for _, p := range d.panels {
		p.Update(d.series)
		drawable := p.Draw()
		if drawable == nil {
			continue
		}
		switch p.Name() {
		case "LegendPanel":
			bottom = append(bottom, ui.NewRow(0.15, drawable))
		case "HelpPanel":
			bottom = append(bottom, ui.NewRow(0.25, drawable))
		default:
			top = append(top, ui.NewCol(1.0/float64(max(len(d.panels)-2, 1)), drawable))
		}
	}

	grid.Set(
		ui.NewRow(0.75, top...),
		ui.NewRow(0.25, bottom...),
	)
	ui.Render(grid)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
