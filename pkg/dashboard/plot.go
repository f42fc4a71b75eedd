package dashboard

import (
	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
)

// PlotPanel renders a single scraped metric as a line over the current
// window.
type PlotPanel struct {
	title  string
	metric string
	plot   *widgets.Plot
}

func NewPlotPanel(title, metric string) *PlotPanel {
	plot := widgets.NewPlot()
	plot.Title = title
	plot.Marker = widgets.MarkerBraille
	plot.AxesColor = ui.ColorWhite
	return &PlotPanel{title: title, metric: metric, plot: plot}
}

func (p *PlotPanel) Update(series map[string]*Series) {
	s, ok := series[p.metric]
	if !ok {
		p.plot.Data = [][]float64{{0, 0}}
		return
	}
	p.plot.Data = [][]float64{safeData(s.pts())}
}

func (p *PlotPanel) Draw() ui.Drawable { return p.plot }
func (p *PlotPanel) Name() string      { return p.title }

var defaultLineColors = []ui.Color{
	ui.ColorGreen,
	ui.ColorCyan,
	ui.ColorMagenta,
	ui.ColorYellow,
	ui.ColorBlue,
}

// MultiPlotPanel overlays several related metrics (e.g. one cco-delay line
// per activity) on a single plot.
type MultiPlotPanel struct {
	title string
	keys  []string
	plot  *widgets.Plot
}

func NewMultiPlotPanel(title string, keys []string) *MultiPlotPanel {
	plot := widgets.NewPlot()
	plot.Title = title
	plot.Marker = widgets.MarkerBraille
	plot.AxesColor = ui.ColorWhite
	plot.Data = make([][]float64, len(keys))
	plot.LineColors = make([]ui.Color, len(keys))
	plot.DataLabels = make([]string, len(keys))
	for i, k := range keys {
		plot.DataLabels[i] = k
		plot.LineColors[i] = defaultLineColors[i%len(defaultLineColors)]
		plot.Data[i] = []float64{0, 0}
	}
	return &MultiPlotPanel{title: title, keys: keys, plot: plot}
}

func (m *MultiPlotPanel) Update(series map[string]*Series) {
	data := make([][]float64, 0, len(m.keys))
	for _, k := range m.keys {
		s, ok := series[k]
		if !ok {
			data = append(data, []float64{0, 0})
			continue
		}
		data = append(data, safeData(s.pts()))
	}
	m.plot.Data = data
}

func (m *MultiPlotPanel) Draw() ui.Drawable { return m.plot }
func (m *MultiPlotPanel) Name() string      { return m.title }
