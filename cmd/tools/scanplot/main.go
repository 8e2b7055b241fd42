// Command scanplot renders a captured scan CSV as an interactive scatter
// chart (HTML) and prints range statistics. It is an offline companion to the
// loggers: capture with datalogger, inspect with scanplot.
//
//	scanplot -in lidar_data_20250101_120000.csv -out scan.html
//	scanplot -in scan.csv -rev 3 -png scan.png
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/lidarlog/internal/units"
)

type record struct {
	angleDeg   float64
	distanceMM float64
	quality    int
	revolution int
}

func main() {
	inPath := flag.String("in", "", "captured scan CSV to read")
	outPath := flag.String("out", "scan.html", "interactive chart output path")
	pngPath := flag.String("png", "", "also write a static PNG scatter to this path")
	rev := flag.Int("rev", -1, "plot only this revolution (-1 plots all)")
	maxPoints := flag.Int("max-points", 20000, "downsample the chart beyond this many points")
	flag.Parse()

	if *inPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	records, err := readRecords(*inPath, *rev)
	if err != nil {
		log.Fatalf("read %s: %v", *inPath, err)
	}
	if len(records) == 0 {
		log.Fatalf("%s holds no records for the requested revolution", *inPath)
	}

	printStats(os.Stdout, records)

	if err := writeChart(*outPath, *inPath, records, *maxPoints); err != nil {
		log.Fatalf("write chart: %v", err)
	}
	fmt.Printf("chart: %s\n", *outPath)

	if *pngPath != "" {
		if err := writePNG(*pngPath, records); err != nil {
			log.Fatalf("write png: %v", err)
		}
		fmt.Printf("png: %s\n", *pngPath)
	}
}

// readRecords loads the CSV produced by the loggers, optionally filtered to a
// single revolution.
func readRecords(path string, rev int) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) < 5 || header[0] != "timestamp" {
		return nil, fmt.Errorf("not a scan capture: header %v", header)
	}

	var records []record
	for line := 2; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rev >= 0 && rec.revolution != rev {
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string) (record, error) {
	if len(row) < 5 {
		return record{}, fmt.Errorf("short row %v", row)
	}
	angle, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		return record{}, fmt.Errorf("angle: %w", err)
	}
	dist, err := strconv.ParseFloat(row[2], 64)
	if err != nil {
		return record{}, fmt.Errorf("distance: %w", err)
	}
	quality, err := strconv.Atoi(row[3])
	if err != nil {
		return record{}, fmt.Errorf("quality: %w", err)
	}
	rev, err := strconv.Atoi(row[4])
	if err != nil {
		return record{}, fmt.Errorf("revolution: %w", err)
	}
	return record{angleDeg: angle, distanceMM: dist, quality: quality, revolution: rev}, nil
}

func printStats(w io.Writer, records []record) {
	dists := make([]float64, len(records))
	revs := map[int]bool{}
	for i, r := range records {
		dists[i] = r.distanceMM
		revs[r.revolution] = true
	}
	sort.Float64s(dists)

	mean, std := stat.MeanStdDev(dists, nil)
	fmt.Fprintf(w, "points:      %d across %d revolutions\n", len(records), len(revs))
	fmt.Fprintf(w, "range mean:  %.1f mm (stddev %.1f)\n", mean, std)
	fmt.Fprintf(w, "range p50:   %.1f mm\n", stat.Quantile(0.5, stat.Empirical, dists, nil))
	fmt.Fprintf(w, "range p95:   %.1f mm\n", stat.Quantile(0.95, stat.Empirical, dists, nil))
	fmt.Fprintf(w, "range min:   %.1f mm\n", dists[0])
	fmt.Fprintf(w, "range max:   %.1f mm\n", dists[len(dists)-1])
}

func writeChart(path, source string, records []record, maxPoints int) error {
	stride := 1
	if len(records) > maxPoints {
		stride = int(math.Ceil(float64(len(records)) / float64(maxPoints)))
	}

	data := make([]opts.ScatterData, 0, len(records)/stride+1)
	maxAbs := 0.0
	maxQuality := 0.0
	for i := 0; i < len(records); i += stride {
		r := records[i]
		x, y := units.PolarToCartesian(r.angleDeg, r.distanceMM)
		if math.Abs(x) > maxAbs {
			maxAbs = math.Abs(x)
		}
		if math.Abs(y) > maxAbs {
			maxAbs = math.Abs(y)
		}
		if q := float64(r.quality); q > maxQuality {
			maxQuality = q
		}
		data = append(data, opts.ScatterData{Value: []interface{}{x, y, r.quality}})
	}

	pad := maxAbs * 1.05
	if pad == 0 {
		pad = 1.0
	}
	if maxQuality == 0 {
		maxQuality = 1
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Scan Capture", Theme: "dark", Width: "900px", Height: "900px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Scan Capture",
			Subtitle: fmt.Sprintf("source=%s points=%d stride=%d", source, len(data), stride),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Min: -pad, Max: pad, Name: "X (mm)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Min: -pad, Max: pad, Name: "Y (mm)", NameLocation: "middle", NameGap: 30}),
		charts.WithVisualMapOpts(opts.VisualMap{
			Show:       opts.Bool(true),
			Calculable: opts.Bool(true),
			Min:        0,
			Max:        float32(maxQuality),
			Dimension:  "2",
			InRange:    &opts.VisualMapInRange{Color: []string{"#31688e", "#35b779", "#fde725"}},
		}),
	)
	scatter.AddSeries("scan", data, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 3}))

	var buf bytes.Buffer
	if err := scatter.Render(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// writePNG renders a static scatter for reports where an HTML chart is
// inconvenient.
func writePNG(path string, records []record) error {
	p := plot.New()
	p.Title.Text = "Scan Capture"
	p.X.Label.Text = "X (mm)"
	p.Y.Label.Text = "Y (mm)"

	xys := make(plotter.XYs, len(records))
	for i, r := range records {
		x, y := units.PolarToCartesian(r.angleDeg, r.distanceMM)
		xys[i].X = x
		xys[i].Y = y
	}
	s, err := plotter.NewScatter(xys)
	if err != nil {
		return err
	}
	s.GlyphStyle.Radius = vg.Points(1)
	p.Add(s)
	return p.Save(8*vg.Inch, 8*vg.Inch, path)
}
