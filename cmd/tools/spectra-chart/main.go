// Command spectra-chart renders stored spectral variables from the
// results database to a standalone HTML line chart.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/banshee-data/radiance.report/internal/results"
	"github.com/banshee-data/radiance.report/internal/units"
)

var (
	dbPath    = flag.String("db", "results.db", "Results database")
	runID     = flag.String("run", "", "Run id; empty picks the most recent run")
	measureID = flag.String("measure", "", "Measure id (required)")
	variables = flag.String("vars", "", "Comma-separated variable names; empty charts all")
	output    = flag.String("out", "spectra.html", "Output HTML file")
	wlUnits   = flag.String("units", units.NM, "Wavelength axis units")
)

func main() {
	flag.Parse()

	if *measureID == "" {
		log.Fatal("-measure is required")
	}
	if !units.IsValidWavelengthUnit(*wlUnits) {
		log.Fatalf("-units must be one of %s", units.GetValidWavelengthUnitsString())
	}

	db, err := results.Open(*dbPath)
	if err != nil {
		log.Fatalf("opening %s: %v", *dbPath, err)
	}
	defer db.Close()

	run := *runID
	if run == "" {
		runs, err := db.ListRuns()
		if err != nil {
			log.Fatalf("listing runs: %v", err)
		}
		if len(runs) == 0 {
			log.Fatal("no runs in the database")
		}
		run = runs[0].RunID
		log.Printf("using most recent run %s", run)
	}

	var names []string
	if *variables != "" {
		for _, n := range strings.Split(*variables, ",") {
			names = append(names, strings.TrimSpace(n))
		}
	} else {
		names, err = db.Variables(run, *measureID)
		if err != nil {
			log.Fatalf("listing variables: %v", err)
		}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Spectra", Width: "1100px", Height: "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Spectral results",
			Subtitle: fmt.Sprintf("run=%s measure=%s", run, *measureID),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{
			Name: fmt.Sprintf("wavelength (%s)", *wlUnits), NameLocation: "middle", NameGap: 30,
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	charted := 0
	for _, name := range names {
		spectrum, err := db.LoadSpectrum(run, *measureID, name)
		if err != nil {
			log.Printf("skipping %s: %v", name, err)
			continue
		}
		if charted == 0 {
			xs := make([]string, len(spectrum.Wavelengths))
			for i, w := range spectrum.Wavelengths {
				xs[i] = fmt.Sprintf("%g", units.ConvertWavelength(w, *wlUnits))
			}
			line.SetXAxis(xs)
		}
		data := make([]opts.LineData, len(spectrum.Values))
		for i, v := range spectrum.Values {
			data[i] = opts.LineData{Value: v}
		}
		line.AddSeries(name, data)
		charted++
	}
	if charted == 0 {
		log.Fatalf("no spectral variables for run %s measure %s", run, *measureID)
	}

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("creating %s: %v", *output, err)
	}
	defer f.Close()
	if err := line.Render(f); err != nil {
		log.Fatalf("rendering chart: %v", err)
	}
	log.Printf("wrote %s (%d series)", *output, charted)
}
