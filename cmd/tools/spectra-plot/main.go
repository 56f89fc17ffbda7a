// Command spectra-plot renders stored spectral variables from the results
// database to PNG line plots, one file per variable.
package main

import (
	"flag"
	"fmt"
	"image/color"
	"log"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/radiance.report/internal/results"
	"github.com/banshee-data/radiance.report/internal/units"
)

var (
	dbPath    = flag.String("db", "results.db", "Results database")
	runID     = flag.String("run", "", "Run id; empty picks the most recent run")
	measureID = flag.String("measure", "", "Measure id (required)")
	variables = flag.String("vars", "", "Comma-separated variable names; empty plots all")
	outputDir = flag.String("out", "plots", "Output directory")
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
		names = strings.Split(*variables, ",")
	} else {
		names, err = db.Variables(run, *measureID)
		if err != nil {
			log.Fatalf("listing variables: %v", err)
		}
	}
	if len(names) == 0 {
		log.Fatalf("no spectral variables for run %s measure %s", run, *measureID)
	}

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("creating %s: %v", *outputDir, err)
	}

	for _, name := range names {
		name = strings.TrimSpace(name)
		spectrum, err := db.LoadSpectrum(run, *measureID, name)
		if err != nil {
			log.Printf("skipping %s: %v", name, err)
			continue
		}
		file := filepath.Join(*outputDir, fmt.Sprintf("%s_%s.png", *measureID, name))
		if err := plotSpectrum(name, spectrum, *wlUnits, file); err != nil {
			log.Fatalf("plotting %s: %v", name, err)
		}
		log.Printf("wrote %s (%d points)", file, len(spectrum.Wavelengths))
	}
}

func plotSpectrum(name string, s *results.Spectrum, wlUnits, file string) error {
	p := plot.New()
	p.Title.Text = name
	p.X.Label.Text = fmt.Sprintf("wavelength (%s)", wlUnits)
	p.Y.Label.Text = name
	if s.Units != "" {
		p.Y.Label.Text = fmt.Sprintf("%s (%s)", name, s.Units)
	}
	p.Add(plotter.NewGrid())

	pts := make(plotter.XYs, len(s.Wavelengths))
	for i := range s.Wavelengths {
		pts[i].X = units.ConvertWavelength(s.Wavelengths[i], wlUnits)
		pts[i].Y = s.Values[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	line.Width = vg.Points(1)
	line.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	p.Add(line)

	return p.Save(10*vg.Inch, 5*vg.Inch, file)
}
