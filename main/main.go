package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"
	"strings"

	plt "github.com/phil-mansfield/pyplot"

	"github.com/gosph/dfsph/fluid"
	"github.com/gosph/dfsph/io"
)

type FileGroup struct {
	prof *os.File
}

func (fg *FileGroup) Close() {
	if fg.prof != nil {
		pprof.StopCPUProfile()
		err := fg.prof.Close()
		if err != nil {
			log.Fatal(err.Error())
		}
	}
}

func main() {
	var (
		config, exampleConfig string
		cpuProfile            string
		densityPlot           string
	)

	vars := map[string]*string{
		"Config":        &config,
		"ExampleConfig": &exampleConfig,
	}

	flag.StringVar(
		&config, "Config", "",
		"Simulation configuration file.",
	)
	flag.StringVar(
		&exampleConfig, "ExampleConfig", "",
		"Prints an example configuration file to stdout. The only "+
			"accepted argument is 'Simulation'.",
	)
	flag.StringVar(
		&cpuProfile, "CPUProfile", "",
		"File to write a CPU profile of the run to.",
	)
	flag.StringVar(
		&densityPlot, "DensityPlot", "",
		"File to write a pyplot script plotting average density and "+
			"timestep against step number to.",
	)

	flag.Parse()

	modeName, err := getModeName(vars)
	if err != nil {
		log.Fatal(err.Error())
	}

	switch modeName {
	case "Config":
		wrap, err := io.ReadSimConfig(config)
		if err != nil {
			log.Fatal(err.Error())
		}

		fg := &FileGroup{}
		if cpuProfile != "" {
			fg.prof, err = os.Create(cpuProfile)
			if err != nil {
				log.Fatal(err.Error())
			}
			if err = pprof.StartCPUProfile(fg.prof); err != nil {
				log.Fatal(err.Error())
			}
		}

		simMain(wrap, densityPlot)
		fg.Close()

	case "ExampleConfig":
		switch exampleConfig {
		case "Simulation":
			fmt.Println(io.ExampleSimFile)
		default:
			log.Fatal(
				"Unrecognized 'ExampleConfig' argument. The only " +
					"recognized argument is 'Simulation'.",
			)
		}
	default:
		panic("Impossible")
	}
}

func getModeName(vars map[string]*string) (string, error) {
	setNames := []string{}

	for name, varPtr := range vars {
		if *varPtr != "" {
			setNames = append(setNames, name)
		}
	}

	if len(setNames) == 0 {
		return "", fmt.Errorf("No flags have been set.")
	}

	if len(setNames) > 1 {
		return "", fmt.Errorf(
			"The following flags were set: %s, but only one flag is "+
				"accepted at a time.",
			strings.Join(setNames, ", "),
		)
	}

	return setNames[0], nil
}

func simMain(wrap *io.SimWrapper, densityPlot string) {
	con := &wrap.Simulation

	positions, err := wrap.Positions()
	if err != nil {
		log.Fatal(err.Error())
	}

	f, err := fluid.New(positions, con.Params())
	if err != nil {
		log.Fatal(err.Error())
	}

	log.Printf(
		"Initialized %d particles. Average density: %.4g",
		len(f.Particles), f.AverageDensity(),
	)

	steps := make([]float64, 0, con.Steps)
	densities := make([]float64, 0, con.Steps)
	deltaTimes := make([]float64, 0, con.Steps)

	var ms runtime.MemStats
	for step := 1; step <= con.Steps; step++ {
		rep := f.Step()

		steps = append(steps, float64(step))
		densities = append(densities, float64(f.AverageDensity()))
		deltaTimes = append(deltaTimes, float64(rep.DeltaTime))

		if !rep.Converged() {
			log.Printf(
				"Step %d unconverged: density solve %d iterations, "+
					"divergence solve %d iterations.",
				step, rep.DensityIterations, rep.DivergenceIterations,
			)
		}

		if step%con.LogEvery == 0 {
			runtime.ReadMemStats(&ms)
			log.Printf(
				"Step %4d: dt: %.3g, density: %.4g, iters: %d+%d, "+
					"Alloc: %5d MB, Sys: %5d MB",
				step, rep.DeltaTime, f.AverageDensity(),
				rep.DensityIterations, rep.DivergenceIterations,
				ms.Alloc>>20, ms.Sys>>20,
			)
		}
	}

	if densityPlot != "" {
		writeDensityPlot(densityPlot, steps, densities, deltaTimes)
	}
}

func writeDensityPlot(fname string, steps, densities, deltaTimes []float64) {
	plt.Reset()

	plt.Figure()
	plt.Plot(steps, densities, "b", plt.LW(2))
	plt.XLabel("step")
	plt.YLabel("average density")
	plt.SaveFig(fname + "_density.png")

	plt.Figure()
	plt.Plot(steps, deltaTimes, "r", plt.LW(2))
	plt.XLabel("step")
	plt.YLabel("delta time")
	plt.YScale("log")
	plt.SaveFig(fname + "_dt.png")

	plt.Execute()
}
