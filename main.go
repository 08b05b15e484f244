package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"time"

	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/config"
	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/element"
	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/log"
	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/recorder"
	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/render"
	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/simulator"
	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/utils"

	"github.com/akamensky/argparse"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// cliOptions 命令行参数
type cliOptions struct {
	configPath    string
	scenariosPath string
	outputDir     string
	printEvery    int
	workers       int
	logLevel      string
}

func main() {
	parser := argparse.NewParser("gridca", "Cellular-automaton traffic simulation on a grid road network")
	configPath := parser.String("c", "config", &argparse.Options{Default: "input/config.yaml", Help: "base config file (.yaml/.yml/.json)"})
	scenariosPath := parser.String("s", "scenarios", &argparse.Options{Default: "input/scenarios.yaml", Help: "scenario overrides file"})
	outputDir := parser.String("o", "output", &argparse.Options{Help: "output directory, overrides output.dir"})
	printEvery := parser.Int("p", "print-every", &argparse.Options{Default: -1, Help: "print the grid every N ticks, overrides output.print_every"})
	workers := parser.Int("w", "workers", &argparse.Options{Default: 0, Help: "scenarios run concurrently, 0 = GOMAXPROCS"})
	logLevel := parser.String("l", "log-level", &argparse.Options{Help: "debug, info, warn or error, overrides logging.level"})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	opts := cliOptions{
		configPath:    *configPath,
		scenariosPath: *scenariosPath,
		outputDir:     *outputDir,
		printEvery:    *printEvery,
		workers:       *workers,
		logLevel:      *logLevel,
	}
	if err := run(ctx, opts, os.Stdout); err != nil {
		log.Error("simulation failed", "err", err)
		log.CloseLog()
		os.Exit(1)
	}
}

// run 加载配置和场景并运行；没有场景时运行基础配置
func run(ctx context.Context, opts cliOptions, out io.Writer) error {
	baseRaw, err := config.LoadRaw(opts.configPath)
	if err != nil {
		return err
	}
	baseCfg, err := config.Decode(baseRaw)
	if err != nil {
		return fmt.Errorf("%s: %w", opts.configPath, err)
	}
	applyCLI(baseCfg, opts)

	if err := log.InitLog(baseCfg.Logging.File, baseCfg.Logging.Level, baseCfg.Logging.Format); err != nil {
		return err
	}
	defer log.CloseLog()
	log.LogEnvironment()

	runID := uuid.New().String()
	outDir := baseCfg.Output.Dir
	summaryFile := filepath.Join(outDir, baseCfg.Output.Summary)
	log.WriteLog("----------------------------------Simulation Start----------------------------------", "runID", runID)

	scenarios, err := config.LoadScenarios(opts.scenariosPath)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn("scenarios file not found, running base config", "path", opts.scenariosPath)
		scenarios, err = nil, nil
	}
	if err != nil {
		return err
	}

	var printMu sync.Mutex
	if len(scenarios) == 0 {
		csvPath := filepath.Join(outDir, "base.csv")
		if err := runScenario(runID, "base", baseCfg, 1, csvPath, out, &printMu); err != nil {
			return err
		}
		return recorder.WriteToSummaryCSV(summaryFile)
	}

	log.WriteLog("scenarios loaded", "count", len(scenarios),
		"names", lo.Map(scenarios, func(sc config.Scenario, _ int) string { return sc.Name }))

	pool := utils.NewWorkerPool(ctx, opts.workers)
	log.Debug("worker pool started", "workers", pool.Workers())
	for _, sc := range scenarios {
		cfg, err := config.Resolve(baseRaw, sc)
		if err != nil {
			pool.Stop()
			return err
		}
		applyCLI(cfg, opts)

		name := sc.Name
		csvPath := filepath.Join(outDir, name+".csv")
		if err := pool.Submit(func() error {
			return runScenario(runID, name, cfg, 0, csvPath, out, &printMu)
		}); err != nil {
			pool.Stop()
			return fmt.Errorf("submit scenario %q: %w", name, err)
		}
	}

	startTime := time.Now()
	runErr := pool.Wait()
	log.WriteLog("all scenarios finished", "elapsed", time.Since(startTime))

	if err := recorder.WriteToSummaryCSV(summaryFile); err != nil {
		return errors.Join(runErr, err)
	}
	if runErr != nil {
		return runErr
	}
	log.WriteLog("---------------------------------- Completed ----------------------------------")
	return nil
}

// applyCLI 命令行参数覆盖配置文件中的值
func applyCLI(cfg *config.Config, opts cliOptions) {
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}
	if opts.printEvery >= 0 {
		p := opts.printEvery
		cfg.Output.PrintEvery = &p
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
}

// buildOptions 将配置转换为模拟参数
func buildOptions(name string, cfg *config.Config, defaultPrintEvery int) (simulator.Options, error) {
	conflict, err := simulator.ParseConflictPolicy(cfg.Mode.Conflict)
	if err != nil {
		return simulator.Options{}, err
	}
	boundary, err := simulator.ParseBoundaryPolicy(cfg.Mode.Boundary)
	if err != nil {
		return simulator.Options{}, err
	}

	printEvery := defaultPrintEvery
	if cfg.Output.PrintEvery != nil {
		printEvery = *cfg.Output.PrintEvery
	}

	return simulator.Options{
		Name: name,
		Engine: simulator.EngineOptions{
			Turn: simulator.TurnProbabilities{
				Straight: *cfg.Turn.PStraight,
				Left:     *cfg.Turn.PLeft,
				Right:    *cfg.Turn.PRight,
				UTurn:    *cfg.Turn.PUTurn,
			},
			Conflict: conflict,
			Boundary: boundary,
		},
		Reseed: simulator.ReseedConfig{
			Enabled:  cfg.Reseed.Enabled,
			Density:  cfg.Reseed.Density,
			Announce: cfg.Reseed.Announce,
		},
		PrintEvery: printEvery,
		LogEvery:   cfg.Logging.StatusInterval,
	}, nil
}

// runScenario 运行一个场景并写出每步数据
func runScenario(runID, name string, cfg *config.Config, defaultPrintEvery int, csvPath string, out io.Writer, printMu *sync.Mutex) error {
	mask := element.BuildRoads(cfg.Grid.Height, cfg.Grid.Width, cfg.Roads.HorizontalRows, cfg.Roads.VerticalCols)

	report := simulator.AnalyzeTopology(mask)
	log.WriteLog("road network",
		"scenario", name,
		"size", fmt.Sprintf("%dx%d", mask.Height(), mask.Width()),
		"lanes", report.Lanes,
		"intersections", report.Intersections,
		"components", report.Components,
		"largestComponent", report.LargestComponent,
		"stronglyConnected", report.StronglyConnected,
		"drainingLanes", report.DrainingLanes,
		"trappedLanes", report.TrappedLanes,
	)

	opts, err := buildOptions(name, cfg, defaultPrintEvery)
	if err != nil {
		return fmt.Errorf("scenario %q: %w", name, err)
	}
	opts.OnTick = func(t int, occ *element.Occupancy) {
		printMu.Lock()
		defer printMu.Unlock()
		fmt.Fprintf(out, "\n--- %s t=%d ---\n", name, t)
		if err := render.Render(out, mask, occ); err != nil {
			log.Warn("render failed", "scenario", name, "err", err)
		}
	}

	seed := cfg.Traffic.SeedValue()
	log.LogSimParameters(name,
		"density", cfg.Traffic.Density,
		"steps", cfg.Traffic.Steps,
		"seeded", seed != nil,
		"conflict", opts.Engine.Conflict,
		"boundary", opts.Engine.Boundary,
		"reseed", opts.Reseed.Enabled,
	)

	// 初始状态使用同一种子的独立随机数流生成
	initial := element.SeedVehicles(mask, cfg.Traffic.Density, simulator.NewRandFromSeed(seed))

	final, metrics, err := simulator.Simulate(mask, initial, cfg.Traffic.Steps, seed, opts)
	if err != nil {
		return fmt.Errorf("scenario %q: %w", name, err)
	}

	if err := recorder.WriteMetricsCSV(csvPath, metrics); err != nil {
		return fmt.Errorf("scenario %q: %w", name, err)
	}

	summary := simulator.Summarize(metrics)
	recorder.RecordSummary(runID, name, summary)
	log.WriteLog(fmt.Sprintf("[%s] finished", name),
		"totalExits", summary.TotalExits,
		"finalVehicles", final.Count(),
		"finalByDirection", simulator.DirectionCounts(final),
		"meanVehicles", summary.MeanVehicles,
		"reseeds", summary.Reseeds,
		"csv", csvPath,
	)
	return nil
}
