package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"ulpclock/core"
	"ulpclock/sim"
)

var (
	simScenarioFlag   string
	simDurationFlag   time.Duration
	simReferenceFlag  float64
	simCrystalFlag    float64
	simMaxErrorFlag   float64
	simTelemetryFlag  string
	simTimingDumpFlag bool
)

func init() {
	RootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringVarP(&simScenarioFlag, "scenario", "s", "", "scenario yaml file")
	simulateCmd.Flags().DurationVarP(&simDurationFlag, "duration", "d", 0, "override the scenario duration")
	simulateCmd.Flags().Float64VarP(&simReferenceFlag, "reference-ppm", "r", 0, "reference oscillator error when no scenario is given")
	simulateCmd.Flags().Float64VarP(&simCrystalFlag, "crystal-ppm", "c", 0, "crystal error when no scenario is given")
	simulateCmd.Flags().Float64VarP(&simMaxErrorFlag, "max-error-ppm", "m", 12, "fail if the clock error exceeds this")
	simulateCmd.Flags().StringVarP(&simTelemetryFlag, "telemetry", "t", "", "write the status frames the clock emits to this file")
	simulateCmd.Flags().BoolVar(&simTimingDumpFlag, "timing", false, "dump the timing event ring at the end")
}

func loadScenario() (*sim.Scenario, error) {
	var s *sim.Scenario
	if simScenarioFlag != "" {
		var err error
		if s, err = sim.ReadScenario(simScenarioFlag); err != nil {
			return nil, err
		}
	} else {
		d := sim.DefaultScenario()
		d.ReferencePPM = simReferenceFlag
		d.CrystalPPM = simCrystalFlag
		s = &d
	}
	if simDurationFlag != 0 {
		s.Duration = simDurationFlag
	}
	return s, s.Validate()
}

func printReport(r *sim.Report) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"metric", "value"})
	rows := [][]string{
		{"elapsed", r.Elapsed.String()},
		{"clock", r.ClockTime.String()},
		{"error", fmt.Sprintf("%.2f ppm (%v)", r.ErrorPPM, r.ClockTime-r.Elapsed)},
		{"free running error", fmt.Sprintf("%.2f ppm", r.FreeRunningErrorPPM)},
		{"cycles", fmt.Sprint(r.Cycles)},
		{"calibrations", fmt.Sprint(r.Calibrations)},
		{"faults", fmt.Sprint(r.Faults)},
		{"measured tick", fmt.Sprintf("%.1f ± %.2f units", r.MeanTick, r.StddevTick)},
		{"crystal duty", fmt.Sprintf("%.3f%%", r.CrystalDuty*100)},
		{"overflows", fmt.Sprint(r.Overflows)},
		{"handled ticks", fmt.Sprint(r.Ticks)},
		{"missed ticks", fmt.Sprint(r.MissedTicks)},
		{"reentries", fmt.Sprint(r.Reentries)},
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
	fmt.Printf("last: %s\n", core.FormatSnapshot(r.Final))
}

func simulateRun() error {
	s, err := loadScenario()
	if err != nil {
		return err
	}
	simulator, err := sim.New(s)
	if err != nil {
		return err
	}
	if verbose {
		simulator.AddReporter(core.DebugReporter)
	}
	if simTelemetryFlag != "" {
		f, err := os.Create(simTelemetryFlag)
		if err != nil {
			return err
		}
		defer f.Close()
		simulator.AddReporter(core.NewStatusReporter(func(b []byte) {
			if _, err := f.Write(b); err != nil {
				log.Errorf("writing telemetry: %v", err)
			}
		}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	core.ClearTimingRing()
	report, err := simulator.Run(ctx)
	if err != nil {
		return err
	}

	printReport(report)
	if simTimingDumpFlag {
		core.SetDebugWriter(func(s string) { fmt.Println(s) })
		core.SetDebugEnabled(true)
		core.DumpTimingRing()
	}

	if math.Abs(report.ErrorPPM) > simMaxErrorFlag {
		fmt.Printf("%s clock error %.2f ppm exceeds %.2f ppm\n", failString, report.ErrorPPM, simMaxErrorFlag)
		return fmt.Errorf("clock error out of bounds")
	}
	fmt.Printf("%s clock error %.2f ppm within %.2f ppm\n", okString, report.ErrorPPM, simMaxErrorFlag)
	return nil
}

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the clock against a simulated MCU",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := simulateRun(); err != nil {
			log.Fatal(err)
		}
	},
}
