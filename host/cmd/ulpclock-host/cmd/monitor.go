package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/olekukonko/tablewriter"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"ulpclock/core"
	"ulpclock/host/monitor"
	"ulpclock/host/serial"
)

var (
	monDeviceFlag  string
	monBaudFlag    int
	monFileFlag    string
	monListenFlag  string
	monNominalFlag uint32
)

func init() {
	RootCmd.AddCommand(monitorCmd)
	monitorCmd.Flags().StringVarP(&monDeviceFlag, "device", "d", "/dev/ttyUSB0", "serial device the clock reports on")
	monitorCmd.Flags().IntVarP(&monBaudFlag, "baud", "b", serial.DefaultBaud, "baud rate")
	monitorCmd.Flags().StringVarP(&monFileFlag, "file", "f", "", "replay a telemetry capture instead of reading the device")
	monitorCmd.Flags().StringVarP(&monListenFlag, "listen", "l", "", "serve prometheus metrics on this address, e.g. :9470")
	monitorCmd.Flags().Uint32VarP(&monNominalFlag, "nominal", "n", core.DefaultNominal, "nominal tick in 1/32768 s")
}

func openSource() (io.ReadCloser, error) {
	if monFileFlag != "" {
		return os.Open(monFileFlag)
	}
	cfg := serial.DefaultConfig(monDeviceFlag)
	cfg.Baud = monBaudFlag
	return serial.Open(cfg)
}

func printSummary(sum monitor.Summary) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"metric", "value"})
	table.Append([]string{"reports", fmt.Sprint(sum.Samples)})
	table.Append([]string{"gaps", fmt.Sprint(sum.Gaps)})
	table.Append([]string{"resyncs", fmt.Sprint(sum.Dropped)})
	table.Append([]string{"invalid", fmt.Sprint(sum.Invalid)})
	if sum.Samples > 0 {
		table.Append([]string{"mean drift", fmt.Sprintf("%.2f ppm", sum.MeanDriftPPM)})
		table.Append([]string{"drift stddev", fmt.Sprintf("%.2f ppm", sum.StddevDriftPPM)})
		table.Append([]string{"last", core.FormatSnapshot(sum.Last)})
	}
	table.Render()
}

func monitorRun() error {
	src, err := openSource()
	if err != nil {
		return err
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	eg, ctx := errgroup.WithContext(sigCtx)

	m := monitor.New(monNominalFlag)
	m.OnSample(func(s monitor.Sample) {
		log.Infof("%s drift=%.2fppm", core.FormatSnapshot(s.Status), s.DriftPPM)
	})
	if monListenFlag != "" {
		exporter := monitor.NewExporter()
		exporter.Attach(m)
		eg.Go(func() error {
			return exporter.ListenAndServe(ctx, monListenFlag)
		})
	}

	eg.Go(func() error {
		// Closing unblocks the pending read
		<-ctx.Done()
		return src.Close()
	})
	eg.Go(func() error {
		err := m.Run(ctx, src)
		if err == nil {
			// Replay finished, stop the exporter too
			stop()
		}
		if sigCtx.Err() != nil {
			return nil
		}
		return err
	})

	err = eg.Wait()
	printSummary(m.Summary())
	return err
}

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Decode clock status reports from the serial link",
	Run: func(_ *cobra.Command, _ []string) {
		ConfigureVerbosity()
		if err := monitorRun(); err != nil {
			log.Fatal(err)
		}
	},
}
