// Command clairvoyance reconstructs the virtual address space described by
// a crash dump and writes it as a record file a separate viewer can render.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/0vercl0k/clairvoyance/config"
	"github.com/0vercl0k/clairvoyance/dump"
	"github.com/0vercl0k/clairvoyance/dump/rawdump"
	"github.com/0vercl0k/clairvoyance/errs"
	"github.com/0vercl0k/clairvoyance/metrics"
	"github.com/0vercl0k/clairvoyance/ptable"
	"github.com/0vercl0k/clairvoyance/record"
	"github.com/0vercl0k/clairvoyance/tape"
	"github.com/0vercl0k/clairvoyance/walker"
	"github.com/pkg/errors"
)

func main() {
	configPath := flag.String("config", "", "Path to a JSON config file (defaults are used if omitted)")
	statsPath := flag.String("stats", "", "Optional path to write run statistics to (stdout if empty)")
	logLevel := flag.String("loglevel", "", "Override the configured log level (Debug, Info, Warn, Error)")
	flag.Parse()

	if flag.NArg() < 1 || flag.NArg() > 2 {
		fmt.Fprintln(os.Stderr, "usage: clairvoyance <dump-path> [<directory-base>]")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	setLogLevel(cfg.LogLevel)

	if err := run(flag.Args(), cfg, *statsPath); err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

func setLogLevel(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		log.Warnf("unknown log level %q, defaulting to Info", level)
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
}

func run(args []string, cfg *config.Config, statsPath string) error {
	dumpPath := args[0]

	img, err := rawdump.Open(dumpPath)
	if err != nil {
		return errs.DumpOpenFailure(dumpPath, err)
	}
	defer img.Close()

	if img.DumpType() != dump.Full {
		log.Warnf("%s is a %s dump: mappings outside its captured pages will be invisible", dumpPath, img.DumpType())
	}

	directoryBase := img.GetDirectoryTableBase()
	if len(args) == 2 {
		base, err := parseDirectoryBase(args[1])
		if err != nil {
			return err
		}
		directoryBase = base
	}

	stats := metrics.NewRunStats()
	timing := metrics.NewMetric()

	w, ok := walker.New(img, directoryBase, func(level walker.Level, physicalAddress uint64) {
		log.Warnf("missing %s page at physical address 0x%x", level, physicalAddress)
		switch level {
		case walker.LevelPDPT:
			stats.MissingPDPT++
		case walker.LevelPD:
			stats.MissingPD++
		case walker.LevelPT:
			stats.MissingPT++
		}
	})
	if !ok {
		return errs.RootMissing(directoryBase)
	}

	tapeStart := time.Now()
	tp := tape.BuildWithOptions(w, cfg.MaxGapPixels,
		func(start, end uint64) {
			log.Warnf("gap from 0x%x to 0x%x exceeded the %d pixel cap, splitting region", start, end, cfg.MaxGapPixels)
			stats.GapOverflows++
		},
		func(kind ptable.Kind) {
			switch kind {
			case ptable.Normal:
				stats.NormalLeaves++
			case ptable.Large:
				stats.LargeLeaves++
			case ptable.Huge:
				stats.HugeLeaves++
			}
		},
	)
	timing.MetricMap[metrics.TapeBuild] = metrics.ToUS(time.Since(tapeStart))

	start := uint64(0)
	for _, r := range tp.Regions {
		stats.RecordRegion(r.EndDistance - start)
		start = r.EndDistance
	}

	outputPath := filepath.Join(cfg.OutputDir, outputFileName(dumpPath, directoryBase))
	emitStart := time.Now()
	if err := writeRecord(outputPath, tp); err != nil {
		return err
	}
	timing.MetricMap[metrics.Emit] = metrics.ToUS(time.Since(emitStart))

	statsOut := os.Stdout
	if statsPath != "" {
		f, err := os.Create(statsPath)
		if err != nil {
			return errs.IOWriteFailure(statsPath, err)
		}
		defer f.Close()
		statsOut = f
	}
	stats.PrintSummary(statsOut)
	timing.PrintAll()

	log.Infof("wrote %s (%d pixels, %d regions)", outputPath, len(tp.Pixels), len(tp.Regions))
	return nil
}

func writeRecord(path string, tp tape.Tape) error {
	f, err := os.Create(path)
	if err != nil {
		return errs.IOWriteFailure(path, err)
	}
	defer f.Close()

	if err := record.Write(f, tp); err != nil {
		return errs.IOWriteFailure(path, err)
	}
	return nil
}

func parseDirectoryBase(s string) (uint64, error) {
	base := 10
	trimmed := s
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		trimmed = s[2:]
	}
	v, err := strconv.ParseUint(trimmed, base, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid directory base %q", s)
	}
	return v, nil
}

func outputFileName(dumpPath string, directoryBase uint64) string {
	stem := strings.TrimSuffix(filepath.Base(dumpPath), filepath.Ext(dumpPath))
	return fmt.Sprintf("%s-%x.clairvoyance", stem, directoryBase)
}
