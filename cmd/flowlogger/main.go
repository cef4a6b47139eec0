// cmd/flowlogger/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/tamzrod/flowlogger/internal/clock"
	"github.com/tamzrod/flowlogger/internal/config"
	"github.com/tamzrod/flowlogger/internal/console"
	"github.com/tamzrod/flowlogger/internal/link"
	"github.com/tamzrod/flowlogger/internal/logstore"
	"github.com/tamzrod/flowlogger/internal/metrics"
	"github.com/tamzrod/flowlogger/internal/poller"
	pmodbus "github.com/tamzrod/flowlogger/internal/poller/modbus"
	"github.com/tamzrod/flowlogger/internal/scheduler"
	"github.com/tamzrod/flowlogger/internal/version"
	"github.com/tamzrod/flowlogger/internal/writer"
)

// serialReadTimeout bounds one blocking read of a port reader goroutine.
const serialReadTimeout = 100 * time.Millisecond

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: flowlogger <config.yaml>")
		os.Exit(2)
	}
	if os.Args[1] == "-version" || os.Args[1] == "--version" {
		fmt.Printf("flowlogger %s (built %s)\n", version.Version, version.BuildDate)
		return
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}
	lc := cfg.Logger

	log := newLogger(lc.LogLevel)
	log.Info().
		Str("version", version.Version).
		Str("build_date", version.BuildDate).
		Msg("flowlogger starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, lc, log); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("flowlogger stopped")
	}
	log.Info().Msg("flowlogger stopped")
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

func run(ctx context.Context, lc config.LoggerConfig, log zerolog.Logger) error {
	m := metrics.New()
	if lc.Metrics.Listen != "" {
		go serveMetrics(ctx, lc.Metrics.Listen, m, log)
	}

	events := scheduler.NewEvents()

	// ---- instrument link ----
	port, closePort, err := openInstrument(lc.Instrument, log)
	if err != nil {
		return err
	}
	defer closePort()

	bus, err := pmodbus.New(port, pmodbus.Config{
		ResponsePolls: lc.Instrument.ResponsePolls,
		BytePolls:     lc.Instrument.BytePolls,
	}, log.With().Str("component", "modbus").Logger(), m)
	if err != nil {
		return err
	}

	// ---- clock ----
	rtc := clock.NewSoftRTC(nil)
	keeper := clock.NewKeeper(rtc, clock.KeeperConfig{
		TornReadRetries: lc.Clock.TornReadRetries,
	}, log.With().Str("component", "clock").Logger(), m)

	mask, _ := clock.IntervalMask(lc.Sampling.Interval[0])
	var interval atomic.Uint32
	interval.Store(uint32(mask))

	if err := armBootAlarm(keeper, *lc.Clock.AlarmHour, mask); err != nil {
		return err
	}

	// The comparator disables the alarm when it fires; re-arm it here so
	// the next interval is not missed.
	rtc.OnAlarm(func() {
		_ = rtc.SetAlarmEnabled(true)
		events.AlarmFired()
	})
	go rtc.Run(ctx)

	if now, err := keeper.Grab(); err == nil {
		log.Info().Str("clock", now.String()).Str("interval", mask.String()).Msg("clock ready")
	}

	// ---- storage ----
	store, err := openStore(lc.Storage, log)
	if err != nil {
		return err
	}
	defer store.Close()

	sampler, mt, err := poller.Build(lc, bus, keeper, store, log, m)
	if err != nil {
		return err
	}
	logIdentity(log.With().Str("component", "meter").Logger(), mt)

	// ---- console ----
	term, err := openConsole(lc.Console)
	if err != nil {
		return err
	}
	defer term.Close()
	term.OnByte(events.ByteReceived)

	session, err := console.New(console.Config{
		Terminal:   term,
		IdlePolls:  lc.Console.IdlePolls,
		Instrument: mt,
		Clock:      keeper,
		Sampler:    sampler,
		Log:        store,
		OnInterval: func(letter byte, mk clock.RepeatMask) {
			interval.Store(uint32(mk))
			log.Info().Str("interval", string(letter)).Str("mask", mk.String()).Msg("sampling interval changed")
		},
		Logger: log.With().Str("component", "console").Logger(),
	})
	if err != nil {
		return err
	}

	// ---- scheduler + mirror ----
	var results chan poller.Result
	var onResult func(poller.Result)
	if lc.Mirror != nil {
		results = make(chan poller.Result, 16)
		onResult = poller.Publish(results)
	}

	sch, err := scheduler.New(scheduler.Config{
		Events:   events,
		Sampler:  sampler,
		Session:  session,
		OnResult: onResult,
		Log:      log.With().Str("component", "scheduler").Logger(),
		Metrics:  m,
	})
	if err != nil {
		return err
	}

	if lc.Mirror != nil {
		closeMirror, err := startMirror(ctx, *lc.Mirror, results, sch, &interval, log)
		if err != nil {
			return err
		}
		defer closeMirror()
	}

	return sch.Run(ctx, lc.Sampling.OnStart)
}

// armBootAlarm sets the alarm to hour:00:00 and arms it with mask.
func armBootAlarm(k *clock.Keeper, hour int, mask clock.RepeatMask) error {
	k.SetHours(clock.Alarm, hour)
	k.SetMinutes(clock.Alarm, 0)
	k.SetSeconds(clock.Alarm, 0)
	if err := k.SetAlarm(k.Alarm()); err != nil {
		return err
	}
	return k.ArmAlarm(mask)
}

func openInstrument(ic config.InstrumentConfig, log zerolog.Logger) (link.Port, func(), error) {
	if ic.Simulate {
		log.Warn().Uint8("slave_id", ic.SlaveID).Msg("instrument simulated in process")
		dev := newSimulatedMeter(ic.SlaveID, time.Now())
		return &link.Memory{Respond: dev.Handle}, func() {}, nil
	}

	p, err := link.OpenSerial(link.SerialConfig{
		Device:      ic.Device,
		BaudRate:    ic.BaudRate,
		DataBits:    ic.DataBits,
		StopBits:    ic.StopBits,
		Parity:      ic.Parity,
		ReadTimeout: serialReadTimeout,
	}, link.StreamConfig{PollWait: time.Duration(ic.PollWaitMs) * time.Millisecond})
	if err != nil {
		return nil, nil, err
	}
	return p, func() { _ = p.Close() }, nil
}

func openConsole(cc config.ConsoleConfig) (*link.StreamPort, error) {
	sc := link.StreamConfig{PollWait: time.Duration(cc.PollWaitMs) * time.Millisecond}
	if cc.Device == "" {
		return link.NewStreamPort(stdio{}, sc), nil
	}
	return link.OpenConsoleSerial(link.SerialConfig{
		Device:      cc.Device,
		BaudRate:    cc.BaudRate,
		DataBits:    8,
		StopBits:    1,
		Parity:      "N",
		ReadTimeout: serialReadTimeout,
	}, sc)
}

func openStore(sc config.StorageConfig, log zerolog.Logger) (logstore.Store, error) {
	file, err := logstore.NewFileStore(sc.CSVPath)
	if err != nil {
		return nil, err
	}
	if sc.SQLitePath == "" {
		return file, nil
	}

	db, err := logstore.OpenSQLite(sc.SQLitePath)
	if err != nil {
		return nil, err
	}
	if n, err := db.Count(); err == nil {
		log.Info().Str("path", sc.SQLitePath).Int("samples", n).Msg("sqlite store opened")
	}
	return logstore.NewMulti(file, db)
}

func startMirror(
	ctx context.Context,
	mc config.MirrorConfig,
	results <-chan poller.Result,
	sch *scheduler.Scheduler,
	interval *atomic.Uint32,
	log zerolog.Logger,
) (func(), error) {
	plan, err := writer.BuildPlan(mc)
	if err != nil {
		return nil, err
	}

	cli, closeCli, err := writer.BuildEndpointClient(mc)
	if err != nil {
		return nil, err
	}

	var status writer.StatusWriter
	if sw, ok := writer.NewDeviceStatusWriter(plan, cli); ok {
		status = sw
	}

	mirror := writer.NewMirror(writer.MirrorConfig{
		Data:     writer.New(plan, cli),
		Status:   status,
		Mode:     func() uint16 { return uint16(sch.Mode()) },
		Interval: func() uint16 { return uint16(interval.Load()) },
		Log:      log.With().Str("component", "mirror").Str("endpoint", mc.Endpoint).Logger(),
	})
	go mirror.Run(ctx, results)

	return func() { _ = closeCli() }, nil
}

func serveMetrics(ctx context.Context, addr string, m *metrics.Metrics, log zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Info().Str("listen", addr).Msg("metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("metrics server failed")
	}
}

// stdio is the process terminal as a byte stream.
type stdio struct{}

func (stdio) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdio) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdio) Close() error                { return nil }
