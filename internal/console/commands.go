// internal/console/commands.go
package console

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/tamzrod/flowlogger/internal/clock"
	"github.com/tamzrod/flowlogger/internal/meter"
	"github.com/tamzrod/flowlogger/internal/poller"
)

type command struct {
	code string
	run  func(ctx context.Context, s *Session) string
}

// commands is matched by prefix, so "gpdtXYZ" runs gpdt.
var commands = []command{
	{"gpdt", cmdPICTime},
	{"gplf", cmdDumpLog},
	{"spyr", setClockField("Enter last two digits of the year: i.e. '08' for 2008\r> ", Clock.SetYear, "PIC Time")},
	{"spmo", setClockField("Enter month in full two digits: i.e. '08' for August\r> ", Clock.SetMonth, "PIC Time")},
	{"spdy", setClockField("Enter day of month in full two digits: i.e. '02' for the 2nd\r> ", Clock.SetDay, "PIC Time")},
	{"sphr", setClockField("Enter hour of day in full two digits (24 hour): i.e. '02' for 2AM\r> ", Clock.SetHours, "Current Time")},
	{"spmn", setClockField("Enter minute in full two digits: i.e. '02' for 2 minutes after hour\r> ", Clock.SetMinutes, "Current Time")},
	{"spsc", setClockField("Enter seconds in full two digits: i.e. '02' for 2 seconds after minute\r>", Clock.SetSeconds, "Current Time")},
	{"ptsm", cmdTakeSamples},
	{"pssi", cmdSampleInterval},
	{"spcl", cmdClearLog},

	{"gfdt", meterDate("Flow Meter Date", meter.DateTime)},
	{"gfcd", meterDate("Flow Meter Calibration Date", meter.CalibrationDate)},
	{"gfcf", meterFloat("Calibration Factor = %5.5f \r", meter.CalibrationFactor)},
	{"gfoh", cmdOperatingHours},
	{"gfnp", meterUint("Number of power ups since first power up = %d \r", meter.PowerUps)},
	{"gftf", cmdTotalFlow},
	{"gftu", meterText("Units for total flow = %s \r", meter.TotalFlowUnits)},
	{"gfqn", meterFloat("Qn (nominal flow) = %5.5f \r", meter.NominalFlow)},
	{"gffl", cmdFlowRate},
	{"gffr", meterFloat("Current flow rate as percent of Qn = %3.2f%% \r", meter.FlowPercent)},
	{"gfmx", meterFloat("Max flow rate recorded = %5.5f \r", meter.HighestFlow)},
	{"gfmd", meterDate("Date of maximum recorded flow", meter.HighestFlowDate)},
	{"gfmn", meterFloat("Minimum flow rate recorded = %5.5f \r", meter.LowestFlow)},
	{"gfnd", meterDate("Date of minimum recorded flow", meter.LowestFlowDate)},
	{"gfhc", meterFloat("Highest consumption in day = %5.5f \r", meter.HighestDayConsumption)},
	{"gfhd", meterDate("Date of highest day consumption", meter.HighestDayDate)},
	{"gffc", meterFloat("Flowrate cutoff (as %% of Qn) = %3.2f%% \r", meter.LowFlowCutoff)},
	{"gffu", meterText("Units for flow rate = %s \r", meter.FlowRateUnits)},
	{"gfvl", meterFloat("Current Velocity = %5.5f \r", meter.Velocity)},
	{"gftp", meterFloat("Current transmitter temp = %3.2f degrees C.\r", meter.TransmitterTemp)},
	{"gfbt", meterUint("Battery %% of max capacity = %3d%%\r", meter.Battery)},
	{"gfps", meterUint("Power Status = %02d\r", meter.PowerStatus)},
	{"gfft", meterUint("Fault Status = 0x%o\r", meter.FaultStatus)},
	{"gfmt", meterUint("Comm module type = %02d\r", meter.CommModule)},
	{"gfll", meterDate("Date of last log entry", meter.LastLogDate)},
	{"fsyn", cmdSyncMeterClock},
}

func lookup(line string) (command, bool) {
	for _, c := range commands {
		if strings.HasPrefix(line, c.code) {
			return c, true
		}
	}
	return command{}, false
}

// twoDigits parses the leading digits of the first two characters of an
// answer. Anything unparsable is 0.
func twoDigits(answer string) int {
	if len(answer) > 2 {
		answer = answer[:2]
	}
	answer = strings.TrimLeft(answer, " \t")
	n := 0
	for i := 0; i < len(answer); i++ {
		c := answer[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func failed(what string, err error) string {
	return fmt.Sprintf("Sorry, could not %s: %v \r", what, err)
}

// ---- logger clock ----

func cmdPICTime(_ context.Context, s *Session) string {
	now, err := s.cfg.Clock.Grab()
	if err != nil {
		return failed("read the clock", err)
	}
	return fmt.Sprintf("PIC Time = %s \r", now)
}

// setClockField grabs the clock, edits one pending field, commits and
// reads the clock back.
func setClockField(prompt string, set func(Clock, clock.Target, int) bool, label string) func(context.Context, *Session) string {
	return func(_ context.Context, s *Session) string {
		answer, ok := s.ask(prompt)
		if !ok {
			return ""
		}
		v := twoDigits(answer)

		if _, err := s.cfg.Clock.Grab(); err != nil {
			return failed("read the clock", err)
		}
		if wrapped := set(s.cfg.Clock, clock.Pending, v); wrapped {
			s.log.Debug().Int("entered", v).Msg("clock field wrapped")
		}
		if err := s.cfg.Clock.Commit(); err != nil {
			return failed("set the clock", err)
		}

		now, err := s.cfg.Clock.Grab()
		if err != nil {
			return failed("read the clock", err)
		}
		return fmt.Sprintf("%s = %s \r", label, now)
	}
}

// ---- sampling and log ----

func cmdTakeSamples(ctx context.Context, s *Session) string {
	s.puts("How many samples do you want to log (01-99)?\r")
	answer, ok := s.ask("Enter in two digit format (i.e. 02 for two samples)\r>")
	if !ok {
		return ""
	}
	n := twoDigits(answer)

	s.puts("OK, starting to sample")
	s.cfg.Sampler.Take(ctx, n, func(poller.Result) { s.puts(".") })
	return "OK, done sampling, use gplf to see the samples. \r"
}

var intervalReplies = map[byte]string{
	'A': "OK, set to sample once every 10 minutes.\r",
	'B': "OK, set to sample once per hour.\r",
	'C': "OK, set to sample once per day.\r",
	'D': "OK, set to sample once per week.\r",
}

func cmdSampleInterval(_ context.Context, s *Session) string {
	s.puts("Choose interval that the PIC will sample the flow meter:\r")
	answer, ok := s.ask("A = Every 10 minutes\rB = Every hour\rC = Once a day\rD = Once a week\r>")
	if !ok {
		return ""
	}
	if answer == "" {
		return "Sorry, did not understand that option.\r"
	}

	letter := answer[0]
	if letter >= 'a' && letter <= 'z' {
		letter -= 'a' - 'A'
	}
	mask, ok := clock.IntervalMask(letter)
	if !ok {
		return "Sorry, did not understand that option.\r"
	}
	if err := s.cfg.Clock.ArmAlarm(mask); err != nil {
		return failed("set the alarm", err)
	}
	if s.cfg.OnInterval != nil {
		s.cfg.OnInterval(letter, mask)
	}
	s.log.Info().Str("interval", mask.String()).Msg("sampling interval changed")
	return intervalReplies[letter]
}

func cmdClearLog(_ context.Context, s *Session) string {
	s.puts("This command will CLEAR ALL DATA FROM THE LOGS!!!\r")
	answer, ok := s.ask("ARE YOU SURE YOU WANT TO DO THIS?(y|[n])\r>")
	if !ok {
		return ""
	}
	if answer == "" || (answer[0] != 'y' && answer[0] != 'Y') {
		return "Log file NOT cleared.\r"
	}
	if err := s.cfg.Log.Reset(); err != nil {
		return failed("clear the log", err)
	}
	s.log.Info().Msg("log cleared")
	return "OK, log file is cleared.\r"
}

// crWriter turns line feeds into carriage returns for the terminal.
type crWriter struct {
	w io.Writer
}

func (c crWriter) Write(p []byte) (int, error) {
	b := make([]byte, len(p))
	for i, ch := range p {
		if ch == '\n' {
			ch = '\r'
		}
		b[i] = ch
	}
	return c.w.Write(b)
}

func cmdDumpLog(_ context.Context, s *Session) string {
	if err := s.cfg.Log.Dump(crWriter{w: s.cfg.Terminal}); err != nil {
		s.log.Warn().Err(err).Msg("log dump failed")
	}
	return "Done reading log file\r"
}

// ---- flow meter ----

func meterFloat(format string, r meter.Register) func(context.Context, *Session) string {
	return func(_ context.Context, s *Session) string {
		v, err := s.cfg.Instrument.Float(r)
		if err != nil {
			return failed("read "+r.Name, err)
		}
		return fmt.Sprintf(format, v)
	}
}

func meterUint(format string, r meter.Register) func(context.Context, *Session) string {
	return func(_ context.Context, s *Session) string {
		v, err := s.cfg.Instrument.Uint(r)
		if err != nil {
			return failed("read "+r.Name, err)
		}
		return fmt.Sprintf(format, v)
	}
}

func meterText(format string, r meter.Register) func(context.Context, *Session) string {
	return func(_ context.Context, s *Session) string {
		v, err := s.cfg.Instrument.Text(r)
		if err != nil {
			return failed("read "+r.Name, err)
		}
		return fmt.Sprintf(format, v)
	}
}

func meterDate(label string, r meter.Register) func(context.Context, *Session) string {
	return func(_ context.Context, s *Session) string {
		v, err := s.cfg.Instrument.Date(r)
		if err != nil {
			return failed("read "+r.Name, err)
		}
		return fmt.Sprintf("%s = %s \r", label, v)
	}
}

func cmdOperatingHours(_ context.Context, s *Session) string {
	h, err := s.cfg.Instrument.OperatingHours()
	if err != nil {
		return failed("read "+meter.OperatingHours.Name, err)
	}
	return fmt.Sprintf("Operating hours since first power up = %d \r", h)
}

func cmdTotalFlow(_ context.Context, s *Session) string {
	t, err := s.cfg.Instrument.Totalizer(meter.Totalizer1)
	if err != nil {
		return failed("read "+meter.Totalizer1.Name, err)
	}
	return fmt.Sprintf("Total flow since stats reset = %d \r", t.Integer)
}

func cmdFlowRate(_ context.Context, s *Session) string {
	// priming read, the first answer after idle is unreliable
	_, _ = s.cfg.Instrument.Float(meter.FlowRate)

	v, err := s.cfg.Instrument.Float(meter.FlowRate)
	if err != nil {
		return failed("read "+meter.FlowRate.Name, err)
	}
	return fmt.Sprintf("Current flow rate = %5.5f \r", v)
}

func cmdSyncMeterClock(_ context.Context, s *Session) string {
	s.puts("Flow Meter Clock will be set to time on PIC\r")
	now, err := s.cfg.Clock.Grab()
	if err != nil {
		return failed("read the clock", err)
	}
	if err := s.cfg.Instrument.SetDateTime(now.DateTime6()); err != nil {
		return failed("set the flow meter clock", err)
	}
	return "OK, time set on flow meter.\r"
}
