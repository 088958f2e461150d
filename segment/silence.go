package segment

import (
	"time"

	"github.com/kbukum/scribekit/audio"
)

// analysisWindow is the resolution of the silence scan. Runs are built from
// consecutive windows, so silence boundaries are accurate to this step.
const analysisWindow = 10 * time.Millisecond

// Split scans a buffer for silence runs and returns the speech regions
// between them, padded on each side by cfg.KeepSilence so word onsets are
// not clipped. It is a pure function of its inputs.
//
// A non-empty buffer always yields at least one Segment: when no silence run
// qualifies, or when the whole buffer is silence, the entire buffer is
// returned as a single Segment.
func Split(buf *audio.Buffer, cfg Config) []Segment {
	cfg.ApplyDefaults()

	dur := buf.Duration()
	if dur <= 0 {
		return nil
	}

	silences := detectSilence(buf, cfg.MinSilence, cfg.SilenceThresholdDBFS)
	speech := invert(silences, dur)
	if len(speech) == 0 {
		// All-silence buffer: hand the whole thing to the backend, which
		// reports it as empty rather than failing.
		return []Segment{{Start: 0, End: dur}}
	}
	return pad(speech, cfg.KeepSilence, dur)
}

// detectSilence returns the runs of near-continuous sub-threshold audio
// lasting at least minSilence, in timeline order.
func detectSilence(buf *audio.Buffer, minSilence time.Duration, thresholdDBFS float64) []Segment {
	dur := buf.Duration()
	var runs []Segment
	var runStart time.Duration
	inRun := false

	for offset := time.Duration(0); offset < dur; offset += analysisWindow {
		end := offset + analysisWindow
		if end > dur {
			end = dur
		}
		silent := buf.LevelDBFS(offset, end) < thresholdDBFS
		switch {
		case silent && !inRun:
			runStart = offset
			inRun = true
		case !silent && inRun:
			if offset-runStart >= minSilence {
				runs = append(runs, Segment{Start: runStart, End: offset})
			}
			inRun = false
		}
	}
	if inRun && dur-runStart >= minSilence {
		runs = append(runs, Segment{Start: runStart, End: dur})
	}
	return runs
}

// invert returns the speech spans between qualifying silence runs.
func invert(silences []Segment, dur time.Duration) []Segment {
	var speech []Segment
	cursor := time.Duration(0)
	for _, s := range silences {
		if s.Start > cursor {
			speech = append(speech, Segment{Start: cursor, End: s.Start})
		}
		cursor = s.End
	}
	if cursor < dur {
		speech = append(speech, Segment{Start: cursor, End: dur})
	}
	return speech
}

// pad widens each span by up to keep on both sides. Padding between
// neighboring spans is capped at half the gap so segments never overlap;
// padding at the buffer edges is capped by the edge itself.
func pad(spans []Segment, keep time.Duration, dur time.Duration) []Segment {
	if keep <= 0 {
		return spans
	}
	out := make([]Segment, len(spans))
	for i, s := range spans {
		start := s.Start - keep
		if i > 0 {
			half := s.Start - (s.Start-spans[i-1].End)/2
			if start < half {
				start = half
			}
		}
		if start < 0 {
			start = 0
		}

		end := s.End + keep
		if i < len(spans)-1 {
			half := s.End + (spans[i+1].Start-s.End)/2
			if end > half {
				end = half
			}
		}
		if end > dur {
			end = dur
		}
		out[i] = Segment{Start: start, End: end}
	}
	return out
}
