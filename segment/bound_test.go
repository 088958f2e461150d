package segment

import (
	"testing"
	"time"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func TestBound_PassThrough(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: ms(40300)},
		{Start: ms(40400), End: ms(130000)},
	}
	chunks := Bound(segs, ms(120000), ms(100))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		if c.Index != i {
			t.Errorf("expected index %d, got %d", i, c.Index)
		}
		if c.Start != segs[i].Start || c.End != segs[i].End {
			t.Errorf("chunk %d altered: %v (from %v)", i, c, segs[i])
		}
	}
}

func TestBound_SplitsOverlongSegment(t *testing.T) {
	// 130s segment with a 120s cap splits into 2 x 65s.
	segs := []Segment{{Start: 0, End: ms(130000)}}
	chunks := Bound(segs, ms(120000), ms(100))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	if chunks[0].Duration() != ms(65000) || chunks[1].Duration() != ms(65000) {
		t.Errorf("expected even 65s halves, got %v and %v",
			chunks[0].Duration(), chunks[1].Duration())
	}
	if chunks[0].End != chunks[1].Start {
		t.Errorf("sub-chunks not contiguous: %v then %v", chunks[0], chunks[1])
	}
}

func TestBound_SubChunksSumToParent(t *testing.T) {
	seg := Segment{Start: ms(1000), End: ms(301000)} // 300s, cap 70s -> 5 parts
	chunks := Bound([]Segment{seg}, ms(70000), ms(100))
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
	var total time.Duration
	for _, c := range chunks {
		if c.Duration() > ms(70000) {
			t.Errorf("chunk %d exceeds cap: %v", c.Index, c.Duration())
		}
		if c.Source != seg {
			t.Errorf("chunk %d lost source segment: %v", c.Index, c.Source)
		}
		total += c.Duration()
	}
	if total != seg.Duration() {
		t.Errorf("sub-chunk durations sum to %v, parent is %v", total, seg.Duration())
	}
	if chunks[0].Start != seg.Start || chunks[4].End != seg.End {
		t.Error("sub-chunks do not cover the parent segment")
	}
}

func TestBound_RemainderGoesToFinalSubChunk(t *testing.T) {
	// 100s over a 30s cap: 4 parts of 25s each; an uneven parent keeps the
	// remainder on the last part.
	seg := Segment{Start: 0, End: ms(100003)}
	chunks := Bound([]Segment{seg}, ms(30000), ms(100))
	if len(chunks) != 4 {
		t.Fatalf("expected 4 chunks, got %d", len(chunks))
	}
	if chunks[3].End != seg.End {
		t.Errorf("final sub-chunk must end at parent end: %v vs %v", chunks[3].End, seg.End)
	}
	var total time.Duration
	for _, c := range chunks {
		total += c.Duration()
	}
	if total != seg.Duration() {
		t.Errorf("durations sum to %v, want %v", total, seg.Duration())
	}
}

func TestBound_DropsTooShort(t *testing.T) {
	segs := []Segment{
		{Start: 0, End: ms(50)},          // below min, dropped
		{Start: ms(100), End: ms(5100)},  // kept
		{Start: ms(5200), End: ms(5260)}, // below min, dropped
		{Start: ms(5300), End: ms(9300)}, // kept
	}
	chunks := Bound(segs, ms(120000), ms(100))
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}
	// Indices stay contiguous even though segments were dropped.
	if chunks[0].Index != 0 || chunks[1].Index != 1 {
		t.Errorf("expected contiguous indices 0,1 got %d,%d",
			chunks[0].Index, chunks[1].Index)
	}
	if chunks[0].Start != ms(100) || chunks[1].Start != ms(5300) {
		t.Errorf("wrong chunks kept: %v", chunks)
	}
}

func TestBound_AllTooShort(t *testing.T) {
	segs := []Segment{{Start: 0, End: ms(50)}}
	chunks := Bound(segs, ms(120000), ms(100))
	if len(chunks) != 0 {
		t.Errorf("expected no chunks, got %v", chunks)
	}
}

func TestBound_Empty(t *testing.T) {
	if chunks := Bound(nil, ms(120000), ms(100)); len(chunks) != 0 {
		t.Errorf("expected no chunks for no segments, got %v", chunks)
	}
}

func TestBound_ExactCapNotSplit(t *testing.T) {
	segs := []Segment{{Start: 0, End: ms(120000)}}
	chunks := Bound(segs, ms(120000), ms(100))
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for exact-cap segment, got %d", len(chunks))
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{MinChunk: ms(200), MaxChunk: ms(100)}
	if err := cfg.Validate(); err == nil {
		t.Error("expected error when min_chunk exceeds max_chunk")
	}
	good := Config{}
	good.ApplyDefaults()
	if err := good.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if good.MinSilence != DefaultMinSilence || good.SilenceThresholdDBFS != DefaultSilenceThresholdDBFS {
		t.Error("defaults not applied")
	}
}
