package segment

import (
	"time"
)

// Bound enforces chunk duration limits on silence-detected segments.
//
// Segments within [minChunk, maxChunk] become one chunk each. Over-long
// segments are split into the smallest number of equal sub-chunks that fit
// under maxChunk; division remainders go to the final sub-chunk so the
// sub-chunk durations always sum exactly to the parent segment. Segments
// and sub-chunks shorter than minChunk are dropped as noise. Emitted chunk
// indices are contiguous from 0 in timeline order.
func Bound(segments []Segment, maxChunk, minChunk time.Duration) []Chunk {
	if maxChunk <= 0 {
		maxChunk = DefaultMaxChunk
	}

	var chunks []Chunk
	next := 0
	emit := func(start, end time.Duration, src Segment) {
		if end-start < minChunk {
			return
		}
		chunks = append(chunks, Chunk{Index: next, Start: start, End: end, Source: src})
		next++
	}

	for _, seg := range segments {
		dur := seg.Duration()
		if dur <= maxChunk {
			emit(seg.Start, seg.End, seg)
			continue
		}

		// Ceiling division fixes the count; even division sizes the parts.
		n := int((dur + maxChunk - 1) / maxChunk)
		sub := dur / time.Duration(n)
		start := seg.Start
		for i := 0; i < n; i++ {
			end := start + sub
			if i == n-1 {
				end = seg.End
			}
			emit(start, end, seg)
			start = end
		}
	}
	return chunks
}
