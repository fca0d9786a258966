package service

import (
	"chain-explorer/internal/domain/entity"
)

// transferTopicCount is the topic count of an event with two indexed arguments
const transferTopicCount = 3

// ClassifyLog returns the reason a log entry is rejected, or LogRejectNone.
// Each condition alone is enough to reject the entry.
func ClassifyLog(entry entity.LogEntry) entity.LogRejectReason {
	switch {
	case entry.Removed:
		return entity.LogRejectRemoved
	case len(entry.Topics) != transferTopicCount:
		return entity.LogRejectTopics
	case len(entry.Data) == 0:
		return entity.LogRejectEmptyData
	default:
		return entity.LogRejectNone
	}
}

// LogStreamFilter drops malformed or removed entries and entries it has already passed.
// A filter belongs to a single scan and is not safe for concurrent use.
type LogStreamFilter struct {
	seen     map[string]struct{}
	onReject func(entity.LogRejectReason)
}

// NewLogStreamFilter creates a filter. onReject may be nil.
func NewLogStreamFilter(onReject func(entity.LogRejectReason)) *LogStreamFilter {
	return &LogStreamFilter{
		seen:     make(map[string]struct{}),
		onReject: onReject,
	}
}

// Accept reports whether the entry looks like a well-formed, live transfer event
func (f *LogStreamFilter) Accept(entry entity.LogEntry) bool {
	reason := ClassifyLog(entry)
	if reason != entity.LogRejectNone {
		if f.onReject != nil {
			f.onReject(reason)
		}
		return false
	}
	return true
}

// Filter returns the accepted entries of a batch that were not seen before, in batch order
func (f *LogStreamFilter) Filter(batch []entity.LogEntry) []entity.LogEntry {
	fresh := make([]entity.LogEntry, 0, len(batch))
	for _, entry := range batch {
		if !f.Accept(entry) {
			continue
		}
		key := entry.Key()
		if _, ok := f.seen[key]; ok {
			continue
		}
		f.seen[key] = struct{}{}
		fresh = append(fresh, entry)
	}
	return fresh
}

// AdvanceCursor computes the next backward scan window.
// With a non-empty batch the next upper bound is the block of its last entry;
// an empty batch moves the window below prev. FromBlock never increases.
func AdvanceCursor(prev entity.BlockCursor, batch []entity.LogEntry, span uint64) (entity.BlockCursor, bool) {
	if span == 0 {
		span = 1
	}

	var to uint64
	if len(batch) > 0 {
		to = batch[len(batch)-1].BlockNumber
	} else {
		if prev.FromBlock == 0 {
			return prev, false
		}
		to = prev.FromBlock - 1
	}
	if to > prev.ToBlock {
		to = prev.ToBlock
	}

	from := uint64(0)
	if to >= span-1 {
		from = to - (span - 1)
	}
	if from > prev.FromBlock {
		from = prev.FromBlock
	}

	return entity.BlockCursor{FromBlock: from, ToBlock: to}, true
}
