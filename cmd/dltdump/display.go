package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"dltdump/dlt"
)

// printMessageLine prints a formatted message line with metadata
func printMessageLine(w io.Writer, info *MessageInfo) {
	m := info.Msg
	ts := "-"
	if m.Storage != nil {
		ts = m.Storage.Time().Format("2006-01-02 15:04:05.000000")
	}
	mode := "   "
	if m.Extended != nil {
		mode = m.Extended.Info.Type().String()
		if lvl := m.Extended.Info.Level(); lvl != "" {
			mode += "/" + lvl
		}
	}
	fmt.Fprintf(w, "📍 #%d %s ECU:%s %s MC:%d [%s] %s: %s\n",
		m.Index, ts, m.EcuID(), info.Key, m.Standard.Counter, info.Category, mode, dlt.PayloadText(m))
	if m.Err != nil {
		fmt.Fprintf(w, "   ⚠️ %v\n", m.Err)
	}
}

// displayGroupedMessages displays messages grouped by APID/CTID and sorted by timestamp
func displayGroupedMessages(w io.Writer, messages []*MessageInfo, hideAccounted, hideUnaccounted bool) {
	// Group messages by context
	grouped := make(map[string][]*MessageInfo)
	for _, m := range messages {
		grouped[m.Key] = append(grouped[m.Key], m)
	}

	var keys []string
	for key := range grouped {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	fmt.Fprintln(w, "\n===================================================")
	fmt.Fprintln(w, "📋 MESSAGES GROUPED BY APID/CTID")
	fmt.Fprintln(w, "===================================================")

	for _, key := range keys {
		list := grouped[key]

		sort.SliceStable(list, func(i, j int) bool {
			if list[i].TimestampFloat == list[j].TimestampFloat {
				return list[i].SequenceNum < list[j].SequenceNum
			}
			return list[i].TimestampFloat < list[j].TimestampFloat
		})

		var filtered []*MessageInfo
		for _, m := range list {
			if hideAccounted && m.Category.Accounted() {
				continue
			}
			if hideUnaccounted && !m.Category.Accounted() {
				continue
			}
			filtered = append(filtered, m)
		}
		if len(filtered) == 0 {
			continue
		}

		fmt.Fprintf(w, "\n🔖 %s (%d messages)\n", key, len(filtered))
		fmt.Fprintln(w, strings.Repeat("-", 60))
		for _, m := range filtered {
			fmt.Fprintf(w, "  [%s #%d] ", strconv.FormatFloat(m.TimestampFloat, 'f', 6, 64), m.SequenceNum)
			printMessageLine(w, m)
		}
	}

	fmt.Fprintln(w, "\n===================================================")
}

// formatDuration formats milliseconds to a human-readable string
func formatDuration(ms float64) string {
	if ms < 1000 {
		return fmt.Sprintf("%.2f ms", ms)
	}

	seconds := ms / 1000
	if seconds < 60 {
		return fmt.Sprintf("%.2f sec", seconds)
	}

	minutes := seconds / 60
	if minutes < 60 {
		secs := int(seconds) % 60
		return fmt.Sprintf("%d min %d sec", int(minutes), secs)
	}

	hours := minutes / 60
	mins := int(minutes) % 60
	return fmt.Sprintf("%d hour %d min", int(hours), mins)
}
