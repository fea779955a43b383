package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"dltdump/dlt"
)

// ContextPattern represents a unique ECU/APID/CTID combination
type ContextPattern struct {
	EcuID       string
	Key         string
	Occurrences map[string]int // capture -> count
}

// loadCaptures decodes every capture concurrently. The result is keyed by path,
// so every path must name a distinct file.
func loadCaptures(ctx context.Context, paths []string, opts ...dlt.Option) (map[string][]*MessageInfo, error) {
	seen := make(map[string]bool, len(paths))
	for _, path := range paths {
		switch {
		case path == "-":
			return nil, errors.New("compare reads captures from files, not stdin")
		case seen[path]:
			return nil, errors.Errorf("capture %s given more than once", path)
		}
		seen[path] = true
	}

	results := make([][]*MessageInfo, len(paths))
	group, ctx := errgroup.WithContext(ctx)

	for i, path := range paths {
		group.Go(func() error {
			return dlt.WithCapture(path, func(c *dlt.Capture) error {
				var infos []*MessageInfo
				for m, err := range c.Messages() {
					if err != nil {
						return err
					}
					if err := ctx.Err(); err != nil {
						return err
					}
					infos = append(infos, newMessageInfo(path, m))
				}
				results[i] = infos
				return nil
			}, opts...)
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string][]*MessageInfo, len(paths))
	for i, path := range paths {
		out[path] = results[i]
	}
	return out, nil
}

// CompareContexts compares the contexts that log in each capture
func CompareContexts(w io.Writer, captureMessages map[string][]*MessageInfo) {
	patterns := make(map[string]*ContextPattern)

	for capture, messages := range captureMessages {
		for _, m := range messages {
			ecu := m.Msg.EcuID()
			key := ecu + ":" + m.Key
			if _, exists := patterns[key]; !exists {
				patterns[key] = &ContextPattern{
					EcuID:       ecu,
					Key:         m.Key,
					Occurrences: make(map[string]int),
				}
			}
			patterns[key].Occurrences[capture]++
		}
	}

	var captures []string
	for c := range captureMessages {
		captures = append(captures, c)
	}
	sort.Strings(captures)

	fmt.Fprintln(w, "\n===================================================")
	fmt.Fprintln(w, "📊 APID/CTID COMPARISON")
	fmt.Fprintln(w, "===================================================")

	fmt.Fprintln(w, "Captures analyzed:")
	for i, c := range captures {
		fmt.Fprintf(w, "  [%d] %s (%d messages)\n", i+1, c, len(captureMessages[c]))
	}

	commonToAll := make([]*ContextPattern, 0)
	unique := make(map[string][]*ContextPattern)
	partial := make([]*ContextPattern, 0)

	for _, p := range patterns {
		switch len(p.Occurrences) {
		case len(captures):
			commonToAll = append(commonToAll, p)
		case 1:
			for c := range p.Occurrences {
				unique[c] = append(unique[c], p)
			}
		default:
			partial = append(partial, p)
		}
	}

	if len(commonToAll) > 0 {
		fmt.Fprintf(w, "\n🔗 Contexts Common to ALL Captures (%d patterns):\n", len(commonToAll))
		fmt.Fprintln(w, strings.Repeat("-", 70))
		sortPatterns(commonToAll)
		for _, p := range commonToAll {
			counts := make([]string, len(captures))
			for i, c := range captures {
				counts[i] = fmt.Sprintf("%d", p.Occurrences[c])
			}
			fmt.Fprintf(w, "  ECU:%s %s\n", p.EcuID, p.Key)
			fmt.Fprintf(w, "    Occurrences: [%s]\n", strings.Join(counts, ", "))
		}
	}

	for _, c := range captures {
		list := unique[c]
		if len(list) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n🔸 Contexts UNIQUE to %s (%d patterns):\n", c, len(list))
		fmt.Fprintln(w, strings.Repeat("-", 70))
		sortPatterns(list)
		for _, p := range list {
			fmt.Fprintf(w, "  ECU:%s %s (count: %d)\n", p.EcuID, p.Key, p.Occurrences[c])
		}
	}

	if len(partial) > 0 {
		fmt.Fprintf(w, "\n🔀 Contexts in SOME Captures (%d patterns):\n", len(partial))
		fmt.Fprintln(w, strings.Repeat("-", 70))
		sortPatterns(partial)
		for _, p := range partial {
			presentIn := make([]string, 0)
			for i, c := range captures {
				if count, ok := p.Occurrences[c]; ok {
					presentIn = append(presentIn, fmt.Sprintf("[%d]:%d", i+1, count))
				}
			}
			fmt.Fprintf(w, "  ECU:%s %s\n", p.EcuID, p.Key)
			fmt.Fprintf(w, "    Present in: %s\n", strings.Join(presentIn, ", "))
		}
	}

	fmt.Fprintln(w, "\n===================================================")
	fmt.Fprintf(w, "📈 Summary:\n")
	fmt.Fprintf(w, "   Total unique patterns: %d\n", len(patterns))
	fmt.Fprintf(w, "   Common to all captures: %d\n", len(commonToAll))
	fmt.Fprintf(w, "   Unique to one capture: %d\n", countUnique(unique))
	fmt.Fprintf(w, "   In some captures: %d\n", len(partial))
	fmt.Fprintln(w, "===================================================")
}

func sortPatterns(patterns []*ContextPattern) {
	sort.Slice(patterns, func(i, j int) bool {
		if patterns[i].EcuID == patterns[j].EcuID {
			return patterns[i].Key < patterns[j].Key
		}
		return patterns[i].EcuID < patterns[j].EcuID
	})
}

func countUnique(unique map[string][]*ContextPattern) int {
	total := 0
	for _, list := range unique {
		total += len(list)
	}
	return total
}
