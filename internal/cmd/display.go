package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"nestboard/internal/service"
)

const (
	hoursPerDay  = 24
	daysPerMonth = 30
)

// printOutline prints the node hierarchy with tree branches.
func printOutline(w io.Writer, items []service.OutlineItem) {
	// open[d] tracks whether depth d still has siblings below the current line.
	var open []bool
	for i, it := range items {
		if it.Depth == 0 {
			fmt.Fprintf(w, "%s (%s)\n", it.Title, cards(it.Elements))
			continue
		}
		last := isLastSibling(items, i)
		for len(open) < it.Depth {
			open = append(open, false)
		}
		open = open[:it.Depth]

		var prefix strings.Builder
		for d := 1; d < it.Depth; d++ {
			if open[d] {
				prefix.WriteString("│   ")
			} else {
				prefix.WriteString("    ")
			}
		}
		branch := "├── "
		if last {
			branch = "└── "
		}
		open = append(open[:it.Depth], !last)
		fmt.Fprintf(w, "%s%s%s (%s) [%s]\n", prefix.String(), branch, it.Title, cards(it.Elements), it.NodeID)
	}
}

func isLastSibling(items []service.OutlineItem, i int) bool {
	for _, next := range items[i+1:] {
		if next.Depth < items[i].Depth {
			return true
		}
		if next.Depth == items[i].Depth {
			return false
		}
	}
	return true
}

func cards(n int) string {
	if n == 1 {
		return "1 card"
	}
	return fmt.Sprintf("%d cards", n)
}

func displayImported(w io.Writer, path string, items []service.OutlineItem) {
	total := 0
	for _, it := range items {
		total += it.Elements
	}
	fmt.Fprintf(w, "Imported %s: %d nodes, %s\n", filepath.Base(path), len(items), cards(total))
}

func displayBackups(w io.Writer, dir string, files []string, now time.Time) {
	if len(files) == 0 {
		fmt.Fprintf(w, "No snapshots in %s\n", dir)
		return
	}
	fmt.Fprintf(w, "Snapshots in %s:\n", dir)
	for i := len(files) - 1; i >= 0; i-- {
		name := filepath.Base(files[i])
		when := ""
		if t, err := time.Parse("nestboard-20060102-150405.json", name); err == nil {
			when = " (" + formatTimeSince(now, t) + ")"
		}
		fmt.Fprintf(w, "  %s%s\n", name, when)
	}
}

func displayGCStatus(w io.Writer, st service.GCStatus) {
	fmt.Fprintf(w, "Edit counter: %d\n", st.EditCounter)
	fmt.Fprintf(w, "Queued for deletion: %d\n", len(st.Pending))
	for _, p := range st.Pending {
		fmt.Fprintf(w, "  %s (in %d edits)\n", p.ImageID, max(p.DeleteAt-st.EditCounter, 0))
	}
	fmt.Fprintf(w, "Unreferenced: %d\n", len(st.Orphans))
	for _, id := range st.Orphans {
		fmt.Fprintf(w, "  %s\n", id)
	}
}

// formatTimeSince formats the time elapsed since t in a human-readable way.
func formatTimeSince(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < hoursPerDay*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < daysPerMonth*hoursPerDay*time.Hour:
		return fmt.Sprintf("%dd ago", int(d.Hours()/hoursPerDay))
	default:
		return t.Format("2006-01-02")
	}
}
