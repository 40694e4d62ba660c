package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/sudorandom/referral-globe/pkg/globeengine"
)

var (
	heading = color.New(color.FgHiGreen, color.Bold)
	subtle  = color.New(color.FgHiBlack)
	warn    = color.New(color.FgYellow)
)

// inspect hydrates engine with snap, applies the identity when given and
// runs one step so the summary is current.
func inspect(engine *globeengine.Engine, snap *globeengine.GraphSnapshot, id globeengine.Identity, withIdentity bool) globeengine.ValidationReport {
	rep := engine.Hydrate(snap, 1, nil)
	if withIdentity {
		engine.Post(globeengine.IdentityReady{Identity: id})
	}
	engine.Step(time.Now(), 0)
	return rep
}

func writeReport(w io.Writer, engine *globeengine.Engine, rep globeengine.ValidationReport, showNodes bool) {
	sum := engine.Summary()

	heading.Fprintln(w, "Snapshot")
	fmt.Fprintf(w, "  people       %d\n", sum.PeopleCount)
	fmt.Fprintf(w, "  countries    %d\n", sum.CountryCount)
	fmt.Fprintf(w, "  connections  %d\n", sum.ConnectionCount)
	if rep.Dropped() > 0 {
		warn.Fprintf(w, "  dropped %d records: %s\n", rep.Dropped(), rep)
	}

	if sum.Identity != "" {
		fmt.Fprintln(w)
		heading.Fprintf(w, "Chain of %s\n", sum.Identity)
		for _, line := range sum.Narration {
			fmt.Fprintf(w, "  %s\n", line)
		}
	} else if id, ok := pendingIdentity(engine); ok {
		fmt.Fprintln(w)
		warn.Fprintf(w, "Identity %s is not in the snapshot; showing the guest view\n", id)
	}

	if len(sum.Tally) > 0 {
		fmt.Fprintln(w)
		heading.Fprintln(w, "Countries")
		rows := make([][]string, 0, len(sum.Tally))
		for _, c := range sum.Tally {
			rows = append(rows, []string{c.Code, c.Name, fmt.Sprint(c.Count)})
		}
		table(w, []string{"CODE", "COUNTRY", "PEOPLE"}, rows)
	}

	if showNodes {
		fmt.Fprintln(w)
		heading.Fprintln(w, "Nodes")
		rows := make([][]string, 0, sum.PeopleCount)
		for _, n := range engine.Nodes() {
			rows = append(rows, []string{string(n.ID), n.CountryCode, fmt.Sprintf("%.4f", n.Lat), fmt.Sprintf("%.4f", n.Lng), n.DisplayName})
		}
		table(w, []string{"ID", "CC", "LAT", "LNG", "NAME"}, rows)
	}
}

func pendingIdentity(engine *globeengine.Engine) (globeengine.NodeID, bool) {
	if p, ok := engine.PendingIdentity(); ok {
		return p.ID, true
	}
	return "", false
}

// table prints an aligned table with a subtle header.
func table(w io.Writer, headers []string, rows [][]string) {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var head, sep strings.Builder
	for i, h := range headers {
		fmt.Fprintf(&head, "  %-*s", widths[i], h)
		fmt.Fprintf(&sep, "  %s", strings.Repeat("─", widths[i]))
	}
	subtle.Fprintln(w, head.String())
	subtle.Fprintln(w, sep.String())
	for _, row := range rows {
		var line strings.Builder
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(&line, "  %-*s", widths[i], cell)
			}
		}
		fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
	}
}
