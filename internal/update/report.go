package update

import "github.com/schaermu/spackup/internal/tty"

// PrintReport prints each non-empty category as a summary line followed by
// its packages in columns
func PrintReport(p *tty.Printer, report *Report, width int) {
	if report == nil {
		return
	}
	for _, c := range Categories {
		pkgs := report.Packages(c)
		if len(pkgs) == 0 {
			continue
		}
		p.Msg("%s %d packages", c, len(pkgs))
		p.Colify(pkgs, width)
	}
}
