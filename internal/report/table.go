package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"github.com/3akur6/checksec/internal/checksec"
	"github.com/3akur6/checksec/internal/color"
)

var tableHeader = []string{"File", "Arch", "RELRO", "Canary", "NX", "PIE", "FORTIFY", "RWX"}

func writeTable(stdout, stderr io.Writer, rep Report, p color.Palette) error {
	table := tablewriter.NewWriter(stdout)
	table.SetHeader(tableHeader)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(false)

	for _, e := range rep.Results {
		switch {
		case e.Profile != nil:
			table.Append(profileRow(e.Path, e.Profile, p))
		case e.Unsupported != nil:
			row := make([]string, len(tableHeader))
			row[0] = e.Path
			row[1] = p.Partial("unsupported: " + e.Unsupported.Format)
			for i := 2; i < len(row); i++ {
				row[i] = "-"
			}
			table.Append(row)
		case e.Error != nil:
			if _, err := fmt.Fprintf(stderr, "%s '%s': %s\n", p.Bad("[!]"), e.Path, e.Error.Message); err != nil {
				return err
			}
		}
	}

	table.Render()
	return nil
}

func profileRow(path string, sp *checksec.SecurityProfile, p color.Palette) []string {
	var relro string
	switch sp.Relro {
	case checksec.RelroFull:
		relro = p.Good(sp.Relro.String())
	case checksec.RelroPartial:
		relro = p.Partial(sp.Relro.String())
	default:
		relro = p.Bad(sp.Relro.String())
	}

	pie := p.Bad(fmt.Sprintf("no (%#x)", sp.BaseAddress))
	if sp.PIE.IsRandomized() {
		pie = p.Good(sp.PIE.String())
	}

	return []string{
		path,
		sp.Architecture,
		relro,
		yesNo(sp.Canary, p.Good, p.Bad),
		yesNo(sp.NX, p.Good, p.Bad),
		pie,
		yesNo(sp.Fortify, p.Good, color.Plain),
		yesNo(sp.RWX, p.Bad, p.Good),
	}
}

func yesNo(v bool, whenTrue, whenFalse color.Color) string {
	if v {
		return whenTrue("yes")
	}
	return whenFalse("no")
}
