package catalogue

import (
	"strconv"
	"strings"
)

// Table is the compact encoding of a catalogue: parallel arrays of names and
// index-based adjacency lists. It is the form embedded in generated loader
// sources.
type Table struct {
	Names []string `json:"names"`
	Deps  [][]int  `json:"deps"`
}

// Table returns the compact encoding of the catalogue
func (c *Catalogue) Table() Table {
	t := Table{
		Names: c.Names(),
		Deps:  make([][]int, len(c.deps)),
	}
	for i, deps := range c.deps {
		row := make([]int, len(deps))
		for j, dep := range deps {
			row[j] = int(dep)
		}
		t.Deps[i] = row
	}
	return t
}

// String renders the table as two array literals, names first:
//
//	["libglog.so","libfb.so"]
//	{{},{0}}
func (t Table) String() string {
	var b strings.Builder

	b.WriteByte('[')
	for i, name := range t.Names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(name))
	}
	b.WriteString("]\n{")

	for i, row := range t.Deps {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('{')
		for j, dep := range row {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Itoa(dep))
		}
		b.WriteByte('}')
	}
	b.WriteByte('}')

	return b.String()
}
