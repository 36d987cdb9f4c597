package catalogue

import (
	"slices"
	"testing"
)

func TestTable(t *testing.T) {
	c := mustNew(t, diamondSpec())
	table := c.Table()

	if !slices.Equal(table.Names, c.Names()) {
		t.Errorf("Table().Names = %v, want %v", table.Names, c.Names())
	}

	want := "[\"liba.so\",\"libb.so\",\"libc.so\",\"libd.so\"]\n{{},{0},{0},{1, 2}}"
	if got := table.String(); got != want {
		t.Errorf("Table().String() =\n%s\nwant\n%s", got, want)
	}

	rebuilt, err := FromTable(c.Metadata(), table.Names, table.Deps)
	if err != nil {
		t.Fatalf("FromTable() failed: %v", err)
	}
	if rebuilt.Digest() != c.Digest() {
		t.Errorf("FromTable(Table()) digest = %s, want %s", rebuilt.Digest(), c.Digest())
	}
}
