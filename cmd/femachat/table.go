// In file: cmd/femachat/table.go
package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dileep-u-k/femachat/internal/claims"
)

// renderTable prints the header and up to maxRows rows as aligned columns.
func renderTable(w io.Writer, t *claims.Table, maxRows int) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(t.Columns(), "\t"))

	n := t.Len()
	if maxRows > 0 && maxRows < n {
		n = maxRows
	}
	for i := 0; i < n; i++ {
		fmt.Fprintln(tw, strings.Join(t.Row(i), "\t"))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if n < t.Len() {
		fmt.Fprintf(w, "... %d more rows\n", t.Len()-n)
	}
	return nil
}
