package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"
)

// EscapeField quotes a field only when it holds a comma, quote or line
// break, doubling any inner quotes.
func EscapeField(s string) string {
	if !strings.ContainsAny(s, ",\"\r\n") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	bw := bufio.NewWriter(w)
	if err := writeLine(bw, header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := writeLine(bw, r); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeLine(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(EscapeField(f)); err != nil {
			return err
		}
	}
	return w.WriteByte('\n')
}

// Filename is <prefix>_YYYY-MM-DD_HHMMSS.<ext> in UTC.
func Filename(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", prefix, now.UTC().Format("2006-01-02_150405"), ext)
}
