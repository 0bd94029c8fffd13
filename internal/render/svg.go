package render

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// WriteSVG writes the frame as a standalone SVG document: links first, then
// node markers with hover titles, then labels on top.
func WriteSVG(w io.Writer, f Frame) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s" style="max-width: 100%%; height: auto;">`+"\n",
		num(f.Width), num(f.Height), num(f.Width), num(f.Height))

	bw.WriteString(`<g stroke="#999" stroke-opacity="0.6">` + "\n")
	for _, l := range f.Lines {
		fmt.Fprintf(bw, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke-width="%s"></line>`+"\n",
			num(l.X1), num(l.Y1), num(l.X2), num(l.Y2), num(l.Width))
	}
	bw.WriteString("</g>\n")

	bw.WriteString(`<g stroke="#fff" stroke-width="1.5">` + "\n")
	for _, c := range f.Circles {
		fmt.Fprintf(bw, `<circle data-id="%s" cx="%s" cy="%s" r="%s" fill="%s"><title>`,
			escape(c.ID), num(c.CX), num(c.CY), num(c.R), c.Fill)
		bw.WriteString(escape(c.Title))
		bw.WriteString("</title></circle>\n")
	}
	bw.WriteString("</g>\n")

	bw.WriteString("<g>\n")
	for _, l := range f.Labels {
		fmt.Fprintf(bw, `<text x="%s" y="%s" style="font-size: 12px; font-family: Arial, sans-serif; fill: #333; text-anchor: middle; dominant-baseline: central; pointer-events: none;">`,
			num(l.X), num(l.Y))
		bw.WriteString(escape(l.Text))
		bw.WriteString("</text>\n")
	}
	bw.WriteString("</g>\n</svg>\n")

	return bw.Flush()
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func escape(s string) string {
	var b strings.Builder
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
