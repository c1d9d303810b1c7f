package textgrid

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
)

// FormatInterval renders iv as one interval record of the long text layout.
func FormatInterval(iv Interval) string {
	return fmt.Sprintf("        intervals [%d]:\n            xmin = %s \n            xmax = %s \n            text = \"%s\" \n",
		iv.Seq, formatTime(iv.XMin), formatTime(iv.XMax), escape(iv.Label.Text))
}

// Encode writes a single-tier document holding intervals. The document spans
// from the first interval's xmin to the last one's xmax.
func Encode(w io.Writer, tierName string, intervals []Interval) error {
	var xmin, xmax float64
	if n := len(intervals); n > 0 {
		xmin, xmax = intervals[0].XMin, intervals[n-1].XMax
	}
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "File type = \"ooTextFile\"\nObject class = \"TextGrid\"\n\n")
	fmt.Fprintf(bw, "xmin = %s \nxmax = %s \ntiers? <exists> \nsize = 1 \nitem []: \n", formatTime(xmin), formatTime(xmax))
	fmt.Fprintf(bw, "    item [1]:\n        class = \"IntervalTier\" \n        name = \"%s\" \n", escape(tierName))
	fmt.Fprintf(bw, "        xmin = %s \n        xmax = %s \n        intervals: size = %d \n", formatTime(xmin), formatTime(xmax), len(intervals))
	for _, iv := range intervals {
		if _, err := bw.WriteString(FormatInterval(iv)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func formatTime(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
