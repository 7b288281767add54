package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatDealOrg renders a DealRecord as an Org-mode block with the facts in
// a PROPERTIES drawer and empty Thesis/Execution/Review sections.
func FormatDealOrg(d DealRecord) string {
	open := d.OpenTime.UTC().Format(time.RFC3339)
	closed := d.CloseTime.UTC().Format(time.RFC3339)

	var b strings.Builder
	fmt.Fprintf(&b, "** Deal: %s %s (%s)\n", d.Side, d.Instrument, shortID(d.DealID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":DEAL_ID: %s\n", d.DealID)
	fmt.Fprintf(&b, ":ACCOUNT: %s\n", d.Account)
	fmt.Fprintf(&b, ":INSTRUMENT: %s\n", d.Instrument)
	if d.Class != "" {
		fmt.Fprintf(&b, ":CLASS: %s\n", d.Class)
	}
	fmt.Fprintf(&b, ":SIDE: %s\n", d.Side)
	fmt.Fprintf(&b, ":VOLUME: %g\n", d.Volume)
	fmt.Fprintf(&b, ":OPEN_PRICE: %.5f\n", d.OpenPrice)
	fmt.Fprintf(&b, ":CLOSE_PRICE: %.5f\n", d.ClosePrice)
	fmt.Fprintf(&b, ":OPEN_TIME: %s\n", open)
	fmt.Fprintf(&b, ":CLOSE_TIME: %s\n", closed)
	fmt.Fprintf(&b, ":GAIN_LOSS: %.2f\n", d.GainLoss)
	fmt.Fprintf(&b, ":GAIN_MIN: %.2f\n", d.GainMin)
	fmt.Fprintf(&b, ":GAIN_MAX: %.2f\n", d.GainMax)
	fmt.Fprintf(&b, ":COMMISSION: %.2f\n", d.Commission*2)
	b.WriteString(":END:\n")
	b.WriteString("\n")
	b.WriteString("*** Thesis\n- \n\n")
	b.WriteString("*** Execution\n- \n\n")
	b.WriteString("*** Review\n- \n")

	return b.String()
}

// FormatDealsOrg renders multiple deals separated by blank lines.
func FormatDealsOrg(deals []DealRecord) string {
	var b strings.Builder
	for i, d := range deals {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatDealOrg(d))
	}
	return b.String()
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
