package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophstore/internal/client/purchase"
)

// promptPayer shows the payment handle and waits for the user to finish
// paying with the processor.
type promptPayer struct {
	reader *bufio.Reader
	out    io.Writer
}

func (p *promptPayer) Pay(ctx context.Context, in purchase.Intent) error {
	fmt.Fprintf(p.out, "Amount due: %s\n", formatPrice(in.Amount, in.Currency))
	fmt.Fprintf(p.out, "Complete payment with handle: %s\n", in.ClientHandle)

	answer, err := GetSimpleText(p.reader, "Press Enter once paid, or type 'cancel'", p.out)
	if err != nil || strings.EqualFold(answer, "cancel") {
		return purchase.ErrPaymentAborted
	}
	return ctx.Err()
}

// formatPrice renders minor units, e.g. 999 usd as 9.99 USD.
func formatPrice(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign, amount = "-", -amount
	}
	return fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, strings.ToUpper(currency))
}
