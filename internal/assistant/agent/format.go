package agent

import (
	"time"

	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// formatter renders snapshot values the way the locale expects them.
type formatter struct {
	loc     *Locale
	printer *message.Printer
}

func newFormatter(loc *Locale) formatter {
	return formatter{loc: loc, printer: message.NewPrinter(loc.Tag())}
}

func (f formatter) money(v float64) string {
	return f.printer.Sprintf(f.loc.CurrencyFormat, number.Decimal(v, number.MaxFractionDigits(2)))
}

// optMoney treats zero like an absent budget.
func (f formatter) optMoney(v *float64) string {
	if v == nil || *v == 0 {
		return f.loc.Placeholders.NoBudget
	}
	return f.money(*v)
}

func (f formatter) date(t time.Time) string {
	return t.Format(f.loc.DateLayout)
}

func (f formatter) optDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return f.loc.Placeholders.NoDeadline
	}
	return f.date(*t)
}

func (f formatter) optText(s *string) string {
	if s == nil || *s == "" {
		return f.loc.Placeholders.NotProvided
	}
	return *s
}
