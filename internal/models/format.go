package models

import (
	"fmt"
	"strings"
	"sync"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const formatUnavailable = "Maintenance record unavailable"

type displayLocale struct {
	tag        language.Tag
	dateLayout string
	currency   string
}

var supportedLocales = map[language.Base]displayLocale{
	mustBase("pt"): {tag: language.BrazilianPortuguese, dateLayout: "02/01/2006 15:04", currency: "R$"},
	mustBase("en"): {tag: language.AmericanEnglish, dateLayout: "01/02/2006 3:04 PM", currency: "$"},
}

var (
	localeMu sync.RWMutex
	locale   = supportedLocales[mustBase("pt")]
)

func mustBase(s string) language.Base {
	return language.MustParseBase(s)
}

// SetLocale selects the locale used by Format. Only Portuguese and English are
// supported; other languages are an error.
func SetLocale(name string) error {
	tag, err := language.Parse(name)
	if err != nil {
		return fmt.Errorf("parse locale %q: %w", name, err)
	}
	base, _ := tag.Base()
	loc, ok := supportedLocales[base]
	if !ok {
		return fmt.Errorf("unsupported locale %q", name)
	}
	localeMu.Lock()
	locale = loc
	localeMu.Unlock()
	return nil
}

func currentLocale() displayLocale {
	localeMu.RLock()
	defer localeMu.RUnlock()
	return locale
}

// Format renders a one-line human readable summary of the record. It never
// panics; a placeholder is returned if rendering fails.
func (m *MaintenanceRecord) Format() (out string) {
	defer func() {
		if recover() != nil {
			out = formatUnavailable
		}
	}()
	if m == nil || m.date.IsZero() {
		return formatUnavailable
	}

	loc := currentLocale()
	p := message.NewPrinter(loc.tag)

	var b strings.Builder
	b.WriteString(m.date.Local().Format(loc.dateLayout))
	b.WriteString(" - ")
	b.WriteString(m.serviceType)
	b.WriteString(" - ")
	b.WriteString(p.Sprintf("%s %.2f", loc.currency, m.cost))
	if m.description != "" {
		b.WriteString(" (")
		b.WriteString(m.description)
		b.WriteString(")")
	}
	return b.String()
}
