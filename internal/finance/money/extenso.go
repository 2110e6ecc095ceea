package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Portuguese cardinal vocabulary used by InWords. "cem" replaces "cento"
// when the hundred stands alone.
var (
	unidades = []string{"", "um", "dois", "três", "quatro", "cinco", "seis", "sete", "oito", "nove",
		"dez", "onze", "doze", "treze", "quatorze", "quinze", "dezesseis", "dezessete", "dezoito", "dezenove"}
	dezenas  = []string{"", "", "vinte", "trinta", "quarenta", "cinquenta", "sessenta", "setenta", "oitenta", "noventa"}
	centenas = []string{"", "cento", "duzentos", "trezentos", "quatrocentos", "quinhentos",
		"seiscentos", "setecentos", "oitocentos", "novecentos"}

	escalas = []struct {
		singular string
		plural   string
	}{
		{"", ""},
		{"mil", "mil"},
		{"milhão", "milhões"},
		{"bilhão", "bilhões"},
		{"trilhão", "trilhões"},
	}
)

// InWords spells out a monetary amount in Brazilian Portuguese, as printed on
// contracts and receipts: 1250.40 -> "mil duzentos e cinquenta reais e
// quarenta centavos". Negative amounts are spelled by their absolute value.
func InWords(d decimal.Decimal) string {
	d = d.Abs().Round(2)
	cents := d.Mul(decimal.NewFromInt(100)).IntPart()
	reais := cents / 100
	resto := cents % 100

	var parts []string
	switch {
	case reais == 0 && resto == 0:
		return "zero reais"
	case reais == 1:
		parts = append(parts, "um real")
	case reais > 1:
		w := spellInteger(reais)
		// Round millions and above read "de reais": "um milhão de reais".
		if strings.HasSuffix(w, "ão") || strings.HasSuffix(w, "ões") {
			parts = append(parts, w+" de reais")
		} else {
			parts = append(parts, w+" reais")
		}
	}

	if resto > 0 {
		centavos := spellHundreds(resto)
		if resto == 1 {
			centavos += " centavo"
		} else {
			centavos += " centavos"
		}
		parts = append(parts, centavos)
	}
	return strings.Join(parts, " e ")
}

func spellInteger(n int64) string {
	if n == 0 {
		return "zero"
	}
	var groups []int64
	for n > 0 {
		groups = append(groups, n%1000)
		n /= 1000
	}

	var parts []string
	lastVal := int64(0)
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		if g == 0 {
			continue
		}
		word := spellHundreds(g)
		if i > 0 {
			scale := escalas[i].plural
			if g == 1 {
				scale = escalas[i].singular
			}
			if i == 1 {
				// "um mil" reads wrong in Portuguese, plain "mil" is used.
				if g == 1 {
					word = scale
				} else {
					word = word + " " + scale
				}
			} else {
				word = word + " " + scale
			}
		}
		parts = append(parts, word)
		lastVal = g
	}
	if len(parts) == 1 {
		return parts[0]
	}
	// Written Portuguese places "e" before the final group when it reads as
	// a unit below one hundred or as a round hundred: "mil e dez",
	// "um milhão e cem mil".
	sep := " "
	if lastVal < 100 || lastVal%100 == 0 {
		sep = " e "
	}
	return strings.Join(parts[:len(parts)-1], " ") + sep + parts[len(parts)-1]
}

func spellHundreds(n int64) string {
	if n == 100 {
		return "cem"
	}
	var parts []string
	if n >= 100 {
		parts = append(parts, centenas[n/100])
		n %= 100
	}
	if n >= 20 {
		parts = append(parts, dezenas[n/10])
		n %= 10
	}
	if n > 0 {
		parts = append(parts, unidades[n])
	}
	return strings.Join(parts, " e ")
}
