// Package plans defines the subscription tiers, their daily credit
// allowances and the date-dependent pricing rules. The catalog is pure:
// prices depend only on the instant passed in, so the Saturday promotion
// never requires persisted state.
package plans

import "time"

// Name identifies a subscription tier.
type Name string

// Tier names as the product ships them. Gratuito is the free tier.
const (
	Gratuito Name = "Gratuito"
	PRO      Name = "PRO"
	VIP      Name = "VIP"
	PREMIUM  Name = "PREMIUM"
)

// All lists every tier in display order.
var All = []Name{Gratuito, PRO, VIP, PREMIUM}

// Valid reports whether n is a known tier name.
func Valid(n Name) bool {
	switch n {
	case Gratuito, PRO, VIP, PREMIUM:
		return true
	}
	return false
}

// Allowance holds the daily generation credits of a tier. Counts are
// meaningless when the tier is unlimited.
type Allowance struct {
	Video int `json:"video"`
	Audio int `json:"audio"`
}

// Details describes a tier as presented to the user on a given day.
type Details struct {
	Name          Name      `json:"name"`
	Price         float64   `json:"price"`
	OriginalPrice *float64  `json:"originalPrice,omitempty"`
	Features      []string  `json:"features"`
	Credits       Allowance `json:"credits"`
	IsUnlimited   bool      `json:"isUnlimited"`
	SaleActive    bool      `json:"saleActive"`
}

// base holds the date-independent part of a tier.
type base struct {
	name        Name
	features    []string
	credits     Allowance
	isUnlimited bool
}

var basePlans = []base{
	{
		name: Gratuito,
		features: []string{
			"Chat e Imagens Ilimitados",
			"11 Gerações de Vídeo por dia",
			"12 Gerações de Áudio por dia",
			"Ferramenta de Estudos (com Fontes)",
			"Ferramenta de Criação Universal",
			"Qualidade de Geração Padrão",
		},
		credits: Allowance{Video: 11, Audio: 12},
	},
	{
		name: PRO,
		features: []string{
			"Chat e Imagens Ilimitados",
			"21 Gerações de Vídeo por dia",
			"22 Gerações de Áudio por dia",
			"Ferramenta de Estudos (Completo)",
			"Ferramenta de Criação Universal",
			"Qualidade de Geração Superior",
			"Suporte Prioritário",
		},
		credits: Allowance{Video: 21, Audio: 22},
	},
	{
		name: VIP,
		features: []string{
			"Tudo do PRO, e mais:",
			"36 Gerações de Vídeo por dia",
			"37 Gerações de Áudio por dia",
			"Qualidade de Geração Profissional",
			"Acesso Beta a Novas Ferramentas",
			"Ferramenta de Criação Universal",
		},
		credits: Allowance{Video: 36, Audio: 37},
	},
	{
		name: PREMIUM,
		features: []string{
			"Tudo do VIP, e mais:",
			"Gerações de Vídeo ILIMITADAS",
			"Gerações de Áudio ILIMITADAS",
			"Qualidade de Geração Máxima",
			"Acesso total e irrestrito",
			"Ferramenta de Criação Universal",
		},
		isUnlimited: true,
	},
}

var standardPrices = map[Name]float64{
	PRO:     19.99,
	VIP:     49.99,
	PREMIUM: 99.99,
}

// saturdayPrices apply on the weekly discount day.
var saturdayPrices = map[Name]float64{
	PRO:     10,
	VIP:     40,
	PREMIUM: 80,
}

// DiscountDay is the weekday on which paid tiers are discounted.
const DiscountDay = time.Saturday

// Current returns the catalog as of now. On the discount day paid tiers
// carry the discounted price, the standard price as OriginalPrice, and
// SaleActive set; on any other day the standard price applies and
// OriginalPrice is absent. The free tier is always price 0.
func Current(now time.Time) map[Name]Details {
	sale := now.Weekday() == DiscountDay

	out := make(map[Name]Details, len(basePlans))
	for _, bp := range basePlans {
		d := Details{
			Name:        bp.name,
			Features:    bp.features,
			Credits:     bp.credits,
			IsUnlimited: bp.isUnlimited,
		}
		if bp.name != Gratuito {
			if sale {
				std := standardPrices[bp.name]
				d.Price = saturdayPrices[bp.name]
				d.OriginalPrice = &std
				d.SaleActive = true
			} else {
				d.Price = standardPrices[bp.name]
			}
		}
		out[bp.name] = d
	}
	return out
}

// Snapshot is the fixed catalog with standard prices, computed once at
// process start. It never shows the promotion regardless of the weekday and
// is the source of truth for credit allowances and other date-independent
// lookups.
var Snapshot = snapshot()

func snapshot() map[Name]Details {
	out := make(map[Name]Details, len(basePlans))
	for _, bp := range basePlans {
		out[bp.name] = Details{
			Name:        bp.name,
			Price:       standardPrices[bp.name],
			Features:    bp.features,
			Credits:     bp.credits,
			IsUnlimited: bp.isUnlimited,
		}
	}
	return out
}

// AllowanceFor returns the daily allowance of a tier from the fixed
// snapshot. Unknown tiers fall back to the free tier.
func AllowanceFor(n Name) Allowance {
	if d, ok := Snapshot[n]; ok {
		return d.Credits
	}
	return Snapshot[Gratuito].Credits
}

// IsUnlimited reports whether a tier bypasses the credit ledger.
func IsUnlimited(n Name) bool {
	return Snapshot[n].IsUnlimited
}
