package service

import (
	"github.com/vibast-solutions/ms-go-reservations/config"
)

type Quote struct {
	Persons        int
	Currency       string
	BaseCents      int64
	PerPersonCents int64
	TotalCents     int64
}

// Pricing computes privatization totals: base + persons * per person.
type Pricing struct {
	cfg config.PricingConfig
}

func NewPricing(cfg config.PricingConfig) *Pricing {
	if cfg.Currency == "" {
		cfg.Currency = "eur"
	}
	return &Pricing{cfg: cfg}
}

func (p *Pricing) Quote(persons int) (*Quote, error) {
	v := &ValidationError{}
	validatePersons(v, persons, p.cfg.MinPersons, p.cfg.MaxPersons)
	if err := v.Err(); err != nil {
		return nil, err
	}

	return &Quote{
		Persons:        persons,
		Currency:       p.cfg.Currency,
		BaseCents:      p.cfg.BaseCents,
		PerPersonCents: p.cfg.PerPersonCents,
		TotalCents:     p.cfg.BaseCents + int64(persons)*p.cfg.PerPersonCents,
	}, nil
}

func (p *Pricing) Bounds() (int, int) {
	return p.cfg.MinPersons, p.cfg.MaxPersons
}
