package drop

import "math"

// ItemDrop is a non-rare drop following the capped linear law.
type ItemDrop struct {
	Name     string  `json:"name" validate:"required"`
	BaseRate float64 `json:"base_rate" validate:"gte=0,lte=1"`
	Price    float64 `json:"price" validate:"gte=0"`
}

// HuntInput describes one hunting session.
type HuntInput struct {
	MonsterLevel         float64    `json:"monster_level" validate:"gte=0"`
	KillsPerHour         float64    `json:"kills_per_hour" validate:"gte=0"`
	MesoBonusPercent     float64    `json:"meso_bonus_percent" validate:"gte=0"`
	ItemDropBonusPercent float64    `json:"item_drop_bonus_percent" validate:"gte=0"`
	PotionMultiplier     float64    `json:"potion_multiplier" validate:"gte=0"` // 0 means no potion
	RareItemPrice        float64    `json:"rare_item_price" validate:"gte=0"`
	Drops                []ItemDrop `json:"drops" validate:"dive"`
	CostPerHour          float64    `json:"cost_per_hour" validate:"gte=0"`
	SessionMinutes       float64    `json:"session_minutes" validate:"gte=0"`
}

// ItemYield is the per-hour expectation for one generic drop.
type ItemYield struct {
	Name         string  `json:"name"`
	Rate         float64 `json:"rate"`
	PerHour      float64 `json:"per_hour"`
	ValuePerHour float64 `json:"value_per_hour"`
}

// HuntResult holds hourly and per-session expectations.
type HuntResult struct {
	MesoPerKill      float64     `json:"meso_per_kill"`
	MesoPerHour      float64     `json:"meso_per_hour"`
	RareDropRate     float64     `json:"rare_drop_rate"`
	RareDropsPerHour float64     `json:"rare_drops_per_hour"`
	RareValuePerHour float64     `json:"rare_value_per_hour"`
	Items            []ItemYield `json:"items,omitempty"`
	ItemValuePerHour float64     `json:"item_value_per_hour"`
	GrossPerHour     float64     `json:"gross_per_hour"`
	NetPerHour       float64     `json:"net_per_hour"`
	SessionNet       float64     `json:"session_net"`
}

// Hunt computes the expected yield of a hunting session.
func (m Model) Hunt(in HuntInput) HuntResult {
	var r HuntResult
	r.MesoPerKill = m.MesoPerKill(in.MonsterLevel, in.MesoBonusPercent, WithPotionMultiplier(in.PotionMultiplier))
	r.MesoPerHour = r.MesoPerKill * in.KillsPerHour

	r.RareDropRate = m.RareRate(in.ItemDropBonusPercent)
	r.RareDropsPerHour = r.RareDropRate * in.KillsPerHour
	r.RareValuePerHour = r.RareDropsPerHour * in.RareItemPrice

	for _, d := range in.Drops {
		rate := CappedLinearRate(d.BaseRate, in.ItemDropBonusPercent)
		y := ItemYield{
			Name:    d.Name,
			Rate:    rate,
			PerHour: rate * in.KillsPerHour,
		}
		y.ValuePerHour = y.PerHour * d.Price
		r.ItemValuePerHour += y.ValuePerHour
		r.Items = append(r.Items, y)
	}

	r.GrossPerHour = r.MesoPerHour + r.RareValuePerHour + r.ItemValuePerHour
	r.NetPerHour = r.GrossPerHour - in.CostPerHour
	r.SessionNet = r.NetPerHour * in.SessionMinutes / 60
	return r
}

// BreakevenInput compares a buff's cost against the extra yield it grants.
type BreakevenInput struct {
	MonsterLevel          float64 `json:"monster_level" validate:"gte=0"`
	KillsPerHour          float64 `json:"kills_per_hour" validate:"gte=0"`
	MesoBonusPercent      float64 `json:"meso_bonus_percent" validate:"gte=0"`
	ItemDropBonusPercent  float64 `json:"item_drop_bonus_percent" validate:"gte=0"`
	PotionMultiplier      float64 `json:"potion_multiplier" validate:"gte=0"`
	RareItemPrice         float64 `json:"rare_item_price" validate:"gte=0"`
	ExtraMesoBonusPercent float64 `json:"extra_meso_bonus_percent" validate:"gte=0"`
	ExtraDropBonusPercent float64 `json:"extra_drop_bonus_percent" validate:"gte=0"`
	BuffCost              float64 `json:"buff_cost" validate:"gte=0"`
}

// BreakevenResult reports how long the buff must run to pay for itself.
// Kills is zero when the buff adds no value. With no kill rate Kills is
// still set, but Minutes is zero and Reachable is false.
type BreakevenResult struct {
	ExtraMesoPerKill  float64 `json:"extra_meso_per_kill"`
	ExtraRarePerKill  float64 `json:"extra_rare_value_per_kill"`
	ExtraValuePerKill float64 `json:"extra_value_per_kill"`
	MesoShare         float64 `json:"meso_share"`
	Kills             float64 `json:"kills"`
	Minutes           float64 `json:"minutes"`
	Reachable         bool    `json:"reachable"`
}

// Breakeven computes the kills (and minutes at the given kill rate) after
// which the buff's extra meso and rare drop value cover its cost.
func (m Model) Breakeven(in BreakevenInput) BreakevenResult {
	potion := WithPotionMultiplier(in.PotionMultiplier)
	base := m.MesoPerKill(in.MonsterLevel, in.MesoBonusPercent, potion)
	buffed := m.MesoPerKill(in.MonsterLevel, in.MesoBonusPercent+in.ExtraMesoBonusPercent, potion)

	rareBase := m.RareRate(in.ItemDropBonusPercent)
	rareBuffed := m.RareRate(in.ItemDropBonusPercent + in.ExtraDropBonusPercent)

	var r BreakevenResult
	r.ExtraMesoPerKill = buffed - base
	r.ExtraRarePerKill = (rareBuffed - rareBase) * in.RareItemPrice
	r.ExtraValuePerKill = r.ExtraMesoPerKill + r.ExtraRarePerKill
	if r.ExtraValuePerKill <= 0 {
		return r
	}
	r.MesoShare = r.ExtraMesoPerKill / r.ExtraValuePerKill
	r.Kills = math.Ceil(in.BuffCost / r.ExtraValuePerKill)
	if in.KillsPerHour <= 0 {
		return r
	}
	r.Minutes = r.Kills / in.KillsPerHour * 60
	r.Reachable = true
	return r
}
