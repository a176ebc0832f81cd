package model

import "creator-ai-entitlement/internal/domain"

// PlanTier names a subscription level. The catalog may grow tiers, but the
// three below always exist.
type PlanTier string

const (
	PlanFree  PlanTier = "free"
	PlanBasic PlanTier = "basic"
	PlanPro   PlanTier = "pro"
)

// FeatureID identifies a gated capability. Membership in a plan's feature set
// is the only access rule; there are no per-user overrides.
type FeatureID string

const (
	FeatureScriptGeneration FeatureID = "script.generate"
	FeatureAdvancedTones    FeatureID = "tone.advanced"
	FeaturePremiumTemplates FeatureID = "templates.premium"
	FeatureAnalytics        FeatureID = "analytics.dashboard"
	FeatureExport           FeatureID = "export.pdf"
)

// UnlimitedQuota marks a plan whose monthly quota is not counted.
const UnlimitedQuota = -1

// PlanDefinition is a static catalog entry. Never mutated at runtime.
type PlanDefinition struct {
	Tier            PlanTier
	Name            string
	MonthlyQuota    int // UnlimitedQuota for uncounted plans
	PriceMinorUnits int64
	Currency        string
	Features        map[FeatureID]struct{}
}

// HasFeature reports feature set membership on the definition itself.
func (p *PlanDefinition) HasFeature(f FeatureID) bool {
	_, ok := p.Features[f]
	return ok
}

// Unlimited reports whether the plan's quota is uncounted.
func (p *PlanDefinition) Unlimited() bool { return p.MonthlyQuota == UnlimitedQuota }

func featureSet(fs ...FeatureID) map[FeatureID]struct{} {
	out := make(map[FeatureID]struct{}, len(fs))
	for _, f := range fs {
		out[f] = struct{}{}
	}
	return out
}

// Catalog is the static plan table. Lookups never observe partial state
// because the map is built once and read-only afterwards.
type Catalog struct {
	plans map[PlanTier]*PlanDefinition
}

// NewCatalog validates and builds a catalog from definitions.
func NewCatalog(defs ...*PlanDefinition) (*Catalog, error) {
	plans := make(map[PlanTier]*PlanDefinition, len(defs))
	for _, d := range defs {
		if d == nil || d.Tier == "" || d.Currency == "" {
			return nil, domain.ErrInvalidArgument
		}
		if d.MonthlyQuota < 0 && d.MonthlyQuota != UnlimitedQuota {
			return nil, domain.ErrInvalidArgument
		}
		if d.PriceMinorUnits < 0 {
			return nil, domain.ErrInvalidArgument
		}
		plans[d.Tier] = d
	}
	return &Catalog{plans: plans}, nil
}

// DefaultCatalog returns the shipped three-tier catalog. Free carries a small
// trial quota; pro is uncounted.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(
		&PlanDefinition{
			Tier:         PlanFree,
			Name:         "Free",
			MonthlyQuota: 2,
			Currency:     "INR",
			Features:     featureSet(FeatureScriptGeneration),
		},
		&PlanDefinition{
			Tier:            PlanBasic,
			Name:            "Creator",
			MonthlyQuota:    50,
			PriceMinorUnits: 49900,
			Currency:        "INR",
			Features: featureSet(
				FeatureScriptGeneration,
				FeatureAdvancedTones,
				FeatureAnalytics,
			),
		},
		&PlanDefinition{
			Tier:            PlanPro,
			Name:            "Pro",
			MonthlyQuota:    UnlimitedQuota,
			PriceMinorUnits: 149900,
			Currency:        "INR",
			Features: featureSet(
				FeatureScriptGeneration,
				FeatureAdvancedTones,
				FeaturePremiumTemplates,
				FeatureAnalytics,
				FeatureExport,
			),
		},
	)
	return c
}

// Find returns the definition for a tier or ErrUnknownPlan.
func (c *Catalog) Find(tier PlanTier) (*PlanDefinition, error) {
	p, ok := c.plans[tier]
	if !ok {
		return nil, domain.ErrUnknownPlan
	}
	return p, nil
}

// Tiers lists catalog tiers in ascending price order.
func (c *Catalog) Tiers() []*PlanDefinition {
	out := make([]*PlanDefinition, 0, len(c.plans))
	for _, p := range c.plans {
		out = append(out, p)
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].PriceMinorUnits < out[i].PriceMinorUnits {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}
