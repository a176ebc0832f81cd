// File: internal/usecase/feature_gate.go
package usecase

import "creator-ai-entitlement/internal/domain/model"

// FeatureGate answers "does this subscription unlock that feature". It is
// pure and never errors, so callers may invoke it on every render: an absent
// record or an unknown tier simply grants nothing.
type FeatureGate struct {
	catalog *model.Catalog
}

func NewFeatureGate(catalog *model.Catalog) *FeatureGate {
	return &FeatureGate{catalog: catalog}
}

// HasFeature reports membership of featureID in the record's plan tier.
func (g *FeatureGate) HasFeature(rec *model.SubscriptionRecord, featureID model.FeatureID) bool {
	if rec == nil {
		return false
	}
	plan, err := g.catalog.Find(rec.Plan)
	if err != nil {
		return false
	}
	return plan.HasFeature(featureID)
}
