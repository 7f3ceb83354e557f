package routing

import "github.com/aistats/gateway/internal/core/domain"

// providerSupport is one row of the per-parameter support map.
type providerSupport struct {
	providerID string
	supported  bool
}

// supportMap records, for each requested param, the support verdict of every
// initial candidate. Built once by the param_support stage and reused by the
// preference stage, the hard unsupported check, and final diagnostics.
type supportMap struct {
	params []string
	rows   map[string][]providerSupport
}

func (m *supportMap) supports(param, providerID string) bool {
	for _, row := range m.rows[param] {
		if row.providerID == providerID {
			return row.supported
		}
	}
	// Unlisted providers were not in the initial pool; treat as supported
	// so they never surface in drop diagnostics.
	return true
}

func (m *supportMap) perParamSupport() []domain.ParamSupport {
	out := make([]domain.ParamSupport, 0, len(m.params))
	for _, param := range m.params {
		entry := domain.ParamSupport{
			Param:                param,
			SupportedProviders:   []string{},
			UnsupportedProviders: []string{},
		}
		for _, row := range m.rows[param] {
			if row.supported {
				entry.SupportedProviders = append(entry.SupportedProviders, row.providerID)
			} else {
				entry.UnsupportedProviders = append(entry.UnsupportedProviders, row.providerID)
			}
		}
		out = append(out, entry)
	}
	return out
}

// droppedProviders lists every initial provider missing from the final pool,
// annotated with the requested params it did not support.
func (m *supportMap) droppedProviders(initial, final []domain.ProviderCandidate) []domain.DroppedProvider {
	finalSet := make(map[string]struct{})
	for _, id := range domain.ProviderIDs(final) {
		finalSet[id] = struct{}{}
	}
	out := []domain.DroppedProvider{}
	for _, id := range domain.ProviderIDs(initial) {
		if _, kept := finalSet[id]; kept {
			continue
		}
		unsupported := []string{}
		for _, param := range m.params {
			if !m.supports(param, id) {
				unsupported = append(unsupported, param)
			}
		}
		out = append(out, domain.DroppedProvider{ProviderID: id, UnsupportedParams: unsupported})
	}
	return out
}

// recordStage appends one stage snapshot, comparing provider sets by ID.
func recordStage(stages []domain.StageRecord, stage domain.FilterStage, before, after []domain.ProviderCandidate) []domain.StageRecord {
	beforeIDs := domain.ProviderIDs(before)
	afterIDs := domain.ProviderIDs(after)
	afterSet := make(map[string]struct{}, len(afterIDs))
	for _, id := range afterIDs {
		afterSet[id] = struct{}{}
	}
	dropped := []string{}
	for _, id := range beforeIDs {
		if _, kept := afterSet[id]; !kept {
			dropped = append(dropped, id)
		}
	}
	return append(stages, domain.StageRecord{
		Stage:            stage,
		BeforeCount:      len(beforeIDs),
		AfterCount:       len(afterIDs),
		DroppedProviders: dropped,
	})
}
