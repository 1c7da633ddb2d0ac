package featureset

import (
	mapset "github.com/deckarep/golang-set"
)

// FullInflationFeaturePair couples a "candidate votes to enable" feature
// with the feature that actually flips full inflation on once enough of the
// candidate's gate has been met. Modeled as a fixed table rather than a
// single feature because Solana-family networks have shipped more than one
// full-inflation candidate historically; this module only wires the one
// pair the spec's scope calls for.
type FullInflationFeaturePair struct {
	VoteID   ID
	EnableID ID
}

// FullInflationFeaturePairs is the fixed set of pairs FeatureSet.FullInflationFeaturesEnabled
// checks. New inflation candidates are appended here, never removed.
var FullInflationFeaturePairs = []FullInflationFeaturePair{
	{VoteID: FullInflation, EnableID: FullInflation},
}

// FeatureSet holds one node's active/inactive partition of the known
// feature registry. The zero value is not valid; use New.
type FeatureSet struct {
	Active   map[ID]uint64 // feature id -> activation slot
	Inactive mapset.Set
}

// New returns a FeatureSet with every known feature inactive.
func New() *FeatureSet {
	inactive := mapset.NewSet()
	for _, id := range KnownIDs() {
		inactive.Add(id)
	}
	return &FeatureSet{Active: make(map[ID]uint64), Inactive: inactive}
}

// AllEnabled returns a FeatureSet with every known feature active at slot 0,
// useful for tests that want to exercise feature-gated code paths without
// activating each id individually.
func AllEnabled() *FeatureSet {
	fs := &FeatureSet{Active: make(map[ID]uint64), Inactive: mapset.NewSet()}
	for _, id := range KnownIDs() {
		fs.Active[id] = 0
	}
	return fs
}

// IsActive reports whether id has been activated.
func (fs *FeatureSet) IsActive(id ID) bool {
	_, ok := fs.Active[id]
	return ok
}

// ActivatedSlot returns the slot id was activated at, if active.
func (fs *FeatureSet) ActivatedSlot(id ID) (uint64, bool) {
	slot, ok := fs.Active[id]
	return slot, ok
}

// Activate moves id from inactive to active at slot.
func (fs *FeatureSet) Activate(id ID, slot uint64) {
	fs.Inactive.Remove(id)
	fs.Active[id] = slot
}

// Deactivate moves id from active back to inactive.
func (fs *FeatureSet) Deactivate(id ID) {
	delete(fs.Active, id)
	fs.Inactive.Add(id)
}

// FullInflationFeaturesEnabled returns the enable-ids of every pair in
// FullInflationFeaturePairs whose vote and enable ids are both active.
func (fs *FeatureSet) FullInflationFeaturesEnabled() []ID {
	var enabled []ID
	for _, pair := range FullInflationFeaturePairs {
		if fs.IsActive(pair.VoteID) && fs.IsActive(pair.EnableID) {
			enabled = append(enabled, pair.EnableID)
		}
	}
	return enabled
}
