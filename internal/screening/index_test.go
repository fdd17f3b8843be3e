package screening

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ASlavko/SanctionsDefenderV2/pkg/models"
)

func TestBuildSnapshot(t *testing.T) {
	records := []models.SanctionRecord{
		{
			ID:           "EU-1",
			ListType:     "EU",
			OriginalName: "Vladimir Putin",
			AliasNames:   `["Vladimir Vladimirovich Putin", "V. Putin"]`,
			IsActive:     true,
		},
		{
			ID:           "US-2",
			ListType:     "US_SDN",
			OriginalName: "Gazprom Neft",
			IsActive:     true,
		},
		{
			ID:           "UK-3",
			ListType:     "UK",
			OriginalName: "Removed Entity",
			IsActive:     false,
		},
	}

	snap := BuildSnapshot(records, testLogger())

	assert.Equal(t, 2, snap.Records(), "inactive records are not indexed")
	// EU-1 primary + 2 aliases, US-2 primary
	assert.Equal(t, 4, snap.Entries())

	rec := snap.Lookup("EU-1")
	require.NotNil(t, rec)
	assert.Equal(t, "vladimir putin", rec.Forms.norm)
	assert.ElementsMatch(t, []string{"vladimir vladimirovich putin", "v putin"}, rec.Aliases)

	assert.Nil(t, snap.Lookup("UK-3"))
	assert.Nil(t, snap.Lookup("missing"))
}

func TestBuildSnapshotMalformedAliases(t *testing.T) {
	records := []models.SanctionRecord{{
		ID:           "EU-1",
		ListType:     "EU",
		OriginalName: "Vladimir Putin",
		AliasNames:   `["unterminated`,
		IsActive:     true,
	}}

	snap := BuildSnapshot(records, testLogger())

	// the record survives on its primary name; only the aliases are lost
	require.Equal(t, 1, snap.Records())
	assert.Equal(t, 1, snap.Entries())
	assert.Empty(t, snap.Lookup("EU-1").Aliases)
}

func TestBuildSnapshotAliasDeduplication(t *testing.T) {
	records := []models.SanctionRecord{{
		ID:           "EU-1",
		ListType:     "EU",
		OriginalName: "Vladimir Putin",
		// duplicates of each other and of the primary name must collapse
		AliasNames:   "VLADIMIR PUTIN|V. Putin|v putin|  ",
		IsActive:     true,
	}}

	snap := BuildSnapshot(records, testLogger())

	rec := snap.Lookup("EU-1")
	require.NotNil(t, rec)
	assert.Equal(t, []string{"v putin"}, rec.Aliases)
	assert.Equal(t, 2, snap.Entries())
}

func TestBuildSnapshotSkipsEmptyNames(t *testing.T) {
	records := []models.SanctionRecord{
		{ID: "X-1", ListType: "EU", OriginalName: "???", IsActive: true},
		{ID: "X-2", ListType: "EU", OriginalName: "Real Name", IsActive: true},
	}

	snap := BuildSnapshot(records, testLogger())
	assert.Equal(t, 1, snap.Records())
}

func TestParseAliases(t *testing.T) {
	tests := []struct {
		name    string
		blob    string
		want    []string
		wantErr bool
	}{
		{"empty", "", nil, false},
		{"json array", `["A", "B"]`, []string{"A", "B"}, false},
		{"pipe separated", "A | B |C", []string{"A", "B", "C"}, false},
		{"semicolon separated", "A; B", []string{"A", "B"}, false},
		{"bare string", "Single Alias", []string{"Single Alias"}, false},
		{"broken json", `["A"`, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAliases(tt.blob)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSnapshotNilSafe(t *testing.T) {
	var snap *Snapshot
	assert.Equal(t, 0, snap.Entries())
	assert.Equal(t, 0, snap.Records())
	assert.Nil(t, snap.Lookup("any"))
}
