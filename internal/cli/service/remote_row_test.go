package service

import (
	"testing"

	"CardKeeper/internal/cli/model"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestBuildRemoteRow_RarityMapping(t *testing.T) {
	cases := map[string]string{
		"common":    RarityCommon,
		"Uncommon":  RarityUncommon,
		"rare":      RarityRare,
		"legendary": RarityLegendary,
		"epic":      RarityLegendary,
		"":          RarityCommon,
		"mythic":    RarityCommon,
	}
	for in, want := range cases {
		row := BuildRemoteRow(model.CardData{ID: "c", Title: "t", Rarity: in}, nil)
		assert.Equal(t, want, row.Rarity, "rarity %q", in)
	}
}

func TestBuildRemoteRow_EpicLogsWarning(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	BuildRemoteRow(model.CardData{ID: "c9", Title: "t", Rarity: "epic"}, zap.New(core).Sugar())

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "c9", entries[0].ContextMap()["card_id"])
	}
}

func TestBuildRemoteRow_Defaults(t *testing.T) {
	row := BuildRemoteRow(model.CardData{ID: "c1", Title: "Foo"}, nil)

	assert.Equal(t, []string{}, row.Tags)
	assert.Equal(t, map[string]any{}, row.DesignMetadata)
	assert.Equal(t, VisibilityPrivate, row.Visibility)
	assert.False(t, row.IsPublic)
	assert.False(t, row.MarketplaceListing)
	assert.Equal(t, VerificationPending, row.VerificationStatus)
}

func TestBuildRemoteRow_PublicAndPublishing(t *testing.T) {
	row := BuildRemoteRow(model.CardData{
		ID:                "c1",
		Title:             "Foo",
		Visibility:        "public",
		Tags:              []string{"fire"},
		PublishingOptions: &model.PublishingOptions{MarketplaceListing: true, PrintAvailable: true},
	}, nil)

	assert.True(t, row.IsPublic)
	assert.True(t, row.MarketplaceListing)
	assert.True(t, row.PrintAvailable)
	assert.Equal(t, []string{"fire"}, row.Tags)
}
