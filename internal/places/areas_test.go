package places

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractArea(t *testing.T) {
	t.Run("finds a district", func(t *testing.T) {
		area := ExtractArea("56 Eng Hoon St, Tiong Bahru, Singapore 160056")
		require.NotNil(t, area)
		assert.Equal(t, "Tiong Bahru", *area)
	})

	t.Run("case insensitive", func(t *testing.T) {
		area := ExtractArea("somewhere in TIONG BAHRU lah")
		require.NotNil(t, area)
		assert.Equal(t, "Tiong Bahru", *area)
	})

	t.Run("earlier table entries win on multiple mentions", func(t *testing.T) {
		area := ExtractArea("between Katong and Orchard")
		require.NotNil(t, area)
		assert.Equal(t, "Orchard", *area)
	})

	t.Run("no district", func(t *testing.T) {
		assert.Nil(t, ExtractArea("10 Downing Street, London"))
	})

	t.Run("empty address", func(t *testing.T) {
		assert.Nil(t, ExtractArea(""))
	})
}

func TestAreaFromComponents(t *testing.T) {
	t.Run("prefers sublocality component", func(t *testing.T) {
		area := areaFromComponents([]addressComponent{
			{LongText: "160056", Types: []string{"postal_code"}},
			{LongText: "Tiong Bahru", Types: []string{"sublocality_level_1"}},
		})
		require.NotNil(t, area)
		assert.Equal(t, "Tiong Bahru", *area)
	})

	t.Run("neighborhood also counts", func(t *testing.T) {
		area := areaFromComponents([]addressComponent{
			{ShortText: "Joo Chiat", Types: []string{"neighborhood"}},
		})
		require.NotNil(t, area)
		assert.Equal(t, "Joo Chiat", *area)
	})

	t.Run("unknown component text", func(t *testing.T) {
		area := areaFromComponents([]addressComponent{
			{LongText: "Central Region", Types: []string{"sublocality_level_1"}},
		})
		assert.Nil(t, area)
	})

	t.Run("no relevant components", func(t *testing.T) {
		assert.Nil(t, areaFromComponents(nil))
	})
}
