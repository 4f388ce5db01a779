package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComparableName(t *testing.T) {
	assert.Equal(t, "Pale Fire", ComparableName("L-Hammerton / Pale Fire / 4.7% / Steel Keg"))
	assert.Equal(t, "Lager", ComparableName("G-Lost and Grounded / Lager / 4.5%"))
	assert.Equal(t, "Plain Title", ComparableName("Plain Title"))
}

func TestScoreExactNameIsMax(t *testing.T) {
	score := Score("Pale Fire", "L-Hammerton / Pale Fire / 4.7% / Steel Keg")
	assert.Equal(t, 100+substringBonus, score)
}

func TestScoreTokenOrderIndependent(t *testing.T) {
	a := Score("Fire Pale", "L-Hammerton / Pale Fire / 4.7%")
	b := Score("Pale Fire", "L-Hammerton / Fire Pale / 4.7%")
	assert.Equal(t, tokenSortRatio("fire pale", "pale fire"), 100)
	assert.Equal(t, a, b)
}

func TestScoreSubstringBonus(t *testing.T) {
	with := Score("Dark Island", "L-Orkney / Dark Island Reserve / 10%")
	without := tokenSortRatio("Dark Island", "Dark Island Reserve")
	assert.Equal(t, without+substringBonus, with)
}

func TestScoreUnrelatedBelowRelated(t *testing.T) {
	unrelated := Score("Citrus Maxima IPA", "L-Anspach / Ordinary Bitter / 3.8%")
	related := Score("Citrus Maxima IPA", "L-Anspach / Citrus Maxima IPA / 6.2%")
	assert.Less(t, unrelated, related)
	assert.Less(t, unrelated, 100)
}

func TestTokenSortRatioPunctuationInsensitive(t *testing.T) {
	assert.Equal(t,
		tokenSortRatio("Keller-Pils", "Keller Pils"),
		tokenSortRatio("Keller Pils", "Keller Pils"))
}

func TestScoreEmptyInputs(t *testing.T) {
	assert.Equal(t, 0, tokenSortRatio("Pale Fire", ""))
	assert.Equal(t, 100, tokenSortRatio("", ""))
}
