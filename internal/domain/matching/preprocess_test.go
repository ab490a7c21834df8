package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPreprocessor_FiveFUVariants(t *testing.T) {
	p := NewPreprocessor(true)

	for _, in := range []string{"5-FU", "5FU", "5 FU", "5_fu", "Fluoruracil", "flourouracil"} {
		assert.Equal(t, "fluorouracil", p.Apply(in), "input %q", in)
	}
}

func TestPreprocessor_Gemcitabin(t *testing.T) {
	p := NewPreprocessor(true)

	assert.Equal(t, "gemcitabin", p.Apply("Gemcibatin"))
	assert.Equal(t, "gemcitabin", p.Apply("Gemcibatine"))
	assert.Equal(t, "gemcitabin", p.Apply("Gemcibatine Mono"))
}

func TestPreprocessor_NabPaclitaxel(t *testing.T) {
	p := NewPreprocessor(true)

	assert.Equal(t, "Paclitaxel nab", p.Apply("nab-Paclitaxel"))
	assert.Equal(t, "Paclitaxel nab", p.Apply("nab Paclitaxel"))
	assert.Equal(t, "Paclitaxel nab", p.Apply("nabPaclitaxel"))
}

func TestPreprocessor_Calciumfolinat(t *testing.T) {
	p := NewPreprocessor(true)

	assert.Equal(t, "folinsäure", p.Apply("Calciumfolinat"))
}

func TestPreprocessor_RemovesShortWords(t *testing.T) {
	p := NewPreprocessor(true)

	assert.Equal(t, "Tamoxifen Letrozol", p.Apply("Tamoxifen 20 mg + Letrozol"))
	assert.Equal(t, "Cisplatin", p.Apply("Cisplatin iv"))
}

func TestPreprocessor_Disabled(t *testing.T) {
	p := NewPreprocessor(false)

	assert.Equal(t, "5-FU 20 mg", p.Apply("5-FU 20 mg"))
}
