package inventory

import (
	"fmt"
	"sync"
)

// defaultSymbols is the universal fallback: single-code-point IPA letters,
// modifier letters, combining diacritics, suprasegmentals and tone marks.
var defaultSymbols = []rune{
	// Latin letters used as IPA base symbols.
	'a', 'b', 'c', 'd', 'e', 'f', 'g', 'h', 'i', 'j', 'k', 'l', 'm',
	'n', 'o', 'p', 'q', 'r', 's', 't', 'u', 'v', 'w', 'x', 'y', 'z',

	// Pulmonic consonants.
	'ʙ', 'β', 'ç', 'ɕ', 'ð', 'ɖ', 'ɡ', 'ɢ', 'ɣ', 'ɦ', 'ħ', 'ɧ', 'ɟ',
	'ʝ', 'ɬ', 'ɮ', 'ɭ', 'ʟ', 'ɱ', 'ɳ', 'ɲ', 'ŋ', 'ɴ', 'ɸ', 'ɹ', 'ɺ',
	'ɻ', 'ɽ', 'ɾ', 'ʀ', 'ʁ', 'ʂ', 'ʃ', 'ʈ', 'ʋ', 'ⱱ', 'ɰ', 'χ', 'ʎ',
	'ʐ', 'ʑ', 'ʒ', 'ʔ', 'ʕ', 'ʡ', 'ʢ', 'ʜ', 'ʍ', 'ɥ', 'θ', 'ɫ', 'ɚ',

	// Implosives and clicks.
	'ɓ', 'ɗ', 'ʄ', 'ɠ', 'ʛ', 'ʘ', 'ǀ', 'ǃ', 'ǂ', 'ǁ',

	// Vowels.
	'ɑ', 'ɐ', 'ɒ', 'æ', 'ɔ', 'ə', 'ɘ', 'ɛ', 'ɜ', 'ɞ', 'ɤ', 'ɨ', 'ɪ',
	'ɯ', 'ø', 'ɵ', 'œ', 'ɶ', 'ʉ', 'ʊ', 'ʌ', 'ʏ', 'ɝ', 'ᵻ', 'ᵿ',

	// Precomposed nasal vowels (NFC forms of vowel + U+0303).
	'ã', 'ẽ', 'ĩ', 'õ', 'ũ', 'ỹ',

	// Modifier letters.
	'ʼ', 'ʰ', 'ʱ', 'ʲ', 'ʷ', 'ˠ', 'ˤ', 'ⁿ', 'ˡ', 'ᶿ', 'ˣ', 'ᵊ', 'ʴ', 'ʵ',
	'ʶ', 'ˀ', 'ᶣ', 'ᵝ', 'ᶹ', '˞',

	// Combining diacritics.
	'\u0325', // voiceless (ring below)
	'\u030a', // voiceless (ring above)
	'\u032c', // voiced
	'\u0324', // breathy voiced
	'\u0330', // creaky voiced
	'\u033c', // linguolabial
	'\u032a', // dental
	'\u033a', // apical
	'\u033b', // laminal
	'\u0339', // more rounded
	'\u031c', // less rounded
	'\u031f', // advanced
	'\u0320', // retracted
	'\u0308', // centralized
	'\u033d', // mid-centralized
	'\u0329', // syllabic
	'\u032f', // non-syllabic
	'\u0303', // nasalized
	'\u031a', // no audible release
	'\u0334', // velarized or pharyngealized
	'\u031d', // raised
	'\u031e', // lowered
	'\u0318', // advanced tongue root
	'\u0319', // retracted tongue root
	'\u0306', // extra-short
	'\u0361', // tie bar above
	'\u035c', // tie bar below

	// Suprasegmentals.
	'ˈ', 'ˌ', 'ː', 'ˑ', '.', '|', '‖', '‿', '↗', '↘', 'ꜛ', 'ꜜ',

	// Tone letters and tone diacritics.
	'˥', '˦', '˧', '˨', '˩',
	'\u030b', '\u0301', '\u0304', '\u0300', '\u030f',
	'\u0302', '\u030c', '\u1dc4', '\u1dc5', '\u1dc6', '\u1dc7', '\u1dc8', '\u1dc9',
}

// DefaultID is the id reported by the built-in fallback inventory.
const DefaultID = "*"

var defaultInventory = sync.OnceValue(func() *Inventory {
	segments := make([]string, len(defaultSymbols))
	for i, r := range defaultSymbols {
		segments[i] = string(r)
	}
	inv, err := New(DefaultID, segments, nil)
	if err != nil {
		panic(fmt.Sprintf("inventory: invalid built-in fallback: %v", err))
	}
	return inv
})

// Default returns the built-in fallback inventory. It contains no boundary
// markers, so stress and syllable marks pass through as their own tokens.
func Default() *Inventory {
	return defaultInventory()
}
