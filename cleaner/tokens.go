package cleaner

import "unicode/utf8"

// EstimateTokens approximates a model token count as runes / 3. English
// averages about 4 characters per token and Japanese about 1.5, so the
// estimate leans high for the mixed-language pages resorts publish.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	if est := n / 3; est > 0 {
		return est
	}
	return 1
}
