package chain

import "strings"

var demoWords = []string{
	"IN", "OF", "TO", "IS", "IT", "ON", "NO", "US", "AT", "UN", "GO", "AN",
	"MY", "UP", "ME", "AS", "HE", "WE", "SO", "BE", "BY", "OR", "DO", "IF",
	"HI", "BI", "EX", "OK", "18", "21", "99", "$$", "&&", "##",
}

// DemoWords returns the demo words with every character repeated n times,
// so a two letter word fills 2n modules.
func DemoWords(n int) []string {
	if n < 1 {
		n = 1
	}
	words := make([]string, len(demoWords))
	for i, w := range demoWords {
		var sb strings.Builder
		for j := 0; j < len(w); j++ {
			sb.WriteString(strings.Repeat(w[j:j+1], n))
		}
		words[i] = sb.String()
	}
	return words
}
