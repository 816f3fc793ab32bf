package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"unicode"
	"unicode/utf8"
)

// chain maps a syllable to the syllables allowed to follow it. The empty key
// holds the opening syllables.
var chain = map[string][]string{
	"":   {"ка", "ма", "ти", "ро", "лу", "са", "ве", "бо", "да", "ни"},
	"ка": {"ра", "ми", "до", "ту", "ли"},
	"ма": {"ла", "ри", "го", "та", "ну"},
	"ти": {"ра", "ко", "на", "ли"},
	"ро": {"ма", "са", "ди", "ка"},
	"лу": {"на", "ка", "ро", "ми"},
	"са": {"ва", "ри", "ма", "до"},
	"ве": {"ра", "ни", "ло", "са"},
	"бо": {"ра", "ли", "ни", "та"},
	"да": {"ри", "ма", "ко", "на"},
	"ни": {"ка", "ра", "то", "ла"},
	"ра": {"ти", "на", "ку", "до", "ма"},
	"ми": {"ра", "ла", "ко", "да"},
	"до": {"ра", "ни", "ва", "ка"},
	"ту": {"ра", "ма", "ли"},
	"ли": {"ма", "ра", "на", "то"},
	"ла": {"ри", "да", "ни", "та"},
	"ри": {"ка", "да", "ма", "то"},
	"го": {"ра", "ла", "ни"},
	"та": {"ри", "ма", "на", "ла"},
	"ну": {"ра", "ка", "ли"},
	"ко": {"ра", "ла", "ни", "ва"},
	"на": {"ри", "ка", "ла", "до"},
	"ди": {"ра", "на", "ма"},
	"ва": {"ни", "ра", "ла"},
	"то": {"ра", "ни", "ла", "ма"},
	"ку": {"ра", "ла", "ни"},
}

// chainWord walks the syllable chain for 2-4 steps.
func chainWord(rng *rand.Rand) string {
	var b strings.Builder
	prev := ""
	for n := 2 + rng.Intn(3); n > 0; n-- {
		next := chain[prev]
		if len(next) == 0 {
			next = chain[""]
		}
		prev = next[rng.Intn(len(next))]
		b.WriteString(prev)
	}
	return capitalize(b.String())
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

var manufacturerSuffixes = []string{"", " Трейд", " и Ко", " Импорт", " Групп"}

func manufacturerName(rng *rand.Rand) string {
	return chainWord(rng) + manufacturerSuffixes[rng.Intn(len(manufacturerSuffixes))]
}

// uniqueNames draws n distinct names from gen. After repeated collisions a
// numeric suffix keeps the result unique.
func uniqueNames(n int, gen func() string) []string {
	seen := make(map[string]bool, n)
	names := make([]string, 0, n)
	for attempts := 0; len(names) < n; attempts++ {
		name := gen()
		if seen[name] {
			if attempts < 20*n {
				continue
			}
			name = fmt.Sprintf("%s %d", name, len(names)+1)
			if seen[name] {
				continue
			}
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}
