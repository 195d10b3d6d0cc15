// Package fuzzy implements normalized string similarity scores in the
// 0..100 range: plain ratio, best partial alignment and token-set ratio.
package fuzzy

import (
	"sort"
	"strings"

	"github.com/xrash/smetrics"
)

// Scorer compares two strings and returns a similarity in [0, 100].
type Scorer func(a, b string) float64

// Ratio is the normalized indel similarity of two strings.
func Ratio(a, b string) float64 {
	return ratioRunes([]rune(a), []rune(b))
}

func ratioRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 100 * (1 - float64(indelDistance(a, b))/float64(total))
}

// indelDistance counts insertions and deletions needed to turn a into b.
func indelDistance(a, b []rune) int {
	pair := encodePair(a, b)
	return pair.distance(0, len(pair.long))
}

// encodedPair holds two strings remapped onto a dense alphabet. Up to 256
// distinct runes the symbols also fit single bytes, so the byte-oriented
// Wagner-Fischer implementation works for Cyrillic input as well.
type encodedPair struct {
	short, long   []int
	shortB, longB string
	bytes         bool
	alphabet      int
}

func encodePair(a, b []rune) encodedPair {
	ids := make(map[rune]int, len(a)+len(b))
	encode := func(rs []rune) []int {
		out := make([]int, len(rs))
		for i, r := range rs {
			id, ok := ids[r]
			if !ok {
				id = len(ids)
				ids[r] = id
			}
			out[i] = id
		}
		return out
	}
	p := encodedPair{short: encode(a), long: encode(b)}
	p.alphabet = len(ids)
	if p.alphabet <= 256 {
		p.bytes = true
		p.shortB = toBytes(p.short)
		p.longB = toBytes(p.long)
	}
	return p
}

func toBytes(symbols []int) string {
	buf := make([]byte, len(symbols))
	for i, s := range symbols {
		buf[i] = byte(s)
	}
	return string(buf)
}

// distance is the indel distance between short and long[lo:hi].
func (p encodedPair) distance(lo, hi int) int {
	if p.bytes {
		return smetrics.WagnerFischer(p.shortB, p.longB[lo:hi], 1, 1, 2)
	}
	window := p.long[lo:hi]
	return len(p.short) + len(window) - 2*lcsLength(p.short, window)
}

func (p encodedPair) ratio(lo, hi int) float64 {
	total := len(p.short) + hi - lo
	if total == 0 {
		return 100
	}
	return 100 * (1 - float64(p.distance(lo, hi))/float64(total))
}

func lcsLength(a, b []int) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// PartialRatio slides the shorter string across the longer one, including
// windows that hang over either edge, and returns the best Ratio.
//
// The pair is encoded once. A window is scored only when the rune multiset
// it shares with the shorter string could beat the best score so far.
func PartialRatio(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		if len(rb) == 0 {
			return 100
		}
		return 0
	}

	pair := encodePair(ra, rb)
	m, n := len(pair.short), len(pair.long)

	need := make([]int, pair.alphabet)
	for _, s := range pair.short {
		need[s]++
	}
	have := make([]int, pair.alphabet)
	common := 0
	add := func(s int) {
		if have[s] < need[s] {
			common++
		}
		have[s]++
	}
	remove := func(s int) {
		have[s]--
		if have[s] < need[s] {
			common--
		}
	}

	best := 0.0
	consider := func(lo, hi int) bool {
		// indel distance >= m + w - 2*common
		if bound := 100 * 2 * float64(common) / float64(m+hi-lo); bound <= best {
			return false
		}
		if score := pair.ratio(lo, hi); score > best {
			best = score
		}
		return best >= 100
	}

	lo, hi := 0, 0
	for ; hi < m-1; hi++ {
		add(pair.long[hi])
		if consider(lo, hi+1) {
			return best
		}
	}
	for ; hi < n; hi++ {
		add(pair.long[hi])
		if hi-lo+1 > m {
			remove(pair.long[lo])
			lo++
		}
		if consider(lo, hi+1) {
			return best
		}
	}
	for lo++; lo < n; lo++ {
		remove(pair.long[lo-1])
		if consider(lo, n) {
			return best
		}
	}
	return best
}

// TokenSetRatio compares whitespace token sets, ignoring order and repeats.
func TokenSetRatio(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	var common, onlyA, onlyB []string
	for tok := range setA {
		if _, ok := setB[tok]; ok {
			common = append(common, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range setB {
		if _, ok := setA[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	if len(common) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	sort.Strings(common)
	sort.Strings(onlyA)
	sort.Strings(onlyB)

	t0 := strings.Join(common, " ")
	t1 := joinNonEmpty(t0, strings.Join(onlyA, " "))
	t2 := joinNonEmpty(t0, strings.Join(onlyB, " "))

	return max(Ratio(t0, t1), Ratio(t0, t2), Ratio(t1, t2))
}

// MaxOf combines scorers by taking the highest score.
func MaxOf(scorers ...Scorer) Scorer {
	return func(a, b string) float64 {
		best := 0.0
		for _, s := range scorers {
			if v := s(a, b); v > best {
				best = v
			}
		}
		return best
	}
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}

func joinNonEmpty(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	default:
		return a + " " + b
	}
}
