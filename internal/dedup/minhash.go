package dedup

import (
	"hash/fnv"
	"math/bits"
	"math/rand"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

const (
	// largePrime is the Mersenne prime used for the universal hash family
	// h(x) = (a*x + b) mod largePrime.
	largePrime = (1 << 61) - 1
	maxHash    = (1 << 32) - 1

	// numPerm is the MinHash signature width (number of permutation
	// functions / hash family draws).
	numPerm = 128

	// hashSeed fixes the (a, b) pair generation so signatures are
	// reproducible across runs and processes. Go's math/rand, seeded
	// deterministically, stands in for the original's seeded PRNG; bit-for-
	// bit parity with that PRNG is neither required nor portable, only a
	// fixed, repeatable hash family within this implementation is.
	hashSeed = 42

	// shingleSize is the width of the character n-grams hashed into the
	// signature.
	shingleSize = 3
)

type hashFunc struct {
	a, b uint64
}

var hashFuncs = generateHashFuncs(numPerm, hashSeed)

func generateHashFuncs(n int, seed int64) []hashFunc {
	rng := rand.New(rand.NewSource(seed))
	funcs := make([]hashFunc, n)
	for i := range funcs {
		// a must be non-zero mod largePrime; b may be zero.
		a := uint64(rng.Int63n(largePrime-1)) + 1
		b := uint64(rng.Int63n(largePrime))
		funcs[i] = hashFunc{a: a, b: b}
	}
	return funcs
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Signature is a fixed-width MinHash sketch of a document's shingle set.
type Signature struct {
	Values []uint32
}

// NormalizeText applies the NFKC + whitespace-collapse + lowercase
// normalization used to build a clustering key string from raw title/body
// text.
func NormalizeText(text string) string {
	normalized := norm.NFKC.String(text)
	normalized = whitespaceRun.ReplaceAllString(normalized, " ")
	return strings.ToLower(strings.TrimSpace(normalized))
}

// shingle splits normalized text into a set of k-character shingle hashes.
// Text shorter than k still yields one shingle (the whole string), matching
// the reference implementation's fallback.
func shingle(text string, k int) map[uint32]struct{} {
	runes := []rune(text)
	set := make(map[uint32]struct{})
	if len(runes) < k {
		set[fnvHash(text)] = struct{}{}
		return set
	}
	for i := 0; i <= len(runes)-k; i++ {
		set[fnvHash(string(runes[i:i+k]))] = struct{}{}
	}
	return set
}

func fnvHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32() & maxHash
}

// ComputeMinHash builds the MinHash signature for a (already normalized)
// text string using the fixed, package-level hash family.
func ComputeMinHash(text string) Signature {
	shingles := shingle(text, shingleSize)
	sig := make([]uint32, numPerm)
	for i := range sig {
		sig[i] = maxHash
	}
	if len(shingles) == 0 {
		return Signature{Values: sig}
	}
	for s := range shingles {
		x := uint64(s)
		for i, hf := range hashFuncs {
			// a*x needs up to 93 bits, so compute (a*x + b) mod largePrime
			// on the full 128-bit value rather than a wrapped uint64.
			hi, lo := bits.Mul64(hf.a, x)
			lo, carry := bits.Add64(lo, hf.b, 0)
			h := uint32(bits.Rem64(hi+carry, lo, largePrime) & maxHash)
			if h < sig[i] {
				sig[i] = h
			}
		}
	}
	return Signature{Values: sig}
}

// Similarity estimates the Jaccard similarity of two documents from their
// MinHash signatures: the fraction of matching signature positions.
func Similarity(a, b Signature) float64 {
	matches := 0
	n := len(a.Values)
	for i := 0; i < n; i++ {
		if a.Values[i] == b.Values[i] {
			matches++
		}
	}
	return float64(matches) / float64(n)
}
