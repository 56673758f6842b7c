package reports

import (
	"bytes"
	"fmt"
	"net/url"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// docSuffix is the document file extension (without the dot) that discovery
// looks for. Case permutation of this token is exponential in its length, so
// it must stay a short fixed token.
const docSuffix = "pdf"

// Origin records which discovery technique produced a candidate.
type Origin string

const (
	// OriginExplicit marks candidates taken from a suffix-matching hyperlink.
	OriginExplicit Origin = "explicit-link"
	// OriginGuessed marks candidates constructed from link name stems against
	// the jurisdiction's alternate host. Guesses are a heuristic: many will
	// not exist and a miss is expected, not an error.
	OriginGuessed Origin = "guessed"
)

// Candidate is a document address produced by discovery, not yet confirmed to
// exist.
type Candidate struct {
	Address string
	Origin  Origin
}

// Discover extracts document candidates from a listing page.
//
// The explicit pass keeps every hyperlink whose path ends in the document
// suffix, resolving relative targets against baseAddress. When the strategy
// has an alternate host, a guessed pass additionally builds
// <alternateHost>/<reportID>/<stem>.<variant> addresses from the stems of the
// page's links, with every case permutation of the suffix: some origin servers
// store extensions with inconsistent casing that the listing page does not
// reveal. Candidates are deduplicated by scheme+host+path with explicit
// entries ordered first; a page with no hyperlinks yields an empty set.
func Discover(markup []byte, baseAddress string, strat Strategy, reportID string) []Candidate {
	base, err := url.Parse(baseAddress)
	if err != nil {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(markup))
	if err != nil {
		return nil
	}

	var hrefs []string
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		if href, ok := sel.Attr("href"); ok {
			if href = strings.TrimSpace(href); href != "" {
				hrefs = append(hrefs, href)
			}
		}
	})

	seen := make(map[string]bool)
	var candidates []Candidate
	add := func(address string, origin Origin) {
		key := normalizeAddress(address)
		if key == "" || seen[key] {
			return
		}
		seen[key] = true
		candidates = append(candidates, Candidate{Address: address, Origin: origin})
	}

	// Explicit pass: suffix-matching hyperlinks, document order.
	for _, href := range hrefs {
		ref, err := url.Parse(href)
		if err != nil {
			continue
		}
		resolved := base.ResolveReference(ref)
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			continue
		}
		if !strings.HasSuffix(strings.ToLower(resolved.Path), "."+docSuffix) {
			continue
		}
		add(resolved.String(), OriginExplicit)
	}

	// Guessed pass against the alternate host.
	if strat.AlternateHost != "" {
		alt := strings.TrimRight(strat.AlternateHost, "/")
		for _, stem := range guessStems(hrefs) {
			for _, variant := range caseVariants(docSuffix) {
				add(fmt.Sprintf("%s/%s/%s.%s", alt, reportID, stem, variant), OriginGuessed)
			}
		}
	}

	return candidates
}

// guessStems extracts the file name stems used for guessed candidates:
// the stems of suffix-matching links, falling back to the stem of every link
// when the page lists names without reliable extensions. The fallback is a
// heuristic with an unbounded false-positive rate; wasted fetches on
// non-existent guesses are accepted.
func guessStems(hrefs []string) []string {
	var stems []string
	seen := make(map[string]bool)
	add := func(stem string) {
		if stem == "" || seen[stem] {
			return
		}
		seen[stem] = true
		stems = append(stems, stem)
	}

	for _, href := range hrefs {
		stem, ext := splitName(href)
		if strings.EqualFold(ext, docSuffix) {
			add(stem)
		}
	}
	if len(stems) > 0 {
		return stems
	}

	for _, href := range hrefs {
		stem, _ := splitName(href)
		add(stem)
	}
	return stems
}

// splitName returns the base name of a link target split into stem and
// extension (without the dot).
func splitName(href string) (stem, ext string) {
	ref, err := url.Parse(href)
	if err != nil {
		return "", ""
	}
	name := path.Base(ref.Path)
	if name == "." || name == "/" {
		return "", ""
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i], name[i+1:]
	}
	return name, ""
}

// caseVariants generates every character-case permutation of token, 2^len in
// total. Callers only ever pass the short fixed document suffix.
func caseVariants(token string) []string {
	if token == "" {
		return nil
	}
	variants := []string{""}
	for _, r := range token {
		lower, upper := strings.ToLower(string(r)), strings.ToUpper(string(r))
		next := make([]string, 0, len(variants)*2)
		for _, v := range variants {
			next = append(next, v+lower)
			if upper != lower {
				next = append(next, v+upper)
			}
		}
		variants = next
	}
	return variants
}

// normalizeAddress reduces an address to scheme+host+path for deduplication.
func normalizeAddress(address string) string {
	u, err := url.Parse(address)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host + u.Path
}
