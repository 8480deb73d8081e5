package html

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/awesomelab/awesync/internal/record"
)

// The page derives several displays from projectData: the stats bar,
// the per-category stat cards, navigation tab counts, section header
// counts, a chart series, and a trailing stats object in the script.
// Each is rewritten in place by pattern; the page's markup around the
// numbers is never touched. A fragment that has disappeared from the
// page is reported as a warning so drift is visible, not silently
// skipped.

var (
	totalCountRe      = regexp.MustCompile(`(<div class="stat-number" id="total-count">)\d+(</div>)`)
	navAllProjectsRe  = regexp.MustCompile(`(All Projects \()\d+(\))`)
	sectionCountAllRe = regexp.MustCompile(`(<span class="section-count">)\d+( projects</span>)`)
	sectionTotalIDRe  = sectionCountIDRe("all-projects")
	chartDataRe       = regexp.MustCompile(`(data:\s*\[)[^\]]+(\])`)
	statsObjTotalRe   = statsObjectKeyRe("all-projects")

	statCardRes    = make(map[string]*regexp.Regexp)
	navCountRes    = make(map[string]*regexp.Regexp)
	sectionIDRes   = make(map[string]*regexp.Regexp)
	statsObjectRes = make(map[string]*regexp.Regexp)
)

func init() {
	for _, key := range record.KnownCategories() {
		label, _ := record.StatLabel(key)
		statCardRes[key] = regexp.MustCompile(
			`(<div class="stat-number">)\d+(</div>\s*<div class="stat-label">` + regexp.QuoteMeta(label) + `</div>)`)
		navCountRes[key] = regexp.MustCompile(`(` + regexp.QuoteMeta(label) + ` \()\d+(\))`)
		sectionIDRes[key] = sectionCountIDRe(key)
		statsObjectRes[key] = statsObjectKeyRe(key)
	}
}

func sectionCountIDRe(id string) *regexp.Regexp {
	return regexp.MustCompile(`(?s)(id="` + regexp.QuoteMeta(id) + `".*?<span class="section-count">)\d+( projects</span>)`)
}

func statsObjectKeyRe(key string) *regexp.Regexp {
	return regexp.MustCompile(`(const stats = \{[^}]*"` + regexp.QuoteMeta(key) + `":\s*)\d+`)
}

// substText replaces the text between the pattern's two captured groups
// in every occurrence. Reports whether the pattern matched at all.
func substText(doc string, re *regexp.Regexp, text string) (string, bool) {
	if !re.MatchString(doc) {
		return doc, false
	}
	return re.ReplaceAllString(doc, "${1}"+text+"${2}"), true
}

func substCount(doc string, re *regexp.Regexp, n int) (string, bool) {
	return substText(doc, re, strconv.Itoa(n))
}

// substPrefixCount replaces the digits after the pattern's single
// captured prefix group in every occurrence.
func substPrefixCount(doc string, re *regexp.Regexp, n int) (string, bool) {
	if !re.MatchString(doc) {
		return doc, false
	}
	return re.ReplaceAllString(doc, "${1}"+strconv.Itoa(n)), true
}

// updateStats rewrites every statistics fragment from the snapshot's
// counts and returns the updated document plus one warning per missing
// fragment. Totals include unknown categories; per-category fragments
// cover the known keys only.
func updateStats(doc string, snap *record.Snapshot) (string, []string) {
	total := snap.Total()
	keys := record.KnownCategories()
	counts := make(map[string]int, len(keys))
	for _, key := range keys {
		counts[key] = snap.Count(key)
	}

	var warnings []string
	missing := func(fragment string) {
		warnings = append(warnings, "statistics fragment not found: "+fragment)
	}

	var ok bool
	if doc, ok = substCount(doc, totalCountRe, total); !ok {
		missing("total count")
	}

	for _, key := range keys {
		label, _ := record.StatLabel(key)
		if doc, ok = substCount(doc, statCardRes[key], counts[key]); !ok {
			missing(fmt.Sprintf("stat card %q", label))
		}
	}

	if doc, ok = substCount(doc, navAllProjectsRe, total); !ok {
		missing(`nav count "All Projects"`)
	}
	for _, key := range keys {
		label, _ := record.StatLabel(key)
		if doc, ok = substCount(doc, navCountRes[key], counts[key]); !ok {
			missing(fmt.Sprintf("nav count %q", label))
		}
	}

	// Sweep every section count to the total first, then narrow the
	// per-section ones by their id anchors. The sweep keeps counts
	// coherent for sections the id pass does not know about.
	if doc, ok = substCount(doc, sectionCountAllRe, total); !ok {
		missing("section counts")
	} else {
		if doc, ok = substCount(doc, sectionTotalIDRe, total); !ok {
			missing(`section count id="all-projects"`)
		}
		for _, key := range keys {
			if doc, ok = substCount(doc, sectionIDRes[key], counts[key]); !ok {
				missing(fmt.Sprintf("section count id=%q", key))
			}
		}
	}

	series := make([]string, len(keys))
	for i, key := range keys {
		series[i] = strconv.Itoa(counts[key])
	}
	if doc, ok = substText(doc, chartDataRe, strings.Join(series, ", ")); !ok {
		missing("chart data")
	}

	if !strings.Contains(doc, "const stats = {") {
		missing("stats object")
	} else {
		if doc, ok = substPrefixCount(doc, statsObjTotalRe, total); !ok {
			missing(`stats object key "all-projects"`)
		}
		for _, key := range keys {
			if doc, ok = substPrefixCount(doc, statsObjectRes[key], counts[key]); !ok {
				missing(fmt.Sprintf("stats object key %q", key))
			}
		}
	}

	return doc, warnings
}
