package matching

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tapcellar/tapcellar-backend/pkg/enums"
	"github.com/tapcellar/tapcellar-backend/pkg/shopify"
)

// Config tunes the matcher. Thresholds and the cask-volume alias table come
// from application config; the aliases map a normalized invoice volume to the
// cask keyword its variant title is expected to carry ("9" -> "firkin").
type Config struct {
	NoiseFloor        int
	AcceptScore       int
	CaskVolumeAliases map[string]string
	SKUPrefixLength   int
}

// LineQuery is the normalized view of one invoice line presented to the matcher.
type LineQuery struct {
	ProductName string
	Format      string
	Pack        string // NormalizePack output
	Volume      string // NormalizeVolume output
}

// Result is the discriminated outcome of matching one line against a vendor's
// cached candidates. Only Matched results carry product/variant fields.
type Result struct {
	Status       enums.ReconciliationStatus
	ProductID    string
	ProductTitle string
	VariantID    string
	VariantTitle string
	VariantSKU   string
	ImageURL     string
	BestScore    int
	Trace        []string
}

type scoredCandidate struct {
	score   int
	product shopify.Product
}

// Match runs the per-line decision procedure: score every candidate, walk the
// acceptable ones best-first through the format-family guard, and scan their
// variants for a pack+volume compatible one. The first accepted variant wins.
//
// SizeMissing means some candidate cleared the noise floor but no variant
// passed the size checks; NewProduct means nothing resembling the line exists
// for this vendor at all.
func Match(cfg Config, line LineQuery, candidates []shopify.Product) Result {
	res := Result{Status: enums.ReconciliationNewProduct}

	if len(candidates) == 0 {
		res.Status = enums.ReconciliationVendorNotFound
		return res
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		score := Score(line.ProductName, candidate.Title)
		if score > cfg.NoiseFloor {
			scored = append(scored, scoredCandidate{score: score, product: candidate})
		}
	}
	// Stable sort: catalog fetch order breaks ties.
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) == 0 {
		res.trace("no candidate for %q cleared the noise floor", line.ProductName)
		return res
	}
	res.BestScore = scored[0].score

	for _, candidate := range scored {
		if candidate.score < cfg.AcceptScore {
			res.trace("candidate %q scored %d%%, below acceptance threshold", candidate.product.Title, candidate.score)
			continue
		}
		if !familyCompatible(line.Format, candidate.product) {
			res.trace("candidate %q rejected by format guard (invoice format %q)", candidate.product.Title, line.Format)
			continue
		}
		res.trace("checking candidate %q (%d%%)", candidate.product.Title, candidate.score)

		for _, variant := range candidate.product.Variants {
			title := strings.ToLower(variant.Title)
			if !packOK(line.Pack, title) || !volOK(cfg, line.Volume, title) {
				res.trace("variant %q failed size check", variant.Title)
				continue
			}
			res.Status = enums.ReconciliationMatched
			res.ProductID = candidate.product.ID
			res.ProductTitle = stripLocationPrefix(candidate.product.Title, cfg.SKUPrefixLength)
			res.VariantID = variant.ID
			res.VariantTitle = variant.Title
			res.VariantSKU = variant.SKU
			res.ImageURL = candidate.product.ImageURL
			res.trace("matched variant %q", variant.Title)
			return res
		}
	}

	res.Status = enums.ReconciliationSizeMissing
	res.trace("no variant matched pack %s / volume %s; best candidate scored %d%%", line.Pack, line.Volume, res.BestScore)
	return res
}

// familyCompatible blocks cross-family matches before any variant is scanned.
// A steel keg invoice line must never match a keykeg product even when the
// name and size line up, because the physical container differs.
func familyCompatible(invoiceFormat string, product shopify.Product) bool {
	format := strings.ToLower(invoiceFormat)
	combined := strings.ToLower(product.Format + " " + product.KegType + " " + product.Title)

	switch {
	case strings.Contains(format, "steel"):
		return !containsAny(combined, "keykeg", "poly", "dolium")
	case strings.Contains(format, "keykeg"), strings.Contains(format, "key keg"):
		return !containsAny(combined, "steel", "stainless")
	case strings.Contains(format, "cask"), strings.Contains(format, "firkin"):
		if strings.Contains(combined, "keg") && !strings.Contains(combined, "cask") {
			return false
		}
		return true
	default:
		return true
	}
}

// packOK checks the variant title against the normalized pack size. Pack "1"
// means not multi-packed, which a variant signals by the absence of an " x "
// multiplier, never by a literal "1 x".
func packOK(pack, variantTitle string) bool {
	if pack == "1" {
		return !strings.Contains(variantTitle, " x ")
	}
	return strings.Contains(variantTitle, pack+" x") || strings.Contains(variantTitle, pack+"x")
}

// volOK checks the variant title against the normalized volume. A trailing
// zero is tolerated ("5" matches "50cl", the same value at coarser precision),
// and Imperial cask sizes match via the configured alias keywords.
func volOK(cfg Config, volume, variantTitle string) bool {
	if volume != "0" && strings.Contains(variantTitle, volume) {
		return true
	}
	if volume != "0" && strings.Contains(variantTitle, volume+"0") {
		return true
	}
	if keyword, ok := cfg.CaskVolumeAliases[volume]; ok && strings.Contains(variantTitle, keyword) {
		return true
	}
	return false
}

func stripLocationPrefix(title string, prefixLen int) string {
	if prefixLen <= 0 {
		return title
	}
	if len(title) > prefixLen && title[prefixLen-1] == '-' {
		return title[prefixLen:]
	}
	return title
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}

func (r *Result) trace(format string, args ...any) {
	r.Trace = append(r.Trace, fmt.Sprintf(format, args...))
}
