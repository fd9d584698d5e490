package analyzer

import (
	"image"
	"sort"

	apperrors "github.com/anime-shed/brand-inspector-go/internal/errors"
	"github.com/anime-shed/brand-inspector-go/internal/matcher"
	"github.com/anime-shed/brand-inspector-go/internal/palette"
)

const (
	// candidateFactor widens the frequency scan before extreme colors are skipped
	candidateFactor = 5
	extremeHigh     = 245
	extremeLow      = 5
)

type colorFreq struct {
	rgb   palette.RGB
	count int
}

type cluster struct {
	seed    palette.RGB
	best    colorFreq
	members int
	count   int
}

// ExtractPalette finds the dominant colors of img. The most frequent exact
// colors (skipping near-white and near-black extremes) are greedily merged
// into clusters: each color joins the first cluster whose seed lies within
// the threshold, otherwise it starts a new one. A cluster is represented by
// its most frequent member, and percentages are relative to all colors that
// entered clustering.
func ExtractPalette(img image.Image, opts ExtractOptions) (*Extraction, error) {
	if img == nil {
		return nil, apperrors.NewImageDecodeError("no image to extract from", nil)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	bounds := img.Bounds()
	if bounds.Empty() {
		return nil, apperrors.NewImageDecodeError("image has no pixels", nil)
	}

	freq := make(map[uint32]int)
	matcher.ForEachPixel(img, func(p palette.RGB) {
		freq[p.Pack()]++
	})

	candidates := mostCommon(freq, opts.Count*candidateFactor)
	selected := make([]colorFreq, 0, opts.Count)
	for _, c := range candidates {
		if isExtreme(c.rgb) {
			continue
		}
		selected = append(selected, c)
		if len(selected) == opts.Count {
			break
		}
	}

	clusters := clusterColors(selected, opts.ClusterThreshold)
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].best.count > clusters[j].best.count
	})
	if len(clusters) > opts.Keep {
		clusters = clusters[:opts.Keep]
	}

	considered := 0
	for _, c := range selected {
		considered += c.count
	}

	out := &Extraction{
		Width:       bounds.Dx(),
		Height:      bounds.Dy(),
		TotalPixels: bounds.Dx() * bounds.Dy(),
		Colors:      make([]ExtractedColor, len(clusters)),
	}
	for i, c := range clusters {
		out.Colors[i] = ExtractedColor{
			Hex:           c.best.rgb.Hex(),
			RGB:           c.best.rgb,
			Name:          palette.Describe(c.best.rgb),
			Count:         c.best.count,
			Percentage:    float64(c.best.count) * 100 / float64(considered),
			ClusterPixels: c.count,
			Members:       c.members,
		}
	}
	return out, nil
}

func mostCommon(freq map[uint32]int, n int) []colorFreq {
	all := make([]colorFreq, 0, len(freq))
	for k, v := range freq {
		all = append(all, colorFreq{rgb: palette.Unpack(k), count: v})
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].count != all[j].count {
			return all[i].count > all[j].count
		}
		return all[i].rgb.Pack() < all[j].rgb.Pack()
	})
	if len(all) > n {
		all = all[:n]
	}
	return all
}

func isExtreme(c palette.RGB) bool {
	return (c.R > extremeHigh && c.G > extremeHigh && c.B > extremeHigh) ||
		(c.R < extremeLow && c.G < extremeLow && c.B < extremeLow)
}

// clusterColors merges each color into the first cluster whose seed is
// within threshold.
func clusterColors(colors []colorFreq, threshold float64) []*cluster {
	var clusters []*cluster
	for _, c := range colors {
		var home *cluster
		for _, cl := range clusters {
			if matcher.Distance(c.rgb, cl.seed) < threshold {
				home = cl
				break
			}
		}
		if home == nil {
			clusters = append(clusters, &cluster{seed: c.rgb, best: c, members: 1, count: c.count})
			continue
		}
		home.members++
		home.count += c.count
		if c.count > home.best.count {
			home.best = c
		}
	}
	return clusters
}
