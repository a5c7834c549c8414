package xstitch

import (
	"embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
	"sync"

	"github.com/needlethreading/xstitch/imageutil"
)

//go:embed flossdata/dmc_colors.json
var flossFS embed.FS

// DMCEntry is a single DMC embroidery floss color.
type DMCEntry struct {
	Floss int
	Name  string `json:"name"`
	RGB   imageutil.RGB
	Lab   Lab
}

// dmcJSONEntry mirrors pdfgen.rs's load_dmc_colors DmcColor: a nullable
// integer floss id plus red/green/blue. Entries with a null floss are
// dropped; duplicate (red, green, blue) keys resolve last-entry-wins.
type dmcJSONEntry struct {
	Floss *int   `json:"floss"`
	Name  string `json:"name"`
	R     uint8  `json:"red"`
	G     uint8  `json:"green"`
	B     uint8  `json:"blue"`
}

// LoadDMCCatalog reads the DMC floss catalog from the given path, falling
// back to the embedded default when path is empty. Mirrors the teacher's
// VFS-then-filesystem load order.
func LoadDMCCatalog(path string) ([]DMCEntry, error) {
	var data []byte
	if path == "" {
		var err error
		data, err = flossFS.ReadFile("flossdata/dmc_colors.json")
		if err != nil {
			return nil, fmt.Errorf("xstitch: reading embedded DMC catalog: %w", err)
		}
	} else {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("xstitch: reading DMC catalog %q: %w", path, err)
		}
	}

	var raw []dmcJSONEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("xstitch: parsing DMC catalog: %w", err)
	}

	// Null-floss entries are dropped; on a duplicate sRGB key, the later
	// entry in the array wins, matching load_dmc_colors' collect into a
	// HashMap<Rgb<u8>, usize> (later insertions overwrite earlier ones).
	index := make(map[imageutil.RGB]int)
	deduped := make([]dmcJSONEntry, 0, len(raw))
	for _, r := range raw {
		if r.Floss == nil {
			continue
		}
		rgb := imageutil.RGB{R: r.R, G: r.G, B: r.B}
		if i, ok := index[rgb]; ok {
			deduped[i] = r
			continue
		}
		index[rgb] = len(deduped)
		deduped = append(deduped, r)
	}

	entries := make([]DMCEntry, len(deduped))
	for i, r := range deduped {
		entries[i] = DMCEntry{
			Floss: *r.Floss,
			Name:  r.Name,
			RGB:   imageutil.RGB{R: r.R, G: r.G, B: r.B},
			Lab:   LabFromRGB(r.R, r.G, r.B),
		}
	}
	return entries, nil
}

// labNode is a node in a KD-tree keyed on Lab coordinates, generalized
// from the teacher's RGB-keyed ColorNode for floss snapping.
type labNode struct {
	Entry       DMCEntry
	Left, Right *labNode
	SplitAxis   int
}

func labComponent(c Lab, axis int) float64 {
	switch axis {
	case 0:
		return c.L
	case 1:
		return c.A
	default:
		return c.B
	}
}

func chooseLabSplitAxis(entries []DMCEntry) int {
	minL, maxL := entries[0].Lab.L, entries[0].Lab.L
	minA, maxA := entries[0].Lab.A, entries[0].Lab.A
	minB, maxB := entries[0].Lab.B, entries[0].Lab.B
	for _, e := range entries {
		minL, maxL = math.Min(minL, e.Lab.L), math.Max(maxL, e.Lab.L)
		minA, maxA = math.Min(minA, e.Lab.A), math.Max(maxA, e.Lab.A)
		minB, maxB = math.Min(minB, e.Lab.B), math.Max(maxB, e.Lab.B)
	}
	rangeL, rangeA, rangeB := maxL-minL, maxA-minA, maxB-minB
	if rangeL >= rangeA && rangeL >= rangeB {
		return 0
	} else if rangeA >= rangeB {
		return 1
	}
	return 2
}

// buildLabKDTree builds a balanced KD-tree over the DMC catalog, splitting
// on the axis of greatest range at each level and using the median as
// the split point, matching the teacher's buildKDTree shape.
func buildLabKDTree(entries []DMCEntry, depth, maxDepth int) *labNode {
	if len(entries) == 0 || depth >= maxDepth {
		return nil
	}

	axis := chooseLabSplitAxis(entries)
	sort.Slice(entries, func(i, j int) bool {
		ci := labComponent(entries[i].Lab, axis)
		cj := labComponent(entries[j].Lab, axis)
		if ci != cj {
			return ci < cj
		}
		return entries[i].Floss < entries[j].Floss
	})

	median := len(entries) / 2
	for median < len(entries)-1 &&
		labComponent(entries[median].Lab, axis) == labComponent(entries[median+1].Lab, axis) {
		median++
	}

	return &labNode{
		Entry:     entries[median],
		Left:      buildLabKDTree(entries[:median], depth+1, maxDepth),
		Right:     buildLabKDTree(entries[median+1:], depth+1, maxDepth),
		SplitAxis: axis,
	}
}

// nearestNeighbor finds the catalog entry closest to target in Lab space.
func (node *labNode) nearestNeighbor(target Lab, best DMCEntry, bestDist float64, depth int) (DMCEntry, float64) {
	if node == nil {
		return best, bestDist
	}

	dist := node.Entry.Lab.SquaredDistance(target)
	if dist < bestDist {
		best, bestDist = node.Entry, dist
	}

	axis := node.SplitAxis
	var next, other *labNode
	if labComponent(target, axis) < labComponent(node.Entry.Lab, axis) {
		next, other = node.Left, node.Right
	} else {
		next, other = node.Right, node.Left
	}

	best, bestDist = next.nearestNeighbor(target, best, bestDist, depth+1)

	axisDist := labComponent(target, axis) - labComponent(node.Entry.Lab, axis)
	if axisDist*axisDist < bestDist {
		best, bestDist = other.nearestNeighbor(target, best, bestDist, depth+1)
	}

	return best, bestDist
}

// FlossSnapper matches arbitrary Lab colors to their nearest DMC floss
// color, caching lookups against a quantized Lab key so repeated calls for
// near-identical colors (a hallmark of the optimizer's converged palette)
// skip the tree walk. Folds the teacher's approximatecache.go into a
// single-color cache, since floss snapping has no 2x2 block key to reuse.
type FlossSnapper struct {
	entries []DMCEntry
	tree    *labNode

	mu    sync.Mutex
	cache map[[3]int32]DMCEntry
}

// NewFlossSnapper builds a snapper over the given catalog. An empty
// catalog is a caller error, not a recoverable state: there is no
// principled floss to snap to.
func NewFlossSnapper(entries []DMCEntry) (*FlossSnapper, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("xstitch: cannot build floss snapper from an empty catalog")
	}
	cp := make([]DMCEntry, len(entries))
	copy(cp, entries)
	maxDepth := int(math.Log2(float64(len(cp)))) + 1
	return &FlossSnapper{
		entries: entries,
		tree:    buildLabKDTree(cp, 0, maxDepth),
		cache:   make(map[[3]int32]DMCEntry),
	}, nil
}

// quantizeLabKey buckets a Lab color to grid cells 0.5 units wide on each
// axis, giving near-duplicate colors (the converged palette's output) the
// same cache key without needing an exact float match.
func quantizeLabKey(c Lab) [3]int32 {
	const cell = 0.5
	return [3]int32{
		int32(math.Round(c.L / cell)),
		int32(math.Round(c.A / cell)),
		int32(math.Round(c.B / cell)),
	}
}

// Entries returns the full catalog this snapper matches against.
func (s *FlossSnapper) Entries() []DMCEntry { return s.entries }

// Snap returns the catalog entry nearest to c in Lab space.
func (s *FlossSnapper) Snap(c Lab) DMCEntry {
	key := quantizeLabKey(c)

	s.mu.Lock()
	if entry, ok := s.cache[key]; ok {
		s.mu.Unlock()
		return entry
	}
	s.mu.Unlock()

	best, _ := s.tree.nearestNeighbor(c, s.entries[0], math.MaxFloat64, 0)

	s.mu.Lock()
	s.cache[key] = best
	s.mu.Unlock()

	return best
}

// SnapTilted applies the optimizer's (1.0, 1.1, 1.1) Lab tilt before
// snapping, matching original_source/src/main.rs's floss-matching call
// site. The composer's recoloring path calls Snap directly, untilted; see
// DESIGN.md Open Questions.
func (s *FlossSnapper) SnapTilted(c Lab) DMCEntry {
	return s.Snap(c.ScaleVec(1.0, 1.1, 1.1))
}
