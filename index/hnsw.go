package index

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/Kauxtubh/pinecone/storage"
)

// HNSWConfig configures the HNSW graph.
type HNSWConfig struct {
	M              int     // Max connections per node (default 16)
	EfConstruction int     // Construction search depth (default 200)
	EfSearch       int     // Query search depth (default 50)
	LevelMult      float64 // Level multiplier (default 1/ln(M))
}

func (c HNSWConfig) withDefaults() HNSWConfig {
	cfg := c
	if cfg.M == 0 {
		cfg.M = 16
	}
	if cfg.EfConstruction == 0 {
		cfg.EfConstruction = 200
	}
	if cfg.EfSearch == 0 {
		cfg.EfSearch = 50
	}
	if cfg.LevelMult == 0 {
		cfg.LevelMult = 1.0 / math.Log(float64(cfg.M))
	}
	return cfg
}

type hnswNode struct {
	rec       storage.Record
	level     int
	neighbors [][]uint32 // neighbors[level] = neighbor slot indices
}

// HNSW is a Hierarchical Navigable Small World graph index. Removal is
// lazy: deleted entries stay in the graph as routing nodes until Compact
// rebuilds it. Filtered searches widen the candidate beam until enough
// eligible matches are found or the whole graph has been considered.
type HNSW struct {
	mu         sync.RWMutex
	metric     Metric
	cfg        HNSWConfig
	nodes      []hnswNode
	byID       map[string]uint32
	dead       map[uint32]struct{}
	entryPoint int32 // -1 if empty
	maxLevel   int
}

// NewHNSW creates an empty graph index scoring under metric.
func NewHNSW(metric Metric, cfg HNSWConfig) *HNSW {
	return &HNSW{
		metric:     metric,
		cfg:        cfg.withDefaults(),
		byID:       make(map[string]uint32),
		dead:       make(map[uint32]struct{}),
		entryPoint: -1,
	}
}

// distance inverts the metric score so lower always means closer, which is
// the orientation the graph traversal works in.
func (h *HNSW) distance(a, b []float32) float32 {
	return -h.metric.Score(a, b)
}

func (h *HNSW) Insert(rec storage.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.byID[rec.ID]; ok {
		h.dead[old] = struct{}{}
	}
	h.addNode(rec)
}

func (h *HNSW) addNode(rec storage.Record) {
	level := h.randomLevel()
	idx := uint32(len(h.nodes))

	n := hnswNode{
		rec:       rec,
		level:     level,
		neighbors: make([][]uint32, level+1),
	}
	for i := range n.neighbors {
		n.neighbors[i] = make([]uint32, 0, h.cfg.M)
	}

	h.nodes = append(h.nodes, n)
	h.byID[rec.ID] = idx

	if h.entryPoint < 0 {
		h.entryPoint = int32(idx)
		h.maxLevel = level
		return
	}

	// Greedy-descend from the top of the graph to the insertion level.
	curr := uint32(h.entryPoint)
	for l := h.maxLevel; l > level; l-- {
		curr = h.nearestAtLevel(rec.Values, curr, l)
	}

	for l := min(level, h.maxLevel); l >= 0; l-- {
		neighbors := h.searchLevel(rec.Values, curr, h.cfg.EfConstruction, l)
		h.connect(idx, neighbors, l)
		if len(neighbors) > 0 {
			curr = neighbors[0]
		}
	}

	if level > h.maxLevel {
		h.maxLevel = level
		h.entryPoint = int32(idx)
	}
}

func (h *HNSW) randomLevel() int {
	r := rand.Float64()
	for r == 0 {
		r = rand.Float64()
	}
	return int(-math.Log(r) * h.cfg.LevelMult)
}

// nearestAtLevel greedily walks level edges toward query, returning the
// local minimum.
func (h *HNSW) nearestAtLevel(query []float32, entry uint32, level int) uint32 {
	curr := entry
	currDist := h.distance(query, h.nodes[curr].rec.Values)

	for {
		changed := false
		if level < len(h.nodes[curr].neighbors) {
			for _, neighbor := range h.nodes[curr].neighbors[level] {
				d := h.distance(query, h.nodes[neighbor].rec.Values)
				if d < currDist {
					curr = neighbor
					currDist = d
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return curr
}

// searchLevel runs a beam search of width ef over one level and returns the
// node indices it kept, unordered.
func (h *HNSW) searchLevel(query []float32, entry uint32, ef, level int) []uint32 {
	visited := map[uint32]bool{entry: true}
	candidates := &distHeap{}          // closest unexplored first
	results := &distHeap{worst: true}  // farthest kept result on top

	d := h.distance(query, h.nodes[entry].rec.Values)
	candidates.push(distItem{idx: entry, dist: d})
	results.push(distItem{idx: entry, dist: d})

	for candidates.len() > 0 {
		curr := candidates.pop()
		if results.len() >= ef && curr.dist > results.peek().dist {
			break
		}

		if level < len(h.nodes[curr.idx].neighbors) {
			for _, neighbor := range h.nodes[curr.idx].neighbors[level] {
				if visited[neighbor] {
					continue
				}
				visited[neighbor] = true

				nd := h.distance(query, h.nodes[neighbor].rec.Values)
				if results.len() < ef || nd < results.peek().dist {
					candidates.push(distItem{idx: neighbor, dist: nd})
					results.push(distItem{idx: neighbor, dist: nd})
					if results.len() > ef {
						results.pop()
					}
				}
			}
		}
	}

	out := make([]uint32, results.len())
	for i := range out {
		out[i] = results.items[i].idx
	}
	return out
}

// connect links a new node to up to M neighbors at the given level,
// bidirectionally, pruning any neighbor that ends up over-connected.
func (h *HNSW) connect(idx uint32, neighbors []uint32, level int) {
	m := h.cfg.M
	if level == 0 {
		m = h.cfg.M * 2
	}

	selected := neighbors
	if len(selected) > m {
		selected = selected[:m]
	}

	h.nodes[idx].neighbors[level] = append(h.nodes[idx].neighbors[level], selected...)
	for _, n := range selected {
		if level < len(h.nodes[n].neighbors) {
			h.nodes[n].neighbors[level] = append(h.nodes[n].neighbors[level], idx)
			if len(h.nodes[n].neighbors[level]) > m {
				h.prune(n, level, m)
			}
		}
	}
}

// prune keeps only the m closest connections of a node at one level.
func (h *HNSW) prune(idx uint32, level, m int) {
	neighbors := h.nodes[idx].neighbors[level]
	if len(neighbors) <= m {
		return
	}

	type nd struct {
		n    uint32
		dist float32
	}
	nds := make([]nd, len(neighbors))
	for i, n := range neighbors {
		nds[i] = nd{n: n, dist: h.distance(h.nodes[idx].rec.Values, h.nodes[n].rec.Values)}
	}
	sort.Slice(nds, func(i, j int) bool { return nds[i].dist < nds[j].dist })

	h.nodes[idx].neighbors[level] = make([]uint32, m)
	for i := 0; i < m; i++ {
		h.nodes[idx].neighbors[level][i] = nds[i].n
	}
}

func (h *HNSW) Remove(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if idx, ok := h.byID[id]; ok {
		delete(h.byID, id)
		h.dead[idx] = struct{}{}
	}
}

func (h *HNSW) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byID)
}

func (h *HNSW) Search(ctx context.Context, query []float32, k int, pred Predicate) ([]Match, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if k <= 0 || h.entryPoint < 0 || len(h.byID) == 0 {
		return nil, nil
	}

	// Widen the beam until k eligible matches are found or the beam covers
	// the whole graph. Without a predicate the first round suffices.
	ef := max(h.cfg.EfSearch, k)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		matches := h.searchOnce(query, ef, k, pred)
		if len(matches) >= k || ef >= len(h.nodes) {
			return matches, nil
		}
		ef = min(ef*2, len(h.nodes))
	}
}

func (h *HNSW) searchOnce(query []float32, ef, k int, pred Predicate) []Match {
	curr := uint32(h.entryPoint)
	for l := h.maxLevel; l > 0; l-- {
		curr = h.nearestAtLevel(query, curr, l)
	}
	candidates := h.searchLevel(query, curr, ef, 0)

	matches := make([]Match, 0, min(len(candidates), k))
	for _, idx := range candidates {
		if _, gone := h.dead[idx]; gone {
			continue
		}
		rec := h.nodes[idx].rec
		if pred != nil && !pred(rec.Metadata) {
			continue
		}
		matches = append(matches, Match{ID: rec.ID, Score: h.metric.Score(query, rec.Values)})
	}

	sortMatches(matches)
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Compact rebuilds the graph from live records only, dropping routing
// garbage left by removals and replacements.
func (h *HNSW) Compact() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.dead) == 0 {
		return
	}

	live := make([]storage.Record, 0, len(h.byID))
	for _, idx := range h.byID {
		live = append(live, h.nodes[idx].rec)
	}
	sort.Slice(live, func(i, j int) bool { return live[i].ID < live[j].ID })

	fresh := NewHNSW(h.metric, h.cfg)
	for _, rec := range live {
		fresh.addNode(rec)
	}

	h.nodes = fresh.nodes
	h.byID = fresh.byID
	h.dead = fresh.dead
	h.entryPoint = fresh.entryPoint
	h.maxLevel = fresh.maxLevel
}

// GarbageRatio reports the fraction of graph nodes that are dead.
func (h *HNSW) GarbageRatio() float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.nodes) == 0 {
		return 0
	}
	return float64(len(h.dead)) / float64(len(h.nodes))
}

type distItem struct {
	idx  uint32
	dist float32
}

// distHeap is a binary heap over distances. With worst set it orders
// farthest-first, which is what a bounded result set needs.
type distHeap struct {
	items []distItem
	worst bool
}

func (h *distHeap) before(a, b float32) bool {
	if h.worst {
		return a > b
	}
	return a < b
}

func (h *distHeap) len() int { return len(h.items) }

func (h *distHeap) peek() distItem { return h.items[0] }

func (h *distHeap) push(item distItem) {
	h.items = append(h.items, item)
	i := len(h.items) - 1
	for i > 0 {
		parent := (i - 1) / 2
		if !h.before(h.items[i].dist, h.items[parent].dist) {
			break
		}
		h.items[i], h.items[parent] = h.items[parent], h.items[i]
		i = parent
	}
}

func (h *distHeap) pop() distItem {
	item := h.items[0]
	h.items[0] = h.items[len(h.items)-1]
	h.items = h.items[:len(h.items)-1]

	i := 0
	for {
		left := 2*i + 1
		right := 2*i + 2
		first := i

		if left < len(h.items) && h.before(h.items[left].dist, h.items[first].dist) {
			first = left
		}
		if right < len(h.items) && h.before(h.items[right].dist, h.items[first].dist) {
			first = right
		}
		if first == i {
			break
		}
		h.items[i], h.items[first] = h.items[first], h.items[i]
		i = first
	}
	return item
}
