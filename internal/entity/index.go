package entity

// Keyed is implemented by every stored entity.
type Keyed interface {
	Key() string
}

// Index maps an entity id to its slot in the owning slice.
type Index map[string]int

func NewIndex[T Keyed](items []T) Index {
	idx := make(Index, len(items))
	for i, it := range items {
		idx[it.Key()] = i
	}
	return idx
}

func (idx Index) Lookup(id string) (int, bool) {
	i, ok := idx[id]
	return i, ok
}

// Adjacency groups edge slots by endpoint.
type Adjacency struct {
	Out map[string][]int
	In  map[string][]int
}

func NewAdjacency(edges []Edge) Adjacency {
	adj := Adjacency{
		Out: make(map[string][]int),
		In:  make(map[string][]int),
	}
	for i, e := range edges {
		adj.Out[e.Source] = append(adj.Out[e.Source], i)
		adj.In[e.Target] = append(adj.In[e.Target], i)
	}
	return adj
}
