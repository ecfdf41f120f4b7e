package huffpack

import (
	"container/heap"
	"fmt"
	"math"
)

// Longest code supported: the value of a code must fit in a uint64.
//
// A Huffman tree this deep requires weights growing at least like the
// Fibonacci sequence, that is, an input of well over 10¹³ bytes.
const MaxCodeLength = 64

// Node in a Huffman tree.
//
// Leaves have no children. Internal nodes have exactly two, and their
// weight is the sum of the weights of their children.
type Node struct {
	Symbol   byte     // Only meaningful for leaves
	Weight   uint64   // Cumulative count
	Children [2]*Node // Left (0) and right (1) subtree

	seq int // insertion order, breaks ties between equal weights
}

// Returns whether n is a leaf.
func (n *Node) Leaf() bool {
	return n.Children[0] == nil
}

// Sequence of bits (each 0 or 1) from the root of a tree to a leaf
type Path []byte

// Codeword: the bits of a Path read as an MSB-first unsigned integer.
type Code struct {
	Value  uint64 `json:"value"`
	Length uint8  `json:"bits"`
}

// Codebook for Huffman code
type Codebook map[byte]Code

// Priority queue to find nodes with lowest weight. Nodes of equal weight
// come out in the order they were pushed.
type nodeHeap []*Node

func (h nodeHeap) Len() int { return len(h) }
func (h nodeHeap) Less(i, j int) bool {
	if h[i].Weight != h[j].Weight {
		return h[i].Weight < h[j].Weight
	}
	return h[i].seq < h[j].seq
}

func (h nodeHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *nodeHeap) Push(x any) {
	node := x.(*Node)
	*h = append(*h, node)
}

func (h *nodeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}

// Builds a Huffman tree for the given symbols.
//
// Ties between nodes of equal weight are broken by insertion order: first
// the entries in the order given, then merged nodes in the order they were
// created. The first of the two nodes merged becomes the left child.
// A single entry yields a tree that consists of just one leaf.
func BuildTree(entries []FreqEntry) (*Node, error) {
	if len(entries) == 0 {
		return nil, ErrNoSymbols
	}

	var seen [256]bool
	h := make(nodeHeap, len(entries))

	for i, e := range entries {
		if seen[e.Symbol] {
			return nil, fmt.Errorf("%w: 0x%02x", ErrDuplicateSymbol, e.Symbol)
		}
		seen[e.Symbol] = true

		h[i] = &Node{
			Symbol: e.Symbol,
			Weight: e.Count,
			seq:    i,
		}
	}

	heap.Init(&h)
	seq := len(entries)

	// Build the tree: combine the two subtrees with the lowest weight
	// repetitively.
	for len(h) > 1 {
		n1 := heap.Pop(&h).(*Node)
		n2 := heap.Pop(&h).(*Node)

		if n1.Weight > math.MaxUint64-n2.Weight {
			return nil, ErrWeightOverflow
		}

		heap.Push(&h, &Node{
			Weight:   n1.Weight + n2.Weight,
			Children: [2]*Node{n1, n2},
			seq:      seq,
		})
		seq++
	}

	log.Debugf("built tree for %d symbols, weight %d", len(entries), h[0].Weight)

	return h[0], nil
}

// Returns the path from the root to each leaf.
//
// If the root is a leaf itself, its symbol gets the path 0: an empty code
// could not be told apart from no symbols at all.
func (n *Node) Paths() map[byte]Path {
	ret := make(map[byte]Path)

	if n.Leaf() {
		ret[n.Symbol] = Path{0}
		return ret
	}

	type nodePath struct {
		n    *Node
		path Path
	}

	stack := []nodePath{{n: n}}

	for len(stack) > 0 {
		np := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if np.n.Leaf() {
			ret[np.n.Symbol] = np.path
			continue
		}

		// Push right first so that the left subtree is visited first.
		for bit := 1; bit >= 0; bit-- {
			child := make(Path, len(np.path)+1)
			copy(child, np.path)
			child[len(np.path)] = byte(bit)
			stack = append(stack, nodePath{np.n.Children[bit], child})
		}
	}

	return ret
}

// Returns the path as codeword.
func (p Path) Code() (Code, error) {
	if len(p) > MaxCodeLength {
		return Code{}, fmt.Errorf("%w: %d bits", ErrCodeTooLong, len(p))
	}

	var value uint64
	for _, bit := range p {
		value = value<<1 | uint64(bit&1)
	}

	return Code{Value: value, Length: uint8(len(p))}, nil
}

// Converts the paths to codewords.
func Normalize(paths map[byte]Path) (Codebook, error) {
	ret := make(Codebook, len(paths))
	for s, p := range paths {
		code, err := p.Code()
		if err != nil {
			return nil, fmt.Errorf("symbol 0x%02x: %w", s, err)
		}
		ret[s] = code
	}
	return ret, nil
}

// Create a Huffman code for the given frequency table
func BuildCodebook(f *Frequencies) (Codebook, error) {
	entries := f.Entries()
	if len(entries) == 0 {
		return Codebook{}, nil
	}

	root, err := BuildTree(entries)
	if err != nil {
		return nil, err
	}

	return Normalize(root.Paths())
}

// Returns the length of the longest codeword.
func (c Codebook) MaxLength() int {
	ret := 0
	for _, entry := range c {
		ret = max(ret, int(entry.Length))
	}
	return ret
}

// Returns the bits of the codeword from the most significant onwards.
func (c Code) String() string {
	buf := make([]byte, c.Length)
	for i := range buf {
		buf[i] = '0' + byte(c.Value>>(int(c.Length)-1-i)&1)
	}
	return string(buf)
}
