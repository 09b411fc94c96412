package maze

import "container/heap"

type node struct {
	cell  Cell
	f, g  int
	seq   int
	index int
}

type openSet []*node

func (s openSet) Len() int { return len(s) }
func (s openSet) Less(i, j int) bool {
	if s[i].f != s[j].f {
		return s[i].f < s[j].f
	}
	return s[i].seq < s[j].seq
}
func (s openSet) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
	s[i].index = i
	s[j].index = j
}
func (s *openSet) Push(x any) {
	n := x.(*node)
	n.index = len(*s)
	*s = append(*s, n)
}
func (s *openSet) Pop() any {
	old := *s
	n := old[len(old)-1]
	*s = old[:len(old)-1]
	return n
}

func manhattan(a, b Cell) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

// FindPath A* по четырем направлениям в пределах b.
// Возвращает точки пути без стартовой; пустой срез если пути нет
// или начало/цель вне поля или в стене.
func (g *Grid) FindPath(from, to Cell, b Bounds) []Cell {
	if !g.Valid(from, b) || !g.Valid(to, b) {
		return nil
	}
	if from == to {
		return nil
	}

	key := func(c Cell) int { return c.Y*g.size + c.X }
	best := map[int]*node{}
	cameFrom := map[int]Cell{}
	closed := map[int]bool{}

	seq := 0
	start := &node{cell: from, g: 0, f: manhattan(from, to)}
	best[key(from)] = start
	open := &openSet{start}

	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		ck := key(cur.cell)
		if closed[ck] {
			continue
		}
		if cur.cell == to {
			return reconstruct(cameFrom, to, key)
		}
		closed[ck] = true

		for _, s := range steps {
			next := Cell{cur.cell.X + s[0], cur.cell.Y + s[1]}
			if !g.Valid(next, b) {
				continue
			}
			nk := key(next)
			if closed[nk] {
				continue
			}
			tentative := cur.g + 1
			if n, ok := best[nk]; ok && tentative >= n.g {
				continue
			}
			seq++
			n := &node{cell: next, g: tentative, f: tentative + manhattan(next, to), seq: seq}
			best[nk] = n
			cameFrom[nk] = cur.cell
			heap.Push(open, n)
		}
	}
	return nil
}

func reconstruct(cameFrom map[int]Cell, to Cell, key func(Cell) int) []Cell {
	var path []Cell
	for c := to; ; {
		prev, ok := cameFrom[key(c)]
		if !ok {
			break
		}
		path = append(path, c)
		c = prev
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
