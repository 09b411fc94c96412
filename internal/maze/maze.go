// Package maze генерирует лабиринты рекурсивным бэктрекингом и ищет пути
// внутри текущих (сжимающихся) границ поля.
package maze

import (
	"encoding/json"
	"math/rand/v2"
)

const (
	open = 0
	wall = 1
)

type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Bounds включительный квадрат игрового поля
type Bounds struct {
	Lo, Hi int
}

// BoundsAt границы поля размера size на уровне сжатия level
func BoundsAt(size, level int) Bounds {
	return Bounds{Lo: level, Hi: size - 1 - level}
}

func (b Bounds) Contains(x, y int) bool {
	return x >= b.Lo && x <= b.Hi && y >= b.Lo && y <= b.Hi
}

// ContainsPoint проверка для непрерывных координат
func (b Bounds) ContainsPoint(x, y float64) bool {
	lo, hi := float64(b.Lo), float64(b.Hi)
	return x >= lo && x <= hi && y >= lo && y <= hi
}

// Grid квадратная сетка; cells[y][x]
type Grid struct {
	size  int
	cells [][]uint8
}

func newGrid(size int) *Grid {
	cells := make([][]uint8, size)
	for y := range cells {
		row := make([]uint8, size)
		for x := range row {
			row[x] = wall
		}
		cells[y] = row
	}
	return &Grid{size: size, cells: cells}
}

// Generate строит лабиринт нечетного размера и принудительно открывает
// углы появления игроков и центральный крест
func Generate(size int, rng *rand.Rand) *Grid {
	g := newGrid(size)
	g.carve(1, 1, rng)

	g.set(1, 1, open)
	g.set(2, 1, open)
	g.set(1, 2, open)
	g.set(size-2, size-2, open)
	g.set(size-3, size-2, open)
	g.set(size-2, size-3, open)

	mid := size / 2
	g.set(mid, mid, open)
	g.set(mid, mid-1, open)
	g.set(mid, mid+1, open)
	g.set(mid-1, mid, open)
	g.set(mid+1, mid, open)
	return g
}

func (g *Grid) carve(x, y int, rng *rand.Rand) {
	g.cells[y][x] = open
	dirs := [4][2]int{{0, -2}, {0, 2}, {-2, 0}, {2, 0}}
	for i := len(dirs) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	for _, d := range dirs {
		nx, ny := x+d[0], y+d[1]
		if nx > 0 && nx < g.size-1 && ny > 0 && ny < g.size-1 && g.cells[ny][nx] == wall {
			g.cells[y+d[1]/2][x+d[0]/2] = open
			g.carve(nx, ny, rng)
		}
	}
}

// FromRows собирает сетку из строк (1 стена, 0 проход); для тестов
func FromRows(rows [][]int) *Grid {
	g := newGrid(len(rows))
	for y, row := range rows {
		for x := 0; x < g.size && x < len(row); x++ {
			g.cells[y][x] = uint8(row[x])
		}
	}
	return g
}

func (g *Grid) Size() int { return g.size }

func (g *Grid) inside(x, y int) bool {
	return x >= 0 && x < g.size && y >= 0 && y < g.size
}

// Open true для прохода; за пределами сетки всегда стена
func (g *Grid) Open(x, y int) bool {
	return g.inside(x, y) && g.cells[y][x] == open
}

func (g *Grid) Wall(x, y int) bool { return !g.Open(x, y) }

func (g *Grid) set(x, y int, v uint8) {
	if g.inside(x, y) {
		g.cells[y][x] = v
	}
}

// Carve превращает стену в проход
func (g *Grid) Carve(x, y int) { g.set(x, y, open) }

// Shrink заделывает стенами все клетки вне b
func (g *Grid) Shrink(b Bounds) {
	for y := 0; y < g.size; y++ {
		for x := 0; x < g.size; x++ {
			if !b.Contains(x, y) {
				g.cells[y][x] = wall
			}
		}
	}
}

// OpenCells все проходы внутри b, построчно
func (g *Grid) OpenCells(b Bounds) []Cell {
	var cells []Cell
	for y := b.Lo; y <= b.Hi; y++ {
		for x := b.Lo; x <= b.Hi; x++ {
			if g.Open(x, y) {
				cells = append(cells, Cell{x, y})
			}
		}
	}
	return cells
}

// Valid проход внутри границ
func (g *Grid) Valid(c Cell, b Bounds) bool {
	return b.Contains(c.X, c.Y) && g.Open(c.X, c.Y)
}

var steps = [4][2]int{{0, -1}, {0, 1}, {-1, 0}, {1, 0}}

// NearestOpen ищет BFS ближайший проход внутри b.
// Результат никогда не стена: если поле замуровано целиком,
// центр открывается принудительно.
func (g *Grid) NearestOpen(from Cell, b Bounds) Cell {
	if g.inside(from.X, from.Y) {
		visited := make([]bool, g.size*g.size)
		queue := []Cell{from}
		visited[from.Y*g.size+from.X] = true
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			if g.Valid(cur, b) {
				return cur
			}
			for _, s := range steps {
				nx, ny := cur.X+s[0], cur.Y+s[1]
				if !g.inside(nx, ny) || visited[ny*g.size+nx] {
					continue
				}
				visited[ny*g.size+nx] = true
				queue = append(queue, Cell{nx, ny})
			}
		}
	}

	if cells := g.OpenCells(b); len(cells) > 0 {
		return cells[0]
	}
	mid := g.size / 2
	g.set(mid, mid, open)
	return Cell{mid, mid}
}

// MarshalJSON отдает сетку как массив строк из 0 и 1
func (g *Grid) MarshalJSON() ([]byte, error) {
	// []uint8 кодируется как base64, поэтому через []int
	rows := make([][]int, g.size)
	for y, row := range g.cells {
		rows[y] = make([]int, len(row))
		for x, v := range row {
			rows[y][x] = int(v)
		}
	}
	return json.Marshal(rows)
}
