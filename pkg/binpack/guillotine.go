package binpack

import "image"

type border uint8

const (
	borderLeft border = 1 << iota
	borderTop
	borderRight
	borderBottom

	borderAll = borderLeft | borderTop | borderRight | borderBottom
)

const noNode = -1

type guillotineNode struct {
	area        image.Rectangle
	left, right int
	id          int
	border      border
}

func (n *guillotineNode) isLeaf() bool {
	return n.left == noNode && n.right == noNode
}

// guillotine stores its regions in an arena; children are addressed by index.
type guillotine struct {
	nodes  []guillotineNode
	margin image.Point
	policy MarginPolicy
}

func newGuillotine(margin image.Point, policy MarginPolicy) *guillotine {
	return &guillotine{margin: margin, policy: policy}
}

func (g *guillotine) reset(size image.Point) {
	g.nodes = g.nodes[:0]
	g.nodes = append(g.nodes, guillotineNode{
		area:   image.Rectangle{Max: size},
		left:   noNode,
		right:  noNode,
		id:     noNode,
		border: borderAll,
	})
}

func (g *guillotine) insert(id int, size image.Point) (image.Rectangle, bool) {
	n := g.insertAt(0, id, size)
	if n == noNode {
		return image.Rectangle{}, false
	}
	node := g.nodes[n]
	return g.withoutMargin(node.area, node.border), true
}

func (g *guillotine) insertAt(i, id int, size image.Point) int {
	if !g.nodes[i].isLeaf() {
		left, right := g.nodes[i].left, g.nodes[i].right
		if n := g.insertAt(left, id, size); n != noNode {
			return n
		}
		return g.insertAt(right, id, size)
	}

	node := g.nodes[i]
	if node.id != noNode {
		return noNode
	}
	need := g.withMargin(size, node.border)
	have := node.area.Size()
	if !fits(have, need) {
		return noNode
	}
	if need == have {
		g.nodes[i].id = id
		return i
	}

	var first, second guillotineNode
	first.left, first.right, first.id = noNode, noNode, noNode
	second.left, second.right, second.id = noNode, noNode, noNode

	a := node.area
	if have.X-need.X > have.Y-need.Y {
		// Vertical cut: the first child is a full-height column.
		first.border = node.border & (borderLeft | borderTop | borderBottom)
		second.border = node.border & (borderRight | borderTop | borderBottom)
		w := g.withMargin(size, first.border).X
		if w > a.Dx() {
			return noNode
		}
		first.area = image.Rect(a.Min.X, a.Min.Y, a.Min.X+w, a.Max.Y)
		second.area = image.Rect(a.Min.X+w, a.Min.Y, a.Max.X, a.Max.Y)
	} else {
		// Horizontal cut: the first child is a full-width row.
		first.border = node.border & (borderLeft | borderTop | borderRight)
		second.border = node.border & (borderLeft | borderBottom | borderRight)
		h := g.withMargin(size, first.border).Y
		if h > a.Dy() {
			return noNode
		}
		first.area = image.Rect(a.Min.X, a.Min.Y, a.Max.X, a.Min.Y+h)
		second.area = image.Rect(a.Min.X, a.Min.Y+h, a.Max.X, a.Max.Y)
	}

	l := len(g.nodes)
	g.nodes = append(g.nodes, first, second)
	g.nodes[i].left, g.nodes[i].right = l, l+1

	if n := g.insertAt(l, id, size); n != noNode {
		return n
	}
	return g.insertAt(l+1, id, size)
}

func (g *guillotine) leadingMargin(b, edge border) bool {
	return (g.policy == MarginAll || g.policy == MarginOnlyBorder) && b&edge != 0
}

func (g *guillotine) trailingMargin(b, edge border) bool {
	switch g.policy {
	case MarginAll:
		return true
	case MarginOnlyBorder:
		return b&edge != 0
	case MarginNoBorder:
		return b&edge == 0
	}
	return false
}

func (g *guillotine) withMargin(size image.Point, b border) image.Point {
	if g.leadingMargin(b, borderLeft) {
		size.X += g.margin.X
	}
	if g.trailingMargin(b, borderRight) {
		size.X += g.margin.X
	}
	if g.leadingMargin(b, borderTop) {
		size.Y += g.margin.Y
	}
	if g.trailingMargin(b, borderBottom) {
		size.Y += g.margin.Y
	}
	return size
}

func (g *guillotine) withoutMargin(r image.Rectangle, b border) image.Rectangle {
	if g.leadingMargin(b, borderLeft) {
		r.Min.X += g.margin.X
	}
	if g.trailingMargin(b, borderRight) {
		r.Max.X -= g.margin.X
	}
	if g.leadingMargin(b, borderTop) {
		r.Min.Y += g.margin.Y
	}
	if g.trailingMargin(b, borderBottom) {
		r.Max.Y -= g.margin.Y
	}
	return r
}
