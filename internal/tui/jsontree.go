package tui

import (
	"fmt"
	"strings"

	"github.com/valyala/fastjson"

	"github.com/mailbot-io/mailbot/internal/execlog"
)

type nodeKind int

const (
	nodeScalar nodeKind = iota
	nodeString
	nodeNull
	nodeObject
	nodeArray
)

// treeNode is one key of a collapsible JSON tree.
type treeNode struct {
	key      string
	kind     nodeKind
	value    string // scalars only
	children []*treeNode
	expanded bool
	depth    int
}

func (n *treeNode) container() bool {
	return n.kind == nodeObject || n.kind == nodeArray
}

// treeLine is one visible line of a tree.
type treeLine struct {
	node *treeNode
}

// buildTree turns entry fields into top-level nodes. Key order follows
// the fields; nested objects keep their wire order too.
func buildTree(fields []execlog.Field) []*treeNode {
	var p fastjson.Parser
	nodes := make([]*treeNode, 0, len(fields))
	for _, f := range fields {
		v, err := p.Parse(f.Raw)
		if err != nil {
			nodes = append(nodes, &treeNode{key: f.Key, kind: nodeScalar, value: f.Raw})
			continue
		}
		n := toNode(f.Key, v, 0)
		n.expanded = true
		nodes = append(nodes, n)
	}
	return nodes
}

func toNode(key string, v *fastjson.Value, depth int) *treeNode {
	n := &treeNode{key: key, depth: depth}
	switch v.Type() {
	case fastjson.TypeObject:
		n.kind = nodeObject
		o, _ := v.Object()
		o.Visit(func(k []byte, child *fastjson.Value) {
			n.children = append(n.children, toNode(string(k), child, depth+1))
		})
	case fastjson.TypeArray:
		n.kind = nodeArray
		items, _ := v.Array()
		for i, child := range items {
			n.children = append(n.children, toNode(fmt.Sprintf("[%d]", i), child, depth+1))
		}
	case fastjson.TypeString:
		n.kind = nodeString
		n.value = string(v.GetStringBytes())
	case fastjson.TypeNull:
		n.kind = nodeNull
		n.value = "null"
	default:
		n.kind = nodeScalar
		n.value = v.String()
	}
	return n
}

// visibleLines flattens the expanded part of the tree.
func visibleLines(nodes []*treeNode) []treeLine {
	var out []treeLine
	var walk func([]*treeNode)
	walk = func(ns []*treeNode) {
		for _, n := range ns {
			out = append(out, treeLine{node: n})
			if n.container() && n.expanded {
				walk(n.children)
			}
		}
	}
	walk(nodes)
	return out
}

func setExpanded(nodes []*treeNode, expanded bool) {
	for _, n := range nodes {
		if n.container() {
			n.expanded = expanded
			setExpanded(n.children, expanded)
		}
	}
}

func renderTreeLine(l treeLine) string {
	n := l.node
	indent := strings.Repeat("  ", n.depth)

	marker := "  "
	if n.container() {
		if n.expanded {
			marker = treeMarkerStyle.Render("▾ ")
		} else {
			marker = treeMarkerStyle.Render("▸ ")
		}
	}

	key := treeKeyStyle.Render(n.key) + ": "
	var val string
	switch n.kind {
	case nodeObject:
		val = treeMarkerStyle.Render(fmt.Sprintf("{%d}", len(n.children)))
	case nodeArray:
		val = treeMarkerStyle.Render(fmt.Sprintf("[%d]", len(n.children)))
	case nodeString:
		val = treeStringStyle.Render(fmt.Sprintf("%q", n.value))
	case nodeNull:
		val = treeNullStyle.Render(n.value)
	default:
		val = treeScalarStyle.Render(n.value)
	}
	if n.container() && n.expanded {
		val = ""
	}
	return indent + marker + key + val
}
