package utils

import (
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/topo"
)

// IsStronglyConnected 检查有向图是否强连通
// 空图视为不连通
func IsStronglyConnected(g graph.Directed) bool {
	if g.Nodes().Len() == 0 {
		return false
	}
	return len(topo.TarjanSCC(g)) == 1
}
