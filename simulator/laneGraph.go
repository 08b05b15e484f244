package simulator

import (
	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/element"
	"github.com/JakovKordic/urban-traffic-simulator-cellular-automata/utils"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
	"gonum.org/v1/gonum/graph/traverse"
)

// CreateLaneGraph 根据路网创建车道连通图
//
// 参数:
//   - mask: 路网
//   - withExit: 是否加入表示驶出边界的虚拟节点
//
// 返回:
//   - *simple.DirectedGraph: 车道有向图，边表示一个时间步内可能的移动
//   - map[int64]graph.Node: 所有车道节点的映射
//
// 路口单元格向其允许的每个方向连边，普通单元格只延续原方向；
// 目标单元格不支持该方向时车辆原地停留，不连边。
func CreateLaneGraph(mask *element.RoadMask, withExit bool) (*simple.DirectedGraph, map[int64]graph.Node) {
	g := simple.NewDirectedGraph()

	lanes := element.Lanes(mask)
	nodes := make(map[int64]graph.Node, len(lanes))
	for _, lane := range lanes {
		g.AddNode(lane)
		nodes[lane.ID()] = lane
	}

	var exit graph.Node
	if withExit {
		exit = simple.Node(element.ExitNodeID(mask))
		g.AddNode(exit)
	}

	for _, lane := range lanes {
		dy, dx := lane.Dir.Delta()
		ny, nx := lane.Y+dy, lane.X+dx

		if !mask.InBounds(ny, nx) {
			if withExit {
				g.SetEdge(simple.Edge{F: lane, T: exit})
			}
			continue
		}
		if !mask.Allows(ny, nx, lane.Dir) {
			continue
		}

		if mask.IsIntersection(ny, nx) {
			for _, out := range mask.At(ny, nx).Dirs() {
				to := nodes[element.NewLane(mask, out, ny, nx).ID()]
				g.SetEdge(simple.Edge{F: lane, T: to})
			}
			continue
		}
		to := nodes[element.NewLane(mask, lane.Dir, ny, nx).ID()]
		g.SetEdge(simple.Edge{F: lane, T: to})
	}

	return g, nodes
}

// TopologyReport 路网拓扑分析结果
type TopologyReport struct {
	Lanes             int
	Intersections     int
	Components        int  // 车道强连通分量数量
	LargestComponent  int  // 最大强连通分量的车道数
	StronglyConnected bool // 所有车道互相可达
	DrainingLanes     int  // 能够驶出边界的车道数
	TrappedLanes      int  // 永远无法驶出边界的车道数
}

// AnalyzeTopology 分析路网的车道连通性
func AnalyzeTopology(mask *element.RoadMask) TopologyReport {
	report := TopologyReport{
		Lanes:         mask.NumLanes(),
		Intersections: mask.NumIntersections(),
	}
	if report.Lanes == 0 {
		return report
	}

	laneGraph, _ := CreateLaneGraph(mask, false)
	components := topo.TarjanSCC(laneGraph)
	report.Components = len(components)
	for _, c := range components {
		if len(c) > report.LargestComponent {
			report.LargestComponent = len(c)
		}
	}
	report.StronglyConnected = utils.IsStronglyConnected(laneGraph)

	// 在反向图上从虚拟出口节点做广度优先搜索，得到能驶出边界的车道
	g, _ := CreateLaneGraph(mask, true)
	reversed := reverseGraph(g)
	exitID := element.ExitNodeID(mask)
	bfs := traverse.BreadthFirst{
		Visit: func(n graph.Node) {
			if n.ID() != exitID {
				report.DrainingLanes++
			}
		},
	}
	bfs.Walk(reversed, reversed.Node(exitID), nil)
	report.TrappedLanes = report.Lanes - report.DrainingLanes

	return report
}

// reverseGraph 返回所有边反向后的图
func reverseGraph(g *simple.DirectedGraph) *simple.DirectedGraph {
	r := simple.NewDirectedGraph()
	nodes := g.Nodes()
	for nodes.Next() {
		r.AddNode(nodes.Node())
	}
	edges := g.Edges()
	for edges.Next() {
		e := edges.Edge()
		r.SetEdge(simple.Edge{F: r.Node(e.To().ID()), T: r.Node(e.From().ID())})
	}
	return r
}
