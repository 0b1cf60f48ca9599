package report

import (
	"sort"

	"lprof/internal/tracelog"
)

// Key identifies a function across calls.
type Key struct {
	Source      string `json:"file_defined"`
	Function    string `json:"function_name"`
	LineDefined int    `json:"line_defined"`
}

// FunctionStat aggregates every call of one function.
type FunctionStat struct {
	Key
	Calls      int     `json:"calls"`
	LocalTime  float64 `json:"local_time"`
	TotalTime  float64 `json:"total_time"`
	AvgLocal   float64 `json:"avg_local_time"`
	LocalShare float64 `json:"local_percent"`
}

func keyOf(rec tracelog.Record) Key {
	return Key{Source: rec.Source, Function: rec.Function, LineDefined: rec.LineDefined}
}

// Summarize aggregates the calls of one or more trees per function, sorted
// by local time, highest first. Total time is counted once per outermost
// activation so recursive calls don't count their time twice.
func Summarize(trees ...*Tree) []FunctionStat {
	stats := make(map[Key]*FunctionStat)
	active := make(map[Key]int)
	var sessionLocal float64

	var visit func(n *Node)
	visit = func(n *Node) {
		k := keyOf(n.Record)
		st, ok := stats[k]
		if !ok {
			st = &FunctionStat{Key: k}
			stats[k] = st
		}
		st.Calls++
		st.LocalTime += n.LocalTime
		sessionLocal += n.LocalTime
		if active[k] == 0 {
			st.TotalTime += n.TotalTime
		}
		active[k]++
		for _, c := range n.Children {
			visit(c)
		}
		active[k]--
	}
	for _, t := range trees {
		if t == nil {
			continue
		}
		for _, r := range t.Roots {
			visit(r)
		}
	}

	out := make([]FunctionStat, 0, len(stats))
	for _, st := range stats {
		st.AvgLocal = st.LocalTime / float64(st.Calls)
		if sessionLocal > 0 {
			st.LocalShare = st.LocalTime / sessionLocal * 100
		}
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LocalTime != out[j].LocalTime {
			return out[i].LocalTime > out[j].LocalTime
		}
		if out[i].Function != out[j].Function {
			return out[i].Function < out[j].Function
		}
		if out[i].Source != out[j].Source {
			return out[i].Source < out[j].Source
		}
		return out[i].LineDefined < out[j].LineDefined
	})
	return out
}

// Hotspots returns the n functions with the most local time.
func Hotspots(stats []FunctionStat, n int) []FunctionStat {
	if n <= 0 || n >= len(stats) {
		return stats
	}
	return stats[:n]
}
