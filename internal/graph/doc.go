// Package graph models the conversation decision graph: typed decision and
// option nodes connected by option and follows edges. The graph is
// append-only and tracks succession with an explicit last-decision pointer,
// so node enumeration order never influences linking. The Builder turns a
// chunk's structured analysis into graph mutations.
package graph
