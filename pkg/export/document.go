package export

import (
	"encoding/json"
	"io"

	"github.com/panbanda/mondrian/pkg/digraph"
	toon "github.com/toon-format/toon-go"
)

// Node is a vertex in a serialized graph.
type Node struct {
	ID   string `json:"id" toon:"id"`
	Kind string `json:"kind" toon:"kind"`
	Name string `json:"name" toon:"name"`
}

// Link is an edge in a serialized graph.
type Link struct {
	From     string           `json:"from" toon:"from"`
	To       string           `json:"to" toon:"to"`
	Relation string `json:"relation" toon:"relation"`
}

// Document is the serialized form of a graph.
type Document struct {
	Fingerprint string `json:"fingerprint" toon:"fingerprint"`
	Order       int    `json:"order" toon:"order"`
	Size        int    `json:"size" toon:"size"`
	Nodes       []Node `json:"nodes" toon:"nodes"`
	Links       []Link `json:"links" toon:"links"`
}

// NewDocument snapshots g in insertion order.
func NewDocument(g *digraph.Graph) Document {
	doc := Document{
		Fingerprint: digraph.Fingerprint(g),
		Order:       g.Order(),
		Size:        g.Size(),
		Nodes:       make([]Node, 0, g.Order()),
		Links:       make([]Link, 0, g.Size()),
	}
	for _, v := range g.Vertices() {
		doc.Nodes = append(doc.Nodes, Node{ID: NodeID(v), Kind: v.Kind.String(), Name: v.Name})
	}
	for _, e := range g.Edges() {
		doc.Links = append(doc.Links, Link{
			From:     NodeID(e.From),
			To:       NodeID(e.To),
			Relation: string(g.Classify(e)),
		})
	}
	return doc
}

// WriteJSON writes g as an indented JSON document.
func WriteJSON(w io.Writer, g *digraph.Graph) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(NewDocument(g))
}

// WriteTOON writes g as a TOON document.
func WriteTOON(w io.Writer, g *digraph.Graph) error {
	out, err := toon.Marshal(NewDocument(g), toon.WithIndent(2))
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return err
	}
	_, err = io.WriteString(w, "\n")
	return err
}
