package dom

import (
	"encoding/json"
	"fmt"
)

// Snapshot is the wire form of a captured frame document, produced by the
// injected capture script. One snapshot covers one document; nested
// same-origin frames are captured separately by the caller and merged
// after extraction, so a snapshot node never carries a content document.
type Snapshot struct {
	URL    string        `json:"url"`
	Width  float64       `json:"width"`
	Height float64       `json:"height"`
	Root   *SnapshotNode `json:"root"`
}

// SnapshotNode is one captured node. Elements carry Tag; text nodes carry
// Text. Geometry is frame-local. Hits are the engine's elementFromPoint
// verdicts probed at rect centers during capture; Listener reports an
// engine-observed pointer handler the markup alone would not reveal.
type SnapshotNode struct {
	Tag   string            `json:"tag,omitempty"`
	Text  string            `json:"text,omitempty"`
	Attrs map[string]string `json:"attrs,omitempty"`

	Style Style `json:"style"`

	Rect        Rect   `json:"rect"`
	ClientRects []Rect `json:"clientRects,omitempty"`

	ScrollWidth  float64 `json:"scrollWidth,omitempty"`
	ScrollHeight float64 `json:"scrollHeight,omitempty"`
	ClientWidth  float64 `json:"clientWidth,omitempty"`
	ClientHeight float64 `json:"clientHeight,omitempty"`

	Hits        []SnapshotHit `json:"hits,omitempty"`
	Listener    bool          `json:"listener,omitempty"`
	CrossOrigin bool          `json:"crossOrigin,omitempty"`

	Shadow   []*SnapshotNode `json:"shadow,omitempty"`
	Children []*SnapshotNode `json:"children,omitempty"`
}

// SnapshotHit is one recorded hit-test verdict: whether elementFromPoint
// at (X, Y) resolved to the probed node or one of its descendants.
type SnapshotHit struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Self bool    `json:"self"`
}

// DecodeSnapshot parses capture JSON into a Document wired with the
// recorded hit outcomes and listener observations.
func DecodeSnapshot(data []byte) (*Document, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("dom: decode snapshot: %w", err)
	}
	return snap.Document()
}

// Document materialises the snapshot as a Document.
func (s *Snapshot) Document() (*Document, error) {
	if s.Root == nil {
		return nil, fmt.Errorf("dom: snapshot has no root")
	}
	doc := NewDocument(s.Width, s.Height)
	doc.URL = s.URL
	hits := NewRecordedHits()
	listeners := NewRecordedListeners()
	doc.Root.AppendChild(buildSnapshotNode(s.Root, hits, listeners))
	doc.Hits = hits
	doc.Listeners = listeners
	return doc, nil
}

func buildSnapshotNode(src *SnapshotNode, hits *RecordedHits, listeners *RecordedListeners) *Node {
	if src.Tag == "" {
		return NewText(src.Text)
	}
	n := NewElement(src.Tag)
	for k, v := range src.Attrs {
		n.SetAttr(k, v)
	}
	n.Style = src.Style
	n.BoundingRect = src.Rect
	n.ClientRects = src.ClientRects
	n.ScrollWidth = src.ScrollWidth
	n.ScrollHeight = src.ScrollHeight
	n.ClientWidth = src.ClientWidth
	n.ClientHeight = src.ClientHeight
	n.CrossOrigin = src.CrossOrigin

	for _, h := range src.Hits {
		hits.Record(n, Point{X: h.X, Y: h.Y}, h.Self)
	}
	if src.Listener {
		listeners.Record(n)
	}

	if len(src.Shadow) > 0 {
		shadow := n.AttachShadow()
		for _, c := range src.Shadow {
			shadow.AppendChild(buildSnapshotNode(c, hits, listeners))
		}
	}
	for _, c := range src.Children {
		n.AppendChild(buildSnapshotNode(c, hits, listeners))
	}
	return n
}
