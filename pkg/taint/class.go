package taint

// Class is the display category of a node.
type Class string

const (
	ClassSink   Class = "sink"   // nothing propagates into it
	ClassSource Class = "source" // propagates nowhere
	ClassReg    Class = "reg"
	ClassMem    Class = "mem"
	ClassOther  Class = "other"
)

// Class categorizes n. Sink is checked first, so an isolated node is a sink.
func (n *Node) Class() Class {
	switch {
	case n.NodeAttr == "":
		return ClassSink
	case !n.HasChildren():
		return ClassSource
	case n.Type == TypeReg:
		return ClassReg
	case n.Type == TypeMem:
		return ClassMem
	}
	return ClassOther
}

// Color returns the RGB fill color for a class.
func (c Class) Color() string {
	switch c {
	case ClassSink:
		return "#ff0000"
	case ClassSource:
		return "#00ff7f"
	case ClassReg:
		return "#ff88ff"
	}
	return "#ffffff"
}

// Label is the display text for n: "[c] " marks nodes reached by a c edge.
func (n *Node) Label() string {
	text := n.Name
	if text == "" {
		text = "[" + n.UUID + "]"
	}
	if n.Type != "" {
		text = n.Type + " " + text
	}
	if n.NodeAttr == EdgeC {
		text = "[c] " + text
	}
	return text
}
