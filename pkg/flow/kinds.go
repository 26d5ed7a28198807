package flow

// Kind classifies a diagram node. The set is closed: unknown kinds read from
// input are coerced to [KindProcess] at ingestion so the rest of the engine
// can rely on the table below.
type Kind string

const (
	KindStart    Kind = "start"
	KindEnd      Kind = "end"
	KindDecision Kind = "decision"
	KindScreen   Kind = "screen"
	KindProcess  Kind = "process"
	KindFrame    Kind = "frame"
	KindNote     Kind = "note"
)

// Kinds lists every node kind in a fixed order.
var Kinds = []Kind{KindStart, KindEnd, KindDecision, KindScreen, KindProcess, KindFrame, KindNote}

// kindStyle holds the per-kind layout defaults resolved once at ingestion.
type kindStyle struct {
	width, height float64
	// spacing scales the minimum spacing the collision solver keeps around
	// nodes of this kind. Decisions get extra clearance for their diamond
	// outline; notes pack tighter.
	spacing float64
}

var kindStyles = map[Kind]kindStyle{
	KindStart:    {width: 60, height: 60, spacing: 1.0},
	KindEnd:      {width: 60, height: 60, spacing: 1.0},
	KindDecision: {width: 120, height: 120, spacing: 1.25},
	KindScreen:   {width: 160, height: 100, spacing: 1.0},
	KindProcess:  {width: 160, height: 80, spacing: 1.0},
	KindFrame:    {width: 300, height: 200, spacing: 1.5},
	KindNote:     {width: 140, height: 60, spacing: 0.75},
}

// Valid reports whether k is one of the closed kind set.
func (k Kind) Valid() bool {
	_, ok := kindStyles[k]
	return ok
}

// Normalize maps unknown kinds to [KindProcess] and empty kinds to
// [KindProcess] as well, so every ingested node resolves in the style table.
func (k Kind) Normalize() Kind {
	if k.Valid() {
		return k
	}
	return KindProcess
}

// DefaultSize returns the default width and height for the kind.
func (k Kind) DefaultSize() (w, h float64) {
	s := kindStyles[k.Normalize()]
	return s.width, s.height
}

// SpacingFactor returns the multiplier applied to the configured minimum
// node spacing for this kind.
func (k Kind) SpacingFactor() float64 {
	return kindStyles[k.Normalize()].spacing
}

// IsTerminal reports whether the kind marks a flow entry or exit point.
// Terminal nodes anchor spine detection and get edge priority.
func (k Kind) IsTerminal() bool { return k == KindStart || k == KindEnd }
