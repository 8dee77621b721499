package model

// Kind tags reproduce the reference branch-coverage vocabulary exactly.
const (
	TagIf      = "if"
	TagUnless  = "unless"
	TagWhen    = "when"
	TagElse    = "else"
	TagThen    = "then"
	TagWhile   = "while"
	TagUntil   = "until"
	TagBody    = "body"
	TagCase    = "case"
	TagSafeNav = "&."
	TagAnd     = "&&"
	TagOr      = "||"
)

// Descriptor identifies one condition or branch site. Field order matches
// the reference report tuple (kindTag, locationId, startLine, startCol,
// endLine, endCol); LocationID is assigned in traversal order within one
// derivation pass.
type Descriptor struct {
	Tag        string `yaml:"tag" msgpack:"tag"`
	LocationID int    `yaml:"id" msgpack:"id"`
	StartLine  int    `yaml:"start_line" msgpack:"start_line"`
	StartCol   int    `yaml:"start_col" msgpack:"start_col"`
	EndLine    int    `yaml:"end_line" msgpack:"end_line"`
	EndCol     int    `yaml:"end_col" msgpack:"end_col"`
}

// DescriptorAt builds a descriptor for a range; the id comes from the
// pass-scoped location counter.
func DescriptorAt(tag string, id int, r SourceRange) Descriptor {
	return Descriptor{
		Tag:        tag,
		LocationID: id,
		StartLine:  r.Start.Line,
		StartCol:   r.Start.Col,
		EndLine:    r.End.Line,
		EndCol:     r.End.Col,
	}
}

// BranchCount is one entry of a record's insertion-ordered branch mapping.
type BranchCount struct {
	Descriptor Descriptor `yaml:"branch" msgpack:"branch"`
	Count      int64      `yaml:"count" msgpack:"count"`
}

// BranchRecord pairs a condition descriptor with its sub-branch counts, in
// the order the builder emitted them.
type BranchRecord struct {
	Condition Descriptor    `yaml:"condition" msgpack:"condition"`
	Branches  []BranchCount `yaml:"branches" msgpack:"branches"`

	// Node is the branching node the record was derived from. It is not
	// part of the reference shape; the demotion pass uses it to tie
	// records back to tree nodes.
	Node NodeID `yaml:"-" msgpack:"-"`
}

// MinBranchCount returns the smallest sub-branch count, or 0 for a record
// with no branches.
func (r BranchRecord) MinBranchCount() int64 {
	if len(r.Branches) == 0 {
		return 0
	}

	min := r.Branches[0].Count
	for _, b := range r.Branches[1:] {
		if b.Count < min {
			min = b.Count
		}
	}

	return min
}

// NodeRun reports the demoted run count of one branching node, keyed by the
// condition's location id.
type NodeRun struct {
	LocationID int   `yaml:"id" msgpack:"id"`
	Line       int   `yaml:"line" msgpack:"line"`
	Count      int64 `yaml:"count" msgpack:"count"`
}

// FileReport is the complete derivation output for one compiled unit. Both
// slices preserve traversal order so repeated passes over the same tree and
// counter snapshot serialize byte-identically.
type FileReport struct {
	File     Path           `yaml:"file" msgpack:"file"`
	Branches []BranchRecord `yaml:"branches" msgpack:"branches"`
	Runs     []NodeRun      `yaml:"runs" msgpack:"runs"`
}

// Covered is the engine's covered-count predicate.
func Covered(count int64) bool { return count > 0 }
