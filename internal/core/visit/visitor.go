// Package visit implements the region-tagged save format. A Visitor holds a
// tree of named regions, each carrying typed named fields. The same Visit
// method on a value both writes and reads it, depending on the visitor mode,
// so the two directions cannot drift apart.
package visit

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

var (
	ErrRegionNotFound = errors.New("region not found")
	ErrFieldNotFound  = errors.New("field not found")
	ErrTypeMismatch   = errors.New("field type mismatch")
	ErrDuplicate      = errors.New("duplicate name in region")
	ErrCorrupt        = errors.New("corrupt visitor data")
	ErrUnbalanced     = errors.New("unbalanced region enter/leave")
)

const (
	magic   = "RVIS"
	version = 1

	// maxDepth bounds recursion when decoding untrusted data.
	maxDepth = 64
)

// Visitable is implemented by every value that can be saved and restored.
type Visitable interface {
	Visit(name string, v *Visitor) error
}

type fieldType byte

const (
	typeU32 fieldType = iota + 1
	typeI32
	typeU64
	typeF32
	typeF64
	typeBool
	typeString
	typeBytes
)

func (t fieldType) String() string {
	switch t {
	case typeU32:
		return "u32"
	case typeI32:
		return "i32"
	case typeU64:
		return "u64"
	case typeF32:
		return "f32"
	case typeF64:
		return "f64"
	case typeBool:
		return "bool"
	case typeString:
		return "string"
	case typeBytes:
		return "bytes"
	}
	return fmt.Sprintf("type(%d)", byte(t))
}

type field struct {
	name string
	kind fieldType
	data []byte
}

// node keeps its children and fields in insertion order for encoding, and
// indexes both by name so lookups stay constant time in large regions.
type node struct {
	name     string
	parent   *node
	fields   []field
	children []*node

	childByName map[string]*node
	fieldByName map[string]int
}

func newNode(name string, parent *node) *node {
	return &node{
		name:        name,
		parent:      parent,
		childByName: make(map[string]*node),
		fieldByName: make(map[string]int),
	}
}

func (n *node) child(name string) *node { return n.childByName[name] }

func (n *node) field(name string) *field {
	i, ok := n.fieldByName[name]
	if !ok {
		return nil
	}
	return &n.fields[i]
}

// addChild and addField report false when the name is already taken.
func (n *node) addChild(c *node) bool {
	if _, ok := n.childByName[c.name]; ok {
		return false
	}
	n.childByName[c.name] = c
	n.children = append(n.children, c)
	return true
}

func (n *node) addField(f field) bool {
	if _, ok := n.fieldByName[f.name]; ok {
		return false
	}
	n.fieldByName[f.name] = len(n.fields)
	n.fields = append(n.fields, f)
	return true
}

// path renders the region chain for error messages.
func (n *node) path() string {
	if n.parent == nil {
		return n.name
	}
	return n.parent.path() + "/" + n.name
}

// Visitor walks a region tree in either write or read mode.
type Visitor struct {
	root    *node
	current *node
	reading bool
}

// NewWriter returns an empty visitor in write mode.
func NewWriter() *Visitor {
	root := newNode("__ROOT__", nil)
	return &Visitor{root: root, current: root}
}

// IsReading reports whether Visit calls restore values instead of saving them.
func (v *Visitor) IsReading() bool { return v.reading }

// EnterRegion descends into the named region, creating it in write mode.
func (v *Visitor) EnterRegion(name string) error {
	name = norm.NFC.String(name)
	if v.reading {
		c := v.current.child(name)
		if c == nil {
			return fmt.Errorf("%s/%s: %w", v.current.path(), name, ErrRegionNotFound)
		}
		v.current = c
		return nil
	}
	c := newNode(name, v.current)
	if !v.current.addChild(c) {
		return fmt.Errorf("%s/%s: %w", v.current.path(), name, ErrDuplicate)
	}
	v.current = c
	return nil
}

// LeaveRegion returns to the parent region.
func (v *Visitor) LeaveRegion() error {
	if v.current.parent == nil {
		return ErrUnbalanced
	}
	v.current = v.current.parent
	return nil
}

// HasRegion reports whether the current region has a child with that name.
func (v *Visitor) HasRegion(name string) bool {
	return v.current.child(norm.NFC.String(name)) != nil
}

func (v *Visitor) put(name string, kind fieldType, data []byte) error {
	if !v.current.addField(field{name: name, kind: kind, data: data}) {
		return fmt.Errorf("%s.%s: %w", v.current.path(), name, ErrDuplicate)
	}
	return nil
}

func (v *Visitor) get(name string, kind fieldType, size int) ([]byte, error) {
	f := v.current.field(name)
	if f == nil {
		return nil, fmt.Errorf("%s.%s: %w", v.current.path(), name, ErrFieldNotFound)
	}
	if f.kind != kind {
		return nil, fmt.Errorf("%s.%s: want %s, got %s: %w", v.current.path(), name, kind, f.kind, ErrTypeMismatch)
	}
	if size >= 0 && len(f.data) != size {
		return nil, fmt.Errorf("%s.%s: %w", v.current.path(), name, ErrCorrupt)
	}
	return f.data, nil
}

func (v *Visitor) VisitU32(name string, p *uint32) error {
	name = norm.NFC.String(name)
	if !v.reading {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], *p)
		return v.put(name, typeU32, b[:])
	}
	b, err := v.get(name, typeU32, 4)
	if err != nil {
		return err
	}
	*p = binary.LittleEndian.Uint32(b)
	return nil
}

func (v *Visitor) VisitI32(name string, p *int32) error {
	name = norm.NFC.String(name)
	if !v.reading {
		var b [4]byte
		binary.LittleEndian.PutUint32(b[:], uint32(*p))
		return v.put(name, typeI32, b[:])
	}
	b, err := v.get(name, typeI32, 4)
	if err != nil {
		return err
	}
	*p = int32(binary.LittleEndian.Uint32(b))
	return nil
}

func (v *Visitor) VisitU64(name string, p *uint64) error {
	name = norm.NFC.String(name)
	if !v.reading {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], *p)
		return v.put(name, typeU64, b[:])
	}
	b, err := v.get(name, typeU64, 8)
	if err != nil {
		return err
	}
	*p = binary.LittleEndian.Uint64(b)
	return nil
}

func (v *Visitor) VisitF32(name string, p *float32) error {
	name = norm.NFC.String(name)
	if !v.reading {
		return v.put(name, typeF32, putF32(*p))
	}
	b, err := v.get(name, typeF32, 4)
	if err != nil {
		return err
	}
	*p = getF32(b)
	return nil
}

func (v *Visitor) VisitF64(name string, p *float64) error {
	name = norm.NFC.String(name)
	if !v.reading {
		return v.put(name, typeF64, putF64(*p))
	}
	b, err := v.get(name, typeF64, 8)
	if err != nil {
		return err
	}
	*p = getF64(b)
	return nil
}

func (v *Visitor) VisitBool(name string, p *bool) error {
	name = norm.NFC.String(name)
	if !v.reading {
		var b byte
		if *p {
			b = 1
		}
		return v.put(name, typeBool, []byte{b})
	}
	b, err := v.get(name, typeBool, 1)
	if err != nil {
		return err
	}
	*p = b[0] != 0
	return nil
}

// VisitString stores strings in NFC form so that equal text always
// produces equal bytes.
func (v *Visitor) VisitString(name string, p *string) error {
	name = norm.NFC.String(name)
	if !v.reading {
		return v.put(name, typeString, []byte(norm.NFC.String(*p)))
	}
	b, err := v.get(name, typeString, -1)
	if err != nil {
		return err
	}
	*p = string(b)
	return nil
}

func (v *Visitor) VisitBytes(name string, p *[]byte) error {
	name = norm.NFC.String(name)
	if !v.reading {
		b := make([]byte, len(*p))
		copy(b, *p)
		return v.put(name, typeBytes, b)
	}
	b, err := v.get(name, typeBytes, -1)
	if err != nil {
		return err
	}
	*p = append((*p)[:0], b...)
	return nil
}

// Save encodes the whole tree. The visitor must be back at its root.
func (v *Visitor) Save() ([]byte, error) {
	if v.current != v.root {
		return nil, fmt.Errorf("save at %s: %w", v.current.path(), ErrUnbalanced)
	}
	w := newWriter()
	w.buf = append(w.buf, magic...)
	w.writeD(version)
	encodeNode(w, v.root)
	return w.bytes(), nil
}

func encodeNode(w *writer, n *node) {
	w.writeS(n.name)
	w.writeD(uint32(len(n.fields)))
	for _, f := range n.fields {
		w.writeS(f.name)
		w.writeC(byte(f.kind))
		w.writeB(f.data)
	}
	w.writeD(uint32(len(n.children)))
	for _, c := range n.children {
		encodeNode(w, c)
	}
}

// Load decodes data produced by Save and returns a visitor in read mode.
func Load(data []byte) (*Visitor, error) {
	if len(data) < len(magic)+4 || string(data[:len(magic)]) != magic {
		return nil, fmt.Errorf("bad header: %w", ErrCorrupt)
	}
	r := newReader(data[len(magic):])
	if ver := r.readD(); ver != version {
		return nil, fmt.Errorf("unsupported version %d: %w", ver, ErrCorrupt)
	}
	root, err := decodeNode(r, nil, 0)
	if err != nil {
		return nil, err
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%d trailing bytes: %w", r.remaining(), ErrCorrupt)
	}
	return &Visitor{root: root, current: root, reading: true}, nil
}

func decodeNode(r *reader, parent *node, depth int) (*node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("nesting deeper than %d: %w", maxDepth, ErrCorrupt)
	}
	n := newNode(r.readS(), parent)
	nf := int(r.readD())
	if !r.ok() || nf > r.remaining() {
		return nil, fmt.Errorf("region %q: %w", n.name, ErrCorrupt)
	}
	n.fields = make([]field, 0, nf)
	for i := 0; i < nf; i++ {
		f := field{name: r.readS(), kind: fieldType(r.readC())}
		f.data = r.readB()
		if !r.ok() {
			return nil, fmt.Errorf("region %q field %d: %w", n.name, i, ErrCorrupt)
		}
		if !n.addField(f) {
			return nil, fmt.Errorf("region %q field %q: %w", n.name, f.name, ErrDuplicate)
		}
	}
	nc := int(r.readD())
	if !r.ok() || nc > r.remaining() {
		return nil, fmt.Errorf("region %q: %w", n.name, ErrCorrupt)
	}
	n.children = make([]*node, 0, nc)
	for i := 0; i < nc; i++ {
		c, err := decodeNode(r, n, depth+1)
		if err != nil {
			return nil, err
		}
		if !n.addChild(c) {
			return nil, fmt.Errorf("region %q child %q: %w", n.name, c.name, ErrDuplicate)
		}
	}
	return n, nil
}
