// Package formats decodes mesh file formats used by the viewer.
package formats

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// PLY format errors.
var (
	ErrInvalidPLYMagic      = errors.New("invalid PLY magic: expected 'ply'")
	ErrUnsupportedPLYFormat = errors.New("unsupported PLY format")
	ErrMalformedPLYHeader   = errors.New("malformed PLY header")
	ErrTruncatedPLYData     = errors.New("truncated PLY data")
	ErrInvalidPLYIndex      = errors.New("PLY face references missing vertex")
)

// PLYFormat is the body encoding declared in the header.
type PLYFormat int

// Supported body encodings.
const (
	PLYASCII PLYFormat = iota
	PLYBinaryLittleEndian
	PLYBinaryBigEndian
)

// String returns the header spelling of the format.
func (f PLYFormat) String() string {
	switch f {
	case PLYASCII:
		return "ascii"
	case PLYBinaryLittleEndian:
		return "binary_little_endian"
	case PLYBinaryBigEndian:
		return "binary_big_endian"
	default:
		return fmt.Sprintf("Unknown(%d)", int(f))
	}
}

// plyScalar is a PLY scalar type.
type plyScalar int

const (
	plyInt8 plyScalar = iota + 1
	plyUint8
	plyInt16
	plyUint16
	plyInt32
	plyUint32
	plyFloat32
	plyFloat64
)

func parsePLYScalar(name string) (plyScalar, bool) {
	switch name {
	case "char", "int8":
		return plyInt8, true
	case "uchar", "uint8":
		return plyUint8, true
	case "short", "int16":
		return plyInt16, true
	case "ushort", "uint16":
		return plyUint16, true
	case "int", "int32":
		return plyInt32, true
	case "uint", "uint32":
		return plyUint32, true
	case "float", "float32":
		return plyFloat32, true
	case "double", "float64":
		return plyFloat64, true
	}
	return 0, false
}

func (t plyScalar) size() int {
	switch t {
	case plyInt8, plyUint8:
		return 1
	case plyInt16, plyUint16:
		return 2
	case plyInt32, plyUint32, plyFloat32:
		return 4
	case plyFloat64:
		return 8
	}
	return 0
}

func (t plyScalar) isFloat() bool {
	return t == plyFloat32 || t == plyFloat64
}

// PLYProperty describes one property of an element.
type PLYProperty struct {
	Name      string
	Type      string // Scalar type, or item type for lists
	IsList    bool
	CountType string // List length type (lists only)

	scalar plyScalar
	count  plyScalar
}

// PLYElement describes one element block declared in the header.
type PLYElement struct {
	Name       string
	Count      int
	Properties []PLYProperty
}

// PLYVertex is a decoded vertex. Normal and Color are zero unless the file
// declares them (see PLY.HasNormals and PLY.HasColors).
type PLYVertex struct {
	Position [3]float32
	Normal   [3]float32
	Color    [4]uint8
}

// PLY represents a parsed polygon file. Faces are triangulated.
type PLY struct {
	Format     PLYFormat
	Version    string
	Comments   []string
	Elements   []PLYElement
	Vertices   []PLYVertex
	Faces      [][3]uint32
	HasNormals bool
	HasColors  bool
}

// ParsePLY parses a PLY file from raw bytes.
func ParsePLY(data []byte) (*PLY, error) {
	ply, body, err := parsePLYHeader(data)
	if err != nil {
		return nil, err
	}

	var r plyValueReader
	switch ply.Format {
	case PLYASCII:
		r = newPLYASCIIReader(body)
	case PLYBinaryLittleEndian:
		r = &plyBinaryReader{data: body, order: binary.LittleEndian}
	case PLYBinaryBigEndian:
		r = &plyBinaryReader{data: body, order: binary.BigEndian}
	}

	for i := range ply.Elements {
		el := &ply.Elements[i]
		var err error
		switch el.Name {
		case "vertex":
			err = ply.readVertices(r, el)
		case "face":
			err = ply.readFaces(r, el)
		default:
			err = skipPLYElement(r, el)
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s element: %w", el.Name, err)
		}
	}

	vertexCount := uint32(len(ply.Vertices))
	for i, f := range ply.Faces {
		if f[0] >= vertexCount || f[1] >= vertexCount || f[2] >= vertexCount {
			return nil, fmt.Errorf("%w: face %d", ErrInvalidPLYIndex, i)
		}
	}

	return ply, nil
}

// ParsePLYFile parses a PLY file from disk.
func ParsePLYFile(path string) (*PLY, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading PLY file: %w", err)
	}
	return ParsePLY(data)
}

// Bounds returns the axis-aligned bounds of all vertex positions.
func (p *PLY) Bounds() (min, max [3]float32) {
	if len(p.Vertices) == 0 {
		return min, max
	}
	min = p.Vertices[0].Position
	max = p.Vertices[0].Position
	for _, v := range p.Vertices[1:] {
		for k := 0; k < 3; k++ {
			if v.Position[k] < min[k] {
				min[k] = v.Position[k]
			}
			if v.Position[k] > max[k] {
				max[k] = v.Position[k]
			}
		}
	}
	return min, max
}

// Element returns the named element declaration, or nil.
func (p *PLY) Element(name string) *PLYElement {
	for i := range p.Elements {
		if p.Elements[i].Name == name {
			return &p.Elements[i]
		}
	}
	return nil
}

// parsePLYHeader parses the text header and returns the body that follows end_header.
func parsePLYHeader(data []byte) (*PLY, []byte, error) {
	if len(data) < 3 || string(data[:3]) != "ply" {
		return nil, nil, ErrInvalidPLYMagic
	}

	ply := &PLY{}
	hasFormat := false
	off := 0
	for lineNo := 0; ; lineNo++ {
		nl := bytes.IndexByte(data[off:], '\n')
		if nl < 0 {
			return nil, nil, fmt.Errorf("%w: missing end_header", ErrTruncatedPLYData)
		}
		line := strings.TrimRight(string(data[off:off+nl]), "\r")
		off += nl + 1

		fields := strings.Fields(line)
		if lineNo == 0 {
			if len(fields) != 1 || fields[0] != "ply" {
				return nil, nil, ErrInvalidPLYMagic
			}
			continue
		}
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "format":
			if len(fields) != 3 {
				return nil, nil, fmt.Errorf("%w: line %d: %q", ErrMalformedPLYHeader, lineNo+1, line)
			}
			switch fields[1] {
			case "ascii":
				ply.Format = PLYASCII
			case "binary_little_endian":
				ply.Format = PLYBinaryLittleEndian
			case "binary_big_endian":
				ply.Format = PLYBinaryBigEndian
			default:
				return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedPLYFormat, fields[1])
			}
			if fields[2] != "1.0" {
				return nil, nil, fmt.Errorf("%w: version %s", ErrUnsupportedPLYFormat, fields[2])
			}
			ply.Version = fields[2]
			hasFormat = true

		case "comment":
			ply.Comments = append(ply.Comments, strings.TrimSpace(strings.TrimPrefix(line, "comment")))

		case "obj_info":
			// ignored

		case "element":
			if len(fields) != 3 {
				return nil, nil, fmt.Errorf("%w: line %d: %q", ErrMalformedPLYHeader, lineNo+1, line)
			}
			count, err := strconv.Atoi(fields[2])
			if err != nil || count < 0 {
				return nil, nil, fmt.Errorf("%w: bad element count %q", ErrMalformedPLYHeader, fields[2])
			}
			ply.Elements = append(ply.Elements, PLYElement{Name: fields[1], Count: count})

		case "property":
			if len(ply.Elements) == 0 {
				return nil, nil, fmt.Errorf("%w: property before element", ErrMalformedPLYHeader)
			}
			prop, err := parsePLYProperty(fields)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: line %d: %v", ErrMalformedPLYHeader, lineNo+1, err)
			}
			el := &ply.Elements[len(ply.Elements)-1]
			el.Properties = append(el.Properties, prop)

		case "end_header":
			if !hasFormat {
				return nil, nil, fmt.Errorf("%w: missing format line", ErrMalformedPLYHeader)
			}
			if v := ply.Element("vertex"); v != nil {
				if !hasProperties(v, "x", "y", "z") {
					return nil, nil, fmt.Errorf("%w: vertex element lacks x/y/z", ErrMalformedPLYHeader)
				}
			}
			return ply, data[off:], nil

		default:
			return nil, nil, fmt.Errorf("%w: unknown keyword %q", ErrMalformedPLYHeader, fields[0])
		}
	}
}

func parsePLYProperty(fields []string) (PLYProperty, error) {
	if len(fields) >= 2 && fields[1] == "list" {
		if len(fields) != 5 {
			return PLYProperty{}, fmt.Errorf("list property needs count type, item type and name")
		}
		count, ok := parsePLYScalar(fields[2])
		if !ok || count.isFloat() {
			return PLYProperty{}, fmt.Errorf("bad list count type %q", fields[2])
		}
		item, ok := parsePLYScalar(fields[3])
		if !ok {
			return PLYProperty{}, fmt.Errorf("bad list item type %q", fields[3])
		}
		return PLYProperty{
			Name:      fields[4],
			Type:      fields[3],
			IsList:    true,
			CountType: fields[2],
			scalar:    item,
			count:     count,
		}, nil
	}

	if len(fields) != 3 {
		return PLYProperty{}, fmt.Errorf("property needs type and name")
	}
	typ, ok := parsePLYScalar(fields[1])
	if !ok {
		return PLYProperty{}, fmt.Errorf("bad property type %q", fields[1])
	}
	return PLYProperty{Name: fields[2], Type: fields[1], scalar: typ}, nil
}

func hasProperties(el *PLYElement, names ...string) bool {
	for _, name := range names {
		found := false
		for _, p := range el.Properties {
			if p.Name == name && !p.IsList {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (p *PLY) readVertices(r plyValueReader, el *PLYElement) error {
	p.HasNormals = hasProperties(el, "nx", "ny", "nz")
	p.HasColors = hasProperties(el, "red", "green", "blue") ||
		hasProperties(el, "diffuse_red", "diffuse_green", "diffuse_blue")

	if err := checkPLYCount(r, el); err != nil {
		return err
	}
	p.Vertices = make([]PLYVertex, el.Count)
	for i := 0; i < el.Count; i++ {
		v := &p.Vertices[i]
		v.Color[3] = 255
		for _, prop := range el.Properties {
			if prop.IsList {
				if err := skipPLYList(r, prop); err != nil {
					return fmt.Errorf("vertex %d: %w", i, err)
				}
				continue
			}
			val, err := r.read(prop.scalar)
			if err != nil {
				return fmt.Errorf("vertex %d: %w", i, err)
			}
			switch prop.Name {
			case "x":
				v.Position[0] = float32(val)
			case "y":
				v.Position[1] = float32(val)
			case "z":
				v.Position[2] = float32(val)
			case "nx":
				v.Normal[0] = float32(val)
			case "ny":
				v.Normal[1] = float32(val)
			case "nz":
				v.Normal[2] = float32(val)
			case "red", "diffuse_red":
				v.Color[0] = plyColorByte(val, prop.scalar)
			case "green", "diffuse_green":
				v.Color[1] = plyColorByte(val, prop.scalar)
			case "blue", "diffuse_blue":
				v.Color[2] = plyColorByte(val, prop.scalar)
			case "alpha":
				v.Color[3] = plyColorByte(val, prop.scalar)
			}
		}
	}
	return nil
}

func (p *PLY) readFaces(r plyValueReader, el *PLYElement) error {
	if err := checkPLYCount(r, el); err != nil {
		return err
	}
	p.Faces = make([][3]uint32, 0, el.Count)
	var polygon []uint32
	for i := 0; i < el.Count; i++ {
		for _, prop := range el.Properties {
			isIndexList := prop.IsList && (prop.Name == "vertex_indices" || prop.Name == "vertex_index")
			if !isIndexList {
				if err := skipPLYProperty(r, prop); err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				continue
			}

			n, err := r.read(prop.count)
			if err != nil {
				return fmt.Errorf("face %d: %w", i, err)
			}
			polygon = polygon[:0]
			for k := 0; k < int(n); k++ {
				idx, err := r.read(prop.scalar)
				if err != nil {
					return fmt.Errorf("face %d: %w", i, err)
				}
				if idx < 0 {
					return fmt.Errorf("%w: face %d has negative index", ErrInvalidPLYIndex, i)
				}
				polygon = append(polygon, uint32(idx))
			}

			// Fan triangulation
			for k := 1; k+1 < len(polygon); k++ {
				p.Faces = append(p.Faces, [3]uint32{polygon[0], polygon[k], polygon[k+1]})
			}
		}
	}
	return nil
}

func skipPLYElement(r plyValueReader, el *PLYElement) error {
	if err := checkPLYCount(r, el); err != nil {
		return err
	}
	for i := 0; i < el.Count; i++ {
		for _, prop := range el.Properties {
			if err := skipPLYProperty(r, prop); err != nil {
				return err
			}
		}
	}
	return nil
}

func skipPLYProperty(r plyValueReader, prop PLYProperty) error {
	if prop.IsList {
		return skipPLYList(r, prop)
	}
	_, err := r.read(prop.scalar)
	return err
}

func skipPLYList(r plyValueReader, prop PLYProperty) error {
	n, err := r.read(prop.count)
	if err != nil {
		return err
	}
	for k := 0; k < int(n); k++ {
		if _, err := r.read(prop.scalar); err != nil {
			return err
		}
	}
	return nil
}

// checkPLYCount rejects an element whose declared count cannot fit in the
// rest of the body, before anything is allocated for it.
func checkPLYCount(r plyValueReader, el *PLYElement) error {
	if el.Count == 0 {
		return nil
	}
	record := 0
	for _, prop := range el.Properties {
		if prop.IsList {
			record += r.minSize(prop.count)
		} else {
			record += r.minSize(prop.scalar)
		}
	}
	if record == 0 {
		record = 1
	}
	if limit := r.remaining() / record; el.Count > limit {
		return fmt.Errorf("%w: %d records declared, body holds at most %d", ErrTruncatedPLYData, el.Count, limit)
	}
	return nil
}

// plyColorByte maps a color channel to 0..255. Float channels are 0..1.
func plyColorByte(v float64, t plyScalar) uint8 {
	if t.isFloat() {
		v = v*255 + 0.5
	}
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// plyValueReader reads successive scalar values from a PLY body.
type plyValueReader interface {
	read(t plyScalar) (float64, error)
	// minSize is the fewest body bytes one value of t occupies.
	minSize(t plyScalar) int
	// remaining is the number of unread body bytes.
	remaining() int
}

type plyBinaryReader struct {
	data  []byte
	off   int
	order binary.ByteOrder
}

func (r *plyBinaryReader) minSize(t plyScalar) int { return t.size() }

func (r *plyBinaryReader) remaining() int { return len(r.data) - r.off }

func (r *plyBinaryReader) read(t plyScalar) (float64, error) {
	n := t.size()
	if r.off+n > len(r.data) {
		return 0, ErrTruncatedPLYData
	}
	b := r.data[r.off : r.off+n]
	r.off += n

	switch t {
	case plyInt8:
		return float64(int8(b[0])), nil
	case plyUint8:
		return float64(b[0]), nil
	case plyInt16:
		return float64(int16(r.order.Uint16(b))), nil
	case plyUint16:
		return float64(r.order.Uint16(b)), nil
	case plyInt32:
		return float64(int32(r.order.Uint32(b))), nil
	case plyUint32:
		return float64(r.order.Uint32(b)), nil
	case plyFloat32:
		return float64(math.Float32frombits(r.order.Uint32(b))), nil
	case plyFloat64:
		return math.Float64frombits(r.order.Uint64(b)), nil
	}
	return 0, fmt.Errorf("unknown scalar type %d", t)
}

type plyASCIIReader struct {
	scanner  *bufio.Scanner
	size     int
	consumed int
}

func newPLYASCIIReader(body []byte) *plyASCIIReader {
	r := &plyASCIIReader{size: len(body)}
	r.scanner = bufio.NewScanner(bytes.NewReader(body))
	r.scanner.Split(func(data []byte, atEOF bool) (int, []byte, error) {
		advance, token, err := bufio.ScanWords(data, atEOF)
		r.consumed += advance
		return advance, token, err
	})
	return r
}

// minSize counts a digit and its separator.
func (r *plyASCIIReader) minSize(plyScalar) int { return 2 }

// remaining allows for the last value having no trailing separator.
func (r *plyASCIIReader) remaining() int { return r.size - r.consumed + 1 }

func (r *plyASCIIReader) read(t plyScalar) (float64, error) {
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return 0, err
		}
		return 0, ErrTruncatedPLYData
	}
	tok := r.scanner.Text()
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, fmt.Errorf("bad %s value %q", t.name(), tok)
	}
	return v, nil
}

func (t plyScalar) name() string {
	switch t {
	case plyInt8:
		return "char"
	case plyUint8:
		return "uchar"
	case plyInt16:
		return "short"
	case plyUint16:
		return "ushort"
	case plyInt32:
		return "int"
	case plyUint32:
		return "uint"
	case plyFloat32:
		return "float"
	case plyFloat64:
		return "double"
	}
	return "unknown"
}
