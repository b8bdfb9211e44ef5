// Package content turns level and scene files into entity descriptors and
// loads them into a directory.
package content

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"unicode/utf8"

	"github.com/plus3/slotcore/ecs"
)

// Component type tags in the binary level format.
const (
	ComponentTransform int32 = 0
	ComponentScript    int32 = 1
	ComponentGeometry  int32 = 2
)

const (
	transformSize = 10 * 4
	geometrySize  = 2 * 4

	maxScriptName = 4096
)

var (
	ErrTruncated          = errors.New("content: truncated level data")
	ErrBadComponentSize   = errors.New("content: bad component size")
	ErrDuplicateComponent = errors.New("content: duplicate component")
)

var order = binary.LittleEndian

// DecodeLevel reads a binary level: an int32 entity count, then per entity
// an int32 reserved field, an int32 component count and that many
// (int32 type, int32 size, bytes) records. Unknown component types are
// skipped.
func DecodeLevel(r io.Reader) ([]ecs.Descriptor, error) {
	br := bufio.NewReader(r)

	count, err := readInt32(br)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("content: negative entity count %d", count)
	}

	descs := make([]ecs.Descriptor, 0, min(int(count), 1024))
	for i := int32(0); i < count; i++ {
		desc, err := decodeEntity(br)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %w", i, err)
		}
		descs = append(descs, desc)
	}
	return descs, nil
}

func decodeEntity(r io.Reader) (ecs.Descriptor, error) {
	var desc ecs.Descriptor

	if _, err := readInt32(r); err != nil { // reserved
		return desc, err
	}
	n, err := readInt32(r)
	if err != nil {
		return desc, err
	}
	if n < 0 {
		return desc, fmt.Errorf("content: negative component count %d", n)
	}

	for j := int32(0); j < n; j++ {
		typ, err := readInt32(r)
		if err != nil {
			return desc, err
		}
		size, err := readInt32(r)
		if err != nil {
			return desc, err
		}
		if size < 0 {
			return desc, fmt.Errorf("%w: type %d size %d", ErrBadComponentSize, typ, size)
		}

		switch typ {
		case ComponentTransform:
			if desc.Transform != nil {
				return desc, fmt.Errorf("%w: transform", ErrDuplicateComponent)
			}
			if size != transformSize {
				return desc, fmt.Errorf("%w: transform size %d", ErrBadComponentSize, size)
			}
			var raw [10]float32
			if err := binary.Read(r, order, &raw); err != nil {
				return desc, truncated(err)
			}
			desc.Transform = &ecs.Transform{
				Position: ecs.Vec3{X: raw[0], Y: raw[1], Z: raw[2]},
				Rotation: ecs.Quat{X: raw[3], Y: raw[4], Z: raw[5], W: raw[6]},
				Scale:    ecs.Vec3{X: raw[7], Y: raw[8], Z: raw[9]},
			}

		case ComponentScript:
			if desc.Script != nil {
				return desc, fmt.Errorf("%w: script", ErrDuplicateComponent)
			}
			if size == 0 || size > maxScriptName {
				return desc, fmt.Errorf("%w: script name size %d", ErrBadComponentSize, size)
			}
			buf := make([]byte, size)
			if _, err := io.ReadFull(r, buf); err != nil {
				return desc, truncated(err)
			}
			if !utf8.Valid(buf) {
				return desc, errors.New("content: script name is not UTF-8")
			}
			desc.Script = &ecs.ScriptRef{Name: string(buf)}

		case ComponentGeometry:
			if desc.Geometry != nil {
				return desc, fmt.Errorf("%w: geometry", ErrDuplicateComponent)
			}
			if size != geometrySize {
				return desc, fmt.Errorf("%w: geometry size %d", ErrBadComponentSize, size)
			}
			var raw [2]uint32
			if err := binary.Read(r, order, &raw); err != nil {
				return desc, truncated(err)
			}
			desc.Geometry = &ecs.Geometry{Mesh: raw[0], Material: raw[1]}

		default:
			if _, err := io.CopyN(io.Discard, r, int64(size)); err != nil {
				return desc, truncated(err)
			}
		}
	}
	return desc, nil
}

// EncodeLevel writes descs in the format DecodeLevel reads. Names and
// extra components have no binary representation and are dropped.
func EncodeLevel(w io.Writer, descs []ecs.Descriptor) error {
	if len(descs) > math.MaxInt32 {
		return fmt.Errorf("content: too many entities: %d", len(descs))
	}
	bw := bufio.NewWriter(w)
	put := func(v any) error { return binary.Write(bw, order, v) }

	if err := put(int32(len(descs))); err != nil {
		return err
	}
	for _, desc := range descs {
		var n int32
		if desc.Transform != nil {
			n++
		}
		if desc.Script != nil {
			n++
		}
		if desc.Geometry != nil {
			n++
		}
		if err := put([2]int32{0, n}); err != nil {
			return err
		}

		if t := desc.Transform; t != nil {
			raw := [10]float32{
				t.Position.X, t.Position.Y, t.Position.Z,
				t.Rotation.X, t.Rotation.Y, t.Rotation.Z, t.Rotation.W,
				t.Scale.X, t.Scale.Y, t.Scale.Z,
			}
			if err := put([2]int32{ComponentTransform, transformSize}); err != nil {
				return err
			}
			if err := put(raw); err != nil {
				return err
			}
		}
		if s := desc.Script; s != nil {
			if len(s.Name) == 0 || len(s.Name) > maxScriptName {
				return fmt.Errorf("%w: script name %q", ErrBadComponentSize, s.Name)
			}
			if err := put([2]int32{ComponentScript, int32(len(s.Name))}); err != nil {
				return err
			}
			if _, err := bw.WriteString(s.Name); err != nil {
				return err
			}
		}
		if g := desc.Geometry; g != nil {
			if err := put([2]int32{ComponentGeometry, geometrySize}); err != nil {
				return err
			}
			if err := put([2]uint32{g.Mesh, g.Material}); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func readInt32(r io.Reader) (int32, error) {
	var v int32
	if err := binary.Read(r, order, &v); err != nil {
		return 0, truncated(err)
	}
	return v, nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
