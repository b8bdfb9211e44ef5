package content

import (
	"fmt"
	"os"

	"github.com/plus3/slotcore/ecs"
	"gopkg.in/yaml.v3"
)

// Scene is the YAML form of a level.
type Scene struct {
	Entities []EntitySpec `yaml:"entities"`
}

type EntitySpec struct {
	Name      string         `yaml:"name"`
	Transform *TransformSpec `yaml:"transform"`
	Script    string         `yaml:"script"`
	Geometry  *GeometrySpec  `yaml:"geometry"`
}

// TransformSpec defaults rotation to identity and scale to one when omitted.
type TransformSpec struct {
	Position YAMLVec3  `yaml:"position"`
	Rotation *YAMLQuat `yaml:"rotation"`
	Scale    *YAMLVec3 `yaml:"scale"`
}

type GeometrySpec struct {
	Mesh     uint32 `yaml:"mesh"`
	Material uint32 `yaml:"material"`
}

// YAMLVec3 accepts either [x, y, z] or {x: .., y: .., z: ..}.
type YAMLVec3 struct {
	ecs.Vec3
}

func (v *YAMLVec3) UnmarshalYAML(value *yaml.Node) error {
	f, err := decodeFloats(value, []string{"x", "y", "z"})
	if err != nil {
		return err
	}
	v.Vec3 = ecs.Vec3{X: f[0], Y: f[1], Z: f[2]}
	return nil
}

func (v YAMLVec3) MarshalYAML() (any, error) {
	return []float32{v.X, v.Y, v.Z}, nil
}

// YAMLQuat accepts either [x, y, z, w] or {x: .., y: .., z: .., w: ..}.
type YAMLQuat struct {
	ecs.Quat
}

func (q *YAMLQuat) UnmarshalYAML(value *yaml.Node) error {
	f, err := decodeFloats(value, []string{"x", "y", "z", "w"})
	if err != nil {
		return err
	}
	q.Quat = ecs.Quat{X: f[0], Y: f[1], Z: f[2], W: f[3]}
	return nil
}

func (q YAMLQuat) MarshalYAML() (any, error) {
	return []float32{q.X, q.Y, q.Z, q.W}, nil
}

func decodeFloats(value *yaml.Node, keys []string) ([]float32, error) {
	switch value.Kind {
	case yaml.SequenceNode:
		var f []float32
		if err := value.Decode(&f); err != nil {
			return nil, err
		}
		if len(f) != len(keys) {
			return nil, fmt.Errorf("line %d: expected %d components, got %d", value.Line, len(keys), len(f))
		}
		return f, nil
	case yaml.MappingNode:
		var m map[string]float32
		if err := value.Decode(&m); err != nil {
			return nil, err
		}
		f := make([]float32, len(keys))
		for i, k := range keys {
			f[i] = m[k]
		}
		return f, nil
	default:
		return nil, fmt.Errorf("line %d: expected a sequence or mapping", value.Line)
	}
}

// Descriptors converts the scene into creation descriptors.
func (s *Scene) Descriptors() []ecs.Descriptor {
	descs := make([]ecs.Descriptor, 0, len(s.Entities))
	for _, e := range s.Entities {
		desc := ecs.Descriptor{Name: e.Name}
		if e.Transform != nil {
			t := ecs.IdentityTransform()
			t.Position = e.Transform.Position.Vec3
			if e.Transform.Rotation != nil {
				t.Rotation = e.Transform.Rotation.Quat
			}
			if e.Transform.Scale != nil {
				t.Scale = e.Transform.Scale.Vec3
			}
			desc.Transform = &t
		}
		if e.Script != "" {
			desc.Script = &ecs.ScriptRef{Name: e.Script}
		}
		if e.Geometry != nil {
			desc.Geometry = &ecs.Geometry{Mesh: e.Geometry.Mesh, Material: e.Geometry.Material}
		}
		descs = append(descs, desc)
	}
	return descs
}

// ParseScene decodes a YAML scene.
func ParseScene(data []byte) (*Scene, error) {
	var scene Scene
	if err := yaml.Unmarshal(data, &scene); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return &scene, nil
}

// LoadScene reads and decodes a YAML scene file.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return ParseScene(data)
}
