// Package mjc provides the scene descriptor and physics stepper used by the
// manipulation benchmarks. Scenes are described in MJCF-style XML model
// files: a worldbody tree of named bodies carrying named geoms and joints.
package mjc

import (
	"encoding/xml"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goki/mat32"
)

// Body is a rigid body of the scene. ID 0 is always the world body.
// Pos is the body position in world coordinates.
type Body struct {
	ID     int
	Name   string
	Parent int
	Pos    mat32.Vec3
	Mocap  bool
}

// Geom is a collision geometry attached to a body. Pos is the geom position
// in world coordinates, Size its bounding sphere radius.
type Geom struct {
	ID   int
	Name string
	Body int
	Type string
	Pos  mat32.Vec3
	Size float32
}

// Joint is a degree of freedom of the scene.
type Joint struct {
	ID   int
	Name string
	Body int
}

type Scene struct {
	Model  string
	Bodies []Body
	Geoms  []Geom
	Joints []Joint

	bodyIDs map[string]int
	geomIDs map[string]int
}

// xml element mirrors of the MJCF subset we read

type mjcfFile struct {
	XMLName   xml.Name  `xml:"mujoco"`
	Model     string    `xml:"model,attr"`
	Worldbody mjcfWBody `xml:"worldbody"`
}

type mjcfWBody struct {
	Geoms  []mjcfGeom `xml:"geom"`
	Bodies []mjcfBody `xml:"body"`
}

type mjcfBody struct {
	Name   string     `xml:"name,attr"`
	Pos    string     `xml:"pos,attr"`
	Mocap  string     `xml:"mocap,attr"`
	Geoms  []mjcfGeom `xml:"geom"`
	Joints []mjcfJnt  `xml:"joint"`
	Bodies []mjcfBody `xml:"body"`
}

type mjcfGeom struct {
	Name string `xml:"name,attr"`
	Type string `xml:"type,attr"`
	Pos  string `xml:"pos,attr"`
	Size string `xml:"size,attr"`
}

type mjcfJnt struct {
	Name string `xml:"name,attr"`
}

// LoadScene reads and parses the model file at path. Any failure is fatal
// for the caller: without a valid scene there are no body or geom ids to
// evaluate episodes against.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading scene file: %v", err)
	}
	return ParseScene(data)
}

// ParseScene parses MJCF XML. Bodies and geoms are assigned ids in document
// order, the implicit world body taking body id 0. Geom positions are
// resolved to world coordinates by accumulating body offsets.
func ParseScene(data []byte) (*Scene, error) {
	var file mjcfFile
	if err := xml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing scene xml: %v", err)
	}

	s := &Scene{
		Model:   file.Model,
		Bodies:  make([]Body, 0),
		Geoms:   make([]Geom, 0),
		Joints:  make([]Joint, 0),
		bodyIDs: make(map[string]int),
		geomIDs: make(map[string]int),
	}

	s.Bodies = append(s.Bodies, Body{ID: 0, Name: "world", Parent: -1})
	s.bodyIDs["world"] = 0

	for _, g := range file.Worldbody.Geoms {
		if err := s.addGeom(g, 0, mat32.Vec3{}); err != nil {
			return nil, err
		}
	}
	for _, b := range file.Worldbody.Bodies {
		if err := s.addBody(b, 0, mat32.Vec3{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scene) addBody(b mjcfBody, parent int, origin mat32.Vec3) error {
	pos, err := parseVec3(b.Pos)
	if err != nil {
		return fmt.Errorf("body %q: %v", b.Name, err)
	}
	world := origin.Add(pos)

	id := len(s.Bodies)
	s.Bodies = append(s.Bodies, Body{
		ID:     id,
		Name:   b.Name,
		Parent: parent,
		Pos:    world,
		Mocap:  b.Mocap == "true",
	})
	if b.Name != "" {
		if _, ok := s.bodyIDs[b.Name]; ok {
			return fmt.Errorf("duplicate body name %q", b.Name)
		}
		s.bodyIDs[b.Name] = id
	}

	for _, j := range b.Joints {
		s.Joints = append(s.Joints, Joint{ID: len(s.Joints), Name: j.Name, Body: id})
	}
	for _, g := range b.Geoms {
		if err := s.addGeom(g, id, world); err != nil {
			return err
		}
	}
	for _, child := range b.Bodies {
		if err := s.addBody(child, id, world); err != nil {
			return err
		}
	}
	return nil
}

func (s *Scene) addGeom(g mjcfGeom, body int, origin mat32.Vec3) error {
	pos, err := parseVec3(g.Pos)
	if err != nil {
		return fmt.Errorf("geom %q: %v", g.Name, err)
	}
	size := float32(0)
	if g.Size != "" {
		fields := strings.Fields(g.Size)
		v, err := strconv.ParseFloat(fields[0], 32)
		if err != nil {
			return fmt.Errorf("geom %q: bad size %q", g.Name, g.Size)
		}
		size = float32(v)
	}

	id := len(s.Geoms)
	s.Geoms = append(s.Geoms, Geom{
		ID:   id,
		Name: g.Name,
		Body: body,
		Type: g.Type,
		Pos:  origin.Add(pos),
		Size: size,
	})
	if g.Name != "" {
		if _, ok := s.geomIDs[g.Name]; ok {
			return fmt.Errorf("duplicate geom name %q", g.Name)
		}
		s.geomIDs[g.Name] = id
	}
	return nil
}

func parseVec3(attr string) (mat32.Vec3, error) {
	if attr == "" {
		return mat32.Vec3{}, nil
	}
	fields := strings.Fields(attr)
	if len(fields) != 3 {
		return mat32.Vec3{}, fmt.Errorf("bad pos %q", attr)
	}
	out := [3]float32{}
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 32)
		if err != nil {
			return mat32.Vec3{}, fmt.Errorf("bad pos %q", attr)
		}
		out[i] = float32(v)
	}
	return mat32.Vec3{X: out[0], Y: out[1], Z: out[2]}, nil
}

// BodyID returns the id of the body with the given name.
func (s *Scene) BodyID(name string) (int, error) {
	id, ok := s.bodyIDs[name]
	if !ok {
		return -1, fmt.Errorf("no body named %q", name)
	}
	return id, nil
}

// GeomID returns the id of the geom with the given name.
func (s *Scene) GeomID(name string) (int, error) {
	id, ok := s.geomIDs[name]
	if !ok {
		return -1, fmt.Errorf("no geom named %q", name)
	}
	return id, nil
}

// GeomName returns the name of the geom with the given id, or "" if the id
// is out of range or the geom is unnamed.
func (s *Scene) GeomName(id int) string {
	if id < 0 || id >= len(s.Geoms) {
		return ""
	}
	return s.Geoms[id].Name
}

// GeomsWithPrefix returns the ids of all geoms whose name starts with prefix,
// in id order.
func (s *Scene) GeomsWithPrefix(prefix string) []int {
	ids := make([]int, 0)
	for _, g := range s.Geoms {
		if g.Name != "" && strings.HasPrefix(g.Name, prefix) {
			ids = append(ids, g.ID)
		}
	}
	return ids
}

func (s *Scene) NumBodies() int { return len(s.Bodies) }
func (s *Scene) NumGeoms() int  { return len(s.Geoms) }
func (s *Scene) NumJoints() int { return len(s.Joints) }
