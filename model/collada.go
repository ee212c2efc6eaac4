package model

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"sync"

	glm "github.com/go-gl/mathgl/mgl32"

	"github.com/koru3d/puna/utility/collada"
)

// ImportColladaObject reads given file and converts Collada object to
// engine's internal object
func ImportColladaObject(fileContents []byte) (Object, error) {
	var colladaModel collada.Collada
	if err := xml.Unmarshal(fileContents, &colladaModel); err != nil {
		return nil, err
	}
	if len(colladaModel.Geometries) == 0 {
		return nil, errors.New("no geometries in the collada document")
	}

	mesh := colladaModel.Geometries[0].Mesh
	source, err := findSource(mesh.Source, "positions")
	if err != nil {
		return nil, err
	}

	// The index is a flat list of tuples, one value per triangle input.
	// The offset of the VERTEX input locates the position index
	// inside each tuple.
	stride := len(mesh.Triangles.Inputs)
	if stride == 0 {
		return nil, errors.New("triangles carry no inputs")
	}
	offset := vertexOffset(mesh.Triangles.Inputs)

	var vertices []Vertex
	for base := 0; base+stride <= len(mesh.Triangles.Index); base += stride {
		pointIdx := mesh.Triangles.Index[base+offset]
		if 3*pointIdx+2 >= len(source.Floats.Data) {
			return nil, errors.New("vertex index out of source range")
		}
		vertices = append(vertices, Vertex{
			Pos: glm.Vec3{
				source.Floats.Data[3*pointIdx],
				source.Floats.Data[3*pointIdx+1],
				source.Floats.Data[3*pointIdx+2],
			},
			Color: glm.Vec4{1.0, 1.0, 0.0, 1.0},
		})
	}

	return &ColladaObject{
		vertices: vertices,
	}, nil
}

// ColladaObject is imported from a collada (.dae) file.
// Loaded and held in memory
type ColladaObject struct {
	Object

	mutex    sync.RWMutex
	position glm.Mat4
	rotation glm.Mat4

	vertices []Vertex
}

// SetPosition implements interface
func (co *ColladaObject) SetPosition(pos glm.Mat4) {
	co.mutex.Lock()
	co.position = pos
	co.mutex.Unlock()
}

// Position implements interface
func (co *ColladaObject) Position() glm.Mat4 {
	co.mutex.RLock()
	defer co.mutex.RUnlock()
	return co.position
}

// SetRotation implements interface
func (co *ColladaObject) SetRotation(rot glm.Mat4) {
	co.mutex.Lock()
	co.rotation = rot
	co.mutex.Unlock()
}

// Rotation implements interface
func (co *ColladaObject) Rotation() glm.Mat4 {
	co.mutex.RLock()
	defer co.mutex.RUnlock()
	return co.rotation
}

// Vertices implements interface
func (co *ColladaObject) Vertices() []Vertex {
	return co.vertices
}

func findSource(sources []collada.Source, dataType string) (collada.Source, error) {
	for _, s := range sources {
		if strings.HasSuffix(s.ID, fmt.Sprintf("-%s", dataType)) {
			return s, nil
		}
	}
	return collada.Source{}, errors.New("source type not found")
}

func vertexOffset(inputs []collada.Input) int {
	for _, input := range inputs {
		if input.Semantic == "VERTEX" {
			return int(input.Offset)
		}
	}
	return 0
}
