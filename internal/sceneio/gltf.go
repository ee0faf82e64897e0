package sceneio

import (
	"fmt"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/solstice-rt/solstice/internal/rtlog"
	"github.com/solstice-rt/solstice/internal/rterr"
)

// ParseGLTF loads a .gltf/.glb file into a Scene. Any primitive whose
// topology is not a triangle list is rejected; missing normals are
// regenerated from triangle topology, and missing tangents are
// regenerated with the UV-gradient method instead of failing the load.
func ParseGLTF(path string, log rtlog.Logger) (*Scene, error) {
	start := time.Now()
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, rterr.Wrap(rterr.SceneParse, fmt.Sprintf("open %s", path), err)
	}
	log.Infof("loaded %s in %s", path, time.Since(start))

	buildStart := time.Now()
	scene := &Scene{}

	// geometryOf[meshIndex][primIndex] is the Geometry produced for that
	// glTF mesh primitive, so node instancing can look it up by pair.
	geometryOf := make(map[[2]int]Geometry)

	for meshIdx, mesh := range doc.Meshes {
		log.Debugf("processing %d primitives in mesh %q", len(mesh.Primitives), mesh.Name)
		for primIdx, prim := range mesh.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				return nil, rterr.New(rterr.NotTriangleList, fmt.Sprintf("mesh %d primitive %d", meshIdx, primIdx))
			}

			geometry, err := readPrimitive(doc, scene, prim)
			if err != nil {
				return nil, err
			}
			geometryOf[[2]int{meshIdx, primIdx}] = geometry
		}
	}

	for _, node := range doc.Nodes {
		if node.Mesh == nil {
			log.Infof("skipped non-mesh node %q", node.Name)
			continue
		}
		localToWorld := nodeTransform(node)
		mesh := doc.Meshes[*node.Mesh]

		for primIdx, prim := range mesh.Primitives {
			geometry := geometryOf[[2]int{int(*node.Mesh), primIdx}]

			var material *gltf.Material
			if prim.Material != nil {
				material = doc.Materials[*prim.Material]
			}
			color, roughness, metallic, emissive := materialParams(material)

			scene.Primitives = append(scene.Primitives, Primitive{
				LocalToWorld: localToWorld,
				Color:        color,
				Roughness:    roughness,
				Metallic:     metallic,
				Emissive:     emissive,
				Geometry:     geometry,
			})
		}
	}

	log.Infof("processed %s in %s", path, time.Since(buildStart))
	return scene, nil
}

func readPrimitive(doc *gltf.Document, scene *Scene, prim *gltf.Primitive) (Geometry, error) {
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return Geometry{}, rterr.New(rterr.MissingAttribute, "POSITION")
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return Geometry{}, rterr.Wrap(rterr.SceneParse, "reading POSITION", err)
	}

	startVertex := uint32(len(scene.Vertices))
	startIndex := uint32(len(scene.Indices))

	vertices := make([]Vertex, len(positions))
	hasNormals := false
	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return Geometry{}, rterr.Wrap(rterr.SceneParse, "reading NORMAL", err)
		}
		hasNormals = true
		for i, n := range normals {
			vertices[i].Normal = mgl32.Vec3{n[0], n[1], n[2]}
		}
	}

	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return Geometry{}, rterr.Wrap(rterr.SceneParse, "reading TEXCOORD_0", err)
		}
		for i, uv := range uvs {
			vertices[i].U = uv[0]
			vertices[i].V = uv[1]
		}
	}

	for i, p := range positions {
		vertices[i].Position = mgl32.Vec3{p[0], p[1], p[2]}
	}

	hasTangents := false
	if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
		tangents, err := modeler.ReadTangent(doc, doc.Accessors[idx], nil)
		if err != nil {
			return Geometry{}, rterr.Wrap(rterr.SceneParse, "reading TANGENT", err)
		}
		hasTangents = true
		for i, t := range tangents {
			vertices[i].Tangent = mgl32.Vec4{t[0], t[1], t[2], t[3]}
		}
	}

	var indices []uint32
	if prim.Indices != nil {
		indices, err = modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return Geometry{}, rterr.Wrap(rterr.SceneParse, "reading indices", err)
		}
	} else {
		return Geometry{}, rterr.New(rterr.MissingAttribute, "indices")
	}

	if !hasNormals {
		generateNormals(vertices, indices)
	}
	if !hasTangents {
		if err := generateTangents(vertices, indices); err != nil {
			return Geometry{}, err
		}
	}

	scene.Vertices = append(scene.Vertices, vertices...)
	for _, i := range indices {
		scene.Indices = append(scene.Indices, i+startVertex)
	}

	return Geometry{IndexStart: startIndex, IndexEnd: uint32(len(scene.Indices))}, nil
}

// nodeTransform composes a node's local-to-world matrix from its TRS
// fields, following glTF's definition of node.matrix = T * R * S.
func nodeTransform(node *gltf.Node) mgl32.Mat4 {
	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()

	translation := mgl32.Translate3D(float32(t[0]), float32(t[1]), float32(t[2]))
	rotation := mgl32.Quat{
		W: float32(r[3]),
		V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])},
	}.Mat4()
	scale := mgl32.Scale3D(float32(s[0]), float32(s[1]), float32(s[2]))

	return translation.Mul4(rotation).Mul4(scale)
}

func materialParams(material *gltf.Material) (color mgl32.Vec4, roughness, metallic, emissive float32) {
	color = mgl32.Vec4{1, 1, 1, 1}
	roughness = 1
	metallic = 1

	if material == nil {
		return
	}

	e := material.EmissiveFactor
	isEmissive := e[0] != 0 || e[1] != 0 || e[2] != 0
	if isEmissive {
		color = mgl32.Vec4{e[0], e[1], e[2], 1}
		emissive = 1
	} else if material.PBRMetallicRoughness != nil {
		c := material.PBRMetallicRoughness.BaseColorFactorOrDefault()
		color = mgl32.Vec4{c[0], c[1], c[2], c[3]}
	}

	if material.PBRMetallicRoughness != nil {
		roughness = material.PBRMetallicRoughness.RoughnessFactorOrDefault()
		metallic = material.PBRMetallicRoughness.MetallicFactorOrDefault()
	}
	return
}
