package scene

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"model-viewer/core"
)

// LoadGLTF opens a .glb or .gltf file. External buffers and images are
// resolved relative to the file's directory.
func LoadGLTF(path string) (*Model, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	return DecodeDocument(doc, filepath.Base(path), filepath.Dir(path))
}

// ParseGLB decodes a self-contained binary glTF held in memory.
func ParseGLB(name string, data []byte) (*Model, error) {
	doc := new(gltf.Document)
	if err := gltf.NewDecoder(bytes.NewReader(data)).Decode(doc); err != nil {
		return nil, fmt.Errorf("gltf decode %q: %w", name, err)
	}
	return DecodeDocument(doc, name, "")
}

// DecodeDocument converts a parsed glTF document into a Model. dir is used to
// resolve external image URIs; when empty they are skipped with a warning.
func DecodeDocument(doc *gltf.Document, name, dir string) (*Model, error) {
	model := &Model{Name: name}
	warnf := func(format string, args ...any) {
		model.Warnings = append(model.Warnings, fmt.Sprintf(format, args...))
	}

	textures := decodeTextures(doc, dir, model, warnf)
	materials := decodeMaterials(doc, textures, model)

	meshPrims := make([][]*Mesh, len(doc.Meshes))
	for mi, gm := range doc.Meshes {
		for pi, prim := range gm.Primitives {
			if prim.Mode != gltf.PrimitiveTriangles {
				warnf("mesh %d prim %d: unsupported mode %d", mi, pi, prim.Mode)
				continue
			}
			m, err := decodePrimitive(doc, gm.Name, pi, prim)
			if err != nil {
				warnf("mesh %d prim %d: %v", mi, pi, err)
				continue
			}
			ComputeTangents(m)
			if prim.Material != nil && inRange(*prim.Material, len(materials)) {
				m.Material = materials[*prim.Material]
			} else {
				m.Material = defaultModelMaterial(model)
			}
			meshPrims[mi] = append(meshPrims[mi], m)
		}
	}

	nodes := make([]*Node, len(doc.Nodes))
	for i, gn := range doc.Nodes {
		nodeName := gn.Name
		if nodeName == "" {
			nodeName = fmt.Sprintf("node_%d", i)
		}
		n := NewNode(nodeName)
		applyNodeTransform(n, gn)

		if gn.Mesh != nil && inRange(*gn.Mesh, len(meshPrims)) {
			prims := meshPrims[*gn.Mesh]
			if len(prims) == 1 {
				n.Mesh = prims[0]
			} else {
				for pi, p := range prims {
					child := NewNode(fmt.Sprintf("%s_prim%d", nodeName, pi))
					child.Mesh = p
					n.AddChild(child)
				}
			}
		}
		nodes[i] = n
	}

	for i, gn := range doc.Nodes {
		for _, childIdx := range gn.Children {
			if err := linkChild(nodes, i, childIdx); err != nil {
				warnf("node %d: %v", i, err)
			}
		}
	}

	model.Root = NewNode(strings.TrimSuffix(name, filepath.Ext(name)))
	for _, root := range rootNodes(doc, nodes) {
		model.Root.AddChild(root)
	}
	if len(model.Meshes()) == 0 {
		return nil, fmt.Errorf("gltf %q: no renderable meshes", name)
	}
	return model, nil
}

func decodeTextures(doc *gltf.Document, dir string, model *Model, warnf func(string, ...any)) []*Texture {
	cache := make([]*Texture, len(doc.Textures))
	for i, gt := range doc.Textures {
		if gt.Source == nil || !inRange(*gt.Source, len(doc.Images)) {
			continue
		}
		img := doc.Images[*gt.Source]
		texName := img.Name
		if texName == "" {
			texName = fmt.Sprintf("gltf_img_%d", *gt.Source)
		}

		raw, err := imageBytes(doc, img, dir)
		if err != nil {
			warnf("image %d: %v", *gt.Source, err)
			continue
		}
		tex, err := DecodeTexture(texName, bytes.NewReader(raw))
		if err != nil {
			warnf("image %d: %v", *gt.Source, err)
			continue
		}
		cache[i] = tex
		model.Textures = append(model.Textures, tex)
	}
	return cache
}

func imageBytes(doc *gltf.Document, img *gltf.Image, dir string) ([]byte, error) {
	switch {
	case img.BufferView != nil:
		if !inRange(*img.BufferView, len(doc.BufferViews)) {
			return nil, fmt.Errorf("buffer view %d out of range", *img.BufferView)
		}
		return modeler.ReadBufferView(doc, doc.BufferViews[*img.BufferView])
	case img.IsEmbeddedResource():
		return img.MarshalData()
	case img.URI != "":
		if dir == "" {
			return nil, fmt.Errorf("external image %q cannot be resolved", img.URI)
		}
		return os.ReadFile(filepath.Join(dir, filepath.FromSlash(img.URI)))
	}
	return nil, fmt.Errorf("image has no data")
}

func decodeMaterials(doc *gltf.Document, textures []*Texture, model *Model) []*Material {
	lookup := func(index int, srgb bool) *Texture {
		if index < 0 || index >= len(textures) || textures[index] == nil {
			return nil
		}
		if srgb {
			textures[index].SRGB = true
		}
		return textures[index]
	}

	materials := make([]*Material, len(doc.Materials))
	for i, gm := range doc.Materials {
		mat := DefaultMaterial()
		mat.Name = gm.Name
		mat.DoubleSided = gm.DoubleSided

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			cf := pbr.BaseColorFactorOrDefault()
			mat.BaseColor = core.Color{R: float32(cf[0]), G: float32(cf[1]), B: float32(cf[2]), A: float32(cf[3])}
			mat.Metalness = float32(pbr.MetallicFactorOrDefault())
			mat.Roughness = float32(pbr.RoughnessFactorOrDefault())
			if pbr.BaseColorTexture != nil {
				mat.BaseColorTexture = lookup(pbr.BaseColorTexture.Index, true)
			}
			if pbr.MetallicRoughnessTexture != nil {
				mat.MetallicRoughnessTexture = lookup(pbr.MetallicRoughnessTexture.Index, false)
			}
		}
		if gm.NormalTexture != nil && gm.NormalTexture.Index != nil {
			mat.NormalTexture = lookup(*gm.NormalTexture.Index, false)
		}
		ef := gm.EmissiveFactor
		mat.Emissive = core.Color{R: float32(ef[0]), G: float32(ef[1]), B: float32(ef[2]), A: 1}
		if gm.EmissiveTexture != nil {
			mat.EmissiveTexture = lookup(gm.EmissiveTexture.Index, true)
		}
		materials[i] = mat
	}
	model.Materials = append(model.Materials, materials...)
	return materials
}

// defaultModelMaterial gives primitives without a material their own default
// instance so material overrides reach them too.
func defaultModelMaterial(model *Model) *Material {
	for _, m := range model.Materials {
		if m.Name == "Default" {
			return m
		}
	}
	m := DefaultMaterial()
	model.Materials = append(model.Materials, m)
	return m
}

func applyNodeTransform(n *Node, gn *gltf.Node) {
	if gn.Matrix != [16]float64{} && gn.Matrix != gltf.DefaultMatrix {
		var m mgl32.Mat4
		for i, v := range gn.Matrix {
			m[i] = float32(v)
		}
		col0, col1, col2 := m.Col(0).Vec3(), m.Col(1).Vec3(), m.Col(2).Vec3()
		scale := mgl32.Vec3{col0.Len(), col1.Len(), col2.Len()}
		rot := mgl32.Mat3FromCols(col0.Mul(1/scale[0]), col1.Mul(1/scale[1]), col2.Mul(1/scale[2]))
		n.SetPosition(m.Col(3).Vec3())
		n.SetScale(scale)
		n.SetRotation(mgl32.Mat4ToQuat(rot.Mat4()).Normalize())
		return
	}

	t := gn.TranslationOrDefault()
	n.SetPosition(mgl32.Vec3{float32(t[0]), float32(t[1]), float32(t[2])})
	s := gn.ScaleOrDefault()
	n.SetScale(mgl32.Vec3{float32(s[0]), float32(s[1]), float32(s[2])})
	r := gn.RotationOrDefault() // x, y, z, w
	n.SetRotation(mgl32.Quat{W: float32(r[3]), V: mgl32.Vec3{float32(r[0]), float32(r[1]), float32(r[2])}})
}

func rootNodes(doc *gltf.Document, nodes []*Node) []*Node {
	var roots []*Node
	if doc.Scene != nil && *doc.Scene < len(doc.Scenes) {
		for _, idx := range doc.Scenes[*doc.Scene].Nodes {
			if inRange(idx, len(nodes)) && nodes[idx].Parent == nil {
				roots = append(roots, nodes[idx])
			}
		}
		return roots
	}
	for _, n := range nodes {
		if n.Parent == nil {
			roots = append(roots, n)
		}
	}
	return roots
}

func decodePrimitive(doc *gltf.Document, meshName string, primIdx int, prim *gltf.Primitive) (*Mesh, error) {
	name := fmt.Sprintf("%s_p%d", meshName, primIdx)
	if meshName == "" {
		name = fmt.Sprintf("prim_%d", primIdx)
	}

	posIdx, ok := prim.Attributes["POSITION"]
	if !ok {
		return nil, fmt.Errorf("no POSITION attribute")
	}
	posAcc, err := accessor(doc, posIdx)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}
	positions, err := modeler.ReadPosition(doc, posAcc, nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	var normals [][3]float32
	var uvs [][2]float32
	if idx, ok := prim.Attributes["NORMAL"]; ok {
		acc, err := accessor(doc, idx)
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		if normals, err = modeler.ReadNormal(doc, acc, nil); err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
	}
	if idx, ok := prim.Attributes["TEXCOORD_0"]; ok {
		acc, err := accessor(doc, idx)
		if err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
		if uvs, err = modeler.ReadTextureCoord(doc, acc, nil); err != nil {
			return nil, fmt.Errorf("texcoords: %w", err)
		}
	}

	verts := make([]core.Vertex, len(positions))
	for i, p := range positions {
		v := core.Vertex{
			Position: mgl32.Vec3{p[0], p[1], p[2]},
			Normal:   mgl32.Vec3{0, 1, 0},
			Color:    core.ColorWhite,
		}
		if i < len(normals) {
			v.Normal = mgl32.Vec3{normals[i][0], normals[i][1], normals[i][2]}
		}
		if i < len(uvs) {
			v.UV = mgl32.Vec2{uvs[i][0], uvs[i][1]}
		}
		verts[i] = v
	}

	var indices []uint32
	if prim.Indices != nil {
		acc, err := accessor(doc, *prim.Indices)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		indices, err = modeler.ReadIndices(doc, acc, nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		for _, ix := range indices {
			if int(ix) >= len(verts) {
				return nil, fmt.Errorf("indices: vertex %d out of range (%d vertices)", ix, len(verts))
			}
		}
	}
	if len(normals) == 0 {
		computeFlatNormals(verts, indices)
	}

	return CreateMeshFromData(name, verts, indices), nil
}

func inRange(idx, n int) bool {
	return idx >= 0 && idx < n
}

// accessor returns doc.Accessors[idx] after checking that the accessor and
// its buffer view exist.
func accessor(doc *gltf.Document, idx int) (*gltf.Accessor, error) {
	if !inRange(idx, len(doc.Accessors)) || doc.Accessors[idx] == nil {
		return nil, fmt.Errorf("accessor %d out of range", idx)
	}
	acc := doc.Accessors[idx]
	if acc.BufferView != nil {
		if !inRange(*acc.BufferView, len(doc.BufferViews)) {
			return nil, fmt.Errorf("accessor %d: buffer view %d out of range", idx, *acc.BufferView)
		}
		bv := doc.BufferViews[*acc.BufferView]
		if bv == nil || !inRange(bv.Buffer, len(doc.Buffers)) {
			return nil, fmt.Errorf("accessor %d: buffer view %d has no buffer", idx, *acc.BufferView)
		}
		if acc.ByteOffset > bv.ByteLength {
			return nil, fmt.Errorf("accessor %d: offset %d past buffer view end", idx, acc.ByteOffset)
		}
	}
	return acc, nil
}

// linkChild makes nodes[childIdx] a child of nodes[parentIdx]. glTF nodes form
// a forest, so a child that already has a parent or would close a cycle is refused.
func linkChild(nodes []*Node, parentIdx, childIdx int) error {
	if !inRange(childIdx, len(nodes)) {
		return fmt.Errorf("child %d out of range", childIdx)
	}
	parent, child := nodes[parentIdx], nodes[childIdx]
	if child.Parent != nil {
		return fmt.Errorf("child %d already has a parent", childIdx)
	}
	for n := parent; n != nil; n = n.Parent {
		if n == child {
			return fmt.Errorf("child %d would form a cycle", childIdx)
		}
	}
	parent.AddChild(child)
	return nil
}
