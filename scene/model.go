package scene

// Model is a decoded glTF asset: a single root node plus the materials and
// textures its meshes reference.
type Model struct {
	Name      string
	Root      *Node
	Materials []*Material
	Textures  []*Texture
	// Warnings lists parts of the asset that were skipped while decoding.
	Warnings []string
}

// Meshes returns every mesh under the model's root.
func (m *Model) Meshes() []*Mesh {
	var meshes []*Mesh
	m.Root.Traverse(func(n *Node) {
		if n.Mesh != nil {
			meshes = append(meshes, n.Mesh)
		}
	})
	return meshes
}

// VertexCount sums the vertices of every mesh in the model.
func (m *Model) VertexCount() int {
	total := 0
	for _, mesh := range m.Meshes() {
		total += len(mesh.Vertices)
	}
	return total
}

// Bounds returns the world-space box of every mesh under the root.
func (m *Model) Bounds() (AABB, bool) {
	var box AABB
	found := false
	m.Root.Traverse(func(n *Node) {
		if n.Mesh == nil || len(n.Mesh.Vertices) == 0 {
			return
		}
		b := n.Mesh.LocalAABB.Transform(n.WorldMatrix())
		if !found {
			box, found = b, true
			return
		}
		box = box.Union(b)
	})
	return box, found
}
