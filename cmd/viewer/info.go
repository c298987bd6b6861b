package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"
	"github.com/spf13/cobra"

	"model-viewer/scene"
)

func newInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info <model.glb|model.gltf>",
		Short: "Display model information",
		Long:  "Display details about a local glTF/GLB file: asset metadata, element counts, vertex and triangle totals and the bounding box.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfo(cmd.OutOrStdout(), args[0])
		},
	}
}

func runInfo(w io.Writer, modelPath string) error {
	ext := strings.ToLower(filepath.Ext(modelPath))
	if ext != ".glb" && ext != ".gltf" {
		return fmt.Errorf("unsupported format: %s (use .gltf or .glb)", ext)
	}
	stat, err := os.Stat(modelPath)
	if err != nil {
		return fmt.Errorf("cannot access file: %w", err)
	}

	doc, err := gltf.Open(modelPath)
	if err != nil {
		return fmt.Errorf("parse model: %w", err)
	}
	model, err := scene.DecodeDocument(doc, filepath.Base(modelPath), filepath.Dir(modelPath))
	if err != nil {
		return fmt.Errorf("decode model: %w", err)
	}

	triangles := 0
	for _, mesh := range model.Meshes() {
		triangles += mesh.TriangleCount()
	}

	fmt.Fprintf(w, "File:       %s\n", filepath.Base(modelPath))
	fmt.Fprintf(w, "Format:     %s\n", strings.ToUpper(strings.TrimPrefix(ext, ".")))
	fmt.Fprintf(w, "Size:       %.2f KB\n", float64(stat.Size())/1024)
	if doc.Asset.Generator != "" {
		fmt.Fprintf(w, "Generator:  %s\n", doc.Asset.Generator)
	}
	fmt.Fprintf(w, "Version:    %s\n", doc.Asset.Version)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Nodes:      %d\n", len(doc.Nodes))
	fmt.Fprintf(w, "Meshes:     %d\n", len(doc.Meshes))
	fmt.Fprintf(w, "Materials:  %d\n", len(doc.Materials))
	fmt.Fprintf(w, "Textures:   %d\n", len(doc.Textures))
	fmt.Fprintf(w, "Images:     %d\n", len(doc.Images))
	fmt.Fprintf(w, "Animations: %d\n", len(doc.Animations))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Vertices:   %d\n", model.VertexCount())
	fmt.Fprintf(w, "Triangles:  %d\n", triangles)

	if box, ok := model.Bounds(); ok {
		size := box.Max.Sub(box.Min)
		center := box.Center()
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Bounds Min: (%.3f, %.3f, %.3f)\n", box.Min.X(), box.Min.Y(), box.Min.Z())
		fmt.Fprintf(w, "Bounds Max: (%.3f, %.3f, %.3f)\n", box.Max.X(), box.Max.Y(), box.Max.Z())
		fmt.Fprintf(w, "Dimensions: %.3f x %.3f x %.3f\n", size.X(), size.Y(), size.Z())
		fmt.Fprintf(w, "Center:     (%.3f, %.3f, %.3f)\n", center.X(), center.Y(), center.Z())
	}

	if len(model.Warnings) > 0 {
		fmt.Fprintln(w)
		for _, warning := range model.Warnings {
			fmt.Fprintf(w, "Warning:    %s\n", warning)
		}
	}
	return nil
}
