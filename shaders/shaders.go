// Package shaders carries the GLSL sources for the fixed pipeline.
// The renderer only loads compiled SPIR-V, so regenerate the .spv
// files after editing any of the sources.
package shaders

//go:generate glslangValidator -V triangle.vert -o triangle.vert.spv
//go:generate glslangValidator -V triangle.frag -o triangle.frag.spv
